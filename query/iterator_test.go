package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/proxigo/box"
	"github.com/hupe1980/proxigo/nlist"
	"github.com/hupe1980/proxigo/vec3"
)

// scanQuery is a minimal exhaustive NeighborQuery for driving the iterator.
type scanQuery struct {
	b      box.Box
	points []vec3.Vec3
}

func (s *scanQuery) Box() box.Box          { return s.b }
func (s *scanQuery) NumPoints() int        { return len(s.points) }
func (s *scanQuery) Point(i int) vec3.Vec3 { return s.points[i] }

func (s *scanQuery) QuerySingle(qp vec3.Vec3, qpIdx int, args Args) (PerPointIterator, error) {
	var bonds []nlist.Bond
	for j, p := range s.points {
		if args.ExcludeII && j == qpIdx {
			continue
		}
		d := s.b.Wrap(p.Sub(qp))
		dist := d.Length()
		if dist < args.RMin {
			continue
		}
		switch args.Mode {
		case ModeBall:
			if dist < args.RMax {
				bonds = append(bonds, nlist.NewBond(uint32(qpIdx), uint32(j), dist, d))
			}
		case ModeNearest:
			bonds = append(bonds, nlist.NewBond(uint32(qpIdx), uint32(j), dist, d))
		default:
			return nil, &ErrInvalidQueryMode{Mode: args.Mode}
		}
	}
	if args.Mode == ModeNearest {
		for i := 1; i < len(bonds); i++ {
			for j := i; j > 0 && bonds[j].Less(bonds[j-1]); j-- {
				bonds[j], bonds[j-1] = bonds[j-1], bonds[j]
			}
		}
		if len(bonds) > args.NumNeighbors {
			bonds = bonds[:args.NumNeighbors]
		}
	}
	return &sliceBondIterator{bonds: bonds}, nil
}

type sliceBondIterator struct {
	bonds []nlist.Bond
	pos   int
}

func (it *sliceBondIterator) Next() (nlist.Bond, bool) {
	if it.pos >= len(it.bonds) {
		return nlist.Bond{}, false
	}
	b := it.bonds[it.pos]
	it.pos++
	return b, true
}

func fourPointQuery(t *testing.T) *scanQuery {
	t.Helper()
	b, err := box.NewCubic(10)
	require.NoError(t, err)
	return &scanQuery{b: b, points: []vec3.Vec3{
		vec3.New(0, 0, 0),
		vec3.New(1, 0, 0),
		vec3.New(0, 1, 0),
		vec3.New(9, 9, 9),
	}}
}

func TestIterator(t *testing.T) {
	t.Run("InvalidArgs", func(t *testing.T) {
		sq := fourPointQuery(t)
		_, err := NewIterator(sq, sq.points, Args{Mode: ModeBall}, 1)
		assert.IsType(t, &ErrInvalidArgs{}, err)
	})

	t.Run("Stream", func(t *testing.T) {
		sq := fourPointQuery(t)
		it, err := NewIterator(sq, sq.points, Args{Mode: ModeBall, RMax: 1.5, ExcludeII: true}, 1)
		require.NoError(t, err)

		var bonds []nlist.Bond
		for {
			b, ok, err := it.Next()
			require.NoError(t, err)
			if !ok {
				break
			}
			bonds = append(bonds, b)
		}

		// Point 3 sits sqrt(3) from point 0 and farther from the rest.
		require.Len(t, bonds, 6)
		for _, b := range bonds {
			assert.NotEqual(t, uint32(3), b.QueryPointIdx)
			assert.NotEqual(t, uint32(3), b.PointIdx)
			assert.NotEqual(t, b.QueryPointIdx, b.PointIdx)
		}
	})

	t.Run("ToNeighborList", func(t *testing.T) {
		sq := fourPointQuery(t)
		it, err := NewIterator(sq, sq.points, Args{Mode: ModeBall, RMax: 1.5, ExcludeII: true}, 4)
		require.NoError(t, err)

		nl, err := it.ToNeighborList(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 6, nl.NumBonds())
		assert.Equal(t, 2, nl.Count(0))
		assert.Equal(t, 2, nl.Count(1))
		assert.Equal(t, 2, nl.Count(2))
		assert.Equal(t, 0, nl.Count(3))

		assert.InDelta(t, 1.0, nl.Distance(0), 1e-5)
	})
}

func TestGrowingNearest(t *testing.T) {
	t.Run("GrowsToFindNeighbors", func(t *testing.T) {
		sq := fourPointQuery(t)

		// A guess far below the first-neighbor distance forces growth.
		args := Args{Mode: ModeNearest, NumNeighbors: 2, RGuess: 0.05, Scale: 1.5, ExcludeII: true}
		require.NoError(t, args.Validate(sq.b))

		it, err := newGrowingNearestIterator(sq, sq.points[0], 0, args)
		require.NoError(t, err)

		var bonds []nlist.Bond
		for {
			b, ok := it.Next()
			if !ok {
				break
			}
			bonds = append(bonds, b)
		}
		require.Len(t, bonds, 2)
		assert.InDelta(t, 1.0, bonds[0].Distance, 1e-5)
		assert.InDelta(t, 1.0, bonds[1].Distance, 1e-5)
		// Distance ties resolve to the lower point index first.
		assert.Equal(t, uint32(1), bonds[0].PointIdx)
		assert.Equal(t, uint32(2), bonds[1].PointIdx)
	})

	t.Run("CapAllowsFewerNeighbors", func(t *testing.T) {
		b, err := box.NewCubic(10)
		require.NoError(t, err)
		sq := &scanQuery{b: b, points: []vec3.Vec3{vec3.New(0, 0, 0), vec3.New(1, 0, 0)}}

		// Only one other point exists; the search caps out and returns it.
		args := Args{Mode: ModeNearest, NumNeighbors: 5, RGuess: 0.5, Scale: 2, ExcludeII: true}
		require.NoError(t, args.Validate(sq.b))

		it, err := newGrowingNearestIterator(sq, sq.points[0], 0, args)
		require.NoError(t, err)

		b0, ok := it.Next()
		require.True(t, ok)
		assert.Equal(t, uint32(1), b0.PointIdx)

		_, ok = it.Next()
		assert.False(t, ok)
	})

	t.Run("RoutedThroughIterator", func(t *testing.T) {
		sq := fourPointQuery(t)
		args := Args{Mode: ModeNearest, NumNeighbors: 1, RGuess: 0.25, ExcludeII: true}

		it, err := NewIterator(sq, sq.points[:1], args, 1)
		require.NoError(t, err)

		nl, err := it.ToNeighborList(context.Background())
		require.NoError(t, err)
		require.Equal(t, 1, nl.NumBonds())
		assert.InDelta(t, 1.0, nl.Distance(0), 1e-5)
	})
}
