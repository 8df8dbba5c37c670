// Package raw implements the brute-force neighbor query over raw points.
//
// Every query point is compared against every indexed point. Squared
// distances are evaluated in batch over columnar coordinate arrays, which
// vectorizes well; k-nearest selection runs through a bounded max-heap.
// The brute-force index is the fallback for boxes too small for a grid
// and the reference oracle the grid index is tested against.
package raw

import (
	"math"

	"github.com/viterin/vek/vek32"

	"github.com/hupe1980/proxigo/box"
	"github.com/hupe1980/proxigo/internal/queue"
	"github.com/hupe1980/proxigo/nlist"
	"github.com/hupe1980/proxigo/query"
	"github.com/hupe1980/proxigo/vec3"
)

// Compile-time check that Index satisfies the neighbor-query interface.
var _ query.NeighborQuery = (*Index)(nil)

// Index stores the point set columnar for batch distance evaluation. It is
// immutable after construction.
type Index struct {
	b      box.Box
	points []vec3.Vec3

	xs, ys, zs []float32
}

// New builds a brute-force index over points. It fails with
// query.ErrEmptyPointSet for zero points.
func New(b box.Box, points []vec3.Vec3) (*Index, error) {
	if len(points) == 0 {
		return nil, query.ErrEmptyPointSet
	}
	idx := &Index{
		b:      b,
		points: points,
		xs:     make([]float32, len(points)),
		ys:     make([]float32, len(points)),
		zs:     make([]float32, len(points)),
	}
	for i, p := range points {
		idx.xs[i] = p.X
		idx.ys[i] = p.Y
		idx.zs[i] = p.Z
	}
	return idx, nil
}

// Box implements query.NeighborQuery.
func (idx *Index) Box() box.Box { return idx.b }

// NumPoints implements query.NeighborQuery.
func (idx *Index) NumPoints() int { return len(idx.points) }

// Point implements query.NeighborQuery.
func (idx *Index) Point(i int) vec3.Vec3 { return idx.points[i] }

// displacements returns the minimum-image displacement components and
// squared distances from the query point to every indexed point. The raw
// deltas and the squared-norm accumulation run batched; the periodic wrap
// itself is per element.
func (idx *Index) displacements(qp vec3.Vec3) (dx, dy, dz, d2 []float32) {
	dx = vek32.SubNumber(idx.xs, qp.X)
	dy = vek32.SubNumber(idx.ys, qp.Y)
	dz = vek32.SubNumber(idx.zs, qp.Z)

	for i := range dx {
		w := idx.b.Wrap(vec3.New(dx[i], dy[i], dz[i]))
		dx[i], dy[i], dz[i] = w.X, w.Y, w.Z
	}

	d2 = vek32.Mul(dx, dx)
	vek32.Add_Inplace(d2, vek32.Mul(dy, dy))
	vek32.Add_Inplace(d2, vek32.Mul(dz, dz))
	return dx, dy, dz, d2
}

// QuerySingle implements query.NeighborQuery.
func (idx *Index) QuerySingle(queryPoint vec3.Vec3, queryPointIdx int, args query.Args) (query.PerPointIterator, error) {
	switch args.Mode {
	case query.ModeBall:
		dx, dy, dz, d2 := idx.displacements(queryPoint)
		return &ballIterator{
			idx:       idx,
			qpIdx:     uint32(queryPointIdx),
			dx:        dx,
			dy:        dy,
			dz:        dz,
			d2:        d2,
			rMax2:     args.RMax * args.RMax,
			rMin2:     args.RMin * args.RMin,
			excludeII: args.ExcludeII,
		}, nil
	case query.ModeNearest:
		return idx.newNearestIterator(queryPoint, queryPointIdx, args), nil
	default:
		return nil, &query.ErrInvalidQueryMode{Mode: args.Mode}
	}
}

// ballIterator lazily scans the precomputed distance column.
type ballIterator struct {
	idx            *Index
	qpIdx          uint32
	dx, dy, dz, d2 []float32
	rMax2, rMin2   float32
	excludeII      bool
	pos            int
}

// Next implements query.PerPointIterator.
func (it *ballIterator) Next() (nlist.Bond, bool) {
	for ; it.pos < len(it.d2); it.pos++ {
		j := it.pos
		if it.excludeII && uint32(j) == it.qpIdx {
			continue
		}
		d2 := it.d2[j]
		if d2 < it.rMax2 && d2 >= it.rMin2 {
			b := nlist.NewBond(it.qpIdx, uint32(j), sqrt32(d2), vec3.New(it.dx[j], it.dy[j], it.dz[j]))
			it.pos++
			return b, true
		}
	}
	return nlist.Bond{}, false
}

// nearestIterator selects the k nearest through a bounded max-heap and
// drains them nearest-first.
type nearestIterator struct {
	bonds []nlist.Bond
	pos   int
}

func (idx *Index) newNearestIterator(queryPoint vec3.Vec3, queryPointIdx int, args query.Args) *nearestIterator {
	dx, dy, dz, d2 := idx.displacements(queryPoint)
	qpIdx := uint32(queryPointIdx)
	rMin2 := args.RMin * args.RMin
	k := args.NumNeighbors

	top := queue.NewMax(k)
	for j := range d2 {
		if args.ExcludeII && uint32(j) == qpIdx {
			continue
		}
		if d2[j] < rMin2 {
			continue
		}
		b := nlist.NewBond(qpIdx, uint32(j), sqrt32(d2[j]), vec3.New(dx[j], dy[j], dz[j]))
		if top.Len() < k {
			top.Push(b)
			continue
		}
		if worst, _ := top.Top(); b.Less(worst) {
			top.Pop()
			top.Push(b)
		}
	}

	bonds := make([]nlist.Bond, top.Len())
	for i := top.Len() - 1; i >= 0; i-- {
		bonds[i], _ = top.Pop()
	}
	return &nearestIterator{bonds: bonds}
}

// Next implements query.PerPointIterator.
func (it *nearestIterator) Next() (nlist.Bond, bool) {
	if it.pos >= len(it.bonds) {
		return nlist.Bond{}, false
	}
	b := it.bonds[it.pos]
	it.pos++
	return b, true
}

func sqrt32(f float32) float32 {
	return float32(math.Sqrt(float64(f)))
}
