package cell

import (
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/proxigo/nlist"
	"github.com/hupe1980/proxigo/query"
	"github.com/hupe1980/proxigo/vec3"
)

// searchState tracks the phase of a per-point search.
type searchState uint8

const (
	// stateExpanding widens the searched cell shell.
	stateExpanding searchState = iota
	// stateDraining emits accepted candidates.
	stateDraining
	// stateDone is terminal; further Next calls return no bonds.
	stateDone
)

// ballIterator is the fixed-radius per-point search. It walks the home
// cell's memoized 27-block first and then expands shell by shell, emitting
// one accepted bond per Next call. The searched set guards against
// revisiting cells that wraparound folds into multiple shells on small
// grids.
type ballIterator struct {
	idx          *Index
	queryPoint   vec3.Vec3
	qpIdx        uint32
	rMax         float32
	rMax2, rMin2 float32
	excludeII    bool

	home    [3]int32
	block   []int32 // memoized neighbor block of the home cell
	bi      int
	shell   int32
	offsets [][3]int32
	oi      int

	members  *CellIterator
	searched *roaring.Bitmap
	state    searchState
}

func newBallIterator(idx *Index, queryPoint vec3.Vec3, queryPointIdx int, args query.Args) *ballIterator {
	homeCell := idx.CellOf(queryPoint)
	hi, hj, hk := idx.cellCoord(homeCell)
	return &ballIterator{
		idx:        idx,
		queryPoint: queryPoint,
		qpIdx:      uint32(queryPointIdx),
		rMax:       args.RMax,
		rMax2:      args.RMax * args.RMax,
		rMin2:      args.RMin * args.RMin,
		excludeII:  args.ExcludeII,
		home:       [3]int32{hi, hj, hk},
		block:      idx.NeighborCells(homeCell),
		shell:      1, // the block covers shells 0 and 1
		searched:   roaring.New(),
	}
}

// advance moves to the next unsearched cell, or flips to stateDone once
// the minimum possible distance of the next shell exceeds the cutoff.
func (it *ballIterator) advance() {
	for {
		if it.bi < len(it.block) {
			c := it.block[it.bi]
			it.bi++
			if it.searched.CheckedAdd(uint32(c)) {
				it.members = it.idx.PointsIn(c)
				return
			}
			continue
		}
		if it.oi >= len(it.offsets) {
			next := it.shell + 1
			// A cell in shell s is at least (s-1) cell widths away.
			if float32(next-1)*it.idx.width > it.rMax {
				it.state = stateDone
				return
			}
			it.shell = next
			it.offsets = shellOffsets(next, it.idx.b.Is2D())
			it.oi = 0
			continue
		}
		off := it.offsets[it.oi]
		it.oi++
		c := it.idx.wrapCell(it.home[0]+off[0], it.home[1]+off[1], it.home[2]+off[2])
		if it.searched.CheckedAdd(uint32(c)) {
			it.members = it.idx.PointsIn(c)
			return
		}
	}
}

// Next implements query.PerPointIterator.
func (it *ballIterator) Next() (nlist.Bond, bool) {
	for it.state != stateDone {
		if it.members == nil {
			it.state = stateExpanding
			it.advance()
			if it.members == nil {
				break
			}
			it.state = stateDraining
		}
		for {
			j, ok := it.members.Next()
			if !ok {
				it.members = nil
				break
			}
			if it.excludeII && uint32(j) == it.qpIdx {
				continue
			}
			d := it.idx.b.Wrap(it.idx.points[j].Sub(it.queryPoint))
			d2 := d.LengthSquared()
			if d2 < it.rMax2 && d2 >= it.rMin2 {
				return nlist.NewBond(it.qpIdx, uint32(j), sqrt32(d2), d), true
			}
		}
	}
	it.state = stateDone
	return nlist.Bond{}, false
}

// nearestIterator is the k-nearest per-point search. It buffers all
// candidates from progressively wider shells and stops expanding once it
// holds at least k candidates whose k-th smallest distance beats the
// minimum possible distance of the next unsearched shell. The buffered
// candidates are then drained nearest-first, k at most.
type nearestIterator struct {
	idx        *Index
	queryPoint vec3.Vec3
	qpIdx      uint32
	k          int
	rMin2      float32
	excludeII  bool

	home     [3]int32
	shell    int32
	maxShell int32
	offsets  [][3]int32
	oi       int

	members    *CellIterator
	searched   *roaring.Bitmap
	candidates []nlist.Bond
	pos        int
	state      searchState
}

func newNearestIterator(idx *Index, queryPoint vec3.Vec3, queryPointIdx int, args query.Args) *nearestIterator {
	homeCell := idx.CellOf(queryPoint)
	hi, hj, hk := idx.cellCoord(homeCell)

	// Beyond this shell the whole grid has been seen through wraparound.
	minPlane := idx.b.MinNearestPlaneDistance()
	maxShell := int32(math.Ceil(float64(minPlane)/float64(2*idx.width))) + 1

	return &nearestIterator{
		idx:        idx,
		queryPoint: queryPoint,
		qpIdx:      uint32(queryPointIdx),
		k:          args.NumNeighbors,
		rMin2:      args.RMin * args.RMin,
		excludeII:  args.ExcludeII,
		home:       [3]int32{hi, hj, hk},
		maxShell:   maxShell,
		offsets:    shellOffsets(0, idx.b.Is2D()),
		searched:   roaring.New(),
	}
}

// expand runs the shell search to its termination condition and sorts the
// accumulated candidates for draining.
func (it *nearestIterator) expand() {
	for {
		if it.members != nil {
			for {
				j, ok := it.members.Next()
				if !ok {
					break
				}
				if it.excludeII && uint32(j) == it.qpIdx {
					continue
				}
				d := it.idx.b.Wrap(it.idx.points[j].Sub(it.queryPoint))
				d2 := d.LengthSquared()
				if d2 < it.rMin2 {
					continue
				}
				it.candidates = append(it.candidates, nlist.NewBond(it.qpIdx, uint32(j), sqrt32(d2), d))
			}
			it.members = nil
		}

		if it.oi >= len(it.offsets) {
			// Shell complete. Stop once k candidates beat the closest
			// possible point of the next shell.
			next := it.shell + 1
			if len(it.candidates) >= it.k {
				it.sortCandidates()
				if it.candidates[it.k-1].Distance < float32(next-1)*it.idx.width {
					break
				}
			}
			if next > it.maxShell {
				break
			}
			it.shell = next
			it.offsets = shellOffsets(next, it.idx.b.Is2D())
			it.oi = 0
			continue
		}

		off := it.offsets[it.oi]
		it.oi++
		c := it.idx.wrapCell(it.home[0]+off[0], it.home[1]+off[1], it.home[2]+off[2])
		if it.searched.CheckedAdd(uint32(c)) {
			it.members = it.idx.PointsIn(c)
		}
	}

	it.sortCandidates()
	if len(it.candidates) > it.k {
		it.candidates = it.candidates[:it.k]
	}
	it.state = stateDraining
}

func (it *nearestIterator) sortCandidates() {
	sort.Slice(it.candidates, func(i, j int) bool {
		return it.candidates[i].Less(it.candidates[j])
	})
}

// Next implements query.PerPointIterator.
func (it *nearestIterator) Next() (nlist.Bond, bool) {
	if it.state == stateExpanding {
		it.expand()
	}
	if it.state == stateDraining {
		if it.pos < len(it.candidates) {
			b := it.candidates[it.pos]
			it.pos++
			return b, true
		}
		it.state = stateDone
	}
	return nlist.Bond{}, false
}

func sqrt32(f float32) float32 {
	return float32(math.Sqrt(float64(f)))
}
