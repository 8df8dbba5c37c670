// Package cell implements the uniform-grid spatial index (cell list).
//
// The box is partitioned into a regular grid of cells sized from a
// requested width; points are binned into cells through a linked-list
// bucket table. Queries walk the 27-cell neighborhood of a point's home
// cell and, when the cutoff demands it, continue outward in expanding
// Chebyshev shells with periodic wraparound.
package cell

import (
	"math"

	"github.com/hupe1980/proxigo/box"
	"github.com/hupe1980/proxigo/query"
	"github.com/hupe1980/proxigo/vec3"
)

// Compile-time check that Index satisfies the neighbor-query interface.
var _ query.NeighborQuery = (*Index)(nil)

// tail terminates the per-cell membership chains.
const tail int32 = -1

// Index is the grid spatial index. It is immutable while shared: Update
// rebuilds it serially before any parallel search begins, and all query
// methods are read-only.
type Index struct {
	b      box.Box
	width  float32
	dims   [3]int32
	points []vec3.Vec3

	// Bucket table: heads[c] chains through next[] to tail.
	heads []int32
	next  []int32

	// Neighbor-cell memoization: the sorted 27-block (9 in 2D) of every
	// cell, flattened into an arena. neighborCells[neighborOffsets[c]:
	// neighborOffsets[c+1]] is the block of cell c. Populated once at
	// build time; reads are lock-free.
	neighborOffsets []int32
	neighborCells   []int32
}

// New builds a grid index over points with the requested cell width.
// It fails with query.ErrInvalidCellWidth when twice the width exceeds a
// nearest-plane distance of the box, and with query.ErrEmptyPointSet for
// zero points.
func New(b box.Box, points []vec3.Vec3, cellWidth float32) (*Index, error) {
	idx := &Index{}
	if err := idx.Update(b, points, cellWidth); err != nil {
		return nil, err
	}
	return idx, nil
}

// Update rebuilds the index for a new box, point set or width. The rebuild
// is skipped entirely when all three are unchanged since the previous
// build; the index is never partially updated.
func (idx *Index) Update(b box.Box, points []vec3.Vec3, cellWidth float32) error {
	if idx.unchanged(b, points, cellWidth) {
		return nil
	}

	if len(points) == 0 {
		return query.ErrEmptyPointSet
	}
	plane := b.NearestPlaneDistance()
	if 2*cellWidth > plane.X || 2*cellWidth > plane.Y || (!b.Is2D() && 2*cellWidth > plane.Z) {
		return &query.ErrInvalidCellWidth{Width: cellWidth, MinPlane: b.MinNearestPlaneDistance()}
	}

	dims := computeDimensions(b, cellWidth)

	fresh := &Index{
		b:      b,
		width:  cellWidth,
		dims:   dims,
		points: points,
	}
	fresh.buildBuckets()
	fresh.buildNeighborArena()

	// Publish wholesale so a failed rebuild never leaves a torn index.
	*idx = *fresh
	return nil
}

func (idx *Index) unchanged(b box.Box, points []vec3.Vec3, cellWidth float32) bool {
	if idx.b != b || idx.width != cellWidth || len(idx.points) != len(points) {
		return false
	}
	return len(points) == 0 || &idx.points[0] == &points[0]
}

// computeDimensions derives the grid dimensions from the nearest-plane
// distances. Extremely small boxes still get at least one cell per axis;
// 2D boxes are one cell deep in z.
func computeDimensions(b box.Box, cellWidth float32) [3]int32 {
	plane := b.NearestPlaneDistance()
	dims := [3]int32{
		int32(plane.X / cellWidth),
		int32(plane.Y / cellWidth),
		1,
	}
	if !b.Is2D() {
		dims[2] = int32(plane.Z / cellWidth)
	}
	for i := range dims {
		if dims[i] < 1 {
			dims[i] = 1
		}
	}
	return dims
}

func (idx *Index) buildBuckets() {
	numCells := int(idx.dims[0]) * int(idx.dims[1]) * int(idx.dims[2])
	idx.heads = make([]int32, numCells)
	for c := range idx.heads {
		idx.heads[c] = tail
	}
	idx.next = make([]int32, len(idx.points))

	// Insert in reverse so chains come out in ascending point order.
	for i := len(idx.points) - 1; i >= 0; i-- {
		c := idx.CellOf(idx.points[i])
		idx.next[i] = idx.heads[c]
		idx.heads[c] = int32(i)
	}
}

// buildNeighborArena memoizes every cell's neighbor block. The 3x3x3
// block (3x3 in 2D) collapses along axes with fewer than three cells so a
// cell is never visited twice.
func (idx *Index) buildNeighborArena() {
	numCells := len(idx.heads)
	idx.neighborOffsets = make([]int32, numCells+1)
	idx.neighborCells = idx.neighborCells[:0]

	var block []int32
	for c := 0; c < numCells; c++ {
		block = idx.appendNeighborBlock(block[:0], int32(c))
		idx.neighborCells = append(idx.neighborCells, block...)
		idx.neighborOffsets[c+1] = int32(len(idx.neighborCells))
	}
}

func (idx *Index) appendNeighborBlock(block []int32, c int32) []int32 {
	i, j, k := idx.cellCoord(c)

	starti, endi := collapse(i, idx.dims[0])
	startj, endj := collapse(j, idx.dims[1])
	startk, endk := collapse(k, idx.dims[2])
	if idx.b.Is2D() {
		startk, endk = k, k
	}

	for nk := startk; nk <= endk; nk++ {
		for nj := startj; nj <= endj; nj++ {
			for ni := starti; ni <= endi; ni++ {
				block = append(block, idx.wrapCell(ni, nj, nk))
			}
		}
	}
	sortInt32(block)
	return block
}

// collapse narrows the [i-1, i+1] neighbor range on axes too small for a
// full block: fewer than 3 cells drops the lower neighbor, fewer than 2
// drops the upper.
func collapse(i, dim int32) (start, end int32) {
	start, end = i-1, i+1
	if dim < 3 {
		start = i
	}
	if dim < 2 {
		end = i
	}
	return start, end
}

func sortInt32(s []int32) {
	// Insertion sort; blocks hold at most 27 entries.
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// Box implements query.NeighborQuery.
func (idx *Index) Box() box.Box { return idx.b }

// NumPoints implements query.NeighborQuery.
func (idx *Index) NumPoints() int { return len(idx.points) }

// Point implements query.NeighborQuery.
func (idx *Index) Point(i int) vec3.Vec3 { return idx.points[i] }

// CellWidth returns the width the grid was built with.
func (idx *Index) CellWidth() float32 { return idx.width }

// Dims returns the grid dimensions (nx, ny, nz).
func (idx *Index) Dims() (nx, ny, nz int32) {
	return idx.dims[0], idx.dims[1], idx.dims[2]
}

// NumCells returns the total cell count.
func (idx *Index) NumCells() int { return len(idx.heads) }

// CellOf returns the cell id a point bins into after periodic wrapping.
func (idx *Index) CellOf(p vec3.Vec3) int32 {
	f := idx.b.MakeFraction(p)
	ix := binCoord(f.X, idx.dims[0])
	iy := binCoord(f.Y, idx.dims[1])
	iz := int32(0)
	if !idx.b.Is2D() {
		iz = binCoord(f.Z, idx.dims[2])
	}
	return idx.cellIndex(ix, iy, iz)
}

// binCoord maps a fractional coordinate into [0, dim).
func binCoord(f float32, dim int32) int32 {
	f = float32(math.Mod(float64(f), 1))
	if f < 0 {
		f++
	}
	i := int32(f * float32(dim))
	if i >= dim {
		i = dim - 1
	}
	return i
}

func (idx *Index) cellIndex(i, j, k int32) int32 {
	return (k*idx.dims[1]+j)*idx.dims[0] + i
}

func (idx *Index) cellCoord(c int32) (i, j, k int32) {
	i = c % idx.dims[0]
	j = (c / idx.dims[0]) % idx.dims[1]
	k = c / (idx.dims[0] * idx.dims[1])
	return i, j, k
}

// wrapCell maps possibly out-of-range grid coordinates back into the grid
// modulo its dimensions.
func (idx *Index) wrapCell(i, j, k int32) int32 {
	i = ((i % idx.dims[0]) + idx.dims[0]) % idx.dims[0]
	j = ((j % idx.dims[1]) + idx.dims[1]) % idx.dims[1]
	k = ((k % idx.dims[2]) + idx.dims[2]) % idx.dims[2]
	return idx.cellIndex(i, j, k)
}

// NeighborCells returns the memoized, sorted neighbor block of a cell.
// The returned slice aliases the arena and must not be modified.
func (idx *Index) NeighborCells(c int32) []int32 {
	return idx.neighborCells[idx.neighborOffsets[c]:idx.neighborOffsets[c+1]]
}

// PointsIn returns a restartable iterator over the point indices binned
// into a cell.
func (idx *Index) PointsIn(c int32) *CellIterator {
	return &CellIterator{next: idx.next, head: idx.heads[c], cur: idx.heads[c]}
}

// CellIterator lazily walks one cell's membership chain.
type CellIterator struct {
	next []int32
	head int32
	cur  int32
}

// Next returns the next point index in the cell, or false when the chain
// is exhausted.
func (ci *CellIterator) Next() (int, bool) {
	if ci.cur == tail {
		return 0, false
	}
	j := ci.cur
	ci.cur = ci.next[j]
	return int(j), true
}

// Reset rewinds the iterator to the start of the chain.
func (ci *CellIterator) Reset() { ci.cur = ci.head }

// QuerySingle implements query.NeighborQuery: it creates the per-point
// iterator for the requested mode.
func (idx *Index) QuerySingle(queryPoint vec3.Vec3, queryPointIdx int, args query.Args) (query.PerPointIterator, error) {
	switch args.Mode {
	case query.ModeBall:
		return newBallIterator(idx, queryPoint, queryPointIdx, args), nil
	case query.ModeNearest:
		return newNearestIterator(idx, queryPoint, queryPointIdx, args), nil
	default:
		return nil, &query.ErrInvalidQueryMode{Mode: args.Mode}
	}
}
