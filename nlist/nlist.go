package nlist

import (
	"fmt"
	"sort"

	"github.com/hupe1980/proxigo/vec3"
)

// ErrStale indicates a NeighborList reused against a point set whose sizes
// no longer match the ones it was built from.
type ErrStale struct {
	WantPoints      int
	WantQueryPoints int
	GotPoints       int
	GotQueryPoints  int
}

func (e *ErrStale) Error() string {
	return fmt.Sprintf("stale neighbor list: built for %d points / %d query points, validated against %d / %d",
		e.GotPoints, e.GotQueryPoints, e.WantPoints, e.WantQueryPoints)
}

// NeighborList is a row-sorted sparse adjacency over query points: all
// accepted bonds, sorted so that bonds sharing a query point are contiguous
// with query point indices monotonically non-decreasing, plus a segment
// offset table for O(1) per-query-point range lookup.
//
// A NeighborList is immutable once built. Filter operations return new
// lists.
type NeighborList struct {
	queryPointIndices []uint32
	pointIndices      []uint32
	distances         []float32
	weights           []float32
	vectors           []vec3.Vec3

	// segments[q] is the index of the first bond for query point q;
	// segments has numQueryPoints+1 entries so segments[q+1] bounds the
	// range.
	segments []int

	numPoints      int
	numQueryPoints int
}

// FromSortedBonds packs bonds already sorted by Bond.LessAsTuple into a
// NeighborList. It is the serial counterpart of Build and backs the filter
// operations.
func FromSortedBonds(bonds []Bond, numPoints, numQueryPoints int) *NeighborList {
	nl := &NeighborList{
		queryPointIndices: make([]uint32, len(bonds)),
		pointIndices:      make([]uint32, len(bonds)),
		distances:         make([]float32, len(bonds)),
		weights:           make([]float32, len(bonds)),
		vectors:           make([]vec3.Vec3, len(bonds)),
		numPoints:         numPoints,
		numQueryPoints:    numQueryPoints,
	}
	for i, b := range bonds {
		nl.queryPointIndices[i] = b.QueryPointIdx
		nl.pointIndices[i] = b.PointIdx
		nl.distances[i] = b.Distance
		nl.weights[i] = b.Weight
		nl.vectors[i] = b.Vector
	}
	nl.buildSegments()
	return nl
}

// buildSegments computes the per-query-point offset table from the sorted
// queryPointIndices column.
func (nl *NeighborList) buildSegments() {
	nl.segments = make([]int, nl.numQueryPoints+1)
	bond := 0
	for q := 0; q <= nl.numQueryPoints; q++ {
		for bond < len(nl.queryPointIndices) && int(nl.queryPointIndices[bond]) < q {
			bond++
		}
		nl.segments[q] = bond
	}
	nl.segments[nl.numQueryPoints] = len(nl.queryPointIndices)
}

// NumBonds returns the total bond count.
func (nl *NeighborList) NumBonds() int { return len(nl.queryPointIndices) }

// NumPoints returns the reference point count the list was built from.
func (nl *NeighborList) NumPoints() int { return nl.numPoints }

// NumQueryPoints returns the query point count the list was built from.
func (nl *NeighborList) NumQueryPoints() int { return nl.numQueryPoints }

// Bond returns the i-th bond in packed order.
func (nl *NeighborList) Bond(i int) Bond {
	return Bond{
		QueryPointIdx: nl.queryPointIndices[i],
		PointIdx:      nl.pointIndices[i],
		Distance:      nl.distances[i],
		Weight:        nl.weights[i],
		Vector:        nl.vectors[i],
	}
}

// QueryPointIdx returns the query point index of bond i.
func (nl *NeighborList) QueryPointIdx(i int) uint32 { return nl.queryPointIndices[i] }

// PointIdx returns the reference point index of bond i.
func (nl *NeighborList) PointIdx(i int) uint32 { return nl.pointIndices[i] }

// Distance returns the distance of bond i.
func (nl *NeighborList) Distance(i int) float32 { return nl.distances[i] }

// Weight returns the weight of bond i.
func (nl *NeighborList) Weight(i int) float32 { return nl.weights[i] }

// Vector returns the displacement vector of bond i.
func (nl *NeighborList) Vector(i int) vec3.Vec3 { return nl.vectors[i] }

// Segment returns the half-open bond range [start, end) for a query point.
func (nl *NeighborList) Segment(queryPointIdx int) (start, end int) {
	return nl.segments[queryPointIdx], nl.segments[queryPointIdx+1]
}

// Count returns the number of bonds for a query point.
func (nl *NeighborList) Count(queryPointIdx int) int {
	s, e := nl.Segment(queryPointIdx)
	return e - s
}

// Validate confirms the list is structurally compatible with a point set of
// the given sizes before reuse, returning ErrStale otherwise.
func (nl *NeighborList) Validate(numPoints, numQueryPoints int) error {
	if numPoints != nl.numPoints || numQueryPoints != nl.numQueryPoints {
		return &ErrStale{
			WantPoints:      numPoints,
			WantQueryPoints: numQueryPoints,
			GotPoints:       nl.numPoints,
			GotQueryPoints:  nl.numQueryPoints,
		}
	}
	return nil
}

// Copy returns a deep copy of the list.
func (nl *NeighborList) Copy() *NeighborList {
	bonds := make([]Bond, nl.NumBonds())
	for i := range bonds {
		bonds[i] = nl.Bond(i)
	}
	return FromSortedBonds(bonds, nl.numPoints, nl.numQueryPoints)
}

// Filter returns a new list containing only the bonds keep reports true
// for. The packed ordering is preserved.
func (nl *NeighborList) Filter(keep func(b Bond) bool) *NeighborList {
	var bonds []Bond
	for i := 0; i < nl.NumBonds(); i++ {
		if b := nl.Bond(i); keep(b) {
			bonds = append(bonds, b)
		}
	}
	return FromSortedBonds(bonds, nl.numPoints, nl.numQueryPoints)
}

// FilterR returns a new list containing only bonds with
// rMin <= distance < rMax.
func (nl *NeighborList) FilterR(rMin, rMax float32) *NeighborList {
	return nl.Filter(func(b Bond) bool {
		return b.Distance >= rMin && b.Distance < rMax
	})
}

// Bonds returns all bonds of a query point in packed order.
func (nl *NeighborList) Bonds(queryPointIdx int) []Bond {
	s, e := nl.Segment(queryPointIdx)
	bonds := make([]Bond, 0, e-s)
	for i := s; i < e; i++ {
		bonds = append(bonds, nl.Bond(i))
	}
	return bonds
}

// sortBonds sorts a bond slice with the packed tuple ordering.
func sortBonds(bonds []Bond) {
	sort.Slice(bonds, func(i, j int) bool { return bonds[i].LessAsTuple(bonds[j]) })
}
