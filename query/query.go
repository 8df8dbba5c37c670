// Package query defines the neighbor-query abstraction: query arguments,
// the NeighborQuery interface implemented by the spatial indexes, and the
// multi-point iterator that streams bonds or materializes a NeighborList
// through the parallel build pipeline.
package query

import (
	"context"

	"github.com/hupe1980/proxigo/box"
	"github.com/hupe1980/proxigo/nlist"
	"github.com/hupe1980/proxigo/vec3"
)

// PerPointIterator streams the accepted bonds of a single query point.
// Implementations are resumable state machines driven by one goroutine at a
// time.
type PerPointIterator interface {
	Next() (nlist.Bond, bool)
}

// NeighborQuery is a spatial index over an immutable point set. The index
// is read-only for the duration of all concurrent searches; QuerySingle
// must be safe to call from multiple goroutines.
type NeighborQuery interface {
	// Box returns the periodic box the points live in.
	Box() box.Box

	// NumPoints returns the number of indexed points.
	NumPoints() int

	// Point returns the i-th indexed point.
	Point(i int) vec3.Vec3

	// QuerySingle creates a per-point iterator for one query point. The
	// args must already be validated.
	QuerySingle(queryPoint vec3.Vec3, queryPointIdx int, args Args) (PerPointIterator, error)
}

// Iterator drives per-point searches over a set of query points. It can be
// consumed as a stream via Next, or realized into a packed NeighborList via
// ToNeighborList, which runs the searches in parallel.
type Iterator struct {
	nq          NeighborQuery
	queryPoints []vec3.Vec3
	args        Args
	workers     int

	cur int
	per PerPointIterator
	err error
}

// NewIterator validates args and returns an iterator over the query points.
// workers bounds the parallelism of ToNeighborList; <= 0 uses GOMAXPROCS.
func NewIterator(nq NeighborQuery, queryPoints []vec3.Vec3, args Args, workers int) (*Iterator, error) {
	if err := args.Validate(nq.Box()); err != nil {
		return nil, err
	}
	return &Iterator{
		nq:          nq,
		queryPoints: queryPoints,
		args:        args,
		workers:     workers,
	}, nil
}

// perPointIterator creates the iterator for one query point, routing
// guess-based nearest queries through the radius-growth wrapper.
func perPointIterator(nq NeighborQuery, qp vec3.Vec3, idx int, args Args) (PerPointIterator, error) {
	if args.Mode == ModeNearest && args.RGuess > 0 {
		return newGrowingNearestIterator(nq, qp, idx, args)
	}
	return nq.QuerySingle(qp, idx, args)
}

// Next returns the next accepted bond across all query points, in query
// point order. The third return value carries iterator construction errors;
// once it is non-nil the iterator is exhausted.
func (it *Iterator) Next() (nlist.Bond, bool, error) {
	if it.err != nil {
		return nlist.Bond{}, false, it.err
	}
	for {
		if it.per == nil {
			if it.cur >= len(it.queryPoints) {
				return nlist.Bond{}, false, nil
			}
			per, err := perPointIterator(it.nq, it.queryPoints[it.cur], it.cur, it.args)
			if err != nil {
				it.err = err
				return nlist.Bond{}, false, err
			}
			it.per = per
		}
		if b, ok := it.per.Next(); ok {
			return b, true, nil
		}
		it.per = nil
		it.cur++
	}
}

// ToNeighborList runs the parallel build pipeline over all query points and
// returns the packed NeighborList. It does not consume the streaming state
// of the iterator; each query point is searched from scratch.
func (it *Iterator) ToNeighborList(ctx context.Context) (*nlist.NeighborList, error) {
	factory := func(i int) (nlist.PerPointIterator, error) {
		return perPointIterator(it.nq, it.queryPoints[i], i, it.args)
	}
	return nlist.Build(ctx, factory, len(it.queryPoints), it.nq.NumPoints(), it.workers)
}
