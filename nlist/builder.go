package nlist

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/proxigo/vec3"
)

// PerPointIterator streams the accepted bonds of one query point. Next
// returns the next bond, or false once the search is exhausted. Absence of
// neighbors is not an error; the iterator simply yields nothing.
type PerPointIterator interface {
	Next() (Bond, bool)
}

// IteratorFactory creates the per-point iterator for a query point. It is
// called from worker goroutines and must be safe for concurrent use; the
// returned iterator is driven by a single worker only.
type IteratorFactory func(queryPointIdx int) (PerPointIterator, error)

// Build runs the two-phase parallel pipeline: query points are partitioned
// into contiguous ranges across workers, each worker drives its per-point
// iterators to exhaustion into a thread-local buffer (Collect), then the
// buffers are sorted, offset and packed into the flat arrays of a
// NeighborList (Merge & Pack).
//
// The output is deterministic: because ranges are contiguous and every
// buffer is sorted with the full tuple ordering, the packed list is
// bond-for-bond identical regardless of the worker count.
//
// Any error aborts the whole build; no partial NeighborList is returned.
func Build(ctx context.Context, factory IteratorFactory, numQueryPoints, numPoints, workers int) (*NeighborList, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > numQueryPoints {
		workers = numQueryPoints
	}
	if numQueryPoints == 0 {
		return FromSortedBonds(nil, numPoints, 0), nil
	}

	// Phase 1: Collect. One contiguous query-point range per buffer; no
	// shared mutable state inside the loop.
	chunk := (numQueryPoints + workers - 1) / workers
	numChunks := (numQueryPoints + chunk - 1) / chunk
	buffers := make([][]Bond, numChunks)

	g, gctx := errgroup.WithContext(ctx)
	for c := 0; c < numChunks; c++ {
		c := c
		lo := c * chunk
		hi := lo + chunk
		if hi > numQueryPoints {
			hi = numQueryPoints
		}
		g.Go(func() error {
			var local []Bond
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				it, err := factory(i)
				if err != nil {
					return err
				}
				for {
					b, ok := it.Next()
					if !ok {
						break
					}
					local = append(local, b)
				}
			}
			sortBonds(local)
			buffers[c] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Phase 2: Merge & Pack. Chunks cover ascending query-point ranges, so
	// concatenation order is already the global tuple order. Compute prefix
	// offsets and fill disjoint slices of the destination arrays in
	// parallel.
	offsets := make([]int, numChunks+1)
	for c, buf := range buffers {
		offsets[c+1] = offsets[c] + len(buf)
	}
	total := offsets[numChunks]

	nl := &NeighborList{
		queryPointIndices: make([]uint32, total),
		pointIndices:      make([]uint32, total),
		distances:         make([]float32, total),
		weights:           make([]float32, total),
		vectors:           make([]vec3.Vec3, total),
		numPoints:         numPoints,
		numQueryPoints:    numQueryPoints,
	}

	g, gctx = errgroup.WithContext(ctx)
	for c := 0; c < numChunks; c++ {
		c := c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			at := offsets[c]
			for _, b := range buffers[c] {
				nl.queryPointIndices[at] = b.QueryPointIdx
				nl.pointIndices[at] = b.PointIdx
				nl.distances[at] = b.Distance
				nl.weights[at] = b.Weight
				nl.vectors[at] = b.Vector
				at++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	nl.buildSegments()
	return nl, nil
}
