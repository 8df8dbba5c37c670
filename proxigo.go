package proxigo

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/proxigo/box"
	"github.com/hupe1980/proxigo/nlist"
	"github.com/hupe1980/proxigo/query"
	"github.com/hupe1980/proxigo/query/cell"
	"github.com/hupe1980/proxigo/query/raw"
	"github.com/hupe1980/proxigo/vec3"
)

// Query modes and argument types re-exported for callers that only import
// the root package.
type (
	// Mode selects the kind of neighbor search.
	Mode = query.Mode

	// QueryArgs carries the recognized query options.
	QueryArgs = query.Args

	// Iterator streams bonds across all query points.
	Iterator = query.Iterator
)

const (
	// ModeBall finds all neighbors within a fixed radius RMax.
	ModeBall = query.ModeBall
	// ModeNearest finds the NumNeighbors nearest neighbors.
	ModeNearest = query.ModeNearest
)

// DefaultQueryArgs holds the default query arguments.
var DefaultQueryArgs = query.DefaultArgs

// Engine answers periodic neighbor queries over a fixed point set. It picks
// the spatial index per query: a uniform grid sized from the query
// arguments, or a brute-force scan when the grid cannot fit the box.
//
// An Engine is safe for concurrent use; the grid index is rebuilt under a
// lock and shared read-only between searches.
type Engine struct {
	mu     sync.Mutex
	b      box.Box
	points []vec3.Vec3
	opts   options

	grid  *cell.Index
	brute *raw.Index
	sem   *semaphore.Weighted
}

// New creates an Engine over points living in b.
func New(b box.Box, points []vec3.Vec3, optFns ...Option) (*Engine, error) {
	if len(points) == 0 {
		return nil, translateError(query.ErrEmptyPointSet)
	}
	if b.IsNull() {
		return nil, translateError(&box.ErrDegenerate{L: b.L()})
	}

	opts := applyOptions(optFns)

	eng := &Engine{
		b:      b,
		points: points,
		opts:   opts,
	}
	if opts.maxConcurrent > 0 {
		eng.sem = semaphore.NewWeighted(opts.maxConcurrent)
	}
	return eng, nil
}

// Box returns the periodic box.
func (e *Engine) Box() box.Box { return e.b }

// NumPoints returns the number of indexed points.
func (e *Engine) NumPoints() int { return len(e.points) }

// Query creates a streaming iterator over queryPoints with the given
// arguments. The iterator can be consumed with Next or materialized with
// ComputeNeighborList.
func (e *Engine) Query(ctx context.Context, queryPoints []vec3.Vec3, args QueryArgs) (*Iterator, error) {
	nq, err := e.index(ctx, args)
	if err != nil {
		e.opts.logger.LogQuery(ctx, args.Mode, len(queryPoints), err)
		return nil, translateError(err)
	}

	it, err := query.NewIterator(nq, queryPoints, args, e.opts.workers)
	err = translateError(err)
	e.opts.logger.LogQuery(ctx, args.Mode, len(queryPoints), err)
	if err != nil {
		return nil, err
	}
	return it, nil
}

// ComputeNeighborList runs the query and packs the result into a
// NeighborList via the parallel build pipeline. Concurrent builds are
// bounded when WithMaxConcurrent is set.
func (e *Engine) ComputeNeighborList(ctx context.Context, queryPoints []vec3.Vec3, args QueryArgs) (*nlist.NeighborList, error) {
	if e.sem != nil {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer e.sem.Release(1)
	}

	it, err := e.Query(ctx, queryPoints, args)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	nl, err := it.ToNeighborList(ctx)
	err = translateError(err)
	if err != nil {
		e.opts.logger.LogNeighborList(ctx, 0, time.Since(start), err)
		return nil, err
	}
	e.opts.logger.LogNeighborList(ctx, nl.NumBonds(), time.Since(start), nil)
	return nl, nil
}

// index returns the spatial index serving a query: the cached grid rebuilt
// for the derived cell width, or the brute-force scan when forced or when
// the width cannot fit the box.
func (e *Engine) index(ctx context.Context, args QueryArgs) (query.NeighborQuery, error) {
	if err := args.Validate(e.b); err != nil {
		return nil, err
	}
	if e.opts.bruteForce {
		return e.bruteIndex()
	}

	width := e.opts.cellWidth
	if width <= 0 {
		width = e.deriveCellWidth(args)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Box and points are fixed per Engine, so the cached grid is reusable
	// whenever the width matches. A changed width swaps in a fresh index
	// rather than rebuilding in place, leaving in-flight searches on the
	// old one undisturbed.
	if e.grid != nil && e.grid.CellWidth() == width {
		return e.grid, nil
	}
	grid, err := cell.New(e.b, e.points, width)
	if err != nil {
		e.opts.logger.LogIndexBuild(ctx, 0, len(e.points), width, err)
		return nil, err
	}
	e.grid = grid
	e.opts.logger.LogIndexBuild(ctx, grid.NumCells(), len(e.points), width, nil)
	return e.grid, nil
}

func (e *Engine) bruteIndex() (*raw.Index, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.brute == nil {
		brute, err := raw.New(e.b, e.points)
		if err != nil {
			return nil, err
		}
		e.brute = brute
	}
	return e.brute, nil
}

// deriveCellWidth picks a grid cell width for the query. Ball queries bin
// at the cutoff radius so the home block covers the search sphere of most
// cutoffs; nearest queries bin at the guess radius when given one, or at a
// density estimate of the k-th neighbor distance. The result is clamped so
// twice the width never exceeds the minimum nearest-plane distance.
func (e *Engine) deriveCellWidth(args QueryArgs) float32 {
	var width float32
	switch args.Mode {
	case ModeBall:
		width = args.RMax
	case ModeNearest:
		if args.RGuess > 0 {
			width = args.RGuess
		} else {
			width = e.densityWidth(args.NumNeighbors)
		}
	}

	if maxWidth := e.b.MinNearestPlaneDistance() / 2; width <= 0 || width > maxWidth {
		width = maxWidth
	}
	return width
}

// densityWidth estimates the distance containing k neighbors under a
// uniform density assumption.
func (e *Engine) densityWidth(k int) float32 {
	n := float64(len(e.points))
	if e.b.Is2D() {
		l := e.b.L()
		area := float64(l.X) * float64(l.Y)
		return float32(math.Sqrt(float64(k+1) * area / (math.Pi * n)))
	}
	vol := float64(e.b.Volume())
	return float32(math.Cbrt(float64(k+1) * vol * 3 / (4 * math.Pi * n)))
}
