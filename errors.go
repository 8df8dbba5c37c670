package proxigo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/proxigo/box"
	"github.com/hupe1980/proxigo/nlist"
	"github.com/hupe1980/proxigo/query"
	"github.com/hupe1980/proxigo/vec3"
)

var (
	// ErrEmptyPointSet is returned when an operation needs at least one point.
	ErrEmptyPointSet = errors.New("point set is empty")

	// ErrStaleNeighborList is returned when a neighbor list is validated
	// against point counts it was not built for.
	ErrStaleNeighborList = errors.New("neighbor list is stale")
)

// ErrInvalidCellWidth indicates a grid cell width too large for the box.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidCellWidth struct {
	Width    float32
	MinPlane float32
	cause    error
}

func (e *ErrInvalidCellWidth) Error() string {
	return fmt.Sprintf("invalid cell width: %g exceeds half the nearest-plane distance %g", e.Width, e.MinPlane)
}

func (e *ErrInvalidCellWidth) Unwrap() error { return e.cause }

// ErrInvalidQueryMode indicates an unsupported or absent query mode.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidQueryMode struct {
	Mode  Mode
	cause error
}

func (e *ErrInvalidQueryMode) Error() string {
	return fmt.Sprintf("invalid query mode: %s", e.Mode)
}

func (e *ErrInvalidQueryMode) Unwrap() error { return e.cause }

// ErrInvalidArgs indicates inconsistent query arguments.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidArgs struct {
	Reason string
	cause  error
}

func (e *ErrInvalidArgs) Error() string {
	return fmt.Sprintf("invalid query arguments: %s", e.Reason)
}

func (e *ErrInvalidArgs) Unwrap() error { return e.cause }

// ErrDegenerateBox indicates non-positive box lengths or non-finite tilts.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDegenerateBox struct {
	L     vec3.Vec3
	cause error
}

func (e *ErrDegenerateBox) Error() string {
	return fmt.Sprintf("degenerate box: lengths (%g, %g, %g)", e.L.X, e.L.Y, e.L.Z)
}

func (e *ErrDegenerateBox) Unwrap() error { return e.cause }

// ErrRadiusGrowth indicates the guess-based nearest search exhausted its
// retry budget before covering the box.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrRadiusGrowth struct {
	Attempts int
	RMax     float32
	cause    error
}

func (e *ErrRadiusGrowth) Error() string {
	return fmt.Sprintf("radius growth exceeded %d attempts at r=%g", e.Attempts, e.RMax)
}

func (e *ErrRadiusGrowth) Unwrap() error { return e.cause }

// translateError folds subpackage errors into the package's exported
// taxonomy so callers only match against one set of types.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, query.ErrEmptyPointSet) {
		return fmt.Errorf("%w: %w", ErrEmptyPointSet, err)
	}

	var cw *query.ErrInvalidCellWidth
	if errors.As(err, &cw) {
		return &ErrInvalidCellWidth{Width: cw.Width, MinPlane: cw.MinPlane, cause: err}
	}
	var qm *query.ErrInvalidQueryMode
	if errors.As(err, &qm) {
		return &ErrInvalidQueryMode{Mode: qm.Mode, cause: err}
	}
	var ia *query.ErrInvalidArgs
	if errors.As(err, &ia) {
		return &ErrInvalidArgs{Reason: ia.Reason, cause: err}
	}
	var rg *query.ErrRadiusGrowth
	if errors.As(err, &rg) {
		return &ErrRadiusGrowth{Attempts: rg.Attempts, RMax: rg.RMax, cause: err}
	}

	var db *box.ErrDegenerate
	if errors.As(err, &db) {
		return &ErrDegenerateBox{L: db.L, cause: err}
	}

	var st *nlist.ErrStale
	if errors.As(err, &st) {
		return fmt.Errorf("%w: %w", ErrStaleNeighborList, err)
	}

	return err
}
