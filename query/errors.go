package query

import (
	"errors"
	"fmt"
)

// ErrEmptyPointSet is returned when an index is built over zero points.
var ErrEmptyPointSet = errors.New("cannot build an index over an empty point set")

// ErrInvalidCellWidth indicates a grid cell width too large for the box:
// twice the width exceeds a nearest-plane distance, so a point could see
// two periodic images of the same cell and double-count a neighbor.
type ErrInvalidCellWidth struct {
	Width    float32
	MinPlane float32
}

func (e *ErrInvalidCellWidth) Error() string {
	return fmt.Sprintf("invalid cell width %g: twice the width exceeds the nearest-plane distance %g", e.Width, e.MinPlane)
}

// ErrInvalidQueryMode indicates an unsupported or absent query mode.
type ErrInvalidQueryMode struct {
	Mode Mode
}

func (e *ErrInvalidQueryMode) Error() string {
	return fmt.Sprintf("invalid query mode: %s", e.Mode)
}

// ErrInvalidArgs indicates query arguments that fail validation for the
// selected mode.
type ErrInvalidArgs struct {
	Reason string
}

func (e *ErrInvalidArgs) Error() string {
	return fmt.Sprintf("invalid query arguments: %s", e.Reason)
}

// ErrRadiusGrowth indicates the guess-based nearest search exceeded its
// retry budget before the search radius reached the box cap.
type ErrRadiusGrowth struct {
	Attempts int
	RMax     float32
}

func (e *ErrRadiusGrowth) Error() string {
	return fmt.Sprintf("radius growth exhausted after %d attempts (r_max=%g)", e.Attempts, e.RMax)
}
