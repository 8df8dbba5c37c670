package query

import (
	"github.com/hupe1980/proxigo/box"
)

// Mode selects the kind of neighbor search.
type Mode uint8

const (
	// ModeNone is the zero value; queries must set an explicit mode.
	ModeNone Mode = iota
	// ModeBall finds all neighbors within a fixed radius RMax.
	ModeBall
	// ModeNearest finds the NumNeighbors nearest neighbors.
	ModeNearest
)

// String returns a string representation of the Mode.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeBall:
		return "ball"
	case ModeNearest:
		return "nearest"
	default:
		return "unknown"
	}
}

// Args carries the recognized query options.
type Args struct {
	// Mode selects ball or nearest search. Required.
	Mode Mode

	// RMax is the cutoff radius for ball queries.
	RMax float32

	// RMin excludes bonds closer than this distance. Optional.
	RMin float32

	// NumNeighbors is the target neighbor count for nearest queries.
	NumNeighbors int

	// ExcludeII drops self-bonds (query point index == point index).
	ExcludeII bool

	// RGuess, when positive, switches nearest queries to guess-based
	// radius growth: ball searches are reissued with the radius multiplied
	// by Scale until enough candidates are found or the radius reaches
	// half the minimum nearest-plane distance of the box.
	RGuess float32

	// Scale is the per-attempt growth factor for guess-based search.
	// Must be > 1; DefaultArgs sets 1.1.
	Scale float32
}

// DefaultArgs holds the default query arguments.
var DefaultArgs = Args{
	Scale: 1.1,
}

// Validate checks the arguments against the box, returning
// ErrInvalidQueryMode or ErrInvalidArgs. It fills in the default Scale when
// unset.
func (a *Args) Validate(b box.Box) error {
	switch a.Mode {
	case ModeBall:
		if a.RMax <= 0 {
			return &ErrInvalidArgs{Reason: "ball mode requires r_max > 0"}
		}
		if a.RMin < 0 || a.RMin >= a.RMax {
			return &ErrInvalidArgs{Reason: "r_min must satisfy 0 <= r_min < r_max"}
		}
	case ModeNearest:
		if a.NumNeighbors <= 0 {
			return &ErrInvalidArgs{Reason: "nearest mode requires num_neighbors > 0"}
		}
		if a.RMin < 0 {
			return &ErrInvalidArgs{Reason: "r_min must be non-negative"}
		}
		if a.RGuess > 0 {
			if a.Scale == 0 {
				a.Scale = DefaultArgs.Scale
			}
			if a.Scale <= 1 {
				return &ErrInvalidArgs{Reason: "scale must be > 1 for guess-based search"}
			}
		}
	default:
		return &ErrInvalidQueryMode{Mode: a.Mode}
	}
	if b.IsNull() {
		return &ErrInvalidArgs{Reason: "query requires a non-null box"}
	}
	return nil
}
