// Package box implements periodic simulation boxes.
//
// A Box describes an orthorhombic or triclinic (tilted) simulation cell in
// two or three dimensions and provides the periodic wrap operations the
// neighbor-query engine is built on: minimum-image displacement wrapping,
// position wrapping, image computation and the nearest-plane distances used
// to validate grid cell widths.
//
// Boxes are immutable value types. Construct a new Box instead of mutating
// an existing one.
package box

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/proxigo/vec3"
)

// ErrDegenerate indicates a box with non-positive lengths or non-finite
// tilt factors.
type ErrDegenerate struct {
	L vec3.Vec3
}

func (e *ErrDegenerate) Error() string {
	return fmt.Sprintf("degenerate box: lengths (%g, %g, %g) must be strictly positive", e.L.X, e.L.Y, e.L.Z)
}

// ErrTilt indicates a non-finite tilt factor.
var ErrTilt = errors.New("tilt factors must be finite")

// Box is a periodic simulation cell.
//
// The cell matrix is upper triangular:
//
//	h = | Lx  xy*Ly  xz*Lz |
//	    | 0   Ly     yz*Lz |
//	    | 0   0      Lz    |
//
// where xy, xz, yz are the dimensionless tilt factors. A 2D box carries
// Lz == 0 and forces the z component of every wrapped vector to zero.
type Box struct {
	lx, ly, lz float32
	xy, xz, yz float32
	is2D       bool
}

// New creates a 3D triclinic box. All three lengths must be strictly
// positive and the tilt factors finite.
func New(lx, ly, lz, xy, xz, yz float32) (Box, error) {
	if lx <= 0 || ly <= 0 || lz <= 0 {
		return Box{}, &ErrDegenerate{L: vec3.New(lx, ly, lz)}
	}
	if !finite(xy) || !finite(xz) || !finite(yz) {
		return Box{}, ErrTilt
	}
	return Box{lx: lx, ly: ly, lz: lz, xy: xy, xz: xz, yz: yz}, nil
}

// NewCubic creates a cubic box with side length l.
func NewCubic(l float32) (Box, error) {
	return New(l, l, l, 0, 0, 0)
}

// New2D creates a 2D box with the given lengths and xy tilt. The z length
// is zero and z components are forced to zero by all wrap operations.
func New2D(lx, ly, xy float32) (Box, error) {
	if lx <= 0 || ly <= 0 {
		return Box{}, &ErrDegenerate{L: vec3.New(lx, ly, 0)}
	}
	if !finite(xy) {
		return Box{}, ErrTilt
	}
	return Box{lx: lx, ly: ly, xy: xy, is2D: true}, nil
}

func finite(f float32) bool {
	f64 := float64(f)
	return !math.IsNaN(f64) && !math.IsInf(f64, 0)
}

// L returns the box lengths along the three axes.
func (b Box) L() vec3.Vec3 { return vec3.New(b.lx, b.ly, b.lz) }

// Tilts returns the xy, xz and yz tilt factors.
func (b Box) Tilts() (xy, xz, yz float32) { return b.xy, b.xz, b.yz }

// Is2D reports whether the box is two-dimensional.
func (b Box) Is2D() bool { return b.is2D }

// IsNull reports whether the box is the zero value.
func (b Box) IsNull() bool { return b == Box{} }

// Volume returns the box volume (area for 2D boxes). Tilting is a shear
// and does not change the volume.
func (b Box) Volume() float32 {
	if b.is2D {
		return b.lx * b.ly
	}
	return b.lx * b.ly * b.lz
}

// MakeAbsolute converts fractional coordinates in [0, 1]^3 to absolute
// coordinates. Fraction (0.5, 0.5, 0.5) maps to the box center at the
// origin.
func (b Box) MakeAbsolute(f vec3.Vec3) vec3.Vec3 {
	v := b.absolute(vec3.New(f.X-0.5, f.Y-0.5, f.Z-0.5))
	if b.is2D {
		v.Z = 0
	}
	return v
}

// MakeFraction converts absolute coordinates to fractional coordinates.
// Points inside the box map into [0, 1]^3.
func (b Box) MakeFraction(v vec3.Vec3) vec3.Vec3 {
	f := b.fractional(v)
	f.X += 0.5
	f.Y += 0.5
	if !b.is2D {
		f.Z += 0.5
	}
	return f
}

// absolute applies the cell matrix h to a fractional displacement.
func (b Box) absolute(f vec3.Vec3) vec3.Vec3 {
	return vec3.New(
		f.X*b.lx+f.Y*b.xy*b.ly+f.Z*b.xz*b.lz,
		f.Y*b.ly+f.Z*b.yz*b.lz,
		f.Z*b.lz,
	)
}

// fractional applies the inverse cell matrix to an absolute displacement.
func (b Box) fractional(v vec3.Vec3) vec3.Vec3 {
	var f vec3.Vec3
	if !b.is2D {
		f.Z = v.Z / b.lz
	}
	f.Y = (v.Y - f.Z*b.yz*b.lz) / b.ly
	f.X = (v.X - f.Y*b.xy*b.ly - f.Z*b.xz*b.lz) / b.lx
	return f
}

// Wrap applies the minimum-image convention to a displacement vector: the
// returned vector points to the nearest periodic image. For 2D boxes the z
// component of the result is zero.
func (b Box) Wrap(d vec3.Vec3) vec3.Vec3 {
	f := b.fractional(d)
	f.X -= roundf(f.X)
	f.Y -= roundf(f.Y)
	if b.is2D {
		f.Z = 0
	} else {
		f.Z -= roundf(f.Z)
	}
	w := b.absolute(f)
	if b.is2D {
		w.Z = 0
	}
	return w
}

// WrapPoint wraps a position back into the primary box image.
func (b Box) WrapPoint(p vec3.Vec3) vec3.Vec3 {
	f := b.MakeFraction(p)
	f.X = modPositive(f.X, 1)
	f.Y = modPositive(f.Y, 1)
	if b.is2D {
		f.Z = 0.5
	} else {
		f.Z = modPositive(f.Z, 1)
	}
	return b.MakeAbsolute(f)
}

// Image returns the periodic image the point lies in: the integer shifts
// that WrapPoint removes. Unwrap(WrapPoint(p), Image(p)) recovers p up to
// rounding.
func (b Box) Image(p vec3.Vec3) (ix, iy, iz int) {
	f := b.MakeFraction(p)
	ix = int(floorf(f.X))
	iy = int(floorf(f.Y))
	if !b.is2D {
		iz = int(floorf(f.Z))
	}
	return ix, iy, iz
}

// Unwrap shifts a wrapped point back into the given periodic image.
func (b Box) Unwrap(p vec3.Vec3, ix, iy, iz int) vec3.Vec3 {
	shift := b.absolute(vec3.New(float32(ix), float32(iy), float32(iz)))
	u := p.Add(shift)
	if b.is2D {
		u.Z = 0
	}
	return u
}

// NearestPlaneDistance returns the minimum distance between opposing box
// faces along each lattice direction. Grid cell widths are validated
// against these distances; for 2D boxes the z entry is zero and callers
// must ignore it.
func (b Box) NearestPlaneDistance() vec3.Vec3 {
	gx := b.xy*b.yz - b.xz
	dx := b.lx / sqrtf(1+b.xy*b.xy+gx*gx)
	dy := b.ly / sqrtf(1+b.yz*b.yz)
	if b.is2D {
		// A 2D box has no z extent; tilt terms involving z vanish.
		dx = b.lx / sqrtf(1+b.xy*b.xy)
		return vec3.New(dx, b.ly, 0)
	}
	return vec3.New(dx, dy, b.lz)
}

// MinNearestPlaneDistance returns the smallest nearest-plane distance,
// skipping z for 2D boxes.
func (b Box) MinNearestPlaneDistance() float32 {
	d := b.NearestPlaneDistance()
	min := d.X
	if d.Y < min {
		min = d.Y
	}
	if !b.is2D && d.Z < min {
		min = d.Z
	}
	return min
}

func roundf(f float32) float32 {
	return float32(math.Round(float64(f)))
}

func floorf(f float32) float32 {
	return float32(math.Floor(float64(f)))
}

func sqrtf(f float32) float32 {
	return float32(math.Sqrt(float64(f)))
}

// modPositive reduces f into [0, m) even for negative f.
func modPositive(f, m float32) float32 {
	r := float32(math.Mod(float64(f), float64(m)))
	if r < 0 {
		r += m
	}
	return r
}

// String implements fmt.Stringer.
func (b Box) String() string {
	if b.is2D {
		return fmt.Sprintf("box.Box(Lx=%g, Ly=%g, xy=%g, 2D)", b.lx, b.ly, b.xy)
	}
	return fmt.Sprintf("box.Box(Lx=%g, Ly=%g, Lz=%g, xy=%g, xz=%g, yz=%g)", b.lx, b.ly, b.lz, b.xy, b.xz, b.yz)
}
