package box

import (
	"errors"

	"github.com/hupe1980/proxigo/vec3"
)

// ErrNegativeBuffer indicates a negative buffer distance.
var ErrNegativeBuffer = errors.New("buffer distance must be non-negative")

// ErrNoPoints indicates an empty input point set.
var ErrNoPoints = errors.New("cannot buffer an empty point set")

// PeriodicBuffer replicates points into the periodic images surrounding the
// primary box so that non-periodic consumers can operate on a point set
// padded out to a buffer distance.
type PeriodicBuffer struct {
	points []vec3.Vec3
	ids    []uint32
}

// ComputePeriodicBuffer returns the periodic replicas of points that fall
// within buff of the primary box, together with the index of the source
// point each replica was generated from. Points themselves are wrapped into
// the primary image first; the replicas exclude the primary image.
func ComputePeriodicBuffer(b Box, points []vec3.Vec3, buff float32) (*PeriodicBuffer, error) {
	if buff < 0 {
		return nil, ErrNegativeBuffer
	}
	if len(points) == 0 {
		return nil, ErrNoPoints
	}

	// Number of whole images needed per axis to cover the buffer distance.
	plane := b.NearestPlaneDistance()
	nx := imagesFor(buff, plane.X)
	ny := imagesFor(buff, plane.Y)
	nz := 0
	if !b.Is2D() {
		nz = imagesFor(buff, plane.Z)
	}

	fx := buff / plane.X
	fy := buff / plane.Y
	var fz float32
	if !b.Is2D() {
		fz = buff / plane.Z
	}

	pb := &PeriodicBuffer{}
	for i, p := range points {
		wrapped := b.WrapPoint(p)
		for iz := -nz; iz <= nz; iz++ {
			for iy := -ny; iy <= ny; iy++ {
				for ix := -nx; ix <= nx; ix++ {
					if ix == 0 && iy == 0 && iz == 0 {
						continue
					}
					replica := b.Unwrap(wrapped, ix, iy, iz)
					f := b.MakeFraction(replica)
					if f.X < -fx || f.X > 1+fx || f.Y < -fy || f.Y > 1+fy {
						continue
					}
					if !b.Is2D() && (f.Z < -fz || f.Z > 1+fz) {
						continue
					}
					pb.points = append(pb.points, replica)
					pb.ids = append(pb.ids, uint32(i))
				}
			}
		}
	}
	return pb, nil
}

func imagesFor(buff, plane float32) int {
	if buff == 0 {
		return 0
	}
	n := int(buff / plane)
	return n + 1
}

// Points returns the replicated buffer points.
func (pb *PeriodicBuffer) Points() []vec3.Vec3 { return pb.points }

// IDs returns, for each buffer point, the index of the source point it
// replicates.
func (pb *PeriodicBuffer) IDs() []uint32 { return pb.ids }

// Len returns the number of buffer points.
func (pb *PeriodicBuffer) Len() int { return len(pb.points) }
