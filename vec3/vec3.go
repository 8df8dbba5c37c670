// Package vec3 provides the single-precision 3-vector used throughout proxigo.
//
// Point coordinates, displacement vectors and bond vectors are all Vec3
// values. The type is small and passed by value everywhere.
package vec3

import "math"

// Vec3 is a single-precision 3-component vector.
type Vec3 struct {
	X, Y, Z float32
}

// New returns a Vec3 with the given components.
func New(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Neg returns -v.
func (v Vec3) Neg() Vec3 {
	return Vec3{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float32 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// LengthSquared returns the squared Euclidean norm of v.
func (v Vec3) LengthSquared() float32 {
	return v.Dot(v)
}

// Length returns the Euclidean norm of v.
func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.LengthSquared())))
}
