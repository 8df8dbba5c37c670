package box

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/proxigo/vec3"
)

func TestNew(t *testing.T) {
	t.Run("Degenerate", func(t *testing.T) {
		_, err := New(-1, 10, 10, 0, 0, 0)
		assert.Error(t, err)
		assert.IsType(t, &ErrDegenerate{}, err)

		_, err = NewCubic(0)
		assert.Error(t, err)
		assert.IsType(t, &ErrDegenerate{}, err)

		_, err = New2D(10, -5, 0)
		assert.Error(t, err)
		assert.IsType(t, &ErrDegenerate{}, err)
	})

	t.Run("NonFiniteTilt", func(t *testing.T) {
		nan := float32(math.NaN())

		_, err := New(10, 10, 10, nan, 0, 0)
		assert.ErrorIs(t, err, ErrTilt)

		_, err = New2D(10, 10, float32(math.Inf(1)))
		assert.ErrorIs(t, err, ErrTilt)
	})

	t.Run("Accessors", func(t *testing.T) {
		b, err := New(2, 4, 8, 0.1, 0.2, 0.3)
		require.NoError(t, err)

		assert.Equal(t, vec3.New(2, 4, 8), b.L())
		xy, xz, yz := b.Tilts()
		assert.Equal(t, float32(0.1), xy)
		assert.Equal(t, float32(0.2), xz)
		assert.Equal(t, float32(0.3), yz)
		assert.False(t, b.Is2D())
		assert.False(t, b.IsNull())
		assert.True(t, Box{}.IsNull())
	})

	t.Run("Volume", func(t *testing.T) {
		b, err := New(2, 3, 4, 0.5, 0.5, 0.5)
		require.NoError(t, err)
		assert.InDelta(t, 24, b.Volume(), 1e-6)

		b2d, err := New2D(3, 4, 0.5)
		require.NoError(t, err)
		assert.InDelta(t, 12, b2d.Volume(), 1e-6)
	})
}

func TestWrap(t *testing.T) {
	t.Run("Cubic", func(t *testing.T) {
		b, err := NewCubic(10)
		require.NoError(t, err)

		w := b.Wrap(vec3.New(6, 0, 0))
		assert.InDelta(t, -4, w.X, 1e-5)
		assert.InDelta(t, 0, w.Y, 1e-5)
		assert.InDelta(t, 0, w.Z, 1e-5)

		// Already minimal displacements pass through unchanged.
		w = b.Wrap(vec3.New(1, -2, 3))
		assert.InDelta(t, 1, w.X, 1e-5)
		assert.InDelta(t, -2, w.Y, 1e-5)
		assert.InDelta(t, 3, w.Z, 1e-5)
	})

	t.Run("Triclinic", func(t *testing.T) {
		b, err := New(10, 10, 10, 0.5, 0, 0)
		require.NoError(t, err)

		// Crossing the y face in a sheared box shifts x by the tilt as well.
		w := b.Wrap(vec3.New(0, 6, 0))
		assert.InDelta(t, -5, w.X, 1e-5)
		assert.InDelta(t, -4, w.Y, 1e-5)
		assert.InDelta(t, 0, w.Z, 1e-5)
	})

	t.Run("TwoD", func(t *testing.T) {
		b, err := New2D(10, 10, 0)
		require.NoError(t, err)

		w := b.Wrap(vec3.New(6, -6, 3))
		assert.InDelta(t, -4, w.X, 1e-5)
		assert.InDelta(t, 4, w.Y, 1e-5)
		assert.Equal(t, float32(0), w.Z)
	})
}

func TestWrapPoint(t *testing.T) {
	b, err := NewCubic(10)
	require.NoError(t, err)

	p := b.WrapPoint(vec3.New(11, 0, 0))
	assert.InDelta(t, 1, p.X, 1e-5)
	assert.InDelta(t, 0, p.Y, 1e-5)
	assert.InDelta(t, 0, p.Z, 1e-5)

	p = b.WrapPoint(vec3.New(-6, 0, 0))
	assert.InDelta(t, 4, p.X, 1e-5)
}

func TestImageUnwrap(t *testing.T) {
	b, err := NewCubic(10)
	require.NoError(t, err)

	orig := vec3.New(11, -7, 23)
	ix, iy, iz := b.Image(orig)
	assert.Equal(t, 1, ix)
	assert.Equal(t, -1, iy)
	assert.Equal(t, 2, iz)

	wrapped := b.WrapPoint(orig)
	back := b.Unwrap(wrapped, ix, iy, iz)
	assert.InDelta(t, orig.X, back.X, 1e-4)
	assert.InDelta(t, orig.Y, back.Y, 1e-4)
	assert.InDelta(t, orig.Z, back.Z, 1e-4)
}

func TestFractionRoundTrip(t *testing.T) {
	b, err := New(10, 12, 14, 0.2, 0.1, 0.3)
	require.NoError(t, err)

	p := vec3.New(1, -2, 3)
	f := b.MakeFraction(p)
	back := b.MakeAbsolute(f)
	assert.InDelta(t, p.X, back.X, 1e-4)
	assert.InDelta(t, p.Y, back.Y, 1e-4)
	assert.InDelta(t, p.Z, back.Z, 1e-4)

	// Box center maps to fraction (0.5, 0.5, 0.5).
	f = b.MakeFraction(vec3.New(0, 0, 0))
	assert.InDelta(t, 0.5, f.X, 1e-6)
	assert.InDelta(t, 0.5, f.Y, 1e-6)
	assert.InDelta(t, 0.5, f.Z, 1e-6)
}

func TestNearestPlaneDistance(t *testing.T) {
	t.Run("Orthorhombic", func(t *testing.T) {
		b, err := New(10, 20, 30, 0, 0, 0)
		require.NoError(t, err)

		d := b.NearestPlaneDistance()
		assert.InDelta(t, 10, d.X, 1e-5)
		assert.InDelta(t, 20, d.Y, 1e-5)
		assert.InDelta(t, 30, d.Z, 1e-5)
		assert.InDelta(t, 10, b.MinNearestPlaneDistance(), 1e-5)
	})

	t.Run("Triclinic", func(t *testing.T) {
		b, err := New(10, 10, 10, 1, 0, 0)
		require.NoError(t, err)

		d := b.NearestPlaneDistance()
		assert.InDelta(t, 10/math.Sqrt(2), float64(d.X), 1e-4)
		assert.InDelta(t, 10, d.Y, 1e-5)
		assert.InDelta(t, 10, d.Z, 1e-5)
		assert.InDelta(t, 10/math.Sqrt(2), float64(b.MinNearestPlaneDistance()), 1e-4)
	})

	t.Run("TwoD", func(t *testing.T) {
		b, err := New2D(10, 20, 0)
		require.NoError(t, err)

		d := b.NearestPlaneDistance()
		assert.InDelta(t, 10, d.X, 1e-5)
		assert.InDelta(t, 20, d.Y, 1e-5)
		assert.Equal(t, float32(0), d.Z)

		// The zero z entry must not win the minimum.
		assert.InDelta(t, 10, b.MinNearestPlaneDistance(), 1e-5)
	})
}
