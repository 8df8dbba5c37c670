package cell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/proxigo/box"
	"github.com/hupe1980/proxigo/query"
	"github.com/hupe1980/proxigo/vec3"
)

func cubicBox(t *testing.T, l float32) box.Box {
	t.Helper()
	b, err := box.NewCubic(l)
	require.NoError(t, err)
	return b
}

func TestNew(t *testing.T) {
	t.Run("EmptyPoints", func(t *testing.T) {
		_, err := New(cubicBox(t, 10), nil, 1)
		assert.ErrorIs(t, err, query.ErrEmptyPointSet)
	})

	t.Run("WidthTooLargeOrthorhombic", func(t *testing.T) {
		_, err := New(cubicBox(t, 10), []vec3.Vec3{{}}, 6)
		require.Error(t, err)
		var cw *query.ErrInvalidCellWidth
		require.ErrorAs(t, err, &cw)
		assert.Equal(t, float32(6), cw.Width)
		assert.Equal(t, float32(10), cw.MinPlane)
	})

	t.Run("WidthTooLargeTriclinic", func(t *testing.T) {
		// Tilting shrinks the x nearest-plane distance to 10/sqrt(2) ~ 7.07,
		// so a width valid for the orthorhombic shape no longer fits.
		b, err := box.New(10, 10, 10, 1, 0, 0)
		require.NoError(t, err)

		_, err = New(b, []vec3.Vec3{{}}, 4)
		var cw *query.ErrInvalidCellWidth
		assert.ErrorAs(t, err, &cw)
	})

	t.Run("Dimensions", func(t *testing.T) {
		idx, err := New(cubicBox(t, 10), []vec3.Vec3{{}}, 2)
		require.NoError(t, err)

		nx, ny, nz := idx.Dims()
		assert.Equal(t, int32(5), nx)
		assert.Equal(t, int32(5), ny)
		assert.Equal(t, int32(5), nz)
		assert.Equal(t, 125, idx.NumCells())
		assert.Equal(t, float32(2), idx.CellWidth())
	})

	t.Run("Dimensions2D", func(t *testing.T) {
		b, err := box.New2D(10, 10, 0)
		require.NoError(t, err)

		idx, err := New(b, []vec3.Vec3{{}}, 2)
		require.NoError(t, err)

		nx, ny, nz := idx.Dims()
		assert.Equal(t, int32(5), nx)
		assert.Equal(t, int32(5), ny)
		assert.Equal(t, int32(1), nz)
	})
}

func TestUpdate(t *testing.T) {
	points := []vec3.Vec3{vec3.New(0, 0, 0), vec3.New(1, 1, 1)}

	idx, err := New(cubicBox(t, 10), points, 2)
	require.NoError(t, err)

	t.Run("SkipsWhenUnchanged", func(t *testing.T) {
		heads := &idx.heads[0]
		require.NoError(t, idx.Update(cubicBox(t, 10), points, 2))
		assert.Same(t, heads, &idx.heads[0])
	})

	t.Run("RebuildsOnNewWidth", func(t *testing.T) {
		require.NoError(t, idx.Update(cubicBox(t, 10), points, 1))
		nx, _, _ := idx.Dims()
		assert.Equal(t, int32(10), nx)
	})

	t.Run("FailedUpdateLeavesIndexIntact", func(t *testing.T) {
		before := idx.NumCells()
		err := idx.Update(cubicBox(t, 10), points, 9)
		require.Error(t, err)
		assert.Equal(t, before, idx.NumCells())
	})
}

func TestCellOf(t *testing.T) {
	points := []vec3.Vec3{{}}
	idx, err := New(cubicBox(t, 10), points, 2)
	require.NoError(t, err)

	t.Run("Center", func(t *testing.T) {
		c := idx.CellOf(vec3.New(0, 0, 0))
		assert.Equal(t, idx.cellIndex(2, 2, 2), c)
	})

	t.Run("PeriodicImagesCoincide", func(t *testing.T) {
		a := idx.CellOf(vec3.New(1, 0, 0))
		b := idx.CellOf(vec3.New(11, 0, 0))
		c := idx.CellOf(vec3.New(-9, 0, 0))
		assert.Equal(t, a, b)
		assert.Equal(t, a, c)
	})
}

func TestPointsIn(t *testing.T) {
	points := []vec3.Vec3{
		vec3.New(0, 0, 0),
		vec3.New(0.1, 0, 0),
		vec3.New(4, 4, 4),
	}
	idx, err := New(cubicBox(t, 10), points, 2)
	require.NoError(t, err)

	c := idx.CellOf(points[0])
	it := idx.PointsIn(c)

	// Chains come out in ascending point order.
	j, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, 0, j)
	j, ok = it.Next()
	require.True(t, ok)
	assert.Equal(t, 1, j)
	_, ok = it.Next()
	assert.False(t, ok)

	it.Reset()
	j, ok = it.Next()
	require.True(t, ok)
	assert.Equal(t, 0, j)

	empty := idx.PointsIn(idx.CellOf(vec3.New(-4, -4, -4)))
	_, ok = empty.Next()
	assert.False(t, ok)
}

func TestNeighborCells(t *testing.T) {
	t.Run("FullBlock", func(t *testing.T) {
		idx, err := New(cubicBox(t, 10), []vec3.Vec3{{}}, 2)
		require.NoError(t, err)

		block := idx.NeighborCells(idx.CellOf(vec3.New(0, 0, 0)))
		require.Len(t, block, 27)
		assertUniqueSorted(t, block)
	})

	t.Run("CollapsedSmallGrid", func(t *testing.T) {
		// 2 cells per axis: the wrap-around neighbor coincides with the
		// adjacent one, so the block collapses to 8 unique cells.
		idx, err := New(cubicBox(t, 10), []vec3.Vec3{{}}, 5)
		require.NoError(t, err)

		nx, ny, nz := idx.Dims()
		require.Equal(t, [3]int32{2, 2, 2}, [3]int32{nx, ny, nz})

		block := idx.NeighborCells(0)
		require.Len(t, block, 8)
		assertUniqueSorted(t, block)
	})

	t.Run("TwoDBlock", func(t *testing.T) {
		b, err := box.New2D(10, 10, 0)
		require.NoError(t, err)

		idx, err := New(b, []vec3.Vec3{{}}, 2)
		require.NoError(t, err)

		block := idx.NeighborCells(0)
		require.Len(t, block, 9)
		assertUniqueSorted(t, block)
	})
}

func assertUniqueSorted(t *testing.T, s []int32) {
	t.Helper()
	for i := 1; i < len(s); i++ {
		assert.Greater(t, s[i], s[i-1])
	}
}

func TestShellOffsets(t *testing.T) {
	t.Run("Home", func(t *testing.T) {
		offs := shellOffsets(0, false)
		assert.Equal(t, [][3]int32{{0, 0, 0}}, offs)
	})

	t.Run("Counts", func(t *testing.T) {
		// Shell r holds (2r+1)^3 - (2r-1)^3 cells in 3D.
		assert.Len(t, shellOffsets(1, false), 26)
		assert.Len(t, shellOffsets(2, false), 98)

		// 2D: (2r+1)^2 - (2r-1)^2.
		assert.Len(t, shellOffsets(1, true), 8)
		assert.Len(t, shellOffsets(2, true), 16)
	})

	t.Run("ChebyshevNorm", func(t *testing.T) {
		for _, off := range shellOffsets(3, false) {
			assert.Equal(t, int32(3), chebyshev(off[0], off[1], off[2]))
		}
		for _, off := range shellOffsets(2, true) {
			assert.Equal(t, int32(0), off[2])
		}
	})
}
