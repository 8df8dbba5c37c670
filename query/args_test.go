package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/proxigo/box"
)

func TestArgsValidate(t *testing.T) {
	b, err := box.NewCubic(10)
	require.NoError(t, err)

	t.Run("Ball", func(t *testing.T) {
		args := Args{Mode: ModeBall, RMax: 1.5}
		assert.NoError(t, args.Validate(b))

		args = Args{Mode: ModeBall}
		assert.IsType(t, &ErrInvalidArgs{}, args.Validate(b))

		args = Args{Mode: ModeBall, RMax: 1, RMin: 1}
		assert.IsType(t, &ErrInvalidArgs{}, args.Validate(b))

		args = Args{Mode: ModeBall, RMax: 1, RMin: -0.5}
		assert.IsType(t, &ErrInvalidArgs{}, args.Validate(b))
	})

	t.Run("Nearest", func(t *testing.T) {
		args := Args{Mode: ModeNearest, NumNeighbors: 6}
		assert.NoError(t, args.Validate(b))

		args = Args{Mode: ModeNearest}
		assert.IsType(t, &ErrInvalidArgs{}, args.Validate(b))

		args = Args{Mode: ModeNearest, NumNeighbors: 3, RMin: -1}
		assert.IsType(t, &ErrInvalidArgs{}, args.Validate(b))
	})

	t.Run("GuessDefaultsScale", func(t *testing.T) {
		args := Args{Mode: ModeNearest, NumNeighbors: 3, RGuess: 0.5}
		require.NoError(t, args.Validate(b))
		assert.Equal(t, DefaultArgs.Scale, args.Scale)

		args = Args{Mode: ModeNearest, NumNeighbors: 3, RGuess: 0.5, Scale: 0.9}
		assert.IsType(t, &ErrInvalidArgs{}, args.Validate(b))
	})

	t.Run("Mode", func(t *testing.T) {
		args := Args{}
		err := args.Validate(b)
		require.Error(t, err)
		var em *ErrInvalidQueryMode
		require.ErrorAs(t, err, &em)
		assert.Equal(t, ModeNone, em.Mode)

		assert.Equal(t, "ball", ModeBall.String())
		assert.Equal(t, "nearest", ModeNearest.String())
		assert.Equal(t, "none", ModeNone.String())
	})

	t.Run("NullBox", func(t *testing.T) {
		args := Args{Mode: ModeBall, RMax: 1}
		assert.IsType(t, &ErrInvalidArgs{}, args.Validate(box.Box{}))
	})
}
