package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	e := New()
	require.NoError(t, e.Load("a.png", samplePNG(t, 6, 4)))

	for _, op := range []string{"rotate90", "flip-h", "FlipV", "grayscale", "brightness=10", "contrast=-5", "crop=2x2"} {
		require.NoError(t, e.Apply(op), op)
	}
	w, h := e.Bounds()
	assert.Equal(t, [2]int{2, 2}, [2]int{w, h})

	require.NoError(t, e.Apply("undo"))
	w, h = e.Bounds()
	assert.Equal(t, [2]int{4, 6}, [2]int{w, h})
}

func TestApplyErrors(t *testing.T) {
	e := New()
	require.NoError(t, e.Load("a.png", samplePNG(t, 6, 4)))

	for _, op := range []string{"sharpen", "brightness", "brightness=lots", "crop=10", "crop=ax2", "crop=2xb"} {
		assert.Error(t, e.Apply(op), op)
	}
	assert.False(t, e.CanUndo())
}
