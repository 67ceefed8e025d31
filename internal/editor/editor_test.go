package editor

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 10), G: 100, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLoadRejectsUnsupported(t *testing.T) {
	e := New()
	err := e.Load("notes.txt", []byte("hello world"))
	require.ErrorIs(t, err, ErrUnsupportedType)
	assert.Equal(t, MsgUnsupportedType, err.Error())
	assert.False(t, e.Loaded())

	gif := []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
	assert.ErrorIs(t, e.Load("a.gif", gif), ErrUnsupportedType)
}

func TestEditsAndUndo(t *testing.T) {
	e := New()
	require.NoError(t, e.Load("a.png", samplePNG(t, 4, 2)))
	assert.False(t, e.CanUndo())

	require.NoError(t, e.Rotate90())
	w, h := e.Bounds()
	assert.Equal(t, [2]int{2, 4}, [2]int{w, h})

	require.NoError(t, e.Crop(2, 2))
	w, h = e.Bounds()
	assert.Equal(t, [2]int{2, 2}, [2]int{w, h})

	require.NoError(t, e.Grayscale())
	require.NoError(t, e.Brightness(20))
	require.NoError(t, e.Contrast(-10))
	require.NoError(t, e.FlipH())
	require.NoError(t, e.FlipV())
	require.NoError(t, e.Rotate180())
	require.NoError(t, e.Rotate270())

	for e.CanUndo() {
		require.NoError(t, e.Undo())
	}
	w, h = e.Bounds()
	assert.Equal(t, [2]int{4, 2}, [2]int{w, h})
	assert.ErrorIs(t, e.Undo(), ErrNothingToUndo)
}

func TestLoadResetsHistory(t *testing.T) {
	e := New()
	require.NoError(t, e.Load("a.png", samplePNG(t, 4, 2)))
	require.NoError(t, e.FlipH())
	require.True(t, e.CanUndo())

	require.NoError(t, e.Load("b.png", samplePNG(t, 3, 3)))
	assert.False(t, e.CanUndo())
	assert.Equal(t, "b.png", e.Name())
}

func TestRangeChecks(t *testing.T) {
	e := New()
	assert.ErrorIs(t, e.FlipH(), ErrNoImage)

	require.NoError(t, e.Load("a.png", samplePNG(t, 4, 2)))
	assert.Error(t, e.Brightness(150))
	assert.Error(t, e.Contrast(-101))
	assert.Error(t, e.Crop(0, 2))
	assert.False(t, e.CanUndo())
}

func TestExportJPEG(t *testing.T) {
	e := New()
	_, err := e.ExportJPEG()
	require.ErrorIs(t, err, ErrNoImage)

	require.NoError(t, e.Load("a.png", samplePNG(t, 8, 6)))
	data, err := e.ExportJPEG()
	require.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 8, img.Bounds().Dx())

	// The exported image can be loaded back into an editor.
	require.NoError(t, New().Load("edited.jpg", data))
}
