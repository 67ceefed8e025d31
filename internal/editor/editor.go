// Package editor holds a single image for quick adjustments before it is
// sent through the resize pipeline.
package editor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
)

// ExportQuality is the JPEG quality used for exports.
const ExportQuality = 92

// MsgUnsupportedType is shown when a file that is not PNG or JPEG is opened.
const MsgUnsupportedType = "Please choose a PNG or JPEG image."

var (
	ErrUnsupportedType = errors.New(MsgUnsupportedType)
	ErrNoImage         = errors.New("no image loaded")
	ErrNothingToUndo   = errors.New("nothing to undo")
)

// Editor applies edits to one image and remembers earlier versions for undo.
type Editor struct {
	name    string
	current image.Image
	history []image.Image
}

// New returns an empty editor.
func New() *Editor {
	return &Editor{}
}

// Load replaces the image with data. The content must sniff as PNG or JPEG.
// Undo history is cleared.
func (e *Editor) Load(name string, data []byte) error {
	ct := strings.SplitN(http.DetectContentType(data), ";", 2)[0]
	if ct != "image/png" && ct != "image/jpeg" {
		return ErrUnsupportedType
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}

	e.name = name
	e.current = img
	e.history = nil
	return nil
}

// Loaded reports whether an image is open.
func (e *Editor) Loaded() bool { return e.current != nil }

// Name is the file name the image was loaded from.
func (e *Editor) Name() string { return e.name }

// Image returns the current image.
func (e *Editor) Image() image.Image { return e.current }

// Bounds returns the current width and height.
func (e *Editor) Bounds() (width, height int) {
	if e.current == nil {
		return 0, 0
	}
	b := e.current.Bounds()
	return b.Dx(), b.Dy()
}

func (e *Editor) apply(fn func(image.Image) image.Image) error {
	if e.current == nil {
		return ErrNoImage
	}
	e.history = append(e.history, e.current)
	e.current = fn(e.current)
	return nil
}

// Rotate90 rotates counter-clockwise by 90 degrees.
func (e *Editor) Rotate90() error {
	return e.apply(func(img image.Image) image.Image { return imaging.Rotate90(img) })
}

func (e *Editor) Rotate180() error {
	return e.apply(func(img image.Image) image.Image { return imaging.Rotate180(img) })
}

func (e *Editor) Rotate270() error {
	return e.apply(func(img image.Image) image.Image { return imaging.Rotate270(img) })
}

func (e *Editor) FlipH() error {
	return e.apply(func(img image.Image) image.Image { return imaging.FlipH(img) })
}

func (e *Editor) FlipV() error {
	return e.apply(func(img image.Image) image.Image { return imaging.FlipV(img) })
}

func (e *Editor) Grayscale() error {
	return e.apply(func(img image.Image) image.Image { return imaging.Grayscale(img) })
}

// Brightness shifts brightness by pct, in the range -100..100.
func (e *Editor) Brightness(pct float64) error {
	if pct < -100 || pct > 100 {
		return fmt.Errorf("brightness %v out of range -100..100", pct)
	}
	return e.apply(func(img image.Image) image.Image { return imaging.AdjustBrightness(img, pct) })
}

// Contrast changes contrast by pct, in the range -100..100.
func (e *Editor) Contrast(pct float64) error {
	if pct < -100 || pct > 100 {
		return fmt.Errorf("contrast %v out of range -100..100", pct)
	}
	return e.apply(func(img image.Image) image.Image { return imaging.AdjustContrast(img, pct) })
}

// Crop keeps a width x height rectangle from the centre.
func (e *Editor) Crop(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("crop size %dx%d must be positive", width, height)
	}
	return e.apply(func(img image.Image) image.Image { return imaging.CropCenter(img, width, height) })
}

// CanUndo reports whether there is an earlier version.
func (e *Editor) CanUndo() bool { return len(e.history) > 0 }

// Undo restores the previous version.
func (e *Editor) Undo() error {
	if len(e.history) == 0 {
		return ErrNothingToUndo
	}
	last := len(e.history) - 1
	e.current = e.history[last]
	e.history = e.history[:last]
	return nil
}

// ExportJPEG encodes the current image as JPEG at ExportQuality.
func (e *Editor) ExportJPEG() ([]byte, error) {
	if e.current == nil {
		return nil, ErrNoImage
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, e.current, imaging.JPEG, imaging.JPEGQuality(ExportQuality)); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
