package editor

import (
	"fmt"
	"strconv"
	"strings"
)

// Ops lists the operation names accepted by Apply. Operations with a value
// take it after "=", e.g. "brightness=15" or "crop=800x600".
var Ops = []string{
	"rotate90", "rotate180", "rotate270",
	"flip-h", "flip-v", "grayscale",
	"brightness=<pct>", "contrast=<pct>", "crop=<w>x<h>",
	"undo",
}

// Apply runs one named operation.
func (e *Editor) Apply(op string) error {
	name, value, hasValue := strings.Cut(strings.TrimSpace(op), "=")
	name = strings.ToLower(name)

	switch name {
	case "rotate90":
		return e.Rotate90()
	case "rotate180":
		return e.Rotate180()
	case "rotate270":
		return e.Rotate270()
	case "flip-h", "fliph":
		return e.FlipH()
	case "flip-v", "flipv":
		return e.FlipV()
	case "grayscale", "greyscale":
		return e.Grayscale()
	case "undo":
		return e.Undo()
	case "brightness", "contrast":
		if !hasValue {
			return fmt.Errorf("%s needs a value, e.g. %s=10", name, name)
		}
		pct, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
		if name == "brightness" {
			return e.Brightness(pct)
		}
		return e.Contrast(pct)
	case "crop":
		w, h, ok := strings.Cut(strings.ToLower(value), "x")
		if !hasValue || !ok {
			return fmt.Errorf("crop needs a size, e.g. crop=800x600")
		}
		width, err := strconv.Atoi(w)
		if err != nil {
			return fmt.Errorf("invalid crop width %q: %w", w, err)
		}
		height, err := strconv.Atoi(h)
		if err != nil {
			return fmt.Errorf("invalid crop height %q: %w", h, err)
		}
		return e.Crop(width, height)
	default:
		return fmt.Errorf("unknown operation %q", op)
	}
}
