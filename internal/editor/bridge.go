package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pixelfit/pixelfit/internal/api"
	"github.com/pixelfit/pixelfit/internal/ui"
)

const (
	// ExportFileName is the name the edited image is uploaded under.
	ExportFileName = "edited.jpg"

	MsgExportFailed = "Something went wrong while exporting."
)

// Resizer posts images to the resize endpoint. *api.Client implements it.
type Resizer interface {
	Resize(ctx context.Context, uploads []api.Upload, folders []string) (*api.Archive, error)
}

// Download is an archive written to disk.
type Download struct {
	Name    string
	Path    string
	Size    int64
	Entries []string
}

// Result is the outcome of an export.
type Result struct {
	Status   ui.Status
	Download *Download
}

// Bridge sends the editor's image through the resize pipeline and saves the
// returned archive.
type Bridge struct {
	editor    *Editor
	resizer   Resizer
	outputDir string
	now       func() time.Time
	logger    *slog.Logger
}

// NewBridge connects e to r. Archives are written to outputDir.
func NewBridge(e *Editor, r Resizer, outputDir string) *Bridge {
	return &Bridge{
		editor:    e,
		resizer:   r,
		outputDir: outputDir,
		now:       time.Now,
		logger:    slog.Default(),
	}
}

// DownloadName is the archive name for an export made at t.
func DownloadName(t time.Time) string {
	return "pixelfit-" + t.Format("20060102-150405") + ".zip"
}

// Export encodes the image, sends it as a single file without folder names
// and writes the archive. Failures are reported in the returned status;
// the error is non-nil as well so callers can set an exit code.
func (b *Bridge) Export(ctx context.Context) (Result, error) {
	data, err := b.editor.ExportJPEG()
	if err != nil {
		if errors.Is(err, ErrNoImage) {
			return Result{Status: ui.Error("Open an image first.")}, err
		}
		return Result{Status: ui.Error(MsgExportFailed)}, err
	}

	upload := api.Upload{Name: ExportFileName, ContentType: "image/jpeg", Body: bytes.NewReader(data)}
	archive, err := b.resizer.Resize(ctx, []api.Upload{upload}, nil)
	if err != nil {
		if apiErr, ok := api.AsError(err); ok {
			return Result{Status: ui.Error("Resize failed: " + apiErr.Body)}, err
		}
		b.logger.Debug("export failed", "error", err)
		return Result{Status: ui.Error(MsgExportFailed)}, err
	}

	if err := os.MkdirAll(b.outputDir, 0o755); err != nil {
		return Result{Status: ui.Error(MsgExportFailed)}, fmt.Errorf("creating %s: %w", b.outputDir, err)
	}
	name := DownloadName(b.now())
	path := filepath.Join(b.outputDir, name)
	if err := os.WriteFile(path, archive.Data, 0o644); err != nil {
		return Result{Status: ui.Error(MsgExportFailed)}, fmt.Errorf("writing %s: %w", path, err)
	}

	entries, _ := archive.Entries()
	d := &Download{Name: name, Path: path, Size: int64(len(archive.Data)), Entries: entries}
	return Result{Status: ui.Success("Saved " + name), Download: d}, nil
}
