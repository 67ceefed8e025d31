package workflow

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/pixelfit/pixelfit/internal/api"
)

// ErrReleased is returned when a released artifact is used.
var ErrReleased = errors.New("download is no longer available")

// Artifact is a downloadable archive held in a temporary file until it is
// saved or released.
type Artifact struct {
	ID          string
	DisplayName string
	Size        int64
	Entries     []string

	mu       sync.Mutex
	path     string
	released bool
}

func newArtifact(dir string, archive *api.Archive) (*Artifact, error) {
	f, err := os.CreateTemp(dir, "pixelfit-*.zip")
	if err != nil {
		return nil, fmt.Errorf("creating download: %w", err)
	}
	if _, err := f.Write(archive.Data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("writing download: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("writing download: %w", err)
	}

	// A listing is informational; a body the backend labelled as an archive
	// but that is not one is still offered for download.
	entries, _ := archive.Entries()

	return &Artifact{
		ID:          uuid.NewString(),
		DisplayName: archive.Name,
		Size:        int64(len(archive.Data)),
		Entries:     entries,
		path:        f.Name(),
	}, nil
}

// Open reads the archive.
func (a *Artifact) Open() (io.ReadCloser, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return nil, ErrReleased
	}
	return os.Open(a.path)
}

// SaveTo copies the archive into dir under its display name, adding a
// " (n)" suffix when the name is taken. It returns the written path.
func (a *Artifact) SaveTo(dir string) (string, error) {
	src, err := a.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	dst, path, err := createUnique(dir, a.DisplayName)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("saving %s: %w", path, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("saving %s: %w", path, err)
	}
	return path, nil
}

func createUnique(dir, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 0; i < 1000; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		path := filepath.Join(dir, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil, "", fmt.Errorf("no free file name for %s in %s", name, dir)
}

// Release deletes the temporary file. It is safe to call more than once.
func (a *Artifact) Release() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return nil
	}
	a.released = true
	if err := os.Remove(a.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("releasing download: %w", err)
	}
	return nil
}

// Released reports whether Release was called.
func (a *Artifact) Released() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.released
}
