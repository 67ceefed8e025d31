package workflow

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFolder(t *testing.T) {
	tests := map[string]string{
		"ditto.png":      "ditto",
		"archive.tar.gz": "archive.tar",
		"noext":          "noext",
		".png":           "image",
		"trailing.":      "trailing.",
		"":               "image",
	}
	for in, want := range tests {
		assert.Equal(t, want, DefaultFolder(in), in)
	}
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "image/png", DetectContentType("a.PNG", nil))
	assert.Equal(t, "image/jpeg", DetectContentType("a.jpg", nil))
	assert.Equal(t, "image/png", DetectContentType("noext", []byte("\x89PNG\r\n\x1a\n0000")))
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(rel string) {
		p := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("\x89PNG\r\n\x1a\n"), 0o644))
	}
	write("b.png")
	write("a.png")
	write("nested/c.png")
	write("notes.txt")

	files, err := LoadFiles([]string{
		filepath.Join(dir, "nested", "c.png"),
		filepath.Join(dir, "**", "*.png"),
	})
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"c.png", "a.png", "b.png", "c.png"}, names)
	assert.Equal(t, "image/png", files[0].ContentType)

	rc, err := files[1].Open()
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), files[1].Size)
}

func TestLoadFilesNoMatch(t *testing.T) {
	_, err := LoadFiles([]string{filepath.Join(t.TempDir(), "*.png")})
	assert.Error(t, err)
}

func TestLoadFilesMissing(t *testing.T) {
	_, err := LoadFiles([]string{filepath.Join(t.TempDir(), "missing.png")})
	assert.Error(t, err)
}
