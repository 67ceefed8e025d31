package editor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelfit/pixelfit/internal/api"
	"github.com/pixelfit/pixelfit/internal/api/apitest"
)

func loadedEditor(t *testing.T) *Editor {
	t.Helper()
	e := New()
	require.NoError(t, e.Load("a.png", samplePNG(t, 8, 6)))
	return e
}

func TestExportSavesTimestampedArchive(t *testing.T) {
	b := apitest.New(t)
	out := t.TempDir()
	br := NewBridge(loadedEditor(t), b.Client(t), out)
	br.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

	res, err := br.Export(t.Context())
	require.NoError(t, err)
	require.NotNil(t, res.Download)
	assert.Equal(t, "pixelfit-20260304-050607.zip", res.Download.Name)
	assert.False(t, res.Status.IsError())

	_, err = os.Stat(filepath.Join(out, res.Download.Name))
	require.NoError(t, err)
	assert.Contains(t, res.Download.Entries, "edited/edited_youtube_thumbnail_1280x720.jpeg")

	calls := b.ResizeCalls()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].HasFolders)
	require.Len(t, calls[0].Files, 1)
	assert.Equal(t, ExportFileName, calls[0].Files[0].Name)
	assert.Equal(t, "image/jpeg", calls[0].Files[0].ContentType)
}

func TestExportFailureShowsBody(t *testing.T) {
	b := apitest.New(t)
	b.Fail("/resize", apitest.Failure{Status: 400, Body: `{"detail":"Unsupported file type"}`})
	out := t.TempDir()
	br := NewBridge(loadedEditor(t), b.Client(t), out)

	res, err := br.Export(t.Context())
	require.Error(t, err)
	assert.Nil(t, res.Download)
	assert.Equal(t, `Resize failed: {"detail":"Unsupported file type"}`, res.Status.Text)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExportTransportFailure(t *testing.T) {
	b := apitest.New(t)
	c := b.Client(t)
	b.Close()

	res, err := NewBridge(loadedEditor(t), c, t.TempDir()).Export(t.Context())
	require.ErrorIs(t, err, api.ErrUnavailable)
	assert.Equal(t, MsgExportFailed, res.Status.Text)
}

func TestExportWithoutImage(t *testing.T) {
	b := apitest.New(t)
	res, err := NewBridge(New(), b.Client(t), t.TempDir()).Export(t.Context())
	require.ErrorIs(t, err, ErrNoImage)
	assert.True(t, res.Status.IsError())
	assert.Empty(t, b.ResizeCalls())
}
