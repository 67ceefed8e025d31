package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelfit/pixelfit/internal/api"
	"github.com/pixelfit/pixelfit/internal/api/apitest"
	"github.com/pixelfit/pixelfit/internal/config"
	"github.com/pixelfit/pixelfit/internal/db"
	"github.com/pixelfit/pixelfit/internal/session"
)

type harness struct {
	backend *apitest.Backend
	cfgPath string
	cfg     *config.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.StateDB = filepath.Join(dir, "state", "state.db")
	cfg.OutputDir = filepath.Join(dir, "out")
	cfgPath := filepath.Join(dir, ".pixelfit.yml")
	require.NoError(t, cfg.Save(cfgPath))

	b := apitest.New(t)
	b.AddAccount(apitest.Account{Name: "Ada", Username: "ada", Gender: "female", Email: "ada@example.com", Password: "pw"})
	return &harness{backend: b, cfgPath: cfgPath, cfg: cfg}
}

func (h *harness) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetCommands(t.Context(), rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--config", h.cfgPath, "--api-base", h.backend.URL}, args...))
	err := rootCmd.ExecuteContext(t.Context())
	return out.String(), errOut.String(), err
}

// resetCommands gives every command the current context and puts its flags
// back to their defaults. Cobra only fills in a subcommand's context when it
// has none, and array flags append across runs.
func resetCommands(ctx context.Context, c *cobra.Command) {
	c.SetContext(ctx)
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetCommands(ctx, sub)
	}
}

// login stores a session cookie in the state database the way `pixelfit
// login` would.
func (h *harness) login(t *testing.T) {
	t.Helper()
	database, err := db.Open(h.cfg.StateDB)
	require.NoError(t, err)
	defer database.Close()

	jar, err := session.NewJar(t.Context(), database)
	require.NoError(t, err)
	c := api.New(h.backend.Env(), api.WithJar(jar))
	require.NoError(t, c.Login(t.Context(), api.LoginRequest{Email: "ada@example.com", Password: "pw"}))
}

func writePNG(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	out, _, err := h.run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "pixelfit "+Version+"\n", out)
}

func TestSizes(t *testing.T) {
	h := newHarness(t)
	out, _, err := h.run(t, "sizes")
	require.NoError(t, err)
	assert.Contains(t, out, "youtube_thumbnail")
	assert.Contains(t, out, "1080x1920")
}

func TestResizeRequiresSession(t *testing.T) {
	h := newHarness(t)
	out, _, err := h.run(t, "resize", writePNG(t, "a.png"))
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "login.html")
	assert.Empty(t, h.backend.ResizeCalls())
}

func TestResizeWithStoredSession(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	out, _, err := h.run(t, "resize", writePNG(t, "ditto.png"), "--folder", "0=cover")
	require.NoError(t, err)
	assert.Contains(t, out, "Done! Your images are ready.")

	_, err = os.Stat(filepath.Join(h.cfg.OutputDir, api.ArchiveName))
	require.NoError(t, err)

	calls := h.backend.ResizeCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, `["cover"]`, calls[0].MainFolder)

	out, _, err = h.run(t, "history", "--source", "batch")
	require.NoError(t, err)
	assert.Contains(t, out, api.ArchiveName)
}

func TestMeShowsProfile(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	out, _, err := h.run(t, "me")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello, Ada!")
	assert.Contains(t, out, "ada@example.com")
}

func TestHistoryEmpty(t *testing.T) {
	h := newHarness(t)
	out, _, err := h.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No downloads yet.")
}

func TestEditRejectsUnsupportedFile(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, errOut, err := h.run(t, "edit", path)
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, errOut, "Please choose a PNG or JPEG image.")
}

func TestRepeatedRunsStartClean(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run(t, "resize", writePNG(t, "a.png"))
	require.ErrorIs(t, err, errReported)

	h.login(t)
	out, _, err := h.run(t, "resize", writePNG(t, "first.png"), "--folder", "0=one", "-o", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "Done! Your images are ready.")

	out, _, err = h.run(t, "resize", writePNG(t, "second.png"), "-o", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "Done! Your images are ready.")

	calls := h.backend.ResizeCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, `["one"]`, calls[0].MainFolder)
	assert.Equal(t, `["second"]`, calls[1].MainFolder)
}

func TestSavedLineShowsSize(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	out, _, err := h.run(t, "resize", writePNG(t, "cover.png"))
	require.NoError(t, err)
	assert.Regexp(t, `Saved .*resized_images\.zip \(\d+(\.\d)? (B|KiB)\)`, out)
}

func TestOAuthLinkPrintsConsentURL(t *testing.T) {
	h := newHarness(t)
	out, _, err := h.run(t, "oauth", "--link", "--no-browser")
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "login.html")

	h.login(t)
	out, _, err = h.run(t, "oauth", "--link", "--no-browser")
	require.NoError(t, err)
	assert.Contains(t, out, apitest.GoogleConsentURL)
}
