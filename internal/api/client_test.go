package api_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelfit/pixelfit/internal/api"
	"github.com/pixelfit/pixelfit/internal/api/apitest"
	"github.com/pixelfit/pixelfit/internal/env"
)

func seeded(t *testing.T) *apitest.Backend {
	t.Helper()
	b := apitest.New(t)
	b.AddAccount(apitest.Account{Name: "Ada", Username: "ada", Gender: "female", Email: "ada@example.com", Password: "pw"})
	return b
}

func TestLoginThenMe(t *testing.T) {
	b := seeded(t)
	c := b.Client(t)
	ctx := t.Context()

	_, err := c.Me(ctx)
	require.ErrorIs(t, err, api.ErrNotAuthenticated)

	require.NoError(t, c.Login(ctx, api.LoginRequest{Email: "ada@example.com", Password: "pw"}))

	u, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, "Ada", u.DisplayName())
	assert.Nil(t, u.AvatarURL)
}

func TestLoginRejectedCarriesDetail(t *testing.T) {
	b := seeded(t)
	c := b.Client(t)

	err := c.Login(t.Context(), api.LoginRequest{Email: "ada@example.com", Password: "nope"})
	apiErr, ok := api.AsError(err)
	require.True(t, ok, "expected *api.Error, got %v", err)
	assert.Equal(t, 401, apiErr.StatusCode)
	assert.Equal(t, "Invalid email or password.", apiErr.Message("fallback"))
}

func TestErrorWithoutDetailFallsBack(t *testing.T) {
	b := seeded(t)
	b.Fail("/api/login", apitest.Failure{Status: 500, Body: "upstream exploded", ContentType: "text/plain"})
	c := b.Client(t)

	err := c.Login(t.Context(), api.LoginRequest{Email: "a", Password: "b"})
	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.Nil(t, apiErr.Detail)
	assert.Equal(t, "fallback", apiErr.Message("fallback"))
	assert.Equal(t, "upstream exploded", apiErr.DetailOrBody())
}

func TestValidationDetailListKeptAsText(t *testing.T) {
	b := seeded(t)
	b.Fail("/api/signup", apitest.Failure{Status: 422, Body: `{"detail":[{"loc":["body","email"],"msg":"field required"}]}`})
	c := b.Client(t)

	err := c.Signup(t.Context(), api.SignupRequest{})
	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	require.NotNil(t, apiErr.Detail)
	assert.Contains(t, *apiErr.Detail, "field required")
}

func TestMeWithoutUserIsNotAuthenticated(t *testing.T) {
	b := seeded(t)
	b.Fail("/api/me", apitest.Failure{Status: 200, Body: `{"status":"ok"}`})

	_, err := b.Client(t).Me(t.Context())
	assert.ErrorIs(t, err, api.ErrNotAuthenticated)
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	c := api.New(env.Environment{APIBase: "http://127.0.0.1:1"})
	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrUnavailable))
	assert.False(t, errors.Is(err, api.ErrNotAuthenticated))
}

func TestUpdateUsernameAndLogout(t *testing.T) {
	b := seeded(t)
	c := b.Client(t)
	ctx := t.Context()
	require.NoError(t, c.Login(ctx, api.LoginRequest{Email: "ada@example.com", Password: "pw"}))

	got, err := c.UpdateUsername(ctx, "lovelace")
	require.NoError(t, err)
	assert.Equal(t, "lovelace", got)

	status, err := c.Logout(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200, status)

	_, err = c.Me(ctx)
	assert.ErrorIs(t, err, api.ErrNotAuthenticated)
}

func TestLogoutReportsNon2xxWithoutError(t *testing.T) {
	b := seeded(t)
	b.Fail("/api/logout", apitest.Failure{Status: 500, Body: "boom"})

	status, err := b.Client(t).Logout(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 500, status)
}

func TestOAuthStartURL(t *testing.T) {
	c := api.New(env.Environment{APIBase: "https://api.example.com"})
	assert.Equal(t, "https://api.example.com/api/auth/google/start", c.OAuthStartURL())
}

func TestHealthAndSizes(t *testing.T) {
	b := seeded(t)
	c := b.Client(t)
	require.NoError(t, c.Health(t.Context()))

	sizes, err := c.Sizes(t.Context())
	require.NoError(t, err)
	assert.Equal(t, apitest.Sizes, sizes)
}

func TestResizeSendsOrderedFilesAndDuplicateFolderLists(t *testing.T) {
	b := seeded(t)
	c := b.Client(t)

	uploads := []api.Upload{
		{Name: "cover.png", ContentType: "image/png", Body: strings.NewReader("png-bytes")},
		{Name: "thumb.jpg", ContentType: "image/jpeg", Body: strings.NewReader("jpeg")},
	}
	archive, err := c.Resize(t.Context(), uploads, []string{"album", "yt"})
	require.NoError(t, err)
	assert.Equal(t, api.ArchiveName, archive.Name)
	assert.Equal(t, "application/zip", archive.ContentType)

	calls := b.ResizeCalls()
	require.Len(t, calls, 1)
	call := calls[0]
	require.Len(t, call.Files, 2)
	assert.Equal(t, "cover.png", call.Files[0].Name)
	assert.Equal(t, "image/png", call.Files[0].ContentType)
	assert.Equal(t, "thumb.jpg", call.Files[1].Name)
	assert.Equal(t, `["album","yt"]`, call.BaseNames)
	assert.Equal(t, call.BaseNames, call.MainFolder)

	entries, err := archive.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 2*len(apitest.Sizes))
	assert.Equal(t, "album/album_album_ditto_soundcloud_3000x3000.jpeg", entries[0])
}

func TestResizeWithoutFoldersSendsOnlyFiles(t *testing.T) {
	b := seeded(t)
	_, err := b.Client(t).Resize(t.Context(),
		[]api.Upload{{Name: "edited.jpg", ContentType: "image/jpeg", Body: strings.NewReader("x")}}, nil)
	require.NoError(t, err)

	calls := b.ResizeCalls()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].HasFolders)
	assert.Empty(t, calls[0].MainFolder)
}

func TestResizeErrorDetail(t *testing.T) {
	b := seeded(t)
	b.Fail("/resize", apitest.Failure{Status: 422, Body: `{"detail": "bad image"}`})

	_, err := b.Client(t).Resize(t.Context(),
		[]api.Upload{{Name: "a.png", ContentType: "image/png", Body: strings.NewReader("x")}}, []string{"a"})
	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.Equal(t, 422, apiErr.StatusCode)
	assert.Equal(t, "bad image", apiErr.DetailOrBody())
}

func TestResizeRejectsMismatchedFolders(t *testing.T) {
	c := api.New(env.Environment{APIBase: "http://127.0.0.1:1"})
	_, err := c.Resize(t.Context(),
		[]api.Upload{{Name: "a.png", Body: strings.NewReader("x")}}, []string{"a", "b"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, api.ErrUnavailable), "validation must not reach the network")
}

func TestGoogleLinkURLNeedsSession(t *testing.T) {
	b := seeded(t)
	c := b.Client(t)
	ctx := t.Context()

	_, err := c.GoogleLinkURL(ctx)
	apiErr, ok := api.AsError(err)
	require.True(t, ok, "expected *api.Error, got %v", err)
	assert.Equal(t, 401, apiErr.StatusCode)

	require.NoError(t, c.Login(ctx, api.LoginRequest{Email: "ada@example.com", Password: "pw"}))
	u, err := c.GoogleLinkURL(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, apitest.GoogleConsentURL+"&state="), u)
}
