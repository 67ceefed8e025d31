package session

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelfit/pixelfit/internal/db"
)

func openDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestJarPersistsAcrossInstances(t *testing.T) {
	database := openDB(t)
	ctx := t.Context()
	backend, _ := url.Parse("http://127.0.0.1:8000/api/login")

	first, err := NewJar(ctx, database)
	require.NoError(t, err)
	first.SetCookies(backend, []*http.Cookie{{
		Name: "pixelfit_session", Value: "tok", Path: "/", MaxAge: 3600, HttpOnly: true,
	}})

	second, err := NewJar(ctx, database)
	require.NoError(t, err)

	me, _ := url.Parse("http://127.0.0.1:8000/api/me")
	cookies := second.Cookies(me)
	require.Len(t, cookies, 1)
	assert.Equal(t, "pixelfit_session", cookies[0].Name)
	assert.Equal(t, "tok", cookies[0].Value)
}

func TestJarDeletesExpiredCookie(t *testing.T) {
	database := openDB(t)
	ctx := t.Context()
	backend, _ := url.Parse("http://127.0.0.1:8000/")

	jar, err := NewJar(ctx, database)
	require.NoError(t, err)
	jar.SetCookies(backend, []*http.Cookie{{Name: "pixelfit_session", Value: "tok", Path: "/"}})

	n, err := jar.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// The backend deletes the cookie on logout with Max-Age=0 semantics.
	jar.SetCookies(backend, []*http.Cookie{{Name: "pixelfit_session", Value: "", Path: "/", MaxAge: -1}})
	n, err = jar.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, jar.Cookies(backend))
}

func TestJarSkipsExpiredOnRestore(t *testing.T) {
	database := openDB(t)
	ctx := t.Context()

	_, err := database.Exec(`INSERT INTO cookies (host, name, value, path, expires) VALUES (?, ?, ?, ?, ?)`,
		"127.0.0.1", "old", "v", "/", time.Now().Add(-time.Hour).UTC())
	require.NoError(t, err)

	jar, err := NewJar(ctx, database)
	require.NoError(t, err)

	u, _ := url.Parse("http://127.0.0.1:8000/")
	assert.Empty(t, jar.Cookies(u))
}

func TestJarClear(t *testing.T) {
	database := openDB(t)
	ctx := t.Context()
	u, _ := url.Parse("http://127.0.0.1:8000/")

	jar, err := NewJar(ctx, database)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: "a", Value: "1", Path: "/", MaxAge: 60}})

	require.NoError(t, jar.Clear(ctx))
	assert.Empty(t, jar.Cookies(u))

	n, err := jar.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestJarKeepsDefaultPathAcrossRestart(t *testing.T) {
	database := openDB(t)
	ctx := t.Context()
	login, _ := url.Parse("http://127.0.0.1:8000/api/login")

	first, err := NewJar(ctx, database)
	require.NoError(t, err)
	first.SetCookies(login, []*http.Cookie{{Name: "scoped", Value: "v", MaxAge: 60}})

	second, err := NewJar(ctx, database)
	require.NoError(t, err)

	me, _ := url.Parse("http://127.0.0.1:8000/api/me")
	resize, _ := url.Parse("http://127.0.0.1:8000/resize")
	assert.Len(t, second.Cookies(me), 1)
	assert.Empty(t, second.Cookies(resize))
	assert.Empty(t, first.Cookies(resize))
}

func TestJarDoesNotPersistRejectedCookie(t *testing.T) {
	database := openDB(t)
	ctx := t.Context()
	u, _ := url.Parse("http://127.0.0.1:8000/")

	jar, err := NewJar(ctx, database)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: "foreign", Value: "v", Path: "/", Domain: "example.com", MaxAge: 60}})

	assert.Empty(t, jar.Cookies(u))
	n, err := jar.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, "/", defaultPath(""))
	assert.Equal(t, "/", defaultPath("/"))
	assert.Equal(t, "/", defaultPath("/login"))
	assert.Equal(t, "/api", defaultPath("/api/login"))
	assert.Equal(t, "/api/auth", defaultPath("/api/auth/google"))
}
