package env

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelfit/pixelfit/internal/pages"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestResolveLoopback(t *testing.T) {
	for _, policy := range []Policy{PolicyFixed, PolicyOrigin} {
		r := Resolver{Policy: policy, ProductionBase: "https://api.example.com"}
		for _, raw := range []string{"http://localhost:5500/app.html", "http://127.0.0.1:8001/index.html"} {
			got := r.Resolve(mustParse(t, raw))
			assert.True(t, got.IsLocal, raw)
			assert.Equal(t, LoopbackBase, got.APIBase, raw)
		}
	}
}

func TestResolveRemote(t *testing.T) {
	page := mustParse(t, "https://desto.example.io/pixelfit/editor.html")

	fixed := Resolver{Policy: PolicyFixed, ProductionBase: "https://api.example.com/"}.Resolve(page)
	assert.False(t, fixed.IsLocal)
	assert.Equal(t, "https://api.example.com", fixed.APIBase)

	origin := Resolver{Policy: PolicyOrigin, ProductionBase: "https://api.example.com"}.Resolve(page)
	assert.False(t, origin.IsLocal)
	assert.Equal(t, "https://desto.example.io", origin.APIBase)
}

func TestResolveLookalikeHostsAreRemote(t *testing.T) {
	r := Resolver{Policy: PolicyFixed, ProductionBase: "https://api.example.com"}
	for _, raw := range []string{"http://localhost.example.com", "http://127.0.0.2", "http://0.0.0.0"} {
		got := r.Resolve(mustParse(t, raw))
		assert.False(t, got.IsLocal, raw)
		assert.Equal(t, "https://api.example.com", got.APIBase, raw)
	}
}

func TestEndpoint(t *testing.T) {
	e := Environment{APIBase: "http://127.0.0.1:8000/"}
	assert.Equal(t, "http://127.0.0.1:8000/resize", e.Endpoint("/resize"))
	assert.Equal(t, "http://127.0.0.1:8000/api/me", e.Endpoint("api/me"))
}

func TestPolicyFor(t *testing.T) {
	assert.Equal(t, PolicyOrigin, PolicyFor(pages.Editor, nil))
	assert.Equal(t, PolicyFixed, PolicyFor(pages.Login, nil))
	assert.Equal(t, PolicyOrigin, PolicyFor(pages.Login, map[pages.Page]Policy{pages.Login: PolicyOrigin}))
	assert.Equal(t, PolicyOrigin, PolicyFor(pages.Editor, map[pages.Page]Policy{pages.Editor: "bogus"}))
}
