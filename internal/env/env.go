// Package env decides which backend a page talks to.
package env

import (
	"net/url"
	"strings"

	"github.com/pixelfit/pixelfit/internal/pages"
)

// LoopbackBase is the backend used while developing locally.
const LoopbackBase = "http://127.0.0.1:8000"

// Policy selects the backend base for pages served from a non-local host.
type Policy string

const (
	// PolicyFixed always uses the configured production backend.
	PolicyFixed Policy = "fixed"
	// PolicyOrigin uses the origin the page itself was served from.
	PolicyOrigin Policy = "origin"
)

// Valid reports whether p is a known policy.
func (p Policy) Valid() bool {
	return p == PolicyFixed || p == PolicyOrigin
}

// DefaultPolicies is the per-page policy table. Pages not listed use
// PolicyFixed.
var DefaultPolicies = map[pages.Page]Policy{
	pages.Editor: PolicyOrigin,
}

// Environment is derived once per page load and never changes afterwards.
type Environment struct {
	IsLocal bool   `json:"is_local"`
	APIBase string `json:"api_base"`
}

// Endpoint joins the API base with an absolute path such as "/api/me".
func (e Environment) Endpoint(path string) string {
	return strings.TrimRight(e.APIBase, "/") + "/" + strings.TrimLeft(path, "/")
}

// IsLoopbackHost reports whether hostname names the local machine.
func IsLoopbackHost(hostname string) bool {
	return hostname == "localhost" || hostname == "127.0.0.1"
}

// Resolver maps a page location to its Environment.
type Resolver struct {
	Policy         Policy
	ProductionBase string
}

// Resolve returns the environment for a page served from page.
func (r Resolver) Resolve(page *url.URL) Environment {
	if page != nil && IsLoopbackHost(page.Hostname()) {
		return Environment{IsLocal: true, APIBase: LoopbackBase}
	}
	if r.Policy == PolicyOrigin && page != nil && page.Host != "" {
		return Environment{APIBase: page.Scheme + "://" + page.Host}
	}
	return Environment{APIBase: strings.TrimRight(r.ProductionBase, "/")}
}

// PolicyFor looks up a page in overrides, then DefaultPolicies.
func PolicyFor(p pages.Page, overrides map[pages.Page]Policy) Policy {
	if pol, ok := overrides[p]; ok && pol.Valid() {
		return pol
	}
	if pol, ok := DefaultPolicies[p]; ok {
		return pol
	}
	return PolicyFixed
}
