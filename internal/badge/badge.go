// Package badge rewrites the shared navigation depending on whether the
// visitor has a session.
package badge

import (
	"context"

	"github.com/pixelfit/pixelfit/internal/api"
	"github.com/pixelfit/pixelfit/internal/pages"
)

// Link is one navigation entry.
type Link struct {
	Label  string     `json:"label"`
	Target pages.Page `json:"target"`
}

// DefaultLinks is the navigation shown on the shared pages.
var DefaultLinks = []Link{
	{Label: "Home", Target: pages.Home},
	{Label: "Get started", Target: pages.App},
	{Label: "Editor", Target: pages.Editor},
	{Label: "Log in", Target: pages.Login},
	{Label: "Sign up", Target: pages.Signup},
}

// MeFetcher asks the backend who is logged in.
type MeFetcher interface {
	Me(ctx context.Context) (*api.User, error)
}

// State is the resolved badge.
type State struct {
	LoggedIn bool      `json:"logged_in"`
	User     *api.User `json:"user,omitempty"`
	Links    []Link    `json:"links"`
}

// Resolve queries the session once and returns links with rewritten targets.
// The input slice is not modified. Any failure counts as logged out.
func Resolve(ctx context.Context, backend MeFetcher, links []Link) State {
	user, err := backend.Me(ctx)
	loggedIn := err == nil && user != nil

	out := make([]Link, len(links))
	for i, l := range links {
		out[i] = Link{Label: l.Label, Target: rewrite(l.Target, loggedIn)}
	}

	st := State{LoggedIn: loggedIn, Links: out}
	if loggedIn {
		st.User = user
	}
	return st
}

func rewrite(target pages.Page, loggedIn bool) pages.Page {
	if loggedIn {
		if target == pages.Login || target == pages.Signup {
			return pages.Landing
		}
		return target
	}
	if target.Protected() {
		return pages.Login
	}
	return target
}
