// Package pages names the views of the pixelfit client and the navigations
// between them.
package pages

// Page identifies one view of the client. The values match the original
// page file names so that configured URLs keep working.
type Page string

const (
	Home    Page = "index.html"
	Login   Page = "login.html"
	Signup  Page = "signup.html"
	Landing Page = "Landing.html"
	App     Page = "app.html"
	Editor  Page = "editor.html"
)

// All lists every known page.
var All = []Page{Home, Login, Signup, Landing, App, Editor}

// Protected reports whether the page requires an authenticated session.
func (p Page) Protected() bool {
	return p == App || p == Landing
}

// Valid reports whether p is one of the known pages.
func (p Page) Valid() bool {
	for _, known := range All {
		if p == known {
			return true
		}
	}
	return false
}

// Navigation is a full navigation away from the current view. Exactly one
// of To or URL is set: To for another client page, URL for an external
// address such as the backend's OAuth start endpoint.
type Navigation struct {
	To  Page   `json:"to,omitempty"`
	URL string `json:"url,omitempty"`
}

// NavigateTo returns a navigation to another page.
func NavigateTo(p Page) *Navigation {
	return &Navigation{To: p}
}

// Redirect returns a navigation to an external URL.
func Redirect(url string) *Navigation {
	return &Navigation{URL: url}
}

func (n Navigation) String() string {
	if n.URL != "" {
		return n.URL
	}
	return string(n.To)
}
