package pages

import "testing"

func TestProtected(t *testing.T) {
	for _, p := range All {
		want := p == App || p == Landing
		if got := p.Protected(); got != want {
			t.Errorf("%s.Protected() = %v, want %v", p, got, want)
		}
	}
}

func TestValid(t *testing.T) {
	if !Landing.Valid() {
		t.Error("Landing.html should be valid")
	}
	if Page("landing.html").Valid() {
		t.Error("page names are case sensitive")
	}
}

func TestNavigationString(t *testing.T) {
	if got := NavigateTo(Login).String(); got != "login.html" {
		t.Errorf("got %q", got)
	}
	if got := Redirect("http://x/start").String(); got != "http://x/start" {
		t.Errorf("got %q", got)
	}
}
