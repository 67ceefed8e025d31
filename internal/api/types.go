package api

import (
	"encoding/json"
	"strings"
)

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the body of POST /api/signup.
type SignupRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Gender   string `json:"gender"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User is the session user returned by GET /api/me. The client never
// caches it beyond the current view.
type User struct {
	ID        int64   `json:"id,omitempty"`
	Name      *string `json:"name"`
	Username  *string `json:"username"`
	Email     string  `json:"email"`
	Gender    *string `json:"gender"`
	Provider  string  `json:"provider,omitempty"`
	AvatarURL *string `json:"avatar_url"`
}

// DisplayName returns the name to greet the user with.
func (u *User) DisplayName() string {
	if u.Name != nil && strings.TrimSpace(*u.Name) != "" {
		return *u.Name
	}
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	return u.Email
}

// meResponse is the body of GET /api/me. User is absent when the backend
// answers 2xx without a session, which is treated as not authenticated.
type meResponse struct {
	Status string `json:"status"`
	User   *User  `json:"user"`
}

type usernameRequest struct {
	Username string `json:"username"`
}

type usernameResponse struct {
	Status   string `json:"status"`
	Username string `json:"username"`
}

// Size is one output format produced by the backend for every uploaded image.
type Size struct {
	Label  string `json:"label"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type sizesResponse struct {
	Sizes []Size `json:"sizes"`
}

// ErrorBody is the JSON error shape of the backend. Detail is usually a
// string; validation errors carry a list, which is kept as raw JSON text.
type ErrorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// DetailText returns the detail as text and whether one was present.
func (b ErrorBody) DetailText() (string, bool) {
	raw := strings.TrimSpace(string(b.Detail))
	if raw == "" || raw == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(b.Detail, &s); err == nil {
		return s, true
	}
	return raw, true
}
