// Package auth drives the login and signup forms and the Google sign-in
// button.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/pixelfit/pixelfit/internal/api"
	"github.com/pixelfit/pixelfit/internal/pages"
	"github.com/pixelfit/pixelfit/internal/ui"
)

const (
	MsgGenericError  = "Something went wrong. Please try again."
	MsgNetworkError  = "Network error. Please check your connection and try again."
	MsgMissingFields = "Please fill in all fields."
	MsgLoginOK       = "Login successful! Redirecting..."
	MsgSignupOK      = "Account created! Redirecting..."
)

// Backend is the part of the API client the forms need.
type Backend interface {
	SubmitCredentials(ctx context.Context, path string, payload any) error
	OAuthStartURL() string
}

// Result is what a form shows after submission: a status and, on success,
// where to go next.
type Result struct {
	Status ui.Status         `json:"status"`
	Next   *pages.Navigation `json:"next,omitempty"`
}

// Forms is the controller behind the auth pages.
type Forms struct {
	backend Backend
	landing pages.Page
}

// NewForms returns a controller that lands on Landing.html after a
// successful login or signup.
func NewForms(backend Backend) *Forms {
	return &Forms{backend: backend, landing: pages.Landing}
}

// SubmitCredentials posts payload to endpoint. It never fails: every error
// ends up in the returned status.
func (f *Forms) SubmitCredentials(ctx context.Context, endpoint string, payload any, success string) Result {
	err := f.backend.SubmitCredentials(ctx, endpoint, payload)
	if err == nil {
		return Result{Status: ui.Success(success), Next: pages.NavigateTo(f.landing)}
	}

	if apiErr, ok := api.AsError(err); ok {
		return Result{Status: ui.Error(apiErr.Message(MsgGenericError))}
	}
	if errors.Is(err, api.ErrUnavailable) {
		return Result{Status: ui.Error(MsgNetworkError)}
	}
	return Result{Status: ui.Error(MsgGenericError)}
}

// Login submits the login form.
func (f *Forms) Login(ctx context.Context, email, password string) Result {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Result{Status: ui.Error(MsgMissingFields)}
	}
	return f.SubmitCredentials(ctx, api.LoginPath, api.LoginRequest{Email: email, Password: password}, MsgLoginOK)
}

// SignupForm holds the fields of the signup page.
type SignupForm struct {
	Name     string
	Username string
	Gender   string
	Email    string
	Password string
}

// Genders lists the values the backend accepts for SignupForm.Gender.
var Genders = []string{"male", "female"}

// Signup submits the signup form.
func (f *Forms) Signup(ctx context.Context, form SignupForm) Result {
	req := api.SignupRequest{
		Name:     strings.TrimSpace(form.Name),
		Username: strings.TrimSpace(form.Username),
		Gender:   strings.TrimSpace(form.Gender),
		Email:    strings.TrimSpace(form.Email),
		Password: form.Password,
	}
	if req.Name == "" || req.Username == "" || req.Gender == "" || req.Email == "" || req.Password == "" {
		return Result{Status: ui.Error(MsgMissingFields)}
	}
	return f.SubmitCredentials(ctx, api.SignupPath, req, MsgSignupOK)
}

// StartOAuth is the Google button: a plain navigation to the backend.
func (f *Forms) StartOAuth() Result {
	return Result{Next: pages.Redirect(f.backend.OAuthStartURL())}
}
