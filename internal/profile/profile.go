// Package profile is the controller of the Landing page: greeting, username
// changes and sign-out.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pixelfit/pixelfit/internal/api"
	"github.com/pixelfit/pixelfit/internal/pages"
	"github.com/pixelfit/pixelfit/internal/ui"
)

const (
	MsgUsernameRequired = "Please enter a username."
	MsgUsernameFailed   = "Could not update username."
	MsgNetworkError     = "Network error. Please try again."
	SignOutPrompt       = "Are you sure you want to sign out?"
)

// Backend is the part of the API client the profile page needs.
type Backend interface {
	Me(ctx context.Context) (*api.User, error)
	UpdateUsername(ctx context.Context, username string) (string, error)
	Logout(ctx context.Context) (int, error)
}

// SessionStore forgets the local copy of the session cookie.
type SessionStore interface {
	Clear(ctx context.Context) error
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(question string) (bool, error)

func (f ConfirmFunc) Confirm(question string) (bool, error) { return f(question) }

// View is the profile panel. It is only populated after a successful
// LoadCurrentUser.
type View struct {
	Visible   bool   `json:"visible"`
	Greeting  string `json:"greeting,omitempty"`
	Name      string `json:"name,omitempty"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Controller holds the view of the current page load.
type Controller struct {
	backend Backend
	session SessionStore
	view    View
}

// New returns a controller. session may be nil when there is no local
// cookie store to clear.
func New(backend Backend, session SessionStore) *Controller {
	return &Controller{backend: backend, session: session}
}

// View returns the current panel.
func (c *Controller) View() View { return c.view }

// LoadCurrentUser fetches the session user. Without one it returns the
// navigation to the login page and leaves the view untouched.
func (c *Controller) LoadCurrentUser(ctx context.Context) (View, *pages.Navigation) {
	user, err := c.backend.Me(ctx)
	if err != nil {
		return c.view, pages.NavigateTo(pages.Login)
	}

	c.view = View{
		Visible:  true,
		Greeting: fmt.Sprintf("Hello, %s!", user.DisplayName()),
		Email:    user.Email,
	}
	if user.Name != nil {
		c.view.Name = *user.Name
	}
	if user.Username != nil {
		c.view.Username = *user.Username
	}
	if user.AvatarURL != nil {
		c.view.AvatarURL = *user.AvatarURL
	}
	return c.view, nil
}

// UpdateUsername validates input locally, then asks the backend to store it.
func (c *Controller) UpdateUsername(ctx context.Context, input string) ui.Status {
	username := strings.TrimSpace(input)
	if username == "" {
		return ui.Error(MsgUsernameRequired)
	}

	stored, err := c.backend.UpdateUsername(ctx, username)
	if err != nil {
		if apiErr, ok := api.AsError(err); ok {
			return ui.Error(apiErr.Message(MsgUsernameFailed))
		}
		if errors.Is(err, api.ErrUnavailable) {
			return ui.Error(MsgNetworkError)
		}
		return ui.Error(MsgUsernameFailed)
	}

	c.view.Username = stored
	return ui.Success(fmt.Sprintf("Username updated to %s.", stored))
}

// SignOut asks for confirmation, then logs out and navigates home whatever
// the backend answers. A declined confirmation returns a nil navigation.
func (c *Controller) SignOut(ctx context.Context, confirm Confirmer) (*pages.Navigation, error) {
	ok, err := confirm.Confirm(SignOutPrompt)
	if err != nil {
		return nil, fmt.Errorf("confirming sign-out: %w", err)
	}
	if !ok {
		return nil, nil
	}

	// The backend owns session invalidation; its answer does not matter.
	_, _ = c.backend.Logout(ctx)

	if c.session != nil {
		if err := c.session.Clear(ctx); err != nil {
			return pages.NavigateTo(pages.Home), fmt.Errorf("clearing local session: %w", err)
		}
	}
	c.view = View{}
	return pages.NavigateTo(pages.Home), nil
}
