package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelfit/pixelfit/internal/api"
	"github.com/pixelfit/pixelfit/internal/api/apitest"
	"github.com/pixelfit/pixelfit/internal/pages"
	"github.com/pixelfit/pixelfit/internal/ui"
)

type fakeSession struct{ cleared int }

func (f *fakeSession) Clear(ctx context.Context) error {
	f.cleared++
	return nil
}

func loggedIn(t *testing.T) (*apitest.Backend, *api.Client) {
	t.Helper()
	b := apitest.New(t)
	b.AddAccount(apitest.Account{Name: "Ada", Username: "ada", Gender: "female", Email: "ada@example.com", Password: "pw"})
	b.AddAccount(apitest.Account{Name: "Bob", Username: "bob", Gender: "male", Email: "bob@example.com", Password: "pw"})
	c := b.Client(t)
	require.NoError(t, c.Login(t.Context(), api.LoginRequest{Email: "ada@example.com", Password: "pw"}))
	return b, c
}

func yes(string) (bool, error) { return true, nil }
func no(string) (bool, error)  { return false, nil }

func TestLoadCurrentUser(t *testing.T) {
	_, c := loggedIn(t)
	ctrl := New(c, nil)

	view, nav := ctrl.LoadCurrentUser(t.Context())
	assert.Nil(t, nav)
	assert.True(t, view.Visible)
	assert.Equal(t, "Hello, Ada!", view.Greeting)
	assert.Equal(t, "ada", view.Username)
	assert.Equal(t, "ada@example.com", view.Email)
}

func TestLoadCurrentUserRedirectsWithoutSession(t *testing.T) {
	b := apitest.New(t)
	ctrl := New(b.Client(t), nil)

	view, nav := ctrl.LoadCurrentUser(t.Context())
	require.NotNil(t, nav)
	assert.Equal(t, pages.Login, nav.To)
	assert.Equal(t, View{}, view, "no profile data may be rendered")
}

func TestLoadCurrentUserRedirectsOnServerError(t *testing.T) {
	b, c := loggedIn(t)
	b.Fail("/api/me", apitest.Failure{Status: 500, Body: "oops"})

	view, nav := New(c, nil).LoadCurrentUser(t.Context())
	require.NotNil(t, nav)
	assert.Equal(t, pages.Login, nav.To)
	assert.False(t, view.Visible)
}

func TestUpdateUsernameValidatesBeforeSending(t *testing.T) {
	b, c := loggedIn(t)
	ctrl := New(c, nil)

	st := ctrl.UpdateUsername(t.Context(), "   ")
	assert.Equal(t, ui.Error(MsgUsernameRequired), st)

	acc, _ := b.Account("ada@example.com")
	assert.Equal(t, "ada", acc.Username)
}

func TestUpdateUsernameSurfacesServerDetail(t *testing.T) {
	_, c := loggedIn(t)
	st := New(c, nil).UpdateUsername(t.Context(), "bob")
	assert.Equal(t, ui.Error("That username is already taken."), st)
}

func TestUpdateUsernameSuccess(t *testing.T) {
	b, c := loggedIn(t)
	ctrl := New(c, nil)

	st := ctrl.UpdateUsername(t.Context(), "  lovelace ")
	assert.Equal(t, ui.Success("Username updated to lovelace."), st)
	assert.Equal(t, "lovelace", ctrl.View().Username)

	acc, _ := b.Account("ada@example.com")
	assert.Equal(t, "lovelace", acc.Username)
}

func TestSignOutDeclined(t *testing.T) {
	b, c := loggedIn(t)
	sess := &fakeSession{}

	nav, err := New(c, sess).SignOut(t.Context(), ConfirmFunc(no))
	require.NoError(t, err)
	assert.Nil(t, nav)
	assert.Zero(t, b.LogoutCalls())
	assert.Zero(t, sess.cleared)
}

func TestSignOutNavigatesHomeRegardlessOfStatus(t *testing.T) {
	b, c := loggedIn(t)
	b.Fail("/api/logout", apitest.Failure{Status: 500, Body: "nope"})
	sess := &fakeSession{}

	nav, err := New(c, sess).SignOut(t.Context(), ConfirmFunc(yes))
	require.NoError(t, err)
	require.NotNil(t, nav)
	assert.Equal(t, pages.Home, nav.To)
	assert.Equal(t, 1, b.LogoutCalls())
	assert.Equal(t, 1, sess.cleared)
}

func TestSignOutConfirmError(t *testing.T) {
	_, c := loggedIn(t)
	boom := errors.New("interrupted")

	nav, err := New(c, nil).SignOut(t.Context(), ConfirmFunc(func(string) (bool, error) { return false, boom }))
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, nav)
}
