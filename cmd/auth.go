package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pixelfit/pixelfit/internal/auth"
	"github.com/pixelfit/pixelfit/internal/pages"
)

var (
	loginEmail string

	signupName     string
	signupUsername string
	signupGender   string
	signupEmail    string

	oauthNoBrowser bool
	oauthLink      bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with email and password",
	Long: `Log in to pixelfit. The session cookie is kept in the state database
and reused by later commands until it expires or you log out.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a pixelfit account",
	Long: `Create an account and log in. Missing fields are asked for
interactively. Gender must be male or female.`,
	Args: cobra.NoArgs,
	RunE: runSignup,
}

var oauthCmd = &cobra.Command{
	Use:   "oauth",
	Short: "Sign in with Google",
	Long: `Opens the backend's Google sign-in page in your browser.

The Google flow finishes in the browser, so the session it creates belongs
to the browser rather than to this CLI.

With --link, the Google account is linked to the account this CLI is
logged in as. The browser must be signed in to the same account for the
link to complete.`,
	Args: cobra.NoArgs,
	RunE: runOAuth,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")

	signupCmd.Flags().StringVar(&signupName, "name", "", "full name")
	signupCmd.Flags().StringVar(&signupUsername, "username", "", "username")
	signupCmd.Flags().StringVar(&signupGender, "gender", "", "male or female")
	signupCmd.Flags().StringVar(&signupEmail, "email", "", "account email")

	oauthCmd.Flags().BoolVar(&oauthNoBrowser, "no-browser", false, "print the sign-in URL instead of opening it")
	oauthCmd.Flags().BoolVar(&oauthLink, "link", false, "link Google to the logged-in account")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(oauthCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.client(pages.Login)
	if err != nil {
		return err
	}

	email := loginEmail
	if email == "" {
		if email, err = promptValue("Email", ""); err != nil {
			return err
		}
	}
	password, err := readPassword("Password")
	if err != nil {
		return err
	}

	res := auth.NewForms(c).Login(ctx, email, password)
	return report(cmd, res.Status, res.Next)
}

func runSignup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.client(pages.Signup)
	if err != nil {
		return err
	}

	form := auth.SignupForm{
		Name:     signupName,
		Username: signupUsername,
		Gender:   signupGender,
		Email:    signupEmail,
	}
	for _, f := range []struct {
		label string
		value *string
	}{
		{"Name", &form.Name},
		{"Username", &form.Username},
		{"Email", &form.Email},
	} {
		if *f.value != "" {
			continue
		}
		if *f.value, err = promptValue(f.label, ""); err != nil {
			return err
		}
	}
	if form.Gender == "" {
		if form.Gender, err = promptSelect("Gender", auth.Genders); err != nil {
			return err
		}
	}
	if form.Password, err = readPassword("Password"); err != nil {
		return err
	}

	res := auth.NewForms(c).Signup(ctx, form)
	return report(cmd, res.Status, res.Next)
}

func runOAuth(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.client(pages.Login)
	if err != nil {
		return err
	}

	next := auth.NewForms(c).StartOAuth().Next
	if oauthLink {
		if _, err := requireSession(ctx, cmd, c); err != nil {
			return err
		}
		u, err := c.GoogleLinkURL(ctx)
		if err != nil {
			return err
		}
		next = pages.Redirect(u)
	}

	printNavigation(cmd.OutOrStdout(), next)
	if oauthNoBrowser {
		return nil
	}
	if err := auth.OpenBrowser(next.URL); err != nil {
		slog.Debug("could not open browser", "error", err)
		fmt.Fprintln(cmd.ErrOrStderr(), "Open the URL above in your browser to continue.")
	}
	return nil
}
