package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixelfit/pixelfit/internal/pages"
	"github.com/pixelfit/pixelfit/internal/profile"
	"github.com/pixelfit/pixelfit/internal/ui"
)

var (
	meJSON    bool
	logoutYes bool
)

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the logged-in account",
	Args:  cobra.NoArgs,
	RunE:  runMe,
}

var usernameCmd = &cobra.Command{
	Use:   "username [new-username]",
	Short: "Change your username",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runUsername,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the local session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	meCmd.Flags().BoolVar(&meJSON, "json", false, "print the profile as JSON")
	logoutCmd.Flags().BoolVarP(&logoutYes, "yes", "y", false, "do not ask for confirmation")

	rootCmd.AddCommand(meCmd)
	rootCmd.AddCommand(usernameCmd)
	rootCmd.AddCommand(logoutCmd)
}

// loadProfile opens the Landing page controller; without a session it
// prints the redirect to the login page.
func loadProfile(cmd *cobra.Command) (*app, *profile.Controller, error) {
	a, err := openApp(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	c, err := a.client(pages.Landing)
	if err != nil {
		a.Close()
		return nil, nil, err
	}

	ctl := profile.New(c, a.jar)
	if _, nav := ctl.LoadCurrentUser(cmd.Context()); nav != nil {
		a.Close()
		ui.Print(cmd.ErrOrStderr(), ui.Error("You need to log in first."))
		printNavigation(cmd.OutOrStdout(), nav)
		return nil, nil, errReported
	}
	return a, ctl, nil
}

func runMe(cmd *cobra.Command, args []string) error {
	a, ctl, err := loadProfile(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	v := ctl.View()
	out := cmd.OutOrStdout()
	if meJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	fmt.Fprintln(out, ui.Heading(v.Greeting))
	fmt.Fprintf(out, "Name:     %s\n", v.Name)
	fmt.Fprintf(out, "Username: %s\n", v.Username)
	fmt.Fprintf(out, "Email:    %s\n", v.Email)
	if v.AvatarURL != "" {
		fmt.Fprintf(out, "Avatar:   %s\n", v.AvatarURL)
	}
	return nil
}

func runUsername(cmd *cobra.Command, args []string) error {
	a, ctl, err := loadProfile(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var input string
	if len(args) == 1 {
		input = args[0]
	} else if input, err = promptValue("New username", ctl.View().Username); err != nil {
		return err
	}

	return report(cmd, ctl.UpdateUsername(cmd.Context(), input), nil)
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.client(pages.Landing)
	if err != nil {
		return err
	}

	confirmer := profile.ConfirmFunc(confirm)
	if logoutYes {
		confirmer = func(string) (bool, error) { return true, nil }
	}

	nav, err := profile.New(c, a.jar).SignOut(ctx, confirmer)
	if err != nil {
		return err
	}
	if nav == nil {
		fmt.Fprintln(cmd.OutOrStdout(), ui.Muted("Sign-out cancelled."))
		return nil
	}
	return report(cmd, ui.Success("Signed out."), nav)
}
