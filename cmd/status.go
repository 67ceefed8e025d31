package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixelfit/pixelfit/internal/badge"
	"github.com/pixelfit/pixelfit/internal/pages"
	"github.com/pixelfit/pixelfit/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the backend, the session and where each page leads",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.client(pages.Home)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	e := c.Environment()
	where := "production"
	if e.IsLocal {
		where = "local"
	}
	fmt.Fprintf(out, "Backend:  %s (%s)\n", e.APIBase, where)
	if err := c.Health(ctx); err != nil {
		fmt.Fprintf(out, "Health:   %s\n", ui.Error("unreachable").Render())
	} else {
		fmt.Fprintf(out, "Health:   %s\n", ui.Success("ok").Render())
	}

	st := badge.Resolve(ctx, c, badge.DefaultLinks)
	if st.LoggedIn {
		fmt.Fprintf(out, "Session:  logged in as %s\n", st.User.DisplayName())
	} else {
		fmt.Fprintf(out, "Session:  %s\n", ui.Muted("not logged in"))
	}
	if n, err := a.jar.Count(ctx); err == nil {
		fmt.Fprintf(out, "Cookies:  %d stored\n", n)
	}

	rows := make([][]string, len(st.Links))
	for i, l := range st.Links {
		rows[i] = []string{l.Label, string(l.Target)}
	}
	fmt.Fprintln(out, ui.Table([]string{"Link", "Goes to"}, rows))
	return nil
}
