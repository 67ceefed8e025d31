package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixelfit/pixelfit/internal/pages"
	"github.com/pixelfit/pixelfit/internal/ui"
)

var sizesCmd = &cobra.Command{
	Use:   "sizes",
	Short: "List the output sizes the backend produces",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.client(pages.App)
		if err != nil {
			return err
		}
		sizes, err := c.Sizes(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetching sizes: %w", err)
		}

		rows := make([][]string, len(sizes))
		for i, s := range sizes {
			rows[i] = []string{s.Label, fmt.Sprintf("%dx%d", s.Width, s.Height)}
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Table([]string{"Label", "Size"}, rows))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sizesCmd)
}
