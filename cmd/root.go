package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	verbose    bool
	pageOrigin string
	apiBase    string
)

var rootCmd = &cobra.Command{
	Use:   "pixelfit",
	Short: "Resize images for every social platform in one go",
	Long: `pixelfit sends your images to the pixelfit backend, which returns a zip
with each image resized for album covers, YouTube thumbnails and Instagram
posts, portraits and reels.

It also manages your pixelfit account and keeps the session between runs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// Execute runs the CLI. Errors already shown to the user are not printed
// again.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".pixelfit.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&pageOrigin, "page-origin", "", "origin the pages are served from (overrides config)")
	rootCmd.PersistentFlags().StringVar(&apiBase, "api-base", "", "backend base URL for every page (overrides resolution)")
}
