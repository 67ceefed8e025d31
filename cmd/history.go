package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pixelfit/pixelfit/internal/db"
	"github.com/pixelfit/pixelfit/internal/history"
	"github.com/pixelfit/pixelfit/internal/ui"
)

var (
	historySource string
	historyLimit  int
	historyPrune  time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archives saved by resize and edit",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historySource, "source", "", "only show batch or editor downloads")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum entries to show (0 for all)")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "forget entries older than this, e.g. 720h")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := db.Open(cfg.StateDB)
	if err != nil {
		return fmt.Errorf("opening state database: %w", err)
	}
	defer database.Close()

	store := history.NewStore(database)
	if historyPrune > 0 {
		n, err := store.DeleteBefore(ctx, time.Now().Add(-historyPrune))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Forgot %d entries.\n", n)
	}

	return printHistory(ctx, cmd, store)
}

func printHistory(ctx context.Context, cmd *cobra.Command, store *history.Store) error {
	src := history.Source(historySource)
	if src != "" && src != history.SourceBatch && src != history.SourceEditor {
		return fmt.Errorf("invalid --source %q: must be batch or editor", historySource)
	}

	entries, err := store.List(ctx, history.Filter{Source: src, Limit: historyLimit})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, ui.Muted("No downloads yet."))
		return nil
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			string(e.Source),
			fmt.Sprint(e.Files),
			humanize.IBytes(uint64(e.Size)),
			e.Path,
		}
	}
	fmt.Fprintln(out, ui.Table([]string{"When", "Source", "Images", "Size", "Path"}, rows))
	return nil
}
