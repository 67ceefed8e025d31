package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pixelfit/pixelfit/internal/history"
	"github.com/pixelfit/pixelfit/internal/pages"
	"github.com/pixelfit/pixelfit/internal/progress"
	"github.com/pixelfit/pixelfit/internal/ui"
	"github.com/pixelfit/pixelfit/internal/workflow"
)

var (
	resizeFolders     []string
	resizeAsk         bool
	resizeOutDir      string
	resizeListEntries bool
)

var resizeCmd = &cobra.Command{
	Use:   "resize <file-or-glob>...",
	Short: "Resize a batch of images and save the zip",
	Long: `Sends PNG and JPEG images to the backend and saves the returned
resized_images.zip. Arguments may be paths or doublestar globs such as
"shots/**/*.png".

Each image goes into a folder named after the file unless --folder or
--ask says otherwise.`,
	Example: `  pixelfit resize cover.png
  pixelfit resize "art/*.jpg" --folder 0=front --folder 1=back
  pixelfit resize a.png b.png --ask --out ~/Downloads`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResize,
}

func init() {
	resizeCmd.Flags().StringArrayVar(&resizeFolders, "folder", nil, "set a folder name as index=name (repeatable)")
	resizeCmd.Flags().BoolVar(&resizeAsk, "ask", false, "prompt for each folder name")
	resizeCmd.Flags().StringVarP(&resizeOutDir, "out", "o", "", "download folder (defaults to output_dir)")
	resizeCmd.Flags().BoolVar(&resizeListEntries, "list", false, "list the files inside the archive")
	rootCmd.AddCommand(resizeCmd)
}

func runResize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.client(pages.App)
	if err != nil {
		return err
	}
	if _, err := requireSession(ctx, cmd, c); err != nil {
		return err
	}

	files, err := workflow.LoadFiles(args)
	if err != nil {
		return err
	}

	wf := workflow.New(c)
	defer wf.Close()

	if _, err := wf.Dispatch(ctx, workflow.Event{Action: workflow.ActionSelect, Files: files}); err != nil {
		return err
	}
	if err := applyFolderFlags(ctx, wf, resizeFolders); err != nil {
		return err
	}
	if resizeAsk {
		for i, e := range wf.Entries() {
			name, err := promptValue(fmt.Sprintf("Folder for %s", e.File.Name), e.MainFolder)
			if err != nil {
				return err
			}
			if _, err := wf.Dispatch(ctx, workflow.Event{Action: workflow.ActionSetFolder, Index: i, Folder: name}); err != nil {
				return err
			}
		}
	}

	out := cmd.OutOrStdout()
	for _, e := range wf.Snapshot().Entries {
		fmt.Fprintf(out, "  %s %s %s\n", e.Name, ui.Muted("→"), e.MainFolder)
	}

	unsubscribe := wf.Subscribe(progress.Observe(progress.NewReporter(os.Stderr)))
	res, err := wf.Dispatch(ctx, workflow.Event{Action: workflow.ActionProcess})
	unsubscribe()
	if err != nil {
		if !res.Snapshot.Status.Empty() {
			ui.Print(cmd.ErrOrStderr(), res.Snapshot.Status)
			return errReported
		}
		return err
	}
	ui.Print(out, res.Snapshot.Status)

	dir := resizeOutDir
	if dir == "" {
		dir = a.cfg.OutputDir
	}
	res, err = wf.Dispatch(ctx, workflow.Event{Action: workflow.ActionDownload, Dir: dir})
	if err != nil {
		return err
	}
	d := res.Download

	if _, err := history.NewStore(a.db).Record(ctx, history.Entry{
		Name:   d.Name,
		Path:   d.Path,
		Source: history.SourceBatch,
		Files:  d.Files,
		Size:   d.Size,
	}); err != nil {
		return err
	}

	fmt.Fprintf(out, "Saved %s (%s)\n", d.Path, humanize.IBytes(uint64(d.Size)))
	if resizeListEntries && res.Snapshot.Artifact != nil {
		for _, name := range res.Snapshot.Artifact.Entries {
			fmt.Fprintf(out, "  %s\n", name)
		}
	}
	return nil
}

// applyFolderFlags applies index=name pairs in order.
func applyFolderFlags(ctx context.Context, wf *workflow.Controller, pairs []string) error {
	for _, pair := range pairs {
		idx, name, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid --folder %q: want index=name", pair)
		}
		i, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil {
			return fmt.Errorf("invalid --folder index %q: %w", idx, err)
		}
		if _, err := wf.Dispatch(ctx, workflow.Event{Action: workflow.ActionSetFolder, Index: i, Folder: name}); err != nil {
			return fmt.Errorf("--folder %s: %w", pair, err)
		}
	}
	return nil
}
