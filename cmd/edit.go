package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pixelfit/pixelfit/internal/editor"
	"github.com/pixelfit/pixelfit/internal/history"
	"github.com/pixelfit/pixelfit/internal/pages"
	"github.com/pixelfit/pixelfit/internal/ui"
)

var (
	editOps     []string
	editOutDir  string
	editPreview string
)

var editCmd = &cobra.Command{
	Use:   "edit <image>",
	Short: "Adjust one image, then resize it",
	Long: `Opens a PNG or JPEG image, applies the --op operations in order and
sends the result through the resize pipeline. The archive is saved as
pixelfit-<timestamp>.zip.

Operations: ` + strings.Join(editor.Ops, ", "),
	Example: `  pixelfit edit photo.jpg --op rotate90 --op crop=1080x1080
  pixelfit edit cover.png --op grayscale --op brightness=10 --preview preview.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().StringArrayVar(&editOps, "op", nil, "operation to apply (repeatable, applied in order)")
	editCmd.Flags().StringVarP(&editOutDir, "out", "o", "", "download folder (defaults to output_dir)")
	editCmd.Flags().StringVar(&editPreview, "preview", "", "also write the edited JPEG to this path")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}

	e := editor.New()
	if err := e.Load(filepath.Base(args[0]), data); err != nil {
		if errors.Is(err, editor.ErrUnsupportedType) {
			ui.Print(cmd.ErrOrStderr(), ui.Error(editor.MsgUnsupportedType))
			return errReported
		}
		return err
	}
	for _, op := range editOps {
		if err := e.Apply(op); err != nil {
			return err
		}
	}

	if editPreview != "" {
		jpeg, err := e.ExportJPEG()
		if err != nil {
			return err
		}
		if err := os.WriteFile(editPreview, jpeg, 0o644); err != nil {
			return fmt.Errorf("writing preview: %w", err)
		}
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.client(pages.Editor)
	if err != nil {
		return err
	}

	dir := editOutDir
	if dir == "" {
		dir = a.cfg.OutputDir
	}
	res, err := editor.NewBridge(e, c, dir).Export(ctx)
	if err != nil {
		ui.Print(cmd.ErrOrStderr(), res.Status)
		return errReported
	}

	if _, err := history.NewStore(a.db).Record(ctx, history.Entry{
		Name:   res.Download.Name,
		Path:   res.Download.Path,
		Source: history.SourceEditor,
		Files:  1,
		Size:   res.Download.Size,
	}); err != nil {
		return err
	}

	ui.Print(cmd.OutOrStdout(), res.Status)
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", res.Download.Path, humanize.IBytes(uint64(res.Download.Size)))
	return nil
}
