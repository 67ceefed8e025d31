package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pixelfit/pixelfit/internal/auth"
	"github.com/pixelfit/pixelfit/internal/pages"
	"github.com/pixelfit/pixelfit/internal/server"
	"github.com/pixelfit/pixelfit/internal/workflow"
)

var (
	serveAddr      string
	serveAllowAll  bool
	serveNoBrowser bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local workbench",
	Long: `Starts a local web workbench for batch resizing: pick images, name their
folders, process and download, with live progress over a websocket.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (defaults to workbench.addr)")
	serveCmd.Flags().BoolVar(&serveAllowAll, "allow-all-origins", false, "allow cross-origin requests from anywhere")
	serveCmd.Flags().BoolVar(&serveNoBrowser, "no-browser", false, "do not open the workbench in a browser")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.client(pages.App)
	if err != nil {
		return err
	}
	user, err := requireSession(ctx, cmd, c)
	if err != nil {
		return err
	}

	wf := workflow.New(c)
	defer wf.Close()

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.Workbench.Addr
	}
	srv := server.New(server.Config{
		Addr:      addr,
		OutputDir: a.cfg.OutputDir,
		AllowAll:  serveAllowAll,
	}, a.db, wf)

	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nShutting down workbench...")
		srv.Shutdown(context.Background())
	}()

	url := "http://" + addr
	fmt.Fprintf(os.Stderr, "pixelfit workbench %s on %s\n", Version, url)
	fmt.Fprintf(os.Stderr, "  Signed in as: %s\n", user.DisplayName())
	fmt.Fprintf(os.Stderr, "  Backend: %s\n", c.Environment().APIBase)
	fmt.Fprintf(os.Stderr, "  Downloads: %s\n", a.cfg.OutputDir)

	if a.cfg.Workbench.OpenBrowser && !serveNoBrowser {
		if err := auth.OpenBrowser(url); err != nil {
			slog.Debug("could not open browser", "error", err)
		}
	}

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
