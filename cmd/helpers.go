package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pixelfit/pixelfit/internal/api"
	"github.com/pixelfit/pixelfit/internal/config"
	"github.com/pixelfit/pixelfit/internal/db"
	"github.com/pixelfit/pixelfit/internal/pages"
	"github.com/pixelfit/pixelfit/internal/session"
	"github.com/pixelfit/pixelfit/internal/ui"
)

// errReported marks a failure whose message was already printed.
var errReported = errors.New("failed")

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `pixelfit init` to create a config file", err)
	}
	if pageOrigin != "" {
		cfg.PageOrigin = pageOrigin
	}
	if apiBase != "" {
		cfg.APIBase = apiBase
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// app is what every backend-facing command needs: config, the state
// database and the persistent cookie jar.
type app struct {
	cfg *config.Config
	db  *db.DB
	jar *session.Jar
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	database, err := db.Open(cfg.StateDB)
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}
	jar, err := session.NewJar(ctx, database)
	if err != nil {
		database.Close()
		return nil, err
	}
	return &app{cfg: cfg, db: database, jar: jar}, nil
}

func (a *app) Close() error { return a.db.Close() }

// client returns an API client as the given page would build it.
func (a *app) client(page pages.Page) (*api.Client, error) {
	e, err := a.cfg.Environment(page)
	if err != nil {
		return nil, err
	}
	slog.Debug("environment resolved", "page", page, "api_base", e.APIBase, "local", e.IsLocal)
	return api.New(e,
		api.WithJar(a.jar),
		api.WithTimeout(a.cfg.Timeout()),
		api.WithLogger(slog.Default()),
	), nil
}

// requireSession is the guard of protected pages: without a session the
// user is sent to the login page.
func requireSession(ctx context.Context, cmd *cobra.Command, c *api.Client) (*api.User, error) {
	user, err := c.Me(ctx)
	if err == nil {
		return user, nil
	}
	slog.Debug("session check failed", "error", err)
	ui.Print(cmd.ErrOrStderr(), ui.Error("You need to log in first."))
	printNavigation(cmd.OutOrStdout(), pages.NavigateTo(pages.Login))
	return nil, errReported
}

func printNavigation(w io.Writer, nav *pages.Navigation) {
	if nav == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", ui.Muted("→"), nav)
}

// report prints a status and the navigation that follows it. A failure
// status becomes errReported.
func report(cmd *cobra.Command, status ui.Status, next *pages.Navigation) error {
	if status.IsError() {
		ui.Print(cmd.ErrOrStderr(), status)
		return errReported
	}
	ui.Print(cmd.OutOrStdout(), status)
	printNavigation(cmd.OutOrStdout(), next)
	return nil
}

func confirm(question string) (bool, error) {
	p := promptui.Prompt{Label: question, IsConfirm: true}
	if _, err := p.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func promptValue(label, def string) (string, error) {
	p := promptui.Prompt{Label: label, Default: def}
	v, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("%s: %w", strings.ToLower(label), err)
	}
	return v, nil
}

func promptSelect(label string, items []string) (string, error) {
	p := promptui.Select{Label: label, Items: items}
	_, v, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("%s: %w", strings.ToLower(label), err)
	}
	return v, nil
}

// readPassword reads a password without echo. Piped input is read as a
// plain line.
func readPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprintf(os.Stderr, "%s: ", label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}
