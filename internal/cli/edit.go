package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"portfolio-cli/internal/editor"
	"portfolio-cli/internal/logging"
	"portfolio-cli/internal/publish"
	"portfolio-cli/internal/tui"

	"github.com/spf13/cobra"
)

func newEditCmd(app *App) *cobra.Command {
	var style string

	cmd := &cobra.Command{
		Use:   "edit <login>",
		Short: "Edit a portfolio interactively (drag projects to reorder)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, app, args[0], style)
		},
	}
	cmd.Flags().StringVar(&style, "style", "", "Preview palette (dark|light|notty)")
	return cmd
}

func runEdit(cmd *cobra.Command, app *App, login, style string) error {
	s, err := openStore(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	login = usernameArg(login)
	// Fail before taking over the screen.
	if _, err := s.LoadPortfolio(cmd.Context(), login); err != nil {
		return writeErr(cmd, err)
	}

	// Log lines would corrupt the alternate screen.
	logFile := strings.TrimSpace(app.cfg.Log.File)
	if logFile == "" {
		logFile = filepath.Join(s.Dir, "folio.log")
	}
	log, err := logging.New(logging.Options{Level: app.cfg.Log.Level, Format: app.cfg.Log.Format, File: logFile})
	if err != nil {
		return writeErr(cmd, err)
	}
	defer func() { _ = log.Sync() }()
	s.Log = log

	if style == "" {
		style = envOr("FOLIO_STYLE", "dark")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = tui.Run(ctx, tui.Options{
		Open: func(ctx context.Context) (*editor.Editor, error) {
			p, err := s.LoadPortfolio(ctx, login)
			if err != nil {
				return nil, err
			}
			return editor.New(p, editor.WithSaver(s), editor.WithLogger(log), editor.WithClock(app.now)), nil
		},
		ModTime: s.ModTime,
		Style:   publish.TerminalStyle(style),
		Log:     log,
	})
	if err != nil {
		return writeErr(cmd, err)
	}
	return nil
}
