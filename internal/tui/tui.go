// Package tui is the interactive portfolio editor. Projects are reordered by dragging
// rows with the mouse or with keyboard moves; both go through the editor's move.
package tui

import (
	"context"
	"errors"
	"time"

	"portfolio-cli/internal/editor"
	"portfolio-cli/internal/publish"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type Options struct {
	// Open loads a fresh editor for the portfolio. It is called at start and on reload.
	Open func(ctx context.Context) (*editor.Editor, error)
	// ModTime reports when the store last changed. Nil disables polling for outside edits.
	ModTime func() time.Time
	// Style is the glamour palette of the preview pane.
	Style publish.TerminalStyle
	Log   *zap.Logger
}

// Run starts the editor on the alternate screen and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	if opts.Open == nil {
		return errors.New("tui: missing portfolio loader")
	}
	ed, err := opts.Open(ctx)
	if err != nil {
		return err
	}
	applyColorProfilePreference()
	m := newAppModel(ctx, ed, opts)
	_, err = tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
