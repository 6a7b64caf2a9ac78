package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"portfolio-cli/internal/editor"
	"portfolio-cli/internal/generate"
	"portfolio-cli/internal/github"
	"portfolio-cli/internal/model"
	"portfolio-cli/internal/publish"
	"portfolio-cli/internal/store"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newFetchCmd(app *App) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "fetch <login|profile-url>",
		Short: "Fetch a GitHub user and print the shaped data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := app.newFetcher(app.token(token)).FetchUser(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": u})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "GitHub token (default: GITHUB_TOKEN or config)")
	return cmd
}

func (app *App) ranker() generate.Ranker {
	return generate.Heuristic{MinStars: app.cfg.Ranker.MinStars, IncludeForks: app.cfg.Ranker.IncludeForks}
}

func newGenerateCmd(app *App) *cobra.Command {
	var token string
	var top int

	cmd := &cobra.Command{
		Use:   "generate <login|profile-url>",
		Short: "Fetch, rank and store a portfolio (replaces any stored one)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			u, err := app.newFetcher(app.token(token)).FetchUser(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if top <= 0 {
				top = app.cfg.Ranker.TopN
			}
			p, err := generate.Generate(u, generate.Options{TopN: top, Ranker: app.ranker(), Now: app.now, Logger: app.log})
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.SavePortfolio(cmd.Context(), p); err != nil {
				return writeErr(cmd, err)
			}
			if err := s.AppendEvent(cmd.Context(), p.Login, "portfolio.generate", map[string]any{
				"projects": len(p.Projects),
				"ranker":   p.Meta.Ranker,
			}); err != nil {
				app.log.Warn("history event not recorded", zap.String("login", p.Login), zap.String("type", "portfolio.generate"), zap.Error(err))
			}
			return writeOut(cmd, app, map[string]any{
				"data":   p,
				"_hints": []string{"folio " + p.Login, "folio export " + p.Login + " --html"},
			})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "GitHub token (default: GITHUB_TOKEN or config)")
	cmd.Flags().IntVar(&top, "top", 0, "Number of projects to feature (default: ranker.top_n)")
	return cmd
}

func newRegenerateCmd(app *App) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "regenerate <login|profile-url>",
		Short: "Refresh stats from GitHub, keeping edits and project order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := app.newFetcher(app.token(token)).FetchUser(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			p, err := editPortfolio(cmd.Context(), app, usernameArg(args[0]), func(ed *editor.Editor) error {
				ed.Replace(generate.Regenerate(ed.Portfolio(), u, app.now()))
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": p})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "GitHub token (default: GITHUB_TOKEN or config)")
	return cmd
}

func newShowCmd(app *App) *cobra.Command {
	var render bool
	var style string
	var width int

	cmd := &cobra.Command{
		Use:   "show <login>",
		Short: "Print a stored portfolio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			p, err := s.LoadPortfolio(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if !render {
				return writeOut(cmd, app, map[string]any{"data": p})
			}
			if width <= 0 {
				width = terminalWidth()
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), publish.RenderTerminal(p, width, publish.TerminalStyle(style)))
			return err
		},
	}
	cmd.Flags().BoolVar(&render, "render", false, "Render for the terminal instead of printing data")
	cmd.Flags().StringVar(&style, "style", "dark", "Terminal palette (dark|light|notty)")
	cmd.Flags().IntVar(&width, "width", 0, "Wrap width (default: terminal width)")
	return cmd
}

func terminalWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return 80
}

func newListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored portfolios (most recently updated first)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			list, err := s.ListPortfolios(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if list == nil {
				list = []store.PortfolioSummary{}
			}
			return writeOut(cmd, app, map[string]any{"data": list})
		},
	}
}

func newDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <login>",
		Short: "Delete a stored portfolio and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.DeletePortfolio(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"login": strings.ToLower(args[0]), "deleted": true}})
		},
	}
}

func newHistoryCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <login>",
		Short: "List edit events (newest first)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			evs, err := s.ListEvents(cmd.Context(), args[0], limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			if evs == nil {
				evs = []model.Event{}
			}
			return writeOut(cmd, app, map[string]any{"data": evs})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Max events to return (0 = all)")
	return cmd
}

// editPortfolio loads login into an editor, applies fn and saves. Reorders that touch
// nothing else are stored as rank updates.
func editPortfolio(ctx context.Context, app *App, login string, fn func(*editor.Editor) error) (*model.Portfolio, error) {
	s, err := openStore(app)
	if err != nil {
		return nil, err
	}
	p, err := s.LoadPortfolio(ctx, login)
	if err != nil {
		return nil, err
	}
	ed := editor.New(p, editor.WithSaver(s), editor.WithLogger(app.log), editor.WithClock(app.now))
	if err := fn(ed); err != nil {
		return nil, err
	}
	if err := ed.Save(ctx); err != nil && !errors.Is(err, editor.ErrHistoryNotRecorded) {
		return nil, err
	}
	app.log.Debug("portfolio edited", zap.String("login", ed.Login()))
	return ed.Portfolio(), nil
}

// usernameArg accepts a profile URL where a login is expected.
func usernameArg(s string) string {
	if u := github.ExtractUsername(s); u != "" {
		return u
	}
	return s
}
