package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"portfolio-cli/internal/config"
	"portfolio-cli/internal/format"
	"portfolio-cli/internal/github"
	"portfolio-cli/internal/logging"
	"portfolio-cli/internal/model"
	"portfolio-cli/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Fetcher loads a GitHub user by login or profile URL.
type Fetcher interface {
	FetchUser(ctx context.Context, input string) (*model.GitHubUser, error)
}

type App struct {
	Dir        string
	ConfigDir  string
	PrettyJSON bool
	Format     string
	LogLevel   string

	cfg config.Config
	log *zap.Logger

	// newFetcher builds the GitHub client; tests swap it for a fake.
	newFetcher func(token string) Fetcher
	now        func() time.Time
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "folio",
		Short:         "Build and curate a developer portfolio from GitHub",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		Example: strings.TrimSpace(`
  # Fetch, rank and store a portfolio
  folio generate octocat

  # Reorder projects interactively (drag rows with the mouse)
  folio octocat

  # Scriptable edits
  folio projects move octocat 3 1
  folio export octocat --to ./out --html --pdf

  # Direct project lookup (shortcut for: folio projects show <project-id>)
  folio proj-6f1c...
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// A lone login opens the editor.
			if len(args) == 1 {
				return runEdit(cmd, app, args[0], "")
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := app.init(); err != nil {
			return writeErr(cmd, err)
		}
		return nil
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if app.log != nil {
			_ = app.log.Sync()
		}
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("FOLIO_DIR", ""), "Path to the store dir (default: nearest .folio)")
	cmd.PersistentFlags().StringVar(&app.ConfigDir, "config", envOr(config.EnvConfigDir, ""), "Config directory (default: ~/.folio)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("FOLIO_FORMAT", "json"), "Output format (json|yaml)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")

	cmd.AddCommand(newFetchCmd(app))
	cmd.AddCommand(newGenerateCmd(app))
	cmd.AddCommand(newRegenerateCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newDeleteCmd(app))
	cmd.AddCommand(newProjectsCmd(app))
	cmd.AddCommand(newSkillsCmd(app))
	cmd.AddCommand(newProfileCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newHistoryCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newBackupCmd(app))
	cmd.AddCommand(newRestoreCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// init resolves configuration and the logger. Flags win over the config file and env.
func (app *App) init() error {
	cfg, err := config.Load(config.LoadOptions{ConfigDir: app.ConfigDir})
	if err != nil {
		return err
	}
	if lvl := strings.TrimSpace(app.LogLevel); lvl != "" {
		cfg.Log.Level = lvl
	}
	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		return err
	}
	app.cfg = cfg
	app.log = log
	if app.now == nil {
		app.now = func() time.Time { return time.Now().UTC() }
	}
	if app.newFetcher == nil {
		endpoint := cfg.GitHubAPIURL
		app.newFetcher = func(token string) Fetcher {
			return github.New(github.Options{Endpoint: endpoint, Token: token, Logger: log})
		}
	}
	return nil
}

// resolveDir picks the store directory: --dir, then the config file, then discovery.
func resolveDir(app *App) (string, error) {
	if d := strings.TrimSpace(app.Dir); d != "" {
		return d, nil
	}
	if d := strings.TrimSpace(app.cfg.Dir); d != "" {
		app.Dir = d
		return d, nil
	}
	d, err := store.DefaultDir()
	if err != nil {
		return "", err
	}
	app.Dir = d
	return d, nil
}

func openStore(app *App) (store.Store, error) {
	dir, err := resolveDir(app)
	if err != nil {
		return store.Store{}, err
	}
	s := store.Store{Dir: dir, Log: app.log}
	if err := s.Ensure(); err != nil {
		return store.Store{}, err
	}
	return s, nil
}

func (app *App) token(flag string) string {
	if t := strings.TrimSpace(flag); t != "" {
		return t
	}
	return app.cfg.GitHubToken
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
