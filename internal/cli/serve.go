package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"portfolio-cli/internal/web"

	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var exportDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the portfolio JSON API",
		Long: strings.TrimSpace(`
Serve the JSON API used by browser front ends: fetch and generate portfolios, edit and
reorder projects, export files and serve them back for viewing or download.
`),
		Example: strings.TrimSpace(`
folio serve --addr 127.0.0.1:5173
FOLIO_CORS_ORIGINS=http://localhost:3000 folio serve
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				listenAddr = app.cfg.Addr
			}
			dir := strings.TrimSpace(exportDir)
			if dir == "" {
				dir = app.cfg.ExportDir
			}
			pdf, err := app.pdfRenderer()
			if err != nil {
				return writeErr(cmd, err)
			}

			srv, err := web.NewServer(web.ServerConfig{
				Addr:        listenAddr,
				Store:       s,
				ExportDir:   dir,
				CORSOrigins: app.cfg.CORSOrigins,
				Token:       app.cfg.GitHubToken,
				NewFetcher:  func(token string) web.Fetcher { return app.newFetcher(token) },
				TopN:        app.cfg.Ranker.TopN,
				Ranker:      app.ranker(),
				PDF:         pdf,
				Log:         app.log,
				Now:         app.now,
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}
			actualAddr := ln.Addr().String()
			url := "http://" + actualAddr + "/"

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      actualAddr,
					"url":       url,
					"dir":       s.Dir,
					"exportDir": dir,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": []string{"curl " + url + "api/health"},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "folio API running at %s\n", url)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.Serve(ctx, ln); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Bind address (default: addr from config)")
	cmd.Flags().StringVar(&exportDir, "export-dir", "", "Directory exports are written to and served from")
	return cmd
}
