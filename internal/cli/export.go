package cli

import (
	"strings"

	"portfolio-cli/internal/publish"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (app *App) pdfRenderer() (publish.PDFRenderer, error) {
	timeout, err := app.cfg.PDFTimeout()
	if err != nil {
		return nil, err
	}
	return publish.RodPDF{
		Bin:      app.cfg.PDF.Browser,
		Headless: app.cfg.PDF.Headless,
		Timeout:  timeout,
		Log:      app.log,
	}, nil
}

func newExportCmd(app *App) *cobra.Command {
	var to string
	var md, html, pdf, asJSON, overwrite bool

	cmd := &cobra.Command{
		Use:   "export <login>",
		Short: "Write the portfolio as Markdown, HTML, PDF or JSON",
		Long: strings.TrimSpace(`
Write the portfolio into a directory as portfolio_<login>_<timestamp>.<ext>.
Without a format flag, Markdown and HTML are written. PDF output prints the HTML page
through a headless Chromium.
`),
		Example: strings.TrimSpace(`
folio export octocat --to ./out
folio export octocat --to ./out --pdf --overwrite
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := strings.TrimSpace(to)
			if dir == "" {
				dir = app.cfg.ExportDir
			}
			var kinds []publish.Kind
			if asJSON {
				kinds = append(kinds, publish.KindJSON)
			}
			if md {
				kinds = append(kinds, publish.KindMarkdown)
			}
			if html {
				kinds = append(kinds, publish.KindHTML)
			}
			if len(kinds) == 0 && !pdf {
				kinds = []publish.Kind{publish.KindMarkdown, publish.KindHTML}
			}
			opt := publish.ExportOptions{Kinds: kinds, Overwrite: overwrite, Now: app.now}
			if pdf {
				opt.Kinds = append(opt.Kinds, publish.KindPDF)
				r, err := app.pdfRenderer()
				if err != nil {
					return writeErr(cmd, err)
				}
				opt.PDF = r
			}

			s, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			p, err := s.LoadPortfolio(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			out, err := publish.Export(cmd.Context(), p, dir, opt)
			if err != nil {
				return writeErr(cmd, err)
			}
			formats := make([]string, 0, len(opt.Kinds))
			for _, k := range opt.Kinds {
				formats = append(formats, string(k))
			}
			if err := s.AppendEvent(cmd.Context(), p.Login, "portfolio.export", map[string]any{"formats": formats}); err != nil {
				app.log.Warn("history event not recorded", zap.String("login", p.Login), zap.String("type", "portfolio.export"), zap.Error(err))
			}
			app.log.Info("portfolio exported", zap.String("login", p.Login), zap.String("dir", dir))
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Output directory (default: export_dir from config)")
	cmd.Flags().BoolVar(&md, "md", false, "Write Markdown")
	cmd.Flags().BoolVar(&html, "html", false, "Write HTML")
	cmd.Flags().BoolVar(&pdf, "pdf", false, "Write PDF (needs Chromium)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write the portfolio JSON")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing files")
	return cmd
}
