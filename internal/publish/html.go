package publish

import (
	"bytes"
	"embed"
	"html/template"
	"strings"

	"portfolio-cli/internal/model"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/*.html
var templatesFS embed.FS

var (
	markdownRenderer = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			emoji.Emoji,
		),
		// No html.WithUnsafe: raw HTML in user text is dropped.
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	sanitizer = bluemonday.UGCPolicy()

	pageTemplate = template.Must(template.New("portfolio.html").Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).ParseFS(templatesFS, "templates/portfolio.html"))
)

// renderMarkdownHTML converts user markdown to sanitized HTML.
func renderMarkdownHTML(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	var b bytes.Buffer
	if err := markdownRenderer.Convert([]byte(src), &b); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}
	return template.HTML(sanitizer.SanitizeBytes(b.Bytes()))
}

type htmlProject struct {
	model.Project
	Description template.HTML
}

type htmlPage struct {
	*model.Portfolio
	Summary  template.HTML
	Projects []htmlProject
}

// RenderHTML renders p as a standalone HTML page. Summary and project descriptions are
// treated as Markdown.
func RenderHTML(p *model.Portfolio) ([]byte, error) {
	if p == nil {
		p = &model.Portfolio{}
	}
	page := htmlPage{Portfolio: p, Summary: renderMarkdownHTML(p.Summary)}
	if strings.TrimSpace(page.Portfolio.Name) == "" {
		cp := p.Clone()
		cp.Name = p.Login
		page.Portfolio = cp
	}
	for _, pr := range p.Projects {
		page.Projects = append(page.Projects, htmlProject{Project: pr, Description: renderMarkdownHTML(pr.Description)})
	}
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
