package publish

import (
	"strconv"
	"strings"
	"sync"

	"portfolio-cli/internal/model"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
)

var (
	termRendererMu sync.Mutex
	// Keyed by style and wrap width. A fixed style avoids WithAutoStyle, which can block on
	// terminal background queries.
	termRenderers = map[string]*glamour.TermRenderer{}
)

// TerminalStyle selects the glamour palette: "dark" (default), "light" or "notty".
type TerminalStyle string

// RenderTerminal renders p for a terminal at the given wrap width.
func RenderTerminal(p *model.Portfolio, width int, style TerminalStyle) string {
	return RenderMarkdownTerminal(RenderMarkdown(p), width, style)
}

// RenderMarkdownTerminal renders markdown for a terminal. On renderer errors the source
// is returned unchanged.
func RenderMarkdownTerminal(md string, width int, style TerminalStyle) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}
	name := normStyle(style)
	key := name + ":" + strconv.Itoa(width)

	termRendererMu.Lock()
	r := termRenderers[key]
	termRendererMu.Unlock()

	if r == nil {
		cfg := styles.DarkStyleConfig
		switch name {
		case styles.LightStyle:
			cfg = styles.LightStyleConfig
		case styles.NoTTYStyle:
			cfg = styles.NoTTYStyleConfig
		}
		zero := uint(0)
		cfg.Document.Margin = &zero
		rr, err := glamour.NewTermRenderer(
			glamour.WithStyles(cfg),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		termRendererMu.Lock()
		if existing := termRenderers[key]; existing != nil {
			r = existing
		} else {
			termRenderers[key] = rr
			r = rr
		}
		termRendererMu.Unlock()
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func normStyle(s TerminalStyle) string {
	switch strings.ToLower(strings.TrimSpace(string(s))) {
	case styles.LightStyle:
		return styles.LightStyle
	case styles.NoTTYStyle, "ascii", "plain":
		return styles.NoTTYStyle
	default:
		return styles.DarkStyle
	}
}
