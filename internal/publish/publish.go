// Package publish renders portfolios as Markdown, HTML, PDF and terminal text, and
// manages the export directory those files are written to.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"portfolio-cli/internal/model"
)

type Kind string

const (
	KindJSON     Kind = "json"
	KindMarkdown Kind = "md"
	KindHTML     Kind = "html"
	KindPDF      Kind = "pdf"
)

type ExportOptions struct {
	Kinds     []Kind
	Overwrite bool
	// PDF is required when Kinds contains KindPDF.
	PDF PDFRenderer
	Now func() time.Time
}

// Exports holds the written paths by kind; missing kinds are empty.
type Exports struct {
	JSONPath     string `json:"json_path,omitempty"`
	MarkdownPath string `json:"markdown_path,omitempty"`
	HTMLPath     string `json:"html_path,omitempty"`
	PDFPath      string `json:"pdf_path,omitempty"`
}

func (e *Exports) set(k Kind, path string) {
	switch k {
	case KindJSON:
		e.JSONPath = path
	case KindMarkdown:
		e.MarkdownPath = path
	case KindHTML:
		e.HTMLPath = path
	case KindPDF:
		e.PDFPath = path
	}
}

func ParseKinds(s []string) ([]Kind, error) {
	var out []Kind
	seen := map[Kind]bool{}
	for _, raw := range s {
		k := Kind(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), ".")))
		switch k {
		case "markdown":
			k = KindMarkdown
		case "htm":
			k = KindHTML
		}
		switch k {
		case KindJSON, KindMarkdown, KindHTML, KindPDF:
		default:
			return nil, fmt.Errorf("unknown export kind: %s", raw)
		}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out, nil
}

// Export writes p into dir as portfolio_<login>_<timestamp>.<kind> for each requested kind.
func Export(ctx context.Context, p *model.Portfolio, dir string, opt ExportOptions) (Exports, error) {
	if p == nil {
		return Exports{}, errors.New("missing portfolio")
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return Exports{}, errors.New("missing export dir")
	}
	if len(opt.Kinds) == 0 {
		opt.Kinds = []Kind{KindMarkdown, KindHTML}
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Exports{}, err
	}
	login := p.Login
	if login == "" {
		login = "portfolio"
	}
	base := fmt.Sprintf("portfolio_%s_%s", login, opt.Now().UTC().Format("20060102_150405"))

	var out Exports
	var page []byte
	for _, k := range opt.Kinds {
		var b []byte
		var err error
		switch k {
		case KindJSON:
			b, err = json.MarshalIndent(p, "", "  ")
		case KindMarkdown:
			b = []byte(RenderMarkdown(p))
		case KindHTML, KindPDF:
			if page == nil {
				if page, err = RenderHTML(p); err != nil {
					return out, err
				}
			}
			b = page
			if k == KindPDF {
				if opt.PDF == nil {
					return out, errors.New("pdf export needs a renderer")
				}
				b, err = opt.PDF.RenderPDF(ctx, page)
			}
		default:
			err = fmt.Errorf("unknown export kind: %s", k)
		}
		if err != nil {
			return out, fmt.Errorf("export %s: %w", k, err)
		}
		path := filepath.Join(dir, base+"."+string(k))
		if err := writeFile(path, b, opt.Overwrite); err != nil {
			return out, err
		}
		out.set(k, path)
	}
	return out, nil
}

// Latest returns the newest exported file of each kind under dir.
func Latest(dir string) (Exports, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return Exports{}, nil
	}
	if err != nil {
		return Exports{}, err
	}
	var out Exports
	newest := map[Kind]time.Time{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "portfolio_") {
			continue
		}
		k := Kind(strings.TrimPrefix(filepath.Ext(e.Name()), "."))
		info, err := e.Info()
		if err != nil {
			continue
		}
		if t, ok := newest[k]; ok && !info.ModTime().After(t) {
			continue
		}
		newest[k] = info.ModTime()
		out.set(k, filepath.Join(dir, e.Name()))
	}
	return out, nil
}

// ErrOutsideRoot is returned by ResolveInside for paths that escape the root.
var ErrOutsideRoot = errors.New("path is outside the export directory")

// ErrExists is returned when an export would replace a file and overwrite is off.
var ErrExists = errors.New("file exists (use --overwrite)")

// ErrNotRegular is returned by ResolveInside for directories and other non-regular files.
var ErrNotRegular = errors.New("not a regular file")

// ResolveInside resolves path (absolute, or relative to root) and checks that it names a
// regular file inside root. Symlinks are followed before the check.
func ResolveInside(root, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("missing path")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	if r, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = r
	}
	p := path
	if !filepath.IsAbs(p) {
		p = filepath.Join(absRoot, p)
	}
	p, err = filepath.EvalSymlinks(filepath.Clean(p))
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	st, err := os.Stat(p)
	if err != nil {
		return "", err
	}
	if !st.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	return p, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
