package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// PDFRenderer turns a rendered HTML page into a PDF document.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html []byte) ([]byte, error)
}

// RodPDF prints pages through a headless Chromium driven by go-rod.
type RodPDF struct {
	// Bin is a Chromium binary; empty lets the launcher find or download one.
	Bin string
	// ControlURL connects to an already running browser instead of launching one.
	ControlURL string
	Headless   bool
	Timeout    time.Duration
	Log        *zap.Logger
}

func (r RodPDF) RenderPDF(ctx context.Context, html []byte) ([]byte, error) {
	if len(html) == 0 {
		return nil, errors.New("render pdf: empty html")
	}
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	controlURL := strings.TrimSpace(r.ControlURL)
	if controlURL == "" {
		l := launcher.New().Headless(r.Headless).Context(ctx)
		if bin := strings.TrimSpace(r.Bin); bin != "" {
			l = l.Bin(bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		defer l.Kill()
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	defer func() { _ = browser.Close() }()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	if err := page.SetDocumentContent(string(html)); err != nil {
		return nil, fmt.Errorf("load html: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for page: %w", err)
	}
	stream, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	b, err := io.ReadAll(stream)
	if err != nil {
		return nil, err
	}
	log.Debug("pdf rendered", zap.Int("bytes", len(b)))
	return b, nil
}
