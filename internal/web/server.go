// Package web serves the portfolio JSON API used by browser front ends.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"portfolio-cli/internal/editor"
	"portfolio-cli/internal/generate"
	"portfolio-cli/internal/github"
	"portfolio-cli/internal/model"
	"portfolio-cli/internal/publish"
	"portfolio-cli/internal/store"

	"go.uber.org/zap"
)

// Fetcher loads a GitHub user by login or profile URL.
type Fetcher interface {
	FetchUser(ctx context.Context, input string) (*model.GitHubUser, error)
}

type ServerConfig struct {
	Addr      string
	Store     store.Store
	ExportDir string
	// CORSOrigins lists allowed browser origins; "*" allows any.
	CORSOrigins []string

	// Token is used when a request does not carry its own.
	Token string
	// NewFetcher builds a GitHub fetcher for a token. Defaults to the GraphQL client.
	NewFetcher func(token string) Fetcher

	TopN   int
	Ranker generate.Ranker
	PDF    publish.PDFRenderer
	Log    *zap.Logger
	Now    func() time.Time
}

type Server struct {
	cfg ServerConfig
	log *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewServer(cfg ServerConfig) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.ExportDir = strings.TrimSpace(cfg.ExportDir)
	if cfg.Addr == "" {
		return nil, errors.New("web: addr is empty")
	}
	if strings.TrimSpace(cfg.Store.Dir) == "" {
		return nil, errors.New("web: store dir is empty")
	}
	if cfg.ExportDir == "" {
		return nil, errors.New("web: export dir is empty")
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.NewFetcher == nil {
		log := cfg.Log
		cfg.NewFetcher = func(token string) Fetcher {
			return github.New(github.Options{Token: token, Logger: log})
		}
	}
	if cfg.Store.Log == nil {
		cfg.Store.Log = cfg.Log
	}
	return &Server{cfg: cfg, log: cfg.Log, locks: map[string]*sync.Mutex{}}, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/fetch", s.handleFetch)
	mux.HandleFunc("POST /api/portfolio", s.handleGenerate)
	mux.HandleFunc("GET /api/portfolios", s.handlePortfolios)
	mux.HandleFunc("GET /api/portfolios/{login}", s.handlePortfolio)
	mux.HandleFunc("PUT /api/portfolios/{login}", s.handlePortfolioReplace)
	mux.HandleFunc("DELETE /api/portfolios/{login}", s.handlePortfolioDelete)
	mux.HandleFunc("POST /api/portfolios/{login}/regenerate", s.handleRegenerate)
	mux.HandleFunc("POST /api/portfolios/{login}/projects", s.handleProjectAdd)
	mux.HandleFunc("POST /api/portfolios/{login}/projects/move", s.handleProjectMove)
	mux.HandleFunc("DELETE /api/portfolios/{login}/projects/{id}", s.handleProjectRemove)
	mux.HandleFunc("GET /api/portfolios/{login}/events", s.handleEvents)
	mux.HandleFunc("POST /api/portfolios/{login}/export", s.handleExport)
	mux.HandleFunc("GET /api/latest", s.handleLatest)
	mux.HandleFunc("GET /download", s.handleDownload)
	mux.HandleFunc("GET /view", s.handleView)
	return s.withCORS(s.withLogging(mux))
}

// ListenAndServe listens on the configured address and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hs := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- hs.Serve(ln) }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// lockFor returns the mutex serializing edits of one portfolio.
func (s *Server) lockFor(login string) *sync.Mutex {
	login = strings.ToLower(strings.TrimSpace(login))
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.locks[login]
	if l == nil {
		l = &sync.Mutex{}
		s.locks[login] = l
	}
	return l
}

// edit loads the stored portfolio into an editor, applies fn and saves the result.
func (s *Server) edit(ctx context.Context, login string, fn func(*editor.Editor) error) (*model.Portfolio, error) {
	l := s.lockFor(login)
	l.Lock()
	defer l.Unlock()

	p, err := s.cfg.Store.LoadPortfolio(ctx, login)
	if err != nil {
		return nil, err
	}
	ed := editor.New(p, editor.WithSaver(s.cfg.Store), editor.WithLogger(s.log), editor.WithClock(s.cfg.Now))
	if err := fn(ed); err != nil {
		return nil, err
	}
	if err := ed.Save(ctx); err != nil && !errors.Is(err, editor.ErrHistoryNotRecorded) {
		return nil, err
	}
	return ed.Portfolio(), nil
}

// recordEvent appends a history entry. A failure is logged and does not fail the request.
func (s *Server) recordEvent(ctx context.Context, login, typ string, payload map[string]any) {
	if err := s.cfg.Store.AppendEvent(ctx, login, typ, payload); err != nil {
		s.log.Warn("history event not recorded", zap.String("login", login), zap.String("type", typ), zap.Error(err))
	}
}

type badRequestError struct{ msg string }

func (e badRequestError) Error() string { return e.msg }

func badRequest(msg string) error { return badRequestError{msg: msg} }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status >= 500 {
		s.log.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func errorStatus(err error) int {
	var bad badRequestError
	var unknown editor.UnknownFieldError
	var ghUser github.UserNotFoundError
	var ghStatus *github.StatusError
	var ghAPI *github.APIError
	switch {
	case errors.As(err, &bad), errors.As(err, &unknown),
		errors.Is(err, editor.ErrIndexOutOfRange),
		errors.Is(err, github.ErrMissingToken),
		errors.Is(err, github.ErrInvalidLogin),
		errors.Is(err, publish.ErrNotRegular):
		return http.StatusBadRequest
	case store.IsNotFound(err), errors.As(err, &ghUser), errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, publish.ErrOutsideRoot):
		return http.StatusForbidden
	case errors.Is(err, publish.ErrExists):
		return http.StatusConflict
	case errors.As(err, &ghStatus), errors.As(err, &ghAPI):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid json body: " + err.Error())
	}
	return nil
}
