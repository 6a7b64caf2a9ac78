package web

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"portfolio-cli/internal/editor"
	"portfolio-cli/internal/generate"
	"portfolio-cli/internal/model"
	"portfolio-cli/internal/publish"
	"portfolio-cli/internal/store"

	"go.uber.org/zap"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type fetchRequest struct {
	Token   string `json:"token"`
	Profile string `json:"profile_url_or_username"`
	TopN    int    `json:"top_n,omitempty"`
}

func (s *Server) fetchUser(r *http.Request, req fetchRequest) (*model.GitHubUser, error) {
	if strings.TrimSpace(req.Profile) == "" {
		return nil, badRequest("missing profile_url_or_username")
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		token = s.cfg.Token
	}
	return s.cfg.NewFetcher(token).FetchUser(r.Context(), req.Profile)
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.fetchUser(r, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.fetchUser(r, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	topN := req.TopN
	if topN <= 0 {
		topN = s.cfg.TopN
	}
	p, err := generate.Generate(u, generate.Options{TopN: topN, Ranker: s.cfg.Ranker, Now: s.cfg.Now, Logger: s.log})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	l := s.lockFor(p.Login)
	l.Lock()
	err = s.cfg.Store.SavePortfolio(r.Context(), p)
	if err == nil {
		s.recordEvent(r.Context(), p.Login, "portfolio.generate", map[string]any{
			"projects": len(p.Projects),
			"ranker":   p.Meta.Ranker,
		})
	}
	l.Unlock()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"portfolio":    p,
		"repositories": u.Repositories,
		"user":         u,
	})
}

func (s *Server) handlePortfolios(w http.ResponseWriter, r *http.Request) {
	list, err := s.cfg.Store.ListPortfolios(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []store.PortfolioSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"portfolios": list})
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := s.cfg.Store.LoadPortfolio(r.Context(), r.PathValue("login"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePortfolioReplace(w http.ResponseWriter, r *http.Request) {
	var body model.Portfolio
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.edit(r.Context(), r.PathValue("login"), func(ed *editor.Editor) error {
		ed.Replace(&body)
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleRegenerate refreshes a stored portfolio from GitHub, keeping the user's edits.
func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	login := r.PathValue("login")
	if strings.TrimSpace(req.Profile) == "" {
		req.Profile = login
	}
	u, err := s.fetchUser(r, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.edit(r.Context(), login, func(ed *editor.Editor) error {
		ed.Replace(generate.Regenerate(ed.Portfolio(), u, s.cfg.Now()))
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePortfolioDelete(w http.ResponseWriter, r *http.Request) {
	login := r.PathValue("login")
	l := s.lockFor(login)
	l.Lock()
	err := s.cfg.Store.DeletePortfolio(r.Context(), login)
	l.Unlock()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type projectRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Language    string   `json:"language"`
	Stars       int      `json:"stargazers_count"`
	Forks       int      `json:"forks_count"`
	Topics      []string `json:"topics"`
}

func (s *Server) handleProjectAdd(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.writeError(w, r, badRequest("missing project name"))
		return
	}
	var id string
	p, err := s.edit(r.Context(), r.PathValue("login"), func(ed *editor.Editor) error {
		id = ed.AddProject(model.Project{
			Name:        strings.TrimSpace(req.Name),
			Description: req.Description,
			URL:         req.URL,
			Language:    req.Language,
			Stars:       req.Stars,
			Forks:       req.Forks,
			Topics:      req.Topics,
		})
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "portfolio": p})
}

// moveRequest names the project either by index (from) or by id. Indexes are 0-based
// and follow splice semantics.
type moveRequest struct {
	From *int   `json:"from"`
	ID   string `json:"id"`
	To   *int   `json:"to"`
}

func (s *Server) handleProjectMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.To == nil || (req.From == nil && strings.TrimSpace(req.ID) == "") {
		s.writeError(w, r, badRequest("move needs to and one of from or id"))
		return
	}
	p, err := s.edit(r.Context(), r.PathValue("login"), func(ed *editor.Editor) error {
		var from int
		if req.From != nil {
			from = *req.From
		} else {
			from = ed.Portfolio().FindProject(req.ID)
			if from < 0 {
				return store.NotFoundError{Kind: "project", ID: req.ID}
			}
		}
		return ed.MoveProject(from, *req.To)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleProjectRemove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := s.edit(r.Context(), r.PathValue("login"), func(ed *editor.Editor) error {
		i := ed.Portfolio().FindProject(id)
		if i < 0 {
			return store.NotFoundError{Kind: "project", ID: id}
		}
		return ed.RemoveProject(i)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, r, badRequest("invalid limit"))
			return
		}
		limit = n
	}
	events, err := s.cfg.Store.ListEvents(r.Context(), r.PathValue("login"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

type exportRequest struct {
	Formats   []string `json:"formats"`
	Overwrite bool     `json:"overwrite"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	kinds, err := publish.ParseKinds(req.Formats)
	if err != nil {
		s.writeError(w, r, badRequest(err.Error()))
		return
	}
	for _, k := range kinds {
		if k == publish.KindPDF && s.cfg.PDF == nil {
			s.writeError(w, r, badRequest("pdf export is not configured"))
			return
		}
	}
	login := r.PathValue("login")
	p, err := s.cfg.Store.LoadPortfolio(r.Context(), login)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := publish.Export(r.Context(), p, s.cfg.ExportDir, publish.ExportOptions{
		Kinds:     kinds,
		Overwrite: req.Overwrite,
		PDF:       s.cfg.PDF,
		Now:       s.cfg.Now,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.recordEvent(r.Context(), p.Login, "portfolio.export", map[string]any{"formats": req.Formats})
	s.log.Info("portfolio exported", zap.String("login", p.Login), zap.String("dir", s.cfg.ExportDir))
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	out, err := publish.Latest(s.cfg.ExportDir)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, true)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, false)
}

// serveExport serves a file from the export directory. Paths outside it are refused.
func (s *Server) serveExport(w http.ResponseWriter, r *http.Request, attachment bool) {
	q := r.URL.Query().Get("path")
	if strings.TrimSpace(q) == "" {
		s.writeError(w, r, badRequest("missing path"))
		return
	}
	path, err := publish.ResolveInside(s.cfg.ExportDir, q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	f, err := os.Open(path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	name := filepath.Base(path)
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if attachment {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	}
	http.ServeContent(w, r, name, st.ModTime(), f)
}
