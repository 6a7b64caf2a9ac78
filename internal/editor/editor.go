// Package editor holds the working copy of a portfolio while it is being edited.
//
// The Editor is the single owner of the canonical project order. Reorder controllers
// read it through the reorder.Collection methods and hand completed gestures back via
// MoveProject; every other structural change invalidates attached controllers.
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"portfolio-cli/internal/model"

	"go.uber.org/zap"
)

var ErrIndexOutOfRange = errors.New("index out of range")

// ErrHistoryNotRecorded is returned by Save when the portfolio was persisted but one
// or more history events could not be written.
var ErrHistoryNotRecorded = errors.New("portfolio saved but history not recorded")

// UnknownFieldError is returned for a field name the editor does not know.
type UnknownFieldError struct {
	Scope string
	Field string
}

func (e UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown %s field: %s", e.Scope, e.Field)
}

// Invalidator is notified whenever the project collection changes shape outside of a move.
type Invalidator interface {
	Invalidate()
}

// Saver persists portfolios. *store.Store implements it.
type Saver interface {
	SavePortfolio(ctx context.Context, p *model.Portfolio) error
	MoveProject(ctx context.Context, login, projectID string, insertAt int) error
	AppendEvent(ctx context.Context, login, typ string, payload map[string]any) error
}

type pendingMove struct {
	ID       string
	From, To int
}

type Editor struct {
	initial *model.Portfolio
	doc     *model.Portfolio

	dirty bool
	// rewrite is set by any change other than a move; moves alone are persisted as
	// targeted rank updates.
	rewrite bool
	moves   []pendingMove

	revision uint64
	watchers map[int]Invalidator
	nextW    int

	saver Saver
	log   *zap.Logger
	now   func() time.Time
}

type Option func(*Editor)

func WithSaver(s Saver) Option { return func(e *Editor) { e.saver = s } }

func WithLogger(l *zap.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.log = l
		}
	}
}

func WithClock(now func() time.Time) Option { return func(e *Editor) { e.now = now } }

// New starts editing p. The editor works on a copy; p is kept as the reset point.
// A portfolio with no persisted ranks is treated as unsaved.
func New(p *model.Portfolio, opts ...Option) *Editor {
	if p == nil {
		p = &model.Portfolio{}
	}
	e := &Editor{
		initial:  p.Clone(),
		doc:      p.Clone(),
		watchers: map[int]Invalidator{},
		log:      zap.NewNop(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	e.rewrite = unranked(e.doc)
	return e
}

// unranked reports whether any project has never been given a stored rank.
func unranked(p *model.Portfolio) bool {
	for _, pr := range p.Projects {
		if strings.TrimSpace(pr.Rank) == "" {
			return true
		}
	}
	return false
}

// Attach registers inv for invalidation and returns a function that detaches it.
func (e *Editor) Attach(inv Invalidator) (detach func()) {
	id := e.nextW
	e.nextW++
	e.watchers[id] = inv
	return func() { delete(e.watchers, id) }
}

func (e *Editor) Login() string { return e.doc.Login }

// Portfolio returns a copy of the working document.
func (e *Editor) Portfolio() *model.Portfolio { return e.doc.Clone() }

// Project returns a copy of the project at index.
func (e *Editor) Project(index int) (model.Project, bool) {
	if index < 0 || index >= len(e.doc.Projects) {
		return model.Project{}, false
	}
	return e.doc.Projects[index], true
}

func (e *Editor) HasChanges() bool { return e.dirty }

// Revision increases on every change to the working document.
func (e *Editor) Revision() uint64 { return e.revision }

// Len and IDAt expose the projects as a reorder.Collection.
func (e *Editor) Len() int { return len(e.doc.Projects) }

func (e *Editor) IDAt(index int) string { return e.doc.Projects[index].ID }

func (e *Editor) touch(structural bool) {
	e.revision++
	e.dirty = true
	e.rewrite = true
	e.doc.UpdatedAt = e.now()
	if structural {
		for _, w := range e.watchers {
			w.Invalidate()
		}
	}
}

// SetField sets one of the profile text fields.
func (e *Editor) SetField(field, value string) error {
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "name":
		e.doc.Name = value
	case "headline":
		e.doc.Headline = value
	case "summary":
		e.doc.Summary = value
	case "location":
		e.doc.Location = value
	case "website":
		e.doc.Website = value
	case "avatar":
		e.doc.Avatar = value
	default:
		return UnknownFieldError{Scope: "profile", Field: field}
	}
	e.touch(false)
	return nil
}

// UpdateProject sets a text field of the project at index.
func (e *Editor) UpdateProject(index int, field, value string) error {
	if err := e.checkIndex(index); err != nil {
		return err
	}
	pr := &e.doc.Projects[index]
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "name":
		pr.Name = value
	case "description":
		pr.Description = value
	case "url":
		pr.URL = value
	case "language":
		pr.Language = value
	default:
		return UnknownFieldError{Scope: "project", Field: field}
	}
	e.touch(false)
	return nil
}

// AddProject appends p and returns its id. A missing id is generated.
func (e *Editor) AddProject(p model.Project) string {
	if strings.TrimSpace(p.ID) == "" || e.doc.FindProject(p.ID) >= 0 {
		p.ID = model.NewProjectID()
	}
	if p.AddedAt.IsZero() {
		p.AddedAt = e.now()
	}
	p.Rank = ""
	e.doc.Projects = append(e.doc.Projects, p)
	e.touch(true)
	e.log.Debug("project added", zap.String("login", e.doc.Login), zap.String("id", p.ID))
	return p.ID
}

func (e *Editor) RemoveProject(index int) error {
	if err := e.checkIndex(index); err != nil {
		return err
	}
	id := e.doc.Projects[index].ID
	e.doc.Projects = append(e.doc.Projects[:index:index], e.doc.Projects[index+1:]...)
	e.touch(true)
	e.log.Debug("project removed", zap.String("login", e.doc.Login), zap.String("id", id))
	return nil
}

// MoveProject removes the project at from and inserts it at to. It is the move callback
// of a reorder.Controller.
func (e *Editor) MoveProject(from, to int) error {
	n := len(e.doc.Projects)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: move %d -> %d (len %d)", ErrIndexOutOfRange, from, to, n)
	}
	if from == to {
		return nil
	}
	moved := e.doc.Projects[from]
	rest := make([]model.Project, 0, n)
	rest = append(rest, e.doc.Projects[:from]...)
	rest = append(rest, e.doc.Projects[from+1:]...)
	out := make([]model.Project, 0, n)
	out = append(out, rest[:to]...)
	out = append(out, moved)
	out = append(out, rest[to:]...)
	e.doc.Projects = out

	e.moves = append(e.moves, pendingMove{ID: moved.ID, From: from, To: to})
	e.revision++
	e.dirty = true
	e.doc.UpdatedAt = e.now()
	e.log.Debug("project moved", zap.String("login", e.doc.Login), zap.String("id", moved.ID), zap.Int("from", from), zap.Int("to", to))
	return nil
}

func (e *Editor) SetSkills(skills []string) {
	e.doc.Skills = normalizeSkills(skills)
	e.touch(false)
}

// AddSkill appends skill unless it is already present (case-insensitive).
func (e *Editor) AddSkill(skill string) bool {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return false
	}
	for _, s := range e.doc.Skills {
		if strings.EqualFold(s, skill) {
			return false
		}
	}
	e.doc.Skills = append(e.doc.Skills, skill)
	e.touch(false)
	return true
}

func (e *Editor) RemoveSkill(index int) error {
	if index < 0 || index >= len(e.doc.Skills) {
		return fmt.Errorf("%w: skill %d (len %d)", ErrIndexOutOfRange, index, len(e.doc.Skills))
	}
	e.doc.Skills = append(e.doc.Skills[:index:index], e.doc.Skills[index+1:]...)
	e.touch(false)
	return nil
}

func (e *Editor) SetBehavior(b model.BehaviorProfile) {
	b.Traits = append([]string(nil), b.Traits...)
	e.doc.Behavior = b
	e.touch(false)
}

// Replace swaps in an edited document wholesale, keeping the login.
func (e *Editor) Replace(p *model.Portfolio) {
	if p == nil {
		return
	}
	login := e.doc.Login
	created := e.doc.CreatedAt
	e.doc = p.Clone()
	e.doc.Login = login
	if e.doc.CreatedAt.IsZero() {
		e.doc.CreatedAt = created
	}
	seen := map[string]bool{}
	for i := range e.doc.Projects {
		pr := &e.doc.Projects[i]
		if strings.TrimSpace(pr.ID) == "" || seen[pr.ID] {
			pr.ID = model.NewProjectID()
		}
		seen[pr.ID] = true
		if pr.AddedAt.IsZero() {
			pr.AddedAt = e.now()
		}
	}
	e.touch(true)
}

// Reset discards all changes since the editor was created or last saved.
func (e *Editor) Reset() {
	e.doc = e.initial.Clone()
	e.moves = nil
	e.rewrite = unranked(e.doc)
	e.dirty = false
	e.revision++
	for _, w := range e.watchers {
		w.Invalidate()
	}
}

// Save persists the working document. Pure reorders are written as rank updates of
// the moved projects only.
func (e *Editor) Save(ctx context.Context) error {
	if e.saver == nil {
		return errors.New("editor has no saver")
	}
	if !e.dirty && !e.rewrite {
		return nil
	}
	login := e.doc.Login
	var history []error
	record := func(typ string, payload map[string]any) {
		if err := e.saver.AppendEvent(ctx, login, typ, payload); err != nil {
			e.log.Warn("history event not recorded", zap.String("login", login), zap.String("type", typ), zap.Error(err))
			history = append(history, err)
		}
	}
	if e.rewrite {
		if err := e.saver.SavePortfolio(ctx, e.doc); err != nil {
			return fmt.Errorf("save portfolio %s: %w", login, err)
		}
		record("portfolio.save", map[string]any{
			"projects": len(e.doc.Projects),
			"skills":   len(e.doc.Skills),
		})
	} else {
		for _, mv := range e.moves {
			if err := e.saver.MoveProject(ctx, login, mv.ID, mv.To); err != nil {
				return fmt.Errorf("move project %s: %w", mv.ID, err)
			}
			record("project.move", map[string]any{
				"id": mv.ID, "from": mv.From, "to": mv.To,
			})
		}
	}
	e.initial = e.doc.Clone()
	e.moves = nil
	e.rewrite = false
	e.dirty = false
	e.log.Info("portfolio saved", zap.String("login", login))
	if len(history) > 0 {
		return fmt.Errorf("%w: %s: %w", ErrHistoryNotRecorded, login, errors.Join(history...))
	}
	return nil
}

func (e *Editor) checkIndex(index int) error {
	if index < 0 || index >= len(e.doc.Projects) {
		return fmt.Errorf("%w: project %d (len %d)", ErrIndexOutOfRange, index, len(e.doc.Projects))
	}
	return nil
}

func normalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := map[string]bool{}
	for _, s := range skills {
		s = strings.TrimSpace(s)
		k := strings.ToLower(s)
		if s == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}
