package editor

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"portfolio-cli/internal/model"
	"portfolio-cli/internal/reorder"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSaver struct {
	saved    []*model.Portfolio
	moves    []string
	events   []string
	eventErr error
}

func (f *fakeSaver) SavePortfolio(ctx context.Context, p *model.Portfolio) error {
	for i := range p.Projects {
		p.Projects[i].Rank = string(rune('b' + i))
	}
	f.saved = append(f.saved, p.Clone())
	return nil
}

func (f *fakeSaver) MoveProject(ctx context.Context, login, projectID string, insertAt int) error {
	f.moves = append(f.moves, projectID)
	return nil
}

func (f *fakeSaver) AppendEvent(ctx context.Context, login, typ string, payload map[string]any) error {
	if f.eventErr != nil {
		return f.eventErr
	}
	f.events = append(f.events, typ)
	return nil
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

func samplePortfolio() *model.Portfolio {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := &model.Portfolio{Login: "octo", Name: "Octo Cat", Skills: []string{"Go"}}
	for i, name := range []string{"A", "B", "C", "D", "E"} {
		p.Projects = append(p.Projects, model.Project{
			ID:      "proj-" + name,
			Name:    name,
			Rank:    string(rune('c' + i)),
			AddedAt: now,
		})
	}
	return p
}

func projectNames(e *Editor) []string {
	var out []string
	for _, pr := range e.Portfolio().Projects {
		out = append(out, pr.Name)
	}
	return out
}

func TestMoveProject_SpliceSemantics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to int
		want     []string
	}{
		{0, 2, []string{"B", "C", "A", "D", "E"}},
		{4, 0, []string{"E", "A", "B", "C", "D"}},
		{1, 4, []string{"A", "C", "D", "E", "B"}},
		{3, 3, []string{"A", "B", "C", "D", "E"}},
	}
	for _, tt := range tests {
		e := New(samplePortfolio())
		if err := e.MoveProject(tt.from, tt.to); err != nil {
			t.Fatalf("move(%d,%d): %v", tt.from, tt.to, err)
		}
		if diff := cmp.Diff(tt.want, projectNames(e)); diff != "" {
			t.Fatalf("move(%d,%d) mismatch (-want +got):\n%s", tt.from, tt.to, diff)
		}
	}

	e := New(samplePortfolio())
	if err := e.MoveProject(0, 5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	if e.HasChanges() {
		t.Fatalf("rejected move must not mark changes")
	}
}

func TestMoveProject_IsPermutation(t *testing.T) {
	t.Parallel()

	for from := 0; from < 5; from++ {
		for to := 0; to < 5; to++ {
			e := New(samplePortfolio())
			if err := e.MoveProject(from, to); err != nil {
				t.Fatalf("move: %v", err)
			}
			got := projectNames(e)
			sort.Strings(got)
			if diff := cmp.Diff([]string{"A", "B", "C", "D", "E"}, got); diff != "" {
				t.Fatalf("move(%d,%d) not a permutation:\n%s", from, to, diff)
			}
		}
	}
}

func TestStructuralChangesInvalidateControllers(t *testing.T) {
	t.Parallel()

	e := New(samplePortfolio())
	inv := &countingInvalidator{}
	detach := e.Attach(inv)

	_ = e.MoveProject(0, 1)
	_ = e.SetField("headline", "Builder")
	if inv.n != 0 {
		t.Fatalf("moves and field edits must not invalidate; got %d", inv.n)
	}
	e.AddProject(model.Project{Name: "F"})
	_ = e.RemoveProject(0)
	e.Reset()
	if inv.n != 3 {
		t.Fatalf("expected 3 invalidations, got %d", inv.n)
	}
	detach()
	e.AddProject(model.Project{Name: "G"})
	if inv.n != 3 {
		t.Fatalf("detached invalidator still notified")
	}
}

func TestDragThroughEditor(t *testing.T) {
	t.Parallel()

	e := New(samplePortfolio())
	c := reorder.New(e, reorder.UniformRows{Size: 3}, e.MoveProject)
	e.Attach(c)

	if err := c.Begin(0); err != nil {
		t.Fatalf("begin: %v", err)
	}
	// Row 0 rests at 1.5; C (row 2) rests at 7.5.
	if _, err := c.Update(6.5); err != nil {
		t.Fatalf("update: %v", err)
	}
	res, err := c.End()
	if err != nil || !res.Moved {
		t.Fatalf("expected a move, got %+v, %v", res, err)
	}
	if diff := cmp.Diff([]string{"B", "C", "A", "D", "E"}, projectNames(e)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	// Removing a project mid-drag cancels through the attached invalidator.
	if err := c.Begin(1); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := c.Update(10); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := e.RemoveProject(4); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if c.Dragging() {
		t.Fatalf("expected drag cancelled by removal")
	}
	if res, err := c.End(); err != nil || res.Moved {
		t.Fatalf("expected no-op end, got %+v, %v", res, err)
	}
	if diff := cmp.Diff([]string{"B", "C", "A", "D"}, projectNames(e)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSave_MovesOnlyUseRankUpdates(t *testing.T) {
	t.Parallel()

	fs := &fakeSaver{}
	e := New(samplePortfolio(), WithSaver(fs))
	_ = e.MoveProject(0, 2)
	_ = e.MoveProject(4, 0)
	if err := e.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(fs.saved) != 0 {
		t.Fatalf("expected no full save, got %d", len(fs.saved))
	}
	if diff := cmp.Diff([]string{"proj-A", "proj-E"}, fs.moves); diff != "" {
		t.Fatalf("moves mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"project.move", "project.move"}, fs.events); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if e.HasChanges() {
		t.Fatalf("expected clean editor after save")
	}
}

func TestSave_EditsRewritePortfolio(t *testing.T) {
	t.Parallel()

	fs := &fakeSaver{}
	e := New(samplePortfolio(), WithSaver(fs))
	_ = e.MoveProject(0, 1)
	if err := e.UpdateProject(0, "description", "first"); err != nil {
		t.Fatalf("update project: %v", err)
	}
	if err := e.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(fs.saved) != 1 || len(fs.moves) != 0 {
		t.Fatalf("expected one full save and no rank moves; saved=%d moves=%v", len(fs.saved), fs.moves)
	}
	if got := fs.saved[0].Projects[0]; got.Name != "B" || got.Description != "first" {
		t.Fatalf("unexpected first project: %+v", got)
	}
	// Ranks assigned by the saver are kept in the working copy.
	if r := e.Portfolio().Projects[0].Rank; r != "b" {
		t.Fatalf("expected rank from saver, got %q", r)
	}
	// Nothing left to write.
	if err := e.Save(context.Background()); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if len(fs.saved) != 1 {
		t.Fatalf("expected clean editor to skip saving")
	}
}

func TestNewUnrankedPortfolioNeedsSave(t *testing.T) {
	t.Parallel()

	p := samplePortfolio()
	p.Projects[2].Rank = ""
	fs := &fakeSaver{}
	e := New(p, WithSaver(fs))
	if err := e.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(fs.saved) != 1 {
		t.Fatalf("expected unranked portfolio to be written")
	}
}

func TestResetKeepsUnrankedPortfolioSaveable(t *testing.T) {
	t.Parallel()

	p := samplePortfolio()
	for i := range p.Projects {
		p.Projects[i].Rank = ""
	}
	fs := &fakeSaver{}
	e := New(p, WithSaver(fs))
	if err := e.MoveProject(0, 1); err != nil {
		t.Fatalf("move: %v", err)
	}
	e.Reset()
	if err := e.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(fs.saved) != 1 || len(fs.moves) != 0 {
		t.Fatalf("expected a full write after reset, saved=%d moves=%d", len(fs.saved), len(fs.moves))
	}
	if diff := cmp.Diff([]string{"A", "B", "C", "D", "E"}, projectNames(e)); diff != "" {
		t.Fatalf("order after reset (-want +got):\n%s", diff)
	}

	// Once ranked, a reset has nothing left to write.
	e.Reset()
	if err := e.Save(context.Background()); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if len(fs.saved) != 1 {
		t.Fatalf("unexpected rewrite after reset of a ranked portfolio")
	}
}

func TestSaveReportsHistoryFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		edit      func(e *Editor) error
		wantSaved int
		wantMoves int
	}{
		{
			name:      "moves only",
			edit:      func(e *Editor) error { return e.MoveProject(0, 2) },
			wantMoves: 1,
		},
		{
			name:      "rewrite",
			edit:      func(e *Editor) error { return e.SetField("headline", "Ships Go") },
			wantSaved: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.WarnLevel)
			historyErr := errors.New("events table locked")
			fs := &fakeSaver{eventErr: historyErr}
			e := New(samplePortfolio(), WithSaver(fs), WithLogger(zap.New(core)))
			if err := tt.edit(e); err != nil {
				t.Fatalf("edit: %v", err)
			}

			err := e.Save(context.Background())
			if !errors.Is(err, ErrHistoryNotRecorded) || !errors.Is(err, historyErr) {
				t.Fatalf("expected history error, got %v", err)
			}
			if len(fs.saved) != tt.wantSaved || len(fs.moves) != tt.wantMoves {
				t.Fatalf("saved=%d moves=%d, want %d/%d", len(fs.saved), len(fs.moves), tt.wantSaved, tt.wantMoves)
			}
			if e.HasChanges() {
				t.Fatalf("persisted changes should not stay dirty")
			}
			if got := logs.FilterMessage("history event not recorded").Len(); got != 1 {
				t.Fatalf("expected 1 warning, got %d", got)
			}

			// The document was written, so a retry has nothing to do.
			if err := e.Save(context.Background()); err != nil {
				t.Fatalf("retry: %v", err)
			}
		})
	}
}

func TestFieldsSkillsAndReset(t *testing.T) {
	t.Parallel()

	e := New(samplePortfolio())
	if err := e.SetField("Summary", "hello"); err != nil {
		t.Fatalf("set field: %v", err)
	}
	var ufe UnknownFieldError
	if err := e.SetField("shoe size", "44"); !errors.As(err, &ufe) {
		t.Fatalf("expected UnknownFieldError, got %v", err)
	}
	if err := e.UpdateProject(9, "name", "x"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	if !e.AddSkill("Rust") || e.AddSkill("rust") || e.AddSkill("  ") {
		t.Fatalf("unexpected AddSkill results")
	}
	if err := e.RemoveSkill(0); err != nil {
		t.Fatalf("remove skill: %v", err)
	}
	e.SetSkills([]string{"Go", " go ", "", "SQL"})
	if diff := cmp.Diff([]string{"Go", "SQL"}, e.Portfolio().Skills); diff != "" {
		t.Fatalf("skills mismatch (-want +got):\n%s", diff)
	}
	e.SetBehavior(model.BehaviorProfile{Type: "Builder", Traits: []string{"ships"}})

	rev := e.Revision()
	if !e.HasChanges() || rev == 0 {
		t.Fatalf("expected changes and a revision bump")
	}
	e.Reset()
	p := e.Portfolio()
	if e.HasChanges() || p.Summary != "" || p.Behavior.Type != "" {
		t.Fatalf("reset did not restore the initial document: %+v", p)
	}
	if e.Revision() <= rev {
		t.Fatalf("reset must bump the revision")
	}
}

func TestAddProjectAssignsFreshID(t *testing.T) {
	t.Parallel()

	e := New(samplePortfolio())
	id := e.AddProject(model.Project{ID: "proj-A", Name: "dup"})
	if id == "proj-A" || !model.IsProjectID(id) {
		t.Fatalf("expected a fresh project id, got %q", id)
	}
	if e.Len() != 6 || e.IDAt(5) != id {
		t.Fatalf("expected new project appended")
	}
	if pr, ok := e.Project(5); !ok || pr.AddedAt.IsZero() || pr.Rank != "" {
		t.Fatalf("unexpected added project: %+v", pr)
	}
}

func TestReplaceKeepsLoginAndDedupesIDs(t *testing.T) {
	t.Parallel()

	e := New(samplePortfolio())
	edited := samplePortfolio()
	edited.Login = "someone-else"
	edited.Projects[1].ID = "proj-A"
	edited.Projects[2].ID = ""
	e.Replace(edited)

	p := e.Portfolio()
	if p.Login != "octo" {
		t.Fatalf("login must not change, got %q", p.Login)
	}
	seen := map[string]bool{}
	for _, pr := range p.Projects {
		if pr.ID == "" || seen[pr.ID] {
			t.Fatalf("duplicate or empty id after replace: %q", pr.ID)
		}
		seen[pr.ID] = true
	}
}
