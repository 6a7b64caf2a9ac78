package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"portfolio-cli/internal/github"
	"portfolio-cli/internal/model"

	"github.com/google/go-cmp/cmp"
)

type fakeFetcher struct{}

func (fakeFetcher) FetchUser(ctx context.Context, input string) (*model.GitHubUser, error) {
	login := github.ExtractUsername(input)
	if login != "octo" {
		return nil, github.UserNotFoundError{Login: login}
	}
	pushed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &model.GitHubUser{
		Login: "octo",
		Name:  "Octo Cat",
		Repositories: []model.Repository{
			{ID: "r1", Name: "alpha", URL: "https://github.com/octo/alpha", Language: "Go", Stars: 50, PushedAt: pushed},
			{ID: "r2", Name: "bravo", URL: "https://github.com/octo/bravo", Language: "Go", Stars: 20, PushedAt: pushed},
			{ID: "r3", Name: "charlie", URL: "https://github.com/octo/charlie", Language: "Rust", Stars: 5, PushedAt: pushed},
			{ID: "r4", Name: "delta", URL: "https://github.com/octo/delta", Language: "Python", Stars: 1, PushedAt: pushed},
		},
	}, nil
}

type cliEnv struct {
	t   *testing.T
	dir string
	cfg string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	root := t.TempDir()
	return &cliEnv{t: t, dir: filepath.Join(root, ".folio"), cfg: filepath.Join(root, "config")}
}

func (e *cliEnv) run(args ...string) (stdout, stderr []byte, err error) {
	e.t.Helper()
	app := &App{
		newFetcher: func(string) Fetcher { return fakeFetcher{} },
		now:        func() time.Time { return time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC) },
	}
	cmd := newRootCmd(app)
	var outBuf, errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(append([]string{"--dir", e.dir, "--config", e.cfg, "--log-level", "error"}, args...))
	err = cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// mustRun runs a command and decodes the data field of its JSON envelope into out.
func (e *cliEnv) mustRun(out any, args ...string) {
	e.t.Helper()
	stdout, stderr, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("folio %v: %v\nstderr:\n%s", args, err, stderr)
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(stdout, &env); err != nil {
		e.t.Fatalf("folio %v: decode envelope: %v\nstdout:\n%s", args, err, stdout)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			e.t.Fatalf("folio %v: decode data: %v\n%s", args, err, env.Data)
		}
	}
}

func (e *cliEnv) names(login string) []string {
	e.t.Helper()
	var rows []projectRow
	e.mustRun(&rows, "projects", "list", login)
	var out []string
	for i, r := range rows {
		if r.Position != i+1 {
			e.t.Fatalf("row %d has position %d", i, r.Position)
		}
		out = append(out, r.Name)
	}
	return out
}

func (e *cliEnv) ids(login string) []string {
	e.t.Helper()
	var rows []projectRow
	e.mustRun(&rows, "projects", "list", login)
	var out []string
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func TestGenerateMoveAndHistory(t *testing.T) {
	t.Parallel()
	e := newCLIEnv(t)

	var p model.Portfolio
	e.mustRun(&p, "generate", "https://github.com/octo")
	if p.Login != "octo" || len(p.Projects) != 4 {
		t.Fatalf("generated %q with %d projects", p.Login, len(p.Projects))
	}

	before := e.names("octo")
	var moved struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	e.mustRun(&moved, "projects", "move", "octo", "3", "1")
	if moved.From != 3 || moved.To != 1 {
		t.Fatalf("move reported %+v", moved)
	}
	want := []string{before[2], before[0], before[1], before[3]}
	if diff := cmp.Diff(want, e.names("octo")); diff != "" {
		t.Fatalf("order after move (-want +got):\n%s", diff)
	}

	var list []map[string]any
	e.mustRun(&list, "list")
	if len(list) != 1 || list[0]["login"] != "octo" {
		t.Fatalf("list = %v", list)
	}

	var evs []model.Event
	e.mustRun(&evs, "history", "octo")
	if len(evs) != 2 || evs[0].Type != "project.move" || evs[1].Type != "portfolio.generate" {
		t.Fatalf("history = %+v", evs)
	}
}

func TestMoveRelative(t *testing.T) {
	t.Parallel()
	e := newCLIEnv(t)
	e.mustRun(nil, "generate", "octo")

	ids := e.ids("octo")
	before := e.names("octo")

	e.mustRun(nil, "projects", "move", "octo", ids[0], "--after", ids[2])
	want := []string{before[1], before[2], before[0], before[3]}
	if diff := cmp.Diff(want, e.names("octo")); diff != "" {
		t.Fatalf("--after (-want +got):\n%s", diff)
	}

	e.mustRun(nil, "projects", "move", "octo", ids[3], "--before", "1")
	want = []string{before[3], before[1], before[2], before[0]}
	if diff := cmp.Diff(want, e.names("octo")); diff != "" {
		t.Fatalf("--before (-want +got):\n%s", diff)
	}

	for _, args := range [][]string{
		{"projects", "move", "octo", "1"},
		{"projects", "move", "octo", "1", "2", "--after", "3"},
		{"projects", "move", "octo", "1", "--before", "2", "--after", "3"},
		{"projects", "move", "octo", "2", "--before", "2"},
		{"projects", "move", "octo", "1", "9"},
		{"projects", "move", "octo", "proj-missing", "1"},
	} {
		if _, _, err := e.run(args...); err == nil {
			t.Fatalf("folio %v: expected an error", args)
		}
	}
	if diff := cmp.Diff(want, e.names("octo")); diff != "" {
		t.Fatalf("failed moves changed the order (-want +got):\n%s", diff)
	}
}

func TestMoveTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		from, anchor int
		after        bool
		want         int
	}{
		{name: "before later", from: 0, anchor: 2, want: 1},
		{name: "before earlier", from: 3, anchor: 1, want: 1},
		{name: "after later", from: 0, anchor: 2, after: true, want: 2},
		{name: "after earlier", from: 3, anchor: 0, after: true, want: 1},
		{name: "after last", from: 0, anchor: 3, after: true, want: 3},
		{name: "before first", from: 2, anchor: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := moveTarget(tt.from, tt.anchor, tt.after); got != tt.want {
				t.Fatalf("moveTarget(%d, %d, %v) = %d, want %d", tt.from, tt.anchor, tt.after, got, tt.want)
			}
		})
	}
}

func TestProjectSkillAndProfileEdits(t *testing.T) {
	t.Parallel()
	e := newCLIEnv(t)
	e.mustRun(nil, "generate", "octo")

	var added projectRow
	e.mustRun(&added, "projects", "add", "octo", "--name", "side-quest", "--language", "Zig", "--topic", "cli", "--topic", "tui")
	if added.Position != 5 || !model.IsProjectID(added.ID) || len(added.Topics) != 2 {
		t.Fatalf("added = %+v", added)
	}

	var shown struct {
		Login    string        `json:"login"`
		Position int           `json:"position"`
		Project  model.Project `json:"project"`
	}
	e.mustRun(&shown, "projects", "show", added.ID)
	if shown.Login != "octo" || shown.Position != 5 || shown.Project.Name != "side-quest" {
		t.Fatalf("show = %+v", shown)
	}

	var set model.Project
	e.mustRun(&set, "projects", "set", "octo", added.ID, "description", "A weekend build")
	if set.Description != "A weekend build" {
		t.Fatalf("set = %+v", set)
	}
	if _, _, err := e.run("projects", "set", "octo", "1", "stars", "9"); err == nil {
		t.Fatalf("expected unknown field error")
	}

	e.mustRun(nil, "projects", "remove", "octo", added.ID)
	if _, _, err := e.run("projects", "show", added.ID); err == nil {
		t.Fatalf("removed project still found")
	}

	var skills []string
	e.mustRun(&skills, "skills", "add", "octo", "Kubernetes")
	e.mustRun(&skills, "skills", "add", "octo", "kubernetes")
	n := 0
	for _, s := range skills {
		if strings.EqualFold(s, "kubernetes") {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("skills = %v", skills)
	}
	e.mustRun(&skills, "skills", "remove", "octo", "KUBERNETES")
	for _, s := range skills {
		if strings.EqualFold(s, "kubernetes") {
			t.Fatalf("skill not removed: %v", skills)
		}
	}

	var p model.Portfolio
	e.mustRun(&p, "profile", "set", "octo", "headline", "Builds developer tools")
	if p.Headline != "Builds developer tools" {
		t.Fatalf("headline = %q", p.Headline)
	}
	if _, _, err := e.run("profile", "set", "octo", "shoe-size", "44"); err == nil {
		t.Fatalf("expected unknown field error")
	}

	e.mustRun(&p, "regenerate", "octo")
	if p.Headline != "Builds developer tools" || len(p.Projects) != 4 {
		t.Fatalf("regenerate lost edits: %+v", p)
	}
}

func TestExportAndShow(t *testing.T) {
	t.Parallel()
	e := newCLIEnv(t)
	e.mustRun(nil, "generate", "octo")
	out := filepath.Join(t.TempDir(), "out")

	var ex struct {
		MarkdownPath string `json:"markdown_path"`
		HTMLPath     string `json:"html_path"`
		PDFPath      string `json:"pdf_path"`
	}
	e.mustRun(&ex, "export", "octo", "--to", out)
	if ex.MarkdownPath == "" || ex.HTMLPath == "" || ex.PDFPath != "" {
		t.Fatalf("exports = %+v", ex)
	}
	md, err := os.ReadFile(ex.MarkdownPath)
	if err != nil {
		t.Fatalf("read markdown: %v", err)
	}
	if !strings.HasPrefix(string(md), "# Octo Cat") {
		t.Fatalf("markdown starts with %q", strings.SplitN(string(md), "\n", 2)[0])
	}
	if filepath.Base(ex.MarkdownPath) != "portfolio_octo_20260203_040506.md" {
		t.Fatalf("markdown name = %s", filepath.Base(ex.MarkdownPath))
	}

	if _, _, err := e.run("export", "octo", "--to", out, "--md"); err == nil {
		t.Fatalf("expected collision error without --overwrite")
	}
	e.mustRun(nil, "export", "octo", "--to", out, "--md", "--overwrite")

	stdout, stderr, err := e.run("show", "octo", "--render", "--style", "notty", "--width", "60")
	if err != nil {
		t.Fatalf("show --render: %v\n%s", err, stderr)
	}
	if !strings.Contains(string(stdout), "Octo Cat") {
		t.Fatalf("rendered output missing name:\n%s", stdout)
	}

	stdout, _, err = e.run("--format", "yaml", "show", "octo")
	if err != nil {
		t.Fatalf("show yaml: %v", err)
	}
	if !strings.Contains(string(stdout), "login: octo") {
		t.Fatalf("yaml output:\n%s", stdout)
	}
}

func TestBackupRestore(t *testing.T) {
	t.Parallel()
	e := newCLIEnv(t)
	e.mustRun(nil, "generate", "octo")
	e.mustRun(nil, "projects", "move", "octo", "4", "1")
	want := e.names("octo")

	path := filepath.Join(t.TempDir(), "folio.jsonl")
	var st struct {
		Path       string `json:"path"`
		Portfolios int    `json:"portfolios"`
		Events     int    `json:"events"`
	}
	e.mustRun(&st, "backup", "--to", path)
	if st.Path != path || st.Portfolios != 1 || st.Events != 2 {
		t.Fatalf("backup = %+v", st)
	}

	other := newCLIEnv(t)
	other.mustRun(nil, "restore", path)
	if diff := cmp.Diff(want, other.names("octo")); diff != "" {
		t.Fatalf("restored order (-want +got):\n%s", diff)
	}
}

func TestErrors(t *testing.T) {
	t.Parallel()
	e := newCLIEnv(t)

	_, stderr, err := e.run("show", "nobody")
	if err == nil || !strings.Contains(string(stderr), "not found") {
		t.Fatalf("show missing: err=%v stderr=%s", err, stderr)
	}
	_, stderr, err = e.run("generate", "someone-else")
	if err == nil || !strings.Contains(string(stderr), "someone-else") {
		t.Fatalf("generate unknown user: err=%v stderr=%s", err, stderr)
	}
	if _, _, err := e.run("history", "nobody"); err != nil {
		t.Fatalf("history of an unknown login should be empty: %v", err)
	}
	if _, _, err := e.run("--log-level", "loud", "list"); err == nil {
		t.Fatalf("expected invalid log level error")
	}
}

func TestDocs(t *testing.T) {
	t.Parallel()
	e := newCLIEnv(t)

	var list struct {
		Topics []string `json:"topics"`
	}
	e.mustRun(&list, "docs")
	if len(list.Topics) == 0 {
		t.Fatalf("no docs topics")
	}
	stdout, _, err := e.run("docs", "reorder", "--raw")
	if err != nil || !strings.HasPrefix(string(stdout), "# Reordering projects") {
		t.Fatalf("docs --raw: err=%v\n%s", err, stdout)
	}
	if _, _, err := e.run("docs", "nope"); err == nil {
		t.Fatalf("expected unknown topic error")
	}
}
