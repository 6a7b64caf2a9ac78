package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"portfolio-cli/internal/editor"
	"portfolio-cli/internal/model"
	"portfolio-cli/internal/publish"
	"portfolio-cli/internal/reorder"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type mode int

const (
	modeList mode = iota
	modeInput
	modePreview
)

type inputTarget int

const (
	inputAdd inputTarget = iota
	inputRename
	inputDescribe
	inputHeadline
)

const (
	// Rows start below the header line and one blank line.
	listTop        = 2
	reloadInterval = 2 * time.Second
)

type reloadTickMsg struct{}

func tickReload() tea.Cmd {
	return tea.Tick(reloadInterval, func(time.Time) tea.Msg { return reloadTickMsg{} })
}

type appModel struct {
	ctx  context.Context
	opts Options
	log  *zap.Logger

	ed     *editor.Editor
	drag   *reorder.Controller
	detach func()

	keys    keyMap
	help    help.Model
	input   textinput.Model
	preview viewport.Model

	width  int
	height int

	mode   mode
	target inputTarget
	cursor int
	top    int

	// Screen row of the mouse press that began the current drag.
	pressY int

	status      string
	errMsg      string
	confirmQuit bool
	lastMod     time.Time
}

func newAppModel(ctx context.Context, ed *editor.Editor, opts Options) appModel {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	in := textinput.New()
	in.Prompt = "> "
	in.CharLimit = 500

	m := appModel{
		ctx:     ctx,
		opts:    opts,
		log:     log,
		keys:    defaultKeyMap(),
		help:    help.New(),
		input:   in,
		preview: viewport.New(80, 20),
		width:   80,
		height:  24,
	}
	m.setEditor(ed)
	if opts.ModTime != nil {
		m.lastMod = opts.ModTime()
	}
	return m
}

func (m *appModel) setEditor(ed *editor.Editor) {
	if m.detach != nil {
		m.detach()
	}
	log := m.log
	m.ed = ed
	m.drag = reorder.New(ed, m.geometry(), ed.MoveProject,
		reorder.WithLogger(log),
		reorder.WithStepHook(func(ghost int) { log.Debug("drag step", zap.Int("ghost", ghost)) }),
	)
	m.detach = ed.Attach(m.drag)
	m.clampCursor()
}

// geometry places row i of the project list at screen row listTop+i-top, one cell tall.
func (m appModel) geometry() reorder.Geometry {
	return reorder.UniformRows{Origin: float64(listTop - m.top), Size: 1}
}

func (m appModel) Init() tea.Cmd {
	if m.opts.ModTime == nil {
		return nil
	}
	return tickReload()
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.preview.Width = msg.Width
		m.preview.Height = max(msg.Height-2, 1)
		if m.mode == modePreview {
			m.preview.SetContent(m.renderPreview())
		}
		m.ensureVisible()
		return m, nil

	case reloadTickMsg:
		// Pick up writes from other processes (CLI, server) unless there is local work.
		if !m.ed.HasChanges() && !m.drag.Dragging() && m.mode == modeList && m.storeChanged() {
			m.reload()
		}
		return m, tickReload()

	case tea.MouseMsg:
		return m.updateMouse(msg), nil

	case tea.KeyMsg:
		switch m.mode {
		case modeInput:
			return m.updateInput(msg)
		case modePreview:
			return m.updatePreview(msg)
		default:
			return m.updateList(msg)
		}
	}

	if m.mode == modeInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m appModel) updateMouse(msg tea.MouseMsg) appModel {
	if m.mode != modeList {
		return m
	}
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if !m.drag.Dragging() {
				m.scroll(-1)
			}
			return m
		case tea.MouseButtonWheelDown:
			if !m.drag.Dragging() {
				m.scroll(1)
			}
			return m
		case tea.MouseButtonLeft:
		default:
			return m
		}
		row, ok := m.rowAt(msg.Y)
		if !ok {
			return m
		}
		m.cursor = row
		m.confirmQuit = false
		m.drag.SetGeometry(m.geometry())
		if err := m.drag.Begin(row); err != nil {
			m.setErr(err)
			return m
		}
		m.pressY = msg.Y

	case tea.MouseActionMotion:
		if !m.drag.Dragging() {
			return m
		}
		if _, err := m.drag.Update(pointerDelta(m.pressY, msg.Y)); err != nil {
			m.dragFailed(err)
		}

	case tea.MouseActionRelease:
		if !m.drag.Dragging() {
			return m
		}
		// A release can land on a new row without a motion event before it.
		if _, err := m.drag.Update(pointerDelta(m.pressY, msg.Y)); err != nil {
			m.dragFailed(err)
			return m
		}
		res, err := m.drag.End()
		if err != nil {
			m.dragFailed(err)
			return m
		}
		if res.Moved {
			m.cursor = res.To
			m.ensureVisible()
			m.setStatus(fmt.Sprintf("moved %s to #%d", m.projectName(res.To), res.To+1))
		}
	}
	return m
}

// pointerDelta converts a row displacement into drag units. Terminals report whole
// cells, so entering a row counts as passing its midpoint.
func pointerDelta(pressY, y int) float64 {
	d := float64(y - pressY)
	switch {
	case d > 0:
		d += 0.5
	case d < 0:
		d -= 0.5
	}
	return d
}

func (m *appModel) dragFailed(err error) {
	if errors.Is(err, reorder.ErrStaleSession) {
		m.setStatus("list changed; drag cancelled")
		return
	}
	m.setErr(err)
}

func (m appModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		if m.ed.HasChanges() && !m.confirmQuit {
			m.confirmQuit = true
			m.setStatus("unsaved changes: press q again to discard, w to save")
			return m, nil
		}
		return m, tea.Quit
	}
	m.confirmQuit = false

	if key.Matches(msg, m.keys.Cancel) {
		if m.drag.Dragging() {
			m.drag.Cancel()
			m.setStatus("drag cancelled")
		}
		return m, nil
	}
	// The list is frozen while a drag is open.
	if m.drag.Dragging() {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.MoveUp):
		m.moveSelected(-1)
	case key.Matches(msg, m.keys.MoveDown):
		m.moveSelected(1)
	case key.Matches(msg, m.keys.Add):
		cmd := m.startInput(inputAdd, "")
		return m, cmd
	case key.Matches(msg, m.keys.Remove):
		if m.ed.Len() == 0 {
			break
		}
		name := m.projectName(m.cursor)
		if err := m.ed.RemoveProject(m.cursor); err != nil {
			m.setErr(err)
			break
		}
		m.clampCursor()
		m.setStatus("removed " + name)
	case key.Matches(msg, m.keys.Rename):
		if pr, ok := m.ed.Project(m.cursor); ok {
			cmd := m.startInput(inputRename, pr.Name)
			return m, cmd
		}
	case key.Matches(msg, m.keys.Describe):
		if pr, ok := m.ed.Project(m.cursor); ok {
			cmd := m.startInput(inputDescribe, pr.Description)
			return m, cmd
		}
	case key.Matches(msg, m.keys.Headline):
		cmd := m.startInput(inputHeadline, m.ed.Portfolio().Headline)
		return m, cmd
	case key.Matches(msg, m.keys.Save):
		m.save()
	case key.Matches(msg, m.keys.Revert):
		m.ed.Reset()
		m.clampCursor()
		m.setStatus("reverted to last save")
	case key.Matches(msg, m.keys.Reload):
		if m.ed.HasChanges() {
			m.setStatus("unsaved changes: save (w) or revert (u) before reloading")
			break
		}
		m.reload()
	case key.Matches(msg, m.keys.Preview):
		m.mode = modePreview
		m.preview.SetContent(m.renderPreview())
		m.preview.GotoTop()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.ensureVisible()
	}
	return m, nil
}

func (m *appModel) startInput(t inputTarget, value string) tea.Cmd {
	m.mode = modeInput
	m.target = t
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Placeholder = inputLabel(t)
	return m.input.Focus()
}

func inputLabel(t inputTarget) string {
	switch t {
	case inputAdd:
		return "new project name"
	case inputRename:
		return "project name"
	case inputDescribe:
		return "project description"
	case inputHeadline:
		return "headline"
	default:
		return ""
	}
}

func (m appModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.input.Blur()
		return m, nil
	case "enter":
		m.mode = modeList
		m.input.Blur()
		m.applyInput(strings.TrimSpace(m.input.Value()))
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *appModel) applyInput(v string) {
	var err error
	switch m.target {
	case inputAdd:
		if v == "" {
			return
		}
		m.ed.AddProject(model.Project{Name: v})
		m.cursor = m.ed.Len() - 1
		m.ensureVisible()
		m.setStatus("added " + v)
		return
	case inputRename:
		if v == "" {
			return
		}
		err = m.ed.UpdateProject(m.cursor, "name", v)
	case inputDescribe:
		err = m.ed.UpdateProject(m.cursor, "description", v)
	case inputHeadline:
		err = m.ed.SetField("headline", v)
	}
	if err != nil {
		m.setErr(err)
		return
	}
	m.setStatus("updated")
}

func (m appModel) updatePreview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Preview), msg.String() == "q":
		m.mode = modeList
		return m, nil
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.preview, cmd = m.preview.Update(msg)
	return m, cmd
}

func (m appModel) renderPreview() string {
	return publish.RenderTerminal(m.ed.Portfolio(), max(m.width-2, 20), m.opts.Style)
}

func (m *appModel) moveCursor(d int) {
	m.cursor += d
	m.clampCursor()
}

func (m *appModel) moveSelected(d int) {
	to := m.cursor + d
	if to < 0 || to >= m.ed.Len() {
		return
	}
	if err := m.ed.MoveProject(m.cursor, to); err != nil {
		m.setErr(err)
		return
	}
	m.cursor = to
	m.ensureVisible()
	m.setStatus(fmt.Sprintf("moved %s to #%d", m.projectName(to), to+1))
}

func (m *appModel) save() {
	if err := m.ed.Save(m.ctx); err != nil {
		if m.opts.ModTime != nil && errors.Is(err, editor.ErrHistoryNotRecorded) {
			m.lastMod = m.opts.ModTime()
		}
		m.setErr(err)
		return
	}
	if m.opts.ModTime != nil {
		m.lastMod = m.opts.ModTime()
	}
	m.setStatus("saved")
}

func (m *appModel) reload() {
	if m.opts.Open == nil {
		return
	}
	ed, err := m.opts.Open(m.ctx)
	if err != nil {
		m.setErr(err)
		return
	}
	m.setEditor(ed)
	if m.opts.ModTime != nil {
		m.lastMod = m.opts.ModTime()
	}
	m.setStatus("reloaded")
}

func (m *appModel) storeChanged() bool {
	if m.opts.ModTime == nil {
		return false
	}
	mt := m.opts.ModTime()
	if mt.After(m.lastMod) {
		m.lastMod = mt
		return true
	}
	return false
}

func (m *appModel) setStatus(s string) {
	m.status = s
	m.errMsg = ""
}

func (m *appModel) setErr(err error) {
	m.errMsg = err.Error()
	m.log.Warn("editor error", zap.Error(err))
}

func (m appModel) projectName(i int) string {
	pr, ok := m.ed.Project(i)
	if !ok {
		return ""
	}
	return pr.Name
}

// rowAt maps a screen row to a project index.
func (m appModel) rowAt(y int) (int, bool) {
	if y < listTop || y >= listTop+m.visibleRows() {
		return 0, false
	}
	i := y - listTop + m.top
	if i < 0 || i >= m.ed.Len() {
		return 0, false
	}
	return i, true
}

func (m appModel) footerLines() int {
	n := 2 // blank + status
	if m.mode == modeInput {
		n++
	}
	if m.help.ShowAll {
		return n + len(m.keys.FullHelp()[1])
	}
	return n + 1
}

func (m appModel) visibleRows() int {
	return max(m.height-listTop-m.footerLines(), 1)
}

func (m *appModel) clampCursor() {
	if m.cursor >= m.ed.Len() {
		m.cursor = m.ed.Len() - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureVisible()
}

func (m *appModel) ensureVisible() {
	vis := m.visibleRows()
	if m.cursor < m.top {
		m.top = m.cursor
	}
	if m.cursor >= m.top+vis {
		m.top = m.cursor - vis + 1
	}
	if maxTop := max(m.ed.Len()-vis, 0); m.top > maxTop {
		m.top = maxTop
	}
	if m.top < 0 {
		m.top = 0
	}
}

func (m *appModel) scroll(d int) {
	m.top += d
	if maxTop := max(m.ed.Len()-m.visibleRows(), 0); m.top > maxTop {
		m.top = maxTop
	}
	if m.top < 0 {
		m.top = 0
	}
}
