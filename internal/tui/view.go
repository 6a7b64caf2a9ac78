package tui

import (
	"fmt"
	"strings"

	"portfolio-cli/internal/model"

	xansi "github.com/charmbracelet/x/ansi"
)

func (m appModel) View() string {
	header := m.viewHeader()
	if m.mode == modePreview {
		return header + "\n" + m.preview.View()
	}

	lines := []string{header, ""}
	rows := m.viewRows()
	lines = append(lines, rows...)
	for i := len(rows); i < m.visibleRows(); i++ {
		lines = append(lines, "")
	}
	lines = append(lines, "")
	if m.mode == modeInput {
		lines = append(lines, inputLabel(m.target)+": "+m.input.View())
	}
	lines = append(lines, m.viewStatus())
	lines = append(lines, m.help.View(m.keys))
	return strings.Join(lines, "\n")
}

func (m appModel) viewHeader() string {
	p := m.ed.Portfolio()
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = p.Login
	}
	title := fmt.Sprintf("Folio  %s (@%s)  %d projects", name, p.Login, len(p.Projects))
	out := styleHeader().Render(truncate(title, m.width))
	if m.ed.HasChanges() && xansi.StringWidth(title)+11 <= m.width {
		out += "  " + styleDirty().Render("[modified]")
	}
	return out
}

func (m appModel) viewStatus() string {
	if m.errMsg != "" {
		return styleError().Render(truncate("error: "+m.errMsg, m.width))
	}
	if s, ok := m.drag.Session(); ok {
		return styleMuted().Render(truncate(fmt.Sprintf("dragging %s: #%d → #%d  (esc cancels)", s.SourceID, s.SourceIndex+1, s.GhostIndex+1), m.width))
	}
	return styleMuted().Render(truncate(m.status, m.width))
}

// viewRows renders the visible slots. During a drag the dragged project is drawn at its
// ghost slot and displaced siblings at their offset slots.
func (m appModel) viewRows() []string {
	n := m.ed.Len()
	if n == 0 {
		return []string{styleMuted().Render("No projects. Press a to add one.")}
	}
	order := m.displayOrder()
	s, dragging := m.drag.Session()

	var out []string
	for slot := m.top; slot < n && slot < m.top+m.visibleRows(); slot++ {
		idx := order[slot]
		pr, _ := m.ed.Project(idx)
		switch {
		case dragging && idx == s.SourceIndex:
			out = append(out, styleDragged().Render(truncate(rowText("↕ ", slot, pr), m.width)))
		case !dragging && idx == m.cursor:
			out = append(out, styleSelected().Render(truncate(rowText("▸ ", slot, pr), m.width)))
		default:
			left := fmt.Sprintf("  %2d. %s", slot+1, pr.Name)
			line := left
			if f := rowFacts(pr); f != "" {
				line += "  " + styleMuted().Render(f)
			}
			out = append(out, truncate(line, m.width))
		}
	}
	return out
}

// displayOrder maps each slot to the index of the project drawn there.
func (m appModel) displayOrder() []int {
	n := m.ed.Len()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	s, ok := m.drag.Session()
	if !ok || len(m.drag.Offsets()) != n {
		return order
	}
	for k := 0; k < n; k++ {
		if k != s.SourceIndex {
			order[k+m.drag.Offset(k)] = k
		}
	}
	order[s.GhostIndex] = s.SourceIndex
	return order
}

func rowText(marker string, slot int, pr model.Project) string {
	s := fmt.Sprintf("%s%2d. %s", marker, slot+1, pr.Name)
	if f := rowFacts(pr); f != "" {
		s += "  " + f
	}
	return s
}

func rowFacts(pr model.Project) string {
	var parts []string
	if pr.Language != "" {
		parts = append(parts, pr.Language)
	}
	if pr.Stars > 0 {
		parts = append(parts, fmt.Sprintf("★ %d", pr.Stars))
	}
	if d := strings.TrimSpace(pr.Description); d != "" {
		parts = append(parts, strings.Join(strings.Fields(d), " "))
	}
	return strings.Join(parts, " · ")
}

func truncate(s string, w int) string {
	if w <= 0 || xansi.StringWidth(s) <= w {
		return s
	}
	return xansi.Truncate(s, w, "…")
}
