package publish

import (
	"bytes"
	"fmt"
	"strings"

	"portfolio-cli/internal/model"
)

// RenderMarkdown renders p as a Markdown document. Projects appear in portfolio order.
func RenderMarkdown(p *model.Portfolio) string {
	if p == nil {
		return ""
	}
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = p.Login
	}
	writeLn("# " + name)
	writeLn("")
	if h := strings.TrimSpace(p.Headline); h != "" {
		writeLn("_" + h + "_")
		writeLn("")
	}
	var meta []string
	if l := strings.TrimSpace(p.Location); l != "" {
		meta = append(meta, l)
	}
	if w := strings.TrimSpace(p.Website); w != "" {
		meta = append(meta, w)
	}
	if p.Login != "" {
		meta = append(meta, "https://github.com/"+p.Login)
	}
	if len(meta) > 0 {
		writeLn(strings.Join(meta, " · "))
		writeLn("")
	}
	if s := strings.TrimSpace(p.Summary); s != "" {
		writeLn(s)
		writeLn("")
	}

	if len(p.Skills) > 0 {
		writeLn("## Skills")
		writeLn("")
		writeLn(strings.Join(p.Skills, ", "))
		writeLn("")
	}

	if b := p.Behavior; strings.TrimSpace(b.Type) != "" {
		writeLn("## Working style: " + b.Type)
		writeLn("")
		if d := strings.TrimSpace(b.Description); d != "" {
			writeLn(d)
			writeLn("")
		}
		for _, t := range b.Traits {
			writeLn("- " + t)
		}
		if len(b.Traits) > 0 {
			writeLn("")
		}
	}

	if len(p.Projects) > 0 {
		writeLn("## Top projects")
		writeLn("")
		for i, pr := range p.Projects {
			title := strings.TrimSpace(pr.Name)
			if u := strings.TrimSpace(pr.URL); u != "" {
				title = "[" + title + "](" + u + ")"
			}
			writeLn(fmt.Sprintf("### %d. %s", i+1, title))
			writeLn("")
			if d := strings.TrimSpace(pr.Description); d != "" {
				writeLn(d)
				writeLn("")
			}
			var facts []string
			if pr.Language != "" {
				facts = append(facts, pr.Language)
			}
			facts = append(facts, fmt.Sprintf("★ %d", pr.Stars), fmt.Sprintf("forks %d", pr.Forks))
			if len(pr.Topics) > 0 {
				facts = append(facts, strings.Join(pr.Topics, ", "))
			}
			writeLn(strings.Join(facts, " · "))
			writeLn("")
		}
	}

	st := p.Stats
	writeLn("## Totals")
	writeLn("")
	writeLn(fmt.Sprintf("- Stars: %d", st.TotalStars))
	writeLn(fmt.Sprintf("- Forks: %d", st.TotalForks))
	writeLn(fmt.Sprintf("- Commits: %d", st.TotalCommits))
	writeLn(fmt.Sprintf("- Pull requests: %d", st.TotalPRs))
	writeLn(fmt.Sprintf("- Followers: %d", st.Followers))

	return buf.String()
}
