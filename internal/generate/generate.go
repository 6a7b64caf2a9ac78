// Package generate turns fetched GitHub data into an editable portfolio.
package generate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"portfolio-cli/internal/model"

	"go.uber.org/zap"
)

const maxSkills = 10

type Options struct {
	TopN   int
	Ranker Ranker
	Now    func() time.Time
	Logger *zap.Logger
}

// Generate builds a portfolio for u.
func Generate(u *model.GitHubUser, opts Options) (*model.Portfolio, error) {
	if u == nil || strings.TrimSpace(u.Login) == "" {
		return nil, fmt.Errorf("generate: missing github user")
	}
	if opts.TopN <= 0 {
		opts.TopN = 6
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.Ranker == nil {
		opts.Ranker = Heuristic{Now: opts.Now()}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Now()

	ranked := opts.Ranker.Rank(u)
	if len(ranked) > opts.TopN {
		ranked = ranked[:opts.TopN]
	}
	projects := make([]model.Project, 0, len(ranked))
	for _, sc := range ranked {
		projects = append(projects, model.Project{
			ID:          model.NewProjectID(),
			Name:        sc.Repo.Name,
			Description: sc.Repo.Description,
			URL:         sc.Repo.URL,
			Language:    sc.Repo.Language,
			Stars:       sc.Repo.Stars,
			Forks:       sc.Repo.Forks,
			Topics:      append([]string(nil), sc.Repo.Topics...),
			Score:       sc.Score,
			AddedAt:     now,
		})
	}

	skills := Skills(u, maxSkills)
	behavior := Classify(u)
	stats := Totals(u)
	name := strings.TrimSpace(u.Name)
	if name == "" {
		name = u.Login
	}

	p := &model.Portfolio{
		Login:    strings.ToLower(u.Login),
		Name:     name,
		Headline: headline(behavior, skills),
		Summary: fmt.Sprintf("%s is a developer who %s, with %d commits and %d followers.",
			name, strings.ToLower(behavior.Description), stats.TotalCommits, stats.Followers),
		Location: u.Location,
		Website:  u.WebsiteURL,
		Avatar:   u.AvatarURL,
		Skills:   skills,
		Projects: projects,
		Behavior: behavior,
		Stats:    stats,
		Meta:     model.Meta{GeneratedAt: now, Source: "github", Ranker: opts.Ranker.Name()},
	}
	log.Info("portfolio generated",
		zap.String("login", p.Login),
		zap.Int("projects", len(projects)),
		zap.Int("skills", len(skills)),
		zap.String("behavior", behavior.Type))
	return p, nil
}

// Regenerate refreshes the fetched parts of edited (stats, behavior when untouched,
// project numbers) while keeping the user's text, skills and project order.
func Regenerate(edited *model.Portfolio, u *model.GitHubUser, now time.Time) *model.Portfolio {
	out := edited.Clone()
	if u == nil {
		return out
	}
	out.Stats = Totals(u)
	if strings.TrimSpace(out.Behavior.Type) == "" {
		out.Behavior = Classify(u)
	}
	byURL := map[string]model.Repository{}
	for _, r := range u.Repositories {
		byURL[strings.ToLower(r.URL)] = r
	}
	for i := range out.Projects {
		pr := &out.Projects[i]
		if r, ok := byURL[strings.ToLower(pr.URL)]; ok {
			pr.Stars, pr.Forks = r.Stars, r.Forks
			if pr.Language == "" {
				pr.Language = r.Language
			}
		}
	}
	out.Meta.GeneratedAt = now
	return out
}

func headline(b model.BehaviorProfile, skills []string) string {
	focus := "multiple technologies"
	if len(skills) > 0 {
		n := len(skills)
		if n > 3 {
			n = 3
		}
		focus = strings.Join(skills[:n], ", ")
	}
	return fmt.Sprintf("%s specializing in %s", b.Type, focus)
}

// Skills ranks languages and topics by how much of the user's work uses them.
func Skills(u *model.GitHubUser, n int) []string {
	weight := map[string]float64{}
	display := map[string]string{}
	add := func(name string, w float64) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		k := strings.ToLower(name)
		if _, ok := display[k]; !ok {
			display[k] = name
		}
		weight[k] += w
	}
	for _, r := range u.Repositories {
		if r.IsFork {
			continue
		}
		add(r.Language, 1+0.1*float64(r.Stars))
		for _, t := range r.Topics {
			add(t, 0.5)
		}
	}
	for lang, repos := range u.Contributions.LanguagesByRepo {
		add(lang, float64(repos))
	}

	keys := make([]string, 0, len(weight))
	for k := range weight {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if weight[keys[i]] != weight[keys[j]] {
			return weight[keys[i]] > weight[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, display[k])
	}
	return out
}

// Totals sums stars and forks of the user's own public repositories.
func Totals(u *model.GitHubUser) model.Stats {
	st := model.Stats{
		TotalCommits: u.Contributions.TotalCommits,
		TotalPRs:     u.Contributions.TotalPullRequests,
		Followers:    u.Followers,
	}
	for _, r := range u.Repositories {
		if r.IsFork || r.IsPrivate {
			continue
		}
		st.TotalStars += r.Stars
		st.TotalForks += r.Forks
	}
	return st
}
