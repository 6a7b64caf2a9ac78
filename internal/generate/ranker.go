package generate

import (
	"math"
	"sort"
	"strings"
	"time"

	"portfolio-cli/internal/model"
)

// Scored is a repository with the score a Ranker gave it.
type Scored struct {
	Repo  model.Repository
	Score float64
}

// Ranker orders a user's repositories, best first. Implementations must be deterministic
// for a given input.
type Ranker interface {
	Name() string
	Rank(u *model.GitHubUser) []Scored
}

// Heuristic scores repositories from popularity, recent activity and the owner's own
// signals (pins, commits).
type Heuristic struct {
	MinStars     int
	IncludeForks bool
	// Now anchors recency; zero means time.Now.
	Now time.Time
}

func (h Heuristic) Name() string { return "heuristic-v1" }

func (h Heuristic) Rank(u *model.GitHubUser) []Scored {
	if u == nil {
		return nil
	}
	now := h.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	pinned := map[string]bool{}
	for _, p := range u.Pinned {
		pinned[strings.ToLower(p)] = true
	}

	out := make([]Scored, 0, len(u.Repositories))
	for _, r := range u.Repositories {
		if r.IsPrivate || (r.IsFork && !h.IncludeForks) || r.Stars < h.MinStars {
			continue
		}
		out = append(out, Scored{Repo: r, Score: h.score(r, u, pinned, now)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Repo.Stars != out[j].Repo.Stars {
			return out[i].Repo.Stars > out[j].Repo.Stars
		}
		return out[i].Repo.NameWithOwner < out[j].Repo.NameWithOwner
	})
	return out
}

func (h Heuristic) score(r model.Repository, u *model.GitHubUser, pinned map[string]bool, now time.Time) float64 {
	s := 3*math.Log1p(float64(r.Stars)) +
		2*math.Log1p(float64(r.Forks)) +
		math.Log1p(float64(r.Watchers))

	if commits := u.Contributions.CommitsByRepo[r.NameWithOwner]; commits > 0 {
		s += 1.5 * math.Log1p(float64(commits))
	}
	if pinned[strings.ToLower(r.NameWithOwner)] {
		s += 3
	}
	if !r.PushedAt.IsZero() {
		switch age := now.Sub(r.PushedAt); {
		case age <= 90*24*time.Hour:
			s += 2
		case age <= 365*24*time.Hour:
			s++
		}
	}
	if strings.TrimSpace(r.Description) != "" {
		s += 0.5
	}
	s += math.Min(0.1*float64(len(r.Topics)), 0.5)
	if r.IsArchived {
		s -= 2
	}
	return math.Round(s*1000) / 1000
}
