package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Portfolio is the editable document generated from a GitHub profile.
type Portfolio struct {
	Login    string `json:"login" yaml:"login"`
	Name     string `json:"name" yaml:"name"`
	Headline string `json:"headline,omitempty" yaml:"headline,omitempty"`
	Summary  string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
	Website  string `json:"website,omitempty" yaml:"website,omitempty"`
	Avatar   string `json:"avatar,omitempty" yaml:"avatar,omitempty"`

	Skills []string `json:"skills" yaml:"skills"`

	// Projects is ordered; the order is the ranking shown to readers.
	Projects []Project `json:"top_projects" yaml:"top_projects"`

	Behavior BehaviorProfile `json:"behavior_profile" yaml:"behavior_profile"`
	Stats    Stats           `json:"total_stats" yaml:"total_stats"`
	Meta     Meta            `json:"meta" yaml:"meta"`

	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

type Project struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	URL         string   `json:"url,omitempty" yaml:"url,omitempty"`
	Language    string   `json:"language,omitempty" yaml:"language,omitempty"`
	Stars       int      `json:"stargazers_count" yaml:"stargazers_count"`
	Forks       int      `json:"forks_count" yaml:"forks_count"`
	Topics      []string `json:"topics,omitempty" yaml:"topics,omitempty"`
	Score       float64  `json:"score,omitempty" yaml:"score,omitempty"`

	// Rank is the persisted lexicographic ordering key. Only the store assigns it.
	Rank    string    `json:"rank,omitempty" yaml:"-"`
	AddedAt time.Time `json:"addedAt" yaml:"addedAt"`
}

type BehaviorProfile struct {
	Type        string   `json:"type" yaml:"type"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Traits      []string `json:"traits,omitempty" yaml:"traits,omitempty"`
}

type Stats struct {
	TotalStars   int `json:"total_stars" yaml:"total_stars"`
	TotalForks   int `json:"total_forks" yaml:"total_forks"`
	TotalCommits int `json:"total_commits" yaml:"total_commits"`
	TotalPRs     int `json:"total_prs" yaml:"total_prs"`
	Followers    int `json:"followers" yaml:"followers"`
}

type Meta struct {
	GeneratedAt time.Time `json:"generatedAt" yaml:"generatedAt"`
	Source      string    `json:"source,omitempty" yaml:"source,omitempty"`
	Ranker      string    `json:"ranker,omitempty" yaml:"ranker,omitempty"`
}

// Event is one entry of a portfolio's edit history.
type Event struct {
	ID        string         `json:"id"`
	Login     string         `json:"login"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

const projectIDPrefix = "proj-"

// NewProjectID returns a fresh project identity.
func NewProjectID() string {
	return projectIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// IsProjectID reports whether s looks like a project identity.
func IsProjectID(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, projectIDPrefix) && len(s) > len(projectIDPrefix)
}

func NewEventID() string { return "evt-" + uuid.NewString() }

// FindProject returns the index of the project with id, or -1.
func (p *Portfolio) FindProject(id string) int {
	id = strings.TrimSpace(id)
	for i := range p.Projects {
		if p.Projects[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of p.
func (p *Portfolio) Clone() *Portfolio {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Skills = append([]string(nil), p.Skills...)
	cp.Behavior.Traits = append([]string(nil), p.Behavior.Traits...)
	cp.Projects = make([]Project, len(p.Projects))
	for i, pr := range p.Projects {
		pr.Topics = append([]string(nil), pr.Topics...)
		cp.Projects[i] = pr
	}
	return &cp
}
