package model

import "time"

// GitHubUser is the shaped result of a GitHub profile fetch.
type GitHubUser struct {
	Login       string    `json:"login"`
	Name        string    `json:"name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	Company     string    `json:"company,omitempty"`
	Location    string    `json:"location,omitempty"`
	WebsiteURL  string    `json:"websiteUrl,omitempty"`
	Twitter     string    `json:"twitterUsername,omitempty"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	IsHireable  bool      `json:"isHireable"`
	Pronouns    string    `json:"pronouns,omitempty"`
	StatusEmoji string    `json:"statusEmoji,omitempty"`

	Repositories []Repository `json:"repositories"`
	Pinned       []string     `json:"pinned,omitempty"`

	Contributions Contributions `json:"contributions"`
}

type Repository struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	NameWithOwner string    `json:"nameWithOwner"`
	Description   string    `json:"description,omitempty"`
	URL           string    `json:"url"`
	Language      string    `json:"language,omitempty"`
	Topics        []string  `json:"topics,omitempty"`
	Stars         int       `json:"stargazerCount"`
	Forks         int       `json:"forkCount"`
	Watchers      int       `json:"watchers"`
	IsFork        bool      `json:"isFork"`
	IsArchived    bool      `json:"isArchived"`
	IsPrivate     bool      `json:"isPrivate"`
	CreatedAt     time.Time `json:"createdAt"`
	PushedAt      time.Time `json:"pushedAt"`
}

type Contributions struct {
	TotalCommits       int            `json:"totalCommitContributions"`
	TotalIssues        int            `json:"totalIssueContributions"`
	TotalPullRequests  int            `json:"totalPullRequestContributions"`
	TotalReviews       int            `json:"totalPullRequestReviewContributions"`
	TotalRepositories  int            `json:"totalRepositoryContributions"`
	TotalThisYear      int            `json:"totalContributionsThisYear"`
	CommitsByRepo      map[string]int `json:"commitsByRepository,omitempty"`
	LanguagesByRepo    map[string]int `json:"activeLanguages,omitempty"`
	MostActiveLanguage string         `json:"mostActiveLanguage,omitempty"`
}
