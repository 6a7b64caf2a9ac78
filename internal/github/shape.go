package github

import (
	"sort"
	"time"

	"portfolio-cli/internal/model"
)

type count struct {
	TotalCount int `json:"totalCount"`
}

type named struct {
	Name string `json:"name"`
}

type rawRepo struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	NameWithOwner    string    `json:"nameWithOwner"`
	Description      string    `json:"description"`
	URL              string    `json:"url"`
	CreatedAt        time.Time `json:"createdAt"`
	PushedAt         time.Time `json:"pushedAt"`
	IsFork           bool      `json:"isFork"`
	IsArchived       bool      `json:"isArchived"`
	IsPrivate        bool      `json:"isPrivate"`
	StargazerCount   int       `json:"stargazerCount"`
	ForkCount        int       `json:"forkCount"`
	Watchers         count     `json:"watchers"`
	PrimaryLanguage  *named    `json:"primaryLanguage"`
	RepositoryTopics struct {
		Nodes []struct {
			Topic named `json:"topic"`
		} `json:"nodes"`
	} `json:"repositoryTopics"`
}

type rawProfile struct {
	User *struct {
		Login           string    `json:"login"`
		Name            string    `json:"name"`
		Email           string    `json:"email"`
		Bio             string    `json:"bio"`
		Company         string    `json:"company"`
		Location        string    `json:"location"`
		WebsiteURL      string    `json:"websiteUrl"`
		TwitterUsername string    `json:"twitterUsername"`
		AvatarURL       string    `json:"avatarUrl"`
		URL             string    `json:"url"`
		CreatedAt       time.Time `json:"createdAt"`
		IsHireable      bool      `json:"isHireable"`
		Pronouns        string    `json:"pronouns"`
		Status          *struct {
			Emoji string `json:"emoji"`
		} `json:"status"`
		Followers    count `json:"followers"`
		Following    count `json:"following"`
		Repositories struct {
			Nodes []rawRepo `json:"nodes"`
		} `json:"repositories"`
	} `json:"user"`
}

type rawActivity struct {
	User *struct {
		PinnedItems struct {
			Nodes []struct {
				NameWithOwner string `json:"nameWithOwner"`
			} `json:"nodes"`
		} `json:"pinnedItems"`
		ContributionsCollection struct {
			TotalCommitContributions            int `json:"totalCommitContributions"`
			TotalIssueContributions             int `json:"totalIssueContributions"`
			TotalPullRequestContributions       int `json:"totalPullRequestContributions"`
			TotalPullRequestReviewContributions int `json:"totalPullRequestReviewContributions"`
			TotalRepositoryContributions        int `json:"totalRepositoryContributions"`
			ContributionCalendar                struct {
				TotalContributions int `json:"totalContributions"`
			} `json:"contributionCalendar"`
			CommitContributionsByRepository []struct {
				Repository struct {
					NameWithOwner   string `json:"nameWithOwner"`
					PrimaryLanguage *named `json:"primaryLanguage"`
				} `json:"repository"`
				Contributions count `json:"contributions"`
			} `json:"commitContributionsByRepository"`
		} `json:"contributionsCollection"`
	} `json:"user"`
}

func shapeUser(p rawProfile, a rawActivity) *model.GitHubUser {
	u := p.User
	out := &model.GitHubUser{
		Login:        u.Login,
		Name:         u.Name,
		Email:        u.Email,
		Bio:          u.Bio,
		Company:      u.Company,
		Location:     u.Location,
		WebsiteURL:   u.WebsiteURL,
		Twitter:      u.TwitterUsername,
		AvatarURL:    u.AvatarURL,
		URL:          u.URL,
		CreatedAt:    u.CreatedAt,
		Followers:    u.Followers.TotalCount,
		Following:    u.Following.TotalCount,
		IsHireable:   u.IsHireable,
		Pronouns:     u.Pronouns,
		Repositories: []model.Repository{},
	}
	if u.Status != nil {
		out.StatusEmoji = u.Status.Emoji
	}
	for _, r := range u.Repositories.Nodes {
		repo := model.Repository{
			ID:            r.ID,
			Name:          r.Name,
			NameWithOwner: r.NameWithOwner,
			Description:   r.Description,
			URL:           r.URL,
			Stars:         r.StargazerCount,
			Forks:         r.ForkCount,
			Watchers:      r.Watchers.TotalCount,
			IsFork:        r.IsFork,
			IsArchived:    r.IsArchived,
			IsPrivate:     r.IsPrivate,
			CreatedAt:     r.CreatedAt,
			PushedAt:      r.PushedAt,
		}
		if r.PrimaryLanguage != nil {
			repo.Language = r.PrimaryLanguage.Name
		}
		for _, t := range r.RepositoryTopics.Nodes {
			if t.Topic.Name != "" {
				repo.Topics = append(repo.Topics, t.Topic.Name)
			}
		}
		out.Repositories = append(out.Repositories, repo)
	}

	if a.User == nil {
		return out
	}
	for _, n := range a.User.PinnedItems.Nodes {
		if n.NameWithOwner != "" {
			out.Pinned = append(out.Pinned, n.NameWithOwner)
		}
	}
	cc := a.User.ContributionsCollection
	c := model.Contributions{
		TotalCommits:      cc.TotalCommitContributions,
		TotalIssues:       cc.TotalIssueContributions,
		TotalPullRequests: cc.TotalPullRequestContributions,
		TotalReviews:      cc.TotalPullRequestReviewContributions,
		TotalRepositories: cc.TotalRepositoryContributions,
		TotalThisYear:     cc.ContributionCalendar.TotalContributions,
		CommitsByRepo:     map[string]int{},
		LanguagesByRepo:   map[string]int{},
	}
	for _, e := range cc.CommitContributionsByRepository {
		c.CommitsByRepo[e.Repository.NameWithOwner] += e.Contributions.TotalCount
		if e.Repository.PrimaryLanguage != nil && e.Repository.PrimaryLanguage.Name != "" {
			c.LanguagesByRepo[e.Repository.PrimaryLanguage.Name]++
		}
	}
	c.MostActiveLanguage = mostActive(c.LanguagesByRepo)
	out.Contributions = c
	return out
}

// mostActive returns the language with the most active repositories; ties go to the
// alphabetically first name.
func mostActive(langs map[string]int) string {
	names := make([]string, 0, len(langs))
	for k := range langs {
		names = append(names, k)
	}
	sort.Strings(names)
	best, n := "", 0
	for _, k := range names {
		if langs[k] > n {
			best, n = k, langs[k]
		}
	}
	return best
}
