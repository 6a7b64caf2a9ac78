package generate

import (
	"portfolio-cli/internal/model"
)

type behaviorKind string

const (
	maintainer behaviorKind = "maintainer"
	teamPlayer behaviorKind = "team_player"
	innovator  behaviorKind = "innovator"
	learner    behaviorKind = "learner"
)

var behaviors = map[behaviorKind]model.BehaviorProfile{
	maintainer: {
		Type:        "Maintainer",
		Description: "Actively maintains and improves existing projects",
		Traits:      []string{"Consistent contributor", "Long-term commitment", "Quality-focused"},
	},
	teamPlayer: {
		Type:        "Team Player",
		Description: "Collaborates well with others through reviews and contributions",
		Traits:      []string{"Collaborative", "Code reviewer", "Community-engaged"},
	},
	innovator: {
		Type:        "Innovator",
		Description: "Creates new projects and explores new technologies",
		Traits:      []string{"Creative", "Experimental", "Technology explorer"},
	},
	learner: {
		Type:        "Learner",
		Description: "Continuously learning and expanding technical skills",
		Traits:      []string{"Growth-oriented", "Technology diversity", "Skill builder"},
	},
}

// Classify picks a behavior profile from contribution mix, project creation and
// language spread. The first matching rule wins; maintainer is the fallback.
func Classify(u *model.GitHubUser) model.BehaviorProfile {
	return profileFor(classify(u))
}

func classify(u *model.GitHubUser) behaviorKind {
	c := u.Contributions
	collab := c.TotalPullRequests + c.TotalReviews + c.TotalIssues
	if collab >= 10 && collab*2 >= c.TotalCommits {
		return teamPlayer
	}

	owned, stars := 0, 0
	langs := map[string]bool{}
	for _, r := range u.Repositories {
		if r.IsFork {
			continue
		}
		owned++
		stars += r.Stars
		if r.Language != "" {
			langs[r.Language] = true
		}
	}
	if c.TotalRepositories >= 3 || (owned >= 10 && c.TotalRepositories > 0) {
		return innovator
	}
	if len(langs) >= 4 && stars < 10*owned {
		return learner
	}
	return maintainer
}

func profileFor(k behaviorKind) model.BehaviorProfile {
	p := behaviors[k]
	p.Traits = append([]string(nil), p.Traits...)
	return p
}
