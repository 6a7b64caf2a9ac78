package github

// Two queries so profile and activity can be fetched in parallel; the second is the
// expensive one on accounts with long histories.

const profileQuery = `query profile($login: String!, $repos: Int!) {
  user(login: $login) {
    login name email bio company location websiteUrl twitterUsername avatarUrl url createdAt
    isHireable pronouns
    status { emoji }
    followers { totalCount }
    following { totalCount }
    repositories(first: $repos, ownerAffiliations: OWNER, orderBy: {field: STARGAZERS, direction: DESC}) {
      nodes {
        id name nameWithOwner description url createdAt pushedAt
        isFork isArchived isPrivate stargazerCount forkCount
        watchers { totalCount }
        primaryLanguage { name }
        repositoryTopics(first: 10) { nodes { topic { name } } }
      }
    }
  }
}`

const activityQuery = `query activity($login: String!) {
  user(login: $login) {
    pinnedItems(first: 6, types: REPOSITORY) { nodes { ... on Repository { nameWithOwner } } }
    contributionsCollection {
      totalCommitContributions
      totalIssueContributions
      totalPullRequestContributions
      totalPullRequestReviewContributions
      totalRepositoryContributions
      contributionCalendar { totalContributions }
      commitContributionsByRepository(maxRepositories: 25) {
        repository { nameWithOwner primaryLanguage { name } }
        contributions { totalCount }
      }
    }
  }
}`
