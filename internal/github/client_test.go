package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

const profileJSON = `{"data":{"user":{
  "login":"octocat","name":"The Octocat","location":"SF","avatarUrl":"https://a/1.png",
  "createdAt":"2011-01-25T18:44:36Z","isHireable":true,"status":{"emoji":":cat:"},
  "followers":{"totalCount":100},"following":{"totalCount":3},
  "repositories":{"nodes":[
    {"id":"R1","name":"hello","nameWithOwner":"octocat/hello","url":"https://github.com/octocat/hello",
     "stargazerCount":50,"forkCount":5,"watchers":{"totalCount":7},"primaryLanguage":{"name":"Go"},
     "repositoryTopics":{"nodes":[{"topic":{"name":"cli"}}]},"description":null},
    {"id":"R2","name":"fork","nameWithOwner":"octocat/fork","url":"https://github.com/octocat/fork",
     "isFork":true,"stargazerCount":1,"forkCount":0,"watchers":{"totalCount":0},"primaryLanguage":null,
     "repositoryTopics":{"nodes":[]}}
  ]}}}}`

const activityJSON = `{"data":{"user":{
  "pinnedItems":{"nodes":[{"nameWithOwner":"octocat/hello"},{}]},
  "contributionsCollection":{
    "totalCommitContributions":120,"totalIssueContributions":4,"totalPullRequestContributions":9,
    "totalPullRequestReviewContributions":2,"totalRepositoryContributions":1,
    "contributionCalendar":{"totalContributions":140},
    "commitContributionsByRepository":[
      {"repository":{"nameWithOwner":"octocat/hello","primaryLanguage":{"name":"Go"}},"contributions":{"totalCount":80}},
      {"repository":{"nameWithOwner":"octocat/site","primaryLanguage":{"name":"TypeScript"}},"contributions":{"totalCount":30}},
      {"repository":{"nameWithOwner":"octocat/tool","primaryLanguage":{"name":"Go"}},"contributions":{"totalCount":10}}
    ]}}}}`

func fakeGitHub(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.Method != http.MethodPost || r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "bad request", http.StatusUnauthorized)
			return
		}
		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		login, _ := req.Variables["login"].(string)
		if login == "ghost" {
			_, _ = w.Write([]byte(`{"data":{"user":null},"errors":[{"type":"NOT_FOUND","message":"Could not resolve to a User"}]}`))
			return
		}
		if login == "broken" {
			_, _ = w.Write([]byte(`{"errors":[{"type":"RATE_LIMITED","message":"slow down"}]}`))
			return
		}
		switch {
		case strings.HasPrefix(req.Query, "query profile"):
			_, _ = w.Write([]byte(profileJSON))
		case strings.HasPrefix(req.Query, "query activity"):
			_, _ = w.Write([]byte(activityJSON))
		default:
			http.Error(w, "unexpected query", http.StatusBadRequest)
		}
	}))
}

func TestFetchUser_ShapesProfileAndActivity(t *testing.T) {
	var calls int32
	srv := fakeGitHub(t, &calls)
	defer srv.Close()

	c := New(Options{Endpoint: srv.URL, Token: "tok"})
	u, err := c.FetchUser(context.Background(), "https://github.com/octocat")
	require.NoError(t, err)
	require.EqualValues(t, 2, atomic.LoadInt32(&calls))

	require.Equal(t, "octocat", u.Login)
	require.Equal(t, "The Octocat", u.Name)
	require.Equal(t, 100, u.Followers)
	require.Equal(t, ":cat:", u.StatusEmoji)
	require.Len(t, u.Repositories, 2)
	require.Equal(t, "Go", u.Repositories[0].Language)
	require.Equal(t, []string{"cli"}, u.Repositories[0].Topics)
	require.Equal(t, 7, u.Repositories[0].Watchers)
	require.Empty(t, u.Repositories[0].Description)
	require.True(t, u.Repositories[1].IsFork)
	require.Equal(t, []string{"octocat/hello"}, u.Pinned)

	require.Equal(t, 120, u.Contributions.TotalCommits)
	require.Equal(t, 140, u.Contributions.TotalThisYear)
	require.Equal(t, 80, u.Contributions.CommitsByRepo["octocat/hello"])
	require.Equal(t, "Go", u.Contributions.MostActiveLanguage)
}

func TestFetchUser_Errors(t *testing.T) {
	var calls int32
	srv := fakeGitHub(t, &calls)
	defer srv.Close()
	ctx := context.Background()

	_, err := New(Options{Endpoint: srv.URL}).FetchUser(ctx, "octocat")
	require.ErrorIs(t, err, ErrMissingToken)

	c := New(Options{Endpoint: srv.URL, Token: "tok"})
	_, err = c.FetchUser(ctx, "not a login!")
	require.ErrorIs(t, err, ErrInvalidLogin)

	_, err = c.FetchUser(ctx, "ghost")
	var nf UserNotFoundError
	require.True(t, errors.As(err, &nf), "got %v", err)
	require.Equal(t, "ghost", nf.Login)

	_, err = c.FetchUser(ctx, "broken")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	require.Equal(t, []string{"slow down"}, apiErr.Messages)
}

func TestFetchUser_HTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(Options{Endpoint: srv.URL, Token: "tok"}).FetchUser(context.Background(), "octocat")
	var se *StatusError
	require.True(t, errors.As(err, &se), "got %v", err)
	require.Equal(t, http.StatusUnauthorized, se.Code)
	require.Contains(t, se.Body, "bad credentials")
}
