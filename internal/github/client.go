// Package github fetches and shapes the GitHub profile data a portfolio is generated from.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"portfolio-cli/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultEndpoint = "https://api.github.com/graphql"

var (
	ErrMissingToken = errors.New("github token is required")
	ErrInvalidLogin = errors.New("invalid github username")
)

// UserNotFoundError is returned when GitHub has no user with the login.
type UserNotFoundError struct{ Login string }

func (e UserNotFoundError) Error() string { return "github user not found: " + e.Login }

// APIError carries the errors array of a GraphQL response.
type APIError struct {
	Messages []string
}

func (e *APIError) Error() string {
	return "github graphql: " + strings.Join(e.Messages, "; ")
}

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("github http %d: %s", e.Code, e.Body)
}

type Client struct {
	endpoint string
	token    string
	repos    int
	http     *http.Client
	log      *zap.Logger
}

type Options struct {
	Endpoint string
	Token    string
	// Repos caps how many repositories are fetched (by stars). Default 50.
	Repos      int
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func New(opts Options) *Client {
	c := &Client{
		endpoint: strings.TrimSpace(opts.Endpoint),
		token:    strings.TrimSpace(opts.Token),
		repos:    opts.Repos,
		http:     opts.HTTPClient,
		log:      opts.Logger,
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.repos <= 0 || c.repos > 100 {
		c.repos = 50
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c
}

// FetchUser fetches the profile and activity of the user named by input, which may be a
// login or a profile URL.
func (c *Client) FetchUser(ctx context.Context, input string) (*model.GitHubUser, error) {
	if c.token == "" {
		return nil, ErrMissingToken
	}
	login := ExtractUsername(input)
	if !ValidUsername(login) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLogin, input)
	}

	start := time.Now()
	var prof rawProfile
	var act rawActivity
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.query(gctx, profileQuery, map[string]any{"login": login, "repos": c.repos}, &prof)
	})
	g.Go(func() error {
		return c.query(gctx, activityQuery, map[string]any{"login": login}, &act)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if prof.User == nil {
		return nil, UserNotFoundError{Login: login}
	}
	u := shapeUser(prof, act)
	c.log.Info("github user fetched",
		zap.String("login", u.Login),
		zap.Int("repositories", len(u.Repositories)),
		zap.Duration("took", time.Since(start)))
	return u, nil
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *Client) query(ctx context.Context, q string, vars map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: q, Variables: vars})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("github request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var gr graphqlResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return fmt.Errorf("decode github response: %w", err)
	}
	if len(gr.Errors) > 0 {
		// A missing user comes back as a NOT_FOUND error with a null user.
		notFound := true
		msgs := make([]string, 0, len(gr.Errors))
		for _, e := range gr.Errors {
			msgs = append(msgs, e.Message)
			if e.Type != "NOT_FOUND" {
				notFound = false
			}
		}
		if !notFound {
			return &APIError{Messages: msgs}
		}
		c.log.Debug("github user not found", zap.Strings("errors", msgs))
	}
	if len(gr.Data) == 0 || string(gr.Data) == "null" {
		return nil
	}
	return json.Unmarshal(gr.Data, out)
}
