// Package github implements the minimal GitHub REST v3 surface needed to
// manage security issues: list, create, update state, and comment.
// GitHub Enterprise is supported through configurable base URLs.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/juparave/tfgitsec/internal/domain"
)

const perPage = 100

// Config holds configuration for the GitHub client
type Config struct {
	Token      string
	Owner      string
	Repo       string
	APIBaseURL string // defaults to https://api.github.com
	WebBaseURL string // defaults to https://github.com
	Timeout    time.Duration
	UserAgent  string
}

// Client is a GitHub REST API client scoped to one repository
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// APIError is returned for non-2xx API responses
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.StatusCode == http.StatusForbidden && strings.Contains(strings.ToLower(e.Body), "rate limit") {
		return "GitHub API rate limit exceeded"
	}
	return fmt.Sprintf("GitHub API request failed (status %d): %s", e.StatusCode, e.Body)
}

// ParseRepo splits an owner/repo string
func ParseRepo(repo string) (string, string, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return "", "", fmt.Errorf("repository must be in owner/repo format, got %q", repo)
	}
	return owner, name, nil
}

// NewClient creates a new GitHub API client
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("github token is required")
	}
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("github owner and repo are required")
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.github.com"
	}
	if cfg.WebBaseURL == "" {
		cfg.WebBaseURL = "https://github.com"
	}
	cfg.APIBaseURL = strings.TrimSuffix(cfg.APIBaseURL, "/")
	cfg.WebBaseURL = strings.TrimSuffix(cfg.WebBaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "tfgitsec"
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// issuePayload mirrors the wire format of a GitHub issue
type issuePayload struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	State     string `json:"state"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	Body      string `json:"body"`
	Labels    []struct {
		Name string `json:"name"`
	} `json:"labels"`
	PullRequest *struct{} `json:"pull_request,omitempty"`
}

func (p issuePayload) toIssue() domain.Issue {
	labels := make([]string, 0, len(p.Labels))
	for _, l := range p.Labels {
		labels = append(labels, l.Name)
	}
	return domain.Issue{
		Number:    p.Number,
		Title:     p.Title,
		State:     p.State,
		Labels:    labels,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Body:      p.Body,
	}
}

// request performs one API round trip against the repository endpoint.
// A non-2xx response is returned as *APIError.
func (c *Client) request(ctx context.Context, method, endpoint string, query url.Values, payload any, out any) error {
	u := fmt.Sprintf("%s/repos/%s/%s", c.cfg.APIBaseURL, c.cfg.Owner, c.cfg.Repo)
	if endpoint != "" {
		u += "/" + endpoint
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "token "+c.cfg.Token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debug().Str("method", method).Str("url", u).Msg("GitHub API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GitHub API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading GitHub API response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding GitHub API response: %w", err)
		}
	}
	return nil
}

// ListIssues returns all issues in any state carrying the given label.
// Pull requests, which the issues endpoint also returns, are excluded.
func (c *Client) ListIssues(ctx context.Context, label string) ([]domain.Issue, error) {
	var all []domain.Issue
	for page := 1; ; page++ {
		query := url.Values{
			"state":    {"all"},
			"labels":   {label},
			"per_page": {strconv.Itoa(perPage)},
			"page":     {strconv.Itoa(page)},
		}
		var payloads []issuePayload
		if err := c.request(ctx, http.MethodGet, "issues", query, nil, &payloads); err != nil {
			return nil, err
		}
		for _, p := range payloads {
			if p.PullRequest != nil {
				continue
			}
			all = append(all, p.toIssue())
		}
		if len(payloads) < perPage {
			break
		}
	}
	log.Debug().Int("count", len(all)).Str("label", label).Msg("Listed existing issues")
	return all, nil
}

// CreateIssue creates a new issue and returns it with its assigned number
func (c *Client) CreateIssue(ctx context.Context, title, body string, labels []string) (domain.Issue, error) {
	payload := map[string]any{
		"title":  title,
		"body":   body,
		"labels": labels,
	}
	var out issuePayload
	if err := c.request(ctx, http.MethodPost, "issues", nil, payload, &out); err != nil {
		return domain.Issue{}, err
	}
	return out.toIssue(), nil
}

// UpdateIssueState toggles an issue between open and closed
func (c *Client) UpdateIssueState(ctx context.Context, number int, state string) (domain.Issue, error) {
	payload := map[string]any{"state": state}
	var out issuePayload
	if err := c.request(ctx, http.MethodPatch, fmt.Sprintf("issues/%d", number), nil, payload, &out); err != nil {
		return domain.Issue{}, err
	}
	return out.toIssue(), nil
}

// AddComment appends a comment to an issue
func (c *Client) AddComment(ctx context.Context, number int, text string) error {
	payload := map[string]any{"body": text}
	return c.request(ctx, http.MethodPost, fmt.Sprintf("issues/%d/comments", number), nil, payload, nil)
}

// IssueURL returns the web URL of an issue, for reporting only
func (c *Client) IssueURL(number int) string {
	return fmt.Sprintf("%s/%s/%s/issues/%d", c.cfg.WebBaseURL, c.cfg.Owner, c.cfg.Repo, number)
}

// TestConnection verifies that the repository is reachable with the
// configured credentials
func (c *Client) TestConnection(ctx context.Context) error {
	return c.request(ctx, http.MethodGet, "", nil, nil, nil)
}
