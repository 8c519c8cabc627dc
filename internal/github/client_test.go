package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juparave/tfgitsec/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		Token:      "test-token",
		Owner:      "acme",
		Repo:       "infra",
		APIBaseURL: srv.URL,
		WebBaseURL: "https://github.example.com",
	})
	require.NoError(t, err)
	return client
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{Owner: "acme", Repo: "infra"})
	assert.ErrorContains(t, err, "token")

	_, err = NewClient(Config{Token: "t"})
	assert.ErrorContains(t, err, "owner and repo")
}

func TestParseRepo(t *testing.T) {
	owner, repo, err := ParseRepo("acme/infra")
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "infra", repo)

	for _, bad := range []string{"acme", "", "/infra", "acme/"} {
		_, _, err := ParseRepo(bad)
		assert.Error(t, err, bad)
	}
}

func TestListIssuesFiltersPullRequests(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/infra/issues", r.URL.Path)
		assert.Equal(t, "token test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "all", r.URL.Query().Get("state"))
		assert.Equal(t, "tfsec-security", r.URL.Query().Get("labels"))

		fmt.Fprint(w, `[
			{"number": 1, "title": "Finding - a[r]", "state": "open", "labels": [{"name": "tfsec-security"}]},
			{"number": 2, "title": "Some PR", "state": "open", "labels": [], "pull_request": {}},
			{"number": 3, "title": "Finding - b[r]", "state": "closed", "labels": [{"name": "tfsec-security"}, {"name": "severity-high"}]}
		]`)
	}))

	issues, err := client.ListIssues(context.Background(), "tfsec-security")
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, 1, issues[0].Number)
	assert.Equal(t, 3, issues[1].Number)
	assert.True(t, issues[1].IsClosed())
	assert.Equal(t, []string{"tfsec-security", "severity-high"}, issues[1].Labels)
}

func TestListIssuesPaginates(t *testing.T) {
	var pages []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pages = append(pages, page)

		if page == "1" {
			// A full page forces a second request
			issues := make([]map[string]any, perPage)
			for i := range issues {
				issues[i] = map[string]any{"number": i + 1, "title": "t", "state": "open", "labels": []any{}}
			}
			json.NewEncoder(w).Encode(issues)
			return
		}
		fmt.Fprint(w, `[{"number": 999, "title": "t", "state": "open", "labels": []}]`)
	}))

	issues, err := client.ListIssues(context.Background(), "tfsec-security")
	require.NoError(t, err)
	assert.Len(t, issues, perPage+1)
	assert.Equal(t, []string{"1", "2"}, pages)
}

func TestCreateIssue(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/repos/acme/infra/issues", r.URL.Path)

		var payload struct {
			Title  string   `json:"title"`
			Body   string   `json:"body"`
			Labels []string `json:"labels"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Finding - a[r]", payload.Title)
		assert.Equal(t, []string{"tfsec-security", "severity-high"}, payload.Labels)

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"number": 42, "title": "Finding - a[r]", "state": "open", "labels": [{"name": "tfsec-security"}]}`)
	}))

	issue, err := client.CreateIssue(context.Background(), "Finding - a[r]", "body", []string{"tfsec-security", "severity-high"})
	require.NoError(t, err)
	assert.Equal(t, 42, issue.Number)
	assert.Equal(t, domain.IssueOpen, issue.State)
}

func TestUpdateIssueState(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/repos/acme/infra/issues/42", r.URL.Path)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "closed", payload["state"])

		fmt.Fprint(w, `{"number": 42, "title": "t", "state": "closed", "labels": []}`)
	}))

	issue, err := client.UpdateIssueState(context.Background(), 42, domain.IssueClosed)
	require.NoError(t, err)
	assert.True(t, issue.IsClosed())
}

func TestAddComment(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/repos/acme/infra/issues/42/comments", r.URL.Path)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "resolved", payload["body"])

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": 1}`)
	}))

	err := client.AddComment(context.Background(), 42, "resolved")
	require.NoError(t, err)
}

func TestAPIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"message": "Validation Failed"}`)
	}))

	_, err := client.CreateIssue(context.Background(), "t", "b", nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "Validation Failed")
}

func TestRateLimitError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message": "API rate limit exceeded for user"}`)
	}))

	_, err := client.ListIssues(context.Background(), "tfsec-security")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestTestConnection(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/infra", r.URL.Path)
		fmt.Fprint(w, `{"full_name": "acme/infra"}`)
	}))

	require.NoError(t, client.TestConnection(context.Background()))
}

func TestTestConnectionUnauthorized(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message": "Bad credentials"}`)
	}))

	err := client.TestConnection(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bad credentials")
}

func TestIssueURL(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	assert.Equal(t, "https://github.example.com/acme/infra/issues/42", client.IssueURL(42))
}
