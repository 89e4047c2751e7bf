package gitlabapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/fr0stylo/issuedash/internal/app/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Config{BaseURL: srv.URL + "/", ProjectID: "42", Token: "secret-token"})
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	return client
}

func TestNewRequiresBaseURLProjectAndToken(t *testing.T) {
	t.Parallel()

	cases := []Config{
		{ProjectID: "42", Token: "t"},
		{BaseURL: "https://gitlab.example.com", Token: "t"},
		{BaseURL: "https://gitlab.example.com", ProjectID: "42"},
	}
	for _, cfg := range cases {
		if _, err := New(cfg); err == nil {
			t.Fatalf("expected error for config %+v", cfg)
		}
	}
}

func TestListIssuesSendsQueryAndParsesPagination(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v4/projects/42/issues" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("PRIVATE-TOKEN"); got != "secret-token" {
			t.Fatalf("unexpected token header: %s", got)
		}
		query := r.URL.Query()
		if query.Get("order_by") != "updated_at" || query.Get("sort") != "asc" {
			t.Fatalf("unexpected ordering query: %s", r.URL.RawQuery)
		}
		if query.Get("page") != "2" || query.Get("per_page") != "5" {
			t.Fatalf("unexpected paging query: %s", r.URL.RawQuery)
		}
		w.Header().Set("X-Page", "2")
		w.Header().Set("X-Per-Page", "5")
		w.Header().Set("X-Total", "12")
		w.Header().Set("X-Total-Pages", "3")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{{
			"id":          901,
			"iid":         7,
			"title":       "Broken login",
			"description": "Steps inside",
			"state":       "opened",
			"created_at":  "2024-03-05T09:07:00Z",
			"updated_at":  "2024-03-06T10:00:00Z",
			"author":      map[string]any{"id": 5, "username": "alice", "name": "Alice"},
		}})
	})

	issues, page, err := client.ListIssues(context.Background(), domain.ListIssuesOptions{
		OrderBy: "updated_at",
		Sort:    "asc",
		Page:    2,
		PerPage: 5,
	})
	if err != nil {
		t.Fatalf("ListIssues error = %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("unexpected issue count: got=%d want=1", len(issues))
	}
	issue := issues[0]
	if issue.IID != 7 || issue.Title != "Broken login" || issue.State != domain.IssueStateOpened {
		t.Fatalf("unexpected issue: %+v", issue)
	}
	if issue.Author.Username != "alice" || issue.Author.ID != 5 {
		t.Fatalf("unexpected author: %+v", issue.Author)
	}
	if issue.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be parsed")
	}
	want := domain.Pagination{Page: 2, PerPage: 5, Total: 12, TotalPages: 3}
	if page != want {
		t.Fatalf("unexpected pagination: got=%+v want=%+v", page, want)
	}
}

func TestListIssuesDefaultsMissingPaginationHeaders(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})

	issues, page, err := client.ListIssues(context.Background(), domain.ListIssuesOptions{})
	if err != nil {
		t.Fatalf("ListIssues error = %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %d", len(issues))
	}
	want := domain.Pagination{Page: 1, PerPage: 20, Total: 0, TotalPages: 1}
	if page != want {
		t.Fatalf("unexpected pagination: got=%+v want=%+v", page, want)
	}
}

func TestUpdateIssueSendsStateEvent(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/v4/projects/42/issues/7" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload["state_event"] != "close" {
			t.Fatalf("unexpected state_event: %#v", payload["state_event"])
		}
		if _, ok := payload["title"]; ok {
			t.Fatalf("title must be omitted when unchanged: %#v", payload)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 907, "iid": 7, "state": "closed", "title": "Broken login"})
	})

	event := domain.StateEventClose
	issue, err := client.UpdateIssue(context.Background(), 7, domain.IssueUpdate{StateEvent: &event})
	if err != nil {
		t.Fatalf("UpdateIssue error = %v", err)
	}
	if issue.State != domain.IssueStateClosed {
		t.Fatalf("unexpected state: got=%s want=%s", issue.State, domain.IssueStateClosed)
	}
}

func TestCreateIssueSendsTitleAndDescription(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v4/projects/42/issues" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload["title"] != "New bug" || payload["description"] != "Details" {
			t.Fatalf("unexpected payload: %#v", payload)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 908, "iid": 8, "title": "New bug", "state": "opened"})
	})

	issue, err := client.CreateIssue(context.Background(), domain.IssueDraft{Title: "New bug", Description: "Details"})
	if err != nil {
		t.Fatalf("CreateIssue error = %v", err)
	}
	if issue.IID != 8 {
		t.Fatalf("unexpected iid: got=%d want=8", issue.IID)
	}
}

func TestGetIssueMapsFields(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v4/projects/42/issues/7" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":         907,
			"iid":        7,
			"title":      "Broken login",
			"state":      "closed",
			"web_url":    "https://gitlab.example.com/p/-/issues/7",
			"created_at": "2024-03-05T09:07:00Z",
			"author":     map[string]any{"id": 5, "username": "alice"},
		})
	})

	issue, err := client.GetIssue(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetIssue error = %v", err)
	}
	if issue.IID != 7 || issue.State != domain.IssueStateClosed || issue.Author.Username != "alice" {
		t.Fatalf("unexpected issue: %+v", issue)
	}
	if issue.WebURL != "https://gitlab.example.com/p/-/issues/7" {
		t.Fatalf("unexpected web url: %q", issue.WebURL)
	}
}

func TestListNotesAndAddNote(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v4/projects/42/issues/7/notes" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			if r.URL.Query().Get("sort") != "asc" {
				t.Fatalf("expected ascending note order: %s", r.URL.RawQuery)
			}
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"id": 1, "body": "first", "created_at": "2024-03-05T09:07:00Z", "author": map[string]any{"id": 5, "username": "alice"}},
				{"id": 2, "body": "second", "created_at": "2024-03-05T10:07:00Z", "author": map[string]any{"id": 6, "username": "bob"}},
			})
		case http.MethodPost:
			var payload map[string]any
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("decode payload: %v", err)
			}
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{"id": 3, "body": payload["body"], "author": map[string]any{"id": 5, "username": "alice"}})
		default:
			t.Fatalf("unexpected method: %s", r.Method)
		}
	})

	notes, err := client.ListNotes(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListNotes error = %v", err)
	}
	if len(notes) != 2 || notes[0].Body != "first" || notes[1].Author.Username != "bob" {
		t.Fatalf("unexpected notes: %+v", notes)
	}
	if notes[0].IID != 7 {
		t.Fatalf("unexpected note iid: got=%d want=7", notes[0].IID)
	}

	note, err := client.AddNote(context.Background(), 7, "Looks fixed")
	if err != nil {
		t.Fatalf("AddNote error = %v", err)
	}
	if note.ID != 3 || note.Body != "Looks fixed" {
		t.Fatalf("unexpected note: %+v", note)
	}
}

func TestGetUserMapsProfile(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v4/users/5" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 5, "username": "alice", "name": "Alice A", "avatar_url": "https://x/a.png"})
	})

	user, err := client.GetUser(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetUser error = %v", err)
	}
	want := domain.User{ID: 5, Username: "alice", Name: "Alice A", AvatarURL: "https://x/a.png"}
	if user != want {
		t.Fatalf("unexpected user: got=%+v want=%+v", user, want)
	}
}

func TestUpstreamFailureIsTypedAndNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"maintenance"}`))
	})

	_, err := client.GetIssue(context.Background(), 7)
	if err == nil {
		t.Fatalf("expected error")
	}
	var upstream *domain.UpstreamAPIError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamAPIError, got %T", err)
	}
	if upstream.Operation != "get_issue" {
		t.Fatalf("unexpected operation: %s", upstream.Operation)
	}
	if upstream.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: got=%d want=%d", upstream.StatusCode, http.StatusServiceUnavailable)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("unexpected call count: got=%d want=1", got)
	}
}

func TestUpstreamNotFoundKeepsStatus(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"404 Not found"}`))
	})

	_, err := client.GetUser(context.Background(), 99)
	var upstream *domain.UpstreamAPIError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamAPIError, got %T", err)
	}
	if upstream.HTTPStatus() != http.StatusNotFound {
		t.Fatalf("unexpected mapped status: got=%d want=%d", upstream.HTTPStatus(), http.StatusNotFound)
	}
}
