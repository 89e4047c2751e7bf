// Package gitlabapi is the upstream issue tracker client bound to one GitLab project.
package gitlabapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	gitlab "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/time/rate"

	"github.com/fr0stylo/issuedash/internal/app/domain"
	"github.com/fr0stylo/issuedash/internal/observability"
)

const (
	headerPage       = "X-Page"
	headerPerPage    = "X-Per-Page"
	headerTotal      = "X-Total"
	headerTotalPages = "X-Total-Pages"
)

// Config binds a client to one instance, project and credential.
type Config struct {
	BaseURL    string
	ProjectID  string
	Token      string
	HTTPClient *http.Client
}

// Client issues authenticated calls against the GitLab v4 REST API.
type Client struct {
	api     *gitlab.Client
	project string
	latency *latencyTracker
}

// New constructs a client. Each call is attempted once: retries are disabled
// and no client-side rate limit is applied.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("gitlab base url is required")
	}
	project := strings.TrimSpace(cfg.ProjectID)
	if project == "" {
		return nil, fmt.Errorf("gitlab project id is required")
	}
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, fmt.Errorf("gitlab api token is required")
	}

	options := []gitlab.ClientOptionFunc{
		gitlab.WithBaseURL(baseURL + "/api/v4"),
		gitlab.WithoutRetries(),
		gitlab.WithCustomLimiter(rate.NewLimiter(rate.Inf, 0)),
	}
	if cfg.HTTPClient != nil {
		options = append(options, gitlab.WithHTTPClient(cfg.HTTPClient))
	}
	api, err := gitlab.NewClient(token, options...)
	if err != nil {
		return nil, fmt.Errorf("create gitlab client: %w", err)
	}
	return &Client{api: api, project: project, latency: newLatencyTracker()}, nil
}

// ListIssues returns one page of project issues with its pagination metadata.
func (c *Client) ListIssues(ctx context.Context, opts domain.ListIssuesOptions) ([]domain.Issue, domain.Pagination, error) {
	ctx, span := observability.StartUpstreamSpan(ctx, "list_issues")
	defer span.End()
	defer c.latency.observeSince("list_issues", time.Now())

	query := &gitlab.ListProjectIssuesOptions{}
	if v := strings.TrimSpace(opts.OrderBy); v != "" {
		query.OrderBy = gitlab.Ptr(v)
	}
	if v := strings.TrimSpace(opts.Sort); v != "" {
		query.Sort = gitlab.Ptr(v)
	}
	if opts.Page > 0 {
		setInt(&query.Page, opts.Page)
	}
	if opts.PerPage > 0 {
		setInt(&query.PerPage, opts.PerPage)
	}

	issues, resp, err := c.api.Issues.ListProjectIssues(c.project, query, gitlab.WithContext(ctx))
	if err != nil {
		err = upstreamError("list_issues", resp, err)
		span.RecordError(err)
		return nil, domain.Pagination{}, err
	}

	out := make([]domain.Issue, 0, len(issues))
	for _, issue := range issues {
		if issue == nil {
			continue
		}
		out = append(out, mapIssue(issue))
	}
	return out, paginationFrom(resp), nil
}

// GetIssue returns one issue by its project-scoped iid.
func (c *Client) GetIssue(ctx context.Context, iid int64) (domain.Issue, error) {
	ctx, span := observability.StartUpstreamSpan(ctx, "get_issue")
	defer span.End()
	defer c.latency.observeSince("get_issue", time.Now())

	issue, resp, err := c.api.Issues.GetIssue(c.project, iid, gitlab.WithContext(ctx))
	if err != nil {
		err = upstreamError("get_issue", resp, err)
		span.RecordError(err)
		return domain.Issue{}, err
	}
	return mapIssue(issue), nil
}

// CreateIssue opens a new issue in the project.
func (c *Client) CreateIssue(ctx context.Context, draft domain.IssueDraft) (domain.Issue, error) {
	ctx, span := observability.StartUpstreamSpan(ctx, "create_issue")
	defer span.End()
	defer c.latency.observeSince("create_issue", time.Now())

	issue, resp, err := c.api.Issues.CreateIssue(c.project, &gitlab.CreateIssueOptions{
		Title:       gitlab.Ptr(draft.Title),
		Description: gitlab.Ptr(draft.Description),
	}, gitlab.WithContext(ctx))
	if err != nil {
		err = upstreamError("create_issue", resp, err)
		span.RecordError(err)
		return domain.Issue{}, err
	}
	return mapIssue(issue), nil
}

// UpdateIssue applies a partial update, including state transitions.
func (c *Client) UpdateIssue(ctx context.Context, iid int64, update domain.IssueUpdate) (domain.Issue, error) {
	ctx, span := observability.StartUpstreamSpan(ctx, "update_issue")
	defer span.End()
	defer c.latency.observeSince("update_issue", time.Now())

	opts := &gitlab.UpdateIssueOptions{
		Title:       update.Title,
		Description: update.Description,
	}
	if update.StateEvent != nil {
		opts.StateEvent = gitlab.Ptr(string(*update.StateEvent))
	}

	issue, resp, err := c.api.Issues.UpdateIssue(c.project, iid, opts, gitlab.WithContext(ctx))
	if err != nil {
		err = upstreamError("update_issue", resp, err)
		span.RecordError(err)
		return domain.Issue{}, err
	}
	return mapIssue(issue), nil
}

// ListNotes returns the notes of an issue, oldest first.
func (c *Client) ListNotes(ctx context.Context, iid int64) ([]domain.Comment, error) {
	ctx, span := observability.StartUpstreamSpan(ctx, "list_notes")
	defer span.End()
	defer c.latency.observeSince("list_notes", time.Now())

	notes, resp, err := c.api.Notes.ListIssueNotes(c.project, iid, &gitlab.ListIssueNotesOptions{
		OrderBy: gitlab.Ptr("created_at"),
		Sort:    gitlab.Ptr("asc"),
	}, gitlab.WithContext(ctx))
	if err != nil {
		err = upstreamError("list_notes", resp, err)
		span.RecordError(err)
		return nil, err
	}

	out := make([]domain.Comment, 0, len(notes))
	for _, note := range notes {
		if note == nil {
			continue
		}
		out = append(out, mapNote(iid, note))
	}
	return out, nil
}

// AddNote posts a new note on an issue.
func (c *Client) AddNote(ctx context.Context, iid int64, body string) (domain.Comment, error) {
	ctx, span := observability.StartUpstreamSpan(ctx, "add_note")
	defer span.End()
	defer c.latency.observeSince("add_note", time.Now())

	note, resp, err := c.api.Notes.CreateIssueNote(c.project, iid, &gitlab.CreateIssueNoteOptions{
		Body: gitlab.Ptr(body),
	}, gitlab.WithContext(ctx))
	if err != nil {
		err = upstreamError("add_note", resp, err)
		span.RecordError(err)
		return domain.Comment{}, err
	}
	return mapNote(iid, note), nil
}

// GetUser resolves an account id to its public profile.
func (c *Client) GetUser(ctx context.Context, userID int64) (domain.User, error) {
	ctx, span := observability.StartUpstreamSpan(ctx, "get_user")
	defer span.End()
	defer c.latency.observeSince("get_user", time.Now())

	user, resp, err := c.api.Users.GetUser(userID, gitlab.GetUsersOptions{}, gitlab.WithContext(ctx))
	if err != nil {
		err = upstreamError("get_user", resp, err)
		span.RecordError(err)
		return domain.User{}, err
	}
	return domain.User{
		ID:        int64(user.ID),
		Username:  user.Username,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
	}, nil
}

func mapIssue(issue *gitlab.Issue) domain.Issue {
	out := domain.Issue{
		IID:         int64(issue.IID),
		Title:       issue.Title,
		Description: issue.Description,
		State:       domain.IssueState(issue.State),
		WebURL:      issue.WebURL,
	}
	if issue.CreatedAt != nil {
		out.CreatedAt = *issue.CreatedAt
	}
	if issue.UpdatedAt != nil {
		out.UpdatedAt = *issue.UpdatedAt
	}
	if issue.Author != nil {
		out.Author = domain.User{
			ID:        int64(issue.Author.ID),
			Username:  issue.Author.Username,
			Name:      issue.Author.Name,
			AvatarURL: issue.Author.AvatarURL,
		}
	}
	return out
}

func mapNote(iid int64, note *gitlab.Note) domain.Comment {
	var createdAt time.Time
	if note.CreatedAt != nil {
		createdAt = *note.CreatedAt
	}
	return domain.Comment{
		ID:        int64(note.ID),
		IID:       iid,
		Body:      note.Body,
		CreatedAt: createdAt,
		Author: domain.User{
			ID:        int64(note.Author.ID),
			Username:  note.Author.Username,
			Name:      note.Author.Name,
			AvatarURL: note.Author.AvatarURL,
		},
	}
}

func paginationFrom(resp *gitlab.Response) domain.Pagination {
	var header http.Header
	if resp != nil && resp.Response != nil {
		header = resp.Header
	}
	return domain.Pagination{
		Page:       headerInt(header, headerPage, 1),
		PerPage:    headerInt(header, headerPerPage, 20),
		Total:      headerInt(header, headerTotal, 0),
		TotalPages: headerInt(header, headerTotalPages, 1),
	}
}

func headerInt(header http.Header, key string, fallback int64) int64 {
	raw := strings.TrimSpace(header.Get(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return value
}

func upstreamError(operation string, resp *gitlab.Response, err error) error {
	out := &domain.UpstreamAPIError{
		Operation: operation,
		Message:   err.Error(),
		Err:       err,
	}
	var errResp *gitlab.ErrorResponse
	if errors.As(err, &errResp) {
		if msg := strings.TrimSpace(errResp.Message); msg != "" {
			out.Message = msg
		}
		if errResp.Response != nil {
			out.StatusCode = errResp.Response.StatusCode
		}
	}
	if out.StatusCode == 0 && resp != nil && resp.Response != nil {
		out.StatusCode = resp.StatusCode
	}
	return out
}

func setInt[T ~int | ~int64](dst *T, value int64) {
	*dst = T(value)
}
