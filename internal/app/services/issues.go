package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/fr0stylo/issuedash/internal/app/domain"
	"github.com/fr0stylo/issuedash/internal/app/ports"
)

// IssueService orchestrates the read and write paths behind the issue pages.
type IssueService struct {
	tracker    ports.IssueTracker
	dates      DateFormatter
	bestEffort BestEffort
}

// NewIssueService constructs the service over one upstream tracker.
func NewIssueService(tracker ports.IssueTracker, log *slog.Logger, dates DateFormatter) *IssueService {
	if log == nil {
		log = slog.Default()
	}
	return &IssueService{
		tracker:    tracker,
		dates:      dates,
		bestEffort: BestEffort{Log: log},
	}
}

// Explorer returns one page of issues for the explorer view.
func (s *IssueService) Explorer(ctx context.Context, opts domain.ListIssuesOptions) (domain.IssueExplorer, error) {
	issues, page, err := s.tracker.ListIssues(ctx, opts)
	if err != nil {
		return domain.IssueExplorer{}, fmt.Errorf("list issues: %w", err)
	}
	rows := make([]domain.IssueRow, 0, len(issues))
	for _, issue := range issues {
		rows = append(rows, s.row(issue))
	}
	return domain.IssueExplorer{
		Issues:     rows,
		Pagination: page,
		OrderBy:    opts.OrderBy,
		Sort:       opts.Sort,
	}, nil
}

// Detail returns an issue with its comments, most recent first.
func (s *IssueService) Detail(ctx context.Context, iid int64) (domain.IssueDetail, error) {
	issue, err := s.tracker.GetIssue(ctx, iid)
	if err != nil {
		return domain.IssueDetail{}, fmt.Errorf("get issue %d: %w", iid, err)
	}
	notes, err := s.tracker.ListNotes(ctx, iid)
	if err != nil {
		return domain.IssueDetail{}, fmt.Errorf("list notes for issue %d: %w", iid, err)
	}

	slices.Reverse(notes)
	comments := make([]domain.CommentView, 0, len(notes))
	for _, note := range notes {
		comments = append(comments, s.CommentView(note))
	}
	return domain.IssueDetail{
		Issue:       s.row(issue),
		Description: issue.Description,
		Comments:    comments,
	}, nil
}

// UpdateStatus requests a state transition. Upstream failure is logged, not returned.
func (s *IssueService) UpdateStatus(ctx context.Context, iid int64, event domain.StateEvent) bool {
	return s.bestEffort.Do(ctx, "update_issue_status", func(ctx context.Context) error {
		_, err := s.tracker.UpdateIssue(ctx, iid, domain.IssueUpdate{StateEvent: &event})
		return err
	})
}

// AddComment posts a comment on an issue.
func (s *IssueService) AddComment(ctx context.Context, iid int64, body string) (domain.Comment, error) {
	comment, err := s.tracker.AddNote(ctx, iid, body)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("add note to issue %d: %w", iid, err)
	}
	return comment, nil
}

// Create opens a new issue.
func (s *IssueService) Create(ctx context.Context, draft domain.IssueDraft) (domain.Issue, error) {
	issue, err := s.tracker.CreateIssue(ctx, draft)
	if err != nil {
		return domain.Issue{}, fmt.Errorf("create issue: %w", err)
	}
	return issue, nil
}

// EditForm loads an issue into the edit form.
func (s *IssueService) EditForm(ctx context.Context, iid int64) (domain.IssueForm, error) {
	issue, err := s.tracker.GetIssue(ctx, iid)
	if err != nil {
		return domain.IssueForm{}, fmt.Errorf("get issue %d: %w", iid, err)
	}
	return domain.IssueForm{IID: issue.IID, Title: issue.Title, Description: issue.Description}, nil
}

// Edit applies a title and description change.
func (s *IssueService) Edit(ctx context.Context, iid int64, update domain.IssueUpdate) (domain.Issue, error) {
	issue, err := s.tracker.UpdateIssue(ctx, iid, update)
	if err != nil {
		return domain.Issue{}, fmt.Errorf("update issue %d: %w", iid, err)
	}
	return issue, nil
}

// CommentView renders one comment for display.
func (s *IssueService) CommentView(comment domain.Comment) domain.CommentView {
	return domain.CommentView{
		Author:    displayName(comment.Author),
		CreatedAt: s.dates.Format(comment.CreatedAt),
		Body:      comment.Body,
	}
}

func (s *IssueService) row(issue domain.Issue) domain.IssueRow {
	return domain.IssueRow{
		IID:       issue.IID,
		Title:     issue.Title,
		State:     issue.State,
		CreatedAt: s.dates.Format(issue.CreatedAt),
		UpdatedAt: s.dates.Format(issue.UpdatedAt),
		Author:    displayName(issue.Author),
		WebURL:    issue.WebURL,
	}
}

func displayName(user domain.User) string {
	if user.Username != "" {
		return user.Username
	}
	return user.Name
}
