package ports

import (
	"context"

	"github.com/fr0stylo/issuedash/internal/app/domain"
)

// IssueTracker is the upstream issue API bound to one project.
type IssueTracker interface {
	ListIssues(ctx context.Context, opts domain.ListIssuesOptions) ([]domain.Issue, domain.Pagination, error)
	GetIssue(ctx context.Context, iid int64) (domain.Issue, error)
	CreateIssue(ctx context.Context, draft domain.IssueDraft) (domain.Issue, error)
	UpdateIssue(ctx context.Context, iid int64, update domain.IssueUpdate) (domain.Issue, error)
	ListNotes(ctx context.Context, iid int64) ([]domain.Comment, error)
	AddNote(ctx context.Context, iid int64, body string) (domain.Comment, error)
	GetUser(ctx context.Context, userID int64) (domain.User, error)
}

// UserResolver resolves an account id to a profile.
type UserResolver interface {
	GetUser(ctx context.Context, userID int64) (domain.User, error)
}

// Publisher fans a named payload out to every connected client and reports
// how many clients it reached.
type Publisher interface {
	Publish(ctx context.Context, name string, payload any) int
}
