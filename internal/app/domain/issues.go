package domain

import "time"

// IssueState is the upstream lifecycle state of an issue.
type IssueState string

const (
	// IssueStateOpened marks an open issue.
	IssueStateOpened IssueState = "opened"
	// IssueStateClosed marks a closed issue.
	IssueStateClosed IssueState = "closed"
)

// StateEvent is a state transition requested on an issue.
type StateEvent string

const (
	// StateEventClose closes an open issue.
	StateEventClose StateEvent = "close"
	// StateEventReopen reopens a closed issue.
	StateEventReopen StateEvent = "reopen"
)

// User is an upstream account reference.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Issue is one project-scoped issue as returned by the upstream tracker.
type Issue struct {
	IID         int64
	Title       string
	Description string
	State       IssueState
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Author      User
	WebURL      string
}

// Comment is a note attached to exactly one issue.
type Comment struct {
	ID        int64
	IID       int64
	Body      string
	CreatedAt time.Time
	Author    User
}

// Pagination is the page metadata reported alongside an issue listing.
type Pagination struct {
	Page       int64
	PerPage    int64
	Total      int64
	TotalPages int64
}

// HasPrevious reports whether a page precedes the current one.
func (p Pagination) HasPrevious() bool {
	return p.Page > 1
}

// HasNext reports whether a page follows the current one.
func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}

// ListIssuesOptions filters and orders an issue listing. Zero values are left unset.
type ListIssuesOptions struct {
	OrderBy string
	Sort    string
	Page    int64
	PerPage int64
}

// IssueDraft carries the fields of a new issue.
type IssueDraft struct {
	Title       string
	Description string
}

// IssueUpdate is a partial issue update; nil fields are left untouched.
type IssueUpdate struct {
	Title       *string
	Description *string
	StateEvent  *StateEvent
}
