package domain

// IssueRow is one issue in the explorer list.
type IssueRow struct {
	IID       int64
	Title     string
	State     IssueState
	CreatedAt string
	UpdatedAt string
	Author    string
	WebURL    string
}

// Open reports whether the row is in the opened state.
func (r IssueRow) Open() bool {
	return r.State == IssueStateOpened
}

// IssueExplorer is the explorer page read model.
type IssueExplorer struct {
	Issues     []IssueRow
	Pagination Pagination
	OrderBy    string
	Sort       string
}

// CommentView is one rendered comment.
type CommentView struct {
	Author    string
	CreatedAt string
	Body      string
}

// IssueDetail is the expanded issue read model.
type IssueDetail struct {
	Issue       IssueRow
	Description string
	Comments    []CommentView
}

// IssueForm prefills the create and edit forms.
type IssueForm struct {
	IID         int64
	Title       string
	Description string
	Errors      ValidationErrors
}
