package domain

const (
	// EventNewIssue is the broadcast event name for opened issues.
	EventNewIssue = "newIssue"
	// EventStatusUpdated is the broadcast event name for closed or reopened issues.
	EventStatusUpdated = "statusUpdated"
	// EventNewComment is the broadcast event name for new notes.
	EventNewComment = "newComment"
)

// Notification is the canonical message pushed to connected browsers.
type Notification interface {
	EventName() string
}

// NewIssue announces an opened issue.
type NewIssue struct {
	IID         int64  `json:"iid"`
	Title       string `json:"title"`
	Author      User   `json:"author"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	State       string `json:"state"`
}

// EventName implements Notification.
func (NewIssue) EventName() string { return EventNewIssue }

// StatusUpdated announces a closed or reopened issue.
type StatusUpdated struct {
	IID       int64  `json:"iid"`
	Author    User   `json:"author"`
	CreatedAt string `json:"created_at"`
	NewState  string `json:"newState"`
}

// EventName implements Notification.
func (StatusUpdated) EventName() string { return EventStatusUpdated }

// NewComment announces a note created on an issue.
type NewComment struct {
	IID       int64  `json:"iid"`
	Note      string `json:"note"`
	Author    User   `json:"author"`
	CreatedAt string `json:"created_at"`
}

// EventName implements Notification.
func (NewComment) EventName() string { return EventNewComment }
