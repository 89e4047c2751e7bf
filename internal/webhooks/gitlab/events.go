package gitlab

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fr0stylo/issuedash/internal/app/domain"
)

const (
	kindIssue = "issue"
	kindNote  = "note"

	actionOpen    = "open"
	actionClose   = "close"
	actionReopen  = "reopen"
	actionCreate  = "create"
	noteableIssue = "Issue"
)

// Event is one decoded webhook delivery. The set of variants is closed.
type Event interface {
	kind() string
}

// IssueOpened is an issue hook with action open.
type IssueOpened struct {
	IID         int64
	Title       string
	Description string
	State       string
	CreatedAt   string
	UpdatedAt   string
	AuthorID    int64
}

// IssueStateChanged is an issue hook with action close or reopen.
type IssueStateChanged struct {
	IID       int64
	Action    string
	State     string
	CreatedAt string
	AuthorID  int64
}

// NoteCreated is a note hook with action create on an issue.
type NoteCreated struct {
	IID       int64
	Note      string
	CreatedAt string
	Author    domain.User
}

// Ignored is any delivery that produces no notification.
type Ignored struct {
	Kind   string
	Action string
}

func (IssueOpened) kind() string       { return kindIssue }
func (IssueStateChanged) kind() string { return kindIssue }
func (NoteCreated) kind() string       { return kindNote }
func (e Ignored) kind() string         { return e.Kind }

type payload struct {
	ObjectKind       string `json:"object_kind"`
	User             *user  `json:"user"`
	ObjectAttributes struct {
		IID          int64  `json:"iid"`
		Title        string `json:"title"`
		Description  string `json:"description"`
		State        string `json:"state"`
		Action       string `json:"action"`
		AuthorID     int64  `json:"author_id"`
		Note         string `json:"note"`
		NoteableType string `json:"noteable_type"`
		CreatedAt    string `json:"created_at"`
		UpdatedAt    string `json:"updated_at"`
	} `json:"object_attributes"`
	Issue *struct {
		IID int64 `json:"iid"`
	} `json:"issue"`
}

type user struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// Decode maps a webhook body onto its event variant. Unrecognized kinds and
// actions decode to Ignored; only malformed JSON is an error.
func Decode(body []byte) (Event, error) {
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode gitlab webhook: %w", err)
	}
	kind := strings.TrimSpace(p.ObjectKind)
	attrs := p.ObjectAttributes
	action := strings.TrimSpace(attrs.Action)

	switch kind {
	case kindIssue:
		switch action {
		case actionOpen:
			return IssueOpened{
				IID:         attrs.IID,
				Title:       attrs.Title,
				Description: attrs.Description,
				State:       attrs.State,
				CreatedAt:   attrs.CreatedAt,
				UpdatedAt:   attrs.UpdatedAt,
				AuthorID:    attrs.AuthorID,
			}, nil
		case actionClose, actionReopen:
			return IssueStateChanged{
				IID:       attrs.IID,
				Action:    action,
				State:     attrs.State,
				CreatedAt: attrs.CreatedAt,
				AuthorID:  attrs.AuthorID,
			}, nil
		}
	case kindNote:
		if action == actionCreate && p.Issue != nil && p.User != nil &&
			(attrs.NoteableType == "" || attrs.NoteableType == noteableIssue) {
			return NoteCreated{
				IID:       p.Issue.IID,
				Note:      attrs.Note,
				CreatedAt: attrs.CreatedAt,
				Author: domain.User{
					ID:        p.User.ID,
					Username:  p.User.Username,
					Name:      p.User.Name,
					AvatarURL: p.User.AvatarURL,
				},
			}, nil
		}
	}
	return Ignored{Kind: kind, Action: action}, nil
}
