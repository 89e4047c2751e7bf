package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fr0stylo/issuedash/internal/app/domain"
)

type mockIssueTracker struct {
	mock.Mock
}

func (m *mockIssueTracker) ListIssues(ctx context.Context, opts domain.ListIssuesOptions) ([]domain.Issue, domain.Pagination, error) {
	args := m.Called(ctx, opts)
	issues, _ := args.Get(0).([]domain.Issue)
	return issues, args.Get(1).(domain.Pagination), args.Error(2)
}

func (m *mockIssueTracker) GetIssue(ctx context.Context, iid int64) (domain.Issue, error) {
	args := m.Called(ctx, iid)
	return args.Get(0).(domain.Issue), args.Error(1)
}

func (m *mockIssueTracker) CreateIssue(ctx context.Context, draft domain.IssueDraft) (domain.Issue, error) {
	args := m.Called(ctx, draft)
	return args.Get(0).(domain.Issue), args.Error(1)
}

func (m *mockIssueTracker) UpdateIssue(ctx context.Context, iid int64, update domain.IssueUpdate) (domain.Issue, error) {
	args := m.Called(ctx, iid, update)
	return args.Get(0).(domain.Issue), args.Error(1)
}

func (m *mockIssueTracker) ListNotes(ctx context.Context, iid int64) ([]domain.Comment, error) {
	args := m.Called(ctx, iid)
	notes, _ := args.Get(0).([]domain.Comment)
	return notes, args.Error(1)
}

func (m *mockIssueTracker) AddNote(ctx context.Context, iid int64, body string) (domain.Comment, error) {
	args := m.Called(ctx, iid, body)
	return args.Get(0).(domain.Comment), args.Error(1)
}

func (m *mockIssueTracker) GetUser(ctx context.Context, userID int64) (domain.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.User), args.Error(1)
}
