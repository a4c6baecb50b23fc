package mocks

import (
	"context"
	"strings"

	"github.com/stretchr/testify/mock"

	"github.com/douhashi/steward/internal/tracker"
)

// MockTracker is a mock implementation of tracker.Tracker
type MockTracker struct {
	mock.Mock
}

var _ tracker.Tracker = (*MockTracker)(nil)

// NewMockTracker creates a new instance of MockTracker
func NewMockTracker() *MockTracker {
	return &MockTracker{}
}

// WithDefaultBehavior sets up the pure helpers: ContentsMatch compares
// trimmed strings and PriorityName returns "P<n>".
func (m *MockTracker) WithDefaultBehavior() *MockTracker {
	m.On("ContentsMatch", mock.Anything, mock.Anything).Maybe().Return(func(a, b string) bool {
		return strings.TrimSpace(a) == strings.TrimSpace(b)
	})
	m.On("PriorityName", mock.Anything).Maybe().Return(func(p tracker.Priority) string {
		return p.String()
	})
	return m
}

// Search mocks the Search method
func (m *MockTracker) Search(ctx context.Context, query *tracker.Query) ([]*tracker.Issue, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*tracker.Issue), args.Error(1)
}

// Create mocks the Create method
func (m *MockTracker) Create(ctx context.Context, builder tracker.IssueBuilder) (*tracker.Issue, error) {
	args := m.Called(ctx, builder)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tracker.Issue), args.Error(1)
}

// Update mocks the Update method
func (m *MockTracker) Update(ctx context.Context, issue *tracker.Issue, builder tracker.IssueBuilder) (*tracker.Issue, error) {
	args := m.Called(ctx, issue, builder)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tracker.Issue), args.Error(1)
}

// Refresh mocks the Refresh method
func (m *MockTracker) Refresh(ctx context.Context, issue *tracker.Issue) (*tracker.Issue, error) {
	args := m.Called(ctx, issue)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tracker.Issue), args.Error(1)
}

// Comments mocks the Comments method
func (m *MockTracker) Comments(ctx context.Context, issue *tracker.Issue) ([]*tracker.Comment, error) {
	args := m.Called(ctx, issue)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*tracker.Comment), args.Error(1)
}

// AddComment mocks the AddComment method
func (m *MockTracker) AddComment(ctx context.Context, issue *tracker.Issue, body string) (*tracker.Comment, error) {
	args := m.Called(ctx, issue, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tracker.Comment), args.Error(1)
}

// ContentsMatch mocks the ContentsMatch method
func (m *MockTracker) ContentsMatch(a, b string) bool {
	args := m.Called(a, b)
	if fn, ok := args.Get(0).(func(a, b string) bool); ok {
		return fn(a, b)
	}
	return args.Bool(0)
}

// PriorityName mocks the PriorityName method
func (m *MockTracker) PriorityName(p tracker.Priority) string {
	args := m.Called(p)
	if fn, ok := args.Get(0).(func(tracker.Priority) string); ok {
		return fn(p)
	}
	return args.String(0)
}

// StatusUpdate は指定したステータスへの更新だけを設定したビルダーにマッチする
func StatusUpdate(status string) interface{} {
	return mock.MatchedBy(func(b tracker.IssueBuilder) bool {
		return b.Status != nil && *b.Status == status
	})
}
