package tracker

import (
	"context"
	"errors"
)

var (
	// ErrAmbiguousMatch は1つのFindingに複数のIssueが一致した場合のエラー
	ErrAmbiguousMatch = errors.New("more than one issue matched")
	// ErrNotFound はIssueが見つからない場合のエラー
	ErrNotFound = errors.New("issue not found")
)

// Tracker is the capability set every tracker layer provides. The context
// cache and the dry-run facade implement it by delegating to an inner Tracker.
type Tracker interface {
	// Search returns every issue satisfying the query.
	Search(ctx context.Context, query *Query) ([]*Issue, error)
	// Create creates a new issue from the builder.
	Create(ctx context.Context, builder IssueBuilder) (*Issue, error)
	// Update applies the builder to an existing issue and returns the result.
	Update(ctx context.Context, issue *Issue, builder IssueBuilder) (*Issue, error)
	// Refresh reloads an issue, including its labels.
	Refresh(ctx context.Context, issue *Issue) (*Issue, error)
	// Comments loads the comments of an issue.
	Comments(ctx context.Context, issue *Issue) ([]*Comment, error)
	// AddComment posts a comment to an issue.
	AddComment(ctx context.Context, issue *Issue, body string) (*Comment, error)
	// ContentsMatch compares two descriptions using the tracker's content rules.
	ContentsMatch(a, b string) bool
	// PriorityName returns the tracker's display name for a priority.
	PriorityName(p Priority) string
}

// Connection はトラッカーへの接続情報
type Connection struct {
	Endpoint string
	APIKey   string
	Username string
	Password string
	// Project はアダプタが既定で参照するプロジェクト（GitHubでは owner/repo）
	Project string
	// ClosedStatuses はトラッカー側で完了状態として扱うステータス
	ClosedStatuses []string
}
