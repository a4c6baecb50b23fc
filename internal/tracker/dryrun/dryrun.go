// Package dryrun wraps a tracker so that reads go through and writes are only
// simulated.
package dryrun

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/douhashi/steward/internal/logger"
	"github.com/douhashi/steward/internal/tracker"
)

// KeyPrefix は合成した課題キーのプレフィックス
const KeyPrefix = "DRYRUN-"

// Tracker intercepts Create, Update and AddComment and returns what the
// result would have been. Search, Refresh and Comments hit the inner tracker.
type Tracker struct {
	inner  tracker.Tracker
	logger logger.Logger
	now    func() time.Time

	mu      sync.Mutex
	counter int
}

var _ tracker.Tracker = (*Tracker)(nil)

// New はinnerを包むドライランTrackerを作成する
func New(inner tracker.Tracker, log logger.Logger) *Tracker {
	if log == nil {
		log = logger.Nop()
	}
	return &Tracker{
		inner:  inner,
		logger: log.WithFields("dry_run", true),
		now:    time.Now,
	}
}

// WithClock は合成する課題・コメントの時刻の取得関数を差し替える
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Search は内側のTrackerに委譲する
func (t *Tracker) Search(ctx context.Context, query *tracker.Query) ([]*tracker.Issue, error) {
	return t.inner.Search(ctx, query)
}

// Create returns a synthetic issue with a DRYRUN-<n> key.
func (t *Tracker) Create(ctx context.Context, builder tracker.IssueBuilder) (*tracker.Issue, error) {
	now := t.now()
	issue := builder.Apply(&tracker.Issue{
		Key:       KeyPrefix + strconv.Itoa(t.next()),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if issue.Status == "" {
		issue.Status = "Open"
	}
	if issue.Labels == nil {
		issue.Labels = []string{}
	}

	t.logger.Info("Would create issue",
		"issue_key", issue.Key,
		"title", issue.Title,
		"labels", issue.Labels,
	)
	return issue, nil
}

// Update returns the builder layered over the original issue.
func (t *Tracker) Update(ctx context.Context, issue *tracker.Issue, builder tracker.IssueBuilder) (*tracker.Issue, error) {
	updated := builder.Apply(issue)
	updated.UpdatedAt = t.now()

	t.logger.Info("Would update issue",
		"issue_key", issue.Key,
		"status", updated.Status,
	)
	return updated, nil
}

// Refresh は内側のTrackerに委譲する。合成した課題はそのまま返す
func (t *Tracker) Refresh(ctx context.Context, issue *tracker.Issue) (*tracker.Issue, error) {
	if isSynthetic(issue) {
		return issue.Clone(), nil
	}
	return t.inner.Refresh(ctx, issue)
}

// Comments は内側のTrackerに委譲する。合成した課題にはコメントがない
func (t *Tracker) Comments(ctx context.Context, issue *tracker.Issue) ([]*tracker.Comment, error) {
	if isSynthetic(issue) {
		return nil, nil
	}
	return t.inner.Comments(ctx, issue)
}

// AddComment returns a synthetic comment without posting it.
func (t *Tracker) AddComment(ctx context.Context, issue *tracker.Issue, body string) (*tracker.Comment, error) {
	now := t.now()
	comment := &tracker.Comment{
		ID:        KeyPrefix + strconv.Itoa(t.next()),
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	t.logger.Info("Would add comment",
		"issue_key", issue.Key,
		"body", body,
	)
	return comment, nil
}

// ContentsMatch は内側のTrackerに委譲する
func (t *Tracker) ContentsMatch(a, b string) bool {
	return t.inner.ContentsMatch(a, b)
}

// PriorityName は内側のTrackerに委譲する
func (t *Tracker) PriorityName(p tracker.Priority) string {
	return t.inner.PriorityName(p)
}

func (t *Tracker) next() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counter++
	return t.counter
}

func isSynthetic(issue *tracker.Issue) bool {
	return issue != nil && len(issue.Key) > len(KeyPrefix) && issue.Key[:len(KeyPrefix)] == KeyPrefix
}
