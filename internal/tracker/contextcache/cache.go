// Package contextcache serves a run's issue searches from memory after one
// scoped prefetch against the backing tracker.
package contextcache

import (
	"context"
	"fmt"
	"sync"

	"github.com/douhashi/steward/internal/tracker"
)

// Cache wraps a Tracker. It queries the backing tracker exactly once, at
// construction, and afterwards filters its own copy of the issues. Writes
// made through the Cache are visible to later searches.
type Cache struct {
	backing tracker.Tracker
	scope   *tracker.Query

	mu     sync.RWMutex
	issues map[string]*tracker.Issue
	order  []string
}

var _ tracker.Tracker = (*Cache)(nil)

// New runs the scope query against backing and caches every result.
func New(ctx context.Context, backing tracker.Tracker, scope *tracker.Query) (*Cache, error) {
	issues, err := backing.Search(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to prefetch issues for %s: %w", scope, err)
	}

	c := &Cache{
		backing: backing,
		scope:   scope,
		issues:  make(map[string]*tracker.Issue, len(issues)),
	}
	for _, issue := range issues {
		c.put(issue)
	}
	return c, nil
}

// Scope はキャッシュ作成時の検索条件を返す
func (c *Cache) Scope() *tracker.Query {
	return c.scope
}

// Len はキャッシュされている課題の数を返す
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.issues)
}

// Search filters the cached issues. Conditions are evaluated in order and an
// issue whose labels were not loaded is refreshed once, through the backing
// tracker, when the first label condition reaches it.
func (c *Cache) Search(ctx context.Context, query *tracker.Query) ([]*tracker.Issue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []*tracker.Issue
	for _, key := range c.order {
		issue := c.issues[key]
		matched, err := c.match(ctx, issue, query)
		if err != nil {
			return nil, err
		}
		if matched {
			out = append(out, c.issues[key].Clone())
		}
	}
	return out, nil
}

// match はc.muを保持した状態で呼び出すこと
func (c *Cache) match(ctx context.Context, issue *tracker.Issue, query *tracker.Query) (bool, error) {
	if query == nil {
		return true, nil
	}
	for _, cond := range query.Conditions {
		if cond.Field == tracker.FieldLabel && !issue.LabelsLoaded() {
			refreshed, err := c.backing.Refresh(ctx, issue)
			if err != nil {
				return false, fmt.Errorf("failed to load labels of %s: %w", issue.Key, err)
			}
			if refreshed.Labels == nil {
				refreshed.Labels = []string{}
			}
			c.putLocked(refreshed)
			issue = c.issues[refreshed.Key]
		}
		if !cond.Match(issue) {
			return false, nil
		}
	}
	return true, nil
}

// Create は課題を作成しキャッシュに追加する
func (c *Cache) Create(ctx context.Context, builder tracker.IssueBuilder) (*tracker.Issue, error) {
	issue, err := c.backing.Create(ctx, builder)
	if err != nil {
		return nil, err
	}
	c.put(issue)
	return issue, nil
}

// Update は課題を更新しキャッシュを置き換える
func (c *Cache) Update(ctx context.Context, issue *tracker.Issue, builder tracker.IssueBuilder) (*tracker.Issue, error) {
	updated, err := c.backing.Update(ctx, issue, builder)
	if err != nil {
		return nil, err
	}
	c.put(updated)
	return updated, nil
}

// Refresh は課題を再取得しキャッシュを置き換える
func (c *Cache) Refresh(ctx context.Context, issue *tracker.Issue) (*tracker.Issue, error) {
	refreshed, err := c.backing.Refresh(ctx, issue)
	if err != nil {
		return nil, err
	}
	c.put(refreshed)
	return refreshed, nil
}

// Comments delegates to the backing tracker.
func (c *Cache) Comments(ctx context.Context, issue *tracker.Issue) ([]*tracker.Comment, error) {
	return c.backing.Comments(ctx, issue)
}

// AddComment delegates to the backing tracker.
func (c *Cache) AddComment(ctx context.Context, issue *tracker.Issue, body string) (*tracker.Comment, error) {
	return c.backing.AddComment(ctx, issue, body)
}

// ContentsMatch delegates to the backing tracker.
func (c *Cache) ContentsMatch(a, b string) bool {
	return c.backing.ContentsMatch(a, b)
}

// PriorityName delegates to the backing tracker.
func (c *Cache) PriorityName(p tracker.Priority) string {
	return c.backing.PriorityName(p)
}

func (c *Cache) put(issue *tracker.Issue) {
	if issue == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(issue)
}

func (c *Cache) putLocked(issue *tracker.Issue) {
	if _, exists := c.issues[issue.Key]; !exists {
		c.order = append(c.order, issue.Key)
	}
	c.issues[issue.Key] = issue.Clone()
}
