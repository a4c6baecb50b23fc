// Package memory implements tracker.Tracker with in-memory data structures.
// It backs offline rehearsals (`steward sync --tracker memory`) and the
// engine tests.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/douhashi/steward/internal/tracker"
)

// Name はレジストリに登録する名前
const Name = "memory"

func init() {
	tracker.Register(Name, func(conn tracker.Connection, priorities tracker.PriorityNames) (tracker.Tracker, error) {
		return New(WithProject(conn.Project), WithPriorityNames(priorities)), nil
	})
}

// Op はトラッカー操作の種類
type Op string

const (
	OpSearch     Op = "search"
	OpCreate     Op = "create"
	OpUpdate     Op = "update"
	OpRefresh    Op = "refresh"
	OpComments   Op = "comments"
	OpAddComment Op = "add_comment"
)

// FailFunc decides whether an operation should fail. key is empty for
// search and create.
type FailFunc func(op Op, key string, builder tracker.IssueBuilder) error

// Tracker is a thread-safe in-memory tracker.
type Tracker struct {
	mu sync.RWMutex

	issues   map[string]*tracker.Issue
	order    []string
	comments map[string][]*tracker.Comment
	counters map[string]int
	calls    map[Op]int

	project    string
	priorities tracker.PriorityNames
	now        func() time.Time
	lazyLabels bool
	fail       FailFunc
}

// Option はTrackerの設定を変更する
type Option func(*Tracker)

// WithProject は作成時に使う既定のプロジェクトキーを設定する
func WithProject(project string) Option {
	return func(t *Tracker) {
		t.project = project
	}
}

// WithPriorityNames は優先度名の対応表を設定する
func WithPriorityNames(names tracker.PriorityNames) Option {
	return func(t *Tracker) {
		t.priorities = names
	}
}

// WithClock は現在時刻の取得関数を設定する
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithLazyLabels makes Search return issues without labels, the way trackers
// that page labels separately behave. Refresh always returns labels.
func WithLazyLabels() Option {
	return func(t *Tracker) {
		t.lazyLabels = true
	}
}

// New creates an empty in-memory tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		issues:   make(map[string]*tracker.Issue),
		comments: make(map[string][]*tracker.Comment),
		counters: make(map[string]int),
		calls:    make(map[Op]int),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// FailWhen installs a failure injection hook. Passing nil removes it.
func (t *Tracker) FailWhen(fn FailFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fail = fn
}

// Seed stores issues as they are, keeping their keys and timestamps.
func (t *Tracker) Seed(issues ...*tracker.Issue) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, issue := range issues {
		c := issue.Clone()
		if c.Labels == nil {
			c.Labels = []string{}
		}
		t.store(c)

		// 作成時の採番が既存キーと衝突しないようにする
		if i := strings.LastIndex(c.Key, "-"); i > 0 {
			if n, err := strconv.Atoi(c.Key[i+1:]); err == nil && n > t.counters[c.Key[:i]] {
				t.counters[c.Key[:i]] = n
			}
		}
	}
}

// SeedComment は課題に既存のコメントを追加する
func (t *Tracker) SeedComment(key string, comment *tracker.Comment) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := *comment
	t.comments[key] = append(t.comments[key], &c)
}

// Get は保存されている課題のコピーを返す
func (t *Tracker) Get(key string) (*tracker.Issue, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	issue, ok := t.issues[key]
	return issue.Clone(), ok
}

// Issues は保存順に全ての課題のコピーを返す
func (t *Tracker) Issues() []*tracker.Issue {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*tracker.Issue, 0, len(t.order))
	for _, key := range t.order {
		out = append(out, t.issues[key].Clone())
	}
	return out
}

// Calls は操作ごとの呼び出し回数を返す
func (t *Tracker) Calls(op Op) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.calls[op]
}

// Search returns every stored issue matching the query, in insertion order.
func (t *Tracker) Search(ctx context.Context, query *tracker.Query) ([]*tracker.Issue, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(ctx, OpSearch, "", tracker.IssueBuilder{}); err != nil {
		return nil, err
	}

	var out []*tracker.Issue
	for _, key := range t.order {
		issue := t.issues[key]
		if !query.Match(issue) {
			continue
		}
		c := issue.Clone()
		if t.lazyLabels {
			c.Labels = nil
		}
		out = append(out, c)
	}
	return out, nil
}

// Create stores a new issue keyed `<PROJECT>-<n>`.
func (t *Tracker) Create(ctx context.Context, builder tracker.IssueBuilder) (*tracker.Issue, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(ctx, OpCreate, "", builder); err != nil {
		return nil, err
	}

	project := t.project
	if builder.Project != nil && *builder.Project != "" {
		project = *builder.Project
	}
	if project == "" {
		return nil, fmt.Errorf("project is required to create an issue")
	}

	t.counters[project]++
	now := t.now()
	issue := builder.Apply(&tracker.Issue{
		Key:        project + "-" + strconv.Itoa(t.counters[project]),
		ProjectKey: project,
		Status:     "Open",
		CreatedAt:  now,
		UpdatedAt:  now,
		Labels:     []string{},
	})
	issue.ProjectKey = project
	t.store(issue)
	return issue.Clone(), nil
}

// Update applies the builder to a stored issue.
func (t *Tracker) Update(ctx context.Context, issue *tracker.Issue, builder tracker.IssueBuilder) (*tracker.Issue, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(ctx, OpUpdate, issue.Key, builder); err != nil {
		return nil, err
	}

	current, ok := t.issues[issue.Key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", issue.Key, tracker.ErrNotFound)
	}
	updated := builder.Apply(current)
	updated.UpdatedAt = t.now()
	t.store(updated)
	return updated.Clone(), nil
}

// Refresh は課題をラベル付きで再取得する
func (t *Tracker) Refresh(ctx context.Context, issue *tracker.Issue) (*tracker.Issue, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(ctx, OpRefresh, issue.Key, tracker.IssueBuilder{}); err != nil {
		return nil, err
	}

	current, ok := t.issues[issue.Key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", issue.Key, tracker.ErrNotFound)
	}
	return current.Clone(), nil
}

// Comments は課題のコメントを投稿順に返す
func (t *Tracker) Comments(ctx context.Context, issue *tracker.Issue) ([]*tracker.Comment, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(ctx, OpComments, issue.Key, tracker.IssueBuilder{}); err != nil {
		return nil, err
	}

	out := make([]*tracker.Comment, 0, len(t.comments[issue.Key]))
	for _, c := range t.comments[issue.Key] {
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

// AddComment は課題にコメントを追加する
func (t *Tracker) AddComment(ctx context.Context, issue *tracker.Issue, body string) (*tracker.Comment, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(ctx, OpAddComment, issue.Key, tracker.IssueBuilder{}); err != nil {
		return nil, err
	}
	if _, ok := t.issues[issue.Key]; !ok {
		return nil, fmt.Errorf("%s: %w", issue.Key, tracker.ErrNotFound)
	}

	now := t.now()
	comment := &tracker.Comment{
		ID:        strconv.Itoa(len(t.comments[issue.Key]) + 1),
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.comments[issue.Key] = append(t.comments[issue.Key], comment)
	copied := *comment
	return &copied, nil
}

// ContentsMatch は改行コードと前後の空白を無視して比較する
func (t *Tracker) ContentsMatch(a, b string) bool {
	return normalize(a) == normalize(b)
}

// PriorityName は優先度の表示名を返す
func (t *Tracker) PriorityName(p tracker.Priority) string {
	return t.priorities.Name(p)
}

// begin counts the call and runs the failure hook. Callers hold t.mu.
func (t *Tracker) begin(ctx context.Context, op Op, key string, builder tracker.IssueBuilder) error {
	t.calls[op]++
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.fail != nil {
		if err := t.fail(op, key, builder); err != nil {
			return err
		}
	}
	return nil
}

// store は課題を保存する。呼び出し側でt.muを保持すること
func (t *Tracker) store(issue *tracker.Issue) {
	if _, exists := t.issues[issue.Key]; !exists {
		t.order = append(t.order, issue.Key)
	}
	t.issues[issue.Key] = issue
}

func normalize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}
