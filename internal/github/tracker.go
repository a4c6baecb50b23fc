package github

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/go-github/v50/github"

	"github.com/douhashi/steward/internal/logger"
	"github.com/douhashi/steward/internal/tracker"
)

// Name はレジストリに登録する名前
const Name = "github"

func init() {
	tracker.Register(Name, func(conn tracker.Connection, priorities tracker.PriorityNames) (tracker.Tracker, error) {
		t, err := New(conn, priorities)
		if err != nil {
			return nil, err
		}
		return t, nil
	})
}

var _ tracker.Tracker = (*Tracker)(nil)

// Tracker implements tracker.Tracker on GitHub issues. Status, priority and
// issue type live in reserved labels (status:, priority:, type:); statuses in
// the closed set also close the GitHub issue.
type Tracker struct {
	client *Client
	repo   Repo
	codec  labelCodec
}

// Option はTrackerの設定オプション
type Option func(*options)

type options struct {
	client []ClientOption
}

// WithClientOptions はGitHub APIクライアントのオプションを追加する
func WithClientOptions(opts ...ClientOption) Option {
	return func(o *options) {
		o.client = append(o.client, opts...)
	}
}

// WithLogger はHTTP通信のデバッグログ出力先を設定する
func WithLogger(l logger.Logger) Option {
	return WithClientOptions(WithClientLogger(l))
}

// New creates a GitHub tracker for the repository named by conn.Project.
// conn.APIKey is the token; conn.Endpoint selects GitHub Enterprise.
func New(conn tracker.Connection, priorities tracker.PriorityNames, opts ...Option) (*Tracker, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	repo, err := ParseRepo(conn.Project)
	if err != nil {
		return nil, err
	}
	clientOpts := append([]ClientOption{WithEndpoint(conn.Endpoint)}, o.client...)
	client, err := NewClient(conn.APIKey, clientOpts...)
	if err != nil {
		return nil, err
	}

	return &Tracker{
		client: client,
		repo:   repo,
		codec:  labelCodec{priorities: priorities, closed: conn.ClosedStatuses},
	}, nil
}

// Repo は既定のリポジトリを返す
func (t *Tracker) Repo() Repo {
	return t.repo
}

// Search lists the issues of the queried repository. Single-valued label and
// type conditions are pushed down as GitHub label filters; every condition is
// then evaluated in memory.
func (t *Tracker) Search(ctx context.Context, query *tracker.Query) ([]*tracker.Issue, error) {
	repo, filters, err := t.pushDown(query)
	if err != nil {
		return nil, err
	}

	found, err := t.client.ListIssues(ctx, repo, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues of %s: %w", repo, err)
	}

	local := normalizeProjects(query)
	out := make([]*tracker.Issue, 0, len(found))
	for _, gh := range found {
		issue := t.codec.toIssue(repo, gh)
		if local.Match(issue) {
			out = append(out, issue)
		}
	}
	return out, nil
}

// pushDown はクエリから対象リポジトリとGitHubのラベルフィルタを取り出す
func (t *Tracker) pushDown(query *tracker.Query) (Repo, []string, error) {
	repo := t.repo
	var filters []string
	if query == nil {
		return repo, nil, nil
	}
	for _, c := range query.Conditions {
		if c.Operator != tracker.Matching || len(c.Values) != 1 {
			continue
		}
		switch c.Field {
		case tracker.FieldProject:
			r, err := ParseRepo(c.Values[0])
			if err != nil {
				return Repo{}, nil, err
			}
			repo = r
		case tracker.FieldLabel:
			// カンマを含むラベルはフィルタに渡せないため、メモリ上の判定に任せる
			if v := c.Values[0]; v != "" && !strings.Contains(v, ",") {
				filters = append(filters, v)
			}
		case tracker.FieldType:
			if v := c.Values[0]; v != "" && !strings.Contains(v, ",") {
				filters = append(filters, TypeLabelPrefix+v)
			}
		}
	}
	return repo, filters, nil
}

// normalizeProjects はプロジェクト条件の値をowner/repo形式に揃えたクエリを返す。
// 課題のProjectKeyは常にowner/repo形式のため、URLやSSH形式の指定でも一致させる
func normalizeProjects(query *tracker.Query) *tracker.Query {
	if query == nil {
		return nil
	}
	out := &tracker.Query{Conditions: make([]tracker.Condition, 0, len(query.Conditions))}
	for _, c := range query.Conditions {
		if c.Field == tracker.FieldProject {
			values := make([]string, 0, len(c.Values))
			for _, v := range c.Values {
				if r, err := ParseRepo(v); err == nil {
					v = r.String()
				}
				values = append(values, v)
			}
			c.Values = values
		}
		out.Conditions = append(out.Conditions, c)
	}
	return out
}

// Create は課題を作成する。ステータスが完了扱いの場合は作成後にクローズする
func (t *Tracker) Create(ctx context.Context, builder tracker.IssueBuilder) (*tracker.Issue, error) {
	repo := t.repo
	if builder.Project != nil && *builder.Project != "" {
		r, err := ParseRepo(*builder.Project)
		if err != nil {
			return nil, err
		}
		repo = r
	}

	draft := builder.Apply(&tracker.Issue{ProjectKey: repo.String(), Labels: []string{}})
	labels := t.codec.encode(draft)
	req := &github.IssueRequest{
		Title:  github.String(draft.Title),
		Body:   github.String(draft.Description),
		Labels: &labels,
	}
	if draft.Assignee != "" {
		req.Assignees = &[]string{draft.Assignee}
	}

	created, err := t.client.CreateIssue(ctx, repo, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create issue in %s: %w", repo, err)
	}

	if draft.Status != "" && t.codec.state(draft.Status) == stateClosed {
		number := created.GetNumber()
		created, err = t.client.EditIssue(ctx, repo, number, &github.IssueRequest{State: github.String(stateClosed)})
		if err != nil {
			return nil, fmt.Errorf("failed to close %s: %w", repo.IssueKey(number), err)
		}
	}
	return t.codec.toIssue(repo, created), nil
}

// Update applies the builder in one edit request. Any change to labels,
// priority, type or status rewrites the whole label set.
func (t *Tracker) Update(ctx context.Context, issue *tracker.Issue, builder tracker.IssueBuilder) (*tracker.Issue, error) {
	repo, number, err := ParseIssueKey(issue.Key)
	if err != nil {
		return nil, err
	}
	if !issue.LabelsLoaded() {
		if issue, err = t.Refresh(ctx, issue); err != nil {
			return nil, err
		}
	}

	next := builder.Apply(issue)
	req := &github.IssueRequest{}
	if builder.Title != nil {
		req.Title = github.String(next.Title)
	}
	if builder.Description != nil {
		req.Body = github.String(next.Description)
	}
	if builder.Assignee != nil {
		assignees := []string{}
		if next.Assignee != "" {
			assignees = append(assignees, next.Assignee)
		}
		req.Assignees = &assignees
	}
	if builder.Labels != nil || builder.Priority != nil || builder.IssueType != nil || builder.Status != nil {
		labels := t.codec.encode(next)
		req.Labels = &labels
	}
	if builder.Status != nil {
		req.State = github.String(t.codec.state(next.Status))
	}

	edited, err := t.client.EditIssue(ctx, repo, number, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", issue.Key, err)
	}
	return t.codec.toIssue(repo, edited), nil
}

// Refresh は課題を再取得する
func (t *Tracker) Refresh(ctx context.Context, issue *tracker.Issue) (*tracker.Issue, error) {
	repo, number, err := ParseIssueKey(issue.Key)
	if err != nil {
		return nil, err
	}
	gh, err := t.client.GetIssue(ctx, repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", issue.Key, err)
	}
	return t.codec.toIssue(repo, gh), nil
}

// Comments は課題のコメントを投稿順に返す
func (t *Tracker) Comments(ctx context.Context, issue *tracker.Issue) ([]*tracker.Comment, error) {
	repo, number, err := ParseIssueKey(issue.Key)
	if err != nil {
		return nil, err
	}
	found, err := t.client.ListComments(ctx, repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments of %s: %w", issue.Key, err)
	}
	out := make([]*tracker.Comment, 0, len(found))
	for _, c := range found {
		out = append(out, toComment(c))
	}
	return out, nil
}

// AddComment は課題にコメントを投稿する
func (t *Tracker) AddComment(ctx context.Context, issue *tracker.Issue, body string) (*tracker.Comment, error) {
	repo, number, err := ParseIssueKey(issue.Key)
	if err != nil {
		return nil, err
	}
	c, err := t.client.CreateComment(ctx, repo, number, body)
	if err != nil {
		return nil, fmt.Errorf("failed to comment on %s: %w", issue.Key, err)
	}
	return toComment(c), nil
}

// ContentsMatch compares bodies ignoring CRLF line endings and surrounding
// whitespace; GitHub normalizes both on save.
func (t *Tracker) ContentsMatch(a, b string) bool {
	return normalizeBody(a) == normalizeBody(b)
}

// PriorityName は優先度のラベル名（priority:<name> の name）を返す
func (t *Tracker) PriorityName(p tracker.Priority) string {
	return t.codec.priorities.Name(p)
}

func toComment(c *github.IssueComment) *tracker.Comment {
	return &tracker.Comment{
		ID:        strconv.FormatInt(c.GetID(), 10),
		Body:      c.GetBody(),
		Author:    c.GetUser().GetLogin(),
		CreatedAt: c.GetCreatedAt().Time,
		UpdatedAt: c.GetUpdatedAt().Time,
	}
}

func normalizeBody(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}
