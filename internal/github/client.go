package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v50/github"
	"golang.org/x/oauth2"

	"github.com/douhashi/steward/internal/logger"
)

const perPage = 100

// Client はGitHub APIクライアントのラッパー
type Client struct {
	github *github.Client
}

type clientConfig struct {
	endpoint  string
	baseURL   string
	logger    logger.Logger
	transport http.RoundTripper
}

// ClientOption はClientの設定オプション
type ClientOption func(*clientConfig)

// WithEndpoint はGitHub EnterpriseのURLを設定する（空の場合はgithub.com）
func WithEndpoint(endpoint string) ClientOption {
	return func(c *clientConfig) {
		c.endpoint = strings.TrimSpace(endpoint)
	}
}

// WithBaseURL sets the exact API base URL without the Enterprise path
// rewriting. Tests point it at an httptest server.
func WithBaseURL(raw string) ClientOption {
	return func(c *clientConfig) {
		c.baseURL = raw
	}
}

// WithClientLogger はHTTP通信のデバッグログ出力先を設定する
func WithClientLogger(l logger.Logger) ClientOption {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithTransport は内側のRoundTripperを差し替える
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *clientConfig) {
		c.transport = rt
	}
}

// NewClient は新しいGitHub APIクライアントを作成する
func NewClient(token string, opts ...ClientOption) (*Client, error) {
	if token == "" {
		return nil, errors.New("GitHub token is required")
	}

	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Source: ts,
			Base:   newLoggingRoundTripper(cfg.transport, cfg.logger),
		},
	}

	gh := github.NewClient(httpClient)
	switch {
	case cfg.baseURL != "":
		u, err := url.Parse(cfg.baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL %q: %w", cfg.baseURL, err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		gh.BaseURL = u
		gh.UploadURL = u
	case cfg.endpoint != "":
		var err error
		gh, err = github.NewEnterpriseClient(cfg.endpoint, cfg.endpoint, httpClient)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub endpoint %q: %w", cfg.endpoint, err)
		}
	}

	return &Client{github: gh}, nil
}

// ListIssues returns every issue of the repository carrying all of the given
// labels, open and closed. Pull requests are skipped.
func (c *Client) ListIssues(ctx context.Context, repo Repo, labels []string) ([]*github.Issue, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "all",
		Labels:      labels,
		Sort:        "created",
		Direction:   "asc",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var all []*github.Issue
	for {
		issues, resp, err := c.github.Issues.ListByRepo(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, ClassifyError(err)
		}
		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}
			all = append(all, issue)
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// GetIssue は課題を1件取得する
func (c *Client) GetIssue(ctx context.Context, repo Repo, number int) (*github.Issue, error) {
	issue, _, err := c.github.Issues.Get(ctx, repo.Owner, repo.Name, number)
	if err != nil {
		return nil, ClassifyError(err)
	}
	return issue, nil
}

// CreateIssue は課題を作成する
func (c *Client) CreateIssue(ctx context.Context, repo Repo, req *github.IssueRequest) (*github.Issue, error) {
	issue, _, err := c.github.Issues.Create(ctx, repo.Owner, repo.Name, req)
	if err != nil {
		return nil, ClassifyError(err)
	}
	return issue, nil
}

// EditIssue は課題を更新する
func (c *Client) EditIssue(ctx context.Context, repo Repo, number int, req *github.IssueRequest) (*github.Issue, error) {
	issue, _, err := c.github.Issues.Edit(ctx, repo.Owner, repo.Name, number, req)
	if err != nil {
		return nil, ClassifyError(err)
	}
	return issue, nil
}

// ListComments は課題のコメントを投稿順にすべて取得する
func (c *Client) ListComments(ctx context.Context, repo Repo, number int) ([]*github.IssueComment, error) {
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var all []*github.IssueComment
	for {
		comments, resp, err := c.github.Issues.ListComments(ctx, repo.Owner, repo.Name, number, opts)
		if err != nil {
			return nil, ClassifyError(err)
		}
		all = append(all, comments...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// CreateComment は課題にコメントを投稿する
func (c *Client) CreateComment(ctx context.Context, repo Repo, number int, body string) (*github.IssueComment, error) {
	comment, _, err := c.github.Issues.CreateComment(ctx, repo.Owner, repo.Name, number, &github.IssueComment{Body: github.String(body)})
	if err != nil {
		return nil, ClassifyError(err)
	}
	return comment, nil
}
