package github

import (
	"fmt"
	"strconv"
	"strings"
)

// Repo はGitHubリポジトリの識別子（owner/repo）
type Repo struct {
	Owner string
	Name  string
}

// ParseRepo は "owner/repo" 形式のプロジェクトキーを解析する。
// https://github.com/owner/repo、ssh://git@github.com/owner/repo、
// git@github.com:owner/repo 形式のリモートURLも受け付ける
func ParseRepo(s string) (Repo, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".git")
	if i := strings.Index(s, "://"); i >= 0 {
		// スキームとホストを取り除く
		rest := s[i+3:]
		if j := strings.Index(rest, "/"); j >= 0 {
			s = rest[j+1:]
		}
	} else if at := strings.Index(s, "@"); at >= 0 {
		// scp形式 user@host:owner/repo
		if colon := strings.Index(s[at:], ":"); colon >= 0 {
			s = s[at+colon+1:]
		}
	}
	s = strings.Trim(s, "/")

	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repo{}, fmt.Errorf("invalid repository %q: expected owner/repo", s)
	}
	return Repo{Owner: owner, Name: name}, nil
}

// String は "owner/repo" を返す
func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// IssueKey は "owner/repo#123" 形式の課題キーを返す
func (r Repo) IssueKey(number int) string {
	return r.String() + "#" + strconv.Itoa(number)
}

// ParseIssueKey splits an "owner/repo#123" key into repository and number.
func ParseIssueKey(key string) (Repo, int, error) {
	repoPart, numPart, ok := strings.Cut(key, "#")
	if !ok {
		return Repo{}, 0, fmt.Errorf("invalid issue key %q: expected owner/repo#number", key)
	}
	repo, err := ParseRepo(repoPart)
	if err != nil {
		return Repo{}, 0, fmt.Errorf("invalid issue key %q: %w", key, err)
	}
	number, err := strconv.Atoi(numPart)
	if err != nil || number <= 0 {
		return Repo{}, 0, fmt.Errorf("invalid issue key %q: bad issue number", key)
	}
	return repo, number, nil
}
