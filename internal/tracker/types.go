// Package tracker defines the issue tracker facade used by the reconciliation
// engine and the value types that flow through it.
//
// Adapters (GitHub, in-memory) implement Tracker; the context cache and the
// dry-run facade wrap another Tracker and implement it again, so the engine
// only ever sees one interface regardless of how the stack is composed.
package tracker

import (
	"fmt"
	"strings"
	"time"
)

// Issue represents a work item in the external tracker.
type Issue struct {
	Key         string
	ProjectKey  string
	Title       string
	Description string
	Type        string
	Status      string
	Priority    *Priority
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DueAt       *time.Time
	Reporter    string
	Assignee    string
	Subscribers []string
	// Labels が nil の場合はまだ読み込まれていない（Refreshが必要）
	Labels []string
	URL    string
}

// Comment represents a comment on an issue.
type Comment struct {
	ID        string
	Body      string
	Author    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone はIssueのコピーを返す（スライスも複製する）
func (i *Issue) Clone() *Issue {
	if i == nil {
		return nil
	}
	c := *i
	if i.Priority != nil {
		p := *i.Priority
		c.Priority = &p
	}
	if i.DueAt != nil {
		d := *i.DueAt
		c.DueAt = &d
	}
	if i.Labels != nil {
		c.Labels = append([]string{}, i.Labels...)
	}
	if i.Subscribers != nil {
		c.Subscribers = append([]string{}, i.Subscribers...)
	}
	return &c
}

// LabelsLoaded はラベルが読み込み済みかどうかを返す
func (i *Issue) LabelsLoaded() bool {
	return i.Labels != nil
}

// HasLabel はラベルを大文字小文字を区別せずに検索する
func (i *Issue) HasLabel(label string) bool {
	for _, l := range i.Labels {
		if strings.EqualFold(l, label) {
			return true
		}
	}
	return false
}

// String returns a short human readable form used in log lines.
func (i *Issue) String() string {
	if i == nil {
		return "<nil>"
	}
	if i.URL != "" {
		return fmt.Sprintf("%s [%s] %s (%s)", i.Key, i.Status, i.Title, i.URL)
	}
	return fmt.Sprintf("%s [%s] %s", i.Key, i.Status, i.Title)
}

// Keys はIssueのキー一覧を返す
func Keys(issues []*Issue) []string {
	keys := make([]string, 0, len(issues))
	for _, issue := range issues {
		keys = append(keys, issue.Key)
	}
	return keys
}
