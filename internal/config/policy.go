package config

import (
	"strings"
	"time"

	"github.com/douhashi/steward/internal/tracker"
)

// DefaultCommentIntervalDays は同じコメントを再投稿するまでの既定の日数
const DefaultCommentIntervalDays = 30

const day = 24 * time.Hour

// Policy は自動解決・自動再オープンの動作設定
type Policy struct {
	AfterDays           int  `mapstructure:"after_days"`
	Transition          bool `mapstructure:"transition"`
	Comment             bool `mapstructure:"comment"`
	CommentIntervalDays int  `mapstructure:"comment_interval_days"`
	IncludeIgnored      bool `mapstructure:"include_ignored"`
}

// Enabled は遷移またはコメントのいずれかが有効かを返す
func (p Policy) Enabled() bool {
	return p.Transition || p.Comment
}

// Interval はコメントの再投稿間隔を返す。1未満の場合は既定値
func (p Policy) Interval() time.Duration {
	if p.CommentIntervalDays < 1 {
		return DefaultCommentIntervalDays * day
	}
	return time.Duration(p.CommentIntervalDays) * day
}

// Ready reports whether the issue is old enough for the policy to act.
// AfterDays of zero means immediately.
func (p Policy) Ready(issue *tracker.Issue, now time.Time) bool {
	if p.AfterDays <= 0 {
		return true
	}
	return now.Sub(issue.CreatedAt) > time.Duration(p.AfterDays)*day
}

// CanTransition は遷移が有効で、かつ経過日数の条件を満たすかを返す
func (p Policy) CanTransition(issue *tracker.Issue, now time.Time) bool {
	return p.Transition && p.Ready(issue, now)
}

// Commentable reports whether marker may be posted: comments are enabled,
// the issue is old enough, and no comment containing marker
// (case-insensitive) was updated within the interval.
func (p Policy) Commentable(issue *tracker.Issue, comments []*tracker.Comment, marker string, now time.Time) bool {
	if !p.Comment || !p.Ready(issue, now) {
		return false
	}
	needle := strings.ToLower(marker)
	cutoff := now.Add(-p.Interval())
	for _, c := range comments {
		if c == nil || !strings.Contains(strings.ToLower(c.Body), needle) {
			continue
		}
		updated := c.UpdatedAt
		if updated.IsZero() {
			updated = c.CreatedAt
		}
		if !updated.Before(cutoff) {
			return false
		}
	}
	return true
}
