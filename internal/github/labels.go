package github

import (
	"strings"

	"github.com/google/go-github/v50/github"

	"github.com/douhashi/steward/internal/tracker"
)

// 課題の属性を表す予約ラベルのプレフィックス。Issue.Labels には含めない
const (
	StatusLabelPrefix   = "status:"
	PriorityLabelPrefix = "priority:"
	TypeLabelPrefix     = "type:"
)

// GitHubのstateから導出するステータス（status:ラベルがない場合）
const (
	StatusOpen   = "Open"
	StatusClosed = "Closed"
)

const (
	stateOpen   = "open"
	stateClosed = "closed"
)

// labelCodec converts between GitHub labels and the tracker attributes
// encoded in them.
type labelCodec struct {
	priorities tracker.PriorityNames
	closed     []string
}

// decoded はラベルから読み取った属性
type decoded struct {
	status   string
	priority *tracker.Priority
	kind     string
	visible  []string
}

func (c labelCodec) decode(labels []*github.Label) decoded {
	d := decoded{visible: []string{}}
	for _, l := range labels {
		name := l.GetName()
		switch {
		case hasPrefixFold(name, StatusLabelPrefix):
			if d.status == "" {
				d.status = strings.TrimSpace(name[len(StatusLabelPrefix):])
			}
		case hasPrefixFold(name, PriorityLabelPrefix):
			if d.priority == nil {
				if p, ok := c.priorities.Lookup(strings.TrimSpace(name[len(PriorityLabelPrefix):])); ok {
					d.priority = p.Ptr()
				}
			}
		case hasPrefixFold(name, TypeLabelPrefix):
			if d.kind == "" {
				d.kind = strings.TrimSpace(name[len(TypeLabelPrefix):])
			}
		default:
			d.visible = append(d.visible, name)
		}
	}
	return d
}

// encode returns the full label set for an issue: visible labels first,
// then the reserved labels for the attributes that are set.
func (c labelCodec) encode(issue *tracker.Issue) []string {
	out := make([]string, 0, len(issue.Labels)+3)
	for _, l := range issue.Labels {
		if l == "" || isReserved(l) {
			continue
		}
		out = append(out, l)
	}
	if issue.Type != "" {
		out = append(out, TypeLabelPrefix+issue.Type)
	}
	if issue.Priority != nil {
		if name := c.priorities.Name(*issue.Priority); name != "" {
			out = append(out, PriorityLabelPrefix+name)
		}
	}
	if issue.Status != "" && !isDerivedStatus(issue.Status) {
		out = append(out, StatusLabelPrefix+issue.Status)
	}
	return out
}

// state はステータスに対応するGitHubのstateを返す
func (c labelCodec) state(status string) string {
	if strings.EqualFold(status, StatusClosed) {
		return stateClosed
	}
	for _, s := range c.closed {
		if strings.EqualFold(s, status) {
			return stateClosed
		}
	}
	return stateOpen
}

// closedStatus はstatus:ラベルのないクローズ済み課題のステータスを返す。
// 完了扱いのステータスが設定されていればその先頭を使い、検索の除外条件と一致させる
func (c labelCodec) closedStatus() string {
	if len(c.closed) > 0 {
		return c.closed[0]
	}
	return StatusClosed
}

func (c labelCodec) toIssue(repo Repo, gh *github.Issue) *tracker.Issue {
	d := c.decode(gh.Labels)
	status := d.status
	if status == "" {
		status = StatusOpen
		if gh.GetState() == stateClosed {
			status = c.closedStatus()
		}
	}

	issue := &tracker.Issue{
		Key:         repo.IssueKey(gh.GetNumber()),
		ProjectKey:  repo.String(),
		Title:       gh.GetTitle(),
		Description: gh.GetBody(),
		Type:        d.kind,
		Status:      status,
		Priority:    d.priority,
		CreatedAt:   gh.GetCreatedAt().Time,
		UpdatedAt:   gh.GetUpdatedAt().Time,
		Reporter:    gh.GetUser().GetLogin(),
		Assignee:    gh.GetAssignee().GetLogin(),
		Labels:      d.visible,
		URL:         gh.GetHTMLURL(),
	}
	for _, u := range gh.Assignees {
		issue.Subscribers = append(issue.Subscribers, u.GetLogin())
	}
	if gh.Milestone != nil && gh.Milestone.DueOn != nil {
		due := gh.Milestone.GetDueOn().Time
		issue.DueAt = &due
	}
	return issue
}

func isReserved(label string) bool {
	return hasPrefixFold(label, StatusLabelPrefix) ||
		hasPrefixFold(label, PriorityLabelPrefix) ||
		hasPrefixFold(label, TypeLabelPrefix)
}

// isDerivedStatus はstateから導出したステータスかどうかを返す（ラベルとしては保存しない）
func isDerivedStatus(status string) bool {
	return strings.EqualFold(status, StatusOpen) || strings.EqualFold(status, StatusClosed)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
