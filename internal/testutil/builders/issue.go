package builders

import (
	"time"

	"github.com/douhashi/steward/internal/tracker"
)

// IssueBuilder builds tracker.Issue instances for testing
type IssueBuilder struct {
	issue tracker.Issue
}

// NewIssueBuilder creates a new IssueBuilder with sensible defaults
func NewIssueBuilder(key string) *IssueBuilder {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &IssueBuilder{
		issue: tracker.Issue{
			Key:        key,
			ProjectKey: "SEC",
			Title:      "Issue " + key,
			Type:       "Bug",
			Status:     "Open",
			Labels:     []string{},
			CreatedAt:  created,
			UpdatedAt:  created,
		},
	}
}

// WithTitle sets the title
func (b *IssueBuilder) WithTitle(title string) *IssueBuilder {
	b.issue.Title = title
	return b
}

// WithDescription sets the description
func (b *IssueBuilder) WithDescription(description string) *IssueBuilder {
	b.issue.Description = description
	return b
}

// WithType sets the issue type
func (b *IssueBuilder) WithType(issueType string) *IssueBuilder {
	b.issue.Type = issueType
	return b
}

// WithStatus sets the status
func (b *IssueBuilder) WithStatus(status string) *IssueBuilder {
	b.issue.Status = status
	return b
}

// WithPriority sets the priority
func (b *IssueBuilder) WithPriority(p tracker.Priority) *IssueBuilder {
	b.issue.Priority = p.Ptr()
	return b
}

// WithoutPriority clears the priority
func (b *IssueBuilder) WithoutPriority() *IssueBuilder {
	b.issue.Priority = nil
	return b
}

// WithAssignee sets the assignee
func (b *IssueBuilder) WithAssignee(assignee string) *IssueBuilder {
	b.issue.Assignee = assignee
	return b
}

// WithLabels replaces the labels
func (b *IssueBuilder) WithLabels(labels ...string) *IssueBuilder {
	b.issue.Labels = append([]string{}, labels...)
	return b
}

// WithUnloadedLabels はラベル未読み込み（nil）の状態にする
func (b *IssueBuilder) WithUnloadedLabels() *IssueBuilder {
	b.issue.Labels = nil
	return b
}

// WithCreatedAt sets the creation time
func (b *IssueBuilder) WithCreatedAt(t time.Time) *IssueBuilder {
	b.issue.CreatedAt = t
	b.issue.UpdatedAt = t
	return b
}

// WithProject sets the project key
func (b *IssueBuilder) WithProject(project string) *IssueBuilder {
	b.issue.ProjectKey = project
	return b
}

// Build returns a copy of the built issue
func (b *IssueBuilder) Build() *tracker.Issue {
	return b.issue.Clone()
}
