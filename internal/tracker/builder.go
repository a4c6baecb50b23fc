package tracker

// IssueBuilder は作成・更新時に設定するフィールドの集合。nilのフィールドは変更しない
type IssueBuilder struct {
	Project     *string
	Title       *string
	IssueType   *string
	Assignee    *string
	Priority    *Priority
	Description *string
	Labels      []string
	Status      *string
}

// String returns a pointer to the given string value.
func String(v string) *string {
	return &v
}

// IsEmpty は何も設定されていない場合にtrueを返す
func (b IssueBuilder) IsEmpty() bool {
	return b.Project == nil && b.Title == nil && b.IssueType == nil &&
		b.Assignee == nil && b.Priority == nil && b.Description == nil &&
		b.Labels == nil && b.Status == nil
}

// Apply は設定済みのフィールドをIssueのコピーに重ねて返す
func (b IssueBuilder) Apply(issue *Issue) *Issue {
	out := issue.Clone()
	if out == nil {
		out = &Issue{}
	}
	if b.Project != nil {
		out.ProjectKey = *b.Project
	}
	if b.Title != nil {
		out.Title = *b.Title
	}
	if b.IssueType != nil {
		out.Type = *b.IssueType
	}
	if b.Assignee != nil {
		out.Assignee = *b.Assignee
	}
	if b.Priority != nil {
		p := *b.Priority
		out.Priority = &p
	}
	if b.Description != nil {
		out.Description = *b.Description
	}
	if b.Labels != nil {
		out.Labels = append([]string{}, b.Labels...)
	}
	if b.Status != nil {
		out.Status = *b.Status
	}
	return out
}
