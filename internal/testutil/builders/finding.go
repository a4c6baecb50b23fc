package builders

import (
	"github.com/douhashi/steward/internal/finding"
	"github.com/douhashi/steward/internal/tracker"
)

// DataBuilder builds finding.Data instances for testing
type DataBuilder struct {
	project  string
	tool     string
	contexts []string
	tags     []string
	findings []*finding.Finding
}

// NewDataBuilder creates a DataBuilder for project "app" scanned by tool "sast"
func NewDataBuilder() *DataBuilder {
	return &DataBuilder{project: "app", tool: "sast"}
}

// WithProject sets the project and tool names
func (b *DataBuilder) WithProject(project, tool string) *DataBuilder {
	b.project = project
	b.tool = tool
	return b
}

// WithContexts adds data-level contexts
func (b *DataBuilder) WithContexts(contexts ...string) *DataBuilder {
	b.contexts = append(b.contexts, contexts...)
	return b
}

// WithTags adds data-level tags
func (b *DataBuilder) WithTags(tags ...string) *DataBuilder {
	b.tags = append(b.tags, tags...)
	return b
}

// WithFinding adds a finding with the given contexts
func (b *DataBuilder) WithFinding(title string, p tracker.Priority, contexts ...string) *DataBuilder {
	f := finding.New(title, p)
	f.Description = "Description of " + title
	f.AddContexts(contexts...)
	b.findings = append(b.findings, f)
	return b
}

// WithFindings adds prepared findings
func (b *DataBuilder) WithFindings(findings ...*finding.Finding) *DataBuilder {
	b.findings = append(b.findings, findings...)
	return b
}

// Build returns new data; data-level contexts and tags are merged into each finding
func (b *DataBuilder) Build() *finding.Data {
	data := finding.NewData(b.project, b.tool)
	data.AddContexts(b.contexts...)
	data.AddTags(b.tags...)
	for _, f := range b.findings {
		clone := finding.New(f.Title, f.Priority)
		clone.Description = f.Description
		clone.Assignee = f.Assignee
		clone.AddContexts(f.Contexts()...)
		clone.AddTags(f.Tags()...)
		data.AddFinding(clone)
	}
	return data
}
