// Package finding holds the scan results a run reconciles into the tracker.
package finding

import (
	"github.com/douhashi/steward/internal/tracker"
)

// Finding は1件の検出結果
type Finding struct {
	Title       string
	Priority    tracker.Priority
	Description string
	Assignee    string

	contexts []string
	tags     []string
}

// New は検出結果を作成する
func New(title string, priority tracker.Priority) *Finding {
	return &Finding{Title: title, Priority: priority}
}

// Contexts は重複を除いたコンテキストを追加順で返す
func (f *Finding) Contexts() []string {
	return append([]string{}, f.contexts...)
}

// Tags は重複を除いたタグを追加順で返す
func (f *Finding) Tags() []string {
	return append([]string{}, f.tags...)
}

// AddContexts はコンテキストを追加する（完全一致で重複を除く）
func (f *Finding) AddContexts(contexts ...string) *Finding {
	f.contexts = appendUnique(f.contexts, contexts...)
	return f
}

// AddTags はタグを追加する（完全一致で重複を除く）
func (f *Finding) AddTags(tags ...string) *Finding {
	f.tags = appendUnique(f.tags, tags...)
	return f
}

// ResolveAssignee returns the finding's own assignee, falling back to the
// configured default. Empty means nobody.
func (f *Finding) ResolveAssignee(defaultAssignee string) string {
	if f.Assignee != "" {
		return f.Assignee
	}
	return defaultAssignee
}

// Data is one batch of findings produced by a tool for a project.
type Data struct {
	ProjectName string
	ToolName    string

	contexts []string
	tags     []string
	findings []*Finding
}

// NewData はプロジェクト名とツール名を指定してDataを作成する
func NewData(projectName, toolName string) *Data {
	return &Data{ProjectName: projectName, ToolName: toolName}
}

// Contexts はデータ全体のコンテキストを返す
func (d *Data) Contexts() []string {
	return append([]string{}, d.contexts...)
}

// Tags はデータ全体のタグを返す
func (d *Data) Tags() []string {
	return append([]string{}, d.tags...)
}

// Findings は追加順の検出結果を返す
func (d *Data) Findings() []*Finding {
	return append([]*Finding{}, d.findings...)
}

// AddContexts はデータ全体のコンテキストを追加する
func (d *Data) AddContexts(contexts ...string) *Data {
	d.contexts = appendUnique(d.contexts, contexts...)
	return d
}

// AddTags はデータ全体のタグを追加する
func (d *Data) AddTags(tags ...string) *Data {
	d.tags = appendUnique(d.tags, tags...)
	return d
}

// AddFinding appends a finding after merging the data-level contexts and tags
// into it. Contexts and tags added to the data afterwards are not propagated.
func (d *Data) AddFinding(f *Finding) {
	f.AddContexts(d.contexts...)
	f.AddTags(d.tags...)
	d.findings = append(d.findings, f)
}

// Labels は新規課題に付与するラベルを返す
// （プロジェクト名、ツール名、データのコンテキストとタグ、Findingのコンテキストとタグの和集合）
func (d *Data) Labels(f *Finding) []string {
	var labels []string
	labels = appendUnique(labels, d.ProjectName, d.ToolName)
	labels = appendUnique(labels, d.contexts...)
	labels = appendUnique(labels, d.tags...)
	labels = appendUnique(labels, f.contexts...)
	labels = appendUnique(labels, f.tags...)
	return labels
}

func appendUnique(set []string, values ...string) []string {
	for _, v := range values {
		if v == "" {
			continue
		}
		found := false
		for _, existing := range set {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			set = append(set, v)
		}
	}
	return set
}
