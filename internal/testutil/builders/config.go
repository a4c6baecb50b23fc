package builders

import (
	"github.com/douhashi/steward/internal/config"
)

// ConfigBuilder builds config.Config instances for testing
type ConfigBuilder struct {
	cfg *config.Config
}

// NewConfigBuilder creates a ConfigBuilder whose defaults pass Validate with
// the in-memory tracker.
func NewConfigBuilder() *ConfigBuilder {
	cfg := config.NewConfig()
	cfg.ProjectKey = "SEC"
	cfg.IssueType = "Bug"
	cfg.Priorities = map[string]string{
		"p0": "Urgent",
		"p1": "High",
		"p2": "Medium",
		"p3": "Low",
		"p4": "Very Low",
	}
	cfg.Tracker = config.TrackerConfig{Name: "memory"}
	return &ConfigBuilder{cfg: cfg}
}

// WithProjectKey sets the project key
func (b *ConfigBuilder) WithProjectKey(key string) *ConfigBuilder {
	b.cfg.ProjectKey = key
	return b
}

// WithIssueType sets the issue type
func (b *ConfigBuilder) WithIssueType(issueType string) *ConfigBuilder {
	b.cfg.IssueType = issueType
	return b
}

// WithTracker sets the tracker name and API key
func (b *ConfigBuilder) WithTracker(name, apiKey string) *ConfigBuilder {
	b.cfg.Tracker.Name = name
	b.cfg.Tracker.APIKey = apiKey
	return b
}

// WithDryRun enables or disables dry-run mode
func (b *ConfigBuilder) WithDryRun(enabled bool) *ConfigBuilder {
	b.cfg.DryRun = enabled
	return b
}

// WithFindingsSyncDisabled disables syncing findings into issues
func (b *ConfigBuilder) WithFindingsSyncDisabled() *ConfigBuilder {
	b.cfg.DisableFindingsSync = true
	return b
}

// WithUpdates enables title, description and label updates
func (b *ConfigBuilder) WithUpdates(title, description, labels bool) *ConfigBuilder {
	b.cfg.UpdateTitle = title
	b.cfg.UpdateDescription = description
	b.cfg.UpdateLabels = labels
	return b
}

// WithPrioritize sets prioritize up/down
func (b *ConfigBuilder) WithPrioritize(up, down bool) *ConfigBuilder {
	b.cfg.PrioritizeUp = up
	b.cfg.PrioritizeDown = down
	return b
}

// WithAssignee sets the default assignee
func (b *ConfigBuilder) WithAssignee(assignee string) *ConfigBuilder {
	b.cfg.Assignee = assignee
	return b
}

// WithTransition adds a workflow transition
func (b *ConfigBuilder) WithTransition(from string, to ...string) *ConfigBuilder {
	b.cfg.Transitions = append(b.cfg.Transitions, config.Transition{From: from, To: to})
	return b
}

// WithStandardWorkflow sets Open -> In Progress -> Done with Done -> Open,
// closed status Done, resolved status Resolved and reopen status Open.
func (b *ConfigBuilder) WithStandardWorkflow() *ConfigBuilder {
	b.cfg.Transitions = []config.Transition{
		{From: "Open", To: []string{"In Progress"}},
		{From: "In Progress", To: []string{"Open", "Done"}},
		{From: "Resolved", To: []string{"Done", "Open"}},
		{From: "Done", To: []string{"Open"}},
	}
	b.cfg.ClosedStatuses = []string{"Done"}
	b.cfg.ResolvedStatuses = []string{"Resolved"}
	b.cfg.ReopenStatus = "Open"
	return b
}

// WithStatuses sets the resolved, closed and ignored statuses
func (b *ConfigBuilder) WithStatuses(resolved, closed, ignored []string) *ConfigBuilder {
	b.cfg.ResolvedStatuses = resolved
	b.cfg.ClosedStatuses = closed
	b.cfg.IgnoreStatuses = ignored
	return b
}

// WithReopenStatus sets the reopen target status
func (b *ConfigBuilder) WithReopenStatus(status string) *ConfigBuilder {
	b.cfg.ReopenStatus = status
	return b
}

// WithIgnoreSecret sets the ignore label secret
func (b *ConfigBuilder) WithIgnoreSecret(secret string) *ConfigBuilder {
	b.cfg.IgnoreSecret = secret
	return b
}

// WithIgnoreLabels sets labels that exclude issues from auto-resolve
func (b *ConfigBuilder) WithIgnoreLabels(labels ...string) *ConfigBuilder {
	b.cfg.IgnoreLabels = labels
	return b
}

// WithAutoResolve sets the auto-resolve policy
func (b *ConfigBuilder) WithAutoResolve(p config.Policy) *ConfigBuilder {
	b.cfg.AutoResolve = p
	return b
}

// WithAutoReopen sets the auto-reopen policy
func (b *ConfigBuilder) WithAutoReopen(p config.Policy) *ConfigBuilder {
	b.cfg.AutoReopen = p
	return b
}

// WithExitCodes sets the exit codes; nil leaves a code unset
func (b *ConfigBuilder) WithExitCodes(onIssues, onNewIssues, onFailure *int) *ConfigBuilder {
	b.cfg.ExitCodes = config.ExitCodes{OnIssues: onIssues, OnNewIssues: onNewIssues, OnFailure: onFailure}
	return b
}

// Build returns a copy of the built configuration
func (b *ConfigBuilder) Build() *config.Config {
	return b.cfg.Clone()
}

// IntPtr returns a pointer to n, for exit codes.
func IntPtr(n int) *int {
	return &n
}
