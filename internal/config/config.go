package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/douhashi/steward/internal/tracker"
	"github.com/douhashi/steward/internal/workflow"
)

// ErrInvalid は設定が不正な場合のエラー。Validateが返すエラーは全てこれをラップする
var ErrInvalid = errors.New("invalid configuration")

// Config はstewardの実行設定
type Config struct {
	ProjectKey string            `mapstructure:"project_key"`
	IssueType  string            `mapstructure:"issue_type"`
	Priorities map[string]string `mapstructure:"priorities"`
	Tracker    TrackerConfig     `mapstructure:"tracker"`

	DryRun              bool      `mapstructure:"dry_run"`
	DisableFindingsSync bool      `mapstructure:"disable_findings_sync"`
	ExitCodes           ExitCodes `mapstructure:"exit_codes"`

	UpdateTitle       bool   `mapstructure:"update_title"`
	UpdateDescription bool   `mapstructure:"update_description"`
	UpdateLabels      bool   `mapstructure:"update_labels"`
	PrioritizeUp      bool   `mapstructure:"prioritize_up"`
	PrioritizeDown    bool   `mapstructure:"prioritize_down"`
	Assignee          string `mapstructure:"assignee"`

	Transitions      []Transition `mapstructure:"transitions"`
	ReopenStatus     string       `mapstructure:"reopen_status"`
	ResolvedStatuses []string     `mapstructure:"resolved_statuses"`
	ClosedStatuses   []string     `mapstructure:"closed_statuses"`
	IgnoreStatuses   []string     `mapstructure:"ignore_statuses"`
	IgnoreLabels     []string     `mapstructure:"ignore_labels"`
	IgnoreSecret     string       `mapstructure:"ignore_secret"`

	AutoReopen  Policy `mapstructure:"auto_reopen"`
	AutoResolve Policy `mapstructure:"auto_resolve"`

	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// TrackerConfig はトラッカーへの接続設定
type TrackerConfig struct {
	Name     string `mapstructure:"name"`
	Endpoint string `mapstructure:"endpoint"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	APIKey   string `mapstructure:"api_key"`
}

// ExitCodes は実行結果に応じた終了コード。nilの場合はその条件で終了コードを変えない
type ExitCodes struct {
	OnIssues    *int `mapstructure:"on_issues"`
	OnNewIssues *int `mapstructure:"on_new_issues"`
	OnFailure   *int `mapstructure:"on_failure"`
}

// Transition はワークフローの1ステータスからの遷移先
type Transition struct {
	From string   `mapstructure:"from"`
	To   []string `mapstructure:"to"`
}

// LogConfig はログ出力の設定
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig はOpenTelemetryの設定
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// NewConfig は既定値を設定したConfigを作成する
func NewConfig() *Config {
	return &Config{
		Priorities: map[string]string{},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "steward",
		},
	}
}

// Clone はConfigのコピーを返す。レジストリにキャッシュされた設定を変更しないために使う
func (c *Config) Clone() *Config {
	out := *c
	out.Priorities = make(map[string]string, len(c.Priorities))
	for k, v := range c.Priorities {
		out.Priorities[k] = v
	}
	out.Transitions = make([]Transition, len(c.Transitions))
	for i, t := range c.Transitions {
		out.Transitions[i] = Transition{From: t.From, To: append([]string{}, t.To...)}
	}
	out.ResolvedStatuses = append([]string(nil), c.ResolvedStatuses...)
	out.ClosedStatuses = append([]string(nil), c.ClosedStatuses...)
	out.IgnoreStatuses = append([]string(nil), c.IgnoreStatuses...)
	out.IgnoreLabels = append([]string(nil), c.IgnoreLabels...)
	return &out
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ProjectKey) == "" {
		return fmt.Errorf("%w: a valid project key is required", ErrInvalid)
	}
	if strings.TrimSpace(c.IssueType) == "" {
		return fmt.Errorf("%w: a valid issue type is required", ErrInvalid)
	}
	if len(c.Priorities) == 0 {
		return fmt.Errorf("%w: a valid priority mapping is required", ErrInvalid)
	}
	if _, err := c.PriorityNames(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Tracker.Name) == "" {
		return fmt.Errorf("%w: a valid tracker name is required", ErrInvalid)
	}
	if !c.hasCredential() {
		return fmt.Errorf("%w: a valid credential is required for tracker %q", ErrInvalid, c.Tracker.Name)
	}
	for _, t := range c.Transitions {
		if t.From == "" {
			return fmt.Errorf("%w: transition source status must not be empty", ErrInvalid)
		}
	}
	if c.AutoReopen.Transition && c.ReopenStatus == "" {
		return fmt.Errorf("%w: reopen_status is required when auto_reopen.transition is enabled", ErrInvalid)
	}
	if c.AutoResolve.Transition && len(c.ClosedStatuses) == 0 {
		return fmt.Errorf("%w: closed_statuses is required when auto_resolve.transition is enabled", ErrInvalid)
	}
	if c.AutoResolve.AfterDays < 0 || c.AutoReopen.AfterDays < 0 {
		return fmt.Errorf("%w: after_days must not be negative", ErrInvalid)
	}
	return nil
}

// hasCredential はAPIキーまたはユーザー名とパスワードの組が設定されているかを返す。
// メモリ上のトラッカーは認証情報を必要としない
func (c *Config) hasCredential() bool {
	if strings.EqualFold(c.Tracker.Name, "memory") {
		return true
	}
	return c.Tracker.APIKey != "" || (c.Tracker.Username != "" && c.Tracker.Password != "")
}

// PriorityNames は優先度の対応表を解析する
func (c *Config) PriorityNames() (tracker.PriorityNames, error) {
	names := make(tracker.PriorityNames, len(c.Priorities))
	for key, name := range c.Priorities {
		p, err := tracker.ParsePriority(key)
		if err != nil {
			return nil, fmt.Errorf("%w: priorities: %v", ErrInvalid, err)
		}
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: priorities: empty name for %s", ErrInvalid, p)
		}
		names[p] = name
	}
	return names, nil
}

// Connection はトラッカーアダプタに渡す接続情報を返す
func (c *Config) Connection() tracker.Connection {
	return tracker.Connection{
		Endpoint: c.Tracker.Endpoint,
		APIKey:   c.Tracker.APIKey,
		Username: c.Tracker.Username,
		Password: c.Tracker.Password,
		Project:  c.ProjectKey,

		ClosedStatuses: append([]string{}, c.ClosedStatuses...),
	}
}

// Workflow はワークフローグラフを返す。遷移が未設定の場合はnil
func (c *Config) Workflow() workflow.Graph {
	if len(c.Transitions) == 0 {
		return nil
	}
	g := make(workflow.Graph, len(c.Transitions))
	for _, t := range c.Transitions {
		g[t.From] = append(g[t.From], t.To...)
	}
	return g
}

// IsResolvedStatus は解決済みステータスかどうかを返す（大文字小文字を区別しない）
func (c *Config) IsResolvedStatus(status string) bool {
	return containsFold(c.ResolvedStatuses, status)
}

// IsClosedStatus はクローズ済みステータスかどうかを返す（大文字小文字を区別しない）
func (c *Config) IsClosedStatus(status string) bool {
	return containsFold(c.ClosedStatuses, status)
}

// IsIgnorable reports whether the sweep should leave the issue alone because
// of its status or one of the configured ignore labels.
func (c *Config) IsIgnorable(issue *tracker.Issue) bool {
	if containsFold(c.IgnoreStatuses, issue.Status) {
		return true
	}
	for _, label := range c.IgnoreLabels {
		if issue.HasLabel(label) {
			return true
		}
	}
	return false
}

// ReopenAllowed は自動再オープンの対象となるステータスかどうかを返す
func (c *Config) ReopenAllowed(status string) bool {
	return c.AutoReopen.Enabled() && (c.IsResolvedStatus(status) || c.IsClosedStatus(status))
}

// AutoResolveEnabled は自動解決の巡回を行うかどうかを返す
func (c *Config) AutoResolveEnabled() bool {
	return c.AutoResolve.Enabled() && len(c.Transitions) > 0
}

func containsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
