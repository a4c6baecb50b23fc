package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix は環境変数のプレフィックス
const EnvPrefix = "STEWARD"

// EnvConfigSource は設定ファイルのパスまたはURLを指定する環境変数
const EnvConfigSource = "STEWARD_CONFIG"

// EnvVar は設定を上書きできる環境変数の定義
type EnvVar struct {
	Name        string
	Key         string
	Description string
	// Aliases は同じ設定キーに対応する追加の環境変数（優先度はNameより低い）
	Aliases []string
}

var envVars = []EnvVar{
	{Name: "STEWARD_PROJECT_KEY", Key: "project_key", Description: "Issue tracker project key (owner/repo for GitHub)"},
	{Name: "STEWARD_ISSUE_TYPE", Key: "issue_type", Description: "Issue type"},
	{Name: "STEWARD_PRIORITY_P0", Key: "priorities.p0", Description: "Priority to be mapped for P0 issues [Example: Urgent]"},
	{Name: "STEWARD_PRIORITY_P1", Key: "priorities.p1", Description: "Priority to be mapped for P1 issues [Example: High]"},
	{Name: "STEWARD_PRIORITY_P2", Key: "priorities.p2", Description: "Priority to be mapped for P2 issues [Example: Medium]"},
	{Name: "STEWARD_PRIORITY_P3", Key: "priorities.p3", Description: "Priority to be mapped for P3 issues [Example: Low]"},
	{Name: "STEWARD_PRIORITY_P4", Key: "priorities.p4", Description: "Priority to be mapped for P4 issues [Example: Very Low]"},
	{Name: "STEWARD_TRACKER_NAME", Key: "tracker.name", Description: "Name of the issue tracker [github|memory]"},
	{Name: "STEWARD_TRACKER_ENDPOINT", Key: "tracker.endpoint", Description: "Issue tracker API endpoint"},
	{Name: "STEWARD_TRACKER_USERNAME", Key: "tracker.username", Description: "Issue tracker username"},
	{Name: "STEWARD_TRACKER_PASSWORD", Key: "tracker.password", Description: "Issue tracker password"},
	{Name: "STEWARD_TRACKER_API_KEY", Key: "tracker.api_key", Description: "Issue tracker API key/token", Aliases: []string{"GITHUB_TOKEN"}},
	{Name: "STEWARD_DRY_RUN", Key: "dry_run", Description: "Dry run [TRUE|FALSE]"},
	{Name: "STEWARD_EXIT_CODE_ISSUES", Key: "exit_codes.on_issues", Description: "Exit code when there are unresolved issues"},
	{Name: "STEWARD_EXIT_CODE_NEW_ISSUES", Key: "exit_codes.on_new_issues", Description: "Exit code when there are new issues"},
	{Name: "STEWARD_EXIT_CODE_FAILURE", Key: "exit_codes.on_failure", Description: "Exit code on error"},
	{Name: "STEWARD_UPDATE_TITLE", Key: "update_title", Description: "Update title if changed [TRUE|FALSE]"},
	{Name: "STEWARD_UPDATE_DESCRIPTION", Key: "update_description", Description: "Update description if changed [TRUE|FALSE]"},
	{Name: "STEWARD_UPDATE_LABELS", Key: "update_labels", Description: "Update labels if changed [TRUE|FALSE]"},
	{Name: "STEWARD_PRIORITIZE_UP", Key: "prioritize_up", Description: "Prioritize up if lowered [TRUE|FALSE]"},
	{Name: "STEWARD_PRIORITIZE_DOWN", Key: "prioritize_down", Description: "Prioritize down if raised [TRUE|FALSE]"},
	{Name: "STEWARD_ASSIGNEE", Key: "assignee", Description: "User to whom issues have to be assigned"},
	{Name: "STEWARD_REOPEN_STATUS", Key: "reopen_status", Description: "Status to be moved to while reopening"},
	{Name: "STEWARD_RESOLVED_STATUSES", Key: "resolved_statuses", Description: "List of resolved statuses [CSV supported]"},
	{Name: "STEWARD_CLOSED_STATUSES", Key: "closed_statuses", Description: "List of closed statuses [CSV supported]"},
	{Name: "STEWARD_IGNORE_LABELS", Key: "ignore_labels", Description: "Issues having these labels will be ignored by auto-resolve [CSV supported]"},
	{Name: "STEWARD_IGNORE_STATUSES", Key: "ignore_statuses", Description: "Issues having these statuses will be ignored by auto-resolve [CSV supported]"},
	{Name: "STEWARD_IGNORE_SECRET", Key: "ignore_secret", Description: "Secret used to verify per-issue ignore labels"},
	{Name: "STEWARD_AUTO_REOPEN_AFTER", Key: "auto_reopen.after_days", Description: "Days after which auto-reopen should work [Default 0]"},
	{Name: "STEWARD_AUTO_REOPEN_TRANSITION", Key: "auto_reopen.transition", Description: "Transition issues to reopened status if required [TRUE|FALSE]"},
	{Name: "STEWARD_AUTO_REOPEN_COMMENT", Key: "auto_reopen.comment", Description: "Comment on issues to reopen if required [TRUE|FALSE]"},
	{Name: "STEWARD_AUTO_REOPEN_COMMENT_INTERVAL", Key: "auto_reopen.comment_interval_days", Description: "Days before the same reopen comment is repeated [Default 30]"},
	{Name: "STEWARD_AUTO_RESOLVE_AFTER", Key: "auto_resolve.after_days", Description: "Days after which auto-resolve should work [Default 7]"},
	{Name: "STEWARD_AUTO_RESOLVE_TRANSITION", Key: "auto_resolve.transition", Description: "Transition issues to resolved status if required [TRUE|FALSE]"},
	{Name: "STEWARD_AUTO_RESOLVE_COMMENT", Key: "auto_resolve.comment", Description: "Comment on issues to resolve if required [TRUE|FALSE]"},
	{Name: "STEWARD_AUTO_RESOLVE_COMMENT_INTERVAL", Key: "auto_resolve.comment_interval_days", Description: "Days before the same resolve comment is repeated [Default 30]"},
	{Name: "STEWARD_AUTO_RESOLVE_IGNORED", Key: "auto_resolve.include_ignored", Description: "Auto-resolve issues in ignored statuses too [TRUE|FALSE]"},
	{Name: "STEWARD_DISABLE_FINDINGS_SYNC", Key: "disable_findings_sync", Description: "Skip syncing findings into issues [TRUE|FALSE]"},
	{Name: "STEWARD_LOG_LEVEL", Key: "log.level", Description: "Log level [debug|info|warn|error]", Aliases: []string{"LOG_LEVEL"}},
	{Name: "STEWARD_LOG_FORMAT", Key: "log.format", Description: "Log format [text|json]", Aliases: []string{"LOG_FORMAT"}},
	{Name: "STEWARD_TELEMETRY_ENABLED", Key: "telemetry.enabled", Description: "Export traces and metrics to stdout [TRUE|FALSE]"},
}

// Env は環境変数の一覧を返す
func Env() []EnvVar {
	out := make([]EnvVar, len(envVars))
	copy(out, envVars)
	return out
}

// EnvUsage は `steward env` で表示する説明文を返す
func EnvUsage() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\t- Config URL or config file path\n", EnvConfigSource)
	for _, e := range envVars {
		fmt.Fprintf(&b, "%s\n\t- %s\n", e.Name, e.Description)
	}
	return b.String()
}

// bindEnv は全ての環境変数をviperのキーに対応付ける
func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, e := range envVars {
		names := append([]string{e.Key, e.Name}, e.Aliases...)
		if err := v.BindEnv(names...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", e.Name, err)
		}
	}
	return nil
}
