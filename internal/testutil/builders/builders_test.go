package builders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/douhashi/steward/internal/config"
	"github.com/douhashi/steward/internal/tracker"
)

func TestIssueBuilder(t *testing.T) {
	t.Run("正常系: デフォルト値", func(t *testing.T) {
		issue := NewIssueBuilder("SEC-1").Build()
		assert.Equal(t, "SEC-1", issue.Key)
		assert.Equal(t, "Open", issue.Status)
		assert.Equal(t, "Bug", issue.Type)
		assert.NotNil(t, issue.Labels)
		assert.Nil(t, issue.Priority)
	})

	t.Run("正常系: カスタマイズとコピー", func(t *testing.T) {
		created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		b := NewIssueBuilder("SEC-2").
			WithTitle("SQLi").
			WithStatus("Done").
			WithPriority(tracker.P1).
			WithAssignee("alice").
			WithLabels("app", "sast").
			WithCreatedAt(created)

		first := b.Build()
		first.Labels[0] = "changed"
		second := b.Build()

		assert.Equal(t, "SQLi", second.Title)
		assert.Equal(t, "Done", second.Status)
		require.NotNil(t, second.Priority)
		assert.Equal(t, tracker.P1, *second.Priority)
		assert.Equal(t, []string{"app", "sast"}, second.Labels)
		assert.Equal(t, created, second.CreatedAt)
		assert.Nil(t, b.WithUnloadedLabels().Build().Labels)
	})
}

func TestConfigBuilder(t *testing.T) {
	t.Run("正常系: デフォルトは妥当な設定", func(t *testing.T) {
		cfg := NewConfigBuilder().Build()
		assert.NoError(t, cfg.Validate())
		assert.Equal(t, "memory", cfg.Tracker.Name)
	})

	t.Run("正常系: 標準のワークフロー", func(t *testing.T) {
		cfg := NewConfigBuilder().
			WithStandardWorkflow().
			WithAutoResolve(config.Policy{Transition: true}).
			WithAutoReopen(config.Policy{Transition: true}).
			WithExitCodes(IntPtr(1), nil, IntPtr(2)).
			Build()

		require.NoError(t, cfg.Validate())
		assert.True(t, cfg.AutoResolveEnabled())
		assert.Equal(t, []string{"Open", "In Progress", "Done"}, cfg.Workflow().Path("Open", cfg.ClosedStatuses))
		assert.Equal(t, 1, *cfg.ExitCodes.OnIssues)
		assert.Nil(t, cfg.ExitCodes.OnNewIssues)
	})
}

func TestDataBuilder(t *testing.T) {
	t.Run("正常系: データのコンテキストとタグがFindingに引き継がれる", func(t *testing.T) {
		data := NewDataBuilder().
			WithContexts("prod").
			WithTags("owasp").
			WithFinding("SQLi", tracker.P1, "api").
			Build()

		require.Len(t, data.Findings(), 1)
		f := data.Findings()[0]
		assert.Equal(t, []string{"api", "prod"}, f.Contexts())
		assert.Equal(t, []string{"owasp"}, f.Tags())
		assert.Equal(t, []string{"app", "sast", "prod", "owasp", "api"}, data.Labels(f))
	})
}
