package steward

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zapcore"

	"github.com/douhashi/steward/internal/config"
	"github.com/douhashi/steward/internal/finding"
	"github.com/douhashi/steward/internal/ignore"
	"github.com/douhashi/steward/internal/lifecycle"
	"github.com/douhashi/steward/internal/telemetry"
	"github.com/douhashi/steward/internal/testutil/builders"
	"github.com/douhashi/steward/internal/testutil/helpers"
	"github.com/douhashi/steward/internal/tracker"
	"github.com/douhashi/steward/internal/tracker/memory"
)

var testNow = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func newMemory(t *testing.T, cfg *config.Config, opts ...memory.Option) *memory.Tracker {
	t.Helper()
	names, err := cfg.PriorityNames()
	require.NoError(t, err)
	return memory.New(append([]memory.Option{
		memory.WithProject(cfg.ProjectKey),
		memory.WithPriorityNames(names),
		memory.WithClock(fixedClock),
	}, opts...)...)
}

func process(t *testing.T, data *finding.Data, cfg *config.Config, base tracker.Tracker, opts ...Option) *lifecycle.Summary {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	summary, err := Process(context.Background(), data, cfg, base, opts...)
	require.NoError(t, err)
	return summary
}

func commentBodies(t *testing.T, mem *memory.Tracker, key string) []string {
	t.Helper()
	comments, err := mem.Comments(context.Background(), &tracker.Issue{Key: key})
	require.NoError(t, err)
	var bodies []string
	for _, c := range comments {
		bodies = append(bodies, c.Body)
	}
	return bodies
}

func TestProcess_CreateIssue(t *testing.T) {
	t.Run("正常系: 一致する課題がなければ課題を1件作成する", func(t *testing.T) {
		cfg := builders.NewConfigBuilder().Build()
		mem := newMemory(t, cfg)
		data := builders.NewDataBuilder().WithFinding("SQLi in /login", tracker.P1, "api").Build()

		summary := process(t, data, cfg, mem)

		issues := mem.Issues()
		require.Len(t, issues, 1)
		issue := issues[0]
		assert.Equal(t, "SEC-1", issue.Key)
		assert.Equal(t, "SQLi in /login", issue.Title)
		assert.Equal(t, "Bug", issue.Type)
		assert.Equal(t, []string{"app", "sast", "api"}, issue.Labels)
		require.NotNil(t, issue.Priority)
		assert.Equal(t, tracker.P1, *issue.Priority)
		assert.Equal(t, "High", mem.PriorityName(*issue.Priority))

		rec, ok := summary.Get("SEC-1")
		require.True(t, ok)
		assert.True(t, rec.Has(lifecycle.Created))
		assert.False(t, rec.Existed)
		assert.Equal(t, 1, summary.Counts().Created)
		assert.Equal(t, 1, summary.Counts().Findings)
		assert.False(t, summary.Failed())
	})

	t.Run("正常系: ラベルはプロジェクト、ツール、コンテキスト、タグの和集合", func(t *testing.T) {
		cfg := builders.NewConfigBuilder().Build()
		mem := newMemory(t, cfg)
		f := finding.New("XSS", tracker.P2).AddContexts("web", "App").AddTags("owasp", "a7")
		data := builders.NewDataBuilder().WithContexts("prod").WithTags("owasp").WithFindings(f).Build()

		process(t, data, cfg, mem)

		issues := mem.Issues()
		require.Len(t, issues, 1)
		assert.Equal(t, []string{"app", "sast", "prod", "owasp", "web", "App", "a7"}, issues[0].Labels)
	})

	t.Run("正常系: 担当者はFindingの指定を優先し、なければ既定値", func(t *testing.T) {
		cfg := builders.NewConfigBuilder().WithAssignee("secteam").Build()
		mem := newMemory(t, cfg)
		own := finding.New("Owned", tracker.P2).AddContexts("a")
		own.Assignee = "alice"
		data := builders.NewDataBuilder().WithFindings(own).WithFinding("Default", tracker.P2, "b").Build()

		process(t, data, cfg, mem)

		issues := mem.Issues()
		require.Len(t, issues, 2)
		assert.Equal(t, "alice", issues[0].Assignee)
		assert.Equal(t, "secteam", issues[1].Assignee)
	})

	t.Run("正常系: 同じコンテキストのFindingは作成済みの課題に一致する", func(t *testing.T) {
		cfg := builders.NewConfigBuilder().WithUpdates(true, false, false).Build()
		mem := newMemory(t, cfg)
		data := builders.NewDataBuilder().
			WithFinding("First", tracker.P2, "api").
			WithFinding("Second", tracker.P2, "api").
			Build()

		summary := process(t, data, cfg, mem)

		issues := mem.Issues()
		require.Len(t, issues, 1)
		assert.Equal(t, "Second", issues[0].Title)
		assert.Equal(t, 1, mem.Calls(memory.OpCreate))
		rec, _ := summary.Get("SEC-1")
		assert.True(t, rec.Has(lifecycle.TitleUpdated))
	})
}

func TestProcess_SyncExistingIssue(t *testing.T) {
	existing := func() *builders.IssueBuilder {
		return builders.NewIssueBuilder("SEC-7").
			WithTitle("SQLi").
			WithDescription("Description of SQLi").
			WithLabels("app", "sast", "api").
			WithPriority(tracker.P1)
	}
	data := func() *finding.Data {
		return builders.NewDataBuilder().WithFinding("SQLi", tracker.P1, "api").Build()
	}

	t.Run("正常系: 差分がなければ更新しない", func(t *testing.T) {
		cfg := builders.NewConfigBuilder().WithUpdates(true, true, true).WithPrioritize(true, true).Build()
		mem := newMemory(t, cfg)
		mem.Seed(existing().Build())

		summary := process(t, data(), cfg, mem)

		assert.Equal(t, 0, mem.Calls(memory.OpUpdate))
		assert.Equal(t, 0, mem.Calls(memory.OpAddComment))
		assert.Equal(t, 0, mem.Calls(memory.OpCreate))
		rec, ok := summary.Get("SEC-7")
		require.True(t, ok)
		assert.True(t, rec.Existed)
		assert.False(t, rec.Updated())
	})

	t.Run("正常系: 改行コードの違いは説明の差分にならない", func(t *testing.T) {
		cfg := builders.NewConfigBuilder().WithUpdates(false, true, false).Build()
		mem := newMemory(t, cfg)
		mem.Seed(existing().WithDescription("Description of SQLi\r\n").Build())

		process(t, data(), cfg, mem)
		assert.Equal(t, 0, mem.Calls(memory.OpUpdate))
	})

	t.Run("正常系: タイトル、説明、ラベル、担当者を1回の更新で反映する", func(t *testing.T) {
		cfg := builders.NewConfigBuilder().WithUpdates(true, true, true).WithAssignee("secteam").Build()
		mem := newMemory(t, cfg)
		mem.Seed(existing().WithTitle("Old").WithDescription("old").WithLabels("app", "sast", "api", "manual").Build())
		f := finding.New("SQLi", tracker.P1).AddContexts("api").AddTags("cwe-89")
		d := builders.NewDataBuilder().WithFindings(f).Build()

		summary := process(t, d, cfg, mem)

		assert.Equal(t, 1, mem.Calls(memory.OpUpdate))
		issue, _ := mem.Get("SEC-7")
		assert.Equal(t, "SQLi", issue.Title)
		assert.Equal(t, "Description of SQLi", issue.Description)
		assert.Equal(t, "secteam", issue.Assignee)
		assert.Equal(t, []string{"app", "sast", "api", "manual", "cwe-89"}, issue.Labels)

		rec, _ := summary.Get("SEC-7")
		assert.True(t, rec.Has(lifecycle.TitleUpdated|lifecycle.DescriptionUpdated|lifecycle.LabelsUpdated|lifecycle.Assigned))
		assert.False(t, rec.Has(lifecycle.PriorityUpdated))
		assert.False(t, rec.Has(lifecycle.Commented))
	})

	t.Run("正常系: 更新フラグが無効なら差分があっても更新しない", func(t *testing.T) {
		cfg := builders.NewConfigBuilder().Build()
		mem := newMemory(t, cfg)
		mem.Seed(existing().WithTitle("Old").WithDescription("old").WithAssignee("bob").Build())

		process(t, data(), cfg, mem)
		assert.Equal(t, 0, mem.Calls(memory.OpUpdate))
	})

	t.Run("正常系: ラベルの大文字小文字違いは別のラベルとして追加する", func(t *testing.T) {
		cfg := builders.NewConfigBuilder().WithUpdates(false, false, true).Build()
		mem := newMemory(t, cfg)
		mem.Seed(existing().WithLabels("app", "sast", "API").Build())

		process(t, data(), cfg, mem)

		issue, _ := mem.Get("SEC-7")
		assert.Equal(t, []string{"app", "sast", "API", "api"}, issue.Labels)
	})
}

func TestProcess_Priority(t *testing.T) {
	tests := []struct {
		name         string
		issuePrio    *tracker.Priority
		findingPrio  tracker.Priority
		up, down     bool
		wantPriority tracker.Priority
		wantChanged  bool
	}{
		{
			name:         "正常系: 緊急度が低い課題をprioritizeDownで引き上げる",
			issuePrio:    tracker.P3.Ptr(),
			findingPrio:  tracker.P1,
			down:         true,
			wantPriority: tracker.P1,
			wantChanged:  true,
		},
		{
			name:         "正常系: prioritizeDownが無効なら引き上げない",
			issuePrio:    tracker.P3.Ptr(),
			findingPrio:  tracker.P1,
			up:           true,
			wantPriority: tracker.P3,
		},
		{
			name:         "正常系: 緊急度が高い課題をprioritizeUpで引き下げる",
			issuePrio:    tracker.P0.Ptr(),
			findingPrio:  tracker.P2,
			up:           true,
			wantPriority: tracker.P2,
			wantChanged:  true,
		},
		{
			name:         "正常系: prioritizeUpが無効なら引き下げない",
			issuePrio:    tracker.P0.Ptr(),
			findingPrio:  tracker.P2,
			down:         true,
			wantPriority: tracker.P0,
		},
		{
			name:         "正常系: 優先度が未設定なら常に設定する",
			issuePrio:    nil,
			findingPrio:  tracker.P4,
			wantPriority: tracker.P4,
			wantChanged:  true,
		},
		{
			name:         "正常系: 同じ優先度なら変更しない",
			issuePrio:    tracker.P2.Ptr(),
			findingPrio:  tracker.P2,
			up:           true,
			down:         true,
			wantPriority: tracker.P2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := builders.NewConfigBuilder().WithPrioritize(tt.up, tt.down).Build()
			mem := newMemory(t, cfg)
			seeded := builders.NewIssueBuilder("SEC-3").WithLabels("app", "sast", "api").Build()
			seeded.Priority = tt.issuePrio
			mem.Seed(seeded)
			data := builders.NewDataBuilder().WithFinding("SQLi", tt.findingPrio, "api").Build()

			summary := process(t, data, cfg, mem)

			issue, _ := mem.Get("SEC-3")
			require.NotNil(t, issue.Priority)
			assert.Equal(t, tt.wantPriority, *issue.Priority)

			rec, _ := summary.Get("SEC-3")
			assert.Equal(t, tt.wantChanged, rec.Has(lifecycle.PriorityUpdated))
			if tt.wantChanged {
				assert.True(t, rec.Has(lifecycle.Commented))
				assert.Equal(t, []string{PriorityComment(mem.PriorityName(tt.findingPrio))}, commentBodies(t, mem, "SEC-3"))
			} else {
				assert.Empty(t, commentBodies(t, mem, "SEC-3"))
			}
		})
	}

	t.Run("正常系: 優先度のコメントは表示名を使う", func(t *testing.T) {
		assert.Equal(t, "Prioritizing to **High** based on actual priority.", PriorityComment("High"))
	})
}

func TestProcess_IgnoreLabels(t *testing.T) {
	const secret = "s3cret"
	evaluator := ignore.NewEvaluator(secret)

	t.Run("正常系: 優先度変更抑止ラベルがあれば優先度だけ変更しない", func(t *testing.T) {
		label, err := evaluator.Mint(ignore.PrefixPriority, "SEC-3", 8)
		require.NoError(t, err)

		cfg := builders.NewConfigBuilder().WithIgnoreSecret(secret).WithPrioritize(true, true).WithUpdates(true, false, false).Build()
		mem := newMemory(t, cfg)
		mem.Seed(builders.NewIssueBuilder("SEC-3").WithTitle("Old").WithPriority(tracker.P3).WithLabels("app", "sast", "api", label).Build())
		data := builders.NewDataBuilder().WithFinding("SQLi", tracker.P0, "api").Build()

		summary := process(t, data, cfg, mem)

		issue, _ := mem.Get("SEC-3")
		assert.Equal(t, tracker.P3, *issue.Priority)
		assert.Equal(t, "SQLi", issue.Title)
		rec, _ := summary.Get("SEC-3")
		assert.False(t, rec.Has(lifecycle.PriorityUpdated))
		assert.True(t, rec.Has(lifecycle.TitleUpdated))
	})

	t.Run("正常系: 完全無視ラベルがあれば何も変更せずignoredにする", func(t *testing.T) {
		label, err := evaluator.Mint(ignore.PrefixComplete, "SEC-3", 16)
		require.NoError(t, err)

		cfg := builders.NewConfigBuilder().WithIgnoreSecret(secret).WithPrioritize(true, true).WithUpdates(true, true, true).Build()
		mem := newMemory(t, cfg)
		mem.Seed(builders.NewIssueBuilder("SEC-3").WithTitle("Old").WithLabels("app", "sast", "api", label).Build())
		data := builders.NewDataBuilder().WithFinding("SQLi", tracker.P0, "api").Build()

		summary := process(t, data, cfg, mem)

		assert.Equal(t, 0, mem.Calls(memory.OpUpdate))
		assert.Equal(t, 0, mem.Calls(memory.OpAddComment))
		rec, _ := summary.Get("SEC-3")
		assert.True(t, rec.Has(lifecycle.Ignored))
		assert.Equal(t, 1, summary.Counts().Ignored)
	})

	t.Run("正常系: 別の課題キー用のラベルは無視されない", func(t *testing.T) {
		label, err := evaluator.Mint(ignore.PrefixComplete, "SEC-4", 8)
		require.NoError(t, err)

		cfg := builders.NewConfigBuilder().WithIgnoreSecret(secret).WithUpdates(true, false, false).Build()
		mem := newMemory(t, cfg)
		mem.Seed(builders.NewIssueBuilder("SEC-3").WithTitle("Old").WithLabels("app", "sast", "api", label).Build())
		data := builders.NewDataBuilder().WithFinding("SQLi", tracker.P0, "api").Build()

		summary := process(t, data, cfg, mem)

		rec, _ := summary.Get("SEC-3")
		assert.False(t, rec.Has(lifecycle.Ignored))
		assert.True(t, rec.Has(lifecycle.TitleUpdated))
	})
}

func TestEngine_LazyLabels(t *testing.T) {
	const secret = "s3cret"
	evaluator := ignore.NewEvaluator(secret)

	t.Run("正常系: ラベル未読み込みの課題でも完全無視ラベルを判定してから同期する", func(t *testing.T) {
		label, err := evaluator.Mint(ignore.PrefixComplete, "SEC-3", 16)
		require.NoError(t, err)

		cfg := builders.NewConfigBuilder().WithIgnoreSecret(secret).WithPrioritize(true, true).WithUpdates(true, true, true).Build()
		mem := newMemory(t, cfg, memory.WithLazyLabels())
		mem.Seed(builders.NewIssueBuilder("SEC-3").WithTitle("Old").WithPriority(tracker.P3).WithLabels("app", "sast", "api", label).Build())
		data := builders.NewDataBuilder().WithFinding("SQLi", tracker.P0, "api").Build()

		rec, err := NewEngine(mem, cfg, data, WithClock(fixedClock)).SyncFinding(context.Background(), data.Findings()[0])

		require.NoError(t, err)
		assert.True(t, rec.Has(lifecycle.Ignored))
		assert.False(t, rec.Has(lifecycle.PriorityUpdated))
		assert.Equal(t, 1, mem.Calls(memory.OpRefresh))
		assert.Equal(t, 0, mem.Calls(memory.OpUpdate))
		assert.Equal(t, 0, mem.Calls(memory.OpAddComment))
	})

	t.Run("正常系: 自動解決でもラベルを読み込んでから無視ラベルと検出結果を照合する", func(t *testing.T) {
		label, err := evaluator.Mint(ignore.PrefixComplete, "SEC-6", 16)
		require.NoError(t, err)

		cfg := builders.NewConfigBuilder().
			WithIgnoreSecret(secret).
			WithStandardWorkflow().
			WithAutoResolve(config.Policy{Transition: true, Comment: true}).
			Build()
		mem := newMemory(t, cfg, memory.WithLazyLabels())
		mem.Seed(builders.NewIssueBuilder("SEC-5").WithTitle("SQLi").WithLabels("app", "sast", "api").Build())
		mem.Seed(staleIssue("SEC-6").WithLabels("app", "sast", "old-context", label).Build())
		data := currentData().Build()

		records, err := NewEngine(mem, cfg, data, WithClock(fixedClock)).AutoResolve(context.Background())

		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "SEC-6", records[0].IssueKey)
		assert.True(t, records[0].Has(lifecycle.Ignored))
		assert.Equal(t, 0, mem.Calls(memory.OpUpdate))
		assert.Equal(t, 0, mem.Calls(memory.OpAddComment))
	})
}

func TestProcess_Failures(t *testing.T) {
	t.Run("異常系: 複数の課題に一致した場合は何も変更せずエラーを記録する", func(t *testing.T) {
		cfg := builders.NewConfigBuilder().WithUpdates(true, true, true).Build()
		mem := newMemory(t, cfg)
		mem.Seed(
			builders.NewIssueBuilder("SEC-1").WithLabels("app", "sast", "api").Build(),
			builders.NewIssueBuilder("SEC-2").WithLabels("app", "sast", "api", "extra").Build(),
		)
		data := builders.NewDataBuilder().WithFinding("SQLi", tracker.P1, "api").Build()

		summary := process(t, data, cfg, mem)

		assert.Equal(t, 0, mem.Calls(memory.OpCreate))
		assert.Equal(t, 0, mem.Calls(memory.OpUpdate))
		require.Len(t, summary.Errors(), 1)
		err := summary.Errors()[0]
		assert.ErrorIs(t, err, tracker.ErrAmbiguousMatch)
		assert.Contains(t, err.Error(), "SEC-1")
		assert.Contains(t, err.Error(), "SEC-2")
		assert.Contains(t, err.Error(), "api")
		assert.True(t, summary.Failed())
	})

	t.Run("異常系: 1件のFindingの失敗は他のFindingに影響しない", func(t *testing.T) {
		cfg := builders.NewConfigBuilder().Build()
		mem := newMemory(t, cfg)
		boom := errors.New("tracker unavailable")
		mem.FailWhen(func(op memory.Op, key string, b tracker.IssueBuilder) error {
			if op == memory.OpCreate && b.Title != nil && *b.Title == "Broken" {
				return boom
			}
			return nil
		})
		data := builders.NewDataBuilder().
			WithFinding("Broken", tracker.P1, "a").
			WithFinding("Fine", tracker.P1, "b").
			Build()

		summary := process(t, data, cfg, mem)

		issues := mem.Issues()
		require.Len(t, issues, 1)
		assert.Equal(t, "Fine", issues[0].Title)
		require.Len(t, summary.Errors(), 1)
		assert.ErrorIs(t, summary.Errors()[0], boom)
		assert.Equal(t, 1, summary.Counts().Created)
	})

	t.Run("異常系: 更新の失敗は課題の記録に残る", func(t *testing.T) {
		cfg := builders.NewConfigBuilder().WithUpdates(true, false, false).Build()
		mem := newMemory(t, cfg)
		mem.Seed(builders.NewIssueBuilder("SEC-1").WithTitle("Old").WithPriority(tracker.P1).WithLabels("app", "sast", "api").Build())
		mem.FailWhen(func(op memory.Op, key string, b tracker.IssueBuilder) error {
			if op == memory.OpUpdate {
				return errors.New("forbidden")
			}
			return nil
		})
		data := builders.NewDataBuilder().WithFinding("SQLi", tracker.P1, "api").Build()

		summary := process(t, data, cfg, mem)

		rec, ok := summary.Get("SEC-1")
		require.True(t, ok)
		assert.True(t, rec.Failed())
		assert.False(t, rec.Has(lifecycle.TitleUpdated))
		assert.Empty(t, summary.Errors())
		assert.True(t, summary.Failed())
	})

	t.Run("異常系: 事前取得に失敗したらエラーを返す", func(t *testing.T) {
		cfg := builders.NewConfigBuilder().Build()
		mem := newMemory(t, cfg)
		mem.FailWhen(func(op memory.Op, key string, b tracker.IssueBuilder) error {
			return errors.New("unauthorized")
		})
		data := builders.NewDataBuilder().WithFinding("SQLi", tracker.P1, "api").Build()

		_, err := Process(context.Background(), data, cfg, mem)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to prefetch issues")
	})

	t.Run("異常系: 設定が不正なら何もせずエラーを返す", func(t *testing.T) {
		cfg := builders.NewConfigBuilder().WithIssueType("").Build()
		mem := newMemory(t, cfg)
		data := builders.NewDataBuilder().WithFinding("SQLi", tracker.P1, "api").Build()

		_, err := Process(context.Background(), data, cfg, mem)
		assert.ErrorIs(t, err, config.ErrInvalid)
		assert.Equal(t, 0, mem.Calls(memory.OpSearch))
	})

	t.Run("異常系: キャンセルされたら処理を中断する", func(t *testing.T) {
		cfg := builders.NewConfigBuilder().Build()
		mem := newMemory(t, cfg)
		data := builders.NewDataBuilder().WithFinding("SQLi", tracker.P1, "api").Build()
		e := NewEngine(mem, cfg, data, WithClock(fixedClock))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		summary, err := e.Run(ctx)

		assert.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, summary)
		assert.Equal(t, 0, mem.Calls(memory.OpCreate))
	})
}

func TestProcess_DryRun(t *testing.T) {
	t.Run("正常系: ドライランでは課題を作成も更新もしない", func(t *testing.T) {
		cfg := builders.NewConfigBuilder().
			WithDryRun(true).
			WithUpdates(true, false, false).
			Build()
		mem := newMemory(t, cfg)
		mem.Seed(builders.NewIssueBuilder("SEC-1").WithTitle("Old").WithPriority(tracker.P1).WithLabels("app", "sast", "api").Build())
		data := builders.NewDataBuilder().
			WithFinding("SQLi", tracker.P1, "api").
			WithFinding("XSS", tracker.P2, "web").
			Build()
		log, logs := helpers.NewObservableLogger(zapcore.DebugLevel)

		summary := process(t, data, cfg, mem, WithLogger(log))

		assert.Equal(t, 0, mem.Calls(memory.OpCreate))
		assert.Equal(t, 0, mem.Calls(memory.OpUpdate))
		issue, _ := mem.Get("SEC-1")
		assert.Equal(t, "Old", issue.Title)

		counts := summary.Counts()
		assert.Equal(t, 1, counts.Created)
		assert.Equal(t, 1, counts.TitleUpdated)
		assert.NotEmpty(t, helpers.EntriesWithField(logs, "dry_run", true))
	})
}

func TestProcess_DisableFindingsSync(t *testing.T) {
	t.Run("正常系: 同期を無効にしても自動解決は行う", func(t *testing.T) {
		cfg := builders.NewConfigBuilder().
			WithFindingsSyncDisabled().
			WithStandardWorkflow().
			WithAutoResolve(config.Policy{Transition: true}).
			Build()
		mem := newMemory(t, cfg)
		mem.Seed(builders.NewIssueBuilder("SEC-1").WithLabels("app", "sast", "gone").Build())
		data := builders.NewDataBuilder().WithFinding("SQLi", tracker.P1, "api").Build()

		summary := process(t, data, cfg, mem)

		assert.Equal(t, 0, mem.Calls(memory.OpCreate))
		issue, _ := mem.Get("SEC-1")
		assert.Equal(t, "Done", issue.Status)
		assert.Equal(t, 1, summary.Counts().Resolved)
	})
}

func TestProcess_Observability(t *testing.T) {
	t.Run("正常系: 課題に関するログにはissue_keyが含まれる", func(t *testing.T) {
		cfg := builders.NewConfigBuilder().WithUpdates(true, false, false).Build()
		mem := newMemory(t, cfg)
		mem.Seed(builders.NewIssueBuilder("SEC-9").WithTitle("Old").WithPriority(tracker.P1).WithLabels("app", "sast", "api").Build())
		data := builders.NewDataBuilder().
			WithFinding("SQLi", tracker.P1, "api").
			WithFinding("XSS", tracker.P2, "web").
			Build()
		log, logs := helpers.NewObservableLogger(zapcore.InfoLevel)

		process(t, data, cfg, mem, WithLogger(log))

		updated := helpers.EntriesWithField(logs, "issue_key", "SEC-9")
		require.NotEmpty(t, updated)
		assert.Equal(t, "Updated the issue", updated[len(updated)-1].Message)
		created := helpers.EntriesWithField(logs, "issue_key", "SEC-10")
		require.NotEmpty(t, created)
		assert.Equal(t, "Created new issue", created[0].Message)
	})

	t.Run("正常系: メトリクスとスパンを記録する", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		metrics, err := telemetry.NewRunMetrics(mp.Meter("test"))
		require.NoError(t, err)
		spans := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

		cfg := builders.NewConfigBuilder().Build()
		mem := newMemory(t, cfg)
		data := builders.NewDataBuilder().
			WithFinding("SQLi", tracker.P1, "api").
			WithFinding("XSS", tracker.P2, "web").
			Build()

		process(t, data, cfg, mem, WithMetrics(metrics), WithTracer(tp.Tracer("test")))

		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(context.Background(), &rm))
		var findings int64
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				if m.Name == "steward.findings" {
					findings = m.Data.(metricdata.Sum[int64]).DataPoints[0].Value
				}
			}
		}
		assert.Equal(t, int64(2), findings)

		names := map[string]int{}
		for _, s := range spans.Ended() {
			names[s.Name()]++
		}
		assert.Equal(t, 1, names["steward.run"])
		assert.Equal(t, 2, names["steward.sync_finding"])
	})
}

func TestScopeQuery(t *testing.T) {
	cfg := builders.NewConfigBuilder().Build()
	data := builders.NewDataBuilder().WithContexts("prod", "eu").Build()

	q := ScopeQuery(cfg, data)

	require.Len(t, q.Conditions, 5)
	assert.Equal(t, tracker.Condition{Field: tracker.FieldProject, Operator: tracker.Matching, Values: []string{"SEC"}}, q.Conditions[0])
	assert.Equal(t, []string{"app"}, q.Conditions[1].Values)
	assert.Equal(t, []string{"sast"}, q.Conditions[2].Values)
	assert.Equal(t, []string{"prod"}, q.Conditions[3].Values)
	assert.Equal(t, []string{"eu"}, q.Conditions[4].Values)
}

func TestEngine_FindingQuery(t *testing.T) {
	cfg := builders.NewConfigBuilder().Build()
	data := builders.NewDataBuilder().WithFinding("SQLi", tracker.P1, "api", "login").Build()
	e := NewEngine(nil, cfg, data)

	q := e.FindingQuery(data.Findings()[0])

	require.Len(t, q.Conditions, 5)
	assert.Equal(t, tracker.Condition{Field: tracker.FieldType, Operator: tracker.Matching, Values: []string{"Bug"}}, q.Conditions[0])
	for i, want := range []string{"app", "sast", "api", "login"} {
		assert.Equal(t, tracker.FieldLabel, q.Conditions[i+1].Field)
		assert.Equal(t, []string{want}, q.Conditions[i+1].Values)
	}
}
