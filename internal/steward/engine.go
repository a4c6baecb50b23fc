// Package steward reconciles findings into issues of an external tracker.
//
// One run syncs every finding (create, update, re-prioritize, reopen) and then
// sweeps the issues in scope to auto-resolve those whose finding disappeared.
// Failures are recorded per finding or per issue and never abort the batch.
package steward

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/douhashi/steward/internal/config"
	"github.com/douhashi/steward/internal/finding"
	"github.com/douhashi/steward/internal/ignore"
	"github.com/douhashi/steward/internal/lifecycle"
	"github.com/douhashi/steward/internal/logger"
	"github.com/douhashi/steward/internal/telemetry"
	"github.com/douhashi/steward/internal/tracker"
	"github.com/douhashi/steward/internal/tracker/contextcache"
	"github.com/douhashi/steward/internal/tracker/dryrun"
	"github.com/douhashi/steward/internal/workflow"
)

// Engine は1回分の照合処理を実行する
type Engine struct {
	tracker tracker.Tracker
	cfg     *config.Config
	data    *finding.Data
	graph   workflow.Graph
	ignore  *ignore.Evaluator

	logger  logger.Logger
	now     func() time.Time
	metrics *telemetry.RunMetrics
	tracer  trace.Tracer
}

// Option はEngineの設定を変更する
type Option func(*Engine)

// WithLogger はロガーを設定する
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock は現在時刻の取得関数を差し替える（経過日数やコメント間隔の判定に使う）
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithMetrics は実行結果を記録するメトリクスを設定する
func WithMetrics(m *telemetry.RunMetrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithTracer はスパンを作成するトレーサーを設定する
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// NewEngine creates an engine over an already composed tracker stack.
// Most callers want Process, which builds the stack from the configuration.
func NewEngine(t tracker.Tracker, cfg *config.Config, data *finding.Data, opts ...Option) *Engine {
	e := &Engine{
		tracker: t,
		cfg:     cfg,
		data:    data,
		graph:   cfg.Workflow(),
		ignore:  ignore.NewEvaluator(cfg.IgnoreSecret),
		logger:  logger.Nop(),
		now:     time.Now,
		tracer:  telemetry.Tracer(""),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ScopeQuery はコンテキストキャッシュが事前取得する範囲の検索条件を返す
func ScopeQuery(cfg *config.Config, data *finding.Data) *tracker.Query {
	q := tracker.NewQuery().Where(tracker.FieldProject, tracker.Matching, cfg.ProjectKey)
	for _, label := range scopeLabels(data, data.Contexts()) {
		q.Where(tracker.FieldLabel, tracker.Matching, label)
	}
	return q
}

// Process validates the configuration, composes base with the context cache
// (and the dry-run facade when enabled) and runs one reconciliation pass.
// Only configuration and prefetch failures are returned as errors; per-item
// failures are collected in the summary.
func Process(ctx context.Context, data *finding.Data, cfg *config.Config, base tracker.Tracker, opts ...Option) (*lifecycle.Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := NewEngine(nil, cfg, data, opts...)

	cache, err := contextcache.New(ctx, base, ScopeQuery(cfg, data))
	if err != nil {
		return nil, err
	}
	e.logger.Debug("Prefetched issues in scope", "count", cache.Len(), "scope", cache.Scope().String())

	e.tracker = cache
	if cfg.DryRun {
		e.tracker = dryrun.New(cache, e.logger)
	}
	return e.Run(ctx)
}

// Run syncs every finding in order and then runs the auto-resolve sweep.
// The returned error is non-nil only when ctx is done; the summary then holds
// what was processed so far.
func (e *Engine) Run(ctx context.Context) (*lifecycle.Summary, error) {
	summary := lifecycle.NewSummary()
	findings := e.data.Findings()
	summary.SetFindings(len(findings))

	ctx, span := e.tracer.Start(ctx, "steward.run", trace.WithAttributes(
		attribute.String("steward.project", e.data.ProjectName),
		attribute.String("steward.tool", e.data.ToolName),
		attribute.Int("steward.findings", len(findings)),
	))
	defer span.End()

	e.logger.Info("Findings identified",
		"project", e.data.ProjectName,
		"tool", e.data.ToolName,
		"count", len(findings),
	)

	err := e.run(ctx, summary, findings)

	e.metrics.Record(ctx, summary,
		attribute.String("steward.project", e.data.ProjectName),
		attribute.String("steward.tool", e.data.ToolName),
	)
	e.logSummary(summary)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return summary, err
}

func (e *Engine) run(ctx context.Context, summary *lifecycle.Summary, findings []*finding.Finding) error {
	if !e.cfg.DisableFindingsSync {
		e.logger.Info("Processing scanned results")
		for _, f := range findings {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := e.SyncFinding(ctx, f)
			if err != nil {
				e.logger.Error("Failed to sync finding", "title", f.Title, "error", err)
				summary.AddError(err)
				continue
			}
			summary.Add(rec)
		}
	}

	if !e.cfg.AutoResolveEnabled() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	records, err := e.AutoResolve(ctx)
	for _, rec := range records {
		summary.Add(rec)
	}
	if err != nil {
		e.logger.Error("Failed to auto-resolve issues", "error", err)
		summary.AddError(err)
	}
	return ctx.Err()
}

func (e *Engine) logSummary(summary *lifecycle.Summary) {
	c := summary.Counts()
	e.logger.Info("Execution summary",
		"findings", c.Findings,
		"created", c.Created,
		"updated", c.Updated,
		"priority_updated", c.PriorityUpdated,
		"transitioned", c.Transitioned,
		"resolved", c.Resolved,
		"reopened", c.Reopened,
		"commented", c.Commented,
		"ignored", c.Ignored,
		"errors", c.Errors,
	)
}

// span はスパンを開始し、エラーを記録して終了する関数を返す
func (e *Engine) span(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := e.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// scopeLabels はプロジェクト名、ツール名、コンテキストの順に空でないラベルを返す
func scopeLabels(data *finding.Data, contexts []string) []string {
	labels := make([]string, 0, len(contexts)+2)
	for _, l := range append([]string{data.ProjectName, data.ToolName}, contexts...) {
		if l != "" {
			labels = append(labels, l)
		}
	}
	return labels
}
