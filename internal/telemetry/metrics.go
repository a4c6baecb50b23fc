package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/douhashi/steward/internal/lifecycle"
)

// RunMetrics records the counts of one execution summary as counters.
type RunMetrics struct {
	findings metric.Int64Counter
	errors   metric.Int64Counter
	issues   metric.Int64Counter
}

// NewRunMetrics はmeterからカウンターを作成する。meterがnilの場合はグローバルのMeterを使う
func NewRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	if meter == nil {
		meter = Meter("")
	}
	findings, err := meter.Int64Counter("steward.findings",
		metric.WithDescription("Findings processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: steward.findings: %w", err)
	}
	errs, err := meter.Int64Counter("steward.errors",
		metric.WithDescription("Errors recorded while reconciling"),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: steward.errors: %w", err)
	}
	issues, err := meter.Int64Counter("steward.issues",
		metric.WithDescription("Issue lifecycle actions by kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: steward.issues: %w", err)
	}
	return &RunMetrics{findings: findings, errors: errs, issues: issues}, nil
}

// Record adds the summary's counts. Issue actions share one counter with an
// "action" attribute; zero counts are skipped.
func (m *RunMetrics) Record(ctx context.Context, summary *lifecycle.Summary, attrs ...attribute.KeyValue) {
	if m == nil || summary == nil {
		return
	}
	c := summary.Counts()
	m.findings.Add(ctx, int64(c.Findings), metric.WithAttributes(attrs...))
	m.errors.Add(ctx, int64(c.Errors), metric.WithAttributes(attrs...))

	for _, a := range []struct {
		name  string
		count int
	}{
		{"created", c.Created},
		{"updated", c.Updated},
		{"assigned", c.Assigned},
		{"priority_updated", c.PriorityUpdated},
		{"labels_updated", c.LabelsUpdated},
		{"title_updated", c.TitleUpdated},
		{"description_updated", c.DescriptionUpdated},
		{"transitioned", c.Transitioned},
		{"resolved", c.Resolved},
		{"reopened", c.Reopened},
		{"commented", c.Commented},
		{"ignored", c.Ignored},
	} {
		if a.count == 0 {
			continue
		}
		withAction := append([]attribute.KeyValue{attribute.String("action", a.name)}, attrs...)
		m.issues.Add(ctx, int64(a.count), metric.WithAttributes(withAction...))
	}
}
