package telemetry

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/douhashi/steward/internal/lifecycle"
)

func TestInit(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(func() {
		_ = Shutdown(ctx)
		_ = Init(ctx, Options{})
	})

	t.Run("正常系: 無効の場合はno-opプロバイダーを設定する", func(t *testing.T) {
		require.NoError(t, Init(ctx, Options{}))

		_, span := Tracer("").Start(ctx, "noop")
		assert.False(t, span.SpanContext().IsValid())
		span.End()
		assert.NoError(t, Shutdown(ctx))
	})

	t.Run("正常系: 有効の場合はスパンを出力先に書き出す", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Init(ctx, Options{Enabled: true, Version: "test", Writer: &buf}))

		_, span := Tracer("").Start(ctx, "steward.test-span")
		assert.True(t, span.SpanContext().IsValid())
		span.End()

		require.NoError(t, Shutdown(ctx))
		assert.Contains(t, buf.String(), "steward.test-span")
	})
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	want := attribute.NewSet(attrs...)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				if dp.Attributes.Equals(&want) {
					return dp.Value
				}
			}
		}
	}
	return 0
}

func TestRunMetrics_Record(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 集計値をカウンターに記録する", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		m, err := NewRunMetrics(mp.Meter("test"))
		require.NoError(t, err)

		summary := lifecycle.NewSummary()
		summary.SetFindings(3)
		created := lifecycle.NewRecorder("SEC-1", false)
		created.Set(lifecycle.Created)
		summary.Add(created.Record())
		resolved := lifecycle.NewRecorder("SEC-2", true)
		resolved.Set(lifecycle.Transitioned, lifecycle.Resolved, lifecycle.Commented)
		summary.Add(resolved.Record())
		summary.AddError(errors.New("boom"))

		m.Record(ctx, summary)

		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(ctx, &rm))
		assert.Equal(t, int64(3), sumOf(t, rm, "steward.findings"))
		assert.Equal(t, int64(1), sumOf(t, rm, "steward.errors"))
		assert.Equal(t, int64(1), sumOf(t, rm, "steward.issues", attribute.String("action", "created")))
		assert.Equal(t, int64(1), sumOf(t, rm, "steward.issues", attribute.String("action", "resolved")))
		assert.Equal(t, int64(1), sumOf(t, rm, "steward.issues", attribute.String("action", "commented")))
		assert.Equal(t, int64(0), sumOf(t, rm, "steward.issues", attribute.String("action", "reopened")))
	})

	t.Run("正常系: nilでもパニックしない", func(t *testing.T) {
		var m *RunMetrics
		assert.NotPanics(t, func() { m.Record(ctx, lifecycle.NewSummary()) })

		m, err := NewRunMetrics(nil)
		require.NoError(t, err)
		assert.NotPanics(t, func() { m.Record(ctx, nil) })
	})

	t.Run("正常系: グローバルのMeterを使う", func(t *testing.T) {
		assert.NotNil(t, otel.GetMeterProvider())
		_, err := NewRunMetrics(Meter(""))
		assert.NoError(t, err)
	})
}
