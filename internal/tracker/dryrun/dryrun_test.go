package dryrun

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/douhashi/steward/internal/logger"
	"github.com/douhashi/steward/internal/testutil/mocks"
	"github.com/douhashi/steward/internal/tracker"
	"github.com/douhashi/steward/internal/tracker/memory"
)

var fixedNow = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func newDryRun(t *testing.T) (*Tracker, *memory.Tracker, *observer.ObservedLogs) {
	t.Helper()
	inner := memory.New(memory.WithProject("SEC"), memory.WithPriorityNames(tracker.PriorityNames{tracker.P0: "Blocker"}))
	inner.Seed(&tracker.Issue{Key: "SEC-1", ProjectKey: "SEC", Title: "old", Status: "Open", Labels: []string{"api"}})
	inner.SeedComment("SEC-1", &tracker.Comment{ID: "1", Body: "hello"})

	core, logs := observer.New(zapcore.InfoLevel)
	dr := New(inner, logger.FromZap(zap.New(core))).WithClock(func() time.Time { return fixedNow })
	return dr, inner, logs
}

func TestTracker_Create(t *testing.T) {
	ctx := context.Background()
	dr, inner, logs := newDryRun(t)

	issue, err := dr.Create(ctx, tracker.IssueBuilder{
		Project:  tracker.String("SEC"),
		Title:    tracker.String("SQLi"),
		Priority: tracker.P1.Ptr(),
		Labels:   []string{"shop", "zap"},
	})
	require.NoError(t, err)
	assert.Equal(t, "DRYRUN-1", issue.Key)
	assert.Equal(t, "SQLi", issue.Title)
	assert.Equal(t, "Open", issue.Status)
	assert.Equal(t, tracker.P1, *issue.Priority)
	assert.Equal(t, fixedNow, issue.CreatedAt)

	// 内側のTrackerには作成されない
	assert.Equal(t, 0, inner.Calls(memory.OpCreate))
	assert.Len(t, inner.Issues(), 1)

	entries := logs.FilterMessage("Would create issue").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, true, fields["dry_run"])
	assert.Equal(t, "DRYRUN-1", fields["issue_key"])
}

func TestTracker_Update(t *testing.T) {
	ctx := context.Background()
	dr, inner, _ := newDryRun(t)

	original, ok := inner.Get("SEC-1")
	require.True(t, ok)

	updated, err := dr.Update(ctx, original, tracker.IssueBuilder{
		Title:  tracker.String("new"),
		Status: tracker.String("Closed"),
	})
	require.NoError(t, err)
	assert.Equal(t, "SEC-1", updated.Key)
	assert.Equal(t, "new", updated.Title)
	assert.Equal(t, "Closed", updated.Status)
	assert.Equal(t, []string{"api"}, updated.Labels)

	stored, _ := inner.Get("SEC-1")
	assert.Equal(t, "old", stored.Title)
	assert.Equal(t, "Open", stored.Status)
	assert.Equal(t, 0, inner.Calls(memory.OpUpdate))
	// 引数の課題も変更しない
	assert.Equal(t, "old", original.Title)
}

func TestTracker_AddComment(t *testing.T) {
	ctx := context.Background()
	dr, inner, logs := newDryRun(t)

	c, err := dr.AddComment(ctx, &tracker.Issue{Key: "SEC-1"}, "This issue has been fixed.")
	require.NoError(t, err)
	assert.Equal(t, "This issue has been fixed.", c.Body)
	assert.Equal(t, 0, inner.Calls(memory.OpAddComment))
	assert.Equal(t, 1, logs.FilterMessage("Would add comment").Len())

	comments, err := dr.Comments(ctx, &tracker.Issue{Key: "SEC-1"})
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "hello", comments[0].Body)
}

func TestTracker_PassThrough(t *testing.T) {
	ctx := context.Background()
	dr, inner, _ := newDryRun(t)

	found, err := dr.Search(ctx, tracker.NewQuery().Where(tracker.FieldLabel, tracker.Matching, "API"))
	require.NoError(t, err)
	assert.Equal(t, []string{"SEC-1"}, tracker.Keys(found))
	assert.Equal(t, 1, inner.Calls(memory.OpSearch))

	_, err = dr.Refresh(ctx, found[0])
	require.NoError(t, err)
	assert.Equal(t, 1, inner.Calls(memory.OpRefresh))

	assert.Equal(t, "Blocker", dr.PriorityName(tracker.P0))
	assert.True(t, dr.ContentsMatch("a\r\n", "a"))
}

func TestTracker_SyntheticIssueHasNoComments(t *testing.T) {
	ctx := context.Background()
	dr, inner, _ := newDryRun(t)

	created, err := dr.Create(ctx, tracker.IssueBuilder{Title: tracker.String("t")})
	require.NoError(t, err)

	comments, err := dr.Comments(ctx, created)
	require.NoError(t, err)
	assert.Empty(t, comments)
	assert.Equal(t, 0, inner.Calls(memory.OpComments))
}

func TestNew_TagsLoggerWithDryRun(t *testing.T) {
	log := mocks.NewMockLogger()
	log.On("WithFields", []interface{}{"dry_run", true}).Return(log).Once()
	log.On("Info", "Would create issue", mock.Anything).Return().Once()

	inner := memory.New(memory.WithProject("SEC"))
	dr := New(inner, log)

	_, err := dr.Create(context.Background(), tracker.IssueBuilder{Title: tracker.String("t")})
	require.NoError(t, err)
	log.AssertExpectations(t)
}
