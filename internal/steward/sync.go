package steward

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/douhashi/steward/internal/finding"
	"github.com/douhashi/steward/internal/lifecycle"
	"github.com/douhashi/steward/internal/tracker"
)

// FindingQuery は検出結果に対応する課題の検索条件を返す。
// 課題タイプが一致し、プロジェクト名、ツール名、検出結果の全コンテキストをラベルに持つ課題が対象
func (e *Engine) FindingQuery(f *finding.Finding) *tracker.Query {
	q := tracker.NewQuery().Where(tracker.FieldType, tracker.Matching, e.cfg.IssueType)
	for _, label := range scopeLabels(e.data, f.Contexts()) {
		q.Where(tracker.FieldLabel, tracker.Matching, label)
	}
	return q
}

// SyncFinding reconciles one finding: it creates an issue when none matches,
// brings the single matching issue up to date, or fails when several match.
// Errors before an issue is identified are returned; failures on an
// identified issue are kept in its record.
func (e *Engine) SyncFinding(ctx context.Context, f *finding.Finding) (rec lifecycle.Record, err error) {
	ctx, end := e.span(ctx, "steward.sync_finding",
		attribute.String("finding.title", f.Title),
		attribute.String("finding.priority", f.Priority.String()),
	)
	defer func() { end(err) }()

	issues, err := e.tracker.Search(ctx, e.FindingQuery(f))
	if err != nil {
		return lifecycle.Record{}, fmt.Errorf("failed to search issues for %q: %w", f.Title, err)
	}

	switch len(issues) {
	case 0:
		return e.createIssue(ctx, f)
	case 1:
		return e.syncIssue(ctx, issues[0], f), nil
	default:
		return lifecycle.Record{}, fmt.Errorf("%w: labels %v, issues %v",
			tracker.ErrAmbiguousMatch, f.Contexts(), tracker.Keys(issues))
	}
}

func (e *Engine) createIssue(ctx context.Context, f *finding.Finding) (lifecycle.Record, error) {
	builder := tracker.IssueBuilder{
		Project:     tracker.String(e.cfg.ProjectKey),
		Title:       tracker.String(f.Title),
		IssueType:   tracker.String(e.cfg.IssueType),
		Priority:    f.Priority.Ptr(),
		Description: tracker.String(f.Description),
		Labels:      e.data.Labels(f),
	}
	if assignee := f.ResolveAssignee(e.cfg.Assignee); assignee != "" {
		builder.Assignee = tracker.String(assignee)
	}

	issue, err := e.tracker.Create(ctx, builder)
	if err != nil {
		return lifecycle.Record{}, fmt.Errorf("failed to create issue for %q: %w", f.Title, err)
	}

	e.logger.Info("Created new issue",
		"issue_key", issue.Key,
		"title", issue.Title,
		"priority", f.Priority.String(),
		"labels", issue.Labels,
	)
	rec := lifecycle.NewRecorder(issue.Key, false)
	rec.Set(lifecycle.Created)
	return rec.Record(), nil
}

func (e *Engine) syncIssue(ctx context.Context, issue *tracker.Issue, f *finding.Finding) lifecycle.Record {
	rec := lifecycle.NewRecorder(issue.Key, true)
	log := e.logger.WithFields("issue_key", issue.Key)

	issue, err := e.loadLabels(ctx, issue)
	if err != nil {
		rec.AddError(err)
		return rec.Record()
	}

	if e.ignore.CompletelyIgnored(issue) {
		log.Info("Ignoring the issue")
		rec.Set(lifecycle.Ignored)
		return rec.Record()
	}

	var (
		builder tracker.IssueBuilder
		pending []lifecycle.Flag
		comment string
	)

	if issue.Assignee == "" {
		if assignee := f.ResolveAssignee(e.cfg.Assignee); assignee != "" {
			builder.Assignee = tracker.String(assignee)
			pending = append(pending, lifecycle.Assigned)
		}
	}
	if e.cfg.UpdateTitle && issue.Title != f.Title {
		builder.Title = tracker.String(f.Title)
		pending = append(pending, lifecycle.TitleUpdated)
	}
	if e.cfg.UpdateDescription && !e.tracker.ContentsMatch(f.Description, issue.Description) {
		builder.Description = tracker.String(f.Description)
		pending = append(pending, lifecycle.DescriptionUpdated)
	}
	if e.cfg.UpdateLabels {
		if labels, changed := mergeLabels(issue.Labels, f.Contexts(), f.Tags()); changed {
			builder.Labels = labels
			pending = append(pending, lifecycle.LabelsUpdated)
		}
	}
	if !e.ignore.PriorityIgnored(issue) && e.shouldReprioritize(issue.Priority, f.Priority) {
		name := e.tracker.PriorityName(f.Priority)
		builder.Priority = f.Priority.Ptr()
		comment = PriorityComment(name)
		pending = append(pending, lifecycle.PriorityUpdated)
		log.Info("Prioritizing the issue based on actual priority", "priority", name)
	}

	if !builder.IsEmpty() {
		updated, err := e.tracker.Update(ctx, issue, builder)
		if err != nil {
			log.Error("Failed to update the issue", "error", err)
			rec.AddError(fmt.Errorf("failed to update %s: %w", issue.Key, err))
			return rec.Record()
		}
		issue = updated
		rec.Set(pending...)

		if comment != "" {
			if _, err := e.tracker.AddComment(ctx, issue, comment); err != nil {
				log.Error("Failed to comment on the issue", "error", err)
				rec.AddError(fmt.Errorf("failed to comment on %s: %w", issue.Key, err))
			} else {
				rec.Set(lifecycle.Commented)
			}
		}
	}

	switch {
	case e.cfg.ReopenAllowed(issue.Status):
		e.reopen(ctx, issue, rec)
	case rec.Updated():
		log.Info("Updated the issue", "status", issue.Status)
	default:
		log.Info("Issue up to date", "status", issue.Status)
	}
	return rec.Record()
}

// loadLabels は未読み込みのラベルを取得した課題を返す。無視ラベルの判定はラベルが揃ってから行う
func (e *Engine) loadLabels(ctx context.Context, issue *tracker.Issue) (*tracker.Issue, error) {
	if issue.LabelsLoaded() {
		return issue, nil
	}
	refreshed, err := e.tracker.Refresh(ctx, issue)
	if err != nil {
		return nil, fmt.Errorf("failed to load labels of %s: %w", issue.Key, err)
	}
	return refreshed, nil
}

// shouldReprioritize reports whether the issue priority has to follow the
// finding: always when unset, towards more urgency with PrioritizeDown and
// towards less urgency with PrioritizeUp.
func (e *Engine) shouldReprioritize(current *tracker.Priority, want tracker.Priority) bool {
	switch {
	case current == nil:
		return true
	case want.Outranks(*current):
		return e.cfg.PrioritizeDown
	case current.Outranks(want):
		return e.cfg.PrioritizeUp
	default:
		return false
	}
}

// mergeLabels appends the values missing from existing (exact comparison) and
// reports whether anything was added.
func mergeLabels(existing []string, groups ...[]string) ([]string, bool) {
	merged := append([]string{}, existing...)
	seen := make(map[string]bool, len(existing))
	for _, l := range existing {
		seen[l] = true
	}
	for _, group := range groups {
		for _, l := range group {
			if l == "" || seen[l] {
				continue
			}
			seen[l] = true
			merged = append(merged, l)
		}
	}
	return merged, len(merged) != len(existing)
}

// lowerSet は小文字に正規化した集合を返す
func lowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = true
	}
	return set
}
