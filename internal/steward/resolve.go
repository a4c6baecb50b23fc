package steward

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/douhashi/steward/internal/config"
	"github.com/douhashi/steward/internal/lifecycle"
	"github.com/douhashi/steward/internal/logger"
	"github.com/douhashi/steward/internal/tracker"
	"github.com/douhashi/steward/internal/workflow"
)

// SweepQuery は自動解決の対象となる課題の検索条件を返す
func (e *Engine) SweepQuery() *tracker.Query {
	q := tracker.NewQuery().Where(tracker.FieldType, tracker.Matching, e.cfg.IssueType)
	for _, label := range scopeLabels(e.data, e.data.Contexts()) {
		q.Where(tracker.FieldLabel, tracker.Matching, label)
	}
	if len(e.cfg.ClosedStatuses) > 0 {
		q.Where(tracker.FieldStatus, tracker.NotMatching, e.cfg.ClosedStatuses...)
	}
	return q
}

// AutoResolve sweeps the open issues in scope and resolves those for which no
// current finding exists. It returns a record for every issue it acted on or
// ignored; the error is non-nil only when the sweep search itself failed.
func (e *Engine) AutoResolve(ctx context.Context) ([]lifecycle.Record, error) {
	e.logger.Info("Verifying if any existing issues are fixed")

	issues, err := e.tracker.Search(ctx, e.SweepQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to search issues to auto-resolve: %w", err)
	}

	var records []lifecycle.Record
	fixed := 0
	for _, issue := range issues {
		if err := ctx.Err(); err != nil {
			return records, nil
		}
		log := e.logger.WithFields("issue_key", issue.Key)

		loaded, err := e.loadLabels(ctx, issue)
		if err != nil {
			log.Error("Failed to load labels of the issue", "error", err)
			rec := lifecycle.NewRecorder(issue.Key, true)
			rec.AddError(err)
			records = append(records, rec.Record())
			continue
		}
		issue = loaded

		if e.ignore.CompletelyIgnored(issue) {
			log.Info("Ignoring the issue")
			rec := lifecycle.NewRecorder(issue.Key, true)
			rec.Set(lifecycle.Ignored)
			records = append(records, rec.Record())
			continue
		}
		if !e.cfg.AutoResolve.IncludeIgnored && e.cfg.IsIgnorable(issue) {
			log.Debug("Skipping auto-resolution for ignored status or label", "status", issue.Status)
			continue
		}
		if e.findingExists(issue) {
			continue
		}

		fixed++
		rec := e.resolveIssue(ctx, issue)
		if !rec.Has(lifecycle.Resolved) {
			log.Info("Auto-resolution was not done")
		}
		records = append(records, rec)
	}

	if fixed == 0 {
		e.logger.Info("No relevant issues found to resolve or close")
	}
	return records, nil
}

func (e *Engine) resolveIssue(ctx context.Context, issue *tracker.Issue) (rec lifecycle.Record) {
	ctx, end := e.span(ctx, "steward.resolve", attribute.String("issue.key", issue.Key))
	defer func() {
		var err error
		if len(rec.Errors) > 0 {
			err = rec.Errors[0]
		}
		end(err)
	}()

	r := lifecycle.NewRecorder(issue.Key, true)
	e.resolve(ctx, issue, r)
	return r.Record()
}

// findingExists reports whether some finding's contexts are all present in
// the issue labels, compared case-insensitively.
func (e *Engine) findingExists(issue *tracker.Issue) bool {
	labels := lowerSet(issue.Labels)
	for _, f := range e.data.Findings() {
		all := true
		for c := range lowerSet(f.Contexts()) {
			if !labels[c] {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// resolve は修正済みと判断した課題をクローズ済みステータスへ遷移させ、コメントする
func (e *Engine) resolve(ctx context.Context, issue *tracker.Issue, rec *lifecycle.Recorder) {
	log := e.logger.WithFields("issue_key", issue.Key)
	log.Info("Issue was found to be fixed, but hasn't been moved to resolved", "status", issue.Status)

	policy := e.cfg.AutoResolve
	now := e.now()
	original := issue.Status
	transitioned := false

	if policy.CanTransition(issue, now) {
		log.Info("Closing the issue")
		issue, transitioned = e.transition(ctx, issue, e.cfg.ClosedStatuses, rec, log)
		if !transitioned {
			log.Warn("No path defined to close the issue", "status", original)
		}
	}

	var lines []string
	if e.commentable(ctx, policy, issue, FixedComment, rec) {
		lines = append(lines, FixedComment)
		if !transitioned {
			lines = append(lines, ResolveRequestComment)
		}
	}
	if transitioned {
		if !e.cfg.IsResolvedStatus(original) {
			lines = append(lines, AutoResolvingComment)
		}
		lines = append(lines, ClosingComment)
		rec.Set(lifecycle.Resolved)
	}
	e.comment(ctx, issue, lines, rec, log)
}

// reopen は解決済みなのに検出が続いている課題を再オープンし、コメントする
func (e *Engine) reopen(ctx context.Context, issue *tracker.Issue, rec *lifecycle.Recorder) {
	log := e.logger.WithFields("issue_key", issue.Key)
	log.Info("Issue was resolved, but not actually fixed", "status", issue.Status)

	policy := e.cfg.AutoReopen
	now := e.now()
	original := issue.Status
	transitioned := false

	if policy.CanTransition(issue, now) {
		log.Info("Reopening the issue")
		targets := []string{e.cfg.ReopenStatus}
		issue, transitioned = e.transition(ctx, issue, targets, rec, log)
		if !transitioned {
			log.Warn("No path defined to open the issue", "status", original)
		}
	}

	var lines []string
	if e.commentable(ctx, policy, issue, NotFixedComment, rec) {
		lines = append(lines, NotFixedComment)
		if !transitioned {
			lines = append(lines, ReopenRequestComment)
		}
	}
	if transitioned {
		lines = append(lines, ReopeningComment)
		rec.Set(lifecycle.Reopened)
	}
	e.comment(ctx, issue, lines, rec, log)
}

// transition moves the issue along the shortest workflow path to one of the
// targets, one status update per hop. A failing hop stops the walk; hops
// already applied stay. It returns the latest issue and whether a target was
// reached.
func (e *Engine) transition(ctx context.Context, issue *tracker.Issue, targets []string, rec *lifecycle.Recorder, log logger.Logger) (*tracker.Issue, bool) {
	path := e.graph.Path(issue.Status, targets)
	if !workflow.Reachable(path, targets) {
		return issue, false
	}

	current := issue
	for _, hop := range workflow.Hops(path) {
		updated, err := e.tracker.Update(ctx, current, tracker.IssueBuilder{Status: tracker.String(hop.To)})
		if err != nil {
			log.Error("Failed to transition the issue", "from", hop.From, "to", hop.To, "error", err)
			rec.AddError(fmt.Errorf("failed to transition %s from %q to %q: %w", issue.Key, hop.From, hop.To, err))
			return current, false
		}
		current = updated
	}

	log.Info("Transitioned the issue", "path", strings.Join(path, " -> "))
	rec.Set(lifecycle.Transitioned)
	return current, true
}

// commentable はコメントの方針を満たし、直近に同じ文言のコメントがない場合にtrueを返す
func (e *Engine) commentable(ctx context.Context, policy config.Policy, issue *tracker.Issue, marker string, rec *lifecycle.Recorder) bool {
	now := e.now()
	if !policy.Comment || !policy.Ready(issue, now) {
		return false
	}
	comments, err := e.tracker.Comments(ctx, issue)
	if err != nil {
		rec.AddError(fmt.Errorf("failed to load comments of %s: %w", issue.Key, err))
		return false
	}
	return policy.Commentable(issue, comments, marker, now)
}

func (e *Engine) comment(ctx context.Context, issue *tracker.Issue, lines []string, rec *lifecycle.Recorder, log logger.Logger) {
	if len(lines) == 0 {
		return
	}
	if _, err := e.tracker.AddComment(ctx, issue, strings.Join(lines, "\n")); err != nil {
		log.Error("Failed to comment on the issue", "error", err)
		rec.AddError(fmt.Errorf("failed to comment on %s: %w", issue.Key, err))
		return
	}
	rec.Set(lifecycle.Commented)
}
