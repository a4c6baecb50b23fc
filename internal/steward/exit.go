package steward

import (
	"github.com/douhashi/steward/internal/config"
	"github.com/douhashi/steward/internal/lifecycle"
)

// ExitReason は終了コードを選んだ理由
type ExitReason string

const (
	ExitFailure   ExitReason = "failure"
	ExitNewIssues ExitReason = "new_issues"
	ExitIssues    ExitReason = "issues"
)

// ExitCode picks the configured exit code for a finished run, checking
// failures first, then newly created issues, then remaining findings. ok is
// false when no configured code applies.
func ExitCode(summary *lifecycle.Summary, codes config.ExitCodes) (code int, reason ExitReason, ok bool) {
	counts := summary.Counts()
	switch {
	case summary.Failed() && codes.OnFailure != nil:
		return *codes.OnFailure, ExitFailure, true
	case counts.Created > 0 && codes.OnNewIssues != nil:
		return *codes.OnNewIssues, ExitNewIssues, true
	case counts.Findings > 0 && codes.OnIssues != nil:
		return *codes.OnIssues, ExitIssues, true
	default:
		return 0, "", false
	}
}
