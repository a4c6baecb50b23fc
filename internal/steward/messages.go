package steward

import "fmt"

// 課題に投稿するコメントの文言
const (
	FixedComment          = "This issue has been fixed."
	NotFixedComment       = "Found that the issue is still not fixed."
	ResolveRequestComment = "Please resolve this issue."
	ReopenRequestComment  = "Please reopen this issue."
	AutoResolvingComment  = "Auto resolving this issue."
	ClosingComment        = "Closing this issue after verification."
	ReopeningComment      = "Reopening this issue as it is not fixed."
)

// PriorityComment は優先度を変更した際のコメントを返す
func PriorityComment(name string) string {
	return fmt.Sprintf("Prioritizing to **%s** based on actual priority.", name)
}
