// Package ignore verifies per-issue suppression labels.
//
// A label has the form "<prefix>-<suffix>" where suffix is the tail of the
// hex encoded HMAC-SHA256 of the issue key, keyed by an operator-held secret.
// Anyone holding the secret can mint a label for a single issue offline.
package ignore

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/douhashi/steward/internal/tracker"
)

const (
	// PrefixComplete は全ての自動処理を抑止するラベルのプレフィックス
	PrefixComplete = "ignore"
	// PrefixPriority は優先度の変更のみを抑止するラベルのプレフィックス
	PrefixPriority = "ignore-priority"

	// MinSuffixLength は受け付けるサフィックスの最小長
	MinSuffixLength = 8
	// MaxSuffixLength はダイジェスト全体の長さ
	MaxSuffixLength = sha256.Size * 2
)

// Evaluator checks ignore labels against a shared secret.
type Evaluator struct {
	secret []byte
}

// NewEvaluator creates an Evaluator. An empty secret disables every label.
func NewEvaluator(secret string) *Evaluator {
	return &Evaluator{secret: []byte(secret)}
}

// Enabled はシークレットが設定されているかを返す
func (e *Evaluator) Enabled() bool {
	return e != nil && len(e.secret) > 0
}

// Digest は課題キーのHMAC-SHA256を小文字の16進数で返す
func (e *Evaluator) Digest(key string) (string, error) {
	if !e.Enabled() {
		return "", fmt.Errorf("ignore secret is not configured")
	}
	mac := hmac.New(sha256.New, e.secret)
	if _, err := mac.Write([]byte(key)); err != nil {
		return "", fmt.Errorf("failed to compute digest: %w", err)
	}
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Matches reports whether label is a valid prefix label for the issue key.
// Malformed labels and digest failures never match.
func (e *Evaluator) Matches(label, prefix, key string) bool {
	suffix, ok := splitLabel(label, prefix)
	if !ok {
		return false
	}
	digest, err := e.Digest(key)
	if err != nil {
		return false
	}
	tail := digest[len(digest)-len(suffix):]
	return subtle.ConstantTimeCompare([]byte(tail), []byte(suffix)) == 1
}

// CompletelyIgnored は課題に全処理抑止ラベルが付いているかを返す
func (e *Evaluator) CompletelyIgnored(issue *tracker.Issue) bool {
	return e.hasLabel(issue, PrefixComplete)
}

// PriorityIgnored は課題に優先度変更抑止ラベルが付いているかを返す
func (e *Evaluator) PriorityIgnored(issue *tracker.Issue) bool {
	return e.hasLabel(issue, PrefixPriority)
}

// Mint builds a label for key using the last length digest characters.
func (e *Evaluator) Mint(prefix, key string, length int) (string, error) {
	if length < MinSuffixLength || length > MaxSuffixLength {
		return "", fmt.Errorf("suffix length must be between %d and %d, got %d",
			MinSuffixLength, MaxSuffixLength, length)
	}
	digest, err := e.Digest(key)
	if err != nil {
		return "", err
	}
	return prefix + "-" + digest[len(digest)-length:], nil
}

func (e *Evaluator) hasLabel(issue *tracker.Issue, prefix string) bool {
	if issue == nil || !e.Enabled() {
		return false
	}
	for _, label := range issue.Labels {
		if e.Matches(label, prefix, issue.Key) {
			return true
		}
	}
	return false
}

// splitLabel はラベルからサフィックスを取り出し、小文字の16進数であることを検証する
func splitLabel(label, prefix string) (string, bool) {
	if len(label) <= len(prefix)+1 {
		return "", false
	}
	if !strings.EqualFold(label[:len(prefix)], prefix) || label[len(prefix)] != '-' {
		return "", false
	}
	suffix := strings.ToLower(label[len(prefix)+1:])
	if len(suffix) < MinSuffixLength || len(suffix) > MaxSuffixLength {
		return "", false
	}
	for _, r := range suffix {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return "", false
		}
	}
	return suffix, true
}
