package tracker

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Priority は優先度ランク（数値が小さいほど緊急度が高い）
type Priority int

const (
	P0 Priority = iota
	P1
	P2
	P3
	P4
)

// Priorities は定義済みの優先度を緊急度の高い順に返す
func Priorities() []Priority {
	return []Priority{P0, P1, P2, P3, P4}
}

// ParsePriority は "P1" / "p1" / "1" 形式の文字列を優先度に変換する
func ParsePriority(s string) (Priority, error) {
	v := strings.TrimSpace(s)
	if len(v) > 1 && (v[0] == 'P' || v[0] == 'p') {
		v = v[1:]
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < int(P0) || n > int(P4) {
		return 0, fmt.Errorf("invalid priority %q", s)
	}
	return Priority(n), nil
}

// String は "P0" 形式の表記を返す
func (p Priority) String() string {
	return "P" + strconv.Itoa(int(p))
}

// Valid は定義済みの優先度かどうかを返す
func (p Priority) Valid() bool {
	return p >= P0 && p <= P4
}

// Outranks は p が other より緊急度が高い場合にtrueを返す
func (p Priority) Outranks(other Priority) bool {
	return p < other
}

// Ptr returns a pointer to p, for IssueBuilder fields.
func (p Priority) Ptr() *Priority {
	return &p
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalYAML は "P1" と 1 の両方の表記を受け付ける
func (p *Priority) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: priority must be a scalar", node.Line)
	}
	parsed, err := ParsePriority(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*p = parsed
	return nil
}

// PriorityNames は優先度とトラッカー側の優先度名の対応表
type PriorityNames map[Priority]string

// Name はトラッカー側の優先度名を返す。未定義の場合は "P<n>" 表記を返す
func (m PriorityNames) Name(p Priority) string {
	if name, ok := m[p]; ok && name != "" {
		return name
	}
	return p.String()
}

// Lookup はトラッカー側の優先度名から優先度を逆引きする（大文字小文字を区別しない）
func (m PriorityNames) Lookup(name string) (Priority, bool) {
	for _, p := range Priorities() {
		if n, ok := m[p]; ok && strings.EqualFold(n, name) {
			return p, true
		}
	}
	return 0, false
}
