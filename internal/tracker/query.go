package tracker

import (
	"fmt"
	"strings"
)

// Field は検索条件の対象フィールド
type Field string

const (
	FieldProject Field = "project"
	FieldLabel   Field = "label"
	FieldStatus  Field = "status"
	FieldType    Field = "type"
)

// Operator は検索条件の演算子
type Operator string

const (
	Matching    Operator = "matching"
	NotMatching Operator = "not_matching"
)

// Condition は検索条件の1要素
type Condition struct {
	Field    Field
	Operator Operator
	Values   []string
}

// Query は検索条件の順序付きリスト。すべての条件をAND結合で評価する
type Query struct {
	Conditions []Condition
}

// NewQuery は空のQueryを作成する
func NewQuery() *Query {
	return &Query{}
}

// Where は条件を追加して自身を返す
func (q *Query) Where(field Field, op Operator, values ...string) *Query {
	q.Conditions = append(q.Conditions, Condition{
		Field:    field,
		Operator: op,
		Values:   append([]string{}, values...),
	})
	return q
}

// Match reports whether issue satisfies every condition of the query.
// Labels compare case-insensitively; project, status and type are exact.
func (q *Query) Match(issue *Issue) bool {
	if q == nil {
		return true
	}
	for _, c := range q.Conditions {
		if !c.Match(issue) {
			return false
		}
	}
	return true
}

// Match は1条件の評価を行う
func (c Condition) Match(issue *Issue) bool {
	switch c.Field {
	case FieldProject:
		if c.Operator == NotMatching {
			return !contains(c.Values, issue.ProjectKey)
		}
		return contains(c.Values, issue.ProjectKey)
	case FieldLabel:
		found := false
		for _, v := range c.Values {
			if issue.HasLabel(v) {
				found = true
				break
			}
		}
		if c.Operator == NotMatching {
			return !found
		}
		return found
	case FieldStatus:
		if c.Operator == NotMatching {
			return !contains(c.Values, issue.Status)
		}
		return contains(c.Values, issue.Status)
	case FieldType:
		if c.Operator == NotMatching {
			return !contains(c.Values, issue.Type)
		}
		return contains(c.Values, issue.Type)
	default:
		return false
	}
}

// String はログ出力用の表記を返す
func (q *Query) String() string {
	if q == nil || len(q.Conditions) == 0 {
		return "<all>"
	}
	parts := make([]string, 0, len(q.Conditions))
	for _, c := range q.Conditions {
		parts = append(parts, fmt.Sprintf("%s %s [%s]", c.Field, c.Operator, strings.Join(c.Values, ", ")))
	}
	return strings.Join(parts, " AND ")
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
