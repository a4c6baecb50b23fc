package lifecycle

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Counts は実行結果の集計値
type Counts struct {
	Findings           int
	Created            int
	Updated            int
	Assigned           int
	PriorityUpdated    int
	LabelsUpdated      int
	TitleUpdated       int
	DescriptionUpdated int
	Transitioned       int
	Resolved           int
	Reopened           int
	Commented          int
	Ignored            int
	Errors             int
}

// Summary collects the records of one run keyed by issue key, plus the
// errors that could not be attributed to a single issue.
type Summary struct {
	mu       sync.Mutex
	records  map[string]Record
	errs     []error
	findings int
}

// NewSummary は空のSummaryを作成する
func NewSummary() *Summary {
	return &Summary{records: make(map[string]Record)}
}

// Add stores a record. A later record for the same key replaces the earlier
// one; callers that want both phases counted merge them first.
func (s *Summary) Add(rec Record) {
	if rec.IssueKey == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.IssueKey] = rec
}

// Get はキーに対応するRecordを返す
func (s *Summary) Get(key string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	return rec, ok
}

// AddError は課題に紐付かないエラーを記録する
func (s *Summary) AddError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

// SetFindings は入力されたFindingの件数を記録する
func (s *Summary) SetFindings(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findings = n
}

// Records はキー順にソートしたRecordを返す
func (s *Summary) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Record, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.records[k])
	}
	return out
}

// Errors は課題に紐付かないエラーを返す
func (s *Summary) Errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error{}, s.errs...)
}

// Counts derives the aggregate counts from the current records.
func (s *Summary) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := Counts{Findings: s.findings, Errors: len(s.errs)}
	for _, rec := range s.records {
		if rec.Has(Created) {
			c.Created++
		}
		if rec.Updated() {
			c.Updated++
		}
		if rec.Has(Assigned) {
			c.Assigned++
		}
		if rec.Has(PriorityUpdated) {
			c.PriorityUpdated++
		}
		if rec.Has(LabelsUpdated) {
			c.LabelsUpdated++
		}
		if rec.Has(TitleUpdated) {
			c.TitleUpdated++
		}
		if rec.Has(DescriptionUpdated) {
			c.DescriptionUpdated++
		}
		if rec.Has(Transitioned) {
			c.Transitioned++
		}
		if rec.Has(Resolved) {
			c.Resolved++
		}
		if rec.Has(Reopened) {
			c.Reopened++
		}
		if rec.Has(Commented) {
			c.Commented++
		}
		if rec.Has(Ignored) {
			c.Ignored++
		}
		c.Errors += len(rec.Errors)
	}
	return c
}

// Failed は課題単位または実行全体でエラーが発生したかを返す
func (s *Summary) Failed() bool {
	return s.Counts().Errors > 0
}

// String returns the human readable summary printed at the end of a run.
func (s *Summary) String() string {
	c := s.Counts()
	lines := []struct {
		label string
		value int
	}{
		{"Findings", c.Findings},
		{"Created", c.Created},
		{"Updated", c.Updated},
		{"Assigned", c.Assigned},
		{"Priority Changed", c.PriorityUpdated},
		{"Labels Updated", c.LabelsUpdated},
		{"Title Updated", c.TitleUpdated},
		{"Description Updated", c.DescriptionUpdated},
		{"Transitioned", c.Transitioned},
		{"Resolved", c.Resolved},
		{"Reopened", c.Reopened},
		{"Commented", c.Commented},
		{"Ignored", c.Ignored},
		{"Errors", c.Errors},
	}

	var b strings.Builder
	b.WriteString("Execution Summary:")
	for _, l := range lines {
		fmt.Fprintf(&b, "\n%s: %d", l.label, l.value)
	}
	return b.String()
}
