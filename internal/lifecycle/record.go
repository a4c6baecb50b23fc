// Package lifecycle records what a reconciliation run did to each issue and
// aggregates the results into an execution summary.
package lifecycle

import (
	"strings"
)

// Flag は1つの課題に対して実行された処理を表すビット
type Flag uint16

const (
	Created Flag = 1 << iota
	Assigned
	PriorityUpdated
	LabelsUpdated
	TitleUpdated
	DescriptionUpdated
	Transitioned
	Resolved
	Reopened
	Commented
	Ignored
)

// updateFlags はUpdatedの判定に使うフラグ
const updateFlags = Assigned | PriorityUpdated | LabelsUpdated | TitleUpdated |
	DescriptionUpdated | Transitioned | Commented

var flagNames = []struct {
	flag Flag
	name string
}{
	{Created, "created"},
	{Assigned, "assigned"},
	{PriorityUpdated, "priority_updated"},
	{LabelsUpdated, "labels_updated"},
	{TitleUpdated, "title_updated"},
	{DescriptionUpdated, "description_updated"},
	{Transitioned, "transitioned"},
	{Resolved, "resolved"},
	{Reopened, "reopened"},
	{Commented, "commented"},
	{Ignored, "ignored"},
}

// String はセットされているフラグ名を "|" 区切りで返す
func (f Flag) String() string {
	var names []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			names = append(names, fn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Record is the immutable outcome of processing one issue.
type Record struct {
	IssueKey string
	Existed  bool
	Flags    Flag
	Errors   []error
}

// Has はフラグがすべてセットされているかを返す
func (r Record) Has(f Flag) bool {
	return r.Flags&f == f
}

// Updated reports whether any mutation flag is set. Created, Resolved,
// Reopened and Ignored do not count on their own.
func (r Record) Updated() bool {
	return r.Flags&updateFlags != 0
}

// Failed は処理中にエラーが記録されたかを返す
func (r Record) Failed() bool {
	return len(r.Errors) > 0
}

// Merge combines two records for the same issue. Flags are OR-ed and errors
// are concatenated, so flags never get cleared by a later phase.
func (r Record) Merge(other Record) Record {
	merged := Record{
		IssueKey: r.IssueKey,
		Existed:  r.Existed || other.Existed,
		Flags:    r.Flags | other.Flags,
	}
	if merged.IssueKey == "" {
		merged.IssueKey = other.IssueKey
	}
	if len(r.Errors)+len(other.Errors) > 0 {
		merged.Errors = make([]error, 0, len(r.Errors)+len(other.Errors))
		merged.Errors = append(merged.Errors, r.Errors...)
		merged.Errors = append(merged.Errors, other.Errors...)
	}
	return merged
}

// Recorder accumulates flags for a single operation on one issue. It is not
// shared: each operation owns its Recorder and hands back a Record.
type Recorder struct {
	key     string
	existed bool
	flags   Flag
	errs    []error
}

// NewRecorder は課題キーに対するRecorderを作成する
func NewRecorder(key string, existed bool) *Recorder {
	return &Recorder{key: key, existed: existed}
}

// Set はフラグをセットする。一度セットしたフラグは解除されない
func (r *Recorder) Set(flags ...Flag) {
	for _, f := range flags {
		r.flags |= f
	}
}

// Has はフラグがすべてセットされているかを返す
func (r *Recorder) Has(f Flag) bool {
	return r.flags&f == f
}

// Updated はいずれかの更新フラグがセットされているかを返す
func (r *Recorder) Updated() bool {
	return r.flags&updateFlags != 0
}

// AddError は処理中のエラーを記録する
func (r *Recorder) AddError(err error) {
	if err != nil {
		r.errs = append(r.errs, err)
	}
}

// Record returns an immutable snapshot of the accumulated state.
func (r *Recorder) Record() Record {
	rec := Record{
		IssueKey: r.key,
		Existed:  r.existed,
		Flags:    r.flags,
	}
	if len(r.errs) > 0 {
		rec.Errors = append([]error{}, r.errs...)
	}
	return rec
}
