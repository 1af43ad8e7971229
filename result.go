package opdk

// Result is the outcome of interpreting a single value: either Ok with the
// value, or Failed with the issues and lineage explaining why there is no
// value. Failed is an expected data-quality outcome, never an environmental
// error; those are returned as a Go error alongside.
type Result[T any] struct {
	value    T
	ok       bool
	issues   []Issue
	lineages []Lineage
}

// Ok returns a successful Result holding v.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Failed returns a Result with no value.
func Failed[T any](issues []Issue, lineages []Lineage) Result[T] {
	return Result[T]{
		issues:   concat(issues, nil),
		lineages: concat(lineages, nil),
	}
}

// SetNull returns the usual failure: one issue, and one SET_TO_NULL lineage
// entry stating that the field was nulled.
func SetNull[T any](issueType IssueType, remark, lineageRemark string) Result[T] {
	return Failed[T](
		[]Issue{{Type: issueType, Remark: remark}},
		[]Lineage{{Type: SetToNull, Remark: lineageRemark}},
	)
}

// Get returns the value and whether there is one.
func (r Result[T]) Get() (T, bool) { return r.value, r.ok }

// OK reports whether the Result holds a value.
func (r Result[T]) OK() bool { return r.ok }

// Issues returns a copy of the issues of a failed Result.
func (r Result[T]) Issues() []Issue { return concat(r.issues, nil) }

// Lineages returns a copy of the lineage of a failed Result.
func (r Result[T]) Lineages() []Lineage { return concat(r.lineages, nil) }

// Interpretation converts r into an Interpretation whose traces carry the
// issues and lineage of r, attributed to fieldName.
func (r Result[T]) Interpretation(fieldName string) Interpretation[T] {
	in := Of(r.value)
	for _, is := range r.issues {
		in = in.WithIssue(fieldName, is)
	}
	for _, l := range r.lineages {
		in = in.WithLineage(fieldName, l)
	}
	return in
}

// Map transforms the value of a successful Result and passes failures
// through unchanged.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if !r.ok {
		return Result[U]{issues: r.issues, lineages: r.lineages}
	}
	return Ok(f(r.value))
}
