package opdk

// Trace annotates a value with what happened to it, where and why, as it
// passes through a sequence of interpretation steps.
type Trace[T any] struct {
	// FieldName is the output field the trace concerns. It may be empty.
	FieldName string
	// Context is the thing being traced, typically an IssueType.
	Context T
	// Remark is a human-readable observation. It may be empty.
	Remark string
}

// NewTrace returns a Trace. fieldName and remark may be empty.
func NewTrace[T any](fieldName string, context T, remark string) Trace[T] {
	return Trace[T]{FieldName: fieldName, Context: context, Remark: remark}
}

// Interpretation pairs a value with everything known to have gone wrong
// while constructing it: an ordered sequence of issue traces, and the
// lineage traces describing what was done about them.
//
// Interpretations are values. Every operation returns a new Interpretation
// and leaves its inputs untouched, so the same Interpretation may be reused
// from several goroutines.
type Interpretation[T any] struct {
	value    T
	traces   []Trace[IssueType]
	lineages []Trace[LineageType]
}

// Of returns an Interpretation of v with no traces. It is the identity for
// Using.
func Of[T any](v T) Interpretation[T] {
	return Interpretation[T]{value: v}
}

// Done is the empty Interpretation returned by steps that record nothing.
func Done() Interpretation[struct{}] {
	return Of(struct{}{})
}

// Value returns the interpreted value.
func (in Interpretation[T]) Value() T { return in.value }

// Len returns the number of issue traces.
func (in Interpretation[T]) Len() int { return len(in.traces) }

// Traces returns a copy of the issue traces in step order.
func (in Interpretation[T]) Traces() []Trace[IssueType] {
	return concat(in.traces, nil)
}

// Lineages returns a copy of the lineage traces in step order.
func (in Interpretation[T]) Lineages() []Trace[LineageType] {
	return concat(in.lineages, nil)
}

// WithTrace returns a copy of in with the traces appended.
func (in Interpretation[T]) WithTrace(traces ...Trace[IssueType]) Interpretation[T] {
	return Interpretation[T]{
		value:    in.value,
		traces:   concat(in.traces, traces),
		lineages: in.lineages,
	}
}

// WithIssue returns a copy of in with a trace for the issue appended.
func (in Interpretation[T]) WithIssue(fieldName string, issue Issue) Interpretation[T] {
	return in.WithTrace(NewTrace(fieldName, issue.Type, issue.Remark))
}

// WithLineage returns a copy of in with a lineage trace appended.
func (in Interpretation[T]) WithLineage(fieldName string, lineage Lineage) Interpretation[T] {
	return Interpretation[T]{
		value:    in.value,
		traces:   in.traces,
		lineages: concat(in.lineages, []Trace[LineageType]{NewTrace(fieldName, lineage.Type, lineage.Remark)}),
	}
}

// ForEachTrace calls fn with every issue trace in step order.
func (in Interpretation[T]) ForEachTrace(fn func(Trace[IssueType])) {
	for _, t := range in.traces {
		fn(t)
	}
}

// ForEachLineage calls fn with every lineage trace in step order.
func (in Interpretation[T]) ForEachLineage(fn func(Trace[LineageType])) {
	for _, t := range in.lineages {
		fn(t)
	}
}

// Using applies f to the value of in and returns its result with the traces
// of in placed before the traces f produced. Concatenation is associative
// and Of is a left and right unit.
func Using[T, U any](in Interpretation[T], f func(T) Interpretation[U]) Interpretation[U] {
	next := f(in.value)
	return Interpretation[U]{
		value:    next.value,
		traces:   concat(in.traces, next.traces),
		lineages: concat(in.lineages, next.lineages),
	}
}

// Then sequences two interpretations, keeping the value of the second.
func Then[T, U any](first Interpretation[T], second Interpretation[U]) Interpretation[U] {
	return Using(first, func(T) Interpretation[U] { return second })
}

// Discard keeps the traces of in and drops its value.
func Discard[T any](in Interpretation[T]) Interpretation[struct{}] {
	return Then(in, Done())
}

// concat never aliases its inputs. It returns nil when both are empty.
func concat[E any](a, b []E) []E {
	if len(a)+len(b) == 0 {
		return nil
	}
	ret := make([]E, 0, len(a)+len(b))
	ret = append(ret, a...)
	return append(ret, b...)
}
