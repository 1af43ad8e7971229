package test

import (
	"reflect"
	"testing"

	"github.com/biocache/opdk"
)

// MustBe uses reflect.DeepEqual to assert that thing1 and thing2 are equal, and
// fails otherwise.
func MustBe(t *testing.T, thing1, thing2 interface{}, context ...string) {
	t.Helper()
	var ctx string
	if len(context) == 0 {
		ctx = ""
	} else {
		ctx = context[0] + ": "
	}
	if !reflect.DeepEqual(thing1, thing2) {
		t.Fatalf("%v'%#v' != '%#v'", ctx, thing1, thing2)
	}
}

// ErrNil asserts that the err is nil and fails otherwise.
func ErrNil(t *testing.T, err error, ctx string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%v: %v", ctx, err)
	}
}

// Record builds a verbatim record from alternating term names and values,
// e.g. Record("1", "country", "Peru", "locality", "La Paz").
func Record(id string, kv ...string) *opdk.VerbatimRecord {
	if len(kv)%2 != 0 {
		panic("test.Record needs an even number of term/value arguments")
	}
	m := make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		m[opdk.TermFromString(kv[i]).QualifiedName()] = kv[i+1]
	}
	return opdk.NewVerbatimRecord(id, m)
}

// IssueTypes returns the types of the issues in l, in order.
func IssueTypes(l *opdk.IssueList) []opdk.IssueType {
	var ret []opdk.IssueType
	for _, is := range l.Issues() {
		ret = append(ret, is.Type)
	}
	return ret
}

// TraceTypes returns the issue types of the traces of in, in order.
func TraceTypes[T any](in opdk.Interpretation[T]) []opdk.IssueType {
	var ret []opdk.IssueType
	in.ForEachTrace(func(tr opdk.Trace[opdk.IssueType]) {
		ret = append(ret, tr.Context)
	})
	return ret
}
