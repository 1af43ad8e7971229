package opdk_test

import (
	"testing"

	"github.com/biocache/opdk"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type target struct {
	steps []string
}

func record(name string, issue opdk.IssueType) opdk.Step[*opdk.VerbatimRecord, *target] {
	return func(_ *opdk.VerbatimRecord, t *target) opdk.Interpretation[struct{}] {
		t.steps = append(t.steps, name)
		if issue == "" {
			return opdk.Done()
		}
		return opdk.Done().WithIssue(name, opdk.Issue{Type: issue})
	}
}

func TestChainRunsInOrder(t *testing.T) {
	er := opdk.NewVerbatimRecord("1", map[string]string{"sex": "m"})
	in, ok, err := opdk.From(er, &target{}).
		Via(record("a", "")).
		Via(record("b", opdk.ParseError)).
		ViaFunc(func(_ *opdk.VerbatimRecord, t *target) { t.steps = append(t.steps, "c") }).
		Via(record("d", opdk.CountryInvalid)).
		Run()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c", "d"}, in.Value().steps)
	assert.Equal(t, []opdk.Trace[opdk.IssueType]{
		{FieldName: "b", Context: opdk.ParseError},
		{FieldName: "d", Context: opdk.CountryInvalid},
	}, in.Traces())
}

func TestChainGate(t *testing.T) {
	empty := opdk.NewVerbatimRecord("1", nil)
	hasTerms := func(er *opdk.VerbatimRecord) bool { return !er.Empty() }

	in, ok, err := opdk.From(empty, &target{}).
		Via(record("before", opdk.ParseError)).
		When(hasTerms).
		Via(record("after", opdk.CountryInvalid)).
		Run()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"before"}, in.Value().steps)
	assert.Equal(t, 1, in.Len())

	in, ok, err = opdk.From(opdk.NewVerbatimRecord("2", map[string]string{"sex": "f"}), &target{}).
		When(hasTerms).
		Via(record("after", "")).
		Run()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"after"}, in.Value().steps)
	assert.Equal(t, 0, in.Len())
}

func TestChainFatal(t *testing.T) {
	boom := errors.New("service down")
	in, ok, err := opdk.From(opdk.NewVerbatimRecord("1", nil), &target{}).
		Via(record("a", opdk.ParseError)).
		ViaChecked(func(*opdk.VerbatimRecord, *target) (opdk.Interpretation[struct{}], error) {
			return opdk.Done(), boom
		}).
		Via(record("never", "")).
		Run()
	require.Error(t, err)
	assert.Equal(t, boom, errors.Cause(err))
	assert.True(t, ok)
	assert.Equal(t, []string{"a"}, in.Value().steps)
	assert.Equal(t, []opdk.IssueType{opdk.ParseError}, traceTypes(in))
}
