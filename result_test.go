package opdk_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/biocache/opdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult(t *testing.T) {
	r := opdk.Ok(3)
	v, ok := r.Get()
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Nil(t, r.Issues())
	assert.Equal(t, 0, r.Interpretation("count").Len())

	f := opdk.SetNull[int](opdk.IndividualCountInvalid, "", "nulled count")
	_, ok = f.Get()
	assert.False(t, ok)
	assert.Equal(t, []opdk.Issue{{Type: opdk.IndividualCountInvalid}}, f.Issues())
	assert.Equal(t, []opdk.Lineage{{Type: opdk.SetToNull, Remark: "nulled count"}}, f.Lineages())

	in := f.Interpretation("individualCount")
	assert.Equal(t, []opdk.Trace[opdk.IssueType]{{FieldName: "individualCount", Context: opdk.IndividualCountInvalid}}, in.Traces())
	assert.Equal(t, []opdk.Trace[opdk.LineageType]{{FieldName: "individualCount", Context: opdk.SetToNull, Remark: "nulled count"}}, in.Lineages())
}

func TestMap(t *testing.T) {
	up := opdk.Map(opdk.Ok("adult"), strings.ToUpper)
	v, ok := up.Get()
	assert.True(t, ok)
	assert.Equal(t, "ADULT", v)

	failed := opdk.Map(opdk.SetNull[string](opdk.ParseError, "x", "y"), strings.ToUpper)
	assert.False(t, failed.OK())
	assert.Equal(t, []opdk.Issue{{Type: opdk.ParseError, Remark: "x"}}, failed.Issues())
}

func TestIssueListJSON(t *testing.T) {
	var l opdk.IssueList
	b, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `{"issueList":[],"lineage":[]}`, string(b))

	l.Add(opdk.Issue{Type: opdk.ParseError, Remark: "r"}, opdk.Lineage{Type: opdk.SetToNull})
	l.AddLineage(opdk.Lineage{Type: opdk.DefaultApplied, Remark: "d"})
	b, err = json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"issueList":[{"issueType":"PARSE_ERROR","remark":"r"}],
		"lineage":[{"lineageType":"SET_TO_NULL","remark":""},{"lineageType":"DEFAULT_APPLIED","remark":"d"}]
	}`, string(b))
	assert.Equal(t, 1, l.Len())
}
