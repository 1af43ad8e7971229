// Package interpreters holds the field-level interpreters. Each field has a
// pure Interpret function from the raw string to an opdk.Result, and a step
// which reads the term from a verbatim record, interprets it and sets the
// field on an interpreted record.
//
// Interpreters never fail for bad data. A value that cannot be interpreted
// leaves the field unset and yields an issue explaining why, usually with a
// SET_TO_NULL lineage entry. A term the record does not carry at all yields
// nothing.
package interpreters

import (
	"math"
	"strconv"
	"strings"

	"github.com/biocache/opdk"
	"github.com/pkg/errors"
)

// apply interprets the value of term, when present, and hands a successful
// result to set.
func apply[T any](er *opdk.VerbatimRecord, term opdk.Term, interpret func(string) opdk.Result[T], set func(T)) opdk.Interpretation[struct{}] {
	raw, ok := er.NullAwareValue(term)
	if !ok {
		return opdk.Done()
	}
	res := interpret(raw)
	if v, ok := res.Get(); ok {
		set(v)
		return opdk.Done()
	}
	return opdk.Discard(res.Interpretation(term.SimpleName()))
}

// nulled builds the usual failure for a field.
func nulled[T any](issue opdk.IssueType, field, reason string) opdk.Result[T] {
	return opdk.SetNull[T](issue,
		"Could not parse "+field+" because "+reason,
		"Could not parse the "+field+" or invalid value setting it to null")
}

// isNull reports whether raw carries no value at all.
func isNull(raw string) bool {
	s := strings.TrimSpace(raw)
	return s == "" || strings.EqualFold(s, "null")
}

// key lowercases s and keeps only letters and digits.
func key(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') || r > 127 {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// SplitMulti splits a multi-valued term on '|' and ';', trimming the parts
// and dropping empty ones.
func SplitMulti(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == '|' || r == ';' })
	ret := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ret = append(ret, p)
		}
	}
	if len(ret) == 0 {
		return nil
	}
	return ret
}

// Trimmed returns the trimmed raw value. It never fails.
func Trimmed(raw string) opdk.Result[string] {
	return opdk.Ok(strings.TrimSpace(raw))
}

func parseInt32(raw string) (int32, error) {
	i, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
	return int32(i), err
}

// parseFloat parses a finite decimal number. NaN and infinities are
// rejected.
func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Errorf("%s is not finite", s)
	}
	return v, nil
}

func ptr[T any](v T) *T { return &v }
