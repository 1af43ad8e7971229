package vocabulary

import (
	"strings"

	"github.com/biocache/opdk"
	"github.com/pkg/errors"
)

// UnmatchedPolicy decides what happens when a vocabulary exists and a value
// is present but nothing matches.
type UnmatchedPolicy int

const (
	// Silent leaves the field unset and records nothing.
	Silent UnmatchedPolicy = iota
	// RecordIssue leaves the field unset and records VOCABULARY_MATCH_NONE.
	RecordIssue
)

// ParseUnmatchedPolicy parses "silent" or "issue".
func ParseUnmatchedPolicy(s string) (UnmatchedPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "silent":
		return Silent, nil
	case "issue", "record-issue":
		return RecordIssue, nil
	}
	return Silent, errors.Errorf("unknown unmatched vocabulary policy '%s'", s)
}

// Resolver resolves terms through a Service, if vocabulary enrichment is
// enabled for the deployment. The zero Resolver is disabled.
type Resolver struct {
	svc    Service
	policy UnmatchedPolicy
}

// Disabled returns a Resolver which never resolves anything and never
// records an issue.
func Disabled() Resolver { return Resolver{} }

// Enabled returns a Resolver backed by svc. A nil svc gives a disabled
// Resolver.
func Enabled(svc Service, policy UnmatchedPolicy) Resolver {
	return Resolver{svc: svc, policy: policy}
}

// Enabled reports whether a Service backs the Resolver.
func (r Resolver) Enabled() bool { return r.svc != nil }

// Resolve looks raw up in the vocabulary of term. The returned
// Interpretation holds nil when there is no result: enrichment disabled, a
// blank value, no vocabulary for the term, or no match. Only an unmatched
// value under RecordIssue records a trace. The error is reserved for a
// failing Service.
func (r Resolver) Resolve(term opdk.Term, raw string) (opdk.Interpretation[*opdk.VocabularyConcept], error) {
	none := opdk.Of[*opdk.VocabularyConcept](nil)
	if r.svc == nil {
		return none, nil
	}
	if strings.TrimSpace(raw) == "" {
		return none, nil
	}
	lookup, ok := r.svc.Vocabulary(term)
	if !ok {
		return none, nil
	}
	m, ok, err := lookup.Lookup(raw)
	if err != nil {
		return none, errors.Wrapf(err, "looking up '%s' for %s", raw, term.SimpleName())
	}
	if !ok {
		if r.policy == RecordIssue {
			return none.WithIssue(term.SimpleName(), opdk.Issue{
				Type:   opdk.VocabularyMatchNone,
				Remark: "no " + term.SimpleName() + " concept matches '" + raw + "'",
			}).WithLineage(term.SimpleName(), opdk.Lineage{
				Type:   opdk.SetToNull,
				Remark: "unmatched " + term.SimpleName() + " value, setting it to null",
			}), nil
		}
		return none, nil
	}
	c := ConceptOf(m)
	return opdk.Of(&c), nil
}

// ConceptOf builds the concept of a match. Its lineage is the match's
// parents reversed to run root first, followed by the concept itself.
func ConceptOf(m Match) opdk.VocabularyConcept {
	lineage := make([]string, 0, len(m.Parents)+1)
	for i := len(m.Parents) - 1; i >= 0; i-- {
		lineage = append(lineage, m.Parents[i])
	}
	lineage = append(lineage, m.Name)
	return opdk.VocabularyConcept{Concept: m.Name, Lineage: lineage}
}
