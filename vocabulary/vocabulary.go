// Package vocabulary resolves raw values against controlled vocabularies
// (life stage, establishment means, pathway, event type, ...) and builds the
// normalised concept with its ancestor lineage.
//
// A Service is a shared, read-mostly resource. Open it once per run, use it
// from as many goroutines as needed, and close it once when the run ends.
package vocabulary

import (
	"strings"
	"unicode"

	"github.com/biocache/opdk"
)

// Match is a concept found by a lookup.
type Match struct {
	// Name is the canonical concept name.
	Name string `json:"name"`
	// Parents are the broader concepts, nearest first (leaf to root).
	Parents []string `json:"parents,omitempty"`
}

// LookupHandle looks raw values up in one vocabulary. The error is reserved
// for failures of the underlying store; a value which matches nothing
// returns false and a nil error.
type LookupHandle interface {
	Lookup(raw string) (Match, bool, error)
}

// Service gives access to the vocabularies of a deployment.
type Service interface {
	// Vocabulary returns the lookup for the term, and false if no
	// vocabulary exists for it.
	Vocabulary(term opdk.Term) (LookupHandle, bool)
	Close() error
}

// Concept is one entry of a vocabulary export.
type Concept struct {
	Name    string   `json:"name"`
	Labels  []string `json:"labels,omitempty"`
	Parents []string `json:"parents,omitempty"`
}

// Vocabulary is the export of the vocabulary bound to one term.
type Vocabulary struct {
	Term     string    `json:"term"`
	Concepts []Concept `json:"concepts"`
}

// Normalize lowercases s and drops everything but letters and digits, so
// that "Adult ", "adult" and "ADULT." all share a key.
func Normalize(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// keys returns the normalised lookup keys of a concept: its name and every
// label.
func (c Concept) keys() []string {
	ret := make([]string, 0, len(c.Labels)+1)
	if k := Normalize(c.Name); k != "" {
		ret = append(ret, k)
	}
	for _, l := range c.Labels {
		if k := Normalize(l); k != "" {
			ret = append(ret, k)
		}
	}
	return ret
}

func (c Concept) match() Match {
	return Match{Name: c.Name, Parents: append([]string(nil), c.Parents...)}
}
