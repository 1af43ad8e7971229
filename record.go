package opdk

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// VerbatimRecord is a record as it was ingested: an identifier and the raw
// string value of every term it carries, keyed by qualified term name. It is
// immutable once constructed and safe to share between goroutines.
type VerbatimRecord struct {
	id        string
	coreTerms map[string]string
}

// NewVerbatimRecord copies terms into a new VerbatimRecord. Keys may be
// given in any form accepted by TermFromString. When two keys name the same
// term, the first non-blank value in sorted key order wins.
func NewVerbatimRecord(id string, terms map[string]string) *VerbatimRecord {
	keys := make([]string, 0, len(terms))
	for k := range terms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	core := make(map[string]string, len(terms))
	for _, k := range keys {
		q := TermFromString(k).QualifiedName()
		if prev, ok := core[q]; ok && strings.TrimSpace(prev) != "" {
			continue
		}
		core[q] = terms[k]
	}
	return &VerbatimRecord{id: id, coreTerms: core}
}

// ID returns the record identifier.
func (r *VerbatimRecord) ID() string { return r.id }

// Len returns the number of terms on the record.
func (r *VerbatimRecord) Len() int { return len(r.coreTerms) }

// Empty reports whether the record carries no terms at all.
func (r *VerbatimRecord) Empty() bool { return len(r.coreTerms) == 0 }

// Value returns the raw value for the term, or "" if it is absent.
func (r *VerbatimRecord) Value(t Term) string {
	return r.coreTerms[t.QualifiedName()]
}

// NullAwareValue returns the raw value for the term and true, unless the
// value is missing, blank or the literal "null".
func (r *VerbatimRecord) NullAwareValue(t Term) (string, bool) {
	v, ok := r.coreTerms[t.QualifiedName()]
	if !ok {
		return "", false
	}
	tv := strings.TrimSpace(v)
	if tv == "" || strings.EqualFold(tv, "null") {
		return "", false
	}
	return v, true
}

// Terms returns a copy of the term map.
func (r *VerbatimRecord) Terms() map[string]string {
	ret := make(map[string]string, len(r.coreTerms))
	for k, v := range r.coreTerms {
		ret[k] = v
	}
	return ret
}

type verbatimJSON struct {
	ID        string            `json:"id"`
	CoreTerms map[string]string `json:"coreTerms"`
}

// MarshalJSON encodes the record as {"id": ..., "coreTerms": {...}}.
func (r *VerbatimRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(verbatimJSON{ID: r.id, CoreTerms: r.coreTerms})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (r *VerbatimRecord) UnmarshalJSON(data []byte) error {
	var v verbatimJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return errors.Wrap(err, "decoding verbatim record")
	}
	*r = *NewVerbatimRecord(v.ID, v.CoreTerms)
	return nil
}

// VocabularyConcept is a value normalised against a controlled vocabulary.
// Lineage runs from the most distant ancestor down to Concept itself.
type VocabularyConcept struct {
	Concept string   `json:"concept"`
	Lineage []string `json:"lineage"`
}
