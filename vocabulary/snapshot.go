package vocabulary

import (
	"encoding/json"
	"io"

	"github.com/biocache/opdk"
	"github.com/pkg/errors"
)

// Snapshot is an in-memory Service built from vocabulary exports. It is
// immutable once built and safe for concurrent use.
type Snapshot struct {
	lookups map[string]mapLookup
}

type mapLookup map[string]Match

// Lookup implements LookupHandle.
func (m mapLookup) Lookup(raw string) (Match, bool, error) {
	match, ok := m[Normalize(raw)]
	return match, ok, nil
}

// NewSnapshot indexes the vocabularies by term. When two concepts share a
// normalised key, the first one wins.
func NewSnapshot(vocabs ...Vocabulary) *Snapshot {
	s := &Snapshot{lookups: make(map[string]mapLookup, len(vocabs))}
	for _, v := range vocabs {
		term := opdk.TermFromString(v.Term).QualifiedName()
		lookup, ok := s.lookups[term]
		if !ok {
			lookup = make(mapLookup)
			s.lookups[term] = lookup
		}
		for _, c := range v.Concepts {
			for _, k := range c.keys() {
				if _, exists := lookup[k]; !exists {
					lookup[k] = c.match()
				}
			}
		}
	}
	return s
}

// LoadSnapshot decodes a JSON array of Vocabulary exports into a Snapshot.
func LoadSnapshot(r io.Reader) (*Snapshot, error) {
	vocabs, err := decodeExport(r)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(vocabs...), nil
}

func decodeExport(r io.Reader) ([]Vocabulary, error) {
	var vocabs []Vocabulary
	if err := json.NewDecoder(r).Decode(&vocabs); err != nil {
		return nil, errors.Wrap(err, "decoding vocabulary export")
	}
	return vocabs, nil
}

// Vocabulary implements Service.
func (s *Snapshot) Vocabulary(term opdk.Term) (LookupHandle, bool) {
	l, ok := s.lookups[term.QualifiedName()]
	return l, ok
}

// Close implements Service. A Snapshot holds no resources.
func (s *Snapshot) Close() error { return nil }
