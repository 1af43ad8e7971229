// Package kvs holds the attribution store: the per-dataset metadata that
// names the dataset and configures how its records get their unique keys.
package kvs

import (
	"encoding/json"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ErrNotFound is returned (possibly wrapped) by Store.Get for an unknown
// dataset. Check it with errors.Cause.
var ErrNotFound = errors.New("dataset not found")

// Metadata is the attribution of one dataset.
type Metadata struct {
	DatasetID string `json:"datasetID"`
	Name      string `json:"name,omitempty"`
	License   string `json:"license,omitempty"`
	Publisher string `json:"publisher,omitempty"`
	// TermsForUniqueKey lists, in order, the term names whose values make up
	// a record's unique key.
	TermsForUniqueKey []string `json:"termsForUniqueKey,omitempty"`
	// StripSpaces removes all whitespace from unique key values instead of
	// only trimming them.
	StripSpaces bool `json:"strip,omitempty"`
	// DefaultValues are used, keyed by term name, for terms a record leaves
	// blank.
	DefaultValues map[string]string `json:"defaultValues,omitempty"`
}

// Store looks dataset metadata up by dataset ID. Implementations are safe for
// concurrent use and are closed once by their owner.
type Store interface {
	Get(datasetID string) (Metadata, error)
	Close() error
}

// Memory is an in-memory Store.
type Memory struct {
	mu       sync.RWMutex
	datasets map[string]Metadata
}

// NewMemory returns a Memory store holding the given metadata.
func NewMemory(mds ...Metadata) *Memory {
	m := &Memory{datasets: make(map[string]Metadata, len(mds))}
	for _, md := range mds {
		m.datasets[strings.TrimSpace(md.DatasetID)] = md
	}
	return m
}

// Get implements Store.
func (m *Memory) Get(datasetID string) (Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	md, ok := m.datasets[strings.TrimSpace(datasetID)]
	if !ok {
		return Metadata{}, errors.Wrapf(ErrNotFound, "getting '%s'", datasetID)
	}
	return md, nil
}

// Put adds or replaces metadata.
func (m *Memory) Put(md Metadata) error {
	m.mu.Lock()
	m.datasets[strings.TrimSpace(md.DatasetID)] = md
	m.mu.Unlock()
	return nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

// DecodeJSON reads a JSON array of Metadata. Entries without a dataset ID
// are rejected.
func DecodeJSON(r io.Reader) ([]Metadata, error) {
	var mds []Metadata
	if err := json.NewDecoder(r).Decode(&mds); err != nil {
		return nil, errors.Wrap(err, "decoding metadata")
	}
	for i, md := range mds {
		if strings.TrimSpace(md.DatasetID) == "" {
			return nil, errors.Errorf("metadata entry %d has no datasetID", i)
		}
	}
	return mds, nil
}
