package opdk

import (
	"io"
	"sync"
)

// Source is the interface for getting verbatim records one at a time. Record
// returns io.EOF when there are no more records. Implementations of Source
// should be thread safe.
type Source interface {
	Record() (*VerbatimRecord, error)
}

// NamedReadCloser is a ReadCloser which knows the name of the resource it
// reads (a file name or an object key).
type NamedReadCloser interface {
	io.ReadCloser
	Name() string
}

// RawSource hands out readers over the raw files of a dataset one at a time.
// NextReader returns io.EOF when there are no more. Implementations should
// be thread safe.
type RawSource interface {
	NextReader() (NamedReadCloser, error)
}

// SliceSource is a Source over an in-memory slice of records.
type SliceSource struct {
	mu      sync.Mutex
	records []*VerbatimRecord
	idx     int
}

// NewSliceSource returns a SliceSource which yields records in order.
func NewSliceSource(records ...*VerbatimRecord) *SliceSource {
	return &SliceSource{records: records}
}

// Record implements Source.
func (s *SliceSource) Record() (*VerbatimRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx >= len(s.records) {
		return nil, io.EOF
	}
	rec := s.records[s.idx]
	s.idx++
	return rec, nil
}
