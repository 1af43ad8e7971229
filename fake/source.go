package fake

import (
	"io"
	"sync"

	"github.com/biocache/opdk"
)

// Source is a opdk.Source of generated occurrences.
type Source struct {
	mu  sync.Mutex
	g   *OccurrenceGenerator
	max int
	n   int
}

// NewSource returns a Source which generates max records. A max of 0 never
// ends.
func NewSource(seed int64, noise float64, max int) *Source {
	return &Source{
		g:   NewOccurrenceGenerator(seed, noise),
		max: max,
	}
}

// Record implements opdk.Source.
func (s *Source) Record() (*opdk.VerbatimRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.max > 0 && s.n >= s.max {
		return nil, io.EOF
	}
	s.n++
	return s.g.Occurrence(), nil
}
