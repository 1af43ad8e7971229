package json

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/biocache/opdk/records"
	"github.com/pkg/errors"
)

// Sink writes one JSON object per line, each tagged with its aspect. It is
// safe for concurrent use.
type Sink struct {
	mu  sync.Mutex
	w   io.Writer
	enc *json.Encoder
}

// NewSink returns a Sink writing to w.
func NewSink(w io.Writer) *Sink {
	return &Sink{w: w, enc: json.NewEncoder(w)}
}

type line struct {
	Aspect string         `json:"aspect"`
	Record records.Record `json:"record"`
}

// Write implements the ingest sink.
func (s *Sink) Write(r records.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Wrapf(s.enc.Encode(line{Aspect: r.Aspect().String(), Record: r}), "encoding record %s", r.RecordID())
}

// Close closes the underlying writer if it is an io.Closer.
func (s *Sink) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return errors.Wrap(c.Close(), "closing output")
	}
	return nil
}
