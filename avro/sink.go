package avro

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/biocache/opdk/records"
	liavro "github.com/linkedin/goavro/v2"
	"github.com/pkg/errors"
)

// DefaultBatchSize is the number of records buffered per aspect before a
// block is written.
const DefaultBatchSize = 1000

// Sink writes records to <dir>/<aspect>.avro. It is safe for concurrent use.
type Sink struct {
	mu          sync.Mutex
	dir         string
	compression string
	batchSize   int
	writers     map[records.Aspect]*aspectWriter
}

type aspectWriter struct {
	f     *os.File
	w     *liavro.OCFWriter
	batch []interface{}
}

// SinkOption configures a Sink.
type SinkOption func(s *Sink)

// OptSinkCompression sets the OCF codec: "null", "deflate" or "snappy".
func OptSinkCompression(name string) SinkOption {
	return func(s *Sink) {
		s.compression = name
	}
}

// OptSinkBatchSize sets the number of records per block.
func OptSinkBatchSize(n int) SinkOption {
	return func(s *Sink) {
		s.batchSize = n
	}
}

// NewSink returns a Sink writing under dir, which is created if needed.
func NewSink(dir string, opts ...SinkOption) (*Sink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "making output directory")
	}
	s := &Sink{
		dir:         dir,
		compression: liavro.CompressionSnappyLabel,
		batchSize:   DefaultBatchSize,
		writers:     make(map[records.Aspect]*aspectWriter),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.batchSize < 1 {
		s.batchSize = 1
	}
	return s, nil
}

// Path returns the file records of aspect a are written to.
func (s *Sink) Path(a records.Aspect) string {
	return filepath.Join(s.dir, a.String()+".avro")
}

func (s *Sink) writer(a records.Aspect) (*aspectWriter, error) {
	if aw, ok := s.writers[a]; ok {
		return aw, nil
	}
	schema, err := Schema(a)
	if err != nil {
		return nil, errors.Wrap(err, "building schema")
	}
	codec, err := liavro.NewCodec(schema)
	if err != nil {
		return nil, errors.Wrapf(err, "compiling %v schema", a)
	}
	f, err := os.Create(s.Path(a))
	if err != nil {
		return nil, errors.Wrap(err, "creating output file")
	}
	w, err := liavro.NewOCFWriter(liavro.OCFConfig{
		W:               f,
		Codec:           codec,
		CompressionName: s.compression,
	})
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "creating OCF writer")
	}
	aw := &aspectWriter{f: f, w: w, batch: make([]interface{}, 0, s.batchSize)}
	s.writers[a] = aw
	return aw, nil
}

// Write buffers r, writing a block once the batch for its aspect is full.
func (s *Sink) Write(r records.Record) error {
	native, err := Native(r)
	if err != nil {
		return errors.Wrapf(err, "converting record %s", r.RecordID())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	aw, err := s.writer(r.Aspect())
	if err != nil {
		return err
	}
	aw.batch = append(aw.batch, native)
	if len(aw.batch) >= s.batchSize {
		return aw.flush()
	}
	return nil
}

func (aw *aspectWriter) flush() error {
	if len(aw.batch) == 0 {
		return nil
	}
	err := aw.w.Append(aw.batch)
	aw.batch = aw.batch[:0]
	return errors.Wrap(err, "appending block")
}

// Close writes the remaining records and closes every file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var first error
	for a, aw := range s.writers {
		if err := aw.flush(); err != nil && first == nil {
			first = errors.Wrapf(err, "flushing %v", a)
		}
		if err := aw.f.Close(); err != nil && first == nil {
			first = errors.Wrapf(err, "closing %v", a)
		}
	}
	s.writers = make(map[records.Aspect]*aspectWriter)
	return first
}

// ReadAll decodes every record of an object container file.
func ReadAll(r io.Reader) ([]map[string]interface{}, error) {
	ocf, err := liavro.NewOCFReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening OCF reader")
	}
	var ret []map[string]interface{}
	for ocf.Scan() {
		datum, err := ocf.Read()
		if err != nil {
			return nil, errors.Wrap(err, "reading datum")
		}
		m, ok := datum.(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("unexpected datum type %T", datum)
		}
		ret = append(ret, m)
	}
	return ret, errors.Wrap(ocf.Err(), "scanning")
}
