// Package file reads verbatim records from JSON files on disk.
package file

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/biocache/opdk"
	"github.com/biocache/opdk/json"
	"github.com/pkg/errors"
)

// Source is a opdk.Source which reads json objects from files on disk.
type Source struct {
	rawSource *RawSource
	records   chan record
	bufSize   int
}

// SrcOption is a functional option for the file Source.
type SrcOption func(s *Source) error

// OptSrcPath sets the path name for the file or directory to use for source
// data.
func OptSrcPath(pathname string) SrcOption {
	return func(s *Source) (err error) {
		s.rawSource, err = NewRawSource(pathname)
		if err != nil {
			return errors.Wrap(err, "getting raw source")
		}
		return nil
	}
}

// OptSrcBufSize sets the number of records to buffer while waiting for
// Record to be called.
func OptSrcBufSize(n int) SrcOption {
	return func(s *Source) error {
		if n < 0 {
			return errors.Errorf("negative buffer size %d", n)
		}
		s.bufSize = n
		return nil
	}
}

func (s *Source) run() {
	reader, err := s.rawSource.NextReader()
	for ; err == nil; reader, err = s.rawSource.NextReader() {
		src := json.NewSource(reader, reader.Name())
		for {
			r := record{}
			r.data, r.err = src.Record()
			if r.err == io.EOF {
				reader.Close()
				break
			}
			if r.err != nil {
				r.err = errors.Wrapf(r.err, "decoding %s", reader.Name())
				s.records <- r
				reader.Close()
				break
			}
			s.records <- r
		}
	}
	if err != io.EOF {
		s.records <- record{err: errors.Wrap(err, "getting next reader")}
	}

	close(s.records)
}

// NewSource gets a new file source which will read json data from a file or
// all files in a directory.
func NewSource(opts ...SrcOption) (*Source, error) {
	s := &Source{
		bufSize: 100,
	}
	for _, opt := range opts {
		err := opt(s)
		if err != nil {
			return nil, err
		}
	}
	if s.rawSource == nil {
		return nil, errors.New("no path given")
	}
	s.records = make(chan record, s.bufSize)
	go s.run()
	return s, nil
}

// Record implements opdk.Source.
func (s *Source) Record() (*opdk.VerbatimRecord, error) {
	rec, ok := <-s.records
	if !ok {
		return nil, io.EOF
	}
	return rec.data, rec.err
}

type record struct {
	data *opdk.VerbatimRecord
	err  error
}

// RawSource hands out the files of a directory, or a single file, in name
// order.
type RawSource struct {
	files   []string
	fileIdx *uint64
}

// NewRawSource lists pathname. Subdirectories and hidden files are skipped.
func NewRawSource(pathname string) (*RawSource, error) {
	fileIdx := uint64(0)
	s := &RawSource{
		fileIdx: &fileIdx,
	}
	info, err := os.Stat(pathname)
	if err != nil {
		return nil, errors.Wrap(err, "statting path")
	}
	if info.IsDir() {
		entries, err := os.ReadDir(pathname)
		if err != nil {
			return nil, errors.Wrap(err, "reading directory")
		}
		s.files = make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() || e.Name()[0] == '.' {
				continue
			}
			s.files = append(s.files, filepath.Join(pathname, e.Name()))
		}
		sort.Strings(s.files)
	} else {
		s.files = []string{pathname}
	}
	return s, nil
}

type namedFile struct {
	*os.File
}

func (m *namedFile) Name() string {
	return filepath.Base(m.File.Name())
}

// NextReader implements opdk.RawSource.
func (s *RawSource) NextReader() (opdk.NamedReadCloser, error) {
	idx := atomic.AddUint64(s.fileIdx, 1) - 1
	if int(idx) >= len(s.files) {
		return nil, io.EOF
	}

	file, err := os.Open(s.files[idx])
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", s.files[idx])
	}

	return &namedFile{file}, nil
}
