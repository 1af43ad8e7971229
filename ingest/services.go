package ingest

import (
	"io"
	"os"
	"strings"

	"github.com/biocache/opdk/avro"
	"github.com/biocache/opdk/json"
	"github.com/biocache/opdk/kvs"
	"github.com/biocache/opdk/uniquekey"
	"github.com/biocache/opdk/vocabulary"
	"github.com/pkg/errors"
)

type errorList []error

func (errs errorList) Error() string {
	errstrings := make([]string, len(errs))
	for i, err := range errs {
		errstrings[i] = err.Error()
	}
	return strings.Join(errstrings, "; ")
}

// services are opened once per run and shared by every worker. The leveldb
// backed ones hold a directory lock, so they cannot be opened per worker.
type services struct {
	vocabulary  vocabulary.Resolver
	vocabSvc    vocabulary.Service
	attribution kvs.Store
	identifiers uniquekey.IdentifierStore
}

func (s *services) Close() error {
	errs := make(errorList, 0)
	if s.vocabSvc != nil {
		if err := s.vocabSvc.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "closing vocabulary"))
		}
	}
	if s.attribution != nil {
		if err := s.attribution.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "closing attribution store"))
		}
	}
	if s.identifiers != nil {
		if err := s.identifiers.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "closing identifier store"))
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// openServices opens the vocabulary, attribution and identifier services
// once per run rather than once per worker. leveldb takes an exclusive lock
// on its directory, so workers cannot each open their own; all of the
// services are safe for concurrent reads and are closed once, when the run
// ends. Converters still Setup and Teardown per worker.
func (m *Main) openServices() (_ *services, err error) {
	s := &services{}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	policy, err := vocabulary.ParseUnmatchedPolicy(m.UnmatchedConcept)
	if err != nil {
		return nil, err
	}
	switch {
	case m.VocabularyDir != "":
		ldb, err := vocabulary.OpenLevelDB(m.VocabularyDir)
		if err != nil {
			return nil, errors.Wrap(err, "opening vocabulary")
		}
		s.vocabSvc = ldb
	case m.VocabularyFile != "":
		snap, err := decodeFile(m.VocabularyFile, vocabulary.LoadSnapshot)
		if err != nil {
			return nil, errors.Wrap(err, "loading vocabulary")
		}
		s.vocabSvc = snap
	}
	if s.vocabSvc != nil {
		s.vocabulary = vocabulary.Enabled(s.vocabSvc, policy)
	} else {
		m.Log.Printf("no vocabulary configured; vocabulary terms will not be interpreted")
		s.vocabulary = vocabulary.Disabled()
	}

	switch {
	case m.AttributionDB != "":
		b, err := kvs.OpenBolt(m.AttributionDB)
		if err != nil {
			return nil, errors.Wrap(err, "opening attribution store")
		}
		s.attribution = b
	case m.AttributionFile != "":
		mds, err := decodeFile(m.AttributionFile, kvs.DecodeJSON)
		if err != nil {
			return nil, errors.Wrap(err, "loading attribution")
		}
		s.attribution = kvs.NewMemory(mds...)
	default:
		s.attribution = kvs.NewMemory()
	}

	if m.IdentifierDir != "" {
		ls, err := uniquekey.OpenLevelStore(m.IdentifierDir)
		if err != nil {
			return nil, errors.Wrap(err, "opening identifier store")
		}
		s.identifiers = ls
	} else {
		s.identifiers = uniquekey.NewMemoryStore()
	}
	return s, nil
}

func decodeFile[T any](name string, decode func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(name)
	if err != nil {
		return zero, errors.Wrap(err, "opening")
	}
	defer f.Close()
	v, err := decode(f)
	if err != nil {
		return zero, errors.Wrapf(err, "decoding %s", name)
	}
	return v, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func (m *Main) defaultSink() (Sink, error) {
	if m.Format == "json" {
		if m.Output == "-" {
			return json.NewSink(nopCloser{os.Stdout}), nil
		}
		f, err := os.Create(m.Output)
		if err != nil {
			return nil, errors.Wrap(err, "creating output file")
		}
		return json.NewSink(f), nil
	}
	return avro.NewSink(m.Output, avro.OptSinkCompression(m.Compression), avro.OptSinkBatchSize(m.BatchSize))
}
