package vocabulary

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/biocache/opdk"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

var _ Service = &LevelDB{}

// LevelDB is a Service which keeps one leveldb per vocabulary under a
// directory. Each database maps normalised keys to JSON encoded Matches.
type LevelDB struct {
	lock    sync.RWMutex
	dirname string
	vocabs  map[string]*levelLookup
}

type levelLookup struct {
	db *leveldb.DB
}

// Lookup implements LookupHandle.
func (l *levelLookup) Lookup(raw string) (Match, bool, error) {
	var m Match
	key := Normalize(raw)
	if key == "" {
		return m, false, nil
	}
	data, err := l.db.Get([]byte(key), nil)
	if err == leveldb.ErrNotFound {
		return m, false, nil
	} else if err != nil {
		return m, false, errors.Wrap(err, "getting from leveldb")
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, false, errors.Wrapf(err, "decoding concept for '%s'", key)
	}
	return m, true, nil
}

type errorList []error

func (errs errorList) Error() string {
	errstrings := make([]string, len(errs))
	for i, err := range errs {
		errstrings[i] = err.Error()
	}
	return strings.Join(errstrings, "; ")
}

// OpenLevelDB opens every vocabulary found under dirname, creating the
// directory if needed.
func OpenLevelDB(dirname string) (*LevelDB, error) {
	err := os.MkdirAll(dirname, 0700)
	if err != nil {
		return nil, errors.Wrap(err, "making directory")
	}
	s := &LevelDB{
		dirname: dirname,
		vocabs:  make(map[string]*levelLookup),
	}
	entries, err := os.ReadDir(dirname)
	if err != nil {
		return nil, errors.Wrap(err, "listing vocabularies")
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		term := opdk.TermFromString(e.Name())
		if _, err := s.getVocab(term); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

// getVocab retrieves or opens the leveldb of the given term.
func (s *LevelDB) getVocab(term opdk.Term) (*levelLookup, error) {
	key := term.QualifiedName()
	s.lock.RLock()
	if l, ok := s.vocabs[key]; ok {
		s.lock.RUnlock()
		return l, nil
	}
	s.lock.RUnlock()
	s.lock.Lock()
	defer s.lock.Unlock()
	if l, ok := s.vocabs[key]; ok {
		return l, nil
	}
	path := filepath.Join(s.dirname, term.SimpleName())
	db, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "opening leveldb at %v", path)
	}
	l := &levelLookup{db: db}
	s.vocabs[key] = l
	return l, nil
}

// Vocabulary implements Service.
func (s *LevelDB) Vocabulary(term opdk.Term) (LookupHandle, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	l, ok := s.vocabs[term.QualifiedName()]
	if !ok {
		return nil, false
	}
	return l, true
}

// Import writes the vocabularies, creating a database for any term not seen
// before. Existing keys are overwritten.
func (s *LevelDB) Import(vocabs ...Vocabulary) error {
	for _, v := range vocabs {
		term := opdk.TermFromString(v.Term)
		if term.SimpleName() == "" {
			return errors.New("vocabulary export without a term")
		}
		l, err := s.getVocab(term)
		if err != nil {
			return errors.Wrapf(err, "opening vocabulary %s", term.SimpleName())
		}
		batch := new(leveldb.Batch)
		seen := make(map[string]struct{})
		for _, c := range v.Concepts {
			data, err := json.Marshal(c.match())
			if err != nil {
				return errors.Wrapf(err, "encoding concept %s", c.Name)
			}
			for _, k := range c.keys() {
				if _, dup := seen[k]; dup {
					continue
				}
				seen[k] = struct{}{}
				batch.Put([]byte(k), data)
			}
		}
		if err := l.db.Write(batch, nil); err != nil {
			return errors.Wrapf(err, "writing vocabulary %s", term.SimpleName())
		}
	}
	return nil
}

// ImportJSON decodes a JSON array of Vocabulary exports from r and imports
// them.
func (s *LevelDB) ImportJSON(r io.Reader) (int, error) {
	vocabs, err := decodeExport(r)
	if err != nil {
		return 0, err
	}
	return len(vocabs), s.Import(vocabs...)
}

// Close closes all of the underlying leveldb instances.
func (s *LevelDB) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	errs := make(errorList, 0)
	for term, l := range s.vocabs {
		if err := l.db.Close(); err != nil {
			errs = append(errs, errors.Wrapf(err, "vocabulary : %v", term))
		}
	}
	s.vocabs = make(map[string]*levelLookup)
	if len(errs) > 0 {
		return errs
	}
	return nil
}
