package ingest

import (
	"os"

	"github.com/biocache/opdk"
	"github.com/biocache/opdk/kvs"
	"github.com/biocache/opdk/vocabulary"
	"github.com/pkg/errors"
)

// VocabularyMain imports a JSON vocabulary export into a LevelDB vocabulary
// directory.
type VocabularyMain struct {
	Dir   string      `help:"LevelDB vocabulary directory to import into."`
	File  string      `help:"JSON array of vocabulary exports."`
	Log   opdk.Logger `flag:"-"`
	count int
}

// NewVocabularyMain returns a VocabularyMain with the default configuration.
func NewVocabularyMain() *VocabularyMain {
	return &VocabularyMain{Dir: "vocabularies", Log: opdk.NopLogger{}}
}

// Count returns the number of vocabularies imported by the last Run.
func (m *VocabularyMain) Count() int { return m.count }

// Run imports the file.
func (m *VocabularyMain) Run() (err error) {
	if m.File == "" {
		return errors.New("no vocabulary file given")
	}
	f, err := os.Open(m.File)
	if err != nil {
		return errors.Wrap(err, "opening vocabulary file")
	}
	defer f.Close()
	db, err := vocabulary.OpenLevelDB(m.Dir)
	if err != nil {
		return errors.Wrap(err, "opening vocabulary directory")
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	m.count, err = db.ImportJSON(f)
	if err != nil {
		return errors.Wrapf(err, "importing %s", m.File)
	}
	m.Log.Printf("imported %d vocabularies from %s into %s", m.count, m.File, m.Dir)
	return nil
}

// AttributionMain loads dataset attribution records into a bolt file.
type AttributionMain struct {
	DB    string      `help:"Bolt file to load into."`
	File  string      `help:"JSON array of dataset attribution records."`
	Log   opdk.Logger `flag:"-"`
	count int
}

// NewAttributionMain returns an AttributionMain with the default
// configuration.
func NewAttributionMain() *AttributionMain {
	return &AttributionMain{DB: "attribution.db", Log: opdk.NopLogger{}}
}

// Count returns the number of datasets loaded by the last Run.
func (m *AttributionMain) Count() int { return m.count }

// Run loads the file.
func (m *AttributionMain) Run() (err error) {
	if m.File == "" {
		return errors.New("no attribution file given")
	}
	mds, err := decodeFile(m.File, kvs.DecodeJSON)
	if err != nil {
		return errors.Wrap(err, "reading attribution")
	}
	b, err := kvs.OpenBolt(m.DB)
	if err != nil {
		return errors.Wrap(err, "opening attribution store")
	}
	defer func() {
		if cerr := b.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := b.Put(mds...); err != nil {
		return errors.Wrap(err, "storing attribution")
	}
	m.count = len(mds)
	m.Log.Printf("loaded %d datasets into %s", m.count, m.DB)
	return nil
}
