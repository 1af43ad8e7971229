// Package transforms turns verbatim records into interpreted records, one
// Converter per aspect. A Converter belongs to a single worker goroutine: it
// is Setup once, converts any number of records, and is torn down once.
// The services it uses (vocabulary, attribution, identifiers) are shared
// between workers and owned by the caller.
package transforms

import (
	"time"

	"github.com/biocache/opdk"
	"github.com/biocache/opdk/kvs"
	"github.com/biocache/opdk/records"
	"github.com/biocache/opdk/uniquekey"
	"github.com/biocache/opdk/vocabulary"
	"github.com/pkg/errors"
)

// Converter interprets verbatim records into records of one aspect.
type Converter interface {
	Aspect() records.Aspect
	// Setup prepares the converter. It is called once before the first
	// Convert.
	Setup() error
	// Convert interprets er. ok is false when the aspect does not apply to
	// er, in which case no record is produced. An error is fatal; data
	// problems are recorded on the returned record instead.
	Convert(er *opdk.VerbatimRecord) (r records.Record, ok bool, err error)
	// Teardown releases what Setup acquired. It is called once.
	Teardown() error
}

// Config holds what converters need.
type Config struct {
	// DatasetID is the dataset being interpreted.
	DatasetID string
	// Vocabulary resolves vocabulary terms. The zero value disables
	// vocabulary enrichment.
	Vocabulary vocabulary.Resolver
	// Attribution is required by the metadata and identifier aspects.
	Attribution kvs.Store
	// Identifiers is required by the identifier aspect.
	Identifiers uniquekey.IdentifierStore
	// StrictKeys makes a record whose unique key terms are all blank a
	// fatal error.
	StrictKeys       bool
	GeohashPrecision uint
	// Now defaults to time.Now.
	Now   func() time.Time
	Stats opdk.Statter
	Log   opdk.Logger
}

func (c Config) withDefaults() Config {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Stats == nil {
		c.Stats = opdk.NopStatter{}
	}
	if c.Log == nil {
		c.Log = opdk.NopLogger{}
	}
	return c
}

// New returns the Converter of the given aspect.
func New(a records.Aspect, c Config) (Converter, error) {
	c = c.withDefaults()
	b := base{aspect: a, cfg: c}
	switch a {
	case records.Basic:
		return &Basic{base: b}, nil
	case records.Location:
		return &Location{base: b}, nil
	case records.Temporal:
		return &Temporal{base: b}, nil
	case records.Taxon:
		return &Taxon{base: b}, nil
	case records.Event:
		return &EventCore{base: b}, nil
	case records.Metadata:
		return &Metadata{base: b}, nil
	case records.Multimedia:
		return &Multimedia{base: b}, nil
	case records.Identifier:
		return &Identifier{base: b}, nil
	default:
		return nil, errors.Errorf("no converter for aspect %v", a)
	}
}

// base holds what every converter shares.
type base struct {
	aspect records.Aspect
	cfg    Config
	n      int64
}

func (b *base) Aspect() records.Aspect { return b.aspect }

func (b *base) Setup() error { return nil }

func (b *base) Teardown() error {
	b.cfg.Log.Debugf("%s: interpreted %d records", b.aspect, b.n)
	return nil
}

func (b *base) created() int64 {
	return b.cfg.Now().UnixNano() / int64(time.Millisecond)
}

// finish moves the traces of in onto r and counts them. It returns r for
// convenience.
func finish[T any](b *base, r records.Record, in opdk.Interpretation[T]) records.Record {
	opdk.Collect(r.IssueList(), in)
	prefix := b.aspect.String()
	in.ForEachTrace(opdk.CountTraces(b.cfg.Stats, prefix))
	b.cfg.Stats.Count(prefix+".records", 1, 1)
	b.n++
	return r
}

// metadata fetches the attribution of the dataset. A dataset missing from
// the store is logged and treated as having empty metadata.
func (b *base) metadata() (kvs.Metadata, error) {
	if b.cfg.Attribution == nil {
		return kvs.Metadata{}, errors.Errorf("%s interpretation needs an attribution store", b.aspect)
	}
	md, err := b.cfg.Attribution.Get(b.cfg.DatasetID)
	if errors.Cause(err) == kvs.ErrNotFound {
		b.cfg.Log.Printf("no metadata for dataset %s: %v", b.cfg.DatasetID, err)
		return kvs.Metadata{DatasetID: b.cfg.DatasetID}, nil
	} else if err != nil {
		return kvs.Metadata{}, errors.Wrapf(err, "retrieving metadata for %s", b.cfg.DatasetID)
	}
	return md, nil
}
