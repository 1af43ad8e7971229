package uniquekey

import (
	"time"

	"github.com/biocache/opdk"
	"github.com/biocache/opdk/records"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Minter gives records a stable UUID. Records with the same unique key get
// the same UUID and first loaded time on every run sharing the store.
type Minter struct {
	config  Config
	store   IdentifierStore
	strict  bool
	now     func() time.Time
	newUUID func() string
}

// MinterOption configures a Minter.
type MinterOption func(m *Minter)

// OptMinterStrict makes a record whose key terms are all blank a fatal
// error instead of an issue.
func OptMinterStrict(strict bool) MinterOption {
	return func(m *Minter) {
		m.strict = strict
	}
}

// OptMinterClock sets the clock used for first loaded times.
func OptMinterClock(now func() time.Time) MinterOption {
	return func(m *Minter) {
		m.now = now
	}
}

// OptMinterUUIDs sets the UUID generator.
func OptMinterUUIDs(gen func() string) MinterOption {
	return func(m *Minter) {
		m.newUUID = gen
	}
}

// NewMinter returns a Minter for the dataset configured by c.
func NewMinter(c Config, store IdentifierStore, opts ...MinterOption) *Minter {
	m := &Minter{
		config:  c,
		store:   store,
		now:     time.Now,
		newUUID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns the key configuration of the Minter.
func (m *Minter) Config() Config { return m.config }

func (m *Minter) mint() Identity {
	return Identity{UUID: m.newUUID(), FirstLoaded: m.now().UnixNano() / int64(time.Millisecond)}
}

// Mint sets the unique key, UUID and first loaded time of ir. A record with
// an empty key gets a fresh UUID which will not be stable across runs, and
// a UNIQUE_KEY_EMPTY issue.
func (m *Minter) Mint(er *opdk.VerbatimRecord, ir *records.IdentifierRecord) (opdk.Interpretation[struct{}], error) {
	key, err := m.config.Key(er, m.strict)
	if err != nil {
		return opdk.Done(), err
	}
	if key == "" {
		id := m.mint()
		ir.UUID, ir.FirstLoaded = id.UUID, id.FirstLoaded
		return opdk.Done().
			WithIssue("uniqueKey", opdk.Issue{
				Type:   opdk.UniqueKeyEmpty,
				Remark: "all of " + termNames(m.config.Terms) + " are blank",
			}).
			WithLineage("uuid", opdk.Lineage{
				Type:   opdk.DefaultApplied,
				Remark: "No unique key, a random uuid was assigned",
			}), nil
	}
	id, _, err := m.store.GetOrCreate(key, m.mint)
	if err != nil {
		return opdk.Done(), errors.Wrapf(err, "getting identity of '%s'", key)
	}
	ir.UniqueKey = key
	ir.UUID, ir.FirstLoaded = id.UUID, id.FirstLoaded
	return opdk.Done(), nil
}
