package uniquekey

import (
	"encoding/binary"
	"hash/fnv"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// Identity is the stable identity of a record.
type Identity struct {
	UUID string
	// FirstLoaded is when the identity was minted, in Unix milliseconds.
	FirstLoaded int64
}

// IdentifierStore maps unique keys to identities.
type IdentifierStore interface {
	// GetOrCreate returns the identity of key. If there is none, the
	// identity returned by mint is stored and returned, and created is
	// true. Concurrent calls for the same key agree on one identity.
	GetOrCreate(key string, mint func() Identity) (id Identity, created bool, err error)
	Close() error
}

var (
	_ IdentifierStore = &MemoryStore{}
	_ IdentifierStore = &LevelStore{}
)

// MemoryStore is an in-memory IdentifierStore using sync.Map.
type MemoryStore struct {
	m sync.Map
	l sync.Mutex
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// GetOrCreate implements IdentifierStore.
func (m *MemoryStore) GetOrCreate(key string, mint func() Identity) (Identity, bool, error) {
	if idv, ok := m.m.Load(key); ok {
		return idv.(Identity), false, nil
	}
	m.l.Lock()
	defer m.l.Unlock()
	if idv, ok := m.m.Load(key); ok {
		return idv.(Identity), false, nil
	}
	id := mint()
	m.m.Store(key, id)
	return id, true, nil
}

// Close implements IdentifierStore.
func (m *MemoryStore) Close() error { return nil }

// LevelStore is an IdentifierStore which keeps identities in leveldb, so
// that they survive across runs.
type LevelStore struct {
	lock keyLocker
	db   *leveldb.DB
}

// OpenLevelStore opens or creates the store under dirname.
func OpenLevelStore(dirname string) (*LevelStore, error) {
	err := os.MkdirAll(dirname, 0700)
	if err != nil {
		return nil, errors.Wrap(err, "making directory")
	}
	db, err := leveldb.OpenFile(dirname, &opt.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "opening leveldb at %v", dirname)
	}
	return &LevelStore{lock: newBucketKLock(), db: db}, nil
}

// identities are stored as the 8 byte big endian firstLoaded followed by the
// UUID.
func encodeIdentity(id Identity) []byte {
	data := make([]byte, 8+len(id.UUID))
	binary.BigEndian.PutUint64(data, uint64(id.FirstLoaded))
	copy(data[8:], id.UUID)
	return data
}

func decodeIdentity(data []byte) (Identity, error) {
	if len(data) < 8 {
		return Identity{}, errors.Errorf("identity record too short: %d bytes", len(data))
	}
	return Identity{
		FirstLoaded: int64(binary.BigEndian.Uint64(data[:8])),
		UUID:        string(data[8:]),
	}, nil
}

func (s *LevelStore) get(key []byte) (Identity, bool, error) {
	data, err := s.db.Get(key, &opt.ReadOptions{})
	if err == leveldb.ErrNotFound {
		return Identity{}, false, nil
	} else if err != nil {
		return Identity{}, false, errors.Wrap(err, "trying to read identity")
	}
	id, err := decodeIdentity(data)
	return id, err == nil, err
}

// GetOrCreate implements IdentifierStore.
func (s *LevelStore) GetOrCreate(key string, mint func() Identity) (Identity, bool, error) {
	kb := []byte(key)
	// most keys are expected to exist already on a re-run
	if id, ok, err := s.get(kb); err != nil || ok {
		return id, false, err
	}

	s.lock.Lock(kb)
	defer s.lock.Unlock(kb)
	// re-read after locking
	if id, ok, err := s.get(kb); err != nil || ok {
		return id, false, err
	}
	id := mint()
	if err := s.db.Put(kb, encodeIdentity(id), &opt.WriteOptions{}); err != nil {
		return Identity{}, false, errors.Wrap(err, "putting new identity")
	}
	return id, true, nil
}

// Close closes the underlying leveldb.
func (s *LevelStore) Close() error {
	return errors.Wrap(s.db.Close(), "closing identifier store")
}

type keyLocker interface {
	Lock(key []byte)
	Unlock(key []byte)
}

type bucketKLock struct {
	ms []sync.Mutex
}

func newBucketKLock() bucketKLock {
	return bucketKLock{
		ms: make([]sync.Mutex, 1000),
	}
}

func (b bucketKLock) Lock(key []byte) {
	hsh := fnv.New32a()
	hsh.Write(key) // never returns error for hash
	b.ms[hsh.Sum32()%1000].Lock()
}

func (b bucketKLock) Unlock(key []byte) {
	hsh := fnv.New32a()
	hsh.Write(key) // never returns error for hash
	b.ms[hsh.Sum32()%1000].Unlock()
}
