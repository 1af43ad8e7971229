package kvs

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

var datasetBucket = []byte("datasets")

var _ Store = &Bolt{}

// Bolt is a Store which keeps JSON encoded Metadata in a boltdb file.
type Bolt struct {
	Db *bolt.DB
}

// OpenBolt opens or creates the boltdb file at filename.
func OpenBolt(filename string) (b *Bolt, err error) {
	b = &Bolt{}
	b.Db, err = bolt.Open(filename, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening db file '%v'", filename)
	}
	b.Db.MaxBatchDelay = 400 * time.Microsecond
	err = b.Db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(datasetBucket)
		return errors.Wrap(err, "creating dataset bucket")
	})
	if err != nil {
		b.Db.Close()
		return nil, errors.Wrap(err, "ensuring bucket existence")
	}
	return b, nil
}

// Get implements Store.
func (b *Bolt) Get(datasetID string) (md Metadata, err error) {
	var data []byte
	err = b.Db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(datasetBucket).Get([]byte(strings.TrimSpace(datasetID)))
		if v != nil {
			// v is only valid during the transaction
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return md, errors.Wrap(err, "reading dataset bucket")
	}
	if data == nil {
		return md, errors.Wrapf(ErrNotFound, "getting '%s'", datasetID)
	}
	err = json.Unmarshal(data, &md)
	return md, errors.Wrapf(err, "decoding metadata of '%s'", datasetID)
}

// Put adds or replaces metadata.
func (b *Bolt) Put(mds ...Metadata) error {
	err := b.Db.Batch(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(datasetBucket)
		for _, md := range mds {
			data, err := json.Marshal(md)
			if err != nil {
				return errors.Wrapf(err, "encoding metadata of '%s'", md.DatasetID)
			}
			err = bkt.Put([]byte(strings.TrimSpace(md.DatasetID)), data)
			if err != nil {
				return errors.Wrap(err, "putting into dataset bucket")
			}
		}
		return nil
	})
	return errors.Wrap(err, "inserting metadata")
}

// Close syncs and closes the underlying boltdb.
func (b *Bolt) Close() error {
	err := b.Db.Sync()
	if err != nil {
		return errors.Wrap(err, "syncing db")
	}
	return b.Db.Close()
}
