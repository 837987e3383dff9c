package cache

import (
	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"

	"github.com/structura-systems/gocanon"
)

// BadgerStore is a Store backed by a badger LSM db, in-memory or on disk.
// An on-disk store survives the process, so canonical forms computed in
// one run serve lookups in the next.
type BadgerStore struct {
	db       *badger.DB
	readOnly bool
}

func OpenBadgerStore(opts Opts) (*BadgerStore, error) {
	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.DetectConflicts = false // single-writer usage, disable for performance
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	if len(opts.DbPathName) == 0 {
		if opts.ReadOnly {
			return nil, errors.New("DbPathName must be specified for a read-only store")
		}
		dbOpts.InMemory = true
	}

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, errors.Wrap(err, "opening normalization cache")
	}

	klog.Infof("normalization cache open: %q", opts.DbPathName)
	return &BadgerStore{
		db:       db,
		readOnly: opts.ReadOnly,
	}, nil
}

func (bs *BadgerStore) IsReadOnly() bool {
	return bs.readOnly
}

func (bs *BadgerStore) Lookup(fp uint64, stateKey []byte) (gocanon.Result, bool) {
	var keyBuf [192]byte
	key := formEntryKey(keyBuf[:0], fp, stateKey)

	var res gocanon.Result
	found := false
	err := bs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		} else if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			res, err = readEntryValue(val)
			if err == nil {
				found = true
			}
			return err
		})
	})
	if err != nil {
		panic(err)
	}
	return res, found
}

func (bs *BadgerStore) StoreResult(fp uint64, stateKey []byte, res gocanon.Result) bool {
	// Alloc scrap bufs since commit bufs can't live on the stack
	key := formEntryKey(nil, fp, stateKey)
	val := appendEntryValue(nil, res)

	added := false
	err := bs.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return nil // already present
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		added = true
		return txn.Set(key, val)
	})
	if err != nil {
		panic(err)
	}
	return added
}

func (bs *BadgerStore) BucketLen(fp uint64) int {
	var keyBuf [16]byte
	prefix := formBucketPrefix(keyBuf[:0], fp)

	count := 0
	err := bs.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			PrefetchValues: false,
			Prefix:         prefix,
		})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		panic(err)
	}
	return count
}

func (bs *BadgerStore) Clear() error {
	return bs.db.DropAll()
}

func (bs *BadgerStore) Close() error {
	if bs.db == nil {
		return nil
	}
	err := bs.db.Close()
	bs.db = nil
	klog.Infof("normalization cache closed")
	return err
}
