// Package badgerstore provides a persistent HostStore backed by
// BadgerDB, for harnesses that keep contract state across process
// restarts. The in-memory MemoryStore in the root package remains the
// right choice for unit tests.
package badgerstore

import (
	"fmt"

	"github.com/dgraph-io/badger/v2"
	"github.com/ethereum/go-ethereum/common"

	lattice "github.com/branched-services/go-lattice"
)

// Option configures a Store.
type Option func(*config)

type config struct {
	inMemory bool
	prefix   []byte
}

// WithInMemory keeps the database entirely in memory. The directory
// argument to Open is ignored.
func WithInMemory() Option {
	return func(c *config) {
		c.inMemory = true
	}
}

// WithPrefix namespaces every storage key under a byte prefix, so
// several contract instances can share one database.
func WithPrefix(prefix []byte) Option {
	return func(c *config) {
		c.prefix = append([]byte(nil), prefix...)
	}
}

// Store is a lattice.HostStore persisted in BadgerDB.
//
// The HostStore interface is infallible: from the contract's point of
// view a storage operation either completes or the host traps. Store
// follows that model and panics on database I/O errors rather than
// silently dropping a committed write.
type Store struct {
	db     *badger.DB
	prefix []byte
}

var _ lattice.HostStore = (*Store)(nil)

// Open opens (creating if needed) a Badger-backed store in dir.
func Open(dir string, opts ...Option) (*Store, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	badgerOpts := badger.DefaultOptions(dir)
	if cfg.inMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	// Badger logs through a global logger by default; a storage cell
	// backend has nothing useful to say there.
	badgerOpts = badgerOpts.WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("badgerstore: open %q: %w", dir, err)
	}
	return &Store{db: db, prefix: cfg.prefix}, nil
}

// Close releases the underlying database. The store must not be used
// afterwards.
func (s *Store) Close() error {
	return s.db.Close()
}

// dbKey maps a storage key into the database keyspace.
func (s *Store) dbKey(key common.Hash) []byte {
	out := make([]byte, 0, len(s.prefix)+common.HashLength)
	out = append(out, s.prefix...)
	return append(out, key[:]...)
}

// GetStorage implements lattice.HostStore.
func (s *Store) GetStorage(key common.Hash) ([]byte, bool) {
	var value []byte
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.dbKey(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		found = err == nil
		return err
	})
	if err != nil {
		panic("badgerstore: get " + key.Hex() + ": " + err.Error())
	}
	return value, found
}

// SetStorage implements lattice.HostStore.
func (s *Store) SetStorage(key common.Hash, value []byte) {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.dbKey(key), value)
	})
	if err != nil {
		panic("badgerstore: set " + key.Hex() + ": " + err.Error())
	}
}

// ClearStorage implements lattice.HostStore.
func (s *Store) ClearStorage(key common.Hash) {
	err := s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(s.dbKey(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
	if err != nil {
		panic("badgerstore: clear " + key.Hex() + ": " + err.Error())
	}
}
