package repositories

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore implements KVStore on an embedded badger database
type BadgerStore struct {
	db       *badger.DB
	mutex    sync.RWMutex
	dbPath   string
	isTestDB bool
}

// NewBadgerStore opens the store at path. An empty path or "test_db" opens
// a throwaway store in a temporary directory that is removed on Close.
func NewBadgerStore(path string, inMemory bool) (*BadgerStore, error) {
	isTest := false
	var opts badger.Options
	switch {
	case inMemory:
		opts = badger.DefaultOptions("").WithInMemory(true)
	case path == "" || path == "test_db":
		tempPath, err := os.MkdirTemp("", "folio_kv_")
		if err != nil {
			return nil, fmt.Errorf("error creating temp dir: %w", err)
		}
		path = tempPath
		isTest = true
		opts = badger.DefaultOptions(path)
	default:
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("error creating kv dir: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts = opts.
		WithLogger(nil).
		WithSyncWrites(false).
		WithNumVersionsToKeep(1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open kv store: %w", err)
	}
	return &BadgerStore{
		db:       db,
		dbPath:   path,
		isTestDB: isTest,
	}, nil
}

func (s *BadgerStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.db.Close(); err != nil {
		return err
	}
	if s.isTestDB {
		if err := os.RemoveAll(s.dbPath); err != nil {
			return fmt.Errorf("failed to cleanup test kv store: %w", err)
		}
	}
	return nil
}

// SetNX stores value under key only when the key is absent or expired. It
// reports whether the value was written.
func (s *BadgerStore) SetNX(key string, value []byte, ttl time.Duration) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	created := false
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		entry := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		if err := txn.SetEntry(entry); err != nil {
			return err
		}
		created = true
		return nil
	})
	if errors.Is(err, badger.ErrConflict) {
		// a concurrent writer claimed the key first
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", key, err)
	}
	return created, nil
}

// Incr adds one to the counter at key and returns the new value. Missing
// keys start at zero.
func (s *BadgerStore) Incr(key string) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var next int64
	var err error
	for attempt := 0; attempt < maxTxnRetries; attempt++ {
		err = s.db.Update(func(txn *badger.Txn) error {
			current, err := readCounter(txn, key)
			if err != nil {
				return err
			}
			next = current + 1
			return txn.Set([]byte(key), encodeCounter(next))
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	return next, nil
}

// GetInt returns the counter at key, or zero when it does not exist.
func (s *BadgerStore) GetInt(key string) (int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var n int64
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		n, err = readCounter(txn, key)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", key, err)
	}
	return n, nil
}

// Backup writes a full snapshot of the store to w.
func (s *BadgerStore) Backup(w io.Writer) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, err := s.db.Backup(w, 0)
	return err
}

// Load restores a snapshot written by Backup.
func (s *BadgerStore) Load(r io.Reader) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.db.Load(r, 4)
}

func readCounter(txn *badger.Txn, key string) (int64, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var n int64
	err = item.Value(func(val []byte) error {
		n, err = decodeCounter(val)
		return err
	})
	return n, err
}
