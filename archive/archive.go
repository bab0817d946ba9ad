// ABOUTME: Raw sync payload archive backed by BadgerDB
// ABOUTME: Stores per-run API snapshots under the XDG cache directory for later inspection
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/dgraph-io/badger/v3"
	"github.com/oklog/ulid/v2"
)

const keyPrefix = "run/"

// Store keeps raw sync payloads keyed run/<run-id>/<entity>. Run ids are
// ULIDs, so each key carries its own timestamp and Prune needs no separate
// bookkeeping.
type Store struct {
	db *badger.DB
}

// DefaultPath returns the archive location under the XDG cache directory.
func DefaultPath() string {
	return filepath.Join(xdg.CacheHome, "pulsemap", "archive")
}

// Open opens (creating if needed) the archive at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put archives one entity payload for a run. The payload is stored as JSON.
func (s *Store) Put(runID, entity string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", entity, err)
	}

	key := []byte(keyPrefix + runID + "/" + entity)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("failed to archive %s payload: %w", entity, err)
	}
	return nil
}

// Get returns the archived payload for a run entity, or nil if absent.
func (s *Store) Get(runID, entity string) ([]byte, error) {
	key := []byte(keyPrefix + runID + "/" + entity)

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	return data, nil
}

// RunEntities lists the entity names archived for a run.
func (s *Store) RunEntities(runID string) ([]string, error) {
	prefix := []byte(keyPrefix + runID + "/")

	var entities []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			entities = append(entities, string(key[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list archive keys: %w", err)
	}
	return entities, nil
}

// Prune removes archived payloads from runs started before the cutoff. The
// run's start time is recovered from its ULID. Keys with unparseable run
// ids are left alone. Returns the number of entries removed.
func (s *Store) Prune(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	var stale [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			runID, ok := runIDFromKey(string(key))
			if !ok {
				continue
			}
			id, err := ulid.Parse(runID)
			if err != nil {
				continue
			}
			if ulid.Time(id.Time()).Before(cutoff) {
				stale = append(stale, key)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan archive: %w", err)
	}

	if len(stale) == 0 {
		return 0, nil
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune archive: %w", err)
	}

	return len(stale), nil
}

func runIDFromKey(key string) (string, bool) {
	rest := strings.TrimPrefix(key, keyPrefix)
	if rest == key {
		return "", false
	}
	idx := strings.IndexByte(rest, '/')
	if idx <= 0 {
		return "", false
	}
	return rest[:idx], true
}
