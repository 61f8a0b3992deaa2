// Package badger implements db.DocumentStore on an embedded BadgerDB instance.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/db"
)

// Compile-time check: Store implements db.DocumentStore.
var _ db.DocumentStore = (*Store)(nil)

// Config holds the location of the database.
type Config struct {
	Path     string
	InMemory bool
}

// Store keeps JSON documents and plain values as badger keys.
type Store struct {
	db *badger.DB
}

type loggerAdapter struct {
	logger *zap.SugaredLogger
}

var _ badger.Logger = (*loggerAdapter)(nil)

func (l *loggerAdapter) Errorf(msg string, items ...any)   { l.logger.Errorf(msg, items...) }
func (l *loggerAdapter) Warningf(msg string, items ...any) { l.logger.Warnf(msg, items...) }
func (l *loggerAdapter) Infof(msg string, items ...any)    { l.logger.Debugf(msg, items...) }
func (l *loggerAdapter) Debugf(msg string, items ...any)   { l.logger.Debugf(msg, items...) }

// Open opens (or creates) the database described by cfg.
func Open(cfg Config, logger *zap.Logger) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("badger path is required")
		}
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create badger dir: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.Logger = &loggerAdapter{logger: logger.Named("badger").Sugar()}
	opts.Compression = options.None

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: bdb}, nil
}

// Ping reports whether the database is still open.
func (s *Store) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger: database is closed")
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() {
	_ = s.db.Close()
}

// JSONSet stores a whole document. Only the root path is supported.
func (s *Store) JSONSet(_ context.Context, key, p string, data []byte) error {
	if !isRootPath(p) {
		return &db.Error{Op: db.OpJSONSet, Err: fmt.Errorf("unsupported path %q", p)}
	}
	if err := s.put(key, data); err != nil {
		return &db.Error{Op: db.OpJSONSet, Err: err}
	}
	return nil
}

// JSONGet returns a whole document. Only the root path is supported.
func (s *Store) JSONGet(_ context.Context, key string, paths ...string) ([]byte, error) {
	for _, p := range paths {
		if !isRootPath(p) {
			return nil, &db.Error{Op: db.OpJSONGet, Err: fmt.Errorf("unsupported path %q", p)}
		}
	}
	data, err := s.get(key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, err
		}
		return nil, &db.Error{Op: db.OpJSONGet, Err: err}
	}
	return data, nil
}

// JSONMGet fetches several documents in one read transaction.
func (s *Store) JSONMGet(_ context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	out := make([][]byte, len(keys))
	err := s.db.View(func(tx *badger.Txn) error {
		for i, k := range keys {
			item, err := tx.Get([]byte(k))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if out[i], err = item.ValueCopy(nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpJSONMGet, Err: err}
	}
	return out, nil
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	data, err := s.get(key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, err
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// Set stores a value at the given key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if err := s.put(key, value); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Del deletes a key. Deleting a missing key is not an error.
func (s *Store) Del(_ context.Context, key string) error {
	err := s.db.Update(func(tx *badger.Txn) error {
		return tx.Delete([]byte(key))
	})
	if err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Exists checks if a key exists.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	_, err := s.get(key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return true, nil
}

// Scan returns keys matching a glob pattern. Iteration is bounded by the
// literal prefix before the first wildcard.
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	prefix := pattern
	if i := strings.IndexAny(pattern, "*?["); i >= 0 {
		prefix = pattern[:i]
	}

	var keys []string
	err := s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			k := string(it.Item().Key())
			if ok, _ := path.Match(pattern, k); ok || pattern == prefix+"*" {
				keys = append(keys, k)
			}
		}
		return nil
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}
	return keys, nil
}

func (s *Store) get(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, db.ErrKeyNotFound
	}
	return out, err
}

func (s *Store) put(key string, value []byte) error {
	tx := s.db.NewTransaction(true)
	defer tx.Discard()
	if err := tx.Set([]byte(key), value); err != nil {
		return err
	}
	return tx.Commit()
}

func isRootPath(p string) bool {
	return p == "" || p == "$" || p == "."
}
