package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Cache is a badger backed key/value store of JSON encoded values with per entry expiration.
type Cache struct {
	db *badger.DB
}

// Open opens the cache stored in dir. An empty dir opens an in-memory cache that is lost on Close.
func Open(dir string, log *slog.Logger) (*Cache, error) {
	if log == nil {
		log = slog.Default()
	}

	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(
		opts.
			WithNumVersionsToKeep(0).
			WithValueLogFileSize(1024 * 1024 * 100).
			WithLogger(&l{log: log}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to badger.Open: %w", err)
	}

	return &Cache{db: db}, nil
}

// Memoize retrieves a cached value for the specified cacheKey.
// If the value is present and decodes, it is returned. Otherwise, the provided function fn
// is called with cacheKey as its argument to compute the value, which is then stored in the cache
// with the specified expiration and returned. Errors from fn are returned as is and nothing is stored.
func Memoize[V any](c *Cache, cacheKey string, ttl time.Duration, fn func(string) (*V, error)) (*V, error) {

	value := new(V)

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(cacheKey))
		if err != nil {
			return err
		}

		err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, value)
		})
		if err != nil {
			return fmt.Errorf("failed to json.Unmarshal: %w", err)
		}

		return nil
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	} else if err == nil {
		return value, nil
	}

	value, err = fn(cacheKey)
	if err != nil {
		return nil, err
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		valueJSONBytes, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to json.Marshal: %w", err)
		}
		entry := badger.NewEntry([]byte(cacheKey), valueJSONBytes).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store on cache: %w", err)
	}

	return value, nil
}

// Close closes the cache DB. It's crucial to call it to ensure all the pending updates make their way to disk.
func (c *Cache) Close() error {
	return c.db.Close()
}

// l routes badger's logs to slog. Badger is chatty at info level, so that goes to debug.
type l struct {
	log *slog.Logger
}

func (l *l) Errorf(s string, i ...interface{}) {
	l.log.Error(msg(s, i...), "component", "badger")
}

func (l *l) Warningf(s string, i ...interface{}) {
	l.log.Warn(msg(s, i...), "component", "badger")
}

func (l *l) Infof(s string, i ...interface{}) {
	l.log.Debug(msg(s, i...), "component", "badger")
}

func (l *l) Debugf(s string, i ...interface{}) {
	l.log.Debug(msg(s, i...), "component", "badger")
}

func msg(s string, i ...interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(s, i...))
}
