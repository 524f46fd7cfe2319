package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.etcd.io/bbolt"
)

// DataCache is a generic on-disk cache over bbolt, used to memoize expensive
// external lookups across process restarts. Entries never expire; the cached
// data is a best-effort optimization, not a source of truth, so access
// failures degrade to cache misses instead of surfacing errors.
type DataCache[T any] struct {
	db     *bbolt.DB
	bucket []byte
	logger *slog.Logger
}

func NewDataCache[T any](bucket, path string) (*DataCache[T], error) {
	logger := slog.With("bucket", bucket)

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 20 * time.Second})
	if err != nil {
		logger.Error("error opening cache db", "path", path, "error", err)
		return nil, fmt.Errorf("error creating cache: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		logger.Error("error creating cache bucket", "error", err)
		return nil, fmt.Errorf("error creating cache: %w", err)
	}

	logger.Info("cache initialized", "path", path)

	return &DataCache[T]{db: db, bucket: []byte(bucket), logger: logger}, nil
}

func (cache *DataCache[T]) Close() error {
	return cache.db.Close()
}

// Get returns the cached entry for key, or false on a miss. Storage errors
// are logged and reported as misses.
func (cache *DataCache[T]) Get(key string) (T, bool) {
	var entry T
	found := false

	err := cache.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(cache.bucket).Get([]byte(key))
		if data == nil {
			return nil
		}

		if err := json.Unmarshal(data, &entry); err != nil {
			return fmt.Errorf("error parsing cache data: %w", err)
		}

		found = true
		return nil
	})
	if err != nil {
		cache.logger.Error("cache access failed", "key", key, "error", err)
		var zero T
		return zero, false
	}

	return entry, found
}

// Put stores an entry for key, overwriting any previous value. Errors are
// logged and swallowed since cache updates aren't critical.
func (cache *DataCache[T]) Put(key string, entry T) {
	data, err := json.Marshal(entry)
	if err != nil {
		cache.logger.Error("error serializing cache entry", "key", key, "error", err)
		return
	}

	if err := cache.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(cache.bucket).Put([]byte(key), data)
	}); err != nil {
		cache.logger.Error("cache update failed", "key", key, "error", err)
	}
}
