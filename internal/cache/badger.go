package cache

import (
	"context"
	"errors"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"ymusic-dl/internal/errs"
)

// Badger is a durable Cache backed by a BadgerDB key/value store.
//
// TTLs map directly onto Badger entry TTLs, so expiry survives process
// restarts and reclamation is handled by the store itself.
type Badger struct {
	db *badger.DB
}

// NewBadger opens (or creates) a Badger store rooted at dir.
func NewBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	// Cached values are small JSON blobs; a small value log keeps the
	// on-disk footprint proportional.
	opts.ValueLogFileSize = 64 << 20
	opts.SyncWrites = false

	db, err := badger.Open(opts)
	if err != nil {
		return nil, &errs.CacheError{Err: err}
	}
	return &Badger{db: db}, nil
}

// Get implements Cache.
func (b *Badger) Get(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &errs.CacheError{Err: err}
	}
	return value, true, nil
}

// Set implements Cache.
func (b *Badger) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return &errs.CacheError{Err: err}
	}
	return nil
}

// Delete implements Cache.
func (b *Badger) Delete(ctx context.Context, key string) (bool, error) {
	existed, err := b.Exists(ctx, key)
	if err != nil {
		return false, err
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return false, &errs.CacheError{Err: err}
	}
	return existed, nil
}

// Exists implements Cache.
func (b *Badger) Exists(_ context.Context, key string) (bool, error) {
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &errs.CacheError{Err: err}
	}
	return true, nil
}

// Clear implements Cache.
func (b *Badger) Clear(_ context.Context) error {
	if err := b.db.DropAll(); err != nil {
		return &errs.CacheError{Err: err}
	}
	return nil
}

// Close implements Cache.
func (b *Badger) Close() error {
	return b.db.Close()
}
