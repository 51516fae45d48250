package cache

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"ymusic-dl/internal/errs"
)

// Tiered layers a fast primary cache over a durable fallback.
//
// Reads try the primary first and promote fallback hits into it. Writes go
// to both; a write only fails when neither tier accepts it, so a broken
// durable store degrades the cache instead of the whole run.
type Tiered struct {
	primary  Cache
	fallback Cache
	log      *logrus.Entry
}

// NewTiered combines primary and fallback into one Cache.
func NewTiered(primary, fallback Cache, log *logrus.Entry) *Tiered {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Tiered{primary: primary, fallback: fallback, log: log}
}

// Get implements Cache.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, ok, err := t.primary.Get(ctx, key)
	if err != nil {
		t.log.WithError(err).WithField("key", key).Debug("primary cache read failed")
	} else if ok {
		return value, true, nil
	}

	value, ok, err = t.fallback.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	// Promote without a TTL refresh; the fallback remains authoritative.
	if err := t.primary.Set(ctx, key, value, time.Hour); err != nil {
		t.log.WithError(err).WithField("key", key).Debug("cache promotion failed")
	}
	return value, true, nil
}

// Set implements Cache.
func (t *Tiered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	primaryErr := t.primary.Set(ctx, key, value, ttl)
	fallbackErr := t.fallback.Set(ctx, key, value, ttl)

	if primaryErr != nil && fallbackErr != nil {
		return &errs.CacheError{Err: fallbackErr}
	}
	if primaryErr != nil {
		t.log.WithError(primaryErr).WithField("key", key).Debug("primary cache write failed")
	}
	if fallbackErr != nil {
		t.log.WithError(fallbackErr).WithField("key", key).Debug("fallback cache write failed")
	}
	return nil
}

// Delete implements Cache.
func (t *Tiered) Delete(ctx context.Context, key string) (bool, error) {
	primaryOK, primaryErr := t.primary.Delete(ctx, key)
	fallbackOK, fallbackErr := t.fallback.Delete(ctx, key)

	if primaryErr != nil && fallbackErr != nil {
		return false, &errs.CacheError{Err: fallbackErr}
	}
	return primaryOK || fallbackOK, nil
}

// Exists implements Cache.
func (t *Tiered) Exists(ctx context.Context, key string) (bool, error) {
	if ok, err := t.primary.Exists(ctx, key); err == nil && ok {
		return true, nil
	}
	return t.fallback.Exists(ctx, key)
}

// Clear implements Cache.
func (t *Tiered) Clear(ctx context.Context) error {
	primaryErr := t.primary.Clear(ctx)
	fallbackErr := t.fallback.Clear(ctx)
	if primaryErr != nil {
		return primaryErr
	}
	return fallbackErr
}

// Close implements Cache.
func (t *Tiered) Close() error {
	primaryErr := t.primary.Close()
	fallbackErr := t.fallback.Close()
	if primaryErr != nil {
		return primaryErr
	}
	return fallbackErr
}
