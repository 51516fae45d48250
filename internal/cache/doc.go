// Package cache provides TTL-based key/value caches.
//
// Three implementations share the Cache interface:
//
//   - Memory: an in-process map with lazy expiry and a background sweeper.
//   - Badger: a durable store backed by BadgerDB, so entries and their TTLs
//     survive restarts.
//   - Tiered: a fast primary over a durable fallback, promoting fallback
//     hits and tolerating the loss of either tier on writes.
//
// Values are opaque byte slices; callers marshal their own structures,
// typically as JSON.
package cache
