// Package download fetches tracks through a content-addressed cache.
//
// Orchestrator.Fetch resolves a track to its canonical file in the shared
// cache directory, downloading it at most once, then hard-links that file
// into the run's output directory. Orchestrator.FetchAll runs Fetch over a
// batch with bounded concurrency, reporting progress in completion order.
//
// # Outcome caching
//
// Successful downloads record a track-ID to canonical-path mapping with an
// effectively unlimited TTL; the file's existence is re-verified on every
// hit. Failed downloads record a short-lived negative entry, so a track the
// catalog refused minutes ago is not asked for again. Local filesystem
// errors are never negatively cached.
package download
