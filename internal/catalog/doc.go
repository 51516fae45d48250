// Package catalog talks to the music catalog API.
//
// Service is the interface the discovery engine and download orchestrator
// depend on; Yandex is its HTTP implementation. Absent resources are
// reported as (nil, nil), never as errors.
//
// # Caching
//
// Read-mostly lookups go through an injected cache.Cache: artist profiles
// for an hour, similarity lists for a day, year-probe answers for an hour
// (half that for negative answers). Direct download URLs are short-lived
// and signed per request, so they are never cached.
//
// # Year probes
//
// HasContentInYears inspects the artist's album years. Probes are retried
// with doubling backoff and fall back to a positive answer when the catalog
// cannot be reached, keeping year filtering inclusive under flaky
// conditions.
package catalog
