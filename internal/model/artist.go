package model

import "time"

// Artist represents a node in the similarity graph.
//
// Artists are created when first observed during traversal or lookup and are
// immutable afterwards, except for Depth and DiscoveredFrom which are set
// exactly once at first discovery. An artist reached again via a different
// path is never re-parented.
type Artist struct {
	// ID is the opaque, provider-assigned artist identifier.
	ID string

	// Name is the display name.
	Name string

	// Country is the ISO country code, empty if unknown.
	Country string

	// Genres holds the genre tags reported by the catalog.
	Genres []string

	// TrackCount is the size of the artist's catalog.
	TrackCount int

	// SimilarityScore is derived from the artist's rank in its parent's
	// similarity listing (0..1). It is only meaningful relative to siblings
	// discovered from the same parent.
	SimilarityScore float64

	// DiscoveredFrom is the ID of the parent artist this artist was first
	// discovered from. Empty for seed artists.
	DiscoveredFrom string

	// Depth is the traversal level at which this artist was first discovered.
	// Seeds are at depth 0; Depth always equals the parent's depth plus one.
	Depth int
}

// DiscoveryResult is the outcome of a discovery traversal.
type DiscoveryResult struct {
	// Seeds are the resolved seed artists the traversal started from.
	Seeds []*Artist

	// Artists are all discovered artists in discovery order, de-duplicated.
	// Under an active year filter a seed without matching content is omitted
	// here even though its similarity edges were still explored.
	Artists []*Artist

	// Tree maps a parent artist ID to the IDs of the children admitted from
	// it, in admission (ranked) order.
	Tree map[string][]string

	// Countries is the set of countries observed among discovered artists.
	Countries map[string]bool

	// MaxDepthReached is the deepest level any artist was discovered at.
	MaxDepthReached int

	// Elapsed is the wall-clock duration of the traversal.
	Elapsed time.Duration

	// Params records the effective options the traversal ran with.
	Params DiscoverOptions
}
