// Package model defines the core data structures shared across the
// downloader.
//
// # Artist
//
// Artist is a node in the similarity graph. Depth and DiscoveredFrom are set
// exactly once, at first discovery; an artist reached again via a different
// path keeps its original parent.
//
// # Track
//
// Track is a downloadable unit. Canonical cache filenames are derived from
// stable identifiers only:
//
//	name := model.CacheFileName(track, artist, year)
//	// "Artist - Title [2024] [AID123] [TID456].mp3"
//
// # Options
//
// DiscoverOptions is the immutable parameter snapshot for a traversal;
// TrackOptions controls per-artist track listing and selection.
package model
