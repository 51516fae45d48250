// Package discovery walks the artist similarity graph.
//
// Engine.Discover runs a bounded, level-synchronous breadth-first traversal
// from a set of seed artists: depth bounds how far from a seed the walk
// goes, a per-parent limit bounds breadth, and a total cap bounds the whole
// result. Parents within a level are expanded in batches with bounded
// concurrency and a pause between batches.
//
// An artist reachable from several parents is attributed to whichever
// parent's expansion admitted it first; later sightings are ignored, so the
// discovery tree stays a tree.
//
// Candidate ordering is handled by rankCandidates: similarity first, then
// catalog size, with priority-country candidates moved to the front.
package discovery
