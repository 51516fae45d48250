package model

// YearRange is an inclusive release-year filter.
type YearRange struct {
	From int
	To   int
}

// Contains reports whether year falls inside the range.
func (r YearRange) Contains(year int) bool {
	return year >= r.From && year <= r.To
}

// DiscoverOptions is an immutable configuration snapshot for a discovery
// traversal. Build one via DefaultDiscoverOptions and adjust fields before
// starting the traversal; the engine never mutates it.
type DiscoverOptions struct {
	// SimilarLimit is the breadth per node: how many similar artists may be
	// admitted from each parent.
	SimilarLimit int

	// MaxDepth is the maximum traversal depth. Seeds are at depth 0.
	MaxDepth int

	// MaxTotalArtists bounds the total number of discovered artists,
	// seeds included.
	MaxTotalArtists int

	// MinTracksPerArtist drops candidates with a smaller catalog.
	MinTracksPerArtist int

	// Countries, when non-empty, is an allow-list: candidates outside it are
	// discarded.
	Countries []string

	// PriorityCountries orders matching candidates ahead of the rest while
	// preserving relative order within each partition.
	PriorityCountries []string

	// ExcludeArtists is a set of artist IDs that are never admitted.
	ExcludeArtists map[string]bool

	// Years, when non-nil, restricts discovery to artists with content in
	// the range. Candidates are probed before admission; the seed itself is
	// transparent (traversal proceeds from it even if it has no matching
	// content, but it is excluded from results).
	Years *YearRange

	// MaxProbeAttempts bounds how many ranked candidates are probed per
	// parent before the remaining quota is left unfilled. Only meaningful
	// when Years is set.
	MaxProbeAttempts int
}

// DefaultDiscoverOptions returns the option defaults used by the CLI.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SimilarLimit:       5,
		MaxDepth:           2,
		MaxTotalArtists:    999,
		MinTracksPerArtist: 3,
		ExcludeArtists:     map[string]bool{},
		MaxProbeAttempts:   20,
	}
}

// TrackOptions controls track listing and selection for a single artist.
type TrackOptions struct {
	// TopN selects the N most popular tracks after filtering. Zero means
	// no limit.
	TopN int

	// Years, when non-nil, keeps only tracks released in the range.
	Years *YearRange

	// InTopN, when non-zero, restricts the year filter to the artist's
	// InTopN most popular tracks: a track qualifies only if it is both in
	// the year range and within the popularity top N. Requires Years.
	InTopN int

	// ExcludeExplicit drops explicit-content tracks.
	ExcludeExplicit bool

	// Quality is the target quality tier for subsequent downloads.
	Quality Quality
}
