package discovery

import (
	"sort"

	"ymusic-dl/internal/model"
)

// rankCandidates filters and orders a parent's similar-artist list into
// admission order.
//
// Filtering drops excluded artists, artists outside the country allow-list,
// and artists below the minimum catalog size. Ordering is by similarity
// score, then catalog size, both descending; after that, candidates from
// priority countries are moved ahead of the rest with relative order
// preserved inside each partition, so ties stay deterministic.
func rankCandidates(candidates []*model.Artist, opts model.DiscoverOptions) []*model.Artist {
	ranked := make([]*model.Artist, 0, len(candidates))
	for _, candidate := range candidates {
		if opts.ExcludeArtists[candidate.ID] {
			continue
		}
		if len(opts.Countries) > 0 && !matchesCountry(candidate.Country, opts.Countries) {
			continue
		}
		if candidate.TrackCount < opts.MinTracksPerArtist {
			continue
		}
		ranked = append(ranked, candidate)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].SimilarityScore != ranked[j].SimilarityScore {
			return ranked[i].SimilarityScore > ranked[j].SimilarityScore
		}
		return ranked[i].TrackCount > ranked[j].TrackCount
	})

	if len(opts.PriorityCountries) > 0 {
		prioritized := make([]*model.Artist, 0, len(ranked))
		var rest []*model.Artist
		for _, candidate := range ranked {
			if matchesCountry(candidate.Country, opts.PriorityCountries) {
				prioritized = append(prioritized, candidate)
			} else {
				rest = append(rest, candidate)
			}
		}
		ranked = append(prioritized, rest...)
	}

	return ranked
}

func matchesCountry(country string, allowed []string) bool {
	for _, c := range allowed {
		if country == c {
			return true
		}
	}
	return false
}
