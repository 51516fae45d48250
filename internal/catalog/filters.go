package catalog

import "ymusic-dl/internal/model"

// SelectTracks applies TrackOptions to a popularity-ordered track list.
//
// Filters compose in a fixed order: explicit-content exclusion, then the
// year filter (optionally restricted to the popularity top InTopN), then the
// final TopN truncation. Input order is preserved throughout.
func SelectTracks(tracks []*model.Track, opts model.TrackOptions) []*model.Track {
	selected := tracks

	if opts.ExcludeExplicit {
		kept := selected[:0:0]
		for _, track := range selected {
			if !track.Explicit {
				kept = append(kept, track)
			}
		}
		selected = kept
	}

	if opts.Years != nil {
		kept := selected[:0:0]
		for i, track := range selected {
			// With InTopN, only tracks inside the popularity window are
			// eligible at all; the rest are dropped regardless of year.
			if opts.InTopN > 0 && i >= opts.InTopN {
				break
			}
			if opts.Years.Contains(track.Year) {
				kept = append(kept, track)
			}
		}
		selected = kept
	}

	if opts.TopN > 0 && len(selected) > opts.TopN {
		selected = selected[:opts.TopN]
	}

	return selected
}
