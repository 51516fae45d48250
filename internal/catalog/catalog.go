package catalog

import (
	"context"

	"ymusic-dl/internal/model"
)

// Service is the music-catalog abstraction the rest of the application
// depends on.
//
// Absence is a normal outcome, not an error: lookups for unknown resources
// return a nil pointer (or empty string) with a nil error. Errors are
// reserved for transport and service failures.
type Service interface {
	// Artist resolves an artist by ID. Returns (nil, nil) when the catalog
	// has no such artist.
	Artist(ctx context.Context, id string) (*model.Artist, error)

	// SimilarArtists returns up to limit artists similar to the given one,
	// most similar first, each carrying a SimilarityScore in (0, 1].
	SimilarArtists(ctx context.Context, id string, limit int) ([]*model.Artist, error)

	// ArtistTracks lists an artist's tracks, most popular first, filtered
	// and truncated per opts.
	ArtistTracks(ctx context.Context, id string, opts model.TrackOptions) ([]*model.Track, error)

	// HasContentInYears reports whether the artist released anything inside
	// the year range. Probe failures after retries report true, keeping the
	// filter inclusive rather than silently dropping artists.
	HasContentInYears(ctx context.Context, id string, years model.YearRange) (bool, error)

	// DownloadURL resolves a short-lived direct download URL for a track at
	// the given quality tier. Returns ("", nil) when the catalog offers no
	// download for the track.
	DownloadURL(ctx context.Context, trackID string, quality model.Quality) (string, error)

	// CoverArt fetches a track's cover image, scaled to the requested pixel
	// size. Returns (nil, nil) when the track has no cover.
	CoverArt(ctx context.Context, track *model.Track, size int) ([]byte, error)
}
