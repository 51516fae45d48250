package model

import (
	"fmt"
	"regexp"
	"strings"
)

// Quality is an audio quality tier, ordered from lowest to highest.
type Quality int

const (
	QualityLow Quality = iota
	QualityMedium
	QualityHigh
)

// ParseQuality converts a CLI-level quality name to a Quality tier.
// Unknown names map to QualityHigh.
func ParseQuality(s string) Quality {
	switch strings.ToLower(s) {
	case "low":
		return QualityLow
	case "medium":
		return QualityMedium
	default:
		return QualityHigh
	}
}

func (q Quality) String() string {
	switch q {
	case QualityLow:
		return "low"
	case QualityMedium:
		return "medium"
	default:
		return "high"
	}
}

// Track represents a downloadable unit associated with an artist.
//
// Tracks are constructed transiently from catalog responses. FilePath and
// FileSize are set only after a successful download.
type Track struct {
	// ID is the opaque, provider-assigned track identifier.
	ID string

	// Title is the track title.
	Title string

	// ArtistIDs and ArtistNames list the contributing artists, in catalog
	// order. The first entry is the primary artist.
	ArtistIDs   []string
	ArtistNames []string

	// AlbumID and AlbumName reference the containing album, if any.
	AlbumID   string
	AlbumName string

	// Year is the release year of the containing album, 0 if unknown.
	Year int

	// DurationMs is the track length in milliseconds.
	DurationMs int

	// Explicit marks explicit-content tracks.
	Explicit bool

	// Quality is the target quality tier for downloading.
	Quality Quality

	// CoverURI is the catalog's cover art URI template, empty if none.
	CoverURI string

	// FilePath is the local output path, set after a successful download.
	FilePath string

	// FileSize is the downloaded size in bytes, set after a successful
	// download.
	FileSize int64
}

// PrimaryArtistName returns the first contributing artist name, or a
// placeholder when the catalog reported none.
func (t *Track) PrimaryArtistName() string {
	if len(t.ArtistNames) > 0 {
		return t.ArtistNames[0]
	}
	return "Unknown Artist"
}

// maxFileNameLen caps generated filenames below common filesystem limits.
const maxFileNameLen = 250

// CacheFileName derives the canonical, content-addressing filename for a
// track in the shared cache directory. The name is built from stable
// identifiers only, so the same track always lands on the same canonical
// path regardless of the requested output layout:
//
//	{Artist} - {Title} [{Year}] [AID{artistID}] [TID{trackID}].mp3
//
// artist may be nil, in which case the track's own artist names are used.
// year 0 falls back to the track's release year and is omitted if unknown.
func CacheFileName(t *Track, artist *Artist, year int) string {
	artistName := t.PrimaryArtistName()
	artistID := ""
	if artist != nil {
		artistName = artist.Name
		artistID = artist.ID
	} else if len(t.ArtistIDs) > 0 {
		artistID = t.ArtistIDs[0]
	}

	if year == 0 {
		year = t.Year
	}

	suffix := ""
	if year > 0 {
		suffix += fmt.Sprintf(" [%d]", year)
	}
	if artistID != "" {
		suffix += fmt.Sprintf(" [AID%s]", artistID)
	}
	suffix += fmt.Sprintf(" [TID%s].mp3", t.ID)

	base := SanitizeFileName(artistName) + " - " + SanitizeFileName(t.Title)
	if len(base)+len(suffix) > maxFileNameLen {
		base = truncate(base, maxFileNameLen-len(suffix))
	}
	return base + suffix
}

// OutputFileName derives the per-run output filename for a track:
//
//	{Artist} - {Title}.mp3
//
// Lower quality tiers get a suffix so mixed-quality directories stay
// distinguishable.
func OutputFileName(t *Track, artist *Artist) string {
	artistName := t.PrimaryArtistName()
	if artist != nil {
		artistName = artist.Name
	}

	qualitySuffix := ""
	if t.Quality != QualityHigh {
		qualitySuffix = "_" + t.Quality.String()
	}

	name := SanitizeFileName(artistName) + " - " + SanitizeFileName(t.Title) + qualitySuffix + ".mp3"
	if len(name) > maxFileNameLen {
		name = truncate(name, maxFileNameLen-4) + ".mp3"
	}
	return name
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	// Cut on a rune boundary.
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}

var (
	invalidFileChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f\x7f]`)
	trailingDots     = regexp.MustCompile(`\.+$`)
	multiSpace       = regexp.MustCompile(`\s+`)
)

// SanitizeFileName replaces characters that are invalid in file names and
// normalizes whitespace so generated names are safe on every platform.
func SanitizeFileName(name string) string {
	name = invalidFileChars.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = multiSpace.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
