package audio

import (
	"fmt"

	"github.com/bogem/id3v2"

	"ymusic-dl/internal/io"
	"ymusic-dl/internal/model"
)

// TagConfig controls which metadata is written into downloaded files.
type TagConfig struct {
	// ModifyTags is a master switch. If false, no text frames are modified
	// and only cover art handling applies.
	ModifyTags bool

	// EmbedCoverArt enables APIC (attached picture) embedding.
	EmbedCoverArt bool

	// CoverArtMaxSize caps the embedded cover's pixel dimensions. Larger
	// images are scaled down before embedding.
	CoverArtMaxSize int
}

// DefaultTagConfig returns the default tagging configuration: all text
// frames updated and cover art embedded at up to 1000x1000 pixels.
func DefaultTagConfig() *TagConfig {
	return &TagConfig{
		ModifyTags:      true,
		EmbedCoverArt:   true,
		CoverArtMaxSize: 1000,
	}
}

// Tagger writes ID3v2 tags to downloaded MP3 files.
//
// Tagger updates:
//   - Artist (TPE1), Album Artist (TPE2), Album (TALB), Title (TIT2)
//   - Year (TYER) and Recording time (TDRC)
//   - Cover Art (APIC), scaled and re-encoded as JPEG
//
// Example:
//
//	tagger := audio.NewTagger(audio.DefaultTagConfig())
//	err := tagger.Tag(path, track, artist, coverBytes)
type Tagger struct {
	config *TagConfig
}

// NewTagger creates a new Tagger. If config is nil, DefaultTagConfig() is
// used.
func NewTagger(config *TagConfig) *Tagger {
	if config == nil {
		config = DefaultTagConfig()
	}
	return &Tagger{config: config}
}

// Tag writes metadata into the MP3 file at path.
//
// The artist, when non-nil, overrides the track's own primary artist in the
// TPE1/TPE2 frames, so tracks collected under a discovered artist are
// attributed to that artist. cover may be nil to skip artwork.
func (t *Tagger) Tag(path string, track *model.Track, artist *model.Artist, cover []byte) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	if t.config.ModifyTags {
		t.updateTextFrames(tag, track, artist)
	}

	if t.config.EmbedCoverArt && cover != nil {
		if err := t.updateArtwork(tag, cover); err != nil {
			return fmt.Errorf("embedding cover art: %w", err)
		}
	}

	return tag.Save()
}

func (t *Tagger) updateTextFrames(tag *id3v2.Tag, track *model.Track, artist *model.Artist) {
	artistName := track.PrimaryArtistName()
	if artist != nil {
		artistName = artist.Name
	}

	tag.SetArtist(artistName)
	tag.AddTextFrame("TPE2", id3v2.EncodingUTF8, artistName)
	tag.SetTitle(track.Title)

	if track.AlbumName != "" {
		tag.SetAlbum(track.AlbumName)
	}
	if track.Year > 0 {
		year := fmt.Sprintf("%d", track.Year)
		tag.AddTextFrame("TYER", id3v2.EncodingUTF8, year)
		tag.AddTextFrame("TDRC", id3v2.EncodingUTF8, year)
	}
}

func (t *Tagger) updateArtwork(tag *id3v2.Tag, cover []byte) error {
	jpegData, err := ioutils.ResizeJPEG(cover, t.config.CoverArtMaxSize)
	if err != nil {
		return err
	}

	tag.DeleteFrames(tag.CommonID("Attached picture"))
	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    "image/jpeg",
		PictureType: id3v2.PTFrontCover,
		Description: "Cover",
		Picture:     jpegData,
	})
	return nil
}
