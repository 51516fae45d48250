package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2"

	"ymusic-dl/internal/model"
)

func newTestMP3(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "song.mp3")
	// A bare MPEG frame header is enough for the tag writer. Padded to ten
	// bytes so id3v2.Open can read a full tag-header's worth before deciding
	// there is no tag.
	if err := os.WriteFile(path, []byte{0xFF, 0xFB, 0x90, 0x00, 0, 0, 0, 0, 0, 0}, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTag_WritesTextFrames(t *testing.T) {
	path := newTestMP3(t)
	track := &model.Track{
		ID:          "1",
		Title:       "Sevaman seni",
		ArtistNames: []string{"Track Artist"},
		AlbumName:   "Album",
		Year:        2023,
	}
	artist := &model.Artist{ID: "9", Name: "Yulduz Usmonova"}

	tagger := NewTagger(nil)
	if err := tagger.Tag(path, track, artist, nil); err != nil {
		t.Fatalf("Tag: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer tag.Close()

	if got := tag.Artist(); got != "Yulduz Usmonova" {
		t.Errorf("artist frame = %q, want the discovered artist", got)
	}
	if got := tag.Title(); got != "Sevaman seni" {
		t.Errorf("title frame = %q", got)
	}
	if got := tag.Album(); got != "Album" {
		t.Errorf("album frame = %q", got)
	}
}

func TestTag_DisabledLeavesFramesAlone(t *testing.T) {
	path := newTestMP3(t)
	track := &model.Track{ID: "1", Title: "Song", ArtistNames: []string{"A"}}

	tagger := NewTagger(&TagConfig{ModifyTags: false})
	if err := tagger.Tag(path, track, nil, nil); err != nil {
		t.Fatalf("Tag: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer tag.Close()

	if got := tag.Title(); got != "" {
		t.Errorf("title frame = %q, want empty with tagging disabled", got)
	}
}
