// Package audio writes ID3v2 metadata into downloaded MP3 files.
//
// Tagger implements the download package's Tagger interface: text frames
// come from the track and its discovered artist, cover art is scaled and
// re-encoded as JPEG before embedding.
package audio
