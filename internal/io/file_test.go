package ioutils

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLinkOrCopy_SharesInode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "cache", "song.mp3")
	dst := filepath.Join(dir, "out", "song.mp3")
	writeTestFile(t, src, "audio-bytes")

	if err := LinkOrCopy(src, dst); err != nil {
		t.Fatalf("LinkOrCopy: %v", err)
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		t.Fatal(err)
	}
	dstInfo, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !os.SameFile(srcInfo, dstInfo) {
		t.Error("src and dst must be the same file (hard link)")
	}
}

func TestLinkOrCopy_OverwritesStaleDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "song.mp3")
	dst := filepath.Join(dir, "out", "song.mp3")
	writeTestFile(t, src, "fresh")
	writeTestFile(t, dst, "stale")

	if err := LinkOrCopy(src, dst); err != nil {
		t.Fatalf("LinkOrCopy: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "fresh" {
		t.Errorf("dst content = %q, want %q", data, "fresh")
	}
}

func TestShuffleRenumber(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "Artist One", "Artist One - Song.mp3"), "a")
	writeTestFile(t, filepath.Join(dir, "Artist Two", "Artist Two - Song.mp3"), "b")
	writeTestFile(t, filepath.Join(dir, "loose.mp3"), "c")
	writeTestFile(t, filepath.Join(dir, "cover.jpg"), "not audio")

	if err := ShuffleRenumber(dir); err != nil {
		t.Fatalf("ShuffleRenumber: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	var mp3s []string
	for _, entry := range entries {
		if entry.IsDir() {
			t.Errorf("emptied subdirectory %q must be removed", entry.Name())
			continue
		}
		if strings.HasSuffix(entry.Name(), ".mp3") {
			mp3s = append(mp3s, entry.Name())
		}
	}
	if len(mp3s) != 3 {
		t.Fatalf("found %d mp3 files in root, want 3", len(mp3s))
	}
	for _, name := range mp3s {
		if len(name) < 4 || name[3] != '_' {
			t.Errorf("name %q must carry a NNN_ prefix", name)
		}
	}
}

func TestShuffleRenumber_DoesNotDoublePrefix(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "001_Artist - Song.mp3"), "a")
	writeTestFile(t, filepath.Join(dir, "002_Other - Song.mp3"), "b")

	if err := ShuffleRenumber(dir); err != nil {
		t.Fatalf("ShuffleRenumber: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		name := entry.Name()
		rest := name[strings.Index(name, "_")+1:]
		if strings.Contains(rest[:4], "_") {
			t.Errorf("name %q carries a doubled prefix", name)
		}
	}
}

func TestZipArchive(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.mp3"), "aaa")
	writeTestFile(t, filepath.Join(dir, "sub", "b.mp3"), "bbb")

	archive := filepath.Join(t.TempDir(), "out.zip")
	if err := ZipArchive(dir, archive); err != nil {
		t.Fatalf("ZipArchive: %v", err)
	}

	reader, err := zip.OpenReader(archive)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer reader.Close()

	names := make(map[string]bool)
	for _, file := range reader.File {
		names[file.Name] = true
	}
	if !names["a.mp3"] || !names["sub/b.mp3"] {
		t.Errorf("archive entries = %v", names)
	}
}
