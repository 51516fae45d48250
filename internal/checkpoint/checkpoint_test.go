package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ymusic-dl/internal/cache"
)

func newTestService(t *testing.T) (*Service, *cache.Memory, string) {
	t.Helper()
	memory := cache.NewMemory()
	t.Cleanup(func() { memory.Close() })
	dir := t.TempDir()
	return NewService(memory, dir, nil), memory, dir
}

func TestSignature(t *testing.T) {
	sig := Signature([]string{"2", "1"}, 5, 2, 10)

	if len(sig) != 12 {
		t.Errorf("signature length = %d, want 12", len(sig))
	}
	if Signature([]string{"1", "2"}, 5, 2, 10) != sig {
		t.Error("seed order must not affect the signature")
	}
	if Signature([]string{"1", "2"}, 6, 2, 10) == sig {
		t.Error("changed similar limit must change the signature")
	}
	if Signature([]string{"1", "3"}, 5, 2, 10) == sig {
		t.Error("changed seeds must change the signature")
	}
}

func TestCreateLoadRoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "run1", 10, "abc123def456")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.MarkProcessed(ctx, created, "artist-1", 0, 5, 1); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	loaded, err := svc.Load(ctx, "run1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatal("checkpoint missing")
	}
	if !loaded.Processed["artist-1"] {
		t.Error("processed artist lost on reload")
	}
	if loaded.TracksDownloaded != 5 || loaded.TracksFailed != 1 {
		t.Errorf("track counts = %d/%d, want 5/1", loaded.TracksDownloaded, loaded.TracksFailed)
	}
	if loaded.CommandHash != "abc123def456" {
		t.Errorf("command hash = %q", loaded.CommandHash)
	}
}

func TestLoad_FallsBackToFile(t *testing.T) {
	svc, memory, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "run1", 3, "hash"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Simulate a wiped cache; the file mirror must still serve the load.
	if err := memory.Clear(ctx); err != nil {
		t.Fatal(err)
	}

	loaded, err := svc.Load(ctx, "run1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatal("checkpoint must load from the file mirror")
	}
	if loaded.TotalArtists != 3 {
		t.Errorf("TotalArtists = %d", loaded.TotalArtists)
	}
}

func TestLoad_MissingSession(t *testing.T) {
	svc, _, _ := newTestService(t)

	cp, err := svc.Load(context.Background(), "never-started")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cp != nil {
		t.Errorf("want nil for unknown session, got %+v", cp)
	}
}

func TestReset(t *testing.T) {
	svc, _, dir := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "run1", 3, "hash"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Reset(ctx, "run1"); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	cp, err := svc.Load(ctx, "run1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cp != nil {
		t.Error("checkpoint must be gone after reset")
	}
	if _, err := os.Stat(filepath.Join(dir, "run1.json")); !os.IsNotExist(err) {
		t.Error("file mirror must be removed on reset")
	}
}

func TestRemaining(t *testing.T) {
	cp := &Checkpoint{Processed: map[string]bool{"b": true, "d": true}}

	remaining := cp.Remaining([]string{"a", "b", "c", "d", "e"})
	want := []string{"a", "c", "e"}
	if len(remaining) != len(want) {
		t.Fatalf("remaining = %v, want %v", remaining, want)
	}
	for i := range want {
		if remaining[i] != want[i] {
			t.Fatalf("remaining = %v, want %v (order preserved)", remaining, want)
		}
	}
}

func TestCompatible(t *testing.T) {
	cp := &Checkpoint{CommandHash: "aaa"}
	if !cp.Compatible("aaa") {
		t.Error("same hash must be compatible")
	}
	if cp.Compatible("bbb") {
		t.Error("different hash must be incompatible")
	}
}
