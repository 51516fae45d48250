package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ymusic-dl/internal/errs"
)

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "OAuth test-token" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{"name":"Artist","id":42}`))
	}))
	defer server.Close()

	var resp struct {
		Name string `json:"name"`
		ID   int    `json:"id"`
	}
	client := NewClient("test-token")
	if err := client.GetJSON(context.Background(), server.URL, &resp); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if resp.Name != "Artist" || resp.ID != 42 {
		t.Errorf("decoded %+v", resp)
	}
}

func TestGet_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := NewClient("").Get(context.Background(), server.URL)
	if !errs.IsNotFound(err) {
		t.Errorf("want NotFoundError, got %v", err)
	}
}

func TestGet_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewClient("").Get(context.Background(), server.URL)
	if !errs.IsNetwork(err) {
		t.Errorf("want NetworkError, got %v", err)
	}
}

func TestDownloadFile(t *testing.T) {
	content := strings.Repeat("abc", 10000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(content))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "song.mp3")
	var lastWritten int64
	err := NewClient("").DownloadFile(context.Background(), server.URL, dest, DownloadOptions{
		ChunkSize: 1024,
		OnProgress: func(written, total int64) {
			lastWritten = written
		},
	})
	if err != nil {
		t.Fatalf("DownloadFile: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != content {
		t.Errorf("downloaded %d bytes, want %d", len(data), len(content))
	}
	if lastWritten != int64(len(content)) {
		t.Errorf("final progress = %d, want %d", lastWritten, len(content))
	}
}

func TestDownloadFile_RejectsOversize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 5000)))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "song.mp3")
	err := NewClient("").DownloadFile(context.Background(), server.URL, dest, DownloadOptions{
		MaxBytes:  1000,
		ChunkSize: 256,
	})
	if !errors.Is(err, errs.ErrFileTooLarge) {
		t.Fatalf("want ErrFileTooLarge, got %v", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("oversize download must not leave a file at the destination")
	}
}

func TestDownloadFile_NoPartialFileOnCancel(t *testing.T) {
	blocker := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("partial"))
		w.(http.Flusher).Flush()
		<-blocker
	}))
	defer server.Close()
	defer close(blocker)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dest := filepath.Join(t.TempDir(), "song.mp3")
	err := NewClient("").DownloadFile(ctx, server.URL, dest, DownloadOptions{ChunkSize: 4})
	if err == nil {
		t.Fatal("expected error from cancelled download")
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("cancelled download must not leave a file at the destination")
	}
}
