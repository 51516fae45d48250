package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	def := DefaultSettings()
	if s.APIBaseURL != def.APIBaseURL {
		t.Errorf("APIBaseURL = %q, want default %q", s.APIBaseURL, def.APIBaseURL)
	}
	if s.MaxConcurrentDownloads != def.MaxConcurrentDownloads {
		t.Errorf("MaxConcurrentDownloads = %d, want %d", s.MaxConcurrentDownloads, def.MaxConcurrentDownloads)
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	s := DefaultSettings()
	s.MaxConcurrentDownloads = 7
	s.StorageDir = "/tmp/music"
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.MaxConcurrentDownloads != 7 {
		t.Errorf("MaxConcurrentDownloads = %d, want 7", loaded.MaxConcurrentDownloads)
	}
	if loaded.StorageDir != "/tmp/music" {
		t.Errorf("StorageDir = %q", loaded.StorageDir)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("YANDEX_TOKEN", "secret-token")
	t.Setenv("MAX_CONCURRENT_DOWNLOADS", "4")
	t.Setenv("ENABLE_CACHE", "false")

	s, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Token != "secret-token" {
		t.Errorf("Token = %q", s.Token)
	}
	if s.MaxConcurrentDownloads != 4 {
		t.Errorf("MaxConcurrentDownloads = %d, want 4", s.MaxConcurrentDownloads)
	}
	if s.CacheEnabled {
		t.Error("CacheEnabled = true, want false from env")
	}
}

func TestSave_TokenNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	s := DefaultSettings()
	s.Token = "secret-token"
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.Contains(string(data), "secret-token") {
		t.Error("token must not be written to the settings file")
	}
}
