package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Settings holds all configuration options.
//
// Settings are resolved in three layers: defaults, an optional JSON file,
// and finally environment variables (highest precedence). The API token is
// only ever taken from the environment.
type Settings struct {
	// Catalog access
	Token      string `json:"-"`
	APIBaseURL string `json:"api_base_url"`

	// Storage layout
	StorageDir     string `json:"storage_dir"`
	TracksCacheDir string `json:"tracks_cache_dir"`
	ProgressDir    string `json:"progress_dir"`
	CacheDir       string `json:"cache_dir"`

	// Durable cache backend
	CacheEnabled bool `json:"cache_enabled"`

	// Download behavior
	MaxConcurrentDownloads int  `json:"max_concurrent_downloads"`
	MaxFileSizeMB          int  `json:"max_file_size_mb"`
	DownloadChunkSize      int  `json:"download_chunk_size"`
	SkipExisting           bool `json:"skip_existing"`

	// Discovery pacing
	DiscoveryBatchSize    int `json:"discovery_batch_size"`
	DiscoveryFetchLimit   int `json:"discovery_fetch_limit"`
	DiscoveryBatchPauseMs int `json:"discovery_batch_pause_ms"`

	// Tagging
	ModifyTags      bool `json:"modify_tags"`
	EmbedCoverArt   bool `json:"embed_cover_art"`
	CoverArtMaxSize int  `json:"cover_art_max_size"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		APIBaseURL: "https://api.music.yandex.net",

		StorageDir:     "./storage",
		TracksCacheDir: "./storage/downloads/tracks",
		ProgressDir:    "./storage/progress",
		CacheDir:       "./storage/cache",

		CacheEnabled: true,

		MaxConcurrentDownloads: 2,
		MaxFileSizeMB:          100,
		DownloadChunkSize:      8192,
		SkipExisting:           true,

		DiscoveryBatchSize:    10,
		DiscoveryFetchLimit:   3,
		DiscoveryBatchPauseMs: 500,

		ModifyTags:      true,
		EmbedCoverArt:   true,
		CoverArtMaxSize: 1000,
	}
}

// Load reads settings from a JSON file, applying environment overrides on
// top. A missing file is not an error; defaults are used. A .env file in the
// working directory is loaded first, without overriding variables already set
// in the environment.
func Load(path string) (*Settings, error) {
	_ = godotenv.Load()

	settings := DefaultSettings()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := json.Unmarshal(data, settings); err != nil {
			return nil, err
		}
	}

	settings.applyEnv()
	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// EnsureDirs creates the storage directory tree.
func (s *Settings) EnsureDirs() error {
	for _, dir := range []string{s.StorageDir, s.TracksCacheDir, s.ProgressDir, s.CacheDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func (s *Settings) applyEnv() {
	setString(&s.Token, "YANDEX_TOKEN")
	setString(&s.APIBaseURL, "YMUSIC_API_BASE_URL")
	setString(&s.StorageDir, "STORAGE_DIR")
	setString(&s.TracksCacheDir, "SONGS_CACHE_DIR")
	setString(&s.ProgressDir, "PROGRESS_DIR")
	setString(&s.CacheDir, "CACHE_DIR")

	setBool(&s.CacheEnabled, "ENABLE_CACHE")

	setInt(&s.MaxConcurrentDownloads, "MAX_CONCURRENT_DOWNLOADS")
	setInt(&s.MaxFileSizeMB, "MAX_FILE_SIZE_MB")
	setInt(&s.DownloadChunkSize, "DOWNLOAD_CHUNK_SIZE")
	setBool(&s.SkipExisting, "SKIP_EXISTING")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
