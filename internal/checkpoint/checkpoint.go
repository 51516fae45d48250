package checkpoint

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ymusic-dl/internal/cache"
	"ymusic-dl/internal/errs"
	"ymusic-dl/internal/model"
)

const (
	// activeTTL keeps an in-progress checkpoint around for a month of
	// on-and-off resuming; completed sessions expire after a week.
	activeTTL   = 30 * 24 * time.Hour
	completeTTL = 7 * 24 * time.Hour

	keyPrefix = "ymusic:progress:"
)

// Checkpoint is the persisted progress of one download session.
type Checkpoint struct {
	SessionName  string `json:"session_name"`
	TotalArtists int    `json:"total_artists"`

	// Processed maps artist IDs to done. A map rather than a list, so
	// marking an artist twice is harmless.
	Processed map[string]bool `json:"processed_artist_ids"`

	LastArtistIndex int    `json:"last_artist_index"`
	LastArtistID    string `json:"last_artist_id"`

	// CommandHash fingerprints the parameters the session was started
	// with. Resuming under different parameters would silently change the
	// meaning of "remaining work", so it is refused.
	CommandHash string `json:"command_hash"`

	StartedAt     time.Time `json:"started_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
	IsComplete    bool      `json:"is_complete"`

	TracksDownloaded int `json:"tracks_downloaded"`
	TracksFailed     int `json:"tracks_failed"`
}

// Signature fingerprints a command's resumable parameters. Seed order does
// not matter; any change to the similar-artist limit, depth, or per-artist
// track count produces a different signature.
func Signature(seedIDs []string, similar, depth, songs int) string {
	sorted := make([]string, len(seedIDs))
	copy(sorted, seedIDs)
	sort.Strings(sorted)

	payload := fmt.Sprintf("%s_%d_%d_%d", strings.Join(sorted, ","), similar, depth, songs)
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])[:12]
}

// Service persists checkpoints to a cache backend and mirrors every write
// to a JSON file, so progress survives the loss of either store.
type Service struct {
	cache cache.Cache
	dir   string
	log   *logrus.Entry
}

// NewService creates a checkpoint store. The cache may be nil, leaving the
// file mirror as the only store.
func NewService(c cache.Cache, dir string, log *logrus.Entry) *Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{cache: c, dir: dir, log: log}
}

// Create starts a fresh checkpoint for the session.
func (s *Service) Create(ctx context.Context, session string, totalArtists int, commandHash string) (*Checkpoint, error) {
	now := time.Now().UTC()
	cp := &Checkpoint{
		SessionName:   session,
		TotalArtists:  totalArtists,
		Processed:     make(map[string]bool),
		CommandHash:   commandHash,
		StartedAt:     now,
		LastUpdatedAt: now,
	}
	if err := s.Save(ctx, cp); err != nil {
		return nil, err
	}
	return cp, nil
}

// Load retrieves a session's checkpoint, preferring the cache and falling
// back to the file mirror. Returns (nil, nil) when no checkpoint exists.
func (s *Service) Load(ctx context.Context, session string) (*Checkpoint, error) {
	if s.cache != nil {
		data, ok, err := s.cache.Get(ctx, keyPrefix+session)
		if err != nil {
			s.log.WithError(err).Warn("checkpoint cache read failed, trying file")
		} else if ok {
			var cp Checkpoint
			if err := json.Unmarshal(data, &cp); err == nil {
				return &cp, nil
			}
			s.log.WithField("session", session).Warn("malformed cached checkpoint, trying file")
		}
	}

	data, err := os.ReadFile(s.filePath(session))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &errs.FileSystemError{Path: s.filePath(session), Err: err}
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("parsing checkpoint for session %s: %w", session, err)
	}
	return &cp, nil
}

// Save writes the checkpoint to both stores, refreshing LastUpdatedAt.
// As long as one store accepts the write, Save succeeds.
func (s *Service) Save(ctx context.Context, cp *Checkpoint) error {
	cp.LastUpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return err
	}

	var cacheErr error
	if s.cache != nil {
		ttl := activeTTL
		if cp.IsComplete {
			ttl = completeTTL
		}
		cacheErr = s.cache.Set(ctx, keyPrefix+cp.SessionName, data, ttl)
		if cacheErr != nil {
			s.log.WithError(cacheErr).Warn("checkpoint cache write failed")
		}
	}

	fileErr := s.writeFile(cp.SessionName, data)
	if fileErr != nil {
		s.log.WithError(fileErr).Warn("checkpoint file write failed")
	}

	if fileErr != nil && (s.cache == nil || cacheErr != nil) {
		return fileErr
	}
	return nil
}

func (s *Service) writeFile(session string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return &errs.FileSystemError{Path: s.dir, Err: err}
	}

	path := s.filePath(session)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return &errs.FileSystemError{Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &errs.FileSystemError{Path: path, Err: err}
	}
	return nil
}

// MarkProcessed records one artist as done and persists the checkpoint.
func (s *Service) MarkProcessed(ctx context.Context, cp *Checkpoint, artistID string, index, downloaded, failed int) error {
	cp.Processed[artistID] = true
	cp.LastArtistID = artistID
	cp.LastArtistIndex = index
	cp.TracksDownloaded += downloaded
	cp.TracksFailed += failed
	return s.Save(ctx, cp)
}

// MarkComplete finalizes the checkpoint.
func (s *Service) MarkComplete(ctx context.Context, cp *Checkpoint) error {
	cp.IsComplete = true
	return s.Save(ctx, cp)
}

// Reset removes a session's checkpoint from both stores.
func (s *Service) Reset(ctx context.Context, session string) error {
	if s.cache != nil {
		if _, err := s.cache.Delete(ctx, keyPrefix+session); err != nil {
			s.log.WithError(err).Warn("checkpoint cache delete failed")
		}
	}
	if err := os.Remove(s.filePath(session)); err != nil && !os.IsNotExist(err) {
		return &errs.FileSystemError{Path: s.filePath(session), Err: err}
	}
	return nil
}

func (s *Service) filePath(session string) string {
	return filepath.Join(s.dir, model.SanitizeFileName(session)+".json")
}

// Compatible reports whether the checkpoint was created with the same
// command signature.
func (c *Checkpoint) Compatible(commandHash string) bool {
	return c.CommandHash == commandHash
}

// Remaining filters artistIDs down to those not yet processed, preserving
// the input order.
func (c *Checkpoint) Remaining(artistIDs []string) []string {
	var remaining []string
	for _, id := range artistIDs {
		if !c.Processed[id] {
			remaining = append(remaining, id)
		}
	}
	return remaining
}

// Summary renders a one-line human-readable progress description.
func (c *Checkpoint) Summary() string {
	return fmt.Sprintf("session %s: %d/%d artists, %d tracks downloaded, %d failed",
		c.SessionName, len(c.Processed), c.TotalArtists, c.TracksDownloaded, c.TracksFailed)
}
