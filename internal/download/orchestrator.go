package download

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"ymusic-dl/internal/cache"
	"ymusic-dl/internal/catalog"
	"ymusic-dl/internal/errs"
	httpx "ymusic-dl/internal/http"
	"ymusic-dl/internal/io"
	"ymusic-dl/internal/model"
)

const (
	// negativeTTL is how long a failed track stays blacklisted. Short
	// enough that transient catalog hiccups clear themselves, long enough
	// to keep a broken track from being re-attempted inside one run.
	negativeTTL = 5 * time.Minute

	// positiveTTL is effectively forever: cached files are content-addressed
	// by stable identifiers, so an entry only goes stale if the file is
	// removed, which is detected on read.
	positiveTTL = 10 * 365 * 24 * time.Hour
)

// Tagger writes metadata into a downloaded audio file. Implemented by the
// audio package; nil disables tagging.
type Tagger interface {
	Tag(path string, track *model.Track, artist *model.Artist, cover []byte) error
}

// Options configures an Orchestrator.
type Options struct {
	// CacheDir is the shared content-addressed track store. Every track is
	// downloaded here exactly once and fanned out to run directories via
	// hard links.
	CacheDir string

	// MaxBytes rejects tracks larger than this many bytes. Zero disables
	// the ceiling.
	MaxBytes int64

	// ChunkSize is the download copy buffer size.
	ChunkSize int

	// Concurrency bounds parallel downloads in FetchAll.
	Concurrency int

	// SkipExisting short-circuits a fetch whose output file already
	// exists. When false, the output is re-linked from the canonical
	// copy even if present.
	SkipExisting bool

	// EmbedCover controls whether cover art is fetched and embedded.
	EmbedCover bool

	// CoverSize is the requested cover art pixel size.
	CoverSize int
}

// Orchestrator downloads tracks through a content-addressed cache.
//
// A track's canonical file lives in CacheDir under a name derived from
// stable identifiers; per-run output directories receive hard links to it,
// so a track shared by many runs is stored once. Failed downloads are
// negatively cached so repeated runs do not hammer the catalog with
// requests that just failed.
type Orchestrator struct {
	catalog catalog.Service
	client  *httpx.Client
	cache   cache.Cache
	tagger  Tagger
	opts    Options
	log     *logrus.Entry
}

// NewOrchestrator wires a downloader. The cache may be nil (every fetch
// resolves fresh); the tagger may be nil (no metadata is written).
func NewOrchestrator(svc catalog.Service, client *httpx.Client, c cache.Cache, tagger Tagger, opts Options, log *logrus.Entry) *Orchestrator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 2
	}
	return &Orchestrator{
		catalog: svc,
		client:  client,
		cache:   c,
		tagger:  tagger,
		opts:    opts,
		log:     log,
	}
}

// cachedTrack is the positive-cache payload: where the canonical file lives.
type cachedTrack struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Fetch ensures the track exists in the cache directory and links it into
// destDir under its output name. It returns the output path.
//
// Outcomes are cached: a success maps the track ID to its canonical path
// more or less permanently, a download failure blacklists the ID for a few
// minutes. Local filesystem errors are never negatively cached, since they
// say nothing about the track itself.
func (o *Orchestrator) Fetch(ctx context.Context, track *model.Track, artist *model.Artist, destDir string) (string, error) {
	if reason, found := o.negativeHit(ctx, track.ID); found {
		return "", &errs.DownloadError{TrackID: track.ID, Reason: "recently failed: " + reason}
	}

	outPath := filepath.Join(destDir, model.OutputFileName(track, artist))
	if o.opts.SkipExisting {
		if _, err := os.Stat(outPath); err == nil {
			track.FilePath = outPath
			return outPath, nil
		}
	}

	canonical, err := o.ensureCached(ctx, track, artist)
	if err != nil {
		return "", err
	}

	if err := ioutils.LinkOrCopy(canonical, outPath); err != nil {
		return "", err
	}
	track.FilePath = outPath
	if info, err := os.Stat(outPath); err == nil {
		track.FileSize = info.Size()
	}
	return outPath, nil
}

// ensureCached returns the canonical path for the track, downloading it if
// the cache has no usable copy.
func (o *Orchestrator) ensureCached(ctx context.Context, track *model.Track, artist *model.Artist) (string, error) {
	year := track.Year
	if artist == nil {
		year = 0
	}
	canonical := filepath.Join(o.opts.CacheDir, model.CacheFileName(track, artist, year))

	if path, ok := o.positiveHit(ctx, track.ID); ok {
		if _, err := os.Stat(path); err == nil {
			o.log.WithField("track_id", track.ID).Debug("cache hit")
			return path, nil
		}
		// Stale entry: the file was removed behind the cache's back.
		if o.cache != nil {
			_, _ = o.cache.Delete(ctx, positiveKey(track.ID))
		}
	}
	if _, err := os.Stat(canonical); err == nil {
		o.rememberSuccess(ctx, track, canonical)
		return canonical, nil
	}

	if err := o.download(ctx, track, artist, canonical); err != nil {
		return "", err
	}
	o.rememberSuccess(ctx, track, canonical)
	return canonical, nil
}

func (o *Orchestrator) download(ctx context.Context, track *model.Track, artist *model.Artist, canonical string) error {
	url, err := o.catalog.DownloadURL(ctx, track.ID, track.Quality)
	if err != nil {
		o.rememberFailure(ctx, track.ID, "url resolution failed")
		return &errs.DownloadError{TrackID: track.ID, Reason: "resolving download URL", Err: err}
	}
	if url == "" {
		o.rememberFailure(ctx, track.ID, "no download available")
		return &errs.DownloadError{TrackID: track.ID, Reason: "no download available"}
	}

	err = o.client.DownloadFile(ctx, url, canonical, httpx.DownloadOptions{
		MaxBytes:  o.opts.MaxBytes,
		ChunkSize: o.opts.ChunkSize,
	})
	if err != nil {
		if !errs.IsFileSystem(err) {
			o.rememberFailure(ctx, track.ID, "download failed")
		}
		return &errs.DownloadError{TrackID: track.ID, Reason: "downloading", Err: err}
	}

	if o.tagger != nil {
		o.tag(ctx, track, artist, canonical)
	}
	return nil
}

// tag embeds metadata into the canonical file. Tagging problems are logged
// and swallowed: an untagged file is still a usable download.
func (o *Orchestrator) tag(ctx context.Context, track *model.Track, artist *model.Artist, path string) {
	var cover []byte
	if o.opts.EmbedCover {
		data, err := o.catalog.CoverArt(ctx, track, o.opts.CoverSize)
		if err != nil {
			o.log.WithError(err).WithField("track_id", track.ID).Debug("cover art fetch failed")
		} else {
			cover = data
		}
	}
	if err := o.tagger.Tag(path, track, artist, cover); err != nil {
		o.log.WithError(err).WithField("track_id", track.ID).Warn("tagging failed")
	}
}

func positiveKey(trackID string) string { return "track_" + trackID }
func negativeKey(trackID string) string { return "failed_track_" + trackID }

func (o *Orchestrator) positiveHit(ctx context.Context, trackID string) (string, bool) {
	if o.cache == nil {
		return "", false
	}
	data, ok, err := o.cache.Get(ctx, positiveKey(trackID))
	if err != nil || !ok {
		return "", false
	}
	var entry cachedTrack
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", false
	}
	return entry.Path, true
}

func (o *Orchestrator) negativeHit(ctx context.Context, trackID string) (string, bool) {
	if o.cache == nil {
		return "", false
	}
	data, ok, err := o.cache.Get(ctx, negativeKey(trackID))
	if err != nil || !ok {
		return "", false
	}
	return string(data), true
}

func (o *Orchestrator) rememberSuccess(ctx context.Context, track *model.Track, path string) {
	if o.cache == nil {
		return
	}
	entry := cachedTrack{Path: path}
	if info, err := os.Stat(path); err == nil {
		entry.Size = info.Size()
	}
	data, _ := json.Marshal(entry)
	if err := o.cache.Set(ctx, positiveKey(track.ID), data, positiveTTL); err != nil {
		o.log.WithError(err).WithField("track_id", track.ID).Debug("positive cache write failed")
	}
}

func (o *Orchestrator) rememberFailure(ctx context.Context, trackID, reason string) {
	if o.cache == nil {
		return
	}
	if err := o.cache.Set(ctx, negativeKey(trackID), []byte(reason), negativeTTL); err != nil {
		o.log.WithError(err).WithField("track_id", trackID).Debug("negative cache write failed")
	}
}

// Item pairs a track with the artist whose run it belongs to.
type Item struct {
	Track  *model.Track
	Artist *model.Artist

	// DestDir is the output directory for this item.
	DestDir string
}

// ProgressEvent reports FetchAll progress in completion order.
type ProgressEvent struct {
	Completed   int
	Total       int
	Fraction    float64
	CurrentItem string
	Err         error

	// ETA estimates the remaining time from the average pace so far. Zero
	// until at least one item has completed.
	ETA time.Duration
}

// Stats summarizes a FetchAll run.
type Stats struct {
	Downloaded int
	Failed     int
}

// FetchAll downloads every item with bounded concurrency.
//
// Individual failures are counted and reported through onProgress, never
// aborting the whole batch; only context cancellation stops the run early.
func (o *Orchestrator) FetchAll(ctx context.Context, items []Item, onProgress func(ProgressEvent)) (Stats, error) {
	start := time.Now()

	var mu sync.Mutex
	var stats Stats
	completed := 0

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(o.opts.Concurrency)

	for _, item := range items {
		item := item
		group.Go(func() error {
			if groupCtx.Err() != nil {
				return groupCtx.Err()
			}

			_, err := o.Fetch(groupCtx, item.Track, item.Artist, item.DestDir)

			mu.Lock()
			completed++
			if err != nil {
				stats.Failed++
				o.log.WithError(err).WithFields(logrus.Fields{
					"track_id": item.Track.ID,
					"title":    item.Track.Title,
				}).Warn("download failed")
			} else {
				stats.Downloaded++
			}
			event := ProgressEvent{
				Completed:   completed,
				Total:       len(items),
				Fraction:    float64(completed) / float64(len(items)),
				CurrentItem: item.Track.Title,
				Err:         err,
			}
			if completed > 0 {
				pace := time.Since(start) / time.Duration(completed)
				event.ETA = pace * time.Duration(len(items)-completed)
			}
			// Invoked under the lock so events arrive in completion order.
			if onProgress != nil {
				onProgress(event)
			}
			mu.Unlock()
			return nil
		})
	}

	err := group.Wait()
	return stats, err
}
