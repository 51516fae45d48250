package catalog

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ymusic-dl/internal/cache"
	"ymusic-dl/internal/errs"
	httpx "ymusic-dl/internal/http"
	"ymusic-dl/internal/model"
)

const (
	// tracksPageSize is the page size used when listing an artist's tracks.
	tracksPageSize = 50

	// signSalt is prepended to the storage path when signing direct
	// download URLs.
	signSalt = "XGRlBW9FXlekgbPrRHuSiA"

	// Year probes are retried with doubling backoff before falling back to
	// an inclusive answer.
	probeAttempts     = 3
	probeInitialDelay = time.Second
	probeTimeout      = 10 * time.Second

	artistCacheTTL      = time.Hour
	similarCacheTTL     = 24 * time.Hour
	yearMatchCacheTTL   = time.Hour
	yearNoMatchCacheTTL = 30 * time.Minute
)

// Yandex implements Service against the Yandex Music HTTP API.
//
// Read-mostly lookups (artist profiles, similarity lists, year probes) are
// cached; URL resolution is not, because direct download URLs are
// short-lived and signed per request.
type Yandex struct {
	client  *httpx.Client
	cache   cache.Cache
	baseURL string
	log     *logrus.Entry
}

// NewYandex creates a catalog service backed by the API at baseURL.
// The cache may be nil, disabling response caching.
func NewYandex(client *httpx.Client, c cache.Cache, baseURL string, log *logrus.Entry) *Yandex {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Yandex{
		client:  client,
		cache:   c,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

// Artist implements Service.
func (y *Yandex) Artist(ctx context.Context, id string) (*model.Artist, error) {
	cacheKey := "artist_" + id

	var cached model.Artist
	if y.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	var resp artistResponse
	err := y.client.GetJSON(ctx, fmt.Sprintf("%s/artists/%s", y.baseURL, id), &resp)
	if errs.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &errs.ServiceError{Service: "yandex", Err: err}
	}
	if resp.Result.Artist.ID.String() == "" {
		return nil, nil
	}

	artist := toArtist(resp.Result.Artist)
	y.cacheSet(ctx, cacheKey, artist, artistCacheTTL)
	return artist, nil
}

// SimilarArtists implements Service.
//
// The full similarity list is cached for a day; the requested limit is
// applied after the cache so different limits share one entry. Scores are
// positional: the i-th of n similar artists scores 1-i/n, so earlier
// entries rank higher while later ones stay in (0, 1].
func (y *Yandex) SimilarArtists(ctx context.Context, id string, limit int) ([]*model.Artist, error) {
	cacheKey := "similar_artists_" + id

	var similar []*model.Artist
	if !y.cacheGet(ctx, cacheKey, &similar) {
		var resp briefInfoResponse
		err := y.client.GetJSON(ctx, fmt.Sprintf("%s/artists/%s/brief-info", y.baseURL, id), &resp)
		if errs.IsNotFound(err) {
			return nil, nil
		}
		if err != nil {
			return nil, &errs.ServiceError{Service: "yandex", Err: err}
		}

		n := len(resp.Result.SimilarArtists)
		similar = make([]*model.Artist, 0, n)
		for i, dto := range resp.Result.SimilarArtists {
			artist := toArtist(dto)
			artist.SimilarityScore = 1 - float64(i)/float64(n)
			similar = append(similar, artist)
		}
		y.cacheSet(ctx, cacheKey, similar, similarCacheTTL)
	}

	if limit > 0 && len(similar) > limit {
		similar = similar[:limit]
	}
	return similar, nil
}

// ArtistTracks implements Service.
//
// Pages are fetched in catalog (popularity) order. When only the top N
// tracks are wanted and no further filtering can disqualify them, pagination
// stops as soon as N tracks have been collected.
func (y *Yandex) ArtistTracks(ctx context.Context, id string, opts model.TrackOptions) ([]*model.Track, error) {
	var tracks []*model.Track

	canStopEarly := opts.TopN > 0 && opts.Years == nil && !opts.ExcludeExplicit
	for page := 0; ; page++ {
		var resp tracksResponse
		url := fmt.Sprintf("%s/artists/%s/tracks?page=%d&page-size=%d", y.baseURL, id, page, tracksPageSize)
		err := y.client.GetJSON(ctx, url, &resp)
		if errs.IsNotFound(err) {
			break
		}
		if err != nil {
			return nil, &errs.ServiceError{Service: "yandex", Err: err}
		}

		for _, dto := range resp.Result.Tracks {
			if !dto.Available {
				continue
			}
			track := toTrack(dto)
			track.Quality = opts.Quality
			tracks = append(tracks, track)
		}

		if canStopEarly && len(tracks) >= opts.TopN {
			break
		}
		fetched := (resp.Result.Pagination.Page + 1) * resp.Result.Pagination.PerPage
		if fetched >= resp.Result.Pagination.Total || len(resp.Result.Tracks) == 0 {
			break
		}
	}

	return SelectTracks(tracks, opts), nil
}

// HasContentInYears implements Service.
//
// The probe inspects the artist's album list. Transient failures are
// retried with doubling backoff; if every attempt fails the artist is
// reported as matching, so flaky probes widen results instead of silently
// dropping artists. Only definite answers are cached.
func (y *Yandex) HasContentInYears(ctx context.Context, id string, years model.YearRange) (bool, error) {
	cacheKey := fmt.Sprintf("year_check_%s_%d_%d", id, years.From, years.To)

	var cached bool
	if y.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	delay := probeInitialDelay
	var lastErr error
	for attempt := 0; attempt < probeAttempts; attempt++ {
		if attempt > 0 {
			if err := waitForRetry(ctx, delay); err != nil {
				return false, err
			}
			delay *= 2
		}

		match, err := y.probeAlbumYears(ctx, id, years)
		if err == nil {
			ttl := yearMatchCacheTTL
			if !match {
				ttl = yearNoMatchCacheTTL
			}
			y.cacheSet(ctx, cacheKey, match, ttl)
			return match, nil
		}
		lastErr = err
	}

	y.log.WithError(lastErr).WithField("artist_id", id).
		Warn("year probe failed, treating artist as matching")
	return true, nil
}

func (y *Yandex) probeAlbumYears(ctx context.Context, id string, years model.YearRange) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	var resp briefInfoResponse
	err := y.client.GetJSON(ctx, fmt.Sprintf("%s/artists/%s/brief-info", y.baseURL, id), &resp)
	if errs.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	for _, album := range resp.Result.Albums {
		if album.Year > 0 && years.Contains(album.Year) {
			return true, nil
		}
	}
	return false, nil
}

// DownloadURL implements Service.
//
// Resolution takes two hops: the API lists per-bitrate download-info
// entries, then the chosen entry's storage URL yields the signing material
// for the final direct URL.
func (y *Yandex) DownloadURL(ctx context.Context, trackID string, quality model.Quality) (string, error) {
	var resp downloadInfoResponse
	err := y.client.GetJSON(ctx, fmt.Sprintf("%s/tracks/%s/download-info", y.baseURL, trackID), &resp)
	if errs.IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", &errs.ServiceError{Service: "yandex", Err: err}
	}

	info := pickDownloadInfo(resp.Result, quality)
	if info == nil {
		return "", nil
	}

	var fileInfo fileInfoResponse
	if err := y.client.GetJSON(ctx, info.DownloadInfoURL+"&format=json", &fileInfo); err != nil {
		return "", &errs.ServiceError{Service: "yandex", Err: err}
	}
	if fileInfo.Path == "" || fileInfo.Host == "" {
		return "", &errs.ServiceError{Service: "yandex", Err: fmt.Errorf("incomplete file info for track %s", trackID)}
	}

	sign := md5.Sum([]byte(signSalt + fileInfo.Path[1:] + fileInfo.S))
	return fmt.Sprintf("https://%s/get-mp3/%s/%s%s",
		fileInfo.Host, hex.EncodeToString(sign[:]), fileInfo.TS, fileInfo.Path), nil
}

// CoverArt implements Service. The catalog serves pre-scaled images, so the
// requested size is substituted straight into the cover URI template.
func (y *Yandex) CoverArt(ctx context.Context, track *model.Track, size int) ([]byte, error) {
	if track.CoverURI == "" {
		return nil, nil
	}

	uri := strings.Replace(track.CoverURI, "%%", fmt.Sprintf("%dx%d", size, size), 1)
	data, err := y.client.Get(ctx, "https://"+uri)
	if errs.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &errs.ServiceError{Service: "yandex", Err: err}
	}
	return data, nil
}

// pickDownloadInfo chooses the mp3 variant matching the quality tier: the
// highest bitrate for high, the lowest for low, and the bitrate closest to
// 192 kbps for medium.
func pickDownloadInfo(infos []downloadInfoDTO, quality model.Quality) *downloadInfoDTO {
	var mp3s []downloadInfoDTO
	for _, info := range infos {
		if info.Codec == "mp3" {
			mp3s = append(mp3s, info)
		}
	}
	if len(mp3s) == 0 {
		return nil
	}

	sort.Slice(mp3s, func(i, j int) bool {
		return mp3s[i].BitrateInKbps < mp3s[j].BitrateInKbps
	})

	switch quality {
	case model.QualityLow:
		return &mp3s[0]
	case model.QualityMedium:
		best := 0
		for i, info := range mp3s {
			if abs(info.BitrateInKbps-192) < abs(mp3s[best].BitrateInKbps-192) {
				best = i
			}
		}
		return &mp3s[best]
	default:
		return &mp3s[len(mp3s)-1]
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// waitForRetry sleeps for the given delay, aborting early if the context is
// cancelled.
func waitForRetry(ctx context.Context, delay time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func (y *Yandex) cacheGet(ctx context.Context, key string, v any) bool {
	if y.cache == nil {
		return false
	}
	data, ok, err := y.cache.Get(ctx, key)
	if err != nil || !ok {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		y.log.WithError(err).WithField("key", key).Debug("discarding malformed cache entry")
		return false
	}
	return true
}

func (y *Yandex) cacheSet(ctx context.Context, key string, v any, ttl time.Duration) {
	if y.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := y.cache.Set(ctx, key, data, ttl); err != nil {
		y.log.WithError(err).WithField("key", key).Debug("cache write failed")
	}
}

func toArtist(dto artistDTO) *model.Artist {
	country := ""
	if len(dto.Countries) > 0 {
		country = dto.Countries[0]
	}
	return &model.Artist{
		ID:         dto.ID.String(),
		Name:       dto.Name,
		Country:    country,
		Genres:     dto.Genres,
		TrackCount: dto.Counts.Tracks,
	}
}

func toTrack(dto trackDTO) *model.Track {
	track := &model.Track{
		ID:         dto.ID.String(),
		Title:      dto.Title,
		DurationMs: dto.DurationMs,
		Explicit:   dto.ContentWarning == "explicit",
		CoverURI:   dto.CoverURI,
	}
	for _, artist := range dto.Artists {
		track.ArtistIDs = append(track.ArtistIDs, artist.ID.String())
		track.ArtistNames = append(track.ArtistNames, artist.Name)
	}
	if len(dto.Albums) > 0 {
		track.AlbumID = dto.Albums[0].ID.String()
		track.AlbumName = dto.Albums[0].Title
		track.Year = dto.Albums[0].Year
	}
	return track
}
