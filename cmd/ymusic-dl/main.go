package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ymusic-dl/internal/audio"
	"ymusic-dl/internal/cache"
	"ymusic-dl/internal/catalog"
	"ymusic-dl/internal/checkpoint"
	"ymusic-dl/internal/config"
	"ymusic-dl/internal/discovery"
	"ymusic-dl/internal/download"
	httpx "ymusic-dl/internal/http"
	"ymusic-dl/internal/io"
	"ymusic-dl/internal/model"
)

type flags struct {
	artists     string
	artistFile  string
	output      string
	songs       int
	similar     int
	depth       int
	exclude     string
	years       string
	countries   string
	priority    string
	minTracks   int
	inTop       int
	noExplicit  bool
	quality     string
	parallel    int
	shuffle     bool
	archive     bool
	session     string
	resume      bool
	reset       bool
	configPath  string
	verbose     bool
}

func main() {
	var f flags

	rootCmd := &cobra.Command{
		Use:   "ymusic-dl",
		Short: "Discover similar artists and download their tracks",
		Long: `ymusic-dl expands a set of seed artists into a similarity neighborhood
and downloads each discovered artist's most popular tracks through a
shared, content-addressed track cache.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), &f)
		},
	}

	rootCmd.Flags().StringVarP(&f.artists, "artist", "a", "", "seed artist ID(s), comma-separated")
	rootCmd.Flags().StringVar(&f.artistFile, "artist-file", "", "file with one seed artist ID per line")
	rootCmd.Flags().StringVarP(&f.output, "output", "o", "./downloads", "output directory")
	rootCmd.Flags().IntVarP(&f.songs, "tracks", "n", 10, "tracks to download per artist (0 = all)")
	rootCmd.Flags().IntVarP(&f.similar, "similar", "s", 5, "similar artists admitted per artist")
	rootCmd.Flags().IntVarP(&f.depth, "depth", "d", 2, "traversal depth (0 = seeds only)")
	rootCmd.Flags().StringVar(&f.exclude, "exclude", "", "artist IDs to never download, comma-separated")
	rootCmd.Flags().StringVarP(&f.years, "years", "y", "", "release year filter, e.g. 2020-2024 or 2023")
	rootCmd.Flags().StringVarP(&f.countries, "countries", "c", "", "country allow-list, comma-separated")
	rootCmd.Flags().StringVar(&f.priority, "priority-countries", "", "countries ranked first, comma-separated")
	rootCmd.Flags().IntVar(&f.minTracks, "min-tracks", 3, "minimum catalog size for discovered artists")
	rootCmd.Flags().IntVar(&f.inTop, "in-top", 0, "restrict year filter to each artist's N most popular tracks")
	rootCmd.Flags().BoolVar(&f.noExplicit, "no-explicit", false, "skip explicit-content tracks")
	rootCmd.Flags().StringVarP(&f.quality, "quality", "q", "high", "audio quality: low, medium, high")
	rootCmd.Flags().IntVarP(&f.parallel, "parallel", "p", 0, "concurrent downloads (0 = from settings)")
	rootCmd.Flags().BoolVar(&f.shuffle, "shuffle", false, "flatten output and prefix files in shuffled order")
	rootCmd.Flags().BoolVar(&f.archive, "archive", false, "pack the output directory into a zip archive")
	rootCmd.Flags().StringVar(&f.session, "session", "", "session name for checkpointing")
	rootCmd.Flags().BoolVar(&f.resume, "resume", false, "resume a checkpointed session")
	rootCmd.Flags().BoolVar(&f.reset, "reset-progress", false, "discard a session's checkpoint and start over")
	rootCmd.Flags().StringVar(&f.configPath, "config", "", "path to settings file")
	rootCmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "verbose logging")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted, finishing current downloads...")
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if ctx.Err() != nil {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, f *flags) error {
	if err := validate(f); err != nil {
		return err
	}

	log := setupLogging(f.verbose)

	settings, err := config.Load(f.configPath)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	if settings.Token == "" {
		return errors.New("no API token: set YANDEX_TOKEN in the environment or .env")
	}
	if err := settings.EnsureDirs(); err != nil {
		return fmt.Errorf("creating storage directories: %w", err)
	}
	if f.parallel > 0 {
		settings.MaxConcurrentDownloads = f.parallel
	}

	seeds, err := collectSeeds(f)
	if err != nil {
		return err
	}
	if len(seeds) == 0 {
		return errors.New("no seed artists: use --artist or --artist-file")
	}

	years, err := parseYears(f.years)
	if err != nil {
		return err
	}

	store, err := buildCache(settings, log)
	if err != nil {
		return err
	}
	defer store.Close()

	client := httpx.NewClient(settings.Token)
	svc := catalog.NewYandex(client, store, settings.APIBaseURL, log)

	engine := discovery.NewEngine(svc, log)
	engine.BatchSize = settings.DiscoveryBatchSize
	engine.FetchConcurrency = settings.DiscoveryFetchLimit
	engine.BatchPause = time.Duration(settings.DiscoveryBatchPauseMs) * time.Millisecond

	tagger := audio.NewTagger(&audio.TagConfig{
		ModifyTags:      settings.ModifyTags,
		EmbedCoverArt:   settings.EmbedCoverArt,
		CoverArtMaxSize: settings.CoverArtMaxSize,
	})
	orch := download.NewOrchestrator(svc, client, store, tagger, download.Options{
		CacheDir:     settings.TracksCacheDir,
		MaxBytes:     int64(settings.MaxFileSizeMB) << 20,
		ChunkSize:    settings.DownloadChunkSize,
		Concurrency:  settings.MaxConcurrentDownloads,
		SkipExisting: settings.SkipExisting,
		EmbedCover:   settings.EmbedCoverArt,
		CoverSize:    settings.CoverArtMaxSize,
	}, log)

	checkpoints := checkpoint.NewService(store, settings.ProgressDir, log)
	signature := checkpoint.Signature(seeds, f.similar, f.depth, f.songs)

	if f.reset {
		if err := checkpoints.Reset(ctx, f.session); err != nil {
			return err
		}
		log.WithField("session", f.session).Info("checkpoint discarded")
	}

	// Discovery.
	opts := model.DiscoverOptions{
		SimilarLimit:       f.similar,
		MaxDepth:           f.depth,
		MaxTotalArtists:    999,
		MinTracksPerArtist: f.minTracks,
		Countries:          splitList(f.countries),
		PriorityCountries:  splitList(f.priority),
		ExcludeArtists:     toSet(splitList(f.exclude)),
		Years:              years,
		MaxProbeAttempts:   20,
	}

	log.WithFields(logrus.Fields{
		"seeds": len(seeds),
		"depth": f.depth,
	}).Info("starting discovery")

	result, err := engine.Discover(ctx, seeds, opts)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}
	fmt.Printf("Discovered %d artists (depth %d, %s)\n",
		len(result.Artists), result.MaxDepthReached, result.Elapsed.Round(time.Millisecond))

	// Checkpoint bootstrap.
	cp, err := prepareCheckpoint(ctx, checkpoints, f, signature, result.Artists)
	if err != nil {
		return err
	}
	pending := pendingArtists(result.Artists, cp)
	if len(pending) < len(result.Artists) {
		fmt.Printf("Resuming: %d of %d artists already done\n",
			len(result.Artists)-len(pending), len(result.Artists))
	}

	// Downloads, one artist at a time so checkpoints stay coarse-grained.
	trackOpts := model.TrackOptions{
		TopN:            f.songs,
		Years:           years,
		InTopN:          f.inTop,
		ExcludeExplicit: f.noExplicit,
		Quality:         model.ParseQuality(f.quality),
	}

	var totals download.Stats
	for n, p := range pending {
		if ctx.Err() != nil {
			break
		}
		artist := p.artist

		tracks, err := svc.ArtistTracks(ctx, artist.ID, trackOpts)
		if err != nil {
			log.WithError(err).WithField("artist", artist.Name).Warn("track listing failed, skipping artist")
			continue
		}

		destDir := f.output
		if f.depth > 0 {
			destDir = filepath.Join(f.output, model.SanitizeFileName(artist.Name))
		}

		items := make([]download.Item, 0, len(tracks))
		for _, track := range tracks {
			items = append(items, download.Item{Track: track, Artist: artist, DestDir: destDir})
		}

		fmt.Printf("[%d/%d] %s: %d tracks\n", n+1, len(pending), artist.Name, len(items))
		stats, err := orch.FetchAll(ctx, items, func(event download.ProgressEvent) {
			if event.Err != nil {
				return
			}
			fmt.Printf("  %3.0f%%  %s  (ETA %s)\n",
				event.Fraction*100, event.CurrentItem, event.ETA.Round(time.Second))
		})
		totals.Downloaded += stats.Downloaded
		totals.Failed += stats.Failed
		if err != nil {
			break
		}

		if cp != nil {
			if err := checkpoints.MarkProcessed(ctx, cp, artist.ID, p.index, stats.Downloaded, stats.Failed); err != nil {
				log.WithError(err).Warn("checkpoint save failed")
			}
		}
	}

	if ctx.Err() != nil {
		fmt.Printf("\nInterrupted. %s\n", progressLine(cp, totals))
		return ctx.Err()
	}

	if cp != nil {
		if err := checkpoints.MarkComplete(ctx, cp); err != nil {
			log.WithError(err).Warn("checkpoint completion save failed")
		}
	}

	if f.shuffle {
		if err := ioutils.ShuffleRenumber(f.output); err != nil {
			return fmt.Errorf("shuffling output: %w", err)
		}
	}
	if f.archive {
		archivePath := strings.TrimRight(f.output, "/\\") + ".zip"
		if err := ioutils.ZipArchive(f.output, archivePath); err != nil {
			return fmt.Errorf("archiving output: %w", err)
		}
		fmt.Printf("Archived to %s\n", archivePath)
	}

	fmt.Printf("\nDone. %d tracks downloaded, %d failed.\n", totals.Downloaded, totals.Failed)
	return nil
}

func validate(f *flags) error {
	if f.depth > 0 && f.similar <= 0 {
		return errors.New("--depth > 0 requires --similar > 0")
	}
	if (f.resume || f.reset) && f.session == "" {
		return errors.New("--resume and --reset-progress require --session")
	}
	if f.resume && f.reset {
		return errors.New("--resume and --reset-progress are mutually exclusive")
	}
	if f.inTop > 0 && f.years == "" {
		return errors.New("--in-top requires --years")
	}
	switch strings.ToLower(f.quality) {
	case "low", "medium", "high":
	default:
		return fmt.Errorf("unknown quality %q: use low, medium, or high", f.quality)
	}
	return nil
}

func setupLogging(verbose bool) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}
	return logrus.NewEntry(logger)
}

func buildCache(settings *config.Settings, log *logrus.Entry) (cache.Cache, error) {
	memory := cache.NewMemory()
	if !settings.CacheEnabled {
		return memory, nil
	}

	durable, err := cache.NewBadger(settings.CacheDir)
	if err != nil {
		// A cache that won't open shouldn't kill the run.
		log.WithError(err).Warn("durable cache unavailable, using memory only")
		return memory, nil
	}
	return cache.NewTiered(memory, durable, log), nil
}

func prepareCheckpoint(ctx context.Context, svc *checkpoint.Service, f *flags, signature string, artists []*model.Artist) (*checkpoint.Checkpoint, error) {
	if f.session == "" {
		return nil, nil
	}

	if f.resume {
		cp, err := svc.Load(ctx, f.session)
		if err != nil {
			return nil, err
		}
		if cp == nil {
			return nil, fmt.Errorf("no checkpoint for session %q", f.session)
		}
		if !cp.Compatible(signature) {
			return nil, fmt.Errorf("session %q was started with different parameters; use --reset-progress to start over", f.session)
		}
		if cp.IsComplete {
			return nil, fmt.Errorf("session %q is already complete", f.session)
		}
		fmt.Println(cp.Summary())
		return cp, nil
	}

	// Unfinished progress under this name must not be silently clobbered.
	existing, err := svc.Load(ctx, f.session)
	if err != nil {
		return nil, err
	}
	if existing != nil && !existing.IsComplete {
		return nil, fmt.Errorf("session %q already has progress; use --resume to continue or --reset-progress to start over", f.session)
	}

	return svc.Create(ctx, f.session, len(artists), signature)
}

// pendingArtist pairs an artist with its position in the full discovered
// list, so checkpoint indices keep increasing across resumed runs.
type pendingArtist struct {
	artist *model.Artist
	index  int
}

// pendingArtists drops artists the checkpoint already records as processed,
// preserving each survivor's index in the full list.
func pendingArtists(artists []*model.Artist, cp *checkpoint.Checkpoint) []pendingArtist {
	pending := make([]pendingArtist, 0, len(artists))
	for i, artist := range artists {
		if cp != nil && cp.Processed[artist.ID] {
			continue
		}
		pending = append(pending, pendingArtist{artist: artist, index: i})
	}
	return pending
}

func collectSeeds(f *flags) ([]string, error) {
	seen := make(map[string]bool)
	var seeds []string
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id != "" && !seen[id] {
			seen[id] = true
			seeds = append(seeds, id)
		}
	}

	for _, id := range strings.Split(f.artists, ",") {
		add(id)
	}

	if f.artistFile != "" {
		file, err := os.Open(f.artistFile)
		if err != nil {
			return nil, fmt.Errorf("reading artist file: %w", err)
		}
		defer file.Close()

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			add(line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading artist file: %w", err)
		}
	}

	return seeds, nil
}

// parseYears accepts "2023" or "2020-2024".
func parseYears(s string) (*model.YearRange, error) {
	if s == "" {
		return nil, nil
	}

	parts := strings.SplitN(s, "-", 2)
	from, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, fmt.Errorf("invalid year range %q", s)
	}
	to := from
	if len(parts) == 2 {
		to, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid year range %q", s)
		}
	}
	if to < from {
		return nil, fmt.Errorf("year range %q is reversed", s)
	}
	return &model.YearRange{From: from, To: to}, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

func progressLine(cp *checkpoint.Checkpoint, totals download.Stats) string {
	if cp != nil {
		return "Progress saved: " + cp.Summary()
	}
	return fmt.Sprintf("%d tracks downloaded, %d failed.", totals.Downloaded, totals.Failed)
}
