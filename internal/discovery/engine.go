package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"ymusic-dl/internal/catalog"
	"ymusic-dl/internal/errs"
	"ymusic-dl/internal/model"
)

// Engine pacing defaults, tuned to stay inside the catalog's informal rate
// limits.
const (
	DefaultBatchSize        = 10
	DefaultFetchConcurrency = 3
	DefaultBatchPause       = 500 * time.Millisecond

	// supersetLimit is the minimum similar-artist fetch size. Fetching a
	// superset of the per-parent quota gives the ranking and year filters
	// enough candidates to fill it even when many are rejected.
	supersetLimit = 50
)

// Engine walks the artist similarity graph breadth-first.
//
// The traversal is level-synchronous: all artists at depth d are expanded
// before any artist at depth d+1. Within a level, parents are processed in
// batches with bounded fetch concurrency and a pause between batches.
type Engine struct {
	// BatchSize is the number of parents expanded per batch.
	BatchSize int

	// FetchConcurrency bounds concurrent catalog fetches within a batch.
	FetchConcurrency int

	// BatchPause is the minimum gap between consecutive batches.
	BatchPause time.Duration

	catalog catalog.Service
	log     *logrus.Entry
}

// NewEngine creates a discovery engine with default pacing.
func NewEngine(svc catalog.Service, log *logrus.Entry) *Engine {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Engine{
		BatchSize:        DefaultBatchSize,
		FetchConcurrency: DefaultFetchConcurrency,
		BatchPause:       DefaultBatchPause,
		catalog:          svc,
		log:              log,
	}
}

// traversal is the mutable state of one Discover run. All mutation goes
// through the mutex so that an artist reached concurrently from two parents
// is admitted exactly once, keeping its first discoverer as parent.
type traversal struct {
	mu         sync.Mutex
	opts       model.DiscoverOptions
	visited    map[string]bool
	discovered []*model.Artist
	tree       map[string][]string
}

// admit records an artist at the given depth, unless it was already seen or
// the total bound is reached. Reports whether the artist was admitted.
func (t *traversal) admit(artist *model.Artist, parent string, depth int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.visited[artist.ID] {
		return false
	}
	if len(t.discovered) >= t.opts.MaxTotalArtists {
		return false
	}

	t.visited[artist.ID] = true
	artist.Depth = depth
	artist.DiscoveredFrom = parent
	t.discovered = append(t.discovered, artist)
	if parent != "" {
		t.tree[parent] = append(t.tree[parent], artist.ID)
	}
	return true
}

// unvisited drops candidates that have already been discovered,
// snapshotting the visited set under the lock. A concurrent parent can
// still admit a candidate after the snapshot; admit stays the
// authoritative check.
func (t *traversal) unvisited(candidates []*model.Artist) []*model.Artist {
	t.mu.Lock()
	defer t.mu.Unlock()
	fresh := candidates[:0:0]
	for _, candidate := range candidates {
		if !t.visited[candidate.ID] {
			fresh = append(fresh, candidate)
		}
	}
	return fresh
}

func (t *traversal) full() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.discovered) >= t.opts.MaxTotalArtists
}

// Discover expands the given seed artists into a similarity neighborhood.
//
// Each seed is resolved first; an unresolvable seed aborts the run with a
// *errs.NotFoundError. Seeds are transparent with respect to the year
// filter: a seed without matching content is still expanded, but excluded
// from the result set.
//
// The run stops when MaxDepth is reached, the artist bound fills up, or the
// frontier empties. If every parent in a level fails, the run aborts with a
// *errs.ServiceError rather than returning a silently truncated result.
func (e *Engine) Discover(ctx context.Context, seedIDs []string, opts model.DiscoverOptions) (*model.DiscoveryResult, error) {
	start := time.Now()

	state := &traversal{
		opts:    opts,
		visited: make(map[string]bool),
		tree:    make(map[string][]string),
	}

	seeds, err := e.resolveSeeds(ctx, seedIDs, state)
	if err != nil {
		return nil, err
	}

	limiter := rate.NewLimiter(rate.Every(e.BatchPause), 1)
	frontier := seeds
	maxDepthReached := 0

	for depth := 1; depth <= opts.MaxDepth && len(frontier) > 0 && !state.full(); depth++ {
		e.log.WithFields(logrus.Fields{
			"depth":    depth,
			"frontier": len(frontier),
		}).Info("expanding level")

		next, err := e.expandLevel(ctx, frontier, depth, state, limiter)
		if err != nil {
			return nil, err
		}
		if len(next) > 0 {
			maxDepthReached = depth
		}
		frontier = next
	}

	result := &model.DiscoveryResult{
		Seeds:           seeds,
		Tree:            state.tree,
		Countries:       make(map[string]bool),
		MaxDepthReached: maxDepthReached,
		Elapsed:         time.Since(start),
		Params:          opts,
	}
	for _, artist := range state.discovered {
		if artist.Depth == 0 && opts.Years != nil {
			match, err := e.catalog.HasContentInYears(ctx, artist.ID, *opts.Years)
			if err != nil {
				return nil, err
			}
			if !match {
				continue
			}
		}
		result.Artists = append(result.Artists, artist)
		if artist.Country != "" {
			result.Countries[artist.Country] = true
		}
	}
	return result, nil
}

func (e *Engine) resolveSeeds(ctx context.Context, seedIDs []string, state *traversal) ([]*model.Artist, error) {
	var seeds []*model.Artist
	for _, id := range seedIDs {
		artist, err := e.catalog.Artist(ctx, id)
		if err != nil {
			return nil, err
		}
		if artist == nil {
			return nil, &errs.NotFoundError{Resource: "artist", ID: id}
		}
		if state.admit(artist, "", 0) {
			seeds = append(seeds, artist)
		}
	}
	return seeds, nil
}

// expandLevel processes one BFS level in batches and returns the next
// frontier in parent order.
func (e *Engine) expandLevel(ctx context.Context, frontier []*model.Artist, depth int, state *traversal, limiter *rate.Limiter) ([]*model.Artist, error) {
	var next []*model.Artist
	levelParents := 0

	var failMu sync.Mutex
	levelFailures := 0
	var lastFailure error

	for batchStart := 0; batchStart < len(frontier); batchStart += e.BatchSize {
		if state.full() {
			break
		}
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		batchEnd := batchStart + e.BatchSize
		if batchEnd > len(frontier) {
			batchEnd = len(frontier)
		}
		batch := frontier[batchStart:batchEnd]

		admitted := make([][]*model.Artist, len(batch))
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(e.FetchConcurrency)

		for i, parent := range batch {
			i, parent := i, parent
			group.Go(func() error {
				children, err := e.expandParent(groupCtx, parent, depth, state)
				if err != nil {
					e.log.WithError(err).WithFields(logrus.Fields{
						"artist_id": parent.ID,
						"artist":    parent.Name,
					}).Warn("expansion failed, skipping artist")
					failMu.Lock()
					levelFailures++
					lastFailure = err
					failMu.Unlock()
					return nil
				}
				admitted[i] = children
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}

		levelParents += len(batch)
		for _, children := range admitted {
			next = append(next, children...)
		}
	}

	if levelParents > 0 && levelFailures == levelParents {
		return nil, &errs.ServiceError{Service: "catalog", Err: lastFailure}
	}
	return next, nil
}

// expandParent fetches, ranks, and admits one parent's similar artists.
// Already-visited candidates are dropped before ranking, so they never
// consume probe attempts. At most opts.SimilarLimit children are admitted;
// under a year filter, at most opts.MaxProbeAttempts candidates are probed
// before the remaining quota is left unfilled.
func (e *Engine) expandParent(ctx context.Context, parent *model.Artist, depth int, state *traversal) ([]*model.Artist, error) {
	opts := state.opts

	fetchLimit := supersetLimit
	if opts.SimilarLimit > fetchLimit {
		fetchLimit = opts.SimilarLimit
	}
	candidates, err := e.catalog.SimilarArtists(ctx, parent.ID, fetchLimit)
	if err != nil {
		return nil, err
	}

	ranked := rankCandidates(state.unvisited(candidates), opts)

	var admitted []*model.Artist
	probes := 0
	for _, candidate := range ranked {
		if len(admitted) >= opts.SimilarLimit {
			break
		}

		if opts.Years != nil {
			if probes >= opts.MaxProbeAttempts {
				break
			}
			probes++
			match, err := e.catalog.HasContentInYears(ctx, candidate.ID, *opts.Years)
			if err != nil {
				return nil, err
			}
			if !match {
				continue
			}
		}

		if state.admit(candidate, parent.ID, depth) {
			admitted = append(admitted, candidate)
		}
	}
	return admitted, nil
}
