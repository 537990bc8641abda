// Package pipeline orchestrates one ranking run: gate check, query build,
// page-batch fetch, filtering, availability enrichment, scoring and
// truncation. It owns no I/O itself; the catalog is injected, and session
// state arrives as an explicit handle.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/gate"
	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/prefs"
	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/scoring"
	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/session"
	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/tmdb"
)

// Catalog is the slice of the TMDB client the pipeline depends on.
type Catalog interface {
	DiscoverPage(ctx context.Context, q tmdb.DiscoverQuery, page int) ([]tmdb.Item, int, error)
	FetchAvailability(ctx context.Context, mediaType tmdb.MediaType, id int) tmdb.Availability
	ProvidersByName(ctx context.Context) map[string]int
	TrendingMovies(ctx context.Context) ([]tmdb.Item, error)
}

// Recorder persists the outcome of a successful ranking run. Implementations
// must tolerate being called concurrently; failures are theirs to absorb.
type Recorder interface {
	RecordRun(sessionID, source string, results []Result)
}

// Config holds the pipeline tunables.
type Config struct {
	// PagesPerBatch is the discovery window of the canonical search flow.
	PagesPerBatch int
	// SweepPages bounds the broader premium sweep.
	SweepPages int
	// EnrichLimit caps availability-lookup fan-out per run.
	EnrichLimit int
	// MaxConcurrentEnrich bounds parallel availability lookups.
	MaxConcurrentEnrich int
	// FreeLimit and PremiumLimit are the tier result caps of the search
	// flow; SweepLimit caps the premium sweep.
	FreeLimit    int
	PremiumLimit int
	SweepLimit   int
	// SweepMinVotes is the rating-count floor applied to sweep queries.
	SweepMinVotes int
	// Cooldown is the free-tier search window.
	Cooldown time.Duration
}

// DefaultConfig mirrors the deployed clients' constants.
func DefaultConfig() Config {
	return Config{
		PagesPerBatch:       3,
		SweepPages:          5,
		EnrichLimit:         100,
		MaxConcurrentEnrich: 8,
		FreeLimit:           3,
		PremiumLimit:        10,
		SweepLimit:          60,
		SweepMinVotes:       50,
		Cooldown:            gate.DefaultCooldown,
	}
}

// Result is one ranked item handed to the presentation layer.
type Result struct {
	Item         tmdb.Item         `json:"item"`
	Availability tmdb.Availability `json:"providers"`
	MediaType    tmdb.MediaType    `json:"media_type"`
	Score        float64           `json:"score"`
}

// Outcome wraps a successful run.
type Outcome struct {
	Results []Result  `json:"results"`
	Gate    gate.Info `json:"gate"`
	Batch   int       `json:"batch"`
}

type cursor struct {
	prefsKey string
	batch    int
}

// Runner executes ranking runs. Load-more cursors live in Runner memory per
// session; changing any preference resets a session's window to the start.
type Runner struct {
	catalog   Catalog
	cfg       Config
	snapshots Recorder
	now       func() time.Time

	mu      sync.Mutex
	cursors map[string]cursor
}

// NewRunner creates a pipeline runner. snapshots may be nil.
func NewRunner(catalog Catalog, cfg Config, snapshots Recorder) *Runner {
	return &Runner{
		catalog:   catalog,
		cfg:       cfg,
		snapshots: snapshots,
		now:       time.Now,
		cursors:   make(map[string]cursor),
	}
}

// GateStatus reports the session's cooldown state. Paid-tier sessions are
// never locked.
func (r *Runner) GateStatus(ctx context.Context, sess *session.Store) gate.Info {
	if sess.Premium(ctx) {
		return gate.Info{}
	}
	return gate.Status(sess.LastSearch(ctx), r.now(), r.cfg.Cooldown)
}

// Search runs the canonical movie search flow for the session's current
// preferences. loadMore advances the page window instead of restarting it;
// it is a paid-tier feature.
func (r *Runner) Search(ctx context.Context, sess *session.Store, loadMore bool) (*Outcome, error) {
	premium := sess.Premium(ctx)

	// Gate check comes first: a locked free session must cause zero
	// network traffic.
	if !premium {
		if loadMore {
			return nil, ErrLoadMoreUnavailable
		}
		if info := gate.Status(sess.LastSearch(ctx), r.now(), r.cfg.Cooldown); info.Locked {
			return nil, &GateLockedError{Remaining: info.Remaining}
		}
	}

	p := sess.Preferences(ctx)
	p.SanitizeForTier(premium)

	query := r.buildQuery(ctx, p)
	batch := r.advanceCursor(sess.ID(), p.Key()+"|"+query.Key(), loadMore)

	pool, err := r.fetchBatch(ctx, query, batch)
	if err != nil {
		return nil, err
	}

	filtered := filterAnimation(pool, p.IncludeAnimation)

	if premium && p.HideWatched {
		watchedSet := sess.Watched(ctx)
		filtered = discard(filtered, func(it tmdb.Item) bool {
			return watchedSet.IsWatched(tmdb.MediaMovie, it.ID)
		})
	}

	if len(filtered) == 0 {
		return nil, &NoResultsError{Premium: premium}
	}

	availability := map[int]tmdb.Availability{}
	if p.OnlineOnly {
		// The online-only filter depends on enrichment output, so this
		// is the one flow that must enrich before scoring.
		availability = r.enrich(ctx, tmdb.MediaMovie, capPool(filtered, r.cfg.EnrichLimit))
		filtered = discard(capPool(filtered, r.cfg.EnrichLimit), func(it tmdb.Item) bool {
			return availability[it.ID].Empty()
		})
		if len(filtered) == 0 {
			return nil, &NoResultsError{Premium: premium}
		}
	}

	scored := make([]scoring.Scored, len(filtered))
	for i, it := range filtered {
		scored[i] = scoring.Scored{
			Item:         it,
			Availability: availability[it.ID],
			Score:        scoring.WeightedGenreMatch(it, p.Weights),
		}
	}

	limit := r.cfg.FreeLimit
	if premium {
		limit = r.cfg.PremiumLimit
	}
	ranked := scoring.Rank(scored, limit)

	if !p.OnlineOnly {
		// The weighted strategy never scores availability, so the
		// truncated list is enriched instead of the whole pool.
		final := make([]tmdb.Item, len(ranked))
		for i, s := range ranked {
			final[i] = s.Item
		}
		availability = r.enrich(ctx, tmdb.MediaMovie, final)
		for i := range ranked {
			ranked[i].Availability = availability[ranked[i].Item.ID]
		}
	}

	results := toResults(ranked, tmdb.MediaMovie)

	if !premium {
		sess.MarkSearchDone(ctx, r.now())
	}
	r.record(sess.ID(), "search", results)

	return &Outcome{
		Results: results,
		Gate:    r.GateStatus(ctx, sess),
		Batch:   batch,
	}, nil
}

// SweepRequest parameterizes the broad premium sweep.
type SweepRequest struct {
	MediaType tmdb.MediaType
	// PlatformIDs are provider IDs whose matches get the ranking bonus.
	// When empty, the session's platform names are resolved instead.
	PlatformIDs []int
}

// PremiumSweep fetches a wide multi-page pool for the session's top
// weighted genres, enriches it and ranks by normalized quality with the
// platform bonus. Paid tier only.
func (r *Runner) PremiumSweep(ctx context.Context, sess *session.Store, req SweepRequest) (*Outcome, error) {
	if !sess.Premium(ctx) {
		return nil, ErrPremiumRequired
	}

	mediaType := req.MediaType
	if mediaType == "" {
		mediaType = tmdb.MediaMovie
	}

	p := sess.Preferences(ctx)
	genreIDs := topWeightedGenres(p, mediaType, 4)

	platformIDs := req.PlatformIDs
	if len(platformIDs) == 0 {
		platformIDs = r.resolvePlatforms(ctx, p.Platforms)
	}

	query := tmdb.DiscoverQuery{
		MediaType:    mediaType,
		GenreIDs:     genreIDs,
		MinVoteCount: r.cfg.SweepMinVotes,
		RecentOnly:   true,
	}
	if !containsID(genreIDs, prefs.AnimationGenreID) {
		query.ExcludeGenreIDs = []int{prefs.AnimationGenreID}
	}

	var pool []tmdb.Item
	for page := 1; page <= r.cfg.SweepPages; page++ {
		items, totalPages, err := r.catalog.DiscoverPage(ctx, query, page)
		if err != nil {
			return nil, fmt.Errorf("sweep page %d: %w", page, err)
		}
		pool = append(pool, items...)
		if page >= totalPages || len(items) == 0 {
			break
		}
	}
	slog.Debug("sweep pool assembled", "media_type", mediaType, "items", len(pool))

	if len(pool) == 0 {
		return nil, &NoResultsError{Premium: true}
	}

	candidates := capPool(pool, r.cfg.EnrichLimit)
	availability := r.enrich(ctx, mediaType, candidates)

	scored := make([]scoring.Scored, len(candidates))
	for i, it := range candidates {
		scored[i] = scoring.Scored{
			Item:         it,
			Availability: availability[it.ID],
			Score:        scoring.NormalizedQuality(it, availability[it.ID], platformIDs),
		}
	}

	results := toResults(scoring.Rank(scored, r.cfg.SweepLimit), mediaType)
	r.record(sess.ID(), "sweep", results)

	return &Outcome{Results: results}, nil
}

// TopPicks returns the first trending movies of the week that clear a
// quality floor and are actually streamable in the region.
func (r *Runner) TopPicks(ctx context.Context) ([]Result, error) {
	trending, err := r.catalog.TrendingMovies(ctx)
	if err != nil {
		return nil, fmt.Errorf("trending: %w", err)
	}

	var picks []Result
	for _, it := range trending {
		if it.VoteAverage < 5.5 || it.VoteCount < 30 {
			continue
		}
		availability := r.catalog.FetchAvailability(ctx, tmdb.MediaMovie, it.ID)
		if availability.Empty() {
			continue
		}
		picks = append(picks, Result{
			Item:         it,
			Availability: availability,
			MediaType:    tmdb.MediaMovie,
		})
		if len(picks) >= 3 {
			break
		}
	}
	return picks, nil
}

// MarkWatched adds the item to the session's forever-watched set. The write
// is skipped when the item was already marked.
func (r *Runner) MarkWatched(ctx context.Context, sess *session.Store, mediaType tmdb.MediaType, id int) {
	set := sess.Watched(ctx)
	if set.Mark(mediaType, id) {
		sess.SaveWatched(ctx, set)
	}
}

// ToggleWatched flips the item's watched state and reports the new state.
func (r *Runner) ToggleWatched(ctx context.Context, sess *session.Store, mediaType tmdb.MediaType, id int) bool {
	set := sess.Watched(ctx)
	nowWatched := set.Toggle(mediaType, id)
	sess.SaveWatched(ctx, set)
	return nowWatched
}

// ---- internals ----

func (r *Runner) buildQuery(ctx context.Context, p prefs.Preferences) tmdb.DiscoverQuery {
	// The animation toggle narrows the query to animation itself; the
	// post-fetch filter then guarantees the pool matches the toggle even
	// when the catalog returns mixed-genre items.
	genreIDs := []int{prefs.AnimationGenreID}
	if !p.IncludeAnimation {
		genreIDs = p.SelectedGenreIDs()
	}

	query := tmdb.DiscoverQuery{
		MediaType:  tmdb.MediaMovie,
		GenreIDs:   genreIDs,
		OnlineOnly: p.OnlineOnly,
	}
	if p.OnlineOnly {
		query.ProviderIDs = r.resolvePlatforms(ctx, p.Platforms)
	}
	return query
}

func (r *Runner) resolvePlatforms(ctx context.Context, names []string) []int {
	if len(names) == 0 {
		return nil
	}
	directory := r.catalog.ProvidersByName(ctx)
	var ids []int
	for _, name := range names {
		if id, ok := directory[name]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func (r *Runner) advanceCursor(sessionID, key string, loadMore bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.cursors[sessionID]
	if !loadMore || !ok || cur.prefsKey != key {
		r.cursors[sessionID] = cursor{prefsKey: key}
		return 0
	}
	cur.batch++
	r.cursors[sessionID] = cur
	return cur.batch
}

// fetchBatch fetches one window of consecutive pages. Any page failure
// aborts the whole batch: partial pools are never ranked.
func (r *Runner) fetchBatch(ctx context.Context, query tmdb.DiscoverQuery, batch int) ([]tmdb.Item, error) {
	startPage := 1 + batch*r.cfg.PagesPerBatch
	endPage := startPage + r.cfg.PagesPerBatch - 1

	var pool []tmdb.Item
	for page := startPage; page <= endPage; page++ {
		items, totalPages, err := r.catalog.DiscoverPage(ctx, query, page)
		if err != nil {
			return nil, fmt.Errorf("discover page %d: %w", page, err)
		}
		pool = append(pool, items...)
		if totalPages > 0 && page >= totalPages {
			break
		}
	}
	return pool, nil
}

// enrich fetches availability for every candidate in parallel, bounded by
// MaxConcurrentEnrich. Lookups never fail; a slow item delays the batch but
// degrades to empty availability at worst.
func (r *Runner) enrich(ctx context.Context, mediaType tmdb.MediaType, items []tmdb.Item) map[int]tmdb.Availability {
	results := make([]tmdb.Availability, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.MaxConcurrentEnrich)
	for i, it := range items {
		g.Go(func() error {
			results[i] = r.catalog.FetchAvailability(gctx, mediaType, it.ID)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[int]tmdb.Availability, len(items))
	for i, it := range items {
		out[it.ID] = results[i]
	}
	return out
}

func (r *Runner) record(sessionID, source string, results []Result) {
	if r.snapshots == nil {
		return
	}
	go r.snapshots.RecordRun(sessionID, source, results)
}

func filterAnimation(items []tmdb.Item, includeAnimation bool) []tmdb.Item {
	return discard(items, func(it tmdb.Item) bool {
		return it.HasGenre(prefs.AnimationGenreID) != includeAnimation
	})
}

func discard(items []tmdb.Item, drop func(tmdb.Item) bool) []tmdb.Item {
	var out []tmdb.Item
	for _, it := range items {
		if !drop(it) {
			out = append(out, it)
		}
	}
	return out
}

func capPool(items []tmdb.Item, limit int) []tmdb.Item {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func toResults(ranked []scoring.Scored, mediaType tmdb.MediaType) []Result {
	out := make([]Result, len(ranked))
	for i, s := range ranked {
		out[i] = Result{
			Item:         s.Item,
			Availability: s.Availability,
			MediaType:    mediaType,
			Score:        s.Score,
		}
	}
	return out
}

func topWeightedGenres(p prefs.Preferences, mediaType tmdb.MediaType, limit int) []int {
	type weighted struct {
		id     int
		weight int
		order  int
	}
	var selected []weighted
	for i, g := range prefs.Genres {
		if w := p.Weights[g.MovieID]; w > 0 {
			selected = append(selected, weighted{id: g.MovieID, weight: w, order: i})
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].weight > selected[j].weight
	})
	if len(selected) > limit {
		selected = selected[:limit]
	}

	ids := make([]int, 0, len(selected))
	for _, s := range selected {
		ids = append(ids, prefs.GenreIDForMedia(s.id, mediaType))
	}
	return dedupeIDs(ids)
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func dedupeIDs(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	var out []int
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
