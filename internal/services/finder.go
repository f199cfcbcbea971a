package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/earworm/internal/models"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const (
	// DefaultFinderInterval is the minimum spacing between two external finder calls, process-wide.
	DefaultFinderInterval = 100 * time.Millisecond
	// DefaultFinderCacheSize bounds the name cache; large enough that it never evicts in practice.
	DefaultFinderCacheSize = 10000

	finderSearchLimit = 5
)

// NameFinder wraps a [PreviewFinder] with a track-name cache of positive results and a global call limiter.
type NameFinder struct {
	finder  PreviewFinder
	cache   *lru.Cache[string, string]
	limiter *rate.Limiter
	logger  *log.Logger
}

// NameFinderOpts configures a [NameFinder].
type NameFinderOpts struct {
	Finder    PreviewFinder
	Interval  time.Duration
	CacheSize int
	Logger    *log.Logger
}

// NewNameFinder creates a finder whose external calls are spaced at least Interval apart.
func NewNameFinder(opts NameFinderOpts) (*NameFinder, error) {
	if opts.Finder == nil {
		return nil, fmt.Errorf("name finder requires a preview finder")
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultFinderInterval
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultFinderCacheSize
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	cache, err := lru.New[string, string](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create finder cache: %w", err)
	}

	return &NameFinder{
		finder:  opts.Finder,
		cache:   cache,
		limiter: rate.NewLimiter(rate.Every(opts.Interval), 1),
		logger:  opts.Logger,
	}, nil
}

// Lookup returns a cached preview for the track's name, or waits for the limiter and asks the finder.
//
// Finder errors are logged and reported as a miss.
func (f *NameFinder) Lookup(ctx context.Context, track models.TrackSummary, token string) (string, bool) {
	if track.Name == "" {
		return "", false
	}
	if url, ok := f.cache.Get(track.Name); ok {
		return url, true
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return "", false
	}

	url, err := f.finder.FindPreview(ctx, track, token)
	if err != nil {
		f.logger.Warn("preview finder failed", "track", track.Name, "error", err)
		return "", false
	}
	if url == "" {
		return "", false
	}

	f.cache.Add(track.Name, url)
	return url, true
}

// Cached reports the cached preview for a track name.
func (f *NameFinder) Cached(name string) (string, bool) {
	return f.cache.Peek(name)
}

// SearchFinder finds previews by searching the catalog for a track name and probing the top results.
type SearchFinder struct {
	catalog *SpotifyService
	limit   int
}

// NewSearchFinder creates a finder that inspects up to limit search results.
func NewSearchFinder(catalog *SpotifyService, limit int) *SearchFinder {
	if limit <= 0 {
		limit = finderSearchLimit
	}
	return &SearchFinder{catalog: catalog, limit: limit}
}

// FindPreview searches by track name and returns the first result with a preview, checking listed URLs first and
// then each result's page.
func (f *SearchFinder) FindPreview(ctx context.Context, track models.TrackSummary, token string) (string, error) {
	results, err := f.catalog.SearchTracks(ctx, token, track.Name, f.limit)
	if err != nil {
		return "", err
	}

	for _, r := range results {
		if r.PreviewURL != nil && *r.PreviewURL != "" {
			return *r.PreviewURL, nil
		}
	}

	for _, r := range results {
		if r.ID == "" {
			continue
		}
		page, err := f.catalog.TrackPage(ctx, r.ID)
		if err != nil {
			continue
		}
		if url, ok := ExtractPreviewJSON(page); ok {
			return url, nil
		}
	}

	return "", nil
}
