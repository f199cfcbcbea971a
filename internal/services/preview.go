package services

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/earworm/internal/models"
)

// Strategy names, in default resolution order.
const (
	StrategyEmbedded  = "embedded"
	StrategyDetail    = "detail"
	StrategyPageRegex = "page-regex"
	StrategyPageDOM   = "page-dom"
	StrategyFinder    = "finder"
)

// Strategy is one tier of the preview fallback chain. Resolve reports false on any failure so the chain can move on.
type Strategy struct {
	Name    string
	Resolve func(ctx context.Context, track models.TrackSummary, token string) (string, bool)
}

// Resolution is a resolved preview and the tier that produced it.
type Resolution struct {
	URL      string
	Strategy string
}

// PreviewResolver runs its strategies in order and stops at the first one that yields a URL.
type PreviewResolver struct {
	strategies []Strategy
	logger     *log.Logger
	recorder   Recorder
}

// NewPreviewResolver creates a resolver over strategies. logger and recorder may be nil.
func NewPreviewResolver(strategies []Strategy, logger *log.Logger, recorder Recorder) *PreviewResolver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &PreviewResolver{strategies: strategies, logger: logger, recorder: recorder}
}

// Resolve returns the first preview URL any strategy finds for track. Later strategies are not invoked.
func (r *PreviewResolver) Resolve(ctx context.Context, track models.TrackSummary, token string) (Resolution, bool) {
	ctx = withPageMemo(ctx)
	for _, s := range r.strategies {
		if ctx.Err() != nil {
			return Resolution{}, false
		}

		url, ok := s.Resolve(ctx, track, token)
		r.recorder.RecordResolution(s.Name, ok && url != "")
		if ok && url != "" {
			r.logger.Debug("preview resolved", "track", track.ID, "strategy", s.Name)
			return Resolution{URL: url, Strategy: s.Name}, true
		}
	}

	r.logger.Debug("no preview found", "track", track.ID, "name", track.Name)
	return Resolution{}, false
}

// Strategies lists the configured tier names in order.
func (r *PreviewResolver) Strategies() []string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name
	}
	return names
}

// EmbeddedStrategy uses the preview URL the playlist listing already carried.
func EmbeddedStrategy() Strategy {
	return Strategy{
		Name: StrategyEmbedded,
		Resolve: func(_ context.Context, track models.TrackSummary, _ string) (string, bool) {
			return track.PreviewURL, track.PreviewURL != ""
		},
	}
}

// DetailStrategy reads preview_url from the single-track endpoint.
func DetailStrategy(tracks TrackDetailer) Strategy {
	return Strategy{
		Name: StrategyDetail,
		Resolve: func(ctx context.Context, track models.TrackSummary, token string) (string, bool) {
			detail, err := tracks.Track(ctx, token, track.ID)
			if err != nil || detail.PreviewURL == nil || *detail.PreviewURL == "" {
				return "", false
			}
			return *detail.PreviewURL, true
		},
	}
}

// PageRegexStrategy scrapes the public track page for an inline preview_url JSON pair.
func PageRegexStrategy(pages PageFetcher) Strategy {
	return Strategy{
		Name: StrategyPageRegex,
		Resolve: func(ctx context.Context, track models.TrackSummary, _ string) (string, bool) {
			page, err := pages.TrackPage(ctx, track.ID)
			if err != nil {
				return "", false
			}
			return ExtractPreviewJSON(page)
		},
	}
}

// PageDOMStrategy parses the public track page and searches meta tags, JSON-LD and attributes.
func PageDOMStrategy(pages PageFetcher) Strategy {
	return Strategy{
		Name: StrategyPageDOM,
		Resolve: func(ctx context.Context, track models.TrackSummary, _ string) (string, bool) {
			page, err := pages.TrackPage(ctx, track.ID)
			if err != nil {
				return "", false
			}
			return ExtractPreviewDOM(page)
		},
	}
}

// FinderStrategy falls back to the rate-limited, name-keyed finder.
func FinderStrategy(finder *NameFinder) Strategy {
	return Strategy{
		Name:    StrategyFinder,
		Resolve: finder.Lookup,
	}
}

// DefaultStrategies builds the full chain against the catalog client: embedded, detail, page regex, page DOM, finder.
func DefaultStrategies(catalog *SpotifyService, finder *NameFinder) []Strategy {
	pages := memoPages{catalog}
	strategies := []Strategy{
		EmbeddedStrategy(),
		DetailStrategy(catalog),
		PageRegexStrategy(pages),
		PageDOMStrategy(pages),
	}
	if finder != nil {
		strategies = append(strategies, FinderStrategy(finder))
	}
	return strategies
}

type pageMemoKey struct{}

type pageResult struct {
	body []byte
	err  error
}

// pageMemo holds the track pages fetched during one [PreviewResolver.Resolve] call.
type pageMemo struct {
	mu    sync.Mutex
	pages map[string]pageResult
}

func withPageMemo(ctx context.Context) context.Context {
	if _, ok := ctx.Value(pageMemoKey{}).(*pageMemo); ok {
		return ctx
	}
	return context.WithValue(ctx, pageMemoKey{}, &pageMemo{pages: make(map[string]pageResult)})
}

// memoPages fetches each track page at most once per resolution, so the page tiers share one download.
// Outside a resolution it fetches directly.
type memoPages struct {
	PageFetcher
}

func (m memoPages) TrackPage(ctx context.Context, trackID string) ([]byte, error) {
	memo, ok := ctx.Value(pageMemoKey{}).(*pageMemo)
	if !ok {
		return m.PageFetcher.TrackPage(ctx, trackID)
	}

	memo.mu.Lock()
	defer memo.mu.Unlock()

	if res, ok := memo.pages[trackID]; ok {
		return res.body, res.err
	}
	body, err := m.PageFetcher.TrackPage(ctx, trackID)
	memo.pages[trackID] = pageResult{body: body, err: err}
	return body, err
}
