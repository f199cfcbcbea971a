package services

import (
	"context"
	"slices"
	"testing"

	"github.com/desertthunder/earworm/internal/models"
	tu "github.com/desertthunder/earworm/internal/testing"
)

type countingStrategy struct {
	name  string
	url   string
	calls int
}

func (c *countingStrategy) strategy() Strategy {
	return Strategy{
		Name: c.name,
		Resolve: func(context.Context, models.TrackSummary, string) (string, bool) {
			c.calls++
			return c.url, c.url != ""
		},
	}
}

type resolutionCounter struct {
	results map[string][]bool
}

func (r *resolutionCounter) RecordResolution(strategy string, ok bool) {
	if r.results == nil {
		r.results = map[string][]bool{}
	}
	r.results[strategy] = append(r.results[strategy], ok)
}
func (r *resolutionCounter) RecordSelection(string, int) {}
func (r *resolutionCounter) RecordCache(string, bool) {}

func TestPreviewResolver(t *testing.T) {
	ctx := context.Background()
	track := models.TrackSummary{ID: "t1", Name: "Song"}

	t.Run("Stops At First Hit", func(t *testing.T) {
		for hit := range 4 {
			tiers := []*countingStrategy{{name: "one"}, {name: "two"}, {name: "three"}, {name: "four"}}
			tiers[hit].url = "https://p.scdn.co/mp3-preview/" + tiers[hit].name

			strategies := make([]Strategy, len(tiers))
			for i, tier := range tiers {
				strategies[i] = tier.strategy()
			}

			res, ok := NewPreviewResolver(strategies, nil, nil).Resolve(ctx, track, "token")
			if !ok || res.Strategy != tiers[hit].name || res.URL != tiers[hit].url {
				t.Errorf("hit at %d: unexpected resolution %+v", hit, res)
			}

			for i, tier := range tiers {
				want := 1
				if i > hit {
					want = 0
				}
				if tier.calls != want {
					t.Errorf("hit at %d: tier %s called %d times, want %d", hit, tier.name, tier.calls, want)
				}
			}
		}
	})

	t.Run("All Tiers Fail", func(t *testing.T) {
		tiers := []*countingStrategy{{name: "one"}, {name: "two"}}
		recorder := &resolutionCounter{}
		resolver := NewPreviewResolver([]Strategy{tiers[0].strategy(), tiers[1].strategy()}, nil, recorder)

		if _, ok := resolver.Resolve(ctx, track, "token"); ok {
			t.Error("expected no resolution")
		}
		if tiers[0].calls != 1 || tiers[1].calls != 1 {
			t.Error("expected every tier to run once")
		}
		if len(recorder.results["one"]) != 1 || recorder.results["one"][0] {
			t.Errorf("expected one recorded miss, got %v", recorder.results["one"])
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		tier := &countingStrategy{name: "one", url: "https://p.scdn.co/x"}
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		if _, ok := NewPreviewResolver([]Strategy{tier.strategy()}, nil, nil).Resolve(cctx, track, "token"); ok {
			t.Error("expected no resolution on a cancelled context")
		}
		if tier.calls != 0 {
			t.Error("expected no tier to run")
		}
	})

	t.Run("Embedded Strategy", func(t *testing.T) {
		s := EmbeddedStrategy()

		if _, ok := s.Resolve(ctx, track, ""); ok {
			t.Error("expected miss without preview")
		}

		withPreview := track
		withPreview.PreviewURL = "https://p.scdn.co/mp3-preview/e"
		if url, ok := s.Resolve(ctx, withPreview, ""); !ok || url != withPreview.PreviewURL {
			t.Errorf("expected embedded preview, got %q", url)
		}
	})

	t.Run("Default Chain", func(t *testing.T) {
		t.Run("Order", func(t *testing.T) {
			_, srv := newTestCatalog(t)
			finder, err := NewNameFinder(NameFinderOpts{Finder: NewSearchFinder(srv, 0)})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			got := NewPreviewResolver(DefaultStrategies(srv, finder), nil, nil).Strategies()
			want := []string{StrategyEmbedded, StrategyDetail, StrategyPageRegex, StrategyPageDOM, StrategyFinder}
			if !slices.Equal(got, want) {
				t.Errorf("expected %v, got %v", want, got)
			}
		})

		t.Run("Detail Tier", func(t *testing.T) {
			fake, srv := newTestCatalog(t)
			fake.Details["t1"] = "https://p.scdn.co/mp3-preview/detail"

			res, ok := NewPreviewResolver(DefaultStrategies(srv, nil), nil, nil).Resolve(ctx, track, "token")
			if !ok || res.Strategy != StrategyDetail {
				t.Errorf("expected detail resolution, got %+v", res)
			}
			if fake.Hits(tu.RoutePage) != 0 {
				t.Error("expected no page fetch after a detail hit")
			}
		})

		t.Run("Page Regex Tier", func(t *testing.T) {
			fake, srv := newTestCatalog(t)
			fake.Details["t1"] = ""
			fake.Pages["t1"] = `<script>{"preview_url":"https://p.scdn.co/mp3-preview/regex"}</script>`

			res, ok := NewPreviewResolver(DefaultStrategies(srv, nil), nil, nil).Resolve(ctx, track, "token")
			if !ok || res.Strategy != StrategyPageRegex || res.URL != "https://p.scdn.co/mp3-preview/regex" {
				t.Errorf("expected page-regex resolution, got %+v", res)
			}
		})

		t.Run("Page DOM Tier", func(t *testing.T) {
			fake, srv := newTestCatalog(t)
			fake.Pages["t1"] = `<meta property="og:audio" content="https://p.scdn.co/mp3-preview/dom">`

			res, ok := NewPreviewResolver(DefaultStrategies(srv, nil), nil, nil).Resolve(ctx, track, "token")
			if !ok || res.Strategy != StrategyPageDOM {
				t.Errorf("expected page-dom resolution, got %+v", res)
			}
			if fake.Hits(tu.RoutePage) != 1 {
				t.Errorf("expected the page tiers to share 1 fetch, got %d", fake.Hits(tu.RoutePage))
			}
		})

		t.Run("Page Fetched Once Per Resolution", func(t *testing.T) {
			fake, srv := newTestCatalog(t)
			fake.Details["t1"] = ""
			fake.Pages["t1"] = `<html><body>no preview here</body></html>`
			resolver := NewPreviewResolver(DefaultStrategies(srv, nil), nil, nil)

			if _, ok := resolver.Resolve(ctx, track, "token"); ok {
				t.Fatal("expected no resolution")
			}
			if fake.Hits(tu.RoutePage) != 1 {
				t.Errorf("expected 1 page fetch for both page tiers, got %d", fake.Hits(tu.RoutePage))
			}

			resolver.Resolve(ctx, track, "token")
			if fake.Hits(tu.RoutePage) != 2 {
				t.Errorf("expected a fresh fetch for the next resolution, got %d", fake.Hits(tu.RoutePage))
			}
		})

		t.Run("Failed Page Fetch Is Not Repeated", func(t *testing.T) {
			fake, srv := newTestCatalog(t)
			fake.Details["t1"] = ""

			if _, ok := NewPreviewResolver(DefaultStrategies(srv, nil), nil, nil).Resolve(ctx, track, "token"); ok {
				t.Fatal("expected no resolution")
			}
			if fake.Hits(tu.RoutePage) != 1 {
				t.Errorf("expected the 404 page to be fetched once, got %d", fake.Hits(tu.RoutePage))
			}
		})

		t.Run("Finder Tier", func(t *testing.T) {
			fake, srv := newTestCatalog(t)
			fake.Search["Song"] = []tu.FakeTrack{{ID: "other", Name: "Song", Preview: "https://p.scdn.co/mp3-preview/found"}}
			finder, _ := NewNameFinder(NameFinderOpts{Finder: NewSearchFinder(srv, 0)})

			res, ok := NewPreviewResolver(DefaultStrategies(srv, finder), nil, nil).Resolve(ctx, track, "token")
			if !ok || res.Strategy != StrategyFinder || res.URL != "https://p.scdn.co/mp3-preview/found" {
				t.Errorf("expected finder resolution, got %+v", res)
			}
		})
	})
}
