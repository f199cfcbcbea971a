package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/earworm/internal/models"
	"github.com/desertthunder/earworm/internal/shared"
	tu "github.com/desertthunder/earworm/internal/testing"
)

type stubTokens struct {
	token string
	err   error
}

func (s stubTokens) AccessToken(context.Context, Credentials) (string, error) { return s.token, s.err }

type stubLister struct {
	tracks []models.TrackSummary
	err    error
}

func (s stubLister) Tracks(context.Context, string, string) ([]models.TrackSummary, error) {
	return s.tracks, s.err
}

type stubResolver struct {
	mu    sync.Mutex
	calls int
	fn    func(models.TrackSummary) (Resolution, bool)
}

func (s *stubResolver) Resolve(_ context.Context, track models.TrackSummary, _ string) (Resolution, bool) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.fn(track)
}

func always(url string) *stubResolver {
	return &stubResolver{fn: func(models.TrackSummary) (Resolution, bool) {
		return Resolution{URL: url, Strategy: "stub"}, url != ""
	}}
}

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestSelectionService(t *testing.T) {
	ctx := context.Background()
	creds := Credentials{ClientID: "id", ClientSecret: "secret"}
	three := []models.TrackSummary{
		{ID: "a", Name: "A", Artist: "X"},
		{ID: "b", Name: "B", Artist: "Y"},
		{ID: "c", Name: "C", Artist: "Z"},
	}

	newService := func(lister TrackLister, resolver Resolver) *SelectionService {
		return NewSelectionService(SelectionOpts{
			Tokens:    stubTokens{token: "token"},
			Playlists: lister,
			Resolver:  resolver,
			Rand:      seeded(),
		})
	}

	t.Run("Missing Playlist", func(t *testing.T) {
		svc := newService(stubLister{tracks: three}, always("u"))

		if _, err := svc.SelectTrack(ctx, "c1", "", creds); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Token Failure Propagates", func(t *testing.T) {
		tokenErr := &shared.UpstreamError{Kind: shared.KindAuth, StatusCode: 401}
		svc := NewSelectionService(SelectionOpts{
			Tokens:    stubTokens{err: tokenErr},
			Playlists: stubLister{tracks: three},
			Resolver:  always("u"),
		})

		if _, err := svc.SelectTrack(ctx, "c1", "p1", creds); !errors.Is(err, shared.ErrUpstreamAuth) {
			t.Errorf("expected auth error, got %v", err)
		}
	})

	t.Run("Playlist Failure Propagates", func(t *testing.T) {
		notFound := &shared.UpstreamError{Kind: shared.KindFetch, StatusCode: 404}
		resolver := always("u")
		svc := newService(stubLister{err: notFound}, resolver)

		_, err := svc.SelectTrack(ctx, "c1", "p1", creds)
		if !shared.IsNotFound(err) {
			t.Errorf("expected not found, got %v", err)
		}
		if resolver.calls != 0 {
			t.Error("expected no resolution attempts")
		}
	})

	t.Run("Empty Playlist", func(t *testing.T) {
		svc := newService(stubLister{}, always("u"))

		_, err := svc.SelectTrack(ctx, "c1", "p1", creds)
		if !errors.Is(err, shared.ErrEmptyPlaylist) {
			t.Errorf("expected ErrEmptyPlaylist, got %v", err)
		}
	})

	t.Run("Gives Up After Max Attempts", func(t *testing.T) {
		resolver := always("")
		svc := newService(stubLister{tracks: three}, resolver)

		_, err := svc.SelectTrack(ctx, "c1", "p1", creds)

		var noPreview *shared.NoPreviewError
		if !errors.As(err, &noPreview) {
			t.Fatalf("expected NoPreviewError, got %v", err)
		}
		if noPreview.Attempts != DefaultMaxAttempts || noPreview.PlaylistID != "p1" {
			t.Errorf("unexpected error %+v", noPreview)
		}
		if !errors.Is(err, shared.ErrNoPreviewAvailable) {
			t.Error("expected error to match ErrNoPreviewAvailable")
		}
		if resolver.calls != DefaultMaxAttempts {
			t.Errorf("expected %d attempts, got %d", DefaultMaxAttempts, resolver.calls)
		}
		if heard := svc.History().Heard("c1"); len(heard) != 0 {
			t.Errorf("expected nothing heard, got %v", heard)
		}
	})

	t.Run("Retries Until A Track Resolves", func(t *testing.T) {
		resolver := &stubResolver{fn: func(track models.TrackSummary) (Resolution, bool) {
			if track.ID == "b" {
				return Resolution{URL: "https://p.scdn.co/b", Strategy: "stub"}, true
			}
			return Resolution{}, false
		}}
		svc := NewSelectionService(SelectionOpts{
			Tokens:      stubTokens{token: "token"},
			Playlists:   stubLister{tracks: three},
			Resolver:    resolver,
			MaxAttempts: 100,
			Rand:        seeded(),
		})

		result, err := svc.SelectTrack(ctx, "c1", "p1", creds)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.TrackID != "b" {
			t.Errorf("expected b, got %s", result.TrackID)
		}
		if heard := svc.History().Heard("c1"); len(heard) != 1 || heard[0] != "b" {
			t.Errorf("expected only b heard, got %v", heard)
		}
	})

	t.Run("Deadline During Resolution Marks Nothing", func(t *testing.T) {
		reqCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		resolver := &stubResolver{fn: func(models.TrackSummary) (Resolution, bool) {
			cancel()
			return Resolution{URL: "https://p.scdn.co/late", Strategy: "stub"}, true
		}}
		svc := newService(stubLister{tracks: three}, resolver)

		result, err := svc.SelectTrack(reqCtx, "c1", "p1", creds)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v (%+v)", err, result)
		}
		if heard := svc.History().Heard("c1"); len(heard) != 0 {
			t.Errorf("expected nothing heard for an undelivered round, got %v", heard)
		}
	})

	t.Run("Result Fields", func(t *testing.T) {
		svc := newService(stubLister{tracks: three}, always("https://p.scdn.co/x"))

		result, err := svc.SelectTrack(ctx, "c1", "p1", creds)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var picked models.TrackSummary
		for _, track := range three {
			if track.ID == result.TrackID {
				picked = track
			}
		}
		if picked.ID == "" {
			t.Fatalf("picked unknown track %s", result.TrackID)
		}
		if result.Name != picked.Name || result.Artist != picked.Artist {
			t.Errorf("expected %s by %s, got %s by %s", picked.Name, picked.Artist, result.Name, result.Artist)
		}
		if result.PreviewURL != "https://p.scdn.co/x" || result.Strategy != "stub" {
			t.Errorf("unexpected preview %+v", result)
		}
		if len(result.AllTracks) != 3 {
			t.Errorf("expected every playlist track, got %d", len(result.AllTracks))
		}
		if !strings.Contains(result.EmbedHTML, "open.spotify.com/embed/track/"+picked.ID) {
			t.Errorf("expected embed for %s, got %s", picked.ID, result.EmbedHTML)
		}
	})

	t.Run("No Repeats Before Exhaustion", func(t *testing.T) {
		svc := newService(stubLister{tracks: three}, always("https://p.scdn.co/x"))

		seen := map[string]bool{}
		for range 3 {
			result, err := svc.SelectTrack(ctx, "c1", "p1", creds)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if seen[result.TrackID] {
				t.Fatalf("track %s repeated before the playlist was exhausted", result.TrackID)
			}
			seen[result.TrackID] = true
		}

		result, err := svc.SelectTrack(ctx, "c1", "p1", creds)
		if err != nil {
			t.Fatalf("expected no error after reset, got %v", err)
		}
		if heard := svc.History().Heard("c1"); len(heard) != 1 || heard[0] != result.TrackID {
			t.Errorf("expected history restarted with %s, got %v", result.TrackID, heard)
		}
	})

	t.Run("Anonymous Client", func(t *testing.T) {
		svc := newService(stubLister{tracks: three}, always("https://p.scdn.co/x"))

		result, err := svc.SelectTrack(ctx, "", "p1", creds)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if heard := svc.History().Heard(shared.AnonymousClient); len(heard) != 1 || heard[0] != result.TrackID {
			t.Errorf("expected anonymous history, got %v", heard)
		}
	})

	t.Run("Playlist Metadata", func(t *testing.T) {
		fake, srv := newTestCatalog(t)
		fake.Meta["p1"] = map[string]any{"id": "p1", "name": "Hits"}
		svc := NewSelectionService(SelectionOpts{Tokens: stubTokens{token: "token"}, Describer: srv})

		summary, err := svc.Playlist(ctx, "p1", creds)
		if err != nil || summary.Name != "Hits" {
			t.Errorf("expected Hits, got %+v (%v)", summary, err)
		}

		if _, err := svc.Playlist(ctx, "missing", creds); !shared.IsNotFound(err) {
			t.Errorf("expected not found, got %v", err)
		}
	})

	t.Run("End To End", func(t *testing.T) {
		fake := tu.NewFakeCatalog(t)
		fake.Playlists["p1"] = [][]tu.FakeTrack{
			{{ID: "t1", Name: "One", Preview: "https://p.scdn.co/mp3-preview/1"}, {ID: "t2", Name: "Two"}},
			{{ID: "t3", Name: "Three"}, {ID: "t1", Name: "One"}},
		}
		fake.Details["t2"] = "https://p.scdn.co/mp3-preview/2"
		fake.Pages["t3"] = `<meta property="og:audio" content="https://p.scdn.co/mp3-preview/3">`

		catalog := NewSpotifyService(SpotifyOpts{APIURL: fake.APIURL(), WebURL: fake.WebURL()})
		svc := NewSelectionService(SelectionOpts{
			Tokens:    NewTokenCache(TokenCacheOpts{TokenURL: fake.TokenURL()}),
			Playlists: NewPlaylistCache(PlaylistCacheOpts{Source: catalog}),
			Resolver:  NewPreviewResolver(DefaultStrategies(catalog, nil), nil, nil),
			Rand:      seeded(),
		})

		seen := map[string]string{}
		for range 3 {
			result, err := svc.SelectTrack(ctx, "c1", "p1", Credentials{ClientID: fake.ClientID, ClientSecret: fake.ClientSecret})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			seen[result.TrackID] = result.Strategy
			if len(result.AllTracks) != 3 {
				t.Errorf("expected 3 deduplicated tracks, got %d", len(result.AllTracks))
			}
		}

		want := map[string]string{"t1": StrategyEmbedded, "t2": StrategyDetail, "t3": StrategyPageDOM}
		for id, strategy := range want {
			if seen[id] != strategy {
				t.Errorf("track %s: expected strategy %s, got %q", id, strategy, seen[id])
			}
		}

		if fake.Hits(tu.RouteToken) != 1 {
			t.Errorf("expected 1 token exchange, got %d", fake.Hits(tu.RouteToken))
		}
		if fake.Hits(tu.RouteTracks) != 2 {
			t.Errorf("expected playlist fetched once (2 pages), got %d requests", fake.Hits(tu.RouteTracks))
		}
	})
}

func TestEmbedHTML(t *testing.T) {
	got := EmbedHTML("abc123")

	for _, want := range []string{
		`src="https://open.spotify.com/embed/track/abc123?utm_source=generator"`,
		`width="100%"`,
		`height="152"`,
		`loading="lazy"`,
		`allow="autoplay; clipboard-write; encrypted-media; fullscreen; picture-in-picture"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %s in %s", want, got)
		}
	}

	if escaped := EmbedHTML(`x"><script>`); strings.Contains(escaped, "<script>") {
		t.Errorf("expected id to be escaped, got %s", escaped)
	}
}
