package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/earworm/internal/shared"
	tu "github.com/desertthunder/earworm/internal/testing"
)

func newTestCatalog(t *testing.T) (*tu.FakeCatalog, *SpotifyService) {
	t.Helper()
	fake := tu.NewFakeCatalog(t)
	srv := NewSpotifyService(SpotifyOpts{APIURL: fake.APIURL(), WebURL: fake.WebURL()})
	return fake, srv
}

func TestSpotifyService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("Defaults", func(t *testing.T) {
			srv := NewSpotifyService(SpotifyOpts{})

			if srv.apiURL != spotifyBaseURL {
				t.Errorf("expected api url %s, got %s", spotifyBaseURL, srv.apiURL)
			}
			if srv.market != "US" {
				t.Errorf("expected market US, got %s", srv.market)
			}
			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
		})

		t.Run("Trims Trailing Slash", func(t *testing.T) {
			srv := NewSpotifyService(SpotifyOpts{APIURL: "http://example.com/v1/", WebURL: "http://example.com/"})

			if got := srv.TrackPageURL("abc"); got != "http://example.com/track/abc" {
				t.Errorf("unexpected track page url %s", got)
			}
		})
	})

	t.Run("PlaylistTracks", func(t *testing.T) {
		t.Run("Follows Next Cursor", func(t *testing.T) {
			fake, srv := newTestCatalog(t)
			fake.Playlists["p1"] = [][]tu.FakeTrack{
				{{ID: "a", Name: "A", Artists: []string{"X", "Y"}, Preview: "https://p.scdn.co/mp3-preview/a"}, {ID: "b", Name: "B"}},
				{{}, {ID: "c", Name: "C"}},
				{{ID: "a", Name: "A"}},
			}

			tracks, err := srv.PlaylistTracks(ctx, "token", "p1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if fake.Hits(tu.RouteTracks) != 3 {
				t.Errorf("expected 3 page requests, got %d", fake.Hits(tu.RouteTracks))
			}

			ids := make([]string, len(tracks))
			for i, track := range tracks {
				ids[i] = track.ID
			}
			if got := strings.Join(ids, ","); got != "a,b,c,a" {
				t.Errorf("expected a,b,c,a got %s", got)
			}

			if tracks[0].Artist != "X, Y" {
				t.Errorf("expected joined artists, got %q", tracks[0].Artist)
			}
			if tracks[0].PreviewURL != "https://p.scdn.co/mp3-preview/a" {
				t.Errorf("expected embedded preview, got %q", tracks[0].PreviewURL)
			}
			if tracks[1].PreviewURL != "" {
				t.Errorf("expected empty preview for null, got %q", tracks[1].PreviewURL)
			}
		})

		t.Run("Failed Page Discards Everything", func(t *testing.T) {
			fake, srv := newTestCatalog(t)
			fake.Playlists["p1"] = [][]tu.FakeTrack{{{ID: "a", Name: "A"}}, {{ID: "b", Name: "B"}}}
			fake.FailPage["p1"] = 1

			tracks, err := srv.PlaylistTracks(ctx, "token", "p1")
			if err == nil {
				t.Fatal("expected error for failed page")
			}
			if tracks != nil {
				t.Errorf("expected no tracks, got %v", tracks)
			}

			var upstream *shared.UpstreamError
			if !errors.As(err, &upstream) || upstream.StatusCode != http.StatusInternalServerError {
				t.Errorf("expected 500 upstream error, got %v", err)
			}
		})

		t.Run("Unknown Playlist Is Not Found", func(t *testing.T) {
			_, srv := newTestCatalog(t)

			_, err := srv.PlaylistTracks(ctx, "token", "missing")
			if !shared.IsNotFound(err) {
				t.Errorf("expected not found, got %v", err)
			}
			if !strings.Contains(err.Error(), "Resource not found") {
				t.Errorf("expected upstream body in error, got %v", err)
			}
		})

		t.Run("Sends Bearer Token", func(t *testing.T) {
			var auth string
			fake := tu.NewFakeCatalog(t)
			client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
				auth = r.Header.Get("Authorization")
				return http.DefaultTransport.RoundTrip(r)
			})}
			fake.Playlists["p1"] = [][]tu.FakeTrack{{{ID: "a", Name: "A"}}}

			srv := NewSpotifyService(SpotifyOpts{APIURL: fake.APIURL(), HTTPClient: client})
			if _, err := srv.PlaylistTracks(ctx, "secret-token", "p1"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if auth != "Bearer secret-token" {
				t.Errorf("expected bearer header, got %q", auth)
			}
		})
	})

	t.Run("PlaylistSummary", func(t *testing.T) {
		t.Run("Maps Metadata", func(t *testing.T) {
			fake, srv := newTestCatalog(t)
			fake.Meta["p1"] = map[string]any{
				"id":            "p1",
				"name":          "Hits",
				"owner":         map[string]any{"display_name": "dj"},
				"tracks":        map[string]any{"total": 42},
				"images":        []map[string]any{{"url": "https://i.scdn.co/image/1"}},
				"external_urls": map[string]any{"spotify": "https://open.spotify.com/playlist/p1"},
			}

			summary, err := srv.PlaylistSummary(ctx, "token", "p1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if summary.Name != "Hits" || summary.Owner != "dj" || summary.TotalTracks != 42 {
				t.Errorf("unexpected summary %+v", summary)
			}
			if summary.Image == nil || *summary.Image != "https://i.scdn.co/image/1" {
				t.Errorf("expected first image, got %v", summary.Image)
			}
		})

		t.Run("Missing Owner And Images", func(t *testing.T) {
			fake, srv := newTestCatalog(t)
			fake.Meta["p1"] = map[string]any{"id": "p1", "name": "Bare"}

			summary, err := srv.PlaylistSummary(ctx, "token", "p1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if summary.Owner != "Unknown" {
				t.Errorf("expected Unknown owner, got %s", summary.Owner)
			}
			if summary.Image != nil {
				t.Errorf("expected nil image, got %v", *summary.Image)
			}
		})
	})

	t.Run("Track", func(t *testing.T) {
		fake, srv := newTestCatalog(t)
		fake.Details["t1"] = "https://p.scdn.co/mp3-preview/t1"

		track, err := srv.Track(ctx, "token", "t1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if track.PreviewURL == nil || *track.PreviewURL != "https://p.scdn.co/mp3-preview/t1" {
			t.Errorf("unexpected preview %v", track.PreviewURL)
		}
	})

	t.Run("SearchTracks", func(t *testing.T) {
		t.Run("Empty Query", func(t *testing.T) {
			_, srv := newTestCatalog(t)

			if _, err := srv.SearchTracks(ctx, "token", "  ", 5); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})

		t.Run("Returns Items", func(t *testing.T) {
			fake, srv := newTestCatalog(t)
			fake.Search["Song"] = []tu.FakeTrack{{ID: "s1", Name: "Song"}, {ID: "s2", Name: "Song"}}

			results, err := srv.SearchTracks(ctx, "token", "Song", 50)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(results) != 2 {
				t.Errorf("expected 2 results, got %d", len(results))
			}
		})
	})

	t.Run("TrackPage", func(t *testing.T) {
		t.Run("Returns HTML", func(t *testing.T) {
			fake, srv := newTestCatalog(t)
			fake.Pages["t1"] = "<html>hello</html>"

			page, err := srv.TrackPage(ctx, "t1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if string(page) != "<html>hello</html>" {
				t.Errorf("unexpected page %q", page)
			}
		})

		t.Run("Missing Page", func(t *testing.T) {
			_, srv := newTestCatalog(t)

			if _, err := srv.TrackPage(ctx, "nope"); err == nil {
				t.Error("expected error for missing page")
			}
		})
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
