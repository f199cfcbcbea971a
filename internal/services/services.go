package services

import (
	"context"

	"github.com/desertthunder/earworm/internal/models"
)

// Credentials is the client-credentials pair used to obtain catalog tokens.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// TokenSource hands out a valid bearer token for the catalog API.
type TokenSource interface {
	AccessToken(ctx context.Context, creds Credentials) (string, error)
}

// PlaylistSource lists every track of a playlist, across all pages.
type PlaylistSource interface {
	PlaylistTracks(ctx context.Context, token, playlistID string) ([]models.TrackSummary, error)
}

// TrackLister returns the (possibly cached) deduplicated tracks of a playlist.
type TrackLister interface {
	Tracks(ctx context.Context, playlistID, token string) ([]models.TrackSummary, error)
}

// PlaylistDescriber returns playlist metadata.
type PlaylistDescriber interface {
	PlaylistSummary(ctx context.Context, token, playlistID string) (*models.PlaylistSummary, error)
}

// TrackDetailer fetches the single-track detail record.
type TrackDetailer interface {
	Track(ctx context.Context, token, trackID string) (*SpotifyTrack, error)
}

// PageFetcher fetches the public HTML page of a track.
type PageFetcher interface {
	TrackPage(ctx context.Context, trackID string) ([]byte, error)
}

// PreviewFinder locates a preview from a track's name when every catalog-backed tier failed.
type PreviewFinder interface {
	FindPreview(ctx context.Context, track models.TrackSummary, token string) (string, error)
}

// Resolver turns a track into a playable preview URL.
type Resolver interface {
	Resolve(ctx context.Context, track models.TrackSummary, token string) (Resolution, bool)
}

// Recorder receives operational counters. The server package backs it with Prometheus.
type Recorder interface {
	RecordResolution(strategy string, ok bool)
	RecordSelection(outcome string, attempts int)
	RecordCache(cache string, hit bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordResolution(string, bool) {}
func (nopRecorder) RecordSelection(string, int) {}
func (nopRecorder) RecordCache(string, bool) {}

var (
	_ TokenSource       = (*TokenCache)(nil)
	_ PlaylistSource    = (*SpotifyService)(nil)
	_ TrackLister       = (*PlaylistCache)(nil)
	_ PlaylistDescriber = (*SpotifyService)(nil)
	_ TrackDetailer     = (*SpotifyService)(nil)
	_ PageFetcher       = (*SpotifyService)(nil)
	_ PreviewFinder     = (*SearchFinder)(nil)
	_ Resolver          = (*PreviewResolver)(nil)
)
