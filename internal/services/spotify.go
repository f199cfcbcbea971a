// Spotify Web API implementation of the catalog collaborators
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/earworm/internal/models"
	"github.com/desertthunder/earworm/internal/shared"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
	spotifyWebURL   = "https://open.spotify.com"

	playlistPageLimit  = 50
	playlistItemFields = "items(track(id,name,preview_url,artists(name))),next"
	maxErrorBody       = 4 << 10
	maxPageBody        = 4 << 20

	// pages are served differently to non-browser agents
	browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyArtist represents a (simplified) Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyTrack represents a Spotify track. PreviewURL is nil when the catalog has no preview.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	PreviewURL *string         `json:"preview_url"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// ArtistNames joins performer names with ", ".
func (t SpotifyTrack) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}

// Summary maps the track to [models.TrackSummary].
func (t SpotifyTrack) Summary() models.TrackSummary {
	summary := models.TrackSummary{ID: t.ID, Name: t.Name, Artist: t.ArtistNames()}
	if t.PreviewURL != nil {
		summary.PreviewURL = *t.PreviewURL
	}
	return summary
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTracks struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents playlist metadata without its items.
type SpotifyPlaylist struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Owner        *Owner         `json:"owner"`
	Tracks       playlistTracks `json:"tracks"`
	Images       []SpotifyImage `json:"images"`
	ExternalURLs externalURLs   `json:"external_urls"`
}

// Summary maps the playlist to [models.PlaylistSummary].
func (p SpotifyPlaylist) Summary() models.PlaylistSummary {
	summary := models.PlaylistSummary{
		ID:          p.ID,
		Name:        p.Name,
		Owner:       "Unknown",
		TotalTracks: p.Tracks.Total,
		SpotifyURL:  p.ExternalURLs.Spotify,
	}
	if len(p.Images) > 0 && p.Images[0].URL != "" {
		image := p.Images[0].URL
		summary.Image = &image
	}
	if p.Owner != nil && p.Owner.DisplayName != "" {
		summary.Owner = p.Owner.DisplayName
	}
	return summary
}

// SpotifyPlaylistItem is one playlist entry. Track is nil for removed or unavailable items.
type SpotifyPlaylistItem struct {
	Track *SpotifyTrack `json:"track"`
}

// SpotifyPlaylistTracksPage represents a page of the playlist tracks listing.
type SpotifyPlaylistTracksPage struct {
	Items []SpotifyPlaylistItem `json:"items"`
	Next  *string               `json:"next"`
}

type searchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

// SpotifyOpts configures a [SpotifyService].
type SpotifyOpts struct {
	APIURL     string
	WebURL     string
	Market     string
	HTTPClient *http.Client
	Logger     *log.Logger
}

// SpotifyService talks to the catalog API with a caller-supplied bearer token, and fetches public track pages.
type SpotifyService struct {
	apiURL     string
	webURL     string
	market     string
	httpClient *http.Client
	logger     *log.Logger
}

// NewSpotifyService creates a catalog client. Empty options fall back to the public Spotify endpoints.
func NewSpotifyService(opts SpotifyOpts) *SpotifyService {
	if opts.APIURL == "" {
		opts.APIURL = spotifyBaseURL
	}
	if opts.WebURL == "" {
		opts.WebURL = spotifyWebURL
	}
	if opts.Market == "" {
		opts.Market = "US"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &SpotifyService{
		apiURL:     strings.TrimRight(opts.APIURL, "/"),
		webURL:     strings.TrimRight(opts.WebURL, "/"),
		market:     opts.Market,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated GET against the catalog API and decodes the JSON body into result.
//
// endpoint is either a path below the API base URL or an absolute URL (pagination cursors).
func (s *SpotifyService) doRequest(ctx context.Context, op, token, endpoint string, result any) error {
	apiURL := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		apiURL = s.apiURL + endpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &shared.UpstreamError{Op: op, Kind: shared.KindFetch, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%s: failed to decode response: %w", op, err)
		}
	}

	return nil
}

// Playlist retrieves playlist metadata by ID.
func (s *SpotifyService) Playlist(ctx context.Context, token, playlistID string) (*SpotifyPlaylist, error) {
	endpoint := fmt.Sprintf("/playlists/%s?market=%s", url.PathEscape(playlistID), url.QueryEscape(s.market))

	var playlist SpotifyPlaylist
	if err := s.doRequest(ctx, "playlist", token, endpoint, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// PlaylistSummary retrieves playlist metadata mapped for the /playlist endpoint.
func (s *SpotifyService) PlaylistSummary(ctx context.Context, token, playlistID string) (*models.PlaylistSummary, error) {
	playlist, err := s.Playlist(ctx, token, playlistID)
	if err != nil {
		return nil, err
	}
	summary := playlist.Summary()
	return &summary, nil
}

// PlaylistTracks pages through every item of a playlist, following the next cursor until it is exhausted.
//
// Items without a track record are skipped. Duplicates are left for the caller to remove. Nothing is returned if any
// page fails.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, token, playlistID string) ([]models.TrackSummary, error) {
	params := url.Values{}
	params.Set("market", s.market)
	params.Set("fields", playlistItemFields)
	params.Set("limit", fmt.Sprintf("%d", playlistPageLimit))

	endpoint := fmt.Sprintf("/playlists/%s/tracks?%s", url.PathEscape(playlistID), params.Encode())

	var tracks []models.TrackSummary
	pages := 0
	for endpoint != "" {
		var page SpotifyPlaylistTracksPage
		if err := s.doRequest(ctx, "playlist tracks", token, endpoint, &page); err != nil {
			return nil, err
		}
		pages++

		for _, item := range page.Items {
			if item.Track == nil || item.Track.ID == "" {
				continue
			}
			tracks = append(tracks, item.Track.Summary())
		}

		endpoint = ""
		if page.Next != nil {
			endpoint = *page.Next
		}
	}

	s.logger.Debug("fetched playlist tracks", "playlist", playlistID, "pages", pages, "tracks", len(tracks))
	return tracks, nil
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, token, trackID string) (*SpotifyTrack, error) {
	endpoint := fmt.Sprintf("/tracks/%s?market=%s", url.PathEscape(trackID), url.QueryEscape(s.market))

	var track SpotifyTrack
	if err := s.doRequest(ctx, "track", token, endpoint, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// SearchTracks searches the catalog for tracks matching query.
func (s *SpotifyService) SearchTracks(ctx context.Context, token, query string, limit int) ([]SpotifyTrack, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", shared.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 1
	}
	if limit > 10 {
		limit = 10
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("market", s.market)
	params.Set("limit", fmt.Sprintf("%d", limit))

	var response searchResponse
	if err := s.doRequest(ctx, "search", token, "/search?"+params.Encode(), &response); err != nil {
		return nil, err
	}
	return response.Tracks.Items, nil
}

// TrackPageURL is the public page of a track.
func (s *SpotifyService) TrackPageURL(trackID string) string {
	return s.webURL + "/track/" + url.PathEscape(trackID)
}

// TrackPage fetches the public HTML page of a track. No token is needed.
func (s *SpotifyService) TrackPage(ctx context.Context, trackID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.TrackPageURL(trackID), nil)
	if err != nil {
		return nil, fmt.Errorf("track page: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("track page: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &shared.UpstreamError{Op: "track page", Kind: shared.KindFetch, StatusCode: resp.StatusCode, Body: string(body)}
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBody))
	if err != nil {
		return nil, fmt.Errorf("track page: failed to read response: %w", err)
	}
	return page, nil
}
