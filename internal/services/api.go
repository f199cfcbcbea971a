// API client for a running earworm server
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/earworm/internal/models"
	"github.com/desertthunder/earworm/internal/shared"
)

// DefaultServerURL is where `earworm serve` listens by default.
const DefaultServerURL = "http://127.0.0.1:3000"

// APIService provides methods for calling the /track, /playlist and /health endpoints of an earworm server.
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a new API client for the server at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = DefaultServerURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// Track asks the server for a round. Empty arguments are omitted so the server applies its defaults.
func (a *APIService) Track(ctx context.Context, clientID, playlistID string) (*models.SelectionResult, error) {
	params := url.Values{}
	if playlistID != "" {
		params.Set("playlistId", playlistID)
	}
	if clientID != "" {
		params.Set("clientId", clientID)
	}

	path := "/track"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var result models.SelectionResult
	if err := a.getJSON(ctx, "track", path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Playlist asks the server for playlist metadata.
func (a *APIService) Playlist(ctx context.Context, playlistID string) (*models.PlaylistSummary, error) {
	path := "/playlist?" + url.Values{"playlistId": {playlistID}}.Encode()

	var summary models.PlaylistSummary
	if err := a.getJSON(ctx, "playlist", path, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Health reports whether the server answers its liveness check.
func (a *APIService) Health(ctx context.Context) error {
	return a.getJSON(ctx, "health", "/health", nil)
}

func (a *APIService) getJSON(ctx context.Context, op, path string, result any) error {
	resp, err := a.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &shared.UpstreamError{Op: op, Kind: shared.KindFetch, StatusCode: resp.StatusCode, Body: errorMessage(resp)}
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, result); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

// errorMessage extracts the {"error": "..."} message the server writes, falling back to the raw body.
func errorMessage(resp *APIResponse) string {
	if m, ok := resp.JSONData.(map[string]any); ok {
		if msg, ok := m["error"].(string); ok {
			return msg
		}
	}
	return strings.TrimSpace(string(resp.Body))
}
