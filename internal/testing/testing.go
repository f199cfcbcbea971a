// package testing contains shared testing utilities
package testing

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"
)

// FakeTrack is a catalog track served by [FakeCatalog].
type FakeTrack struct {
	ID      string
	Name    string
	Artists []string
	Preview string // empty renders as null
}

func (f FakeTrack) json() map[string]any {
	artists := make([]map[string]string, len(f.Artists))
	for i, a := range f.Artists {
		artists[i] = map[string]string{"name": a}
	}
	var preview any
	if f.Preview != "" {
		preview = f.Preview
	}
	return map[string]any{"id": f.ID, "name": f.Name, "artists": artists, "preview_url": preview}
}

// Route labels counted by [FakeCatalog.Hits].
const (
	RouteToken    = "token"
	RouteTracks   = "tracks"
	RoutePlaylist = "playlist"
	RouteDetail   = "detail"
	RouteSearch   = "search"
	RoutePage     = "page"
)

// FakeCatalog is an httptest double of the catalog API, its token endpoint and the public track pages.
//
// Configure the exported maps before issuing requests.
type FakeCatalog struct {
	Server *httptest.Server

	ClientID     string
	ClientSecret string
	TokenStatus  int // non-zero fails every token exchange with this status

	Playlists map[string][][]FakeTrack // playlist id → pages of items; a zero FakeTrack is a null item
	Meta      map[string]map[string]any
	FailPage  map[string]int    // playlist id → page index answered with 500
	Details   map[string]string // track id → detail preview_url
	Pages     map[string]string // track id → page HTML
	Search    map[string][]FakeTrack

	mu      sync.Mutex
	hits    map[string]int
	tokenNo int
}

// NewFakeCatalog starts a fake catalog and closes it when t finishes.
func NewFakeCatalog(t *testing.T) *FakeCatalog {
	t.Helper()

	f := &FakeCatalog{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Playlists:    map[string][][]FakeTrack{},
		Meta:         map[string]map[string]any{},
		FailPage:     map[string]int{},
		Details:      map[string]string{},
		Pages:        map[string]string{},
		Search:       map[string][]FakeTrack{},
		hits:         map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token", f.token)
	mux.HandleFunc("GET /v1/playlists/{id}/tracks", f.tracks)
	mux.HandleFunc("GET /v1/playlists/{id}", f.playlist)
	mux.HandleFunc("GET /v1/tracks/{id}", f.detail)
	mux.HandleFunc("GET /v1/search", f.search)
	mux.HandleFunc("GET /track/{id}", f.page)

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// APIURL is the catalog API base URL.
func (f *FakeCatalog) APIURL() string { return f.Server.URL + "/v1" }

// TokenURL is the token endpoint.
func (f *FakeCatalog) TokenURL() string { return f.Server.URL + "/api/token" }

// WebURL is the public page base URL.
func (f *FakeCatalog) WebURL() string { return f.Server.URL }

// Hits returns how many requests route received.
func (f *FakeCatalog) Hits(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[route]
}

func (f *FakeCatalog) hit(route string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits[route]++
}

func (f *FakeCatalog) token(w http.ResponseWriter, r *http.Request) {
	f.hit(RouteToken)

	if f.TokenStatus != 0 {
		http.Error(w, `{"error":"invalid_client"}`, f.TokenStatus)
		return
	}

	id, secret, ok := r.BasicAuth()
	if !ok || id != f.ClientID || secret != f.ClientSecret {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
		return
	}
	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
		http.Error(w, `{"error":"unsupported_grant_type"}`, http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.tokenNo++
	n := f.tokenNo
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": fmt.Sprintf("token-%d", n),
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func (f *FakeCatalog) tracks(w http.ResponseWriter, r *http.Request) {
	f.hit(RouteTracks)
	id := r.PathValue("id")

	pages, ok := f.Playlists[id]
	if !ok {
		notFound(w)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if fail, ok := f.FailPage[id]; ok && fail == page {
		http.Error(w, `{"error":{"status":500,"message":"boom"}}`, http.StatusInternalServerError)
		return
	}

	items := []map[string]any{}
	if page < len(pages) {
		for _, track := range pages[page] {
			if track.ID == "" {
				items = append(items, map[string]any{"track": nil})
				continue
			}
			items = append(items, map[string]any{"track": track.json()})
		}
	}

	var next any
	if page+1 < len(pages) {
		next = fmt.Sprintf("%s/v1/playlists/%s/tracks?page=%d", f.Server.URL, id, page+1)
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items, "next": next})
}

func (f *FakeCatalog) playlist(w http.ResponseWriter, r *http.Request) {
	f.hit(RoutePlaylist)
	meta, ok := f.Meta[r.PathValue("id")]
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (f *FakeCatalog) detail(w http.ResponseWriter, r *http.Request) {
	f.hit(RouteDetail)
	id := r.PathValue("id")
	preview, ok := f.Details[id]
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, FakeTrack{ID: id, Name: id, Preview: preview}.json())
}

func (f *FakeCatalog) search(w http.ResponseWriter, r *http.Request) {
	f.hit(RouteSearch)
	items := []map[string]any{}
	for _, track := range f.Search[r.URL.Query().Get("q")] {
		items = append(items, track.json())
	}
	writeJSON(w, http.StatusOK, map[string]any{"tracks": map[string]any{"items": items}})
}

func (f *FakeCatalog) page(w http.ResponseWriter, r *http.Request) {
	f.hit(RoutePage)
	page, ok := f.Pages[r.PathValue("id")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, page)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]any{"status": 404, "message": "Resource not found"}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
