package models

import (
	"time"
)

// AccessToken is a catalog API bearer credential.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

// Valid reports whether the token may still be handed out at now.
func (t *AccessToken) Valid(now time.Time) bool {
	return t != nil && t.Value != "" && now.Before(t.ExpiresAt)
}

// TrackSummary represents a single playlist track.
type TrackSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`               // performers joined with ", "
	PreviewURL string `json:"previewUrl,omitempty"` // empty when the listing carried no preview
}

// PlaylistCacheEntry is a deduplicated playlist snapshot.
type PlaylistCacheEntry struct {
	Tracks    []TrackSummary
	ExpiresAt time.Time
}

// Stale reports whether the entry must be rebuilt at now.
func (e *PlaylistCacheEntry) Stale(now time.Time) bool {
	return e == nil || !now.Before(e.ExpiresAt)
}

// PlaylistSummary is the playlist metadata returned by the /playlist endpoint.
type PlaylistSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Image       *string `json:"image"`
	Owner       string  `json:"owner"`
	TotalTracks int     `json:"totalTracks"`
	SpotifyURL  string  `json:"spotifyUrl,omitempty"`
}

// SelectionResult is one playable round.
type SelectionResult struct {
	PreviewURL string         `json:"previewUrl"`
	Name       string         `json:"name"`
	Artist     string         `json:"artist"`
	TrackID    string         `json:"trackId"`
	AllTracks  []TrackSummary `json:"allTracks"` // full playlist for autocomplete
	EmbedHTML  string         `json:"embedHtml"`
	Strategy   string         `json:"strategy,omitempty"` // resolver tier that produced PreviewURL
}

// DedupTracks drops tracks with an empty id and every repeat of an id, keeping first-seen order.
func DedupTracks(tracks []TrackSummary) []TrackSummary {
	seen := make(map[string]struct{}, len(tracks))
	out := make([]TrackSummary, 0, len(tracks))
	for _, t := range tracks {
		if t.ID == "" {
			continue
		}
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

// PlaylistExport pairs playlist metadata with its deduplicated tracks for file export.
type PlaylistExport struct {
	Playlist PlaylistSummary `json:"playlist"`
	Tracks   []TrackSummary  `json:"tracks"`
}

// Playable counts tracks whose listing already carried a preview URL.
func (e *PlaylistExport) Playable() int {
	n := 0
	for _, t := range e.Tracks {
		if t.PreviewURL != "" {
			n++
		}
	}
	return n
}
