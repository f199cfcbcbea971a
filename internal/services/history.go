package services

import (
	"sort"
	"sync"

	"github.com/desertthunder/earworm/internal/models"
)

// History tracks which track ids each client has already been served.
type History struct {
	mu    sync.Mutex
	heard map[string]map[string]struct{}
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{heard: make(map[string]map[string]struct{})}
}

// FilterUnheard returns the tracks clientID has not heard yet.
//
// When every track has been heard, the client's history is cleared and the full list is returned with reset set.
func (h *History) FilterUnheard(clientID string, tracks []models.TrackSummary) ([]models.TrackSummary, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	heard := h.heard[clientID]
	unheard := make([]models.TrackSummary, 0, len(tracks))
	for _, t := range tracks {
		if _, ok := heard[t.ID]; !ok {
			unheard = append(unheard, t)
		}
	}

	if len(unheard) > 0 {
		return unheard, false
	}

	delete(h.heard, clientID)
	return tracks, true
}

// MarkHeard records trackID as served to clientID.
func (h *History) MarkHeard(clientID, trackID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	heard, ok := h.heard[clientID]
	if !ok {
		heard = make(map[string]struct{})
		h.heard[clientID] = heard
	}
	heard[trackID] = struct{}{}
}

// Heard returns the sorted track ids served to clientID.
func (h *History) Heard(clientID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]string, 0, len(h.heard[clientID]))
	for id := range h.heard[clientID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clients returns the number of clients with a non-empty history.
func (h *History) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.heard)
}
