package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/earworm/internal/models"
	"github.com/desertthunder/earworm/internal/services"
	"github.com/desertthunder/earworm/internal/shared"
)

// Selector is the game backend the handlers call into. [services.SelectionService] implements it.
type Selector interface {
	SelectTrack(ctx context.Context, clientID, playlistID string, creds services.Credentials) (*models.SelectionResult, error)
	Playlist(ctx context.Context, playlistID string, creds services.Credentials) (*models.PlaylistSummary, error)
}

var _ Selector = (*services.SelectionService)(nil)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, msg string) error {
	return writeJSON(w, status, errorBody{Error: msg})
}

// respond writes v and logs a failed write; the status line is already gone by then.
func respond(logger *log.Logger, w http.ResponseWriter, status int, v any) {
	if err := writeJSON(w, status, v); err != nil {
		logger.Warn("response not delivered", "status", status, "error", err)
	}
}

// statusFor maps a backend error to its HTTP status: 404 for "playlist not found", 500 for everything else.
func statusFor(err error) int {
	if shared.IsNotFound(err) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// PlaylistHandler serves playlist metadata for the pre-game screen.
type PlaylistHandler struct {
	selector Selector
	creds    services.Credentials
	logger   *log.Logger
}

// NewPlaylistHandler creates a handler for GET /playlist.
func NewPlaylistHandler(selector Selector, creds services.Credentials, logger *log.Logger) *PlaylistHandler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &PlaylistHandler{selector: selector, creds: creds, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *PlaylistHandler) Routes() []string {
	return []string{"/playlist"}
}

func (h *PlaylistHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	playlistID := r.URL.Query().Get("playlistId")
	if playlistID == "" {
		respond(h.logger, w, http.StatusBadRequest, errorBody{Error: "Missing playlistId"})
		return
	}

	summary, err := h.selector.Playlist(r.Context(), playlistID, h.creds)
	if err != nil {
		status := statusFor(err)
		h.logger.Error("playlist lookup failed", "playlist", playlistID, "status", status, "error", err)

		msg := "Failed to fetch playlist"
		if status == http.StatusNotFound {
			msg = "Playlist not found"
		}
		respond(h.logger, w, status, errorBody{Error: msg})
		return
	}

	respond(h.logger, w, http.StatusOK, summary)
}

// TrackHandler serves one game round.
type TrackHandler struct {
	selector        Selector
	creds           services.Credentials
	defaultPlaylist string
	logger          *log.Logger
}

// NewTrackHandler creates a handler for GET /track. defaultPlaylist is used when the request names none.
func NewTrackHandler(selector Selector, creds services.Credentials, defaultPlaylist string, logger *log.Logger) *TrackHandler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &TrackHandler{selector: selector, creds: creds, defaultPlaylist: defaultPlaylist, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *TrackHandler) Routes() []string {
	return []string{"/track"}
}

func (h *TrackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	playlistID := query.Get("playlistId")
	if playlistID == "" {
		playlistID = h.defaultPlaylist
	}
	if playlistID == "" {
		respond(h.logger, w, http.StatusBadRequest, errorBody{Error: "Missing playlistId"})
		return
	}

	result, err := h.selector.SelectTrack(r.Context(), query.Get("clientId"), playlistID, h.creds)
	if err != nil {
		status := statusFor(err)
		h.logger.Error("track selection failed", "playlist", playlistID, "status", status, "error", err)

		msg := "Failed to fetch track"
		if status == http.StatusNotFound {
			msg = "Playlist not found"
		}
		respond(h.logger, w, status, errorBody{Error: msg})
		return
	}

	respond(h.logger, w, http.StatusOK, result)
}

// HealthHandler answers liveness checks.
type HealthHandler struct{}

// Routes returns the HTTP routes this handler serves.
func (HealthHandler) Routes() []string {
	return []string{"/health"}
}

func (HealthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	_ = writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
