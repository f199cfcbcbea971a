package services

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/earworm/internal/models"
	"github.com/desertthunder/earworm/internal/shared"
)

// DefaultMaxAttempts bounds how many random picks one selection tries before giving up.
const DefaultMaxAttempts = 5

// SelectionService picks a playable, not-yet-heard track for a client.
//
// It owns the token, playlist and history state, and is the only place that retries.
type SelectionService struct {
	tokens      TokenSource
	playlists   TrackLister
	describer   PlaylistDescriber
	resolver    Resolver
	history     *History
	maxAttempts int
	logger      *log.Logger
	recorder    Recorder

	rngMu sync.Mutex
	rng   *rand.Rand
}

// SelectionOpts contains the collaborators of a [SelectionService].
type SelectionOpts struct {
	Tokens      TokenSource
	Playlists   TrackLister
	Describer   PlaylistDescriber
	Resolver    Resolver
	History     *History
	MaxAttempts int
	Rand        *rand.Rand // seeded from the clock when nil
	Logger      *log.Logger
	Recorder    Recorder
}

// NewSelectionService creates a selection service from opts.
func NewSelectionService(opts SelectionOpts) *SelectionService {
	if opts.History == nil {
		opts.History = NewHistory()
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		opts.Rand = rand.New(rand.NewPCG(seed, seed>>1)) //nolint:gosec // track picks don't need crypto randomness
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}

	return &SelectionService{
		tokens:      opts.Tokens,
		playlists:   opts.Playlists,
		describer:   opts.Describer,
		resolver:    opts.Resolver,
		history:     opts.History,
		maxAttempts: opts.MaxAttempts,
		logger:      opts.Logger,
		recorder:    opts.Recorder,
		rng:         opts.Rand,
	}
}

// History exposes the per-client history owned by the service.
func (s *SelectionService) History() *History {
	return s.history
}

// SelectTrack returns a round for clientID drawn from playlistID.
//
// Token and playlist failures propagate immediately. Picks are drawn from the tracks the client has not heard; up to
// maxAttempts picks are tried before failing with [shared.NoPreviewError]. A track is only marked heard once its preview
// resolved.
func (s *SelectionService) SelectTrack(ctx context.Context, clientID, playlistID string, creds Credentials) (*models.SelectionResult, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}
	if clientID == "" {
		clientID = shared.AnonymousClient
	}

	token, err := s.tokens.AccessToken(ctx, creds)
	if err != nil {
		s.recorder.RecordSelection("token_error", 0)
		return nil, err
	}

	tracks, err := s.playlists.Tracks(ctx, playlistID, token)
	if err != nil {
		s.recorder.RecordSelection("playlist_error", 0)
		return nil, err
	}
	if len(tracks) == 0 {
		s.recorder.RecordSelection("empty_playlist", 0)
		return nil, fmt.Errorf("%w: %s", shared.ErrEmptyPlaylist, playlistID)
	}

	candidates, reset := s.history.FilterUnheard(clientID, tracks)
	if reset {
		s.logger.Info("client heard every track, history reset", "client", clientID, "playlist", playlistID)
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			s.recorder.RecordSelection("cancelled", attempt-1)
			return nil, err
		}

		track := candidates[s.intn(len(candidates))]
		resolution, ok := s.resolver.Resolve(ctx, track, token)
		if !ok {
			s.logger.Debug("attempt failed", "attempt", attempt, "track", track.ID, "name", track.Name)
			continue
		}

		// a round the caller will never receive must not count as heard
		if err := ctx.Err(); err != nil {
			s.recorder.RecordSelection("cancelled", attempt)
			return nil, err
		}

		s.history.MarkHeard(clientID, track.ID)
		s.recorder.RecordSelection("ok", attempt)
		s.logger.Info("track selected", "client", clientID, "playlist", playlistID, "track", track.ID,
			"strategy", resolution.Strategy, "attempt", attempt)

		return &models.SelectionResult{
			PreviewURL: resolution.URL,
			Name:       track.Name,
			Artist:     track.Artist,
			TrackID:    track.ID,
			AllTracks:  tracks,
			EmbedHTML:  EmbedHTML(track.ID),
			Strategy:   resolution.Strategy,
		}, nil
	}

	s.recorder.RecordSelection("no_preview", s.maxAttempts)
	return nil, &shared.NoPreviewError{PlaylistID: playlistID, Attempts: s.maxAttempts}
}

// Playlist returns playlist metadata for the pre-game screen.
func (s *SelectionService) Playlist(ctx context.Context, playlistID string, creds Credentials) (*models.PlaylistSummary, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}
	if s.describer == nil {
		return nil, fmt.Errorf("playlist metadata: %w", shared.ErrNotImplemented)
	}

	token, err := s.tokens.AccessToken(ctx, creds)
	if err != nil {
		return nil, err
	}
	return s.describer.PlaylistSummary(ctx, token, playlistID)
}

func (s *SelectionService) intn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.IntN(n)
}
