package services

import (
	"context"
	"sync"
	"time"

	"github.com/desertthunder/earworm/internal/models"
	"golang.org/x/sync/singleflight"
)

// DefaultPlaylistTTL is how long a playlist snapshot is served before it is refetched.
const DefaultPlaylistTTL = 5 * time.Minute

// PlaylistCache keeps one deduplicated track snapshot per playlist.
//
// Concurrent misses for the same playlist share one upstream fetch.
type PlaylistCache struct {
	source   PlaylistSource
	ttl      time.Duration
	now      func() time.Time
	recorder Recorder

	mu      sync.RWMutex
	entries map[string]*models.PlaylistCacheEntry
	group   singleflight.Group
}

// PlaylistCacheOpts configures a [PlaylistCache].
type PlaylistCacheOpts struct {
	Source   PlaylistSource
	TTL      time.Duration
	Now      func() time.Time
	Recorder Recorder
}

// NewPlaylistCache creates an empty cache in front of source.
func NewPlaylistCache(opts PlaylistCacheOpts) *PlaylistCache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultPlaylistTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	return &PlaylistCache{
		source:   opts.Source,
		ttl:      opts.TTL,
		now:      opts.Now,
		recorder: opts.Recorder,
		entries:  make(map[string]*models.PlaylistCacheEntry),
	}
}

// Tracks returns the cached snapshot for playlistID, rebuilding it from the source once stale.
//
// The returned slice is shared with the cache and must not be modified.
func (c *PlaylistCache) Tracks(ctx context.Context, playlistID, token string) ([]models.TrackSummary, error) {
	if tracks, ok := c.lookup(playlistID); ok {
		c.recorder.RecordCache("playlist", true)
		return tracks, nil
	}
	c.recorder.RecordCache("playlist", false)

	// The shared fetch outlives any single caller; each caller stops waiting when its own ctx ends.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(playlistID, func() (any, error) {
		if tracks, ok := c.lookup(playlistID); ok {
			return tracks, nil
		}

		raw, err := c.source.PlaylistTracks(fetchCtx, token, playlistID)
		if err != nil {
			return nil, err
		}

		entry := &models.PlaylistCacheEntry{
			Tracks:    models.DedupTracks(raw),
			ExpiresAt: c.now().Add(c.ttl),
		}

		c.mu.Lock()
		c.entries[playlistID] = entry
		c.mu.Unlock()

		return entry.Tracks, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]models.TrackSummary), nil
	}
}

func (c *PlaylistCache) lookup(playlistID string) ([]models.TrackSummary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[playlistID]
	if !ok || entry.Stale(c.now()) {
		return nil, false
	}
	return entry.Tracks, true
}

// Invalidate drops the snapshot for playlistID so the next call refetches it.
func (c *PlaylistCache) Invalidate(playlistID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, playlistID)
}

// Len returns the number of cached playlists, stale ones included.
func (c *PlaylistCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
