package shared

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Upstream errors
	ErrUpstreamAuth  = fmt.Errorf("upstream authorization failed")
	ErrUpstreamFetch = fmt.Errorf("upstream request failed")

	// Game errors
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrEmptyPlaylist      = fmt.Errorf("playlist has no tracks")
	ErrNoPreviewAvailable = fmt.Errorf("no preview available")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)

// UpstreamKind tags which upstream exchange an [UpstreamError] came from.
type UpstreamKind int

const (
	KindFetch UpstreamKind = iota
	KindAuth
)

// UpstreamError is a non-success response from the catalog API or its token endpoint.
//
// The raw status and body are kept so the HTTP boundary can classify the failure without inspecting messages.
type UpstreamError struct {
	Op         string
	Kind       UpstreamKind
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	label := "catalog API error"
	if e.Kind == KindAuth {
		label = "token exchange failed"
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: status %d %s", e.Op, label, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: status %d %s", label, e.StatusCode, e.Body)
}

// Is matches [ErrUpstreamAuth] or [ErrUpstreamFetch] depending on Kind, and [ErrPlaylistNotFound] for 404s.
func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrUpstreamAuth:
		return e.Kind == KindAuth
	case ErrUpstreamFetch:
		return e.Kind == KindFetch
	case ErrPlaylistNotFound:
		return e.NotFound()
	}
	return false
}

// NotFound reports whether the upstream answered 404.
func (e *UpstreamError) NotFound() bool {
	return e.Kind == KindFetch && e.StatusCode == http.StatusNotFound
}

// NoPreviewError is returned once every selection attempt failed to resolve a preview.
type NoPreviewError struct {
	PlaylistID string
	Attempts   int
}

func (e *NoPreviewError) Error() string {
	return fmt.Sprintf("no preview available for playlist %s after %d attempts", e.PlaylistID, e.Attempts)
}

func (e *NoPreviewError) Is(target error) bool {
	return target == ErrNoPreviewAvailable
}

// IsNotFound classifies err as a "playlist not found" condition.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.NotFound()
	}
	return errors.Is(err, ErrPlaylistNotFound) || errors.Is(err, ErrEmptyPlaylist)
}
