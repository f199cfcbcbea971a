package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/earworm/internal/models"
	"github.com/desertthunder/earworm/internal/shared"
)

func (p *Palette) row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, p.label.Render(label), value)
}

// RenderRound formats a selected round for the terminal.
//
// The answer is hidden unless reveal is set, so the preview can be played as a quiz.
func RenderRound(r *models.SelectionResult, reveal bool) string {
	return styles.Round(r, reveal)
}

// Round formats a selected round with p.
func (p *Palette) Round(r *models.SelectionResult, reveal bool) string {
	var b strings.Builder

	b.WriteString(p.title.Render("♪ Now playing"))
	b.WriteString("\n")
	b.WriteString(p.row("Preview", r.PreviewURL))
	b.WriteString("\n")

	if reveal {
		b.WriteString(p.row("Track", p.ok.Render(r.Name)))
		b.WriteString("\n")
		b.WriteString(p.row("Artist", r.Artist))
		b.WriteString("\n")
		b.WriteString(p.row("ID", r.TrackID))
		b.WriteString("\n")
	} else {
		b.WriteString(p.row("Track", p.help.Render("hidden, pass --reveal to show")))
		b.WriteString("\n")
	}

	if r.Strategy != "" {
		b.WriteString(p.row("Source", p.Tier(r.Strategy)))
		b.WriteString("\n")
	}

	b.WriteString(p.help.Render(fmt.Sprintf("%d tracks in this playlist", len(r.AllTracks))))
	b.WriteString("\n")
	return b.String()
}

// RenderPlaylist formats playlist metadata for the terminal.
func RenderPlaylist(s *models.PlaylistSummary) string {
	p := styles

	var b strings.Builder
	b.WriteString(p.title.Render(s.Name))
	b.WriteString("\n")
	b.WriteString(p.row("Owner", s.Owner))
	b.WriteString("\n")
	b.WriteString(p.row("Tracks", fmt.Sprintf("%d", s.TotalTracks)))
	b.WriteString("\n")
	if s.SpotifyURL != "" {
		b.WriteString(p.row("Link", s.SpotifyURL))
		b.WriteString("\n")
	}
	if s.Image != nil {
		b.WriteString(p.row("Cover", *s.Image))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderError formats err with a hint for the failures a user can fix.
func RenderError(err error) string {
	p := styles
	msg := p.err.Render("✗ " + err.Error())

	var hint string
	switch {
	case errors.Is(err, shared.ErrMissingCredentials):
		hint = "set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET, or run `earworm setup`"
	case errors.Is(err, shared.ErrUpstreamAuth):
		hint = "the catalog rejected the client credentials"
	case shared.IsNotFound(err):
		hint = "check the playlist id"
	case errors.Is(err, shared.ErrNoPreviewAvailable):
		hint = "try again, or pick another playlist"
	}

	if hint == "" {
		return msg + "\n"
	}
	return msg + "\n" + p.warn.Render(hint) + "\n"
}

// Success formats a one-line confirmation.
func Success(msg string) string {
	return styles.ok.Render("✓ "+msg) + "\n"
}
