package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/earworm/internal/formatter"
	"github.com/desertthunder/earworm/internal/models"
	"github.com/desertthunder/earworm/internal/shared"
	"github.com/desertthunder/earworm/internal/ui"
	"github.com/urfave/cli/v3"
)

// Playlist prints playlist metadata, or writes the full track listing with --export.
func (r *Runner) Playlist(ctx context.Context, cmd *cli.Command) error {
	playlistID := r.playlistID(cmd)
	if playlistID == "" {
		return fmt.Errorf("%w: --playlist or game.default_playlist", shared.ErrMissingArgument)
	}

	if cmd.Bool("fresh") {
		r.playlists.Invalidate(playlistID)
	}

	if format := cmd.String("export"); format != "" {
		if cmd.String("server") != "" {
			return fmt.Errorf("%w: --export reads the catalog directly and cannot be combined with --server", shared.ErrInvalidInput)
		}
		return r.exportPlaylist(ctx, playlistID, format, cmd.String("output"))
	}

	var summary *models.PlaylistSummary
	var err error
	if remote := r.remote(cmd); remote != nil {
		summary, err = remote.Playlist(ctx, playlistID)
	} else {
		summary, err = r.selector.Playlist(ctx, playlistID, r.credentials())
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(summary, cmd.Bool("pretty"))
	}
	return r.writePlain("%s\n", ui.RenderPlaylist(summary))
}

func (r *Runner) exportPlaylist(ctx context.Context, playlistID, format, path string) error {
	creds := r.credentials()

	summary, err := r.selector.Playlist(ctx, playlistID, creds)
	if err != nil {
		return err
	}

	token, err := r.tokens.AccessToken(ctx, creds)
	if err != nil {
		return err
	}
	tracks, err := r.playlists.Tracks(ctx, playlistID, token)
	if err != nil {
		return err
	}

	export := &models.PlaylistExport{Playlist: *summary, Tracks: tracks}
	written, err := formatter.WriteExport(export, format, path)
	if err != nil {
		return err
	}

	r.logger.Info("exported playlist", "playlist", playlistID, "tracks", len(tracks), "path", written)
	return r.writePlain("%s", ui.Success(fmt.Sprintf("Exported %d tracks (%d playable) to %s", len(tracks), export.Playable(), written)))
}
