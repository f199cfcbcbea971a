package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/earworm/internal/models"
	"github.com/desertthunder/earworm/internal/shared"
	"github.com/desertthunder/earworm/internal/ui"
	"github.com/urfave/cli/v3"
)

// Pick selects one or more rounds for a single client, so repeated rounds never replay a track.
func (r *Runner) Pick(ctx context.Context, cmd *cli.Command) error {
	playlistID := r.playlistID(cmd)
	if playlistID == "" {
		return fmt.Errorf("%w: --playlist or game.default_playlist", shared.ErrMissingArgument)
	}

	count := cmd.Int("count")
	if count <= 0 {
		return fmt.Errorf("%w: --count must be positive", shared.ErrInvalidInput)
	}

	clientID := cmd.String("client")
	if clientID == "" {
		clientID = shared.GenerateID()
	}

	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")
	remote := r.remote(cmd)
	if cmd.Bool("fresh") {
		r.playlists.Invalidate(playlistID)
	}

	for round := 1; round <= count; round++ {
		var result *models.SelectionResult
		var err error

		if remote != nil {
			result, err = remote.Track(ctx, clientID, playlistID)
		} else {
			result, err = r.selector.SelectTrack(ctx, clientID, playlistID, r.credentials())
		}
		if err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}

		r.logger.Debug("picked track", "round", round, "track", result.TrackID, "strategy", result.Strategy)

		if useJSON {
			if err := r.writeJSON(result, pretty); err != nil {
				return err
			}
		} else {
			if count > 1 {
				if err := r.writePlain("Round %d/%d\n", round, count); err != nil {
					return err
				}
			}
			if err := r.writePlain("%s\n", ui.RenderRound(result, cmd.Bool("reveal"))); err != nil {
				return err
			}
		}

		if cmd.Bool("open") {
			if err := shared.OpenBrowser(r.catalog.TrackPageURL(result.TrackID)); err != nil {
				r.logger.Warn("failed to open browser", "error", err)
			}
		}
	}

	return nil
}
