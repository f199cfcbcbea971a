package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/earworm/internal/models"
	"github.com/desertthunder/earworm/internal/shared"
	"github.com/desertthunder/earworm/internal/ui"
	"github.com/urfave/cli/v3"
)

type previewReport struct {
	Track      models.TrackSummary `json:"track"`
	PreviewURL string              `json:"previewUrl"`
	Strategy   string              `json:"strategy"`
}

// Preview looks a track up in the catalog and runs it through the resolver chain.
func (r *Runner) Preview(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.StringArg("id")
	if trackID == "" {
		return fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}

	token, err := r.tokens.AccessToken(ctx, r.credentials())
	if err != nil {
		return err
	}

	track, err := r.catalog.Track(ctx, token, trackID)
	if err != nil {
		return err
	}

	summary := track.Summary()
	res, ok := r.resolver.Resolve(ctx, summary, token)
	if !ok {
		return fmt.Errorf("%w: %s (tried %s)", shared.ErrNoPreviewAvailable, trackID,
			strings.Join(r.resolver.Strategies(), ", "))
	}

	if cmd.Bool("json") {
		return r.writeJSON(previewReport{Track: summary, PreviewURL: res.URL, Strategy: res.Strategy}, cmd.Bool("pretty"))
	}

	return r.writePlain("%s  Preview:  %s\n  Strategy: %s\n",
		ui.Success(fmt.Sprintf("%s by %s", summary.Name, summary.Artist)), res.URL, res.Strategy)
}
