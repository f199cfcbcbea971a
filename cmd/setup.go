package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/earworm/internal/shared"
	"github.com/desertthunder/earworm/internal/ui"
	"github.com/urfave/cli/v3"
)

// Setup writes the bundled config template to --config unless a file already exists there.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		if _, err := shared.LoadConfig(configPath); err != nil {
			return fmt.Errorf("existing config is invalid: %w", err)
		}
		r.logger.Info("config file already exists", "path", configPath)
		return r.writePlain("%s", ui.Success("Config already present at "+configPath))
	}

	r.logger.Info("config file not found, creating from template", "path", configPath)
	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	return r.writePlain("%sNext steps:\n%s%s", ui.Success("Config written to "+configPath),
		"1. Set credentials.spotify.client_id and client_secret (or SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET)\n",
		"2. Run 'earworm pick --reveal' to check a round\n")
}
