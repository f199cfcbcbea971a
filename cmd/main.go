package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/earworm/internal/shared"
	"github.com/desertthunder/earworm/internal/ui"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	if p := os.Getenv("EARWORM_CONFIG"); p != "" {
		configPath = p
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}
	config.ApplyEnv(os.Getenv)
	shared.SetLogLevel(logger, config.Log.Level)

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "earworm",
		Usage:    "Pick playable tracks for a guess-the-song game",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Debug("application error", "error", err)
		fmt.Fprint(os.Stderr, ui.RenderError(err))
		os.Exit(1)
	}
}
