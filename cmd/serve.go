package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/earworm/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve validates the config and runs the HTTP service until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = port
	}
	if cmd.IsSet("origin") {
		cfg.AllowedOrigin = cmd.String("origin")
	}

	srv := server.NewServer(server.Options{
		Config:          cfg,
		Selector:        r.selector,
		Credentials:     r.credentials(),
		DefaultPlaylist: r.config.Game.DefaultPlaylist,
		Metrics:         r.metrics,
		Logger:          r.logger,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("earworm listening", "addr", srv.Addr(), "playlist", r.config.Game.DefaultPlaylist,
		"strategies", r.resolver.Strategies())
	return srv.Start(ctx)
}
