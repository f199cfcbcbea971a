// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

// serveCommand runs the game HTTP service
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the track selection HTTP service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides server.port)",
			},
			&cli.StringFlag{
				Name:  "origin",
				Usage: "Allowed CORS origin (overrides server.allowed_origin)",
			},
		},
		Action: r.Serve,
	}
}

// pickCommand plays rounds from the terminal
func pickCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "pick",
		Usage: "Pick a random playable track from a playlist",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "playlist",
				Aliases: []string{"l"},
				Usage:   "Playlist ID (defaults to game.default_playlist)",
			},
			&cli.StringFlag{
				Name:  "client",
				Usage: "Client ID whose history is used (defaults to a fresh ID per invocation)",
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "Number of rounds to pick",
				Value:   1,
			},
			&cli.BoolFlag{
				Name:  "reveal",
				Usage: "Show the answer instead of hiding it",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the picked track's page in the browser",
			},
			&cli.BoolFlag{
				Name:  "fresh",
				Usage: "Drop the cached track listing before reading it",
			},
			&cli.StringFlag{
				Name:  "server",
				Usage: "Ask a running earworm server instead of the catalog",
			},
		}, outputFlags()...),
		Action: r.Pick,
	}
}

// previewCommand runs the resolver chain for one track
func previewCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Resolve the preview URL of a single track",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
		},
		Flags:  outputFlags(),
		Action: r.Preview,
	}
}

// playlistCommand prints or exports playlist metadata
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "Show playlist metadata or export its tracks",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "playlist",
				Aliases: []string{"l"},
				Usage:   "Playlist ID (defaults to game.default_playlist)",
			},
			&cli.StringFlag{
				Name:  "export",
				Usage: "Export tracks as csv, md, txt or json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Export file path (defaults to <id>_tracks.<format>)",
			},
			&cli.BoolFlag{
				Name:  "fresh",
				Usage: "Drop the cached track listing before reading it",
			},
			&cli.StringFlag{
				Name:  "server",
				Usage: "Ask a running earworm server instead of the catalog",
			},
		}, outputFlags()...),
		Action: r.Playlist,
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Write a config file from the bundled template",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}
