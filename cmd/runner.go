package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/earworm/internal/server"
	"github.com/desertthunder/earworm/internal/services"
	"github.com/desertthunder/earworm/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	catalog   *services.SpotifyService
	tokens    *services.TokenCache
	playlists *services.PlaylistCache
	finder    *services.NameFinder
	resolver  *services.PreviewResolver
	selector  *services.SelectionService
	metrics   *server.Metrics
	api       *services.APIService
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	API        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner and wires the catalog, caches, resolver chain and selection service from the config.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.Catalog.Timeout()}
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(services.DefaultServerURL, opts.HTTPClient)
	}

	r := &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		api:        opts.API,
		metrics:    server.NewMetrics(),
	}
	r.wire()
	return r
}

func (r *Runner) wire() {
	cfg := r.config

	r.catalog = services.NewSpotifyService(services.SpotifyOpts{
		APIURL:     cfg.Catalog.APIURL,
		WebURL:     cfg.Catalog.WebURL,
		Market:     cfg.Catalog.Market,
		HTTPClient: r.httpClient,
		Logger:     shared.WithLogger(r.logger, "component", "catalog"),
	})
	r.tokens = services.NewTokenCache(services.TokenCacheOpts{
		TokenURL:   cfg.Catalog.TokenURL,
		TTL:        cfg.Game.TokenTTL(),
		HTTPClient: r.httpClient,
	})
	r.playlists = services.NewPlaylistCache(services.PlaylistCacheOpts{
		Source:   r.catalog,
		TTL:      cfg.Game.PlaylistTTL(),
		Recorder: r.metrics,
	})

	finder, err := services.NewNameFinder(services.NameFinderOpts{
		Finder:    services.NewSearchFinder(r.catalog, 0),
		Interval:  cfg.Game.FinderInterval(),
		CacheSize: cfg.Game.FinderCacheSize,
		Logger:    shared.WithLogger(r.logger, "component", "finder"),
	})
	if err != nil {
		r.logger.Warn("name finder disabled", "error", err)
	} else {
		r.finder = finder
	}

	r.resolver = services.NewPreviewResolver(
		services.DefaultStrategies(r.catalog, r.finder),
		shared.WithLogger(r.logger, "component", "resolver"),
		r.metrics,
	)
	r.selector = services.NewSelectionService(services.SelectionOpts{
		Tokens:      r.tokens,
		Playlists:   r.playlists,
		Describer:   r.catalog,
		Resolver:    r.resolver,
		MaxAttempts: cfg.Game.MaxAttempts,
		Logger:      shared.WithLogger(r.logger, "component", "selection"),
		Recorder:    r.metrics,
	})
}

func (r *Runner) credentials() services.Credentials {
	return services.Credentials{
		ClientID:     r.config.Credentials.Spotify.ClientID,
		ClientSecret: r.config.Credentials.Spotify.ClientSecret,
	}
}

// remote returns the API client for --server, or nil when the command should run against the catalog directly.
func (r *Runner) remote(cmd *cli.Command) *services.APIService {
	if url := cmd.String("server"); url != "" {
		return services.NewAPIService(url, r.httpClient)
	}
	return nil
}

func (r *Runner) playlistID(cmd *cli.Command) string {
	if id := cmd.String("playlist"); id != "" {
		return id
	}
	return r.config.Game.DefaultPlaylist
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, pickCommand, previewCommand, playlistCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
