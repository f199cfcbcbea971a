// package server contains middleware & handlers for the game web service
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/earworm/internal/services"
	"github.com/desertthunder/earworm/internal/shared"
)

const shutdownTimeout = 10 * time.Second

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, request ids and CORS.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the game service.
// Implementations handle specific endpoints (playlist metadata, track selection, health).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Options configures [NewServer].
type Options struct {
	Config          shared.ServerConfig
	Selector        Selector
	Credentials     services.Credentials
	DefaultPlaylist string
	Metrics         *Metrics // nil disables /metrics
	Logger          *log.Logger
}

// Server is the game HTTP server: the router with its middleware stack and the [http.Server] running it.
type Server struct {
	router  *BasicRouter
	server  *http.Server
	metrics *Metrics
	logger  *log.Logger
}

// NewServer wires the handlers and middleware onto a [BasicRouter].
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	router := NewBasicRouter()
	writeTimeout := time.Duration(opts.Config.WriteTimeoutSecs) * time.Second
	router.Use(
		RequestID(),
		Logging(opts.Logger, opts.Metrics),
		CORS(opts.Config.AllowedOrigin),
		Timeout(requestBudget(writeTimeout)),
	)

	router.Handler(NewPlaylistHandler(opts.Selector, opts.Credentials, opts.Logger))
	router.Handler(NewTrackHandler(opts.Selector, opts.Credentials, opts.DefaultPlaylist, opts.Logger))
	router.Handler(HealthHandler{})
	if opts.Metrics != nil {
		router.Handle(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	return &Server{
		router:  router,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		server: &http.Server{
			Addr:         opts.Config.Addr(),
			Handler:      router,
			ReadTimeout:  time.Duration(opts.Config.ReadTimeoutSecs) * time.Second,
			WriteTimeout: writeTimeout,
		},
	}
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start listens on the configured address and serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("Starting HTTP server", "addr", ln.Addr().String())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", "error", err)
		}
	}()

	err := s.server.Serve(ln)
	cancel()
	<-done

	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}
