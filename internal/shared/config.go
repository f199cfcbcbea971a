package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Catalog     CatalogConfig     `toml:"catalog"`
	Game        GameConfig        `toml:"game"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains the client-credentials pair for the catalog API.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host             string `toml:"host"`
	Port             int    `toml:"port"`
	AllowedOrigin    string `toml:"allowed_origin"`
	ReadTimeoutSecs  int    `toml:"read_timeout_secs"`
	WriteTimeoutSecs int    `toml:"write_timeout_secs"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CatalogConfig points the catalog client at its upstream endpoints.
type CatalogConfig struct {
	APIURL      string `toml:"api_url"`
	TokenURL    string `toml:"token_url"`
	WebURL      string `toml:"web_url"`
	Market      string `toml:"market"`
	TimeoutSecs int    `toml:"timeout_secs"`
}

// Timeout is the per-request timeout of the outbound HTTP client.
func (c CatalogConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// GameConfig holds the track selection tunables.
type GameConfig struct {
	DefaultPlaylist  string `toml:"default_playlist"`
	MaxAttempts      int    `toml:"max_attempts"`
	PlaylistTTLSecs  int    `toml:"playlist_ttl_secs"`
	TokenTTLSecs     int    `toml:"token_ttl_secs"`
	FinderIntervalMS int    `toml:"finder_interval_ms"`
	FinderCacheSize  int    `toml:"finder_cache_size"`
}

func (g GameConfig) PlaylistTTL() time.Duration {
	return time.Duration(g.PlaylistTTLSecs) * time.Second
}

func (g GameConfig) TokenTTL() time.Duration {
	return time.Duration(g.TokenTTLSecs) * time.Second
}

func (g GameConfig) FinderInterval() time.Duration {
	return time.Duration(g.FinderIntervalMS) * time.Millisecond
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides credentials and the listen port from the environment.
//
// getenv defaults to [os.Getenv].
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := getenv("EARWORM_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Server.Port = port
		}
	}
}

// Validate reports configuration that would make every request fail.
func (c *Config) Validate() error {
	if c.Credentials.Spotify.ClientID == "" || c.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret must be set", ErrMissingCredentials)
	}
	if c.Game.MaxAttempts <= 0 {
		return fmt.Errorf("%w: game.max_attempts must be positive", ErrInvalidConfig)
	}
	return nil
}
