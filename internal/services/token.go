package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/desertthunder/earworm/internal/models"
	"github.com/desertthunder/earworm/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultTokenTTL is how long a fetched token is used, regardless of the declared expires_in.
const DefaultTokenTTL = 55 * time.Minute

// TokenCache holds the single catalog bearer token and refreshes it lazily once expired.
type TokenCache struct {
	tokenURL   string
	ttl        time.Duration
	httpClient *http.Client
	now        func() time.Time

	mu    sync.Mutex
	token *models.AccessToken
}

// TokenCacheOpts configures a [TokenCache].
type TokenCacheOpts struct {
	TokenURL   string
	TTL        time.Duration
	HTTPClient *http.Client
	Now        func() time.Time
}

// NewTokenCache creates an empty token cache.
func NewTokenCache(opts TokenCacheOpts) *TokenCache {
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTokenTTL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &TokenCache{
		tokenURL:   opts.TokenURL,
		ttl:        opts.TTL,
		httpClient: opts.HTTPClient,
		now:        opts.Now,
	}
}

// AccessToken returns the cached token while it is unexpired, and otherwise performs a client-credentials exchange.
//
// A failed exchange leaves the previous slot untouched and returns an [shared.UpstreamError] of kind auth.
func (c *TokenCache) AccessToken(ctx context.Context, creds Credentials) (string, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return "", fmt.Errorf("%w: client id and secret are required", shared.ErrMissingCredentials)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.Valid(c.now()) {
		return c.token.Value, nil
	}

	config := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     c.tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	tok, err := config.Token(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient))
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.Response != nil {
			return "", &shared.UpstreamError{
				Op:         "token",
				Kind:       shared.KindAuth,
				StatusCode: rerr.Response.StatusCode,
				Body:       string(rerr.Body),
			}
		}
		return "", fmt.Errorf("%w: %v", shared.ErrUpstreamAuth, err)
	}

	c.token = &models.AccessToken{Value: tok.AccessToken, ExpiresAt: c.now().Add(c.ttl)}
	return c.token.Value, nil
}

// Expiry reports when the cached token stops being handed out. Zero when nothing is cached.
func (c *TokenCache) Expiry() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == nil {
		return time.Time{}
	}
	return c.token.ExpiresAt
}
