package payments

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

var ErrEmptyAccessToken = errors.New("token source returned an empty access token")

// AccessToken is a provider credential. A zero ExpiresAt never expires.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

type TokenSource interface {
	Token(ctx context.Context) (AccessToken, error)
}

// StaticTokenSource serves a long-lived access token from configuration.
type StaticTokenSource string

func (s StaticTokenSource) Token(context.Context) (AccessToken, error) {
	if s == "" {
		return AccessToken{}, ErrMissingMercadoPagoAccessToken
	}
	return AccessToken{Value: string(s)}, nil
}

const defaultRefreshSkew = time.Minute

// TokenCache holds the current provider token and refreshes it from its
// source once it is within skew of expiring. Concurrent callers share one
// refresh.
type TokenCache struct {
	mu      sync.Mutex
	source  TokenSource
	now     func() time.Time
	skew    time.Duration
	current AccessToken
}

func NewTokenCache(source TokenSource, now func() time.Time, skew time.Duration) *TokenCache {
	if now == nil {
		now = time.Now
	}
	if skew < 0 {
		skew = defaultRefreshSkew
	}
	return &TokenCache{source: source, now: now, skew: skew}
}

func (c *TokenCache) Get(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid() {
		return c.current.Value, nil
	}

	tok, err := c.source.Token(ctx)
	if err != nil {
		log.Printf("[payment][token] refresh failed err=%v", err)
		return "", err
	}
	if tok.Value == "" {
		return "", ErrEmptyAccessToken
	}
	c.current = tok
	if !tok.ExpiresAt.IsZero() {
		log.Printf("[payment][token] refreshed expires_at=%s", tok.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return tok.Value, nil
}

// Invalidate drops the cached token, e.g. after the provider rejected it.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.current = AccessToken{}
	c.mu.Unlock()
}

// ExpiresAt reports the expiry of the cached token; zero when none is cached
// or it never expires.
func (c *TokenCache) ExpiresAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.ExpiresAt
}

func (c *TokenCache) valid() bool {
	if c.current.Value == "" {
		return false
	}
	if c.current.ExpiresAt.IsZero() {
		return true
	}
	return c.now().Add(c.skew).Before(c.current.ExpiresAt)
}
