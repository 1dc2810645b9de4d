package exchange

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientEntry struct {
	creds  Credentials
	client *Client
}

// Factory hands out one Client per user and caches them, so repeated sync
// cycles reuse HTTP connections. All clients share one rate limiter.
type Factory struct {
	apiURL  string
	timeout time.Duration
	limiter *rate.Limiter

	mu      sync.Mutex
	clients map[int64]clientEntry
}

// NewFactory builds a client factory. requestsPerSecond bounds the combined
// request rate across every user's client; zero disables limiting.
func NewFactory(apiURL string, timeout time.Duration, requestsPerSecond float64) *Factory {
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return &Factory{
		apiURL:  apiURL,
		timeout: timeout,
		limiter: limiter,
		clients: make(map[int64]clientEntry),
	}
}

// ClientFor returns the cached client for a user, building one on first use.
// A credential change invalidates the cached client so rotated keys take
// effect on the next cycle, not the next restart.
func (f *Factory) ClientFor(userID int64, creds Credentials) (*Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry, ok := f.clients[userID]; ok && entry.creds == creds {
		return entry.client, nil
	}
	client, err := NewClient(f.apiURL, creds, f.timeout, f.limiter)
	if err != nil {
		return nil, fmt.Errorf("building client for user %d: %w", userID, err)
	}
	f.clients[userID] = clientEntry{creds: creds, client: client}
	return client, nil
}
