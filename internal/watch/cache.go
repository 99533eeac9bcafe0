// Package watch is the display-side companion to the gateway: a
// TTL-cached poller that keeps a set of named display fields fresh
// from the dashboard endpoint, and a map controller that filters
// node markers by category.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultTTL = 30 * time.Second

type cacheEntry struct {
	data       map[string]any
	capturedAt time.Time
}

// Fetcher performs TTL-cached JSON fetches. A failed fetch returns
// nil without caching, so the next call retries; a cached payload is
// served without a network call until its TTL lapses.
type Fetcher struct {
	log    logrus.FieldLogger
	client *http.Client
	ttl    time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry

	now func() time.Time
}

// NewFetcher creates a fetcher with the given cache TTL. A zero ttl
// gets the 30s default.
func NewFetcher(log logrus.FieldLogger, ttl time.Duration) *Fetcher {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &Fetcher{
		log:     log.WithField("component", "watch_fetcher"),
		client:  &http.Client{Timeout: 10 * time.Second},
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Fetch returns the JSON object at url, from cache when fresh. On
// any failure it returns nil; failures are never cached.
func (f *Fetcher) Fetch(ctx context.Context, url string) map[string]any {
	if data, ok := f.lookup(url); ok {
		return data
	}

	data, err := f.fetch(ctx, url)
	if err != nil {
		f.log.WithError(err).WithField("url", url).Warn("Fetch failed")

		return nil
	}

	f.store(url, data)

	return data
}

func (f *Fetcher) lookup(url string) (map[string]any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.entries[url]
	if !ok {
		return nil, false
	}

	if f.now().Sub(entry.capturedAt) >= f.ttl {
		return nil, false
	}

	return entry.data, true
}

func (f *Fetcher) store(url string, data map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries[url] = cacheEntry{data: data, capturedAt: f.now()}
}

func (f *Fetcher) fetch(ctx context.Context, url string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return data, nil
}
