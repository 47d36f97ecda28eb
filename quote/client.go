package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	// The free tier allows 5 calls a minute, so space requests 12s
	// apart and keep responses for a minute.
	defaultMinInterval = 12 * time.Second
	defaultCacheTTL    = time.Minute
	defaultRetryWait   = 60 * time.Second
)

// Client fetches previous-close prices over the aggregates REST API
// (GET /v2/aggs/ticker/{ticker}/prev with a bearer key). Requests are
// spaced out to stay under the rate limit, responses are cached for a
// short TTL, and a 429 is retried exactly once after a fixed backoff.
type Client struct {
	baseURL string
	apiKey  string
	cli     *http.Client

	minInterval time.Duration
	cacheTTL    time.Duration
	retryWait   time.Duration

	mu      sync.Mutex
	lastReq time.Time
	cache   map[string]cachedQuote
}

type cachedQuote struct {
	quote   Quote
	fetched time.Time
}

type prevCloseResponse struct {
	Ticker  string `json:"ticker"`
	Results []struct {
		Close float64 `json:"c"`
		Time  int64   `json:"t"` // unix ms
	} `json:"results"`
	Status string `json:"status"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the transport, mainly for tests.
func WithHTTPClient(cli *http.Client) Option { return func(c *Client) { c.cli = cli } }

// WithMinInterval overrides the spacing between upstream requests.
func WithMinInterval(d time.Duration) Option { return func(c *Client) { c.minInterval = d } }

// WithRetryWait overrides the fixed backoff before the single 429 retry.
func WithRetryWait(d time.Duration) Option { return func(c *Client) { c.retryWait = d } }

func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		cli:         &http.Client{Timeout: 15 * time.Second},
		minInterval: defaultMinInterval,
		cacheTTL:    defaultCacheTTL,
		retryWait:   defaultRetryWait,
		cache:       make(map[string]cachedQuote),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) LastClose(ctx context.Context, ticker string) (Quote, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return Quote{}, ErrNotFound
	}

	if q, ok := c.cached(ticker); ok {
		return q, nil
	}

	q, err := c.fetch(ctx, ticker, true)
	if err != nil {
		return Quote{}, err
	}

	c.mu.Lock()
	c.cache[ticker] = cachedQuote{quote: q, fetched: time.Now()}
	c.mu.Unlock()
	return q, nil
}

func (c *Client) cached(ticker string) (Quote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.cache[ticker]
	if !ok || time.Since(e.fetched) >= c.cacheTTL {
		return Quote{}, false
	}
	return e.quote, true
}

func (c *Client) fetch(ctx context.Context, ticker string, retryOn429 bool) (Quote, error) {
	if err := c.waitForRateLimit(ctx); err != nil {
		return Quote{}, err
	}

	url := fmt.Sprintf("%s/v2/aggs/ticker/%s/prev", c.baseURL, ticker)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Quote{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.cli.Do(req)
	if err != nil {
		return Quote{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		if !retryOn429 {
			return Quote{}, ErrRateLimited
		}
		select {
		case <-time.After(c.retryWait):
		case <-ctx.Done():
			return Quote{}, ctx.Err()
		}
		return c.fetch(ctx, ticker, false)
	}
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("quote: http %d for %s", resp.StatusCode, ticker)
	}

	var body prevCloseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Quote{}, fmt.Errorf("quote: decode response for %s: %w", ticker, err)
	}
	if len(body.Results) == 0 || body.Results[0].Close <= 0 {
		return Quote{}, ErrNotFound
	}

	r := body.Results[0]
	return Quote{
		Ticker: ticker,
		Price:  r.Close,
		AsOf:   time.UnixMilli(r.Time).UTC(),
	}, nil
}

// waitForRateLimit sleeps until minInterval has passed since the last
// upstream request, or the context ends.
func (c *Client) waitForRateLimit(ctx context.Context) error {
	c.mu.Lock()
	wait := c.minInterval - time.Since(c.lastReq)
	if wait < 0 {
		wait = 0
	}
	c.lastReq = time.Now().Add(wait)
	c.mu.Unlock()

	if wait == 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
