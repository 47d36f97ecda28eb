// Package quote fetches last-close prices for tickers. The HTTP client
// respects the upstream free-tier rate limit and caches responses; the
// Redis decorator shares that cache across processes. Callers must
// tolerate missing or stale data — a quote failure for one ticker is
// never fatal to a batch refresh.
package quote

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound means the upstream had no close price for the ticker.
	ErrNotFound = errors.New("quote: no price for ticker")
	// ErrRateLimited is returned after the single backoff retry also
	// hit the upstream rate limit.
	ErrRateLimited = errors.New("quote: rate limited")
)

// Quote is a last/previous closing price for one ticker.
type Quote struct {
	Ticker string    `json:"ticker"`
	Price  float64   `json:"price"`
	AsOf   time.Time `json:"as_of"`
}

// Source answers last-close lookups. Implementations may block while
// waiting out a rate limit, so callers pass a context.
type Source interface {
	LastClose(ctx context.Context, ticker string) (Quote, error)
}

// Static is a fixed price table, for tests and offline runs.
type Static map[string]float64

func (s Static) LastClose(ctx context.Context, ticker string) (Quote, error) {
	price, ok := s[ticker]
	if !ok {
		return Quote{}, ErrNotFound
	}
	return Quote{Ticker: ticker, Price: price, AsOf: time.Now()}, nil
}
