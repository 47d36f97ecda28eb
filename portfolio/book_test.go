package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 12, 1, 14, 30, 0, 0, time.UTC)

func TestBuyOpensPosition(t *testing.T) {
	t.Parallel()

	b := NewBook()
	pos := b.Buy("ABC", "ABC Corp", 10, 50, t0)

	assert.Equal(t, "ABC", pos.Ticker)
	assert.InDelta(t, 10, pos.Quantity, 1e-12)
	assert.InDelta(t, 50, pos.AvgCost, 1e-12)
	assert.InDelta(t, 50, pos.LastPrice, 1e-12)
	assert.InDelta(t, 500, pos.Value(), 1e-12)
	assert.Equal(t, 1, b.Len())
}

func TestBuyRecomputesWeightedAverageCost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		q1, p1, q2, p2 float64
		wantQty        float64
		wantAvg        float64
	}{
		{"equal lots", 10, 50, 10, 60, 20, 55},
		{"unequal lots", 10, 100, 30, 80, 40, 85},
		{"fractional", 0.5, 10, 1.5, 20, 2, 17.5},
		{"same price", 3, 42, 7, 42, 10, 42},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := NewBook()
			b.Buy("ABC", "ABC Corp", tt.q1, tt.p1, t0)
			pos := b.Buy("ABC", "ABC Corp", tt.q2, tt.p2, t0.Add(time.Minute))

			assert.InDelta(t, tt.wantQty, pos.Quantity, 1e-12)
			assert.InDelta(t, (tt.q1*tt.p1+tt.q2*tt.p2)/(tt.q1+tt.q2), pos.AvgCost, 1e-12)
			assert.InDelta(t, tt.wantAvg, pos.AvgCost, 1e-9)
			assert.InDelta(t, tt.p2, pos.LastPrice, 1e-12)
		})
	}
}

func TestPartialSellKeepsAverageCost(t *testing.T) {
	t.Parallel()

	b := NewBook()
	b.Buy("ABC", "ABC Corp", 10, 50, t0)
	b.Buy("ABC", "ABC Corp", 10, 60, t0)

	pos, removed := b.Sell("ABC", 5, 70, t0.Add(time.Hour))

	assert.False(t, removed)
	assert.InDelta(t, 15, pos.Quantity, 1e-12)
	assert.InDelta(t, 55, pos.AvgCost, 1e-12, "average cost must not move on a sell")
	assert.InDelta(t, 70, pos.LastPrice, 1e-12)
	assert.InDelta(t, 15*70, pos.Value(), 1e-9)
}

func TestFullSellRemovesPosition(t *testing.T) {
	t.Parallel()

	b := NewBook()
	b.Buy("ABC", "ABC Corp", 15, 55, t0)

	_, removed := b.Sell("ABC", 15, 70, t0.Add(time.Hour))

	assert.True(t, removed)
	assert.Equal(t, 0, b.Len())
	_, ok := b.Get("ABC")
	assert.False(t, ok)
}

func TestOverSellRemovesRatherThanGoingNegative(t *testing.T) {
	t.Parallel()

	// The processor validates quantities up front; the book still never
	// retains a zero or negative position if rounding drives the
	// remainder below zero (0.3 - 0.1 - 0.1 - 0.1 < 0 in float64).
	b := NewBook()
	b.Buy("ABC", "ABC Corp", 0.3, 10, t0)
	b.Sell("ABC", 0.1, 10, t0)
	b.Sell("ABC", 0.1, 10, t0)
	_, removed := b.Sell("ABC", 0.1, 10, t0)
	assert.True(t, removed)
	assert.Equal(t, 0, b.Len())
}

func TestListAndTickersSorted(t *testing.T) {
	t.Parallel()

	b := NewBook()
	b.Buy("MSFT", "Microsoft", 1, 400, t0)
	b.Buy("AAPL", "Apple", 2, 200, t0)
	b.Buy("GOOG", "Alphabet", 3, 150, t0)

	require.Equal(t, []string{"AAPL", "GOOG", "MSFT"}, b.Tickers())

	list := b.List()
	require.Len(t, list, 3)
	assert.Equal(t, "AAPL", list[0].Ticker)
	assert.Equal(t, "MSFT", list[2].Ticker)
	assert.InDelta(t, 1*400+2*200+3*150, b.HoldingsValue(), 1e-9)
}

func TestMarkPrice(t *testing.T) {
	t.Parallel()

	b := NewBook()
	b.Buy("ABC", "ABC Corp", 10, 50, t0)

	b.MarkPrice("ABC", 62.5, t0.Add(time.Hour))
	pos, ok := b.Get("ABC")
	require.True(t, ok)
	assert.InDelta(t, 62.5, pos.LastPrice, 1e-12)
	assert.InDelta(t, 50, pos.AvgCost, 1e-12)
	assert.InDelta(t, 625, pos.Value(), 1e-12)

	// unknown ticker is a no-op
	b.MarkPrice("ZZZ", 1, t0)
	assert.Equal(t, 1, b.Len())
}

func TestNewBookFromDropsEmptyPositions(t *testing.T) {
	t.Parallel()

	b := NewBookFrom([]Position{
		{Ticker: "ABC", Quantity: 5, AvgCost: 10, LastPrice: 11},
		{Ticker: "BAD", Quantity: 0, AvgCost: 10, LastPrice: 10},
	})
	assert.Equal(t, 1, b.Len())
	_, ok := b.Get("BAD")
	assert.False(t, ok)
}
