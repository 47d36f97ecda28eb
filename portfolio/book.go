package portfolio

import (
	"sort"
	"time"
)

// Book is the authoritative set of open positions for one account.
// It only tracks live holdings; trade history is kept by the store.
// Mutation goes through Buy and Sell, which the order processor calls
// after validation — a quantity that reaches zero or below removes the
// position rather than retaining a zero entry.
type Book struct {
	positions map[string]*Position
}

func NewBook() *Book {
	return &Book{positions: make(map[string]*Position)}
}

// NewBookFrom builds a book from persisted positions.
func NewBookFrom(positions []Position) *Book {
	b := NewBook()
	for i := range positions {
		p := positions[i]
		if p.Quantity <= 0 {
			continue
		}
		b.positions[p.Ticker] = &p
	}
	return b
}

// Get returns the open position for ticker, or false if none is held.
func (b *Book) Get(ticker string) (Position, bool) {
	p, ok := b.positions[ticker]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// List returns all open positions sorted by ticker.
func (b *Book) List() []Position {
	out := make([]Position, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

// Tickers returns the distinct tickers currently held, sorted.
func (b *Book) Tickers() []string {
	out := make([]string, 0, len(b.positions))
	for t := range b.positions {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// HoldingsValue is the summed mark value of all open positions.
func (b *Book) HoldingsValue() float64 {
	var sum float64
	for _, p := range b.positions {
		sum += p.Value()
	}
	return sum
}

// Buy applies a filled buy to the book and returns the resulting
// position. A first buy opens the position at the execution price; a
// repeat buy folds the fill into the average cost as a weighted average
// of the existing basis and the new cost:
//
//	newAvg = (oldQty*oldAvg + qty*price) / (oldQty + qty)
//
// The last known price moves to the execution price either way.
func (b *Book) Buy(ticker, name string, qty, price float64, now time.Time) Position {
	p, ok := b.positions[ticker]
	if !ok {
		p = &Position{
			Ticker:    ticker,
			Name:      name,
			Quantity:  qty,
			AvgCost:   price,
			LastPrice: price,
			UpdatedAt: now,
		}
		b.positions[ticker] = p
		return *p
	}

	newQty := p.Quantity + qty
	p.AvgCost = (p.Quantity*p.AvgCost + qty*price) / newQty
	p.Quantity = newQty
	p.LastPrice = price
	p.UpdatedAt = now
	return *p
}

// Sell applies a filled sell. Average cost is deliberately left
// untouched on a partial sell; only the quantity shrinks and the last
// price moves to the execution price. When the remaining quantity falls
// to zero or below (exact float equality counts) the position is
// removed and removed=true is returned.
func (b *Book) Sell(ticker string, qty, price float64, now time.Time) (pos Position, removed bool) {
	p, ok := b.positions[ticker]
	if !ok {
		return Position{}, true
	}

	p.Quantity -= qty
	if p.Quantity <= 0 {
		delete(b.positions, ticker)
		return Position{}, true
	}
	p.LastPrice = price
	p.UpdatedAt = now
	return *p, false
}

// MarkPrice updates the last known price of a held ticker. It is a
// no-op for tickers not in the book.
func (b *Book) MarkPrice(ticker string, price float64, now time.Time) {
	if p, ok := b.positions[ticker]; ok {
		p.LastPrice = price
		p.UpdatedAt = now
	}
}

// Len reports the number of open positions.
func (b *Book) Len() int { return len(b.positions) }
