// Package portfolio holds the paper-trading domain model and the pure
// bookkeeping rules: the position book, summary statistics and the
// trade-log value replay. It has no I/O; persistence and quotes live
// behind the store and quote ports.
package portfolio

import "time"

// StartingCash is the fixed opening balance of every paper account.
const StartingCash = 10000

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Kind distinguishes the tradable instrument on a trade record. Options
// are a variant of a trade, not a separate lifecycle (no expiry or
// exercise processing exists).
type Kind string

const (
	Stock  Kind = "stock"
	Option Kind = "option"
)

type ContractType string

const (
	Call ContractType = "call"
	Put  ContractType = "put"
)

// OptionDetails rides along on option trades.
type OptionDetails struct {
	ContractType ContractType `json:"contract_type" yaml:"contract_type"`
	Strike       float64      `json:"strike_price" yaml:"strike_price"`
	Expiration   string       `json:"expiration_date" yaml:"expiration_date"` // YYYY-MM-DD
}

// Account is one paper-trading account. Stats are the last persisted
// summary figures; Cash is authoritative.
type Account struct {
	ID        string
	Category  string // "Student" or "Advanced"
	Cash      float64
	Stats     Summary
	CreatedAt time.Time
}

// Position is an open holding in one ticker. Quantity is always > 0 for
// a position held in a Book; fractional quantities are allowed.
type Position struct {
	Ticker    string
	Name      string
	Quantity  float64
	AvgCost   float64
	LastPrice float64
	UpdatedAt time.Time
}

// Value is the mark-to-last-known-price value of the position.
func (p Position) Value() float64 {
	return p.Quantity * p.LastPrice
}

// Trade is an immutable record of one executed order.
type Trade struct {
	ID         string
	Ticker     string
	Name       string
	Kind       Kind
	Side       Side
	Quantity   float64
	Price      float64
	TotalValue float64
	Time       time.Time
	Option     *OptionDetails
}

// Summary is the account-level statistics triple. All three figures are
// derived from the same total value so they can never disagree.
type Summary struct {
	TotalValue   float64
	PercentGain  float64
	AmountGained float64
}

// Snapshot is the derived portfolio view handed to the presentation
// layer. It is recomputed on demand and never persisted as ground truth.
type Snapshot struct {
	Cash       float64
	Positions  []Position
	Trades     []Trade
	TotalValue float64
}

// ValuePoint is one point of the reconstructed value-over-time series.
type ValuePoint struct {
	Time  time.Time
	Value float64
}
