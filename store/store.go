// Package store defines the portfolio persistence port and an
// in-memory implementation. Durable backends live in the sqlite and
// postgres subpackages.
package store

import (
	"context"
	"errors"

	"github.com/junaidmahmood-ws/papertrader/portfolio"
)

// ErrNotFound is returned when an account cannot be resolved.
var ErrNotFound = errors.New("account not found")

// AccountState is everything the ledger core needs to operate on one
// account: the account row, the open positions and the full trade
// history in chronological order.
type AccountState struct {
	Account   portfolio.Account
	Positions []portfolio.Position
	Trades    []portfolio.Trade
}

// Store is the durable home of accounts, positions, orders and stats.
//
// An order application performs several writes (order insert, position
// upsert or delete, summary update); callers group them with Transact
// so the account is read-modify-written as a single unit. A Store
// passed to a Transact callback is scoped to that transaction and must
// not be retained after the callback returns.
type Store interface {
	// CreateAccount inserts a fresh account with its opening stats.
	CreateAccount(ctx context.Context, acct portfolio.Account) error

	// LoadAccount resolves an account with its positions and trade
	// history, or ErrNotFound.
	LoadAccount(ctx context.Context, id string) (AccountState, error)

	// SaveOrder appends one immutable trade record to the history.
	SaveOrder(ctx context.Context, accountID string, t portfolio.Trade) error

	// SavePosition inserts or replaces the position for its ticker.
	SavePosition(ctx context.Context, accountID string, p portfolio.Position) error

	// DeletePosition removes a closed position.
	DeletePosition(ctx context.Context, accountID, ticker string) error

	// SaveSummary writes the account's cash balance and derived stats.
	SaveSummary(ctx context.Context, accountID string, cash float64, s portfolio.Summary) error

	// ResetAccount deletes all positions and orders and restores the
	// opening balance and stats.
	ResetAccount(ctx context.Context, id string) error

	// Leaderboard lists accounts ranked by percent gain descending.
	// category filters when non-empty; limit <= 0 means no limit.
	Leaderboard(ctx context.Context, category string, limit int) ([]portfolio.Account, error)

	// Transact runs fn atomically: either every write inside fn is
	// persisted or none is.
	Transact(ctx context.Context, fn func(Store) error) error

	Close() error
}
