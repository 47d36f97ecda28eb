// Package paper is the paper-trading account engine: it validates and
// applies orders against an account's cash and position book, keeps the
// derived statistics consistent, and refreshes position prices from the
// quote source. All state lives in the store; the engine itself only
// serializes access per account.
package paper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/junaidmahmood-ws/papertrader/internal/id"
	"github.com/junaidmahmood-ws/papertrader/portfolio"
	"github.com/junaidmahmood-ws/papertrader/quote"
	"github.com/junaidmahmood-ws/papertrader/store"
)

var (
	ErrInvalidOrder         = errors.New("invalid order: quantity and price must be positive")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientPosition = errors.New("insufficient shares")
)

// flatHistoryDays is the span of the placeholder series shown before an
// account's first trade.
const flatHistoryDays = 30

// OrderRequest is one order intent from the presentation layer.
type OrderRequest struct {
	Ticker   string
	Name     string
	Side     portfolio.Side
	Quantity float64
	Price    float64
	Kind     portfolio.Kind
	Option   *portfolio.OptionDetails
}

// LeaderboardEntry is one ranked row of the percent-gain leaderboard.
type LeaderboardEntry struct {
	Rank    int
	Account portfolio.Account
}

// Engine applies orders for any number of accounts. One mutex per
// account ID makes order application mutually exclusive; the store
// writes for a single order run inside one transaction.
type Engine struct {
	store  store.Store
	quotes quote.Source
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewEngine(st store.Store, quotes quote.Source) *Engine {
	return &Engine{
		store:  st,
		quotes: quotes,
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (e *Engine) lock(accountID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[accountID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[accountID] = l
	}
	return l
}

// Open creates a fresh account at the starting balance.
func (e *Engine) Open(ctx context.Context, accountID, category string) (portfolio.Account, error) {
	if _, err := e.store.LoadAccount(ctx, accountID); err == nil {
		return portfolio.Account{}, fmt.Errorf("account %q already exists", accountID)
	} else if !errors.Is(err, store.ErrNotFound) {
		return portfolio.Account{}, err
	}

	acct := portfolio.Account{
		ID:        accountID,
		Category:  category,
		Cash:      portfolio.StartingCash,
		Stats:     portfolio.Summary{TotalValue: portfolio.StartingCash},
		CreatedAt: e.now(),
	}
	if err := e.store.CreateAccount(ctx, acct); err != nil {
		return portfolio.Account{}, fmt.Errorf("create account: %w", err)
	}
	return acct, nil
}

// PlaceOrder validates req against the account's cash and positions and,
// if valid, applies it: positions and cash move, a trade record is
// appended and the summary stats are rewritten, all inside one store
// transaction. Validation happens before any mutation, so a rejected
// order leaves the account untouched — and so does a store-write
// failure, which fails the order as a whole. The engine does not retry;
// resubmitting is the caller's decision.
func (e *Engine) PlaceOrder(ctx context.Context, accountID string, req OrderRequest) (portfolio.Trade, error) {
	if req.Quantity <= 0 || req.Price <= 0 {
		return portfolio.Trade{}, ErrInvalidOrder
	}
	if req.Side != portfolio.Buy && req.Side != portfolio.Sell {
		return portfolio.Trade{}, ErrInvalidOrder
	}

	l := e.lock(accountID)
	l.Lock()
	defer l.Unlock()

	st, err := e.store.LoadAccount(ctx, accountID)
	if err != nil {
		return portfolio.Trade{}, err
	}

	total := req.Quantity * req.Price
	book := portfolio.NewBookFrom(st.Positions)

	switch req.Side {
	case portfolio.Buy:
		if total > st.Account.Cash {
			return portfolio.Trade{}, ErrInsufficientFunds
		}
	case portfolio.Sell:
		pos, ok := book.Get(req.Ticker)
		if !ok || pos.Quantity < req.Quantity {
			return portfolio.Trade{}, ErrInsufficientPosition
		}
	}

	now := e.now()
	kind := req.Kind
	if kind == "" {
		kind = portfolio.Stock
	}
	trade := portfolio.Trade{
		ID:         id.New(),
		Ticker:     req.Ticker,
		Name:       req.Name,
		Kind:       kind,
		Side:       req.Side,
		Quantity:   req.Quantity,
		Price:      req.Price,
		TotalValue: total,
		Time:       now,
		Option:     req.Option,
	}

	var (
		cash    = st.Account.Cash
		pos     portfolio.Position
		removed bool
	)
	if req.Side == portfolio.Buy {
		cash -= total
		pos = book.Buy(req.Ticker, req.Name, req.Quantity, req.Price, now)
	} else {
		cash += total
		pos, removed = book.Sell(req.Ticker, req.Quantity, req.Price, now)
	}

	summary := portfolio.ComputeSummary(cash, book.List())

	err = e.store.Transact(ctx, func(s store.Store) error {
		if err := s.SaveOrder(ctx, accountID, trade); err != nil {
			return fmt.Errorf("save order: %w", err)
		}
		if removed {
			if err := s.DeletePosition(ctx, accountID, req.Ticker); err != nil {
				return fmt.Errorf("delete position: %w", err)
			}
		} else {
			if err := s.SavePosition(ctx, accountID, pos); err != nil {
				return fmt.Errorf("save position: %w", err)
			}
		}
		if err := s.SaveSummary(ctx, accountID, cash, summary); err != nil {
			return fmt.Errorf("save summary: %w", err)
		}
		return nil
	})
	if err != nil {
		return portfolio.Trade{}, fmt.Errorf("order not persisted: %w", err)
	}

	return trade, nil
}

// Portfolio returns the current snapshot: cash, holdings, trade history
// (newest first) and total value.
func (e *Engine) Portfolio(ctx context.Context, accountID string) (portfolio.Snapshot, error) {
	st, err := e.store.LoadAccount(ctx, accountID)
	if err != nil {
		return portfolio.Snapshot{}, err
	}

	book := portfolio.NewBookFrom(st.Positions)
	trades := make([]portfolio.Trade, len(st.Trades))
	for i, t := range st.Trades {
		trades[len(st.Trades)-1-i] = t
	}

	return portfolio.Snapshot{
		Cash:       st.Account.Cash,
		Positions:  book.List(),
		Trades:     trades,
		TotalValue: st.Account.Cash + book.HoldingsValue(),
	}, nil
}

// Summary recomputes the statistics triple from current state.
func (e *Engine) Summary(ctx context.Context, accountID string) (portfolio.Summary, error) {
	st, err := e.store.LoadAccount(ctx, accountID)
	if err != nil {
		return portfolio.Summary{}, err
	}
	return portfolio.ComputeSummary(st.Account.Cash, st.Positions), nil
}

// RefreshPrices pulls the latest close for every held ticker and
// persists the repriced positions and summary. A fetch failure for one
// ticker is logged and that position keeps its stale price; the rest of
// the refresh proceeds. May be slow: the quote source enforces its own
// rate limiting, so callers typically render stale data first and call
// this in the background.
func (e *Engine) RefreshPrices(ctx context.Context, accountID string) (portfolio.Snapshot, error) {
	l := e.lock(accountID)
	l.Lock()
	defer l.Unlock()

	st, err := e.store.LoadAccount(ctx, accountID)
	if err != nil {
		return portfolio.Snapshot{}, err
	}

	book := portfolio.NewBookFrom(st.Positions)
	now := e.now()
	for _, ticker := range book.Tickers() {
		q, err := e.quotes.LastClose(ctx, ticker)
		if err != nil {
			log.Printf("paper: refresh %s for %s: %v (keeping last price)", ticker, accountID, err)
			continue
		}
		book.MarkPrice(ticker, q.Price, now)
	}

	positions := book.List()
	summary := portfolio.ComputeSummary(st.Account.Cash, positions)

	err = e.store.Transact(ctx, func(s store.Store) error {
		for _, p := range positions {
			if err := s.SavePosition(ctx, accountID, p); err != nil {
				return fmt.Errorf("save position %s: %w", p.Ticker, err)
			}
		}
		return s.SaveSummary(ctx, accountID, st.Account.Cash, summary)
	})
	if err != nil {
		return portfolio.Snapshot{}, fmt.Errorf("refresh not persisted: %w", err)
	}

	trades := make([]portfolio.Trade, len(st.Trades))
	for i, t := range st.Trades {
		trades[len(st.Trades)-1-i] = t
	}
	return portfolio.Snapshot{
		Cash:       st.Account.Cash,
		Positions:  positions,
		Trades:     trades,
		TotalValue: summary.TotalValue,
	}, nil
}

// History returns the account's value-over-time series for charting.
// With no trades yet it is a flat line at the starting balance; with
// trades it is the lossy trade-log replay (see portfolio.ReplayHistory)
// capped with a point at the current total value.
func (e *Engine) History(ctx context.Context, accountID string) ([]portfolio.ValuePoint, error) {
	st, err := e.store.LoadAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if len(st.Trades) == 0 {
		return portfolio.FlatHistory(portfolio.StartingCash, flatHistoryDays, e.now()), nil
	}

	points := portfolio.ReplayHistory(st.Trades, portfolio.StartingCash)
	book := portfolio.NewBookFrom(st.Positions)
	points = append(points, portfolio.ValuePoint{
		Time:  e.now(),
		Value: st.Account.Cash + book.HoldingsValue(),
	})
	return points, nil
}

// Reset wipes positions and history and restores the starting balance.
func (e *Engine) Reset(ctx context.Context, accountID string) error {
	l := e.lock(accountID)
	l.Lock()
	defer l.Unlock()

	return e.store.Transact(ctx, func(s store.Store) error {
		return s.ResetAccount(ctx, accountID)
	})
}

// Leaderboard ranks accounts by percent gain, best first.
func (e *Engine) Leaderboard(ctx context.Context, category string, limit int) ([]LeaderboardEntry, error) {
	accounts, err := e.store.Leaderboard(ctx, category, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, len(accounts))
	for i, a := range accounts {
		entries[i] = LeaderboardEntry{Rank: i + 1, Account: a}
	}
	return entries, nil
}
