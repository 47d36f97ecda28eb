package store

import (
	"context"
	"sort"
	"sync"

	"github.com/junaidmahmood-ws/papertrader/portfolio"
)

// Memory is a Store kept entirely in process memory. It backs tests
// and offline runs; nothing survives a restart.
type Memory struct {
	mu   sync.Mutex
	data map[string]*memAccount
}

type memAccount struct {
	acct      portfolio.Account
	positions map[string]portfolio.Position
	trades    []portfolio.Trade
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]*memAccount)}
}

func (m *Memory) CreateAccount(ctx context.Context, acct portfolio.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createAccount(acct)
}

func (m *Memory) LoadAccount(ctx context.Context, id string) (AccountState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadAccount(id)
}

func (m *Memory) SaveOrder(ctx context.Context, accountID string, t portfolio.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveOrder(accountID, t)
}

func (m *Memory) SavePosition(ctx context.Context, accountID string, p portfolio.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.savePosition(accountID, p)
}

func (m *Memory) DeletePosition(ctx context.Context, accountID, ticker string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletePosition(accountID, ticker)
}

func (m *Memory) SaveSummary(ctx context.Context, accountID string, cash float64, s portfolio.Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveSummary(accountID, cash, s)
}

func (m *Memory) ResetAccount(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resetAccount(id)
}

func (m *Memory) Leaderboard(ctx context.Context, category string, limit int) ([]portfolio.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leaderboard(category, limit)
}

// Transact holds the store lock for the duration of fn and restores a
// snapshot of the data if fn fails, so a half-applied order rolls back.
func (m *Memory) Transact(ctx context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.clone()
	if err := fn(&memTx{m}); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

func (m *Memory) Close() error { return nil }

// memTx exposes the unlocked internals to a Transact callback; the
// outer lock is already held.
type memTx struct{ m *Memory }

func (t *memTx) CreateAccount(ctx context.Context, acct portfolio.Account) error {
	return t.m.createAccount(acct)
}

func (t *memTx) LoadAccount(ctx context.Context, id string) (AccountState, error) {
	return t.m.loadAccount(id)
}

func (t *memTx) SaveOrder(ctx context.Context, accountID string, tr portfolio.Trade) error {
	return t.m.saveOrder(accountID, tr)
}

func (t *memTx) SavePosition(ctx context.Context, accountID string, p portfolio.Position) error {
	return t.m.savePosition(accountID, p)
}

func (t *memTx) DeletePosition(ctx context.Context, accountID, ticker string) error {
	return t.m.deletePosition(accountID, ticker)
}

func (t *memTx) SaveSummary(ctx context.Context, accountID string, cash float64, s portfolio.Summary) error {
	return t.m.saveSummary(accountID, cash, s)
}

func (t *memTx) ResetAccount(ctx context.Context, id string) error {
	return t.m.resetAccount(id)
}

func (t *memTx) Leaderboard(ctx context.Context, category string, limit int) ([]portfolio.Account, error) {
	return t.m.leaderboard(category, limit)
}

func (t *memTx) Transact(ctx context.Context, fn func(Store) error) error {
	return fn(t)
}

func (t *memTx) Close() error { return nil }

// ---- unlocked internals ----

func (m *Memory) createAccount(acct portfolio.Account) error {
	m.data[acct.ID] = &memAccount{
		acct:      acct,
		positions: make(map[string]portfolio.Position),
	}
	return nil
}

func (m *Memory) loadAccount(id string) (AccountState, error) {
	rec, ok := m.data[id]
	if !ok {
		return AccountState{}, ErrNotFound
	}

	st := AccountState{Account: rec.acct}
	for _, p := range rec.positions {
		st.Positions = append(st.Positions, p)
	}
	sort.Slice(st.Positions, func(i, j int) bool { return st.Positions[i].Ticker < st.Positions[j].Ticker })
	st.Trades = append(st.Trades, rec.trades...)
	sort.SliceStable(st.Trades, func(i, j int) bool { return st.Trades[i].Time.Before(st.Trades[j].Time) })
	return st, nil
}

func (m *Memory) saveOrder(accountID string, t portfolio.Trade) error {
	rec, ok := m.data[accountID]
	if !ok {
		return ErrNotFound
	}
	rec.trades = append(rec.trades, t)
	return nil
}

func (m *Memory) savePosition(accountID string, p portfolio.Position) error {
	rec, ok := m.data[accountID]
	if !ok {
		return ErrNotFound
	}
	rec.positions[p.Ticker] = p
	return nil
}

func (m *Memory) deletePosition(accountID, ticker string) error {
	rec, ok := m.data[accountID]
	if !ok {
		return ErrNotFound
	}
	delete(rec.positions, ticker)
	return nil
}

func (m *Memory) saveSummary(accountID string, cash float64, s portfolio.Summary) error {
	rec, ok := m.data[accountID]
	if !ok {
		return ErrNotFound
	}
	rec.acct.Cash = cash
	rec.acct.Stats = s
	return nil
}

func (m *Memory) resetAccount(id string) error {
	rec, ok := m.data[id]
	if !ok {
		return ErrNotFound
	}
	rec.positions = make(map[string]portfolio.Position)
	rec.trades = nil
	rec.acct.Cash = portfolio.StartingCash
	rec.acct.Stats = portfolio.Summary{TotalValue: portfolio.StartingCash}
	return nil
}

func (m *Memory) leaderboard(category string, limit int) ([]portfolio.Account, error) {
	out := make([]portfolio.Account, 0, len(m.data))
	for _, rec := range m.data {
		if category != "" && rec.acct.Category != category {
			continue
		}
		out = append(out, rec.acct)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Stats.PercentGain != out[j].Stats.PercentGain {
			return out[i].Stats.PercentGain > out[j].Stats.PercentGain
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) clone() map[string]*memAccount {
	out := make(map[string]*memAccount, len(m.data))
	for id, rec := range m.data {
		cp := &memAccount{
			acct:      rec.acct,
			positions: make(map[string]portfolio.Position, len(rec.positions)),
			trades:    append([]portfolio.Trade(nil), rec.trades...),
		}
		for t, p := range rec.positions {
			cp.positions[t] = p
		}
		out[id] = cp
	}
	return out
}
