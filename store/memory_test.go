package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junaidmahmood-ws/papertrader/portfolio"
)

func seedAccount(t *testing.T, m *Memory, id string) {
	t.Helper()
	err := m.CreateAccount(context.Background(), portfolio.Account{
		ID:        id,
		Category:  "Student",
		Cash:      portfolio.StartingCash,
		Stats:     portfolio.Summary{TotalValue: portfolio.StartingCash},
		CreatedAt: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
}

func TestMemoryLoadUnknownAccount(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	_, err := m.LoadAccount(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	seedAccount(t, m, "holly")

	require.NoError(t, m.SavePosition(ctx, "holly", portfolio.Position{
		Ticker: "ABC", Name: "ABC Corp", Quantity: 10, AvgCost: 50, LastPrice: 50,
	}))
	require.NoError(t, m.SaveOrder(ctx, "holly", portfolio.Trade{
		ID: "01A", Ticker: "ABC", Side: portfolio.Buy, Kind: portfolio.Stock,
		Quantity: 10, Price: 50, TotalValue: 500,
		Time: time.Date(2025, 12, 2, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, m.SaveSummary(ctx, "holly", 9500, portfolio.Summary{
		TotalValue: 10000, PercentGain: 0, AmountGained: 0,
	}))

	st, err := m.LoadAccount(ctx, "holly")
	require.NoError(t, err)
	assert.InDelta(t, 9500, st.Account.Cash, 1e-12)
	require.Len(t, st.Positions, 1)
	require.Len(t, st.Trades, 1)
	assert.Equal(t, "01A", st.Trades[0].ID)

	require.NoError(t, m.DeletePosition(ctx, "holly", "ABC"))
	st, err = m.LoadAccount(ctx, "holly")
	require.NoError(t, err)
	assert.Empty(t, st.Positions)
}

func TestMemoryTransactRollsBack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	seedAccount(t, m, "holly")

	boom := errors.New("boom")
	err := m.Transact(ctx, func(s Store) error {
		if err := s.SavePosition(ctx, "holly", portfolio.Position{Ticker: "ABC", Quantity: 1, AvgCost: 1, LastPrice: 1}); err != nil {
			return err
		}
		if err := s.SaveSummary(ctx, "holly", 1, portfolio.Summary{TotalValue: 2}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	st, err := m.LoadAccount(ctx, "holly")
	require.NoError(t, err)
	assert.Empty(t, st.Positions, "rolled back position write")
	assert.InDelta(t, portfolio.StartingCash, st.Account.Cash, 1e-12, "rolled back summary write")
}

func TestMemoryTransactCommits(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	seedAccount(t, m, "holly")

	err := m.Transact(ctx, func(s Store) error {
		return s.SaveSummary(ctx, "holly", 9000, portfolio.Summary{TotalValue: 9000})
	})
	require.NoError(t, err)

	st, err := m.LoadAccount(ctx, "holly")
	require.NoError(t, err)
	assert.InDelta(t, 9000, st.Account.Cash, 1e-12)
}

func TestMemoryResetAccount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	seedAccount(t, m, "holly")
	require.NoError(t, m.SavePosition(ctx, "holly", portfolio.Position{Ticker: "ABC", Quantity: 1, AvgCost: 1, LastPrice: 1}))
	require.NoError(t, m.SaveOrder(ctx, "holly", portfolio.Trade{ID: "01A", Ticker: "ABC"}))

	require.NoError(t, m.ResetAccount(ctx, "holly"))

	st, err := m.LoadAccount(ctx, "holly")
	require.NoError(t, err)
	assert.Empty(t, st.Positions)
	assert.Empty(t, st.Trades)
	assert.InDelta(t, portfolio.StartingCash, st.Account.Cash, 1e-12)
}

func TestMemoryLeaderboard(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	for _, id := range []string{"a", "b", "c"} {
		seedAccount(t, m, id)
	}
	require.NoError(t, m.SaveSummary(ctx, "b", 12000, portfolio.Summary{TotalValue: 12000, PercentGain: 20, AmountGained: 2000}))
	require.NoError(t, m.SaveSummary(ctx, "c", 11000, portfolio.Summary{TotalValue: 11000, PercentGain: 10, AmountGained: 1000}))

	top, err := m.Leaderboard(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].ID)
	assert.Equal(t, "c", top[1].ID)
}
