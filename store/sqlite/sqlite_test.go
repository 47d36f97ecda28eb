package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junaidmahmood-ws/papertrader/portfolio"
	"github.com/junaidmahmood-ws/papertrader/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "papertrader.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedAccount(t *testing.T, s *Store, id string) {
	t.Helper()
	err := s.CreateAccount(context.Background(), portfolio.Account{
		ID:        id,
		Category:  "Student",
		Cash:      portfolio.StartingCash,
		Stats:     portfolio.Summary{TotalValue: portfolio.StartingCash},
		CreatedAt: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
}

func TestLoadUnknownAccount(t *testing.T) {
	s := newTestStore(t)
	_, err := s.LoadAccount(context.Background(), "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAccountRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedAccount(t, s, "holly")

	require.NoError(t, s.SavePosition(ctx, "holly", portfolio.Position{
		Ticker: "ABC", Name: "ABC Corp", Quantity: 10, AvgCost: 50, LastPrice: 52,
		UpdatedAt: time.Date(2025, 12, 2, 9, 30, 0, 0, time.UTC),
	}))
	require.NoError(t, s.SaveOrder(ctx, "holly", portfolio.Trade{
		ID: "01AAAA", Ticker: "ABC", Name: "ABC Corp",
		Kind: portfolio.Stock, Side: portfolio.Buy,
		Quantity: 10, Price: 50, TotalValue: 500,
		Time: time.Date(2025, 12, 2, 9, 30, 0, 0, time.UTC),
	}))
	require.NoError(t, s.SaveSummary(ctx, "holly", 9500, portfolio.Summary{
		TotalValue: 10020, PercentGain: 0.2, AmountGained: 20,
	}))

	st, err := s.LoadAccount(ctx, "holly")
	require.NoError(t, err)
	assert.Equal(t, "Student", st.Account.Category)
	assert.InDelta(t, 9500, st.Account.Cash, 1e-9)
	assert.InDelta(t, 10020, st.Account.Stats.TotalValue, 1e-9)

	require.Len(t, st.Positions, 1)
	assert.InDelta(t, 10, st.Positions[0].Quantity, 1e-9)
	assert.InDelta(t, 52, st.Positions[0].LastPrice, 1e-9)

	require.Len(t, st.Trades, 1)
	assert.Equal(t, "01AAAA", st.Trades[0].ID)
	assert.Equal(t, portfolio.Buy, st.Trades[0].Side)
	assert.Nil(t, st.Trades[0].Option)
}

func TestSavePositionUpserts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedAccount(t, s, "holly")

	p := portfolio.Position{Ticker: "ABC", Name: "ABC Corp", Quantity: 10, AvgCost: 50, LastPrice: 50}
	require.NoError(t, s.SavePosition(ctx, "holly", p))
	p.Quantity, p.AvgCost, p.LastPrice = 20, 55, 60
	require.NoError(t, s.SavePosition(ctx, "holly", p))

	st, err := s.LoadAccount(ctx, "holly")
	require.NoError(t, err)
	require.Len(t, st.Positions, 1)
	assert.InDelta(t, 20, st.Positions[0].Quantity, 1e-9)
	assert.InDelta(t, 55, st.Positions[0].AvgCost, 1e-9)

	require.NoError(t, s.DeletePosition(ctx, "holly", "ABC"))
	st, err = s.LoadAccount(ctx, "holly")
	require.NoError(t, err)
	assert.Empty(t, st.Positions)
}

func TestOptionDetailsSurviveRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedAccount(t, s, "holly")

	require.NoError(t, s.SaveOrder(ctx, "holly", portfolio.Trade{
		ID: "01BBBB", Ticker: "ABC251219C00055000", Name: "ABC $55 Call",
		Kind: portfolio.Option, Side: portfolio.Buy,
		Quantity: 2, Price: 3.5, TotalValue: 7,
		Time: time.Date(2025, 12, 3, 0, 0, 0, 0, time.UTC),
		Option: &portfolio.OptionDetails{
			ContractType: portfolio.Call, Strike: 55, Expiration: "2025-12-19",
		},
	}))

	st, err := s.LoadAccount(ctx, "holly")
	require.NoError(t, err)
	require.Len(t, st.Trades, 1)
	require.NotNil(t, st.Trades[0].Option)
	assert.Equal(t, portfolio.Call, st.Trades[0].Option.ContractType)
	assert.InDelta(t, 55, st.Trades[0].Option.Strike, 1e-9)
	assert.Equal(t, "2025-12-19", st.Trades[0].Option.Expiration)
}

func TestSaveSummaryUnknownAccount(t *testing.T) {
	s := newTestStore(t)
	err := s.SaveSummary(context.Background(), "nobody", 1, portfolio.Summary{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTransactRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedAccount(t, s, "holly")

	boom := errors.New("boom")
	err := s.Transact(ctx, func(tx store.Store) error {
		if err := tx.SaveOrder(ctx, "holly", portfolio.Trade{
			ID: "01CCCC", Ticker: "ABC", Kind: portfolio.Stock, Side: portfolio.Buy,
			Quantity: 1, Price: 1, TotalValue: 1, Time: time.Now(),
		}); err != nil {
			return err
		}
		if err := tx.SaveSummary(ctx, "holly", 9999, portfolio.Summary{TotalValue: 9999}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	st, err := s.LoadAccount(ctx, "holly")
	require.NoError(t, err)
	assert.Empty(t, st.Trades, "order insert rolled back")
	assert.InDelta(t, portfolio.StartingCash, st.Account.Cash, 1e-9, "summary update rolled back")
}

func TestResetAccount(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedAccount(t, s, "holly")
	require.NoError(t, s.SavePosition(ctx, "holly", portfolio.Position{Ticker: "ABC", Quantity: 1, AvgCost: 1, LastPrice: 1}))
	require.NoError(t, s.SaveOrder(ctx, "holly", portfolio.Trade{ID: "01DDDD", Ticker: "ABC", Kind: portfolio.Stock, Side: portfolio.Buy, Quantity: 1, Price: 1, TotalValue: 1, Time: time.Now()}))
	require.NoError(t, s.SaveSummary(ctx, "holly", 123, portfolio.Summary{TotalValue: 456}))

	require.NoError(t, s.ResetAccount(ctx, "holly"))

	st, err := s.LoadAccount(ctx, "holly")
	require.NoError(t, err)
	assert.Empty(t, st.Positions)
	assert.Empty(t, st.Trades)
	assert.InDelta(t, portfolio.StartingCash, st.Account.Cash, 1e-9)
	assert.InDelta(t, portfolio.StartingCash, st.Account.Stats.TotalValue, 1e-9)
}

func TestLeaderboardOrderingAndFilter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	accounts := []struct {
		id       string
		category string
		gain     float64
	}{
		{"alice", "Student", 5},
		{"bob", "Advanced", 30},
		{"carol", "Student", 12},
	}
	for _, a := range accounts {
		require.NoError(t, s.CreateAccount(ctx, portfolio.Account{
			ID: a.id, Category: a.category,
			Cash:      portfolio.StartingCash,
			Stats:     portfolio.Summary{TotalValue: portfolio.StartingCash, PercentGain: a.gain},
			CreatedAt: time.Now(),
		}))
	}

	all, err := s.Leaderboard(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "bob", all[0].ID)
	assert.Equal(t, "carol", all[1].ID)
	assert.Equal(t, "alice", all[2].ID)

	students, err := s.Leaderboard(ctx, "Student", 1)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "carol", students[0].ID)
}
