// Package sqlite is the local durable portfolio store, a single file on
// disk opened through mattn/go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/junaidmahmood-ws/papertrader/portfolio"
	"github.com/junaidmahmood-ws/papertrader/store"
)

type Store struct {
	db *sql.DB
	q  querier
}

// querier is satisfied by both *sql.DB and *sql.Tx so every statement
// below works inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &Store{db: db, q: db}, nil
}

func (s *Store) CreateAccount(ctx context.Context, acct portfolio.Account) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO accounts
		(id, category, cash, total_value, percent_gain, amount_gained, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		acct.ID, acct.Category, acct.Cash,
		acct.Stats.TotalValue, acct.Stats.PercentGain, acct.Stats.AmountGained,
		acct.CreatedAt,
	)
	return err
}

func (s *Store) LoadAccount(ctx context.Context, id string) (store.AccountState, error) {
	var st store.AccountState

	row := s.q.QueryRowContext(ctx, `
		SELECT id, category, cash, total_value, percent_gain, amount_gained, created_at
		FROM accounts WHERE id = ?`, id)

	a := &st.Account
	err := row.Scan(&a.ID, &a.Category, &a.Cash,
		&a.Stats.TotalValue, &a.Stats.PercentGain, &a.Stats.AmountGained, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return store.AccountState{}, store.ErrNotFound
	}
	if err != nil {
		return store.AccountState{}, err
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT ticker, name, quantity, avg_cost, last_price, updated_at
		FROM positions WHERE account_id = ? ORDER BY ticker`, id)
	if err != nil {
		return store.AccountState{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var p portfolio.Position
		if err := rows.Scan(&p.Ticker, &p.Name, &p.Quantity, &p.AvgCost, &p.LastPrice, &p.UpdatedAt); err != nil {
			return store.AccountState{}, err
		}
		st.Positions = append(st.Positions, p)
	}
	if err := rows.Err(); err != nil {
		return store.AccountState{}, err
	}

	st.Trades, err = s.listOrders(ctx, id)
	if err != nil {
		return store.AccountState{}, err
	}
	return st, nil
}

func (s *Store) listOrders(ctx context.Context, accountID string) ([]portfolio.Trade, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, ticker, name, kind, side, quantity, price, total_value, option_details, created_at
		FROM orders WHERE account_id = ? ORDER BY created_at, id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []portfolio.Trade
	for rows.Next() {
		var t portfolio.Trade
		var opt sql.NullString
		if err := rows.Scan(&t.ID, &t.Ticker, &t.Name, &t.Kind, &t.Side,
			&t.Quantity, &t.Price, &t.TotalValue, &opt, &t.Time); err != nil {
			return nil, err
		}
		if opt.Valid && opt.String != "" {
			var od portfolio.OptionDetails
			if err := json.Unmarshal([]byte(opt.String), &od); err != nil {
				return nil, fmt.Errorf("decode option details for order %s: %w", t.ID, err)
			}
			t.Option = &od
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func (s *Store) SaveOrder(ctx context.Context, accountID string, t portfolio.Trade) error {
	var opt any
	if t.Option != nil {
		b, err := json.Marshal(t.Option)
		if err != nil {
			return err
		}
		opt = string(b)
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO orders
		(id, account_id, ticker, name, kind, side, quantity, price, total_value, option_details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, accountID, t.Ticker, t.Name, t.Kind, t.Side,
		t.Quantity, t.Price, t.TotalValue, opt, t.Time,
	)
	return err
}

func (s *Store) SavePosition(ctx context.Context, accountID string, p portfolio.Position) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO positions
		(account_id, ticker, name, quantity, avg_cost, last_price, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id, ticker) DO UPDATE SET
			name = excluded.name,
			quantity = excluded.quantity,
			avg_cost = excluded.avg_cost,
			last_price = excluded.last_price,
			updated_at = excluded.updated_at`,
		accountID, p.Ticker, p.Name, p.Quantity, p.AvgCost, p.LastPrice, p.UpdatedAt,
	)
	return err
}

func (s *Store) DeletePosition(ctx context.Context, accountID, ticker string) error {
	_, err := s.q.ExecContext(ctx,
		`DELETE FROM positions WHERE account_id = ? AND ticker = ?`,
		accountID, ticker)
	return err
}

func (s *Store) SaveSummary(ctx context.Context, accountID string, cash float64, sum portfolio.Summary) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE accounts
		SET cash = ?, total_value = ?, percent_gain = ?, amount_gained = ?
		WHERE id = ?`,
		cash, sum.TotalValue, sum.PercentGain, sum.AmountGained, accountID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ResetAccount(ctx context.Context, id string) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM positions WHERE account_id = ?`, id); err != nil {
		return err
	}
	if _, err := s.q.ExecContext(ctx, `DELETE FROM orders WHERE account_id = ?`, id); err != nil {
		return err
	}
	return s.SaveSummary(ctx, id, portfolio.StartingCash,
		portfolio.Summary{TotalValue: portfolio.StartingCash})
}

func (s *Store) Leaderboard(ctx context.Context, category string, limit int) ([]portfolio.Account, error) {
	query := `
		SELECT id, category, cash, total_value, percent_gain, amount_gained, created_at
		FROM accounts`
	args := []any{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY percent_gain DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []portfolio.Account
	for rows.Next() {
		var a portfolio.Account
		if err := rows.Scan(&a.ID, &a.Category, &a.Cash,
			&a.Stats.TotalValue, &a.Stats.PercentGain, &a.Stats.AmountGained, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Transact runs fn inside one SQL transaction; every store method
// called on the Store passed to fn executes against that transaction.
func (s *Store) Transact(ctx context.Context, fn func(store.Store) error) error {
	if _, nested := s.q.(*sql.Tx); nested {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(&Store{db: s.db, q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

func (s *Store) Close() error {
	return s.db.Close()
}
