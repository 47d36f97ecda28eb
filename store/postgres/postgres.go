// Package postgres is the networked portfolio store, persisted through
// PostgreSQL via gorm. It mirrors the sqlite store's three tables.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/junaidmahmood-ws/papertrader/portfolio"
	"github.com/junaidmahmood-ws/papertrader/store"
)

type accountRow struct {
	ID           string `gorm:"primaryKey"`
	Category     string
	Cash         float64
	TotalValue   float64
	PercentGain  float64
	AmountGained float64
	CreatedAt    time.Time
}

func (accountRow) TableName() string { return "accounts" }

type positionRow struct {
	AccountID string `gorm:"primaryKey;index"`
	Ticker    string `gorm:"primaryKey"`
	Name      string
	Quantity  float64
	AvgCost   float64
	LastPrice float64
	UpdatedAt time.Time
}

func (positionRow) TableName() string { return "positions" }

type orderRow struct {
	ID            string `gorm:"primaryKey"`
	AccountID     string `gorm:"index:idx_orders_account_time"`
	Ticker        string
	Name          string
	Kind          string
	Side          string
	Quantity      float64
	Price         float64
	TotalValue    float64
	OptionDetails *string
	CreatedAt     time.Time `gorm:"index:idx_orders_account_time"`
}

func (orderRow) TableName() string { return "orders" }

type Store struct {
	db *gorm.DB
}

// Open connects with a DSN like
// "host=localhost user=app password=... dbname=papertrader port=5432"
// and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.AutoMigrate(&accountRow{}, &positionRow{}, &orderRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) CreateAccount(ctx context.Context, acct portfolio.Account) error {
	row := accountRow{
		ID:           acct.ID,
		Category:     acct.Category,
		Cash:         acct.Cash,
		TotalValue:   acct.Stats.TotalValue,
		PercentGain:  acct.Stats.PercentGain,
		AmountGained: acct.Stats.AmountGained,
		CreatedAt:    acct.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *Store) LoadAccount(ctx context.Context, id string) (store.AccountState, error) {
	var row accountRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.AccountState{}, store.ErrNotFound
	}
	if err != nil {
		return store.AccountState{}, err
	}

	st := store.AccountState{Account: accountFromRow(row)}

	var posRows []positionRow
	if err := s.db.WithContext(ctx).
		Where("account_id = ?", id).Order("ticker").Find(&posRows).Error; err != nil {
		return store.AccountState{}, err
	}
	for _, r := range posRows {
		st.Positions = append(st.Positions, portfolio.Position{
			Ticker:    r.Ticker,
			Name:      r.Name,
			Quantity:  r.Quantity,
			AvgCost:   r.AvgCost,
			LastPrice: r.LastPrice,
			UpdatedAt: r.UpdatedAt,
		})
	}

	var ordRows []orderRow
	if err := s.db.WithContext(ctx).
		Where("account_id = ?", id).Order("created_at, id").Find(&ordRows).Error; err != nil {
		return store.AccountState{}, err
	}
	for _, r := range ordRows {
		t, err := tradeFromRow(r)
		if err != nil {
			return store.AccountState{}, err
		}
		st.Trades = append(st.Trades, t)
	}
	return st, nil
}

func (s *Store) SaveOrder(ctx context.Context, accountID string, t portfolio.Trade) error {
	row := orderRow{
		ID:         t.ID,
		AccountID:  accountID,
		Ticker:     t.Ticker,
		Name:       t.Name,
		Kind:       string(t.Kind),
		Side:       string(t.Side),
		Quantity:   t.Quantity,
		Price:      t.Price,
		TotalValue: t.TotalValue,
		CreatedAt:  t.Time,
	}
	if t.Option != nil {
		b, err := json.Marshal(t.Option)
		if err != nil {
			return err
		}
		enc := string(b)
		row.OptionDetails = &enc
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *Store) SavePosition(ctx context.Context, accountID string, p portfolio.Position) error {
	row := positionRow{
		AccountID: accountID,
		Ticker:    p.Ticker,
		Name:      p.Name,
		Quantity:  p.Quantity,
		AvgCost:   p.AvgCost,
		LastPrice: p.LastPrice,
		UpdatedAt: p.UpdatedAt,
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *Store) DeletePosition(ctx context.Context, accountID, ticker string) error {
	return s.db.WithContext(ctx).
		Where("account_id = ? AND ticker = ?", accountID, ticker).
		Delete(&positionRow{}).Error
}

func (s *Store) SaveSummary(ctx context.Context, accountID string, cash float64, sum portfolio.Summary) error {
	res := s.db.WithContext(ctx).Model(&accountRow{}).
		Where("id = ?", accountID).
		Updates(map[string]any{
			"cash":          cash,
			"total_value":   sum.TotalValue,
			"percent_gain":  sum.PercentGain,
			"amount_gained": sum.AmountGained,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ResetAccount(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).
		Where("account_id = ?", id).Delete(&positionRow{}).Error; err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).
		Where("account_id = ?", id).Delete(&orderRow{}).Error; err != nil {
		return err
	}
	return s.SaveSummary(ctx, id, portfolio.StartingCash,
		portfolio.Summary{TotalValue: portfolio.StartingCash})
}

func (s *Store) Leaderboard(ctx context.Context, category string, limit int) ([]portfolio.Account, error) {
	q := s.db.WithContext(ctx).Model(&accountRow{}).Order("percent_gain DESC, id")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []accountRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]portfolio.Account, 0, len(rows))
	for _, r := range rows {
		out = append(out, accountFromRow(r))
	}
	return out, nil
}

func (s *Store) Transact(ctx context.Context, fn func(store.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func accountFromRow(r accountRow) portfolio.Account {
	return portfolio.Account{
		ID:       r.ID,
		Category: r.Category,
		Cash:     r.Cash,
		Stats: portfolio.Summary{
			TotalValue:   r.TotalValue,
			PercentGain:  r.PercentGain,
			AmountGained: r.AmountGained,
		},
		CreatedAt: r.CreatedAt,
	}
}

func tradeFromRow(r orderRow) (portfolio.Trade, error) {
	t := portfolio.Trade{
		ID:         r.ID,
		Ticker:     r.Ticker,
		Name:       r.Name,
		Kind:       portfolio.Kind(r.Kind),
		Side:       portfolio.Side(r.Side),
		Quantity:   r.Quantity,
		Price:      r.Price,
		TotalValue: r.TotalValue,
		Time:       r.CreatedAt,
	}
	if r.OptionDetails != nil && *r.OptionDetails != "" {
		var od portfolio.OptionDetails
		if err := json.Unmarshal([]byte(*r.OptionDetails), &od); err != nil {
			return portfolio.Trade{}, fmt.Errorf("decode option details for order %s: %w", r.ID, err)
		}
		t.Option = &od
	}
	return t, nil
}
