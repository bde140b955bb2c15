package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gitlab.com/yerzhan/wallet/internal/database"
	"gitlab.com/yerzhan/wallet/internal/models"
)

// CurrencyRepository handles currency and exchange-rate database operations.
type CurrencyRepository struct {
	db database.PGXDB
}

// NewCurrencyRepository creates a new CurrencyRepository.
func NewCurrencyRepository(db database.PGXDB) *CurrencyRepository {
	return &CurrencyRepository{db: db}
}

// List retrieves all currencies.
func (r *CurrencyRepository) List(ctx context.Context) ([]models.Currency, error) {
	rows, err := r.db.Query(ctx, `
		SELECT code, name, symbol FROM currencies ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query currencies: %w", err)
	}
	defer rows.Close()

	var currencies []models.Currency
	for rows.Next() {
		var cur models.Currency
		if err := rows.Scan(&cur.Code, &cur.Name, &cur.Symbol); err != nil {
			return nil, fmt.Errorf("failed to scan currency: %w", err)
		}
		currencies = append(currencies, cur)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating currencies: %w", err)
	}
	return currencies, nil
}

// GetByCode retrieves a currency by its 3-letter code.
func (r *CurrencyRepository) GetByCode(ctx context.Context, code string) (*models.Currency, error) {
	var cur models.Currency
	err := r.db.QueryRow(ctx, `
		SELECT code, name, symbol FROM currencies WHERE code = $1
	`, code).Scan(&cur.Code, &cur.Name, &cur.Symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get currency: %w", err)
	}
	return &cur, nil
}

// UpsertRate stores the latest rate for a currency relative to the base.
func (r *CurrencyRepository) UpsertRate(ctx context.Context, code string, rate decimal.Decimal) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO rates (currency_code, rate) VALUES ($1, $2)
		ON CONFLICT (currency_code) DO UPDATE SET rate = EXCLUDED.rate, updated_at = NOW()
	`, code, rate)
	if err != nil {
		return fmt.Errorf("failed to upsert rate for %s: %w", code, err)
	}
	return nil
}

// GetRate retrieves the stored rate for one currency.
func (r *CurrencyRepository) GetRate(ctx context.Context, code string) (*models.Rate, error) {
	var rate models.Rate
	err := r.db.QueryRow(ctx, `
		SELECT currency_code, rate, updated_at FROM rates WHERE currency_code = $1
	`, code).Scan(&rate.CurrencyCode, &rate.Rate, &rate.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get rate for %s: %w", code, err)
	}
	return &rate, nil
}

// LoadRates retrieves the whole rate table keyed by currency code.
func (r *CurrencyRepository) LoadRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	rows, err := r.db.Query(ctx, `SELECT currency_code, rate FROM rates`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rates: %w", err)
	}
	defer rows.Close()

	rates := make(map[string]decimal.Decimal)
	for rows.Next() {
		var code string
		var rate decimal.Decimal
		if err := rows.Scan(&code, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan rate: %w", err)
		}
		rates[code] = rate
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rates: %w", err)
	}
	return rates, nil
}
