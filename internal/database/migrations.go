package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunMigrations creates the database schema.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			is_guest BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS currencies (
			code TEXT PRIMARY KEY CHECK (char_length(code) = 3),
			name TEXT NOT NULL,
			symbol TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS rates (
			currency_code TEXT PRIMARY KEY REFERENCES currencies(code) ON DELETE CASCADE,
			rate DECIMAL(20, 10) NOT NULL CHECK (rate > 0),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS user_preferences (
			user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			currency_code TEXT NOT NULL REFERENCES currencies(code)
		)`,

		`CREATE TABLE IF NOT EXISTS accounts (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			balance DECIMAL(14, 2) NOT NULL DEFAULT 0,
			initial DECIMAL(14, 2) NOT NULL DEFAULT 0,
			currency_code TEXT NOT NULL REFERENCES currencies(code),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS loans (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			balance DECIMAL(14, 2) NOT NULL DEFAULT 0,
			initial DECIMAL(14, 2) NOT NULL DEFAULT 0,
			currency_code TEXT NOT NULL REFERENCES currencies(code),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS credit_cards (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			balance DECIMAL(14, 2) NOT NULL DEFAULT 0,
			initial DECIMAL(14, 2) NOT NULL DEFAULT 0,
			currency_code TEXT NOT NULL REFERENCES currencies(code),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			payment_day INTEGER NOT NULL CHECK (payment_day BETWEEN 1 AND 31),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Asset names are unique per user only among active assets; a
		// deactivated asset frees its name.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_user_name_active
			ON accounts(user_id, name) WHERE is_active`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_loans_user_name_active
			ON loans(user_id, name) WHERE is_active`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_credit_cards_user_name_active
			ON credit_cards(user_id, name) WHERE is_active`,

		`CREATE TABLE IF NOT EXISTS categories (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			parent_id BIGINT REFERENCES categories(id) ON DELETE CASCADE,
			type TEXT NOT NULL CHECK (type IN ('E', 'I')),
			is_transfer BOOLEAN NOT NULL DEFAULT FALSE,
			is_protected BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Sibling names are unique under a parent; root names are unique per
		// (user, type) since NULL parents are distinct to the constraint.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_parent_name
			ON categories(parent_id, name) WHERE parent_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_root_name
			ON categories(user_id, type, name) WHERE parent_id IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_categories_user_id ON categories(user_id)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			asset_kind TEXT NOT NULL CHECK (asset_kind IN ('account', 'loan', 'credit_card')),
			asset_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			amount DECIMAL(14, 2) NOT NULL CHECK (amount >= 0),
			date DATE NOT NULL DEFAULT CURRENT_DATE,
			category_id BIGINT REFERENCES categories(id) ON DELETE SET NULL,
			type TEXT NOT NULL CHECK (type IN ('E', 'I')),
			installments INTEGER CHECK (installments > 0),
			due_date DATE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_transactions_asset ON transactions(asset_kind, asset_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_category_id ON transactions(category_id)`,

		`CREATE TABLE IF NOT EXISTS transfers (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			from_transaction_id BIGINT NOT NULL UNIQUE REFERENCES transactions(id) ON DELETE CASCADE,
			to_transaction_id BIGINT NOT NULL UNIQUE REFERENCES transactions(id) ON DELETE CASCADE,
			date DATE NOT NULL DEFAULT CURRENT_DATE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_transfers_user_id ON transfers(user_id)`,
	}

	for i, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

// SeedCurrencies inserts the reference currency rows and pins the base
// currency's rate to 1.
func SeedCurrencies(ctx context.Context, pool *pgxpool.Pool, baseCurrency string) error {
	currencies := [][3]string{
		{"USD", "US Dollar", "$"},
		{"EUR", "Euro", "€"},
		{"GBP", "British Pound", "£"},
		{"JPY", "Japanese Yen", "¥"},
		{"CNY", "Chinese Yuan", "¥"},
		{"KZT", "Kazakhstani Tenge", "₸"},
		{"RUB", "Russian Ruble", "₽"},
		{"TRY", "Turkish Lira", "₺"},
		{"INR", "Indian Rupee", "₹"},
		{"KRW", "South Korean Won", "₩"},
		{"SGD", "Singapore Dollar", "S$"},
		{"AUD", "Australian Dollar", "A$"},
		{"CAD", "Canadian Dollar", "C$"},
		{"CHF", "Swiss Franc", "Fr"},
	}

	for _, cur := range currencies {
		_, err := pool.Exec(ctx, `
			INSERT INTO currencies (code, name, symbol) VALUES ($1, $2, $3)
			ON CONFLICT (code) DO NOTHING
		`, cur[0], cur[1], cur[2])
		if err != nil {
			return fmt.Errorf("failed to seed currency %q: %w", cur[0], err)
		}
	}

	// The base currency anchors the rate table; everything else is stored
	// relative to it.
	_, err := pool.Exec(ctx, `
		INSERT INTO rates (currency_code, rate) VALUES ($1, 1)
		ON CONFLICT (currency_code) DO UPDATE SET rate = 1, updated_at = NOW()
	`, baseCurrency)
	if err != nil {
		return fmt.Errorf("failed to seed base currency rate: %w", err)
	}

	return nil
}
