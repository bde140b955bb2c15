package repository

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/yerzhan/wallet/internal/database"
	"gitlab.com/yerzhan/wallet/internal/models"
)

// TransactionRepository handles transaction database operations.
// Rows are only ever written through the ledger engine so that every
// mutation stays paired with a balance adjustment.
type TransactionRepository struct {
	db database.PGXDB
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db database.PGXDB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// currencyJoin attaches the owning asset's currency code and user to a
// transactions query. The tagged reference resolves against exactly one of
// the three asset tables.
const currencyJoin = `
	LEFT JOIN accounts a ON t.asset_kind = 'account' AND t.asset_id = a.id
	LEFT JOIN loans l ON t.asset_kind = 'loan' AND t.asset_id = l.id
	LEFT JOIN credit_cards cc ON t.asset_kind = 'credit_card' AND t.asset_id = cc.id`

const joinedColumns = `
	t.id, t.asset_kind, t.asset_id, t.name, t.amount, t.date, t.category_id,
	t.type, t.installments, t.due_date, t.created_at, t.updated_at,
	COALESCE(a.currency_code, l.currency_code, cc.currency_code)`

// Create inserts a transaction row.
func (r *TransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO transactions (asset_kind, asset_id, name, amount, date, category_id, type, installments, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, t.Asset.Kind, t.Asset.ID, t.Name, t.Amount, t.Date, t.CategoryID,
		t.Type, t.Installments, t.DueDate,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction with its asset currency attached.
func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.QueryRow(ctx, `
		SELECT `+joinedColumns+`
		FROM transactions t`+currencyJoin+`
		WHERE t.id = $1
	`, id).Scan(
		&t.ID, &t.Asset.Kind, &t.Asset.ID, &t.Name, &t.Amount, &t.Date,
		&t.CategoryID, &t.Type, &t.Installments, &t.DueDate,
		&t.CreatedAt, &t.UpdatedAt, &t.CurrencyCode,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &t, nil
}

// Update rewrites a transaction's mutable fields.
func (r *TransactionRepository) Update(ctx context.Context, t *models.Transaction) error {
	_, err := r.db.Exec(ctx, `
		UPDATE transactions SET
			asset_kind = $2,
			asset_id = $3,
			name = $4,
			amount = $5,
			date = $6,
			category_id = $7,
			type = $8,
			installments = $9,
			due_date = $10,
			updated_at = NOW()
		WHERE id = $1
	`, t.ID, t.Asset.Kind, t.Asset.ID, t.Name, t.Amount, t.Date,
		t.CategoryID, t.Type, t.Installments, t.DueDate)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

// Delete removes a transaction row.
func (r *TransactionRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) queryJoined(ctx context.Context, sql string, args ...any) ([]models.Transaction, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(
			&t.ID, &t.Asset.Kind, &t.Asset.ID, &t.Name, &t.Amount, &t.Date,
			&t.CategoryID, &t.Type, &t.Installments, &t.DueDate,
			&t.CreatedAt, &t.UpdatedAt, &t.CurrencyCode,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

// ListByAsset retrieves all transactions applied against one asset,
// oldest first.
func (r *TransactionRepository) ListByAsset(ctx context.Context, ref models.AssetRef) ([]models.Transaction, error) {
	return r.queryJoined(ctx, `
		SELECT `+joinedColumns+`
		FROM transactions t`+currencyJoin+`
		WHERE t.asset_kind = $1 AND t.asset_id = $2
		ORDER BY t.date, t.id
	`, ref.Kind, ref.ID)
}

// ListByUserAndDateRange retrieves a user's transactions within [start, end).
func (r *TransactionRepository) ListByUserAndDateRange(
	ctx context.Context,
	userID int64,
	start, end time.Time,
) ([]models.Transaction, error) {
	return r.queryJoined(ctx, `
		SELECT `+joinedColumns+`
		FROM transactions t`+currencyJoin+`
		WHERE COALESCE(a.user_id, l.user_id, cc.user_id) = $1
			AND t.date >= $2 AND t.date < $3
		ORDER BY t.date, t.id
	`, userID, start, end)
}

// ListLatest retrieves a user's most recent transactions, optionally hiding
// the synthetic transfer legs the way dashboards do.
func (r *TransactionRepository) ListLatest(
	ctx context.Context,
	userID int64,
	limit int,
	excludeTransfers bool,
) ([]models.Transaction, error) {
	return r.queryJoined(ctx, `
		SELECT `+joinedColumns+`
		FROM transactions t`+currencyJoin+`
		LEFT JOIN categories c ON t.category_id = c.id
		WHERE COALESCE(a.user_id, l.user_id, cc.user_id) = $1
			AND NOT ($3 AND COALESCE(c.is_transfer, FALSE))
		ORDER BY t.date DESC, t.id DESC
		LIMIT $2
	`, userID, limit, excludeTransfers)
}

// ListCardCharges retrieves a credit card's charges with a due date after
// the given day; input for the payment plan.
func (r *TransactionRepository) ListCardCharges(ctx context.Context, cardID int64, dueAfter time.Time) ([]models.Transaction, error) {
	return r.queryJoined(ctx, `
		SELECT `+joinedColumns+`
		FROM transactions t`+currencyJoin+`
		WHERE t.asset_kind = 'credit_card' AND t.asset_id = $1 AND t.due_date > $2
		ORDER BY t.due_date, t.id
	`, cardID, dueAfter)
}
