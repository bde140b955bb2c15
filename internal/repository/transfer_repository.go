package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yerzhan/wallet/internal/database"
	"gitlab.com/yerzhan/wallet/internal/models"
)

// TransferRepository handles transfer database operations.
type TransferRepository struct {
	db database.PGXDB
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(db database.PGXDB) *TransferRepository {
	return &TransferRepository{db: db}
}

const transferColumns = `id, user_id, from_transaction_id, to_transaction_id, date, created_at, updated_at`

func scanTransfer(row interface{ Scan(dest ...any) error }, tr *models.Transfer) error {
	return row.Scan(
		&tr.ID, &tr.UserID, &tr.FromTransactionID, &tr.ToTransactionID,
		&tr.Date, &tr.CreatedAt, &tr.UpdatedAt,
	)
}

// Create inserts a transfer linking its two transactions.
func (r *TransferRepository) Create(ctx context.Context, tr *models.Transfer) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO transfers (user_id, from_transaction_id, to_transaction_id, date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, tr.UserID, tr.FromTransactionID, tr.ToTransactionID, tr.Date,
	).Scan(&tr.ID, &tr.CreatedAt, &tr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transfer: %w", err)
	}
	return nil
}

// GetByID retrieves a transfer by ID.
func (r *TransferRepository) GetByID(ctx context.Context, id int64) (*models.Transfer, error) {
	var tr models.Transfer
	err := scanTransfer(r.db.QueryRow(ctx, `
		SELECT `+transferColumns+` FROM transfers WHERE id = $1
	`, id), &tr)
	if err != nil {
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}
	return &tr, nil
}

// GetByTransactionID retrieves the transfer a transaction participates in,
// or nil when the transaction is not a transfer leg.
func (r *TransferRepository) GetByTransactionID(ctx context.Context, txID int64) (*models.Transfer, error) {
	var tr models.Transfer
	err := scanTransfer(r.db.QueryRow(ctx, `
		SELECT `+transferColumns+` FROM transfers
		WHERE from_transaction_id = $1 OR to_transaction_id = $1
	`, txID), &tr)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transfer by transaction: %w", err)
	}
	return &tr, nil
}

// UpdateDate sets a transfer's date.
func (r *TransferRepository) UpdateDate(ctx context.Context, id int64, date time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE transfers SET date = $2, updated_at = NOW() WHERE id = $1
	`, id, date)
	if err != nil {
		return fmt.Errorf("failed to update transfer: %w", err)
	}
	return nil
}

// Delete removes a transfer row. The legs are deleted separately by the
// transfer engine so their balance effects are reversed first.
func (r *TransferRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM transfers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transfer: %w", err)
	}
	return nil
}

// ListLatest retrieves a user's most recent transfers.
func (r *TransferRepository) ListLatest(ctx context.Context, userID int64, limit int) ([]models.Transfer, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+transferColumns+` FROM transfers
		WHERE user_id = $1
		ORDER BY date DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	var transfers []models.Transfer
	for rows.Next() {
		var tr models.Transfer
		if err := scanTransfer(rows, &tr); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		transfers = append(transfers, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transfers: %w", err)
	}
	return transfers, nil
}
