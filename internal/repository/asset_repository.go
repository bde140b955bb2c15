package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gitlab.com/yerzhan/wallet/internal/database"
	"gitlab.com/yerzhan/wallet/internal/models"
)

// assetTables maps an asset kind to its backing table. Kinds outside this
// map never reach SQL.
var assetTables = map[models.AssetKind]string{
	models.AssetAccount:    "accounts",
	models.AssetLoan:       "loans",
	models.AssetCreditCard: "credit_cards",
}

// AssetRepository handles account, loan and credit-card database operations.
// The three kinds share one shape; credit cards additionally carry a
// payment day.
type AssetRepository struct {
	db database.PGXDB
}

// NewAssetRepository creates a new AssetRepository.
func NewAssetRepository(db database.PGXDB) *AssetRepository {
	return &AssetRepository{db: db}
}

func tableFor(kind models.AssetKind) (string, error) {
	table, ok := assetTables[kind]
	if !ok {
		return "", fmt.Errorf("unknown asset kind %q", kind)
	}
	return table, nil
}

// Create adds a new asset of the given kind. Balance starts at the initial
// snapshot.
func (r *AssetRepository) Create(ctx context.Context, asset *models.Asset) error {
	table, err := tableFor(asset.Kind)
	if err != nil {
		return err
	}

	asset.Balance = asset.Initial
	if asset.Kind == models.AssetCreditCard {
		err = r.db.QueryRow(ctx, fmt.Sprintf(`
			INSERT INTO %s (user_id, name, balance, initial, currency_code, payment_day)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, is_active, created_at
		`, table), asset.UserID, asset.Name, asset.Balance, asset.Initial,
			asset.CurrencyCode, asset.PaymentDay,
		).Scan(&asset.ID, &asset.IsActive, &asset.CreatedAt)
	} else {
		err = r.db.QueryRow(ctx, fmt.Sprintf(`
			INSERT INTO %s (user_id, name, balance, initial, currency_code)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, is_active, created_at
		`, table), asset.UserID, asset.Name, asset.Balance, asset.Initial,
			asset.CurrencyCode,
		).Scan(&asset.ID, &asset.IsActive, &asset.CreatedAt)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", asset.Kind, err)
	}
	return nil
}

func (r *AssetRepository) resolve(ctx context.Context, ref models.AssetRef, forUpdate bool) (*models.Asset, error) {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return nil, err
	}

	paymentDay := "0"
	if ref.Kind == models.AssetCreditCard {
		paymentDay = "payment_day"
	}
	lock := ""
	if forUpdate {
		lock = " FOR UPDATE"
	}

	asset := models.Asset{Kind: ref.Kind}
	err = r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT id, user_id, name, balance, initial, currency_code, is_active, %s, created_at
		FROM %s WHERE id = $1%s
	`, paymentDay, table, lock), ref.ID).Scan(
		&asset.ID, &asset.UserID, &asset.Name, &asset.Balance, &asset.Initial,
		&asset.CurrencyCode, &asset.IsActive, &asset.PaymentDay, &asset.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %d: %w", ref.Kind, ref.ID, err)
	}
	return &asset, nil
}

// Resolve looks up the asset a tagged reference points at.
func (r *AssetRepository) Resolve(ctx context.Context, ref models.AssetRef) (*models.Asset, error) {
	return r.resolve(ctx, ref, false)
}

// ResolveForUpdate looks up an asset and locks its row for the duration of
// the surrounding transaction. Balance read-modify-write must go through
// this to stay safe under concurrent edits.
func (r *AssetRepository) ResolveForUpdate(ctx context.Context, ref models.AssetRef) (*models.Asset, error) {
	return r.resolve(ctx, ref, true)
}

// ListActive retrieves a user's active assets of one kind.
func (r *AssetRepository) ListActive(ctx context.Context, userID int64, kind models.AssetKind) ([]models.Asset, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	paymentDay := "0"
	if kind == models.AssetCreditCard {
		paymentDay = "payment_day"
	}

	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT id, user_id, name, balance, initial, currency_code, is_active, %s, created_at
		FROM %s WHERE user_id = $1 AND is_active
		ORDER BY name
	`, paymentDay, table), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %ss: %w", kind, err)
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		asset := models.Asset{Kind: kind}
		if err := rows.Scan(
			&asset.ID, &asset.UserID, &asset.Name, &asset.Balance, &asset.Initial,
			&asset.CurrencyCode, &asset.IsActive, &asset.PaymentDay, &asset.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", kind, err)
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %ss: %w", kind, err)
	}
	return assets, nil
}

// ApplyDelta adjusts an asset's balance by the given signed amount.
// Callers must hold the asset's row lock (ResolveForUpdate) in the same
// transaction.
func (r *AssetRepository) ApplyDelta(ctx context.Context, ref models.AssetRef, delta decimal.Decimal) error {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, fmt.Sprintf(`
		UPDATE %s SET balance = balance + $2 WHERE id = $1
	`, table), ref.ID, delta)
	if err != nil {
		return fmt.Errorf("failed to apply balance delta to %s %d: %w", ref.Kind, ref.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no %s with id %d", ref.Kind, ref.ID)
	}
	return nil
}

// Rename changes an asset's display name.
func (r *AssetRepository) Rename(ctx context.Context, ref models.AssetRef, name string) error {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, fmt.Sprintf(`
		UPDATE %s SET name = $2 WHERE id = $1
	`, table), ref.ID, name)
	if err != nil {
		return fmt.Errorf("failed to rename %s %d: %w", ref.Kind, ref.ID, err)
	}
	return nil
}

// Deactivate soft-deletes an asset. History referencing it stays intact.
func (r *AssetRepository) Deactivate(ctx context.Context, ref models.AssetRef) error {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, fmt.Sprintf(`
		UPDATE %s SET is_active = FALSE WHERE id = $1
	`, table), ref.ID)
	if err != nil {
		return fmt.Errorf("failed to deactivate %s %d: %w", ref.Kind, ref.ID, err)
	}
	return nil
}
