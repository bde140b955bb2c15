package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yerzhan/wallet/internal/database"
	"gitlab.com/yerzhan/wallet/internal/logger"
	"gitlab.com/yerzhan/wallet/internal/models"
	"gitlab.com/yerzhan/wallet/internal/repository"
)

// Engine is the single writer for transactions. Every create, edit and
// delete pairs the record change with its balance adjustment inside one
// storage transaction, with the touched asset rows locked for update.
type Engine struct {
	db database.DB
}

// NewEngine creates a transaction engine on top of a pool or an open
// transaction.
func NewEngine(db database.DB) *Engine {
	return &Engine{db: db}
}

// TransactionInput carries the validated fields for a new transaction.
type TransactionInput struct {
	UserID       int64
	Asset        models.AssetRef
	Name         string
	Amount       decimal.Decimal
	Date         time.Time
	CategoryID   *int64
	Type         models.TransactionType
	Installments *int
}

// TransactionEdit lists the fields an edit may change; nil means keep the
// current value.
type TransactionEdit struct {
	Asset        *models.AssetRef
	Name         *string
	Amount       *decimal.Decimal
	Date         *time.Time
	CategoryID   *int64
	Type         *models.TransactionType
	Installments *int
}

// CreateTransaction validates, persists and applies a new ledger entry.
func (e *Engine) CreateTransaction(ctx context.Context, input TransactionInput) (*models.Transaction, error) {
	tx, err := e.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created, err := createInTx(ctx, tx, input)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction create: %w", err)
	}

	logger.Log.Debug().
		Str("user_hash", logger.HashUserID(input.UserID)).
		Str("asset_kind", string(input.Asset.Kind)).
		Str("type", string(input.Type)).
		Msg("Transaction created")
	return created, nil
}

// createInTx runs the create inside an already-open storage transaction so
// the transfer engine and asset closing can compose it.
func createInTx(ctx context.Context, q database.PGXDB, input TransactionInput) (*models.Transaction, error) {
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !input.Type.Valid() {
		return nil, fmt.Errorf("invalid transaction type %q", input.Type)
	}

	assets := repository.NewAssetRepository(q)
	asset, err := assets.ResolveForUpdate(ctx, input.Asset)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if asset.UserID != input.UserID {
		return nil, ErrPermissionDenied
	}

	if err := validateCategory(ctx, q, input.UserID, input.CategoryID, input.Type); err != nil {
		return nil, err
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC().Truncate(24 * time.Hour)
	}
	if input.Installments != nil && *input.Installments <= 0 {
		input.Installments = nil
	}

	t := models.Transaction{
		Asset:        input.Asset,
		Name:         input.Name,
		Amount:       input.Amount,
		Date:         date,
		CategoryID:   input.CategoryID,
		Type:         input.Type,
		Installments: input.Installments,
		CurrencyCode: asset.CurrencyCode,
	}

	if asset.Kind == models.AssetCreditCard {
		var due time.Time
		if input.Installments != nil && *input.Installments > 0 {
			due = InstallmentDueDate(date, *input.Installments, asset.PaymentDay)
		} else {
			due = NextPaymentDate(asset.PaymentDay, date)
		}
		t.DueDate = &due
	} else if input.Installments != nil {
		return nil, ErrInstallmentsNotAllowed
	}

	transactions := repository.NewTransactionRepository(q)
	if err := transactions.Create(ctx, &t); err != nil {
		return nil, err
	}
	if err := assets.ApplyDelta(ctx, t.Asset, t.SignedAmount()); err != nil {
		return nil, err
	}
	return &t, nil
}

// validateCategory checks ownership and the category/transaction type match.
func validateCategory(ctx context.Context, q database.PGXDB, userID int64, categoryID *int64, typ models.TransactionType) error {
	if categoryID == nil {
		return nil
	}
	categories := repository.NewCategoryRepository(q)
	cat, err := categories.GetByID(ctx, *categoryID)
	if err != nil {
		return mapNotFound(err)
	}
	if cat.UserID != nil && *cat.UserID != userID {
		return ErrPermissionDenied
	}
	if cat.Type != typ {
		return ErrCategoryTypeMismatch
	}
	return nil
}

// EditTransaction applies field changes and the matching balance correction
// in one atomic unit. When the owning asset changes, the old asset gets the
// old effect reversed and the new asset gets the new effect applied.
func (e *Engine) EditTransaction(ctx context.Context, userID, id int64, edit TransactionEdit) (*models.Transaction, error) {
	tx, err := e.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	transactions := repository.NewTransactionRepository(tx)
	t, err := transactions.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	edited, err := editInTx(ctx, tx, userID, t, edit)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction edit: %w", err)
	}

	logger.Log.Debug().
		Str("user_hash", logger.HashUserID(userID)).
		Int64("transaction_id", id).
		Msg("Transaction edited")
	return edited, nil
}

func editInTx(ctx context.Context, q database.PGXDB, userID int64, t *models.Transaction, edit TransactionEdit) (*models.Transaction, error) {
	oldRef := t.Asset
	oldSigned := t.SignedAmount()

	updated := *t
	if edit.Asset != nil {
		updated.Asset = *edit.Asset
	}
	if edit.Name != nil {
		updated.Name = *edit.Name
	}
	if edit.Amount != nil {
		updated.Amount = *edit.Amount
	}
	if edit.Date != nil {
		updated.Date = *edit.Date
	}
	if edit.CategoryID != nil {
		updated.CategoryID = edit.CategoryID
	}
	if edit.Type != nil {
		updated.Type = *edit.Type
	}
	if edit.Installments != nil {
		updated.Installments = edit.Installments
	}
	if updated.Installments != nil && *updated.Installments <= 0 {
		updated.Installments = nil
	}

	if !updated.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !updated.Type.Valid() {
		return nil, fmt.Errorf("invalid transaction type %q", updated.Type)
	}
	if err := validateCategory(ctx, q, userID, updated.CategoryID, updated.Type); err != nil {
		return nil, err
	}

	assets := repository.NewAssetRepository(q)
	oldAsset, newAsset, err := lockAssetPair(ctx, assets, oldRef, updated.Asset)
	if err != nil {
		return nil, err
	}
	if oldAsset.UserID != userID || newAsset.UserID != userID {
		return nil, ErrPermissionDenied
	}

	// Derived credit-card fields follow the asset the entry ends up on.
	if newAsset.Kind == models.AssetCreditCard {
		var due time.Time
		if updated.Installments != nil && *updated.Installments > 0 {
			due = InstallmentDueDate(updated.Date, *updated.Installments, newAsset.PaymentDay)
		} else {
			due = NextPaymentDate(newAsset.PaymentDay, updated.Date)
		}
		updated.DueDate = &due
	} else {
		updated.Installments = nil
		updated.DueDate = nil
	}
	updated.CurrencyCode = newAsset.CurrencyCode

	newSigned := updated.SignedAmount()
	if oldRef == updated.Asset {
		delta := newSigned.Sub(oldSigned)
		if !delta.IsZero() {
			if err := assets.ApplyDelta(ctx, oldRef, delta); err != nil {
				return nil, err
			}
		}
	} else {
		if err := assets.ApplyDelta(ctx, oldRef, oldSigned.Neg()); err != nil {
			return nil, err
		}
		if err := assets.ApplyDelta(ctx, updated.Asset, newSigned); err != nil {
			return nil, err
		}
	}

	transactions := repository.NewTransactionRepository(q)
	if err := transactions.Update(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// lockAssetPair locks one or two asset rows for update in a deterministic
// order so concurrent edits cannot deadlock.
func lockAssetPair(ctx context.Context, assets *repository.AssetRepository, a, b models.AssetRef) (*models.Asset, *models.Asset, error) {
	if a == b {
		asset, err := assets.ResolveForUpdate(ctx, a)
		if err != nil {
			return nil, nil, mapNotFound(err)
		}
		return asset, asset, nil
	}

	first, second := a, b
	swapped := false
	if b.Kind < a.Kind || (b.Kind == a.Kind && b.ID < a.ID) {
		first, second = b, a
		swapped = true
	}

	firstAsset, err := assets.ResolveForUpdate(ctx, first)
	if err != nil {
		return nil, nil, mapNotFound(err)
	}
	secondAsset, err := assets.ResolveForUpdate(ctx, second)
	if err != nil {
		return nil, nil, mapNotFound(err)
	}
	if swapped {
		return secondAsset, firstAsset, nil
	}
	return firstAsset, secondAsset, nil
}

// DeleteTransaction reverses a transaction's balance effect and removes the
// record. A transaction participating in a transfer takes the whole
// transfer (and its paired leg) with it through the transfer engine, so no
// leg is ever reversed twice.
func (e *Engine) DeleteTransaction(ctx context.Context, userID, id int64) error {
	tx, err := e.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	transactions := repository.NewTransactionRepository(tx)
	t, err := transactions.GetByID(ctx, id)
	if err != nil {
		return mapNotFound(err)
	}

	transfers := repository.NewTransferRepository(tx)
	transfer, err := transfers.GetByTransactionID(ctx, t.ID)
	if err != nil {
		return err
	}

	if transfer != nil {
		if err := deleteTransferInTx(ctx, tx, userID, transfer); err != nil {
			return err
		}
	} else {
		assets := repository.NewAssetRepository(tx)
		asset, err := assets.ResolveForUpdate(ctx, t.Asset)
		if err != nil {
			return mapNotFound(err)
		}
		if asset.UserID != userID {
			return ErrPermissionDenied
		}
		if err := deleteInTx(ctx, tx, t); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction delete: %w", err)
	}

	logger.Log.Debug().
		Str("user_hash", logger.HashUserID(userID)).
		Int64("transaction_id", id).
		Bool("was_transfer", transfer != nil).
		Msg("Transaction deleted")
	return nil
}

// deleteInTx reverses and removes one transaction. The caller holds the
// asset row lock.
func deleteInTx(ctx context.Context, q database.PGXDB, t *models.Transaction) error {
	assets := repository.NewAssetRepository(q)
	if err := assets.ApplyDelta(ctx, t.Asset, t.SignedAmount().Neg()); err != nil {
		return err
	}
	return repository.NewTransactionRepository(q).Delete(ctx, t.ID)
}

// CloseAsset zeroes an asset's balance with a synthetic closing entry under
// the protected "Asset Delete" category, then deactivates it. Assets with
// history are never hard-deleted.
func (e *Engine) CloseAsset(ctx context.Context, userID int64, ref models.AssetRef) error {
	tx, err := e.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	assets := repository.NewAssetRepository(tx)
	asset, err := assets.ResolveForUpdate(ctx, ref)
	if err != nil {
		return mapNotFound(err)
	}
	if asset.UserID != userID {
		return ErrPermissionDenied
	}

	if !asset.Balance.IsZero() {
		typ := models.Expense
		if asset.Balance.IsNegative() {
			typ = models.Income
		}

		categories := repository.NewCategoryRepository(tx)
		cat, err := categories.GetByName(ctx, userID, models.CategoryAssetDelete, typ)
		if err != nil {
			return mapNotFound(err)
		}

		if _, err := createInTx(ctx, tx, TransactionInput{
			UserID:     userID,
			Asset:      ref,
			Name:       asset.Name,
			Amount:     asset.Balance.Abs(),
			Date:       time.Now().UTC().Truncate(24 * time.Hour),
			CategoryID: &cat.ID,
			Type:       typ,
		}); err != nil {
			return err
		}
	}

	if err := assets.Deactivate(ctx, ref); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit asset close: %w", err)
	}

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(userID)).
		Str("asset_kind", string(ref.Kind)).
		Msg("Asset closed")
	return nil
}

// CreditCardPaymentPlan returns the upcoming billing-cycle totals for a
// user's credit card.
func (e *Engine) CreditCardPaymentPlan(ctx context.Context, userID, cardID int64) ([]PaymentDue, error) {
	ref := models.AssetRef{Kind: models.AssetCreditCard, ID: cardID}

	assets := repository.NewAssetRepository(e.db)
	card, err := assets.Resolve(ctx, ref)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if card.UserID != userID {
		return nil, ErrPermissionDenied
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	charges, err := repository.NewTransactionRepository(e.db).ListCardCharges(ctx, cardID, today)
	if err != nil {
		return nil, err
	}
	return PaymentPlan(card, charges, today), nil
}
