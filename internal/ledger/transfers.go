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

// Transfers composes paired transactions with all-or-nothing semantics:
// a transfer and its two legs are created, edited and deleted together.
type Transfers struct {
	db database.DB
}

// NewTransfers creates the transfer engine.
func NewTransfers(db database.DB) *Transfers {
	return &Transfers{db: db}
}

// TransferInput carries the fields for a new transfer. ToAmount defaults to
// FromAmount, so cross-currency transfers can state both sides explicitly.
type TransferInput struct {
	UserID     int64
	FromAsset  models.AssetRef
	ToAsset    models.AssetRef
	FromAmount decimal.Decimal
	ToAmount   decimal.Decimal
	Date       time.Time
}

// TransferEdit lists the fields a transfer edit may change.
type TransferEdit struct {
	FromAsset  *models.AssetRef
	ToAsset    *models.AssetRef
	FromAmount *decimal.Decimal
	ToAmount   *decimal.Decimal
	Date       *time.Time
}

// Create builds the "Transfer Out" expense leg, the "Transfer In" income
// leg and the transfer row linking them, all in one atomic unit. A failure
// at any step leaves no record or balance change behind.
func (s *Transfers) Create(ctx context.Context, input TransferInput) (*models.Transfer, error) {
	if input.FromAsset == input.ToAsset {
		return nil, ErrSameAsset
	}
	toAmount := input.ToAmount
	if toAmount.IsZero() {
		toAmount = input.FromAmount
	}
	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC().Truncate(24 * time.Hour)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transfer create: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	categories := repository.NewCategoryRepository(tx)
	outCat, err := categories.GetByName(ctx, input.UserID, models.CategoryTransferOut, models.Expense)
	if err != nil {
		return nil, mapNotFound(err)
	}
	inCat, err := categories.GetByName(ctx, input.UserID, models.CategoryTransferIn, models.Income)
	if err != nil {
		return nil, mapNotFound(err)
	}

	fromLeg, err := createInTx(ctx, tx, TransactionInput{
		UserID:     input.UserID,
		Asset:      input.FromAsset,
		Name:       models.CategoryTransferOut,
		Amount:     input.FromAmount,
		Date:       date,
		CategoryID: &outCat.ID,
		Type:       models.Expense,
	})
	if err != nil {
		return nil, err
	}

	toLeg, err := createInTx(ctx, tx, TransactionInput{
		UserID:     input.UserID,
		Asset:      input.ToAsset,
		Name:       models.CategoryTransferIn,
		Amount:     toAmount,
		Date:       date,
		CategoryID: &inCat.ID,
		Type:       models.Income,
	})
	if err != nil {
		return nil, err
	}

	transfer := models.Transfer{
		UserID:            input.UserID,
		FromTransactionID: fromLeg.ID,
		ToTransactionID:   toLeg.ID,
		Date:              date,
	}
	if err := repository.NewTransferRepository(tx).Create(ctx, &transfer); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transfer create: %w", err)
	}

	logger.Log.Debug().
		Str("user_hash", logger.HashUserID(input.UserID)).
		Int64("transfer_id", transfer.ID).
		Msg("Transfer created")
	return &transfer, nil
}

// Edit updates both legs through the transaction engine (each corrects its
// own asset's balance) and the transfer's date, atomically. Asset
// reassignment must leave the legs on two different assets.
func (s *Transfers) Edit(ctx context.Context, userID, id int64, edit TransferEdit) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transfer edit: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	transfers := repository.NewTransferRepository(tx)
	transfer, err := transfers.GetByID(ctx, id)
	if err != nil {
		return mapNotFound(err)
	}
	if transfer.UserID != userID {
		return ErrPermissionDenied
	}

	transactions := repository.NewTransactionRepository(tx)
	fromLeg, err := transactions.GetByID(ctx, transfer.FromTransactionID)
	if err != nil {
		return fmt.Errorf("%w: missing from-transaction: %w", ErrInconsistentState, err)
	}
	toLeg, err := transactions.GetByID(ctx, transfer.ToTransactionID)
	if err != nil {
		return fmt.Errorf("%w: missing to-transaction: %w", ErrInconsistentState, err)
	}

	fromAsset := fromLeg.Asset
	if edit.FromAsset != nil {
		fromAsset = *edit.FromAsset
	}
	toAsset := toLeg.Asset
	if edit.ToAsset != nil {
		toAsset = *edit.ToAsset
	}
	if fromAsset == toAsset {
		return ErrSameAsset
	}

	if _, err := editInTx(ctx, tx, userID, fromLeg, TransactionEdit{
		Asset:  edit.FromAsset,
		Amount: edit.FromAmount,
		Date:   edit.Date,
	}); err != nil {
		return err
	}
	if _, err := editInTx(ctx, tx, userID, toLeg, TransactionEdit{
		Asset:  edit.ToAsset,
		Amount: edit.ToAmount,
		Date:   edit.Date,
	}); err != nil {
		return err
	}

	if edit.Date != nil {
		if err := transfers.UpdateDate(ctx, id, *edit.Date); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transfer edit: %w", err)
	}
	return nil
}

// Delete reverses and removes both legs, then the transfer row.
func (s *Transfers) Delete(ctx context.Context, userID, id int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transfer delete: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	transfer, err := repository.NewTransferRepository(tx).GetByID(ctx, id)
	if err != nil {
		return mapNotFound(err)
	}

	if err := deleteTransferInTx(ctx, tx, userID, transfer); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transfer delete: %w", err)
	}

	logger.Log.Debug().
		Str("user_hash", logger.HashUserID(userID)).
		Int64("transfer_id", id).
		Msg("Transfer deleted")
	return nil
}

// deleteTransferInTx removes a transfer and both legs inside an open
// storage transaction. Each leg's delete reverses only its own asset, so
// nothing is reversed twice.
func deleteTransferInTx(ctx context.Context, q database.PGXDB, userID int64, transfer *models.Transfer) error {
	if transfer.UserID != userID {
		return ErrPermissionDenied
	}

	transactions := repository.NewTransactionRepository(q)
	fromLeg, err := transactions.GetByID(ctx, transfer.FromTransactionID)
	if err != nil {
		return fmt.Errorf("%w: missing from-transaction: %w", ErrInconsistentState, err)
	}
	toLeg, err := transactions.GetByID(ctx, transfer.ToTransactionID)
	if err != nil {
		return fmt.Errorf("%w: missing to-transaction: %w", ErrInconsistentState, err)
	}
	if fromLeg.Asset == toLeg.Asset {
		return fmt.Errorf("%w: both legs reference %s %d", ErrInconsistentState, fromLeg.Asset.Kind, fromLeg.Asset.ID)
	}

	assets := repository.NewAssetRepository(q)
	if _, _, err := lockAssetPair(ctx, assets, fromLeg.Asset, toLeg.Asset); err != nil {
		return err
	}

	// The transfer row goes first; its FKs reference the legs.
	if err := repository.NewTransferRepository(q).Delete(ctx, transfer.ID); err != nil {
		return err
	}
	if err := deleteInTx(ctx, q, fromLeg); err != nil {
		return err
	}
	return deleteInTx(ctx, q, toLeg)
}

// PayDebtInput describes a debt payment: money moves from a payer account
// onto a loan or credit card.
type PayDebtInput struct {
	UserID    int64
	AccountID int64
	Debt      models.AssetRef
	Amount    decimal.Decimal
	Date      time.Time
}

// PayDebt transfers from an account to a debt-bearing asset under the
// protected "Pay Debt" category. The debt leg is income-typed: debt
// balances are stored negative, and an income entry moves them toward zero.
func (s *Transfers) PayDebt(ctx context.Context, input PayDebtInput) (*models.Transfer, error) {
	if input.Debt.Kind != models.AssetLoan && input.Debt.Kind != models.AssetCreditCard {
		return nil, fmt.Errorf("debt payments target loans or credit cards, not %q", input.Debt.Kind)
	}
	amount := input.Amount.Abs()
	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC().Truncate(24 * time.Hour)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin debt payment: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	accountRef := models.AssetRef{Kind: models.AssetAccount, ID: input.AccountID}
	assets := repository.NewAssetRepository(tx)
	account, err := assets.Resolve(ctx, accountRef)
	if err != nil {
		return nil, mapNotFound(err)
	}
	debt, err := assets.Resolve(ctx, input.Debt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if account.CurrencyCode != debt.CurrencyCode {
		return nil, ErrCurrencyMismatch
	}

	categories := repository.NewCategoryRepository(tx)
	expenseCat, err := categories.GetByName(ctx, input.UserID, models.CategoryPayDebt, models.Expense)
	if err != nil {
		return nil, mapNotFound(err)
	}
	incomeCat, err := categories.GetByName(ctx, input.UserID, models.CategoryPayDebt, models.Income)
	if err != nil {
		return nil, mapNotFound(err)
	}

	fromLeg, err := createInTx(ctx, tx, TransactionInput{
		UserID:     input.UserID,
		Asset:      accountRef,
		Name:       models.CategoryPayDebt,
		Amount:     amount,
		Date:       date,
		CategoryID: &expenseCat.ID,
		Type:       models.Expense,
	})
	if err != nil {
		return nil, err
	}
	toLeg, err := createInTx(ctx, tx, TransactionInput{
		UserID:     input.UserID,
		Asset:      input.Debt,
		Name:       models.CategoryPayDebt,
		Amount:     amount,
		Date:       date,
		CategoryID: &incomeCat.ID,
		Type:       models.Income,
	})
	if err != nil {
		return nil, err
	}

	transfer := models.Transfer{
		UserID:            input.UserID,
		FromTransactionID: fromLeg.ID,
		ToTransactionID:   toLeg.ID,
		Date:              date,
	}
	if err := repository.NewTransferRepository(tx).Create(ctx, &transfer); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit debt payment: %w", err)
	}

	logger.Log.Debug().
		Str("user_hash", logger.HashUserID(input.UserID)).
		Str("debt_kind", string(input.Debt.Kind)).
		Msg("Debt payment recorded")
	return &transfer, nil
}
