package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yerzhan/wallet/internal/database"
	"gitlab.com/yerzhan/wallet/internal/models"
	"gitlab.com/yerzhan/wallet/internal/repository"
)

func setupLedgerTest(t *testing.T) (database.DB, *models.User, context.Context) {
	t.Helper()

	db := database.TestTx(t)
	ctx := context.Background()

	user := &models.User{Username: "ledger-" + t.Name()}
	require.NoError(t, repository.NewUserRepository(db).Create(ctx, user))
	require.NoError(t, OnUserCreated(ctx, db, user, database.TestBaseCurrency))

	return db, user, ctx
}

func createTestAsset(t *testing.T, db database.DB, ctx context.Context, userID int64, kind models.AssetKind, name, initial string) *models.Asset {
	t.Helper()

	asset := &models.Asset{
		UserID:       userID,
		Kind:         kind,
		Name:         name,
		Initial:      decimal.RequireFromString(initial),
		CurrencyCode: database.TestBaseCurrency,
	}
	if kind == models.AssetCreditCard {
		asset.PaymentDay = 15
	}
	require.NoError(t, repository.NewAssetRepository(db).Create(ctx, asset))
	return asset
}

func assetBalance(t *testing.T, db database.DB, ctx context.Context, ref models.AssetRef) decimal.Decimal {
	t.Helper()

	asset, err := repository.NewAssetRepository(db).Resolve(ctx, ref)
	require.NoError(t, err)
	return asset.Balance
}

func expenseCategory(t *testing.T, db database.DB, ctx context.Context, userID int64, name string) *models.Category {
	t.Helper()

	cat, err := repository.NewCategoryRepository(db).GetByName(ctx, userID, name, models.Expense)
	require.NoError(t, err)
	return cat
}

func TestEngineCreateTransaction(t *testing.T) {
	db, user, ctx := setupLedgerTest(t)
	engine := NewEngine(db)
	account := createTestAsset(t, db, ctx, user.ID, models.AssetAccount, "Checking", "1000")

	t.Run("expense lowers the balance", func(t *testing.T) {
		cat := expenseCategory(t, db, ctx, user.ID, "Groceries")
		created, err := engine.CreateTransaction(ctx, TransactionInput{
			UserID:     user.ID,
			Asset:      account.Ref(),
			Name:       "Weekly shop",
			Amount:     decimal.RequireFromString("120.50"),
			CategoryID: &cat.ID,
			Type:       models.Expense,
		})
		require.NoError(t, err)
		require.NotZero(t, created.ID)
		require.Equal(t, database.TestBaseCurrency, created.CurrencyCode)
		require.True(t, assetBalance(t, db, ctx, account.Ref()).Equal(decimal.RequireFromString("879.50")))
	})

	t.Run("income raises the balance", func(t *testing.T) {
		_, err := engine.CreateTransaction(ctx, TransactionInput{
			UserID: user.ID,
			Asset:  account.Ref(),
			Name:   "Refund",
			Amount: decimal.RequireFromString("20.50"),
			Type:   models.Income,
		})
		require.NoError(t, err)
		require.True(t, assetBalance(t, db, ctx, account.Ref()).Equal(decimal.RequireFromString("900")))
	})

	t.Run("defaults the date to today", func(t *testing.T) {
		created, err := engine.CreateTransaction(ctx, TransactionInput{
			UserID: user.ID,
			Asset:  account.Ref(),
			Name:   "Undated",
			Amount: decimal.NewFromInt(1),
			Type:   models.Expense,
		})
		require.NoError(t, err)
		require.Equal(t, time.Now().UTC().Format("2006-01-02"), created.Date.Format("2006-01-02"))
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		_, err := engine.CreateTransaction(ctx, TransactionInput{
			UserID: user.ID,
			Asset:  account.Ref(),
			Amount: decimal.Zero,
			Type:   models.Expense,
		})
		require.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects another user's asset", func(t *testing.T) {
		stranger := &models.User{Username: "stranger-" + t.Name()}
		require.NoError(t, repository.NewUserRepository(db).Create(ctx, stranger))

		_, err := engine.CreateTransaction(ctx, TransactionInput{
			UserID: stranger.ID,
			Asset:  account.Ref(),
			Amount: decimal.NewFromInt(10),
			Type:   models.Expense,
		})
		require.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("rejects category type mismatch", func(t *testing.T) {
		cat := expenseCategory(t, db, ctx, user.ID, "Groceries")
		_, err := engine.CreateTransaction(ctx, TransactionInput{
			UserID:     user.ID,
			Asset:      account.Ref(),
			Amount:     decimal.NewFromInt(10),
			CategoryID: &cat.ID,
			Type:       models.Income,
		})
		require.ErrorIs(t, err, ErrCategoryTypeMismatch)
	})

	t.Run("a failed create leaves the balance untouched", func(t *testing.T) {
		before := assetBalance(t, db, ctx, account.Ref())
		badCategory := int64(-1)
		_, err := engine.CreateTransaction(ctx, TransactionInput{
			UserID:     user.ID,
			Asset:      account.Ref(),
			Amount:     decimal.NewFromInt(10),
			CategoryID: &badCategory,
			Type:       models.Expense,
		})
		require.ErrorIs(t, err, ErrNotFound)
		require.True(t, assetBalance(t, db, ctx, account.Ref()).Equal(before))
	})
}

func TestEngineCreditCardCharges(t *testing.T) {
	db, user, ctx := setupLedgerTest(t)
	engine := NewEngine(db)
	card := createTestAsset(t, db, ctx, user.ID, models.AssetCreditCard, "Visa", "0")
	account := createTestAsset(t, db, ctx, user.ID, models.AssetAccount, "Checking", "1000")

	t.Run("charge derives the next billing cutoff", func(t *testing.T) {
		purchase := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
		created, err := engine.CreateTransaction(ctx, TransactionInput{
			UserID: user.ID,
			Asset:  card.Ref(),
			Name:   "Dinner",
			Amount: decimal.NewFromInt(60),
			Date:   purchase,
			Type:   models.Expense,
		})
		require.NoError(t, err)
		require.NotNil(t, created.DueDate)
		require.Equal(t, time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC), created.DueDate.UTC())
	})

	t.Run("installment charge gets the final cycle's due date", func(t *testing.T) {
		installments := 5
		purchase := time.Date(1999, time.December, 13, 0, 0, 0, 0, time.UTC)
		paymentDay5 := &models.Asset{
			UserID:       user.ID,
			Kind:         models.AssetCreditCard,
			Name:         "Day5 Card",
			CurrencyCode: database.TestBaseCurrency,
			PaymentDay:   5,
		}
		require.NoError(t, repository.NewAssetRepository(db).Create(ctx, paymentDay5))

		created, err := engine.CreateTransaction(ctx, TransactionInput{
			UserID:       user.ID,
			Asset:        paymentDay5.Ref(),
			Name:         "Laptop",
			Amount:       decimal.NewFromInt(1500),
			Date:         purchase,
			Type:         models.Expense,
			Installments: &installments,
		})
		require.NoError(t, err)
		require.NotNil(t, created.DueDate)
		require.Equal(t, time.Date(2000, time.May, 5, 0, 0, 0, 0, time.UTC), created.DueDate.UTC())
	})

	t.Run("installments are rejected outside credit cards", func(t *testing.T) {
		installments := 3
		_, err := engine.CreateTransaction(ctx, TransactionInput{
			UserID:       user.ID,
			Asset:        account.Ref(),
			Amount:       decimal.NewFromInt(300),
			Type:         models.Expense,
			Installments: &installments,
		})
		require.ErrorIs(t, err, ErrInstallmentsNotAllowed)
	})
}

func TestEngineEditTransaction(t *testing.T) {
	db, user, ctx := setupLedgerTest(t)
	engine := NewEngine(db)
	checking := createTestAsset(t, db, ctx, user.ID, models.AssetAccount, "Checking", "1000")
	savings := createTestAsset(t, db, ctx, user.ID, models.AssetAccount, "Savings", "500")

	newExpense := func(t *testing.T, amount string) *models.Transaction {
		t.Helper()
		created, err := engine.CreateTransaction(ctx, TransactionInput{
			UserID: user.ID,
			Asset:  checking.Ref(),
			Name:   "Entry",
			Amount: decimal.RequireFromString(amount),
			Type:   models.Expense,
		})
		require.NoError(t, err)
		return created
	}

	t.Run("amount change applies only the difference", func(t *testing.T) {
		created := newExpense(t, "100")
		before := assetBalance(t, db, ctx, checking.Ref())

		newAmount := decimal.RequireFromString("150")
		_, err := engine.EditTransaction(ctx, user.ID, created.ID, TransactionEdit{Amount: &newAmount})
		require.NoError(t, err)
		require.True(t, assetBalance(t, db, ctx, checking.Ref()).Equal(before.Sub(decimal.NewFromInt(50))))

		require.NoError(t, engine.DeleteTransaction(ctx, user.ID, created.ID))
	})

	t.Run("changing only the asset moves the full amount", func(t *testing.T) {
		created := newExpense(t, "100")
		checkingBefore := assetBalance(t, db, ctx, checking.Ref())
		savingsBefore := assetBalance(t, db, ctx, savings.Ref())

		ref := savings.Ref()
		edited, err := engine.EditTransaction(ctx, user.ID, created.ID, TransactionEdit{Asset: &ref})
		require.NoError(t, err)
		require.Equal(t, savings.Ref(), edited.Asset)
		require.True(t, edited.Amount.Equal(created.Amount))

		require.True(t, assetBalance(t, db, ctx, checking.Ref()).Equal(checkingBefore.Add(decimal.NewFromInt(100))))
		require.True(t, assetBalance(t, db, ctx, savings.Ref()).Equal(savingsBefore.Sub(decimal.NewFromInt(100))))

		require.NoError(t, engine.DeleteTransaction(ctx, user.ID, created.ID))
	})

	t.Run("flipping the type swings the balance both ways", func(t *testing.T) {
		created := newExpense(t, "100")
		before := assetBalance(t, db, ctx, checking.Ref())

		income := models.Income
		_, err := engine.EditTransaction(ctx, user.ID, created.ID, TransactionEdit{Type: &income})
		require.NoError(t, err)
		require.True(t, assetBalance(t, db, ctx, checking.Ref()).Equal(before.Add(decimal.NewFromInt(200))))

		require.NoError(t, engine.DeleteTransaction(ctx, user.ID, created.ID))
	})

	t.Run("moving onto a card derives a due date", func(t *testing.T) {
		card := createTestAsset(t, db, ctx, user.ID, models.AssetCreditCard, "Visa", "0")
		created := newExpense(t, "40")

		ref := card.Ref()
		edited, err := engine.EditTransaction(ctx, user.ID, created.ID, TransactionEdit{Asset: &ref})
		require.NoError(t, err)
		require.NotNil(t, edited.DueDate)

		back := checking.Ref()
		edited, err = engine.EditTransaction(ctx, user.ID, created.ID, TransactionEdit{Asset: &back})
		require.NoError(t, err)
		require.Nil(t, edited.DueDate)

		require.NoError(t, engine.DeleteTransaction(ctx, user.ID, created.ID))
	})

	t.Run("rejects edits by another user", func(t *testing.T) {
		created := newExpense(t, "10")
		stranger := &models.User{Username: "edit-stranger-" + t.Name()}
		require.NoError(t, repository.NewUserRepository(db).Create(ctx, stranger))

		amount := decimal.NewFromInt(1)
		_, err := engine.EditTransaction(ctx, stranger.ID, created.ID, TransactionEdit{Amount: &amount})
		require.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("unknown transaction maps to not found", func(t *testing.T) {
		amount := decimal.NewFromInt(1)
		_, err := engine.EditTransaction(ctx, user.ID, 99999999, TransactionEdit{Amount: &amount})
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestEngineDeleteTransaction(t *testing.T) {
	db, user, ctx := setupLedgerTest(t)
	engine := NewEngine(db)
	account := createTestAsset(t, db, ctx, user.ID, models.AssetAccount, "Checking", "1000")

	t.Run("delete restores the balance", func(t *testing.T) {
		created, err := engine.CreateTransaction(ctx, TransactionInput{
			UserID: user.ID,
			Asset:  account.Ref(),
			Name:   "Disposable",
			Amount: decimal.RequireFromString("77.70"),
			Type:   models.Expense,
		})
		require.NoError(t, err)

		require.NoError(t, engine.DeleteTransaction(ctx, user.ID, created.ID))
		require.True(t, assetBalance(t, db, ctx, account.Ref()).Equal(decimal.RequireFromString("1000")))

		_, err = repository.NewTransactionRepository(db).GetByID(ctx, created.ID)
		require.Error(t, err)
	})

	t.Run("rejects deletes by another user", func(t *testing.T) {
		created, err := engine.CreateTransaction(ctx, TransactionInput{
			UserID: user.ID,
			Asset:  account.Ref(),
			Amount: decimal.NewFromInt(5),
			Type:   models.Expense,
		})
		require.NoError(t, err)

		stranger := &models.User{Username: "del-stranger-" + t.Name()}
		require.NoError(t, repository.NewUserRepository(db).Create(ctx, stranger))
		require.ErrorIs(t, engine.DeleteTransaction(ctx, stranger.ID, created.ID), ErrPermissionDenied)
	})
}

func TestEngineCloseAsset(t *testing.T) {
	db, user, ctx := setupLedgerTest(t)
	engine := NewEngine(db)

	t.Run("positive balance closes with an expense entry", func(t *testing.T) {
		account := createTestAsset(t, db, ctx, user.ID, models.AssetAccount, "To Close", "100")

		require.NoError(t, engine.CloseAsset(ctx, user.ID, account.Ref()))

		closed, err := repository.NewAssetRepository(db).Resolve(ctx, account.Ref())
		require.NoError(t, err)
		require.False(t, closed.IsActive)
		require.True(t, closed.Balance.IsZero())

		history, err := repository.NewTransactionRepository(db).ListByAsset(ctx, account.Ref())
		require.NoError(t, err)
		require.Len(t, history, 1)
		require.Equal(t, models.Expense, history[0].Type)
		require.Equal(t, "To Close", history[0].Name)
	})

	t.Run("negative balance closes with an income entry", func(t *testing.T) {
		loan := createTestAsset(t, db, ctx, user.ID, models.AssetLoan, "Old Loan", "-400")

		require.NoError(t, engine.CloseAsset(ctx, user.ID, loan.Ref()))

		closed, err := repository.NewAssetRepository(db).Resolve(ctx, loan.Ref())
		require.NoError(t, err)
		require.False(t, closed.IsActive)
		require.True(t, closed.Balance.IsZero())

		history, err := repository.NewTransactionRepository(db).ListByAsset(ctx, loan.Ref())
		require.NoError(t, err)
		require.Len(t, history, 1)
		require.Equal(t, models.Income, history[0].Type)
	})

	t.Run("zero balance closes without an entry", func(t *testing.T) {
		account := createTestAsset(t, db, ctx, user.ID, models.AssetAccount, "Empty", "0")

		require.NoError(t, engine.CloseAsset(ctx, user.ID, account.Ref()))

		history, err := repository.NewTransactionRepository(db).ListByAsset(ctx, account.Ref())
		require.NoError(t, err)
		require.Empty(t, history)
	})
}

func TestEngineCreditCardPaymentPlan(t *testing.T) {
	db, user, ctx := setupLedgerTest(t)
	engine := NewEngine(db)
	card := createTestAsset(t, db, ctx, user.ID, models.AssetCreditCard, "Plan Card", "0")

	installments := 3
	_, err := engine.CreateTransaction(ctx, TransactionInput{
		UserID:       user.ID,
		Asset:        card.Ref(),
		Name:         "Phone",
		Amount:       decimal.NewFromInt(900),
		Date:         time.Now().UTC().Truncate(24 * time.Hour),
		Type:         models.Expense,
		Installments: &installments,
	})
	require.NoError(t, err)

	plan, err := engine.CreditCardPaymentPlan(ctx, user.ID, card.ID)
	require.NoError(t, err)
	require.Len(t, plan, 3)
	for _, due := range plan {
		require.True(t, due.Amount.Equal(decimal.NewFromInt(300)))
	}
}
