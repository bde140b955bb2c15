package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yerzhan/wallet/internal/models"
	"gitlab.com/yerzhan/wallet/internal/repository"
)

func TestSeedUserCategories(t *testing.T) {
	db, user, ctx := setupLedgerTest(t)

	cats, err := repository.NewCategoryRepository(db).ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, cats)

	byName := make(map[string][]models.Category)
	for _, cat := range cats {
		byName[cat.Name] = append(byName[cat.Name], cat)
	}

	t.Run("expense trees have children", func(t *testing.T) {
		require.Len(t, byName["Housing"], 1)
		housing := byName["Housing"][0]

		var children int
		for _, cat := range cats {
			if cat.ParentID != nil && *cat.ParentID == housing.ID {
				children++
			}
		}
		require.Equal(t, 5, children)
	})

	t.Run("protected rows exist for both types", func(t *testing.T) {
		require.Len(t, byName[models.CategoryPayDebt], 2)
		require.Len(t, byName[models.CategoryAssetDelete], 2)
		for _, cat := range byName[models.CategoryPayDebt] {
			require.True(t, cat.IsProtected)
		}
	})

	t.Run("transfer categories are flagged", func(t *testing.T) {
		require.Len(t, byName[models.CategoryTransferOut], 1)
		require.True(t, byName[models.CategoryTransferOut][0].IsTransfer)
		require.True(t, byName[models.CategoryTransferIn][0].IsTransfer)
	})
}

func TestCategoriesCreate(t *testing.T) {
	db, user, ctx := setupLedgerTest(t)
	service := NewCategories(db)
	repo := repository.NewCategoryRepository(db)

	food, err := repo.GetByName(ctx, user.ID, "Food", models.Expense)
	require.NoError(t, err)

	t.Run("creates a child under a parent", func(t *testing.T) {
		cat, err := service.Create(ctx, user.ID, "Coffee", &food.ID, models.Expense)
		require.NoError(t, err)
		require.NotZero(t, cat.ID)
		require.Equal(t, food.ID, *cat.ParentID)
	})

	t.Run("rejects duplicate sibling names", func(t *testing.T) {
		_, err := service.Create(ctx, user.ID, "Groceries", &food.ID, models.Expense)
		require.ErrorIs(t, err, ErrDuplicateCategory)
	})

	t.Run("rejects duplicate root names of the same type", func(t *testing.T) {
		_, err := service.Create(ctx, user.ID, "Food", nil, models.Expense)
		require.ErrorIs(t, err, ErrDuplicateCategory)
	})

	t.Run("same root name is fine across types", func(t *testing.T) {
		cat, err := service.Create(ctx, user.ID, "Food", nil, models.Income)
		require.NoError(t, err)
		require.Equal(t, models.Income, cat.Type)
	})

	t.Run("rejects a parent of the other type", func(t *testing.T) {
		salary, err := repo.GetByName(ctx, user.ID, "Salary", models.Income)
		require.NoError(t, err)

		_, err = service.Create(ctx, user.ID, "Side Hustle", &salary.ID, models.Expense)
		require.ErrorIs(t, err, ErrCategoryTypeMismatch)
	})

	t.Run("rejects another user's parent", func(t *testing.T) {
		stranger := &models.User{Username: "cat-stranger"}
		require.NoError(t, repository.NewUserRepository(db).Create(ctx, stranger))

		_, err := service.Create(ctx, stranger.ID, "Sneaky", &food.ID, models.Expense)
		require.ErrorIs(t, err, ErrPermissionDenied)
	})
}

func TestCategoriesRename(t *testing.T) {
	db, user, ctx := setupLedgerTest(t)
	service := NewCategories(db)
	repo := repository.NewCategoryRepository(db)

	t.Run("renames a user category", func(t *testing.T) {
		cat, err := repo.GetByName(ctx, user.ID, "Entertainment", models.Expense)
		require.NoError(t, err)

		require.NoError(t, service.Rename(ctx, user.ID, cat.ID, "Fun"))

		renamed, err := repo.GetByID(ctx, cat.ID)
		require.NoError(t, err)
		require.Equal(t, "Fun", renamed.Name)
	})

	t.Run("rejects renaming onto a sibling", func(t *testing.T) {
		groceries, err := repo.GetByName(ctx, user.ID, "Groceries", models.Expense)
		require.NoError(t, err)

		require.ErrorIs(t, service.Rename(ctx, user.ID, groceries.ID, "Dining Out"), ErrDuplicateCategory)
	})

	t.Run("rejects renaming protected categories", func(t *testing.T) {
		protected, err := repo.GetByName(ctx, user.ID, models.CategoryTransferOut, models.Expense)
		require.NoError(t, err)

		require.ErrorIs(t, service.Rename(ctx, user.ID, protected.ID, "Outgoing"), ErrProtectedCategory)
	})
}

func TestCategoriesDelete(t *testing.T) {
	db, user, ctx := setupLedgerTest(t)
	service := NewCategories(db)
	repo := repository.NewCategoryRepository(db)
	engine := NewEngine(db)
	account := createTestAsset(t, db, ctx, user.ID, models.AssetAccount, "Checking", "1000")

	t.Run("deleting cascades to the subtree", func(t *testing.T) {
		food, err := repo.GetByName(ctx, user.ID, "Food", models.Expense)
		require.NoError(t, err)
		groceries, err := repo.GetByName(ctx, user.ID, "Groceries", models.Expense)
		require.NoError(t, err)

		require.NoError(t, service.Delete(ctx, user.ID, food.ID))

		_, err = repo.GetByID(ctx, groceries.ID)
		require.Error(t, err)
	})

	t.Run("transactions keep history with a null category", func(t *testing.T) {
		education, err := repo.GetByName(ctx, user.ID, "Education", models.Expense)
		require.NoError(t, err)

		created, err := engine.CreateTransaction(ctx, TransactionInput{
			UserID:     user.ID,
			Asset:      account.Ref(),
			Name:       "Tuition fee",
			Amount:     decimal.NewFromInt(500),
			CategoryID: &education.ID,
			Type:       models.Expense,
		})
		require.NoError(t, err)

		require.NoError(t, service.Delete(ctx, user.ID, education.ID))

		orphaned, err := repository.NewTransactionRepository(db).GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.Nil(t, orphaned.CategoryID)
		require.True(t, assetBalance(t, db, ctx, account.Ref()).Equal(decimal.NewFromInt(500)))
	})

	t.Run("rejects deleting protected categories", func(t *testing.T) {
		protected, err := repo.GetByName(ctx, user.ID, models.CategoryAssetDelete, models.Expense)
		require.NoError(t, err)

		require.ErrorIs(t, service.Delete(ctx, user.ID, protected.ID), ErrProtectedCategory)
	})
}

func TestCategoriesDescendants(t *testing.T) {
	db, user, ctx := setupLedgerTest(t)
	service := NewCategories(db)
	repo := repository.NewCategoryRepository(db)

	food, err := repo.GetByName(ctx, user.ID, "Food", models.Expense)
	require.NoError(t, err)

	t.Run("subtree without self", func(t *testing.T) {
		subtree, err := service.Descendants(ctx, user.ID, food.ID, false)
		require.NoError(t, err)
		require.Len(t, subtree, 4)
		for _, cat := range subtree {
			require.NotEqual(t, food.ID, cat.ID)
		}
	})

	t.Run("subtree with self", func(t *testing.T) {
		subtree, err := service.Descendants(ctx, user.ID, food.ID, true)
		require.NoError(t, err)
		require.Len(t, subtree, 5)
	})

	t.Run("rejects other users", func(t *testing.T) {
		stranger := &models.User{Username: "desc-stranger"}
		require.NoError(t, repository.NewUserRepository(db).Create(ctx, stranger))

		_, err := service.Descendants(ctx, stranger.ID, food.ID, false)
		require.ErrorIs(t, err, ErrPermissionDenied)
	})
}
