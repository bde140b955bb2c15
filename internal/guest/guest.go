// Package guest bootstraps throwaway demo users with three months of
// realistic activity, so a visitor lands on populated reports instead of
// an empty ledger.
package guest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gitlab.com/yerzhan/wallet/internal/database"
	"gitlab.com/yerzhan/wallet/internal/ledger"
	"gitlab.com/yerzhan/wallet/internal/logger"
	"gitlab.com/yerzhan/wallet/internal/models"
	"gitlab.com/yerzhan/wallet/internal/repository"
)

// seedEntry is one demo transaction. Day counts from the start of the demo
// window, so 1 is the window's first day and 35 falls in the second month.
type seedEntry struct {
	name     string
	amount   string
	category string
	day      int
	account  string
	typ      models.TransactionType
}

var seedAssets = struct {
	bankInitial   string
	walletInitial string
	cardDay       int
}{"10000", "200", 15}

var seedEntries = []seedEntry{
	{"Rent", "1200.00", "Mortgage/Rent", 1, "bank", models.Expense},
	{"Electricity Bill", "150.25", "Utilities", 5, "bank", models.Expense},
	{"Internet Bill", "70.00", "Utilities", 10, "bank", models.Expense},
	{"Water Bill", "45.50", "Utilities", 15, "card", models.Expense},
	{"Groceries", "235.60", "Groceries", 8, "wallet", models.Expense},
	{"Groceries", "135.60", "Groceries", 18, "wallet", models.Expense},
	{"Groceries", "215.60", "Groceries", 28, "wallet", models.Expense},
	{"Gasoline", "182.90", "Gas/Fuel", 10, "bank", models.Expense},
	{"Gasoline", "149.90", "Gas/Fuel", 20, "bank", models.Expense},
	{"Car Payment", "320.00", "Car Payments", 25, "card", models.Expense},
	{"Auto Insurance", "85.00", "Insurance", 7, "wallet", models.Expense},
	{"Insurance", "345.00", "Insurance", 13, "bank", models.Expense},
	{"Fast Food", "28.50", "Dining Out", 8, "card", models.Expense},
	{"Movie Theater", "32.00", "Movies", 16, "wallet", models.Expense},
	{"Gym Membership", "75.00", "Gym Memberships", 22, "bank", models.Expense},
	{"Haircut", "40.00", "Haircuts", 9, "wallet", models.Expense},
	{"Streaming Services", "18.99", "Streaming Services", 28, "card", models.Expense},
	{"Salary", "4000", "Salary", 1, "bank", models.Income},
	{"Bonus", "1000", "Other Income", 15, "bank", models.Income},
	{"Freelance Work", "500", "Other Income", 20, "bank", models.Income},

	{"Rent", "1200.00", "Mortgage/Rent", 31, "bank", models.Expense},
	{"Internet", "50.00", "Utilities", 36, "bank", models.Expense},
	{"Gasoline", "160.00", "Gas/Fuel", 38, "card", models.Expense},
	{"Gasoline", "140.00", "Gas/Fuel", 48, "card", models.Expense},
	{"Groceries", "150.00", "Groceries", 40, "wallet", models.Expense},
	{"Groceries", "120.00", "Groceries", 50, "wallet", models.Expense},
	{"Insurance", "345.00", "Insurance", 43, "bank", models.Expense},
	{"Phone Bill", "80.00", "Utilities", 44, "wallet", models.Expense},
	{"Movie Tickets", "40.00", "Movies", 46, "card", models.Expense},
	{"Clothing", "70.00", "Clothing", 49, "card", models.Expense},
	{"Hair Salon", "60.00", "Haircuts", 52, "card", models.Expense},
	{"Gym Membership", "40.00", "Gym Memberships", 55, "bank", models.Expense},
	{"Car Payment", "375.00", "Car Payments", 52, "card", models.Expense},
	{"Pizza Delivery", "30.00", "Dining Out", 60, "bank", models.Expense},
	{"Salary", "4000", "Salary", 31, "bank", models.Income},
	{"Freelance Work", "700", "Other Income", 35, "bank", models.Income},
	{"Investment Income", "600", "Investments", 40, "bank", models.Income},

	{"Rent", "1200.00", "Mortgage/Rent", 61, "bank", models.Expense},
	{"Electricity Bill", "145.25", "Utilities", 64, "bank", models.Expense},
	{"Car Insurance", "210.00", "Insurance", 67, "card", models.Expense},
	{"Groceries", "348.75", "Groceries", 68, "wallet", models.Expense},
	{"Groceries", "118.75", "Groceries", 88, "wallet", models.Expense},
	{"Insurance", "345.00", "Insurance", 73, "bank", models.Expense},
	{"Gasoline", "150.00", "Gas/Fuel", 68, "card", models.Expense},
	{"Gasoline", "166.00", "Gas/Fuel", 78, "card", models.Expense},
	{"Internet Bill", "85.99", "Utilities", 70, "card", models.Expense},
	{"Home Repairs", "285.00", "Repairs", 74, "bank", models.Expense},
	{"Eating Out", "92.45", "Dining Out", 76, "card", models.Expense},
	{"Car Payment", "375.00", "Car Payments", 82, "card", models.Expense},
	{"Birthday Gift", "50.00", "Gifts", 84, "wallet", models.Expense},
	{"Clothes Shopping", "220.50", "Clothing", 86, "bank", models.Expense},
	{"Movie Tickets", "32.00", "Movies", 87, "card", models.Expense},
	{"Salary", "4000", "Salary", 61, "bank", models.Income},
	{"Freelance Project", "600", "Other Income", 72, "bank", models.Income},
	{"Gift", "150", "Other Income", 81, "bank", models.Income},
}

// Bootstrap creates a guest user with seeded categories, three demo assets
// and three months of transactions. The demo window ends today, so the
// newest entries land in the current month.
func Bootstrap(ctx context.Context, db database.DB, currencyCode string) (*models.User, error) {
	user := models.User{
		Username: strings.ReplaceAll(uuid.New().String(), "-", ""),
		IsGuest:  true,
	}
	if err := repository.NewUserRepository(db).Create(ctx, &user); err != nil {
		return nil, err
	}
	if err := ledger.OnUserCreated(ctx, db, &user, currencyCode); err != nil {
		return nil, err
	}

	assets, err := createDemoAssets(ctx, db, user.ID, currencyCode)
	if err != nil {
		return nil, err
	}
	if err := seedDemoActivity(ctx, db, user.ID, assets); err != nil {
		return nil, err
	}

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(user.ID)).
		Msg("Guest user bootstrapped")
	return &user, nil
}

func createDemoAssets(ctx context.Context, db database.DB, userID int64, currencyCode string) (map[string]models.AssetRef, error) {
	repo := repository.NewAssetRepository(db)

	bank := models.Asset{
		UserID:       userID,
		Kind:         models.AssetAccount,
		Name:         "My Bank Account",
		Initial:      decimal.RequireFromString(seedAssets.bankInitial),
		CurrencyCode: currencyCode,
	}
	if err := repo.Create(ctx, &bank); err != nil {
		return nil, err
	}

	wallet := models.Asset{
		UserID:       userID,
		Kind:         models.AssetAccount,
		Name:         "My Wallet",
		Initial:      decimal.RequireFromString(seedAssets.walletInitial),
		CurrencyCode: currencyCode,
	}
	if err := repo.Create(ctx, &wallet); err != nil {
		return nil, err
	}

	card := models.Asset{
		UserID:       userID,
		Kind:         models.AssetCreditCard,
		Name:         "My Credit Card",
		CurrencyCode: currencyCode,
		PaymentDay:   seedAssets.cardDay,
	}
	if err := repo.Create(ctx, &card); err != nil {
		return nil, err
	}

	return map[string]models.AssetRef{
		"bank":   bank.Ref(),
		"wallet": wallet.Ref(),
		"card":   card.Ref(),
	}, nil
}

func seedDemoActivity(ctx context.Context, db database.DB, userID int64, assets map[string]models.AssetRef) error {
	engine := ledger.NewEngine(db)
	categories := repository.NewCategoryRepository(db)

	start := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -88)
	for _, entry := range seedEntries {
		category, err := categories.GetByName(ctx, userID, entry.category, entry.typ)
		if err != nil {
			return fmt.Errorf("failed to resolve demo category %q: %w", entry.category, err)
		}

		_, err = engine.CreateTransaction(ctx, ledger.TransactionInput{
			UserID:     userID,
			Asset:      assets[entry.account],
			Name:       entry.name,
			Amount:     decimal.RequireFromString(entry.amount),
			Date:       start.AddDate(0, 0, entry.day-1),
			CategoryID: &category.ID,
			Type:       entry.typ,
		})
		if err != nil {
			return fmt.Errorf("failed to seed demo transaction %q: %w", entry.name, err)
		}
	}

	// One transfer and one card payment, so the demo covers those flows too.
	transfers := ledger.NewTransfers(db)
	if _, err := transfers.Create(ctx, ledger.TransferInput{
		UserID:     userID,
		FromAsset:  assets["bank"],
		ToAsset:    assets["wallet"],
		FromAmount: decimal.RequireFromString("300"),
		Date:       start.AddDate(0, 0, 44),
	}); err != nil {
		return fmt.Errorf("failed to seed demo transfer: %w", err)
	}
	if _, err := transfers.PayDebt(ctx, ledger.PayDebtInput{
		UserID:    userID,
		AccountID: assets["bank"].ID,
		Debt:      assets["card"],
		Amount:    decimal.RequireFromString("500"),
		Date:      start.AddDate(0, 0, 45),
	}); err != nil {
		return fmt.Errorf("failed to seed demo debt payment: %w", err)
	}
	return nil
}
