package ledger

import (
	"context"
	"fmt"

	"gitlab.com/yerzhan/wallet/internal/database"
	"gitlab.com/yerzhan/wallet/internal/models"
	"gitlab.com/yerzhan/wallet/internal/repository"
)

// OnUserCreated runs the new-user side effects in one transaction: the
// default category trees and the initial preferences. Registration flows
// (including the guest bootstrapper) call this explicitly right after
// inserting the user row.
func OnUserCreated(ctx context.Context, db database.DB, user *models.User, primaryCurrency string) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin onboarding transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := SeedUserCategories(ctx, tx, user.ID); err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(tx)
	prefs := models.UserPreferences{UserID: user.ID, CurrencyCode: primaryCurrency}
	if err := userRepo.SetPreferences(ctx, &prefs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit onboarding transaction: %w", err)
	}
	return nil
}
