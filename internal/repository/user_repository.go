// Package repository provides database access for domain entities.
package repository

import (
	"context"
	"fmt"

	"gitlab.com/yerzhan/wallet/internal/database"
	"gitlab.com/yerzhan/wallet/internal/models"
)

// UserRepository handles user and user-preference database operations.
type UserRepository struct {
	db database.PGXDB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db database.PGXDB) *UserRepository {
	return &UserRepository{db: db}
}

// Create adds a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (username, is_guest) VALUES ($1, $2)
		RETURNING id, created_at
	`, user.Username, user.IsGuest).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.QueryRow(ctx, `
		SELECT id, username, is_guest, created_at FROM users WHERE id = $1
	`, id).Scan(&user.ID, &user.Username, &user.IsGuest, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetPreferences retrieves a user's preferences.
func (r *UserRepository) GetPreferences(ctx context.Context, userID int64) (*models.UserPreferences, error) {
	var prefs models.UserPreferences
	err := r.db.QueryRow(ctx, `
		SELECT user_id, currency_code FROM user_preferences WHERE user_id = $1
	`, userID).Scan(&prefs.UserID, &prefs.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get user preferences: %w", err)
	}
	return &prefs, nil
}

// SetPreferences inserts or updates a user's preferences.
func (r *UserRepository) SetPreferences(ctx context.Context, prefs *models.UserPreferences) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_preferences (user_id, currency_code) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET currency_code = EXCLUDED.currency_code
	`, prefs.UserID, prefs.CurrencyCode)
	if err != nil {
		return fmt.Errorf("failed to set user preferences: %w", err)
	}
	return nil
}

// PrimaryCurrency returns the user's primary display currency code.
func (r *UserRepository) PrimaryCurrency(ctx context.Context, userID int64) (string, error) {
	prefs, err := r.GetPreferences(ctx, userID)
	if err != nil {
		return "", err
	}
	return prefs.CurrencyCode, nil
}
