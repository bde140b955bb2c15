package repository

import (
	"context"
	"fmt"

	"gitlab.com/yerzhan/wallet/internal/database"
	"gitlab.com/yerzhan/wallet/internal/models"
)

// CategoryRepository handles category database operations.
type CategoryRepository struct {
	db database.PGXDB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db database.PGXDB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryColumns = `id, user_id, name, parent_id, type, is_transfer, is_protected, created_at`

func scanCategory(row interface{ Scan(dest ...any) error }, cat *models.Category) error {
	return row.Scan(
		&cat.ID, &cat.UserID, &cat.Name, &cat.ParentID,
		&cat.Type, &cat.IsTransfer, &cat.IsProtected, &cat.CreatedAt,
	)
}

// Create adds a new category.
func (r *CategoryRepository) Create(ctx context.Context, cat *models.Category) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO categories (user_id, name, parent_id, type, is_transfer, is_protected)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, cat.UserID, cat.Name, cat.ParentID, cat.Type, cat.IsTransfer, cat.IsProtected,
	).Scan(&cat.ID, &cat.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// GetByID retrieves a category by ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	var cat models.Category
	err := scanCategory(r.db.QueryRow(ctx, `
		SELECT `+categoryColumns+` FROM categories WHERE id = $1
	`, id), &cat)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &cat, nil
}

// GetByName retrieves a user's category by name and type. Names repeat
// across parents ("Insurance" lives under several trees), so the oldest
// match wins.
func (r *CategoryRepository) GetByName(ctx context.Context, userID int64, name string, typ models.TransactionType) (*models.Category, error) {
	var cat models.Category
	err := scanCategory(r.db.QueryRow(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE user_id = $1 AND name = $2 AND type = $3
		ORDER BY id LIMIT 1
	`, userID, name, typ), &cat)
	if err != nil {
		return nil, fmt.Errorf("failed to get category %q: %w", name, err)
	}
	return &cat, nil
}

// ListByUser retrieves all of a user's categories.
func (r *CategoryRepository) ListByUser(ctx context.Context, userID int64) ([]models.Category, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 ORDER BY name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var cat models.Category
		if err := scanCategory(rows, &cat); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// RootExists reports whether the user already has a root category with this
// name and type. The storage-level unique index covers this too; the check
// exists so callers can reject duplicates before attempting a write.
func (r *CategoryRepository) RootExists(ctx context.Context, userID int64, name string, typ models.TransactionType) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM categories
			WHERE user_id = $1 AND name = $2 AND type = $3 AND parent_id IS NULL
		)
	`, userID, name, typ).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check root category uniqueness: %w", err)
	}
	return exists, nil
}

// SiblingExists reports whether parent already has a child with this name.
func (r *CategoryRepository) SiblingExists(ctx context.Context, parentID int64, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM categories WHERE parent_id = $1 AND name = $2
		)
	`, parentID, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check sibling uniqueness: %w", err)
	}
	return exists, nil
}

// Rename changes a category's name.
func (r *CategoryRepository) Rename(ctx context.Context, id int64, name string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE categories SET name = $2 WHERE id = $1
	`, id, name)
	if err != nil {
		return fmt.Errorf("failed to rename category: %w", err)
	}
	return nil
}

// Delete removes a category. The subtree below it goes with it (FK cascade)
// and transactions referencing any removed node keep their history with a
// NULL category.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// Descendants retrieves the subtree rooted at id as a flat list.
func (r *CategoryRepository) Descendants(ctx context.Context, id int64, includeSelf bool) ([]models.Category, error) {
	rows, err := r.db.Query(ctx, `
		WITH RECURSIVE subtree AS (
			SELECT `+categoryColumns+` FROM categories WHERE id = $1
			UNION ALL
			SELECT c.id, c.user_id, c.name, c.parent_id, c.type, c.is_transfer, c.is_protected, c.created_at
			FROM categories c
			JOIN subtree s ON c.parent_id = s.id
		)
		SELECT `+categoryColumns+` FROM subtree WHERE $2 OR id <> $1
	`, id, includeSelf)
	if err != nil {
		return nil, fmt.Errorf("failed to query category descendants: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var cat models.Category
		if err := scanCategory(rows, &cat); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category descendants: %w", err)
	}
	return categories, nil
}
