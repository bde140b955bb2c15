package ledger

import (
	"context"
	"fmt"

	"gitlab.com/yerzhan/wallet/internal/database"
	"gitlab.com/yerzhan/wallet/internal/models"
	"gitlab.com/yerzhan/wallet/internal/repository"
)

type categoryDef struct {
	name        string
	typ         models.TransactionType
	isTransfer  bool
	isProtected bool
	children    []categoryDef
}

func expenseTree(name string, children ...string) categoryDef {
	def := categoryDef{name: name, typ: models.Expense}
	for _, child := range children {
		def.children = append(def.children, categoryDef{name: child, typ: models.Expense})
	}
	return def
}

// defaultCategories is the taxonomy every new user starts with: expense
// trees, flat income roots and the protected system rows the engines
// depend on.
var defaultCategories = []categoryDef{
	expenseTree("Housing", "Mortgage/Rent", "Taxes", "Insurance", "Repairs", "Utilities"),
	expenseTree("Transportation", "Car Payments", "Gas/Fuel", "Insurance", "Repairs", "Public Transit"),
	expenseTree("Food", "Groceries", "Dining Out", "Alcohol", "Snacks"),
	expenseTree("Personal Care", "Haircuts", "Toiletries", "Clothing", "Gym Memberships"),
	expenseTree("Health", "Insurance", "Medicine", "Medical Supplies"),
	expenseTree("Education", "Tuition", "Books", "Activities"),
	expenseTree("Entertainment", "Movies", "TV", "Streaming Services", "Hobbies"),
	expenseTree("Gifts/Donations", "Gifts", "Donations", "Celebrations"),
	expenseTree("Miscellaneous", "Bank Fees", "Taxes", "Legal Fees"),

	{name: "Salary", typ: models.Income},
	{name: "Investments", typ: models.Income},
	{name: "Rental Income", typ: models.Income},
	{name: "Child Support", typ: models.Income},
	{name: "Other Income", typ: models.Income},
	{name: "Bank Interests", typ: models.Income},
	{name: "Scholarship", typ: models.Income},
	{name: "Gifts", typ: models.Income},

	{name: models.CategoryTransferOut, typ: models.Expense, isTransfer: true, isProtected: true},
	{name: models.CategoryPayDebt, typ: models.Expense, isProtected: true},
	{name: models.CategoryAssetDelete, typ: models.Expense, isProtected: true},
	{name: models.CategoryTransferIn, typ: models.Income, isTransfer: true, isProtected: true},
	{name: models.CategoryPayDebt, typ: models.Income, isProtected: true},
	{name: models.CategoryAssetDelete, typ: models.Income, isProtected: true},
	{name: models.CategoryLoanIn, typ: models.Income, isProtected: true},
}

func seedCategoryDefs(ctx context.Context, repo *repository.CategoryRepository, userID int64, defs []categoryDef, parentID *int64) error {
	for _, def := range defs {
		cat := models.Category{
			UserID:      &userID,
			Name:        def.name,
			ParentID:    parentID,
			Type:        def.typ,
			IsTransfer:  def.isTransfer,
			IsProtected: def.isProtected,
		}
		if err := repo.Create(ctx, &cat); err != nil {
			return fmt.Errorf("failed to seed category %q: %w", def.name, err)
		}
		if len(def.children) > 0 {
			if err := seedCategoryDefs(ctx, repo, userID, def.children, &cat.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// SeedUserCategories creates the default category trees for a new user.
func SeedUserCategories(ctx context.Context, db database.PGXDB, userID int64) error {
	repo := repository.NewCategoryRepository(db)
	return seedCategoryDefs(ctx, repo, userID, defaultCategories, nil)
}

// Categories manages a user's category tree with uniqueness and protection
// rules.
type Categories struct {
	db database.DB
}

// NewCategories creates the category service.
func NewCategories(db database.DB) *Categories {
	return &Categories{db: db}
}

// Create adds a category for the user, under parentID when given.
func (c *Categories) Create(ctx context.Context, userID int64, name string, parentID *int64, typ models.TransactionType) (*models.Category, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("invalid category type %q", typ)
	}

	repo := repository.NewCategoryRepository(c.db)

	if parentID != nil {
		parent, err := repo.GetByID(ctx, *parentID)
		if err != nil {
			return nil, mapNotFound(err)
		}
		if parent.UserID == nil || *parent.UserID != userID {
			return nil, ErrPermissionDenied
		}
		if parent.Type != typ {
			return nil, ErrCategoryTypeMismatch
		}
		duplicate, err := repo.SiblingExists(ctx, *parentID, name)
		if err != nil {
			return nil, err
		}
		if duplicate {
			return nil, ErrDuplicateCategory
		}
	} else {
		// The (parent, name) constraint cannot cover NULL parents, so root
		// uniqueness is checked against (user, type, name) explicitly.
		duplicate, err := repo.RootExists(ctx, userID, name, typ)
		if err != nil {
			return nil, err
		}
		if duplicate {
			return nil, ErrDuplicateCategory
		}
	}

	cat := models.Category{
		UserID:   &userID,
		Name:     name,
		ParentID: parentID,
		Type:     typ,
	}
	if err := repo.Create(ctx, &cat); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCategory
		}
		return nil, err
	}
	return &cat, nil
}

// Rename changes a category's name, keeping sibling names unique.
func (c *Categories) Rename(ctx context.Context, userID, id int64, newName string) error {
	repo := repository.NewCategoryRepository(c.db)

	cat, err := repo.GetByID(ctx, id)
	if err != nil {
		return mapNotFound(err)
	}
	if cat.UserID == nil || *cat.UserID != userID {
		return ErrPermissionDenied
	}
	if cat.IsProtected {
		return ErrProtectedCategory
	}

	var duplicate bool
	if cat.ParentID != nil {
		duplicate, err = repo.SiblingExists(ctx, *cat.ParentID, newName)
	} else {
		duplicate, err = repo.RootExists(ctx, userID, newName, cat.Type)
	}
	if err != nil {
		return err
	}
	if duplicate {
		return ErrDuplicateCategory
	}

	if err := repo.Rename(ctx, id, newName); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCategory
		}
		return err
	}
	return nil
}

// Delete removes a category and its whole subtree. Transactions under the
// removed nodes keep their history with a NULL category reference.
func (c *Categories) Delete(ctx context.Context, userID, id int64) error {
	repo := repository.NewCategoryRepository(c.db)

	cat, err := repo.GetByID(ctx, id)
	if err != nil {
		return mapNotFound(err)
	}
	if cat.UserID == nil || *cat.UserID != userID {
		return ErrPermissionDenied
	}
	if cat.IsProtected {
		return ErrProtectedCategory
	}

	return repo.Delete(ctx, id)
}

// Descendants returns the flat subtree below a category.
func (c *Categories) Descendants(ctx context.Context, userID, id int64, includeSelf bool) ([]models.Category, error) {
	repo := repository.NewCategoryRepository(c.db)

	cat, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if cat.UserID == nil || *cat.UserID != userID {
		return nil, ErrPermissionDenied
	}

	return repo.Descendants(ctx, id, includeSelf)
}
