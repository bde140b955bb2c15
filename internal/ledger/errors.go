// Package ledger implements the balance-consistency core: the category
// tree, the transaction engine, the transfer engine and asset closing.
// Balances are mutated here and nowhere else, always inside one storage
// transaction together with the record change that caused them.
package ledger

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Domain failures surfaced to callers. All are checked before any state is
// mutated; an operation that returns one of these leaves the store untouched.
var (
	// ErrInvalidAmount rejects non-positive transaction amounts.
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	// ErrCategoryTypeMismatch rejects pairing an expense category with an
	// income transaction or vice versa.
	ErrCategoryTypeMismatch = errors.New("category type does not match transaction type")
	// ErrDuplicateCategory rejects a sibling or root name collision.
	ErrDuplicateCategory = errors.New("category with this name already exists")
	// ErrProtectedCategory rejects edits and deletes of system categories.
	ErrProtectedCategory = errors.New("category is protected")
	// ErrPermissionDenied means the caller does not own the referenced resource.
	ErrPermissionDenied = errors.New("resource not owned by caller")
	// ErrNotFound means a referenced id did not resolve.
	ErrNotFound = errors.New("resource not found")
	// ErrSameAsset rejects transfers whose two legs reference one asset.
	ErrSameAsset = errors.New("transfer requires two different assets")
	// ErrCurrencyMismatch rejects debt payments across currencies.
	ErrCurrencyMismatch = errors.New("assets must share a currency")
	// ErrInstallmentsNotAllowed rejects installments outside credit cards.
	ErrInstallmentsNotAllowed = errors.New("installments are only valid for credit-card transactions")

	// ErrInconsistentState marks a transfer whose legs are missing or
	// mispaired. It is unreachable when atomicity holds; observing it is
	// a bug, so the operation aborts instead of patching in place.
	ErrInconsistentState = errors.New("transfer pairing is inconsistent")
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// mapNotFound converts a no-rows lookup failure into the domain sentinel
// while leaving other errors (connection loss etc.) untouched.
func mapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
