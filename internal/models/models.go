// Package models defines the domain entities for the wallet ledger.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes expenses from incomes. It doubles as the
// category type: a transaction's category must carry the same type.
type TransactionType string

// Transaction and category types.
const (
	Expense TransactionType = "E"
	Income  TransactionType = "I"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == Expense || t == Income
}

// AssetKind tags which concrete table an AssetRef points at.
type AssetKind string

// Asset kinds.
const (
	AssetAccount    AssetKind = "account"
	AssetLoan       AssetKind = "loan"
	AssetCreditCard AssetKind = "credit_card"
)

// Valid reports whether k is a known asset kind.
func (k AssetKind) Valid() bool {
	return k == AssetAccount || k == AssetLoan || k == AssetCreditCard
}

// AssetRef identifies one balance-bearing asset across the three asset tables.
type AssetRef struct {
	Kind AssetKind
	ID   int64
}

// Names of the protected system categories seeded for every user.
const (
	CategoryTransferOut = "Transfer Out"
	CategoryTransferIn  = "Transfer In"
	CategoryPayDebt     = "Pay Debt"
	CategoryAssetDelete = "Asset Delete"
	CategoryLoanIn      = "Loan In"
)

// NoDataLabel is the sentinel row name reports emit when nothing matched.
const NoDataLabel = "No data available"

// User owns assets, categories and transfers.
type User struct {
	ID        int64
	Username  string
	IsGuest   bool
	CreatedAt time.Time
}

// UserPreferences holds per-user display settings. CurrencyCode is the
// user's primary currency used as the default conversion target.
type UserPreferences struct {
	UserID       int64
	CurrencyCode string
}

// Currency is a reference row; at most one Rate exists per currency.
type Currency struct {
	Code   string
	Name   string
	Symbol string
}

// Rate is a currency's value relative to the fixed base currency.
// The base currency itself has rate 1.
type Rate struct {
	CurrencyCode string
	Rate         decimal.Decimal
	UpdatedAt    time.Time
}

// Asset is a balance-bearing entity: an account, a loan or a credit card.
// Balance always equals Initial plus the signed sum of every transaction
// applied against the asset; only the ledger engine mutates it.
type Asset struct {
	ID           int64
	UserID       int64
	Kind         AssetKind
	Name         string
	Balance      decimal.Decimal
	Initial      decimal.Decimal
	CurrencyCode string
	IsActive     bool
	// PaymentDay is the monthly billing cutoff (1-31), credit cards only.
	PaymentDay int
	CreatedAt  time.Time
}

// Ref returns the tagged reference to this asset.
func (a *Asset) Ref() AssetRef {
	return AssetRef{Kind: a.Kind, ID: a.ID}
}

// Category is a node in a user's hierarchical expense/income taxonomy.
// UserID is nil for system-level rows.
type Category struct {
	ID          int64
	UserID      *int64
	Name        string
	ParentID    *int64
	Type        TransactionType
	IsTransfer  bool
	IsProtected bool
	CreatedAt   time.Time
}

// Transaction is a single ledger entry. Amount is always a non-negative
// magnitude; the sign of its balance effect is derived from Type.
type Transaction struct {
	ID         int64
	Asset      AssetRef
	Name       string
	Amount     decimal.Decimal
	Date       time.Time
	CategoryID *int64
	Category   *Category
	Type       TransactionType
	// Installments is set for multi-period credit-card charges only.
	Installments *int
	// DueDate is the derived billing cutoff for credit-card charges.
	DueDate *time.Time
	// CurrencyCode is the owning asset's currency, populated on joined reads.
	CurrencyCode string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SignedAmount returns the balance effect of the transaction: positive for
// incomes, negative for expenses.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Transfer pairs an expense transaction on a source asset with an income
// transaction on a destination asset. The transfer and its two transactions
// share one composite lifecycle.
type Transfer struct {
	ID                int64
	UserID            int64
	FromTransactionID int64
	ToTransactionID   int64
	Date              time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
