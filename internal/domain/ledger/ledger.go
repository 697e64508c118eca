// Package ledger holds posted, authoritative financial records. Staged import
// rows become ledger transactions only through the approval boundary.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is a posted ledger entry
type Transaction struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	AccountID    uuid.UUID
	Amount       decimal.Decimal
	CurrencyCode string
	Date         time.Time
	Description  string
	CreatedAt    time.Time
}

// Repository defines ledger persistence operations
type Repository interface {
	// Create posts a new transaction
	Create(ctx context.Context, tx *Transaction) error

	// FindInWindow returns the user's transactions dated within
	// windowDays on either side of center (inclusive)
	FindInWindow(ctx context.Context, userID uuid.UUID, center time.Time, windowDays int) ([]Transaction, error)

	// GetAccountCurrency returns the currency code of an account owned by the user
	GetAccountCurrency(ctx context.Context, userID, accountID uuid.UUID) (string, error)
}
