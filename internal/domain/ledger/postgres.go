package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// Querier is the subset of pgxpool.Pool the repository needs. pgxmock
// satisfies it in tests.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository creates a new PostgreSQL ledger repository
func NewPostgresRepository(db Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create posts a new transaction
func (r *PostgresRepository) Create(ctx context.Context, tx *Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, account_id, amount, currency_code, transaction_date, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}

	err := r.db.QueryRow(ctx, query,
		tx.ID,
		tx.UserID,
		tx.AccountID,
		tx.Amount.String(),
		tx.CurrencyCode,
		tx.Date,
		tx.Description,
	).Scan(&tx.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// FindInWindow returns the user's transactions within the date window
func (r *PostgresRepository) FindInWindow(ctx context.Context, userID uuid.UUID, center time.Time, windowDays int) ([]Transaction, error) {
	query := `
		SELECT id, user_id, account_id, amount, currency_code, transaction_date, description, created_at
		FROM transactions
		WHERE user_id = $1
		  AND transaction_date BETWEEN $2 AND $3
		ORDER BY transaction_date, created_at`

	from := center.AddDate(0, 0, -windowDays)
	to := center.AddDate(0, 0, windowDays)

	rows, err := r.db.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction window: %w", err)
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var tx Transaction
		var amount string
		err := rows.Scan(
			&tx.ID,
			&tx.UserID,
			&tx.AccountID,
			&amount,
			&tx.CurrencyCode,
			&tx.Date,
			&tx.Description,
			&tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount in transaction %s: %w", tx.ID, err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// GetAccountCurrency returns the currency code of an account owned by the user
func (r *PostgresRepository) GetAccountCurrency(ctx context.Context, userID, accountID uuid.UUID) (string, error) {
	query := `SELECT currency_code FROM accounts WHERE id = $1 AND user_id = $2`

	var code string
	err := r.db.QueryRow(ctx, query, accountID, userID).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", sql.ErrNoRows
	}
	if err != nil {
		return "", fmt.Errorf("failed to get account currency: %w", err)
	}
	return code, nil
}
