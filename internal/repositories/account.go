package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotybot/internal/models"
	"github.com/desertthunder/spotybot/internal/shared"
)

const accountColumns = "identity, sequence, refresh_token, chat_id, created_at, updated_at"

// AccountRepository persists [models.Account] rows.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new [AccountRepository] with the given database connection
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account. It never overwrites: an existing identity yields [shared.ErrAlreadyRegistered].
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	if err := account.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := NextSequence(ctx, tx, "accounts")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		account.Identity, sequence, account.RefreshToken, account.ChatID, account.CreatedAt, account.UpdatedAt,
	)
	if isConstraintViolation(err) {
		return fmt.Errorf("%w: %s", shared.ErrAlreadyRegistered, account.Identity)
	}
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit account: %w", err)
	}

	account.Sequence = sequence
	return nil
}

// Get retrieves an account by identity, returning [shared.ErrNotFound] when absent.
func (r *AccountRepository) Get(ctx context.Context, identity string) (*models.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE identity = ?`, identity)

	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %s", shared.ErrNotFound, identity)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}

	return account, nil
}

// UpdateRefreshToken replaces the stored refresh token after Spotify rotates it.
func (r *AccountRepository) UpdateRefreshToken(ctx context.Context, identity, refreshToken string) error {
	if refreshToken == "" {
		return fmt.Errorf("%w: empty refresh token", shared.ErrInvalidArgument)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET refresh_token = ?, updated_at = ? WHERE identity = ?`,
		refreshToken, time.Now().UTC(), identity,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	return expectRow(result, identity)
}

// Delete removes the account for identity.
func (r *AccountRepository) Delete(ctx context.Context, identity string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE identity = ?`, identity)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	return expectRow(result, identity)
}

// List returns all accounts in registration order.
func (r *AccountRepository) List(ctx context.Context) ([]*models.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY sequence ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return accounts, nil
}

func scanAccount(row scanner) (*models.Account, error) {
	var a models.Account
	if err := row.Scan(&a.Identity, &a.Sequence, &a.RefreshToken, &a.ChatID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func expectRow(result sql.Result, identity string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: account %s", shared.ErrNotFound, identity)
	}
	return nil
}
