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

const pendingColumns = "state, identity, sequence, chat_id, created_at"

// PendingRepository persists [models.PendingRegistration] claims.
//
// Claims older than ttl are treated as absent by [PendingRepository.Claim] and rejected by
// [PendingRepository.Resolve].
type PendingRepository struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewPendingRepository creates a new [PendingRepository]. A non-positive ttl keeps claims forever.
func NewPendingRepository(db *sql.DB, ttl time.Duration) *PendingRepository {
	return &PendingRepository{db: db, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// Claim returns the live claim for identity, creating one with a fresh state token if there is none.
//
// An identity never holds more than one claim: an expired claim is replaced, a live one is reused.
func (r *PendingRepository) Claim(ctx context.Context, identity string, chatID int64) (*models.PendingRegistration, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+pendingColumns+` FROM pending_registrations WHERE identity = ?`, identity)
	existing, err := scanPending(row)
	switch {
	case err == nil && !existing.Expired(r.now(), r.ttl):
		return existing, nil
	case err == nil:
		if _, err := tx.ExecContext(ctx, `DELETE FROM pending_registrations WHERE state = ?`, existing.State); err != nil {
			return nil, fmt.Errorf("failed to replace expired claim: %w", err)
		}
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to query pending claim: %w", err)
	}

	sequence, err := NextSequence(ctx, tx, "pending_registrations")
	if err != nil {
		return nil, fmt.Errorf("failed to generate sequence: %w", err)
	}

	claim := &models.PendingRegistration{
		State:     shared.GenerateID(),
		Identity:  identity,
		Sequence:  sequence,
		ChatID:    chatID,
		CreatedAt: r.now(),
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pending_registrations (`+pendingColumns+`) VALUES (?, ?, ?, ?, ?)`,
		claim.State, claim.Identity, claim.Sequence, claim.ChatID, claim.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert pending claim: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit pending claim: %w", err)
	}

	return claim, nil
}

// Resolve consumes the claim carrying state. The claim is deleted even when it has expired.
func (r *PendingRepository) Resolve(ctx context.Context, state string) (*models.PendingRegistration, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+pendingColumns+` FROM pending_registrations WHERE state = ?`, state)
	claim, err := scanPending(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: pending claim", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query pending claim: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM pending_registrations WHERE state = ?`, state); err != nil {
		return nil, fmt.Errorf("failed to consume pending claim: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit pending claim: %w", err)
	}

	if claim.Expired(r.now(), r.ttl) {
		return nil, fmt.Errorf("%w: claim for %s", shared.ErrPendingExpired, claim.Identity)
	}

	return claim, nil
}

// Latest returns the most recently created claim.
func (r *PendingRepository) Latest(ctx context.Context) (*models.PendingRegistration, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+pendingColumns+` FROM pending_registrations ORDER BY sequence DESC LIMIT 1`)

	claim, err := scanPending(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: pending claim", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query pending claim: %w", err)
	}

	return claim, nil
}

// List returns every claim, expired or not, in creation order.
func (r *PendingRepository) List(ctx context.Context) ([]*models.PendingRegistration, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+pendingColumns+` FROM pending_registrations ORDER BY sequence ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending claims: %w", err)
	}
	defer rows.Close()

	var claims []*models.PendingRegistration
	for rows.Next() {
		claim, err := scanPending(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending claim: %w", err)
		}
		claims = append(claims, claim)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return claims, nil
}

// Purge deletes expired claims and returns how many were removed.
func (r *PendingRepository) Purge(ctx context.Context) (int, error) {
	claims, err := r.List(ctx)
	if err != nil {
		return 0, err
	}

	now := r.now()
	purged := 0
	for _, claim := range claims {
		if !claim.Expired(now, r.ttl) {
			continue
		}
		if _, err := r.db.ExecContext(ctx, `DELETE FROM pending_registrations WHERE state = ?`, claim.State); err != nil {
			return purged, fmt.Errorf("failed to purge pending claim: %w", err)
		}
		purged++
	}

	return purged, nil
}

// DeleteByIdentity drops any claim held by identity.
func (r *PendingRepository) DeleteByIdentity(ctx context.Context, identity string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pending_registrations WHERE identity = ?`, identity); err != nil {
		return fmt.Errorf("failed to delete pending claim: %w", err)
	}
	return nil
}

func scanPending(row scanner) (*models.PendingRegistration, error) {
	var p models.PendingRegistration
	if err := row.Scan(&p.State, &p.Identity, &p.Sequence, &p.ChatID, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
