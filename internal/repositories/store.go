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

// CredentialStore is the per-identity credential store: registered accounts plus pending claims.
//
// Every method is a single round-trip or a single transaction; there are no multi-step
// operations spanning calls.
type CredentialStore struct {
	Accounts *AccountRepository
	Pending  *PendingRepository
}

// NewCredentialStore builds a [CredentialStore] over db. Pending claims live for pendingTTL.
func NewCredentialStore(db *sql.DB, pendingTTL time.Duration) *CredentialStore {
	return &CredentialStore{
		Accounts: NewAccountRepository(db),
		Pending:  NewPendingRepository(db, pendingTTL),
	}
}

// IsRegistered reports whether an account exists for identity.
func (s *CredentialStore) IsRegistered(ctx context.Context, identity string) (bool, error) {
	_, ok, err := s.Lookup(ctx, identity)
	return ok, err
}

// Lookup returns the account for identity and whether it exists, in one query.
func (s *CredentialStore) Lookup(ctx context.Context, identity string) (*models.Account, bool, error) {
	account, err := s.Accounts.Get(ctx, identity)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return account, true, nil
}

// LoadAccount returns the account for identity or an error wrapping [shared.ErrNotFound].
func (s *CredentialStore) LoadAccount(ctx context.Context, identity string) (*models.Account, error) {
	return s.Accounts.Get(ctx, identity)
}

// SaveAccount inserts a new account; an existing identity yields [shared.ErrAlreadyRegistered].
func (s *CredentialStore) SaveAccount(ctx context.Context, account *models.Account) error {
	return s.Accounts.Create(ctx, account)
}

// UpdateRefreshToken stores a rotated refresh token.
func (s *CredentialStore) UpdateRefreshToken(ctx context.Context, identity, refreshToken string) error {
	return s.Accounts.UpdateRefreshToken(ctx, identity, refreshToken)
}

// MarkPending records a pending claim for identity and returns it.
func (s *CredentialStore) MarkPending(ctx context.Context, identity string, chatID int64) (*models.PendingRegistration, error) {
	return s.Pending.Claim(ctx, identity, chatID)
}

// ResolvePending consumes the claim whose correlation token is state.
func (s *CredentialStore) ResolvePending(ctx context.Context, state string) (*models.PendingRegistration, error) {
	if state == "" {
		return nil, fmt.Errorf("%w: empty state", shared.ErrInvalidState)
	}
	return s.Pending.Resolve(ctx, state)
}

// RemoveAccount deletes the account and any claim for identity so it can register again.
func (s *CredentialStore) RemoveAccount(ctx context.Context, identity string) error {
	if err := s.Pending.DeleteByIdentity(ctx, identity); err != nil {
		return err
	}
	return s.Accounts.Delete(ctx, identity)
}

// LatestPending returns the most recently created claim. Registrations never resolve through it; it
// exists for operators inspecting stuck handshakes.
func (s *CredentialStore) LatestPending(ctx context.Context) (*models.PendingRegistration, error) {
	return s.Pending.Latest(ctx)
}

// ListAccounts returns every registered account in registration order.
func (s *CredentialStore) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	return s.Accounts.List(ctx)
}

// ListPending returns every pending claim in creation order.
func (s *CredentialStore) ListPending(ctx context.Context) ([]*models.PendingRegistration, error) {
	return s.Pending.List(ctx)
}

// PurgeExpiredPending deletes claims older than the pending TTL and reports how many were removed.
func (s *CredentialStore) PurgeExpiredPending(ctx context.Context) (int, error) {
	return s.Pending.Purge(ctx)
}
