package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/spotybot/internal/models"
	"github.com/desertthunder/spotybot/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := shared.NewDatabase(ctx, ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(ctx, db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestAccountRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		repo := NewAccountRepository(setupTestDB(t))
		account := models.NewAccount("alice", "refresh-1", 100)

		if err := repo.Create(ctx, account); err != nil {
			t.Fatalf("failed to create account: %v", err)
		}
		if account.Sequence != 1 {
			t.Errorf("expected sequence 1, got %d", account.Sequence)
		}

		second := models.NewAccount("bob", "refresh-2", 200)
		if err := repo.Create(ctx, second); err != nil {
			t.Fatalf("failed to create second account: %v", err)
		}
		if second.Sequence != 2 {
			t.Errorf("expected sequence 2, got %d", second.Sequence)
		}
	})

	t.Run("Create Duplicate", func(t *testing.T) {
		repo := NewAccountRepository(setupTestDB(t))

		if err := repo.Create(ctx, models.NewAccount("alice", "refresh-1", 100)); err != nil {
			t.Fatalf("failed to create account: %v", err)
		}

		err := repo.Create(ctx, models.NewAccount("alice", "refresh-2", 100))
		if !errors.Is(err, shared.ErrAlreadyRegistered) {
			t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
		}

		got, err := repo.Get(ctx, "alice")
		if err != nil {
			t.Fatalf("failed to get account: %v", err)
		}
		if got.RefreshToken != "refresh-1" {
			t.Errorf("duplicate insert must not overwrite, got token %s", got.RefreshToken)
		}
	})

	t.Run("Create Invalid", func(t *testing.T) {
		repo := NewAccountRepository(setupTestDB(t))
		if err := repo.Create(ctx, models.NewAccount("", "refresh", 1)); err == nil {
			t.Fatal("expected validation error for empty identity")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewAccountRepository(setupTestDB(t))
		account := models.NewAccount("alice", "refresh-1", 100)
		if err := repo.Create(ctx, account); err != nil {
			t.Fatalf("failed to create account: %v", err)
		}

		got, err := repo.Get(ctx, "alice")
		if err != nil {
			t.Fatalf("failed to get account: %v", err)
		}
		if got.RefreshToken != "refresh-1" || got.ChatID != 100 {
			t.Errorf("unexpected account %+v", got)
		}
		if !got.CreatedAt.Equal(account.CreatedAt) {
			t.Errorf("expected created_at %v, got %v", account.CreatedAt, got.CreatedAt)
		}
	})

	t.Run("Get NotFound", func(t *testing.T) {
		repo := NewAccountRepository(setupTestDB(t))
		if _, err := repo.Get(ctx, "ghost"); !errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateRefreshToken", func(t *testing.T) {
		repo := NewAccountRepository(setupTestDB(t))
		if err := repo.Create(ctx, models.NewAccount("alice", "old", 100)); err != nil {
			t.Fatalf("failed to create account: %v", err)
		}

		if err := repo.UpdateRefreshToken(ctx, "alice", "new"); err != nil {
			t.Fatalf("failed to update token: %v", err)
		}

		got, _ := repo.Get(ctx, "alice")
		if got.RefreshToken != "new" {
			t.Errorf("expected rotated token, got %s", got.RefreshToken)
		}

		if err := repo.UpdateRefreshToken(ctx, "ghost", "x"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for missing account, got %v", err)
		}
		if err := repo.UpdateRefreshToken(ctx, "alice", ""); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for empty token, got %v", err)
		}
	})

	t.Run("Delete And List", func(t *testing.T) {
		repo := NewAccountRepository(setupTestDB(t))
		for _, id := range []string{"alice", "bob", "carol"} {
			if err := repo.Create(ctx, models.NewAccount(id, "t-"+id, 1)); err != nil {
				t.Fatalf("failed to create %s: %v", id, err)
			}
		}

		if err := repo.Delete(ctx, "bob"); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if err := repo.Delete(ctx, "bob"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}

		accounts, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(accounts) != 2 || accounts[0].Identity != "alice" || accounts[1].Identity != "carol" {
			t.Errorf("unexpected accounts %+v", accounts)
		}
	})
}

func TestPendingRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Claim Creates One Claim Per Identity", func(t *testing.T) {
		repo := NewPendingRepository(setupTestDB(t), time.Hour)

		first, err := repo.Claim(ctx, "alice", 100)
		if err != nil {
			t.Fatalf("failed to claim: %v", err)
		}
		if first.State == "" {
			t.Fatal("expected a state token")
		}

		second, err := repo.Claim(ctx, "alice", 100)
		if err != nil {
			t.Fatalf("failed to claim again: %v", err)
		}
		if second.State != first.State {
			t.Errorf("expected live claim to be reused, got %s and %s", first.State, second.State)
		}

		claims, _ := repo.List(ctx)
		if len(claims) != 1 {
			t.Errorf("expected exactly one claim, got %d", len(claims))
		}
	})

	t.Run("Claim Replaces Expired Claim", func(t *testing.T) {
		repo := NewPendingRepository(setupTestDB(t), time.Hour)
		now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		repo.now = func() time.Time { return now }

		first, err := repo.Claim(ctx, "alice", 100)
		if err != nil {
			t.Fatalf("failed to claim: %v", err)
		}

		now = now.Add(2 * time.Hour)
		second, err := repo.Claim(ctx, "alice", 100)
		if err != nil {
			t.Fatalf("failed to re-claim: %v", err)
		}
		if second.State == first.State {
			t.Error("expected expired claim to be replaced with a new state")
		}

		claims, _ := repo.List(ctx)
		if len(claims) != 1 {
			t.Errorf("expected exactly one claim, got %d", len(claims))
		}
	})

	t.Run("Resolve Matches The Initiating Identity", func(t *testing.T) {
		repo := NewPendingRepository(setupTestDB(t), time.Hour)

		alice, _ := repo.Claim(ctx, "alice", 100)
		bob, _ := repo.Claim(ctx, "bob", 200)

		got, err := repo.Resolve(ctx, alice.State)
		if err != nil {
			t.Fatalf("failed to resolve: %v", err)
		}
		if got.Identity != "alice" || got.ChatID != 100 {
			t.Errorf("expected alice's claim even though bob's is newer, got %+v", got)
		}

		if _, err := repo.Resolve(ctx, alice.State); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected claim to be consumed, got %v", err)
		}

		got, err = repo.Resolve(ctx, bob.State)
		if err != nil || got.Identity != "bob" {
			t.Errorf("expected bob's claim, got %+v, %v", got, err)
		}
	})

	t.Run("Resolve Expired", func(t *testing.T) {
		repo := NewPendingRepository(setupTestDB(t), time.Minute)
		now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		repo.now = func() time.Time { return now }

		claim, _ := repo.Claim(ctx, "alice", 100)
		now = now.Add(time.Hour)

		if _, err := repo.Resolve(ctx, claim.State); !errors.Is(err, shared.ErrPendingExpired) {
			t.Fatalf("expected ErrPendingExpired, got %v", err)
		}
		if claims, _ := repo.List(ctx); len(claims) != 0 {
			t.Errorf("expected expired claim to be consumed, got %d", len(claims))
		}
	})

	t.Run("Latest", func(t *testing.T) {
		repo := NewPendingRepository(setupTestDB(t), time.Hour)

		if _, err := repo.Latest(ctx); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound on empty table, got %v", err)
		}

		repo.Claim(ctx, "alice", 100)
		repo.Claim(ctx, "bob", 200)

		latest, err := repo.Latest(ctx)
		if err != nil {
			t.Fatalf("failed to get latest: %v", err)
		}
		if latest.Identity != "bob" {
			t.Errorf("expected bob, got %s", latest.Identity)
		}
	})

	t.Run("Purge", func(t *testing.T) {
		repo := NewPendingRepository(setupTestDB(t), time.Hour)
		now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		repo.now = func() time.Time { return now }

		repo.Claim(ctx, "alice", 100)
		now = now.Add(90 * time.Minute)
		repo.Claim(ctx, "bob", 200)

		purged, err := repo.Purge(ctx)
		if err != nil {
			t.Fatalf("failed to purge: %v", err)
		}
		if purged != 1 {
			t.Errorf("expected 1 purged claim, got %d", purged)
		}

		claims, _ := repo.List(ctx)
		if len(claims) != 1 || claims[0].Identity != "bob" {
			t.Errorf("expected only bob's claim to remain, got %+v", claims)
		}
	})
}

func TestCredentialStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Registration Lifecycle", func(t *testing.T) {
		store := NewCredentialStore(setupTestDB(t), time.Hour)

		for range 2 {
			ok, err := store.IsRegistered(ctx, "alice")
			if err != nil || ok {
				t.Fatalf("expected unregistered before completion, got %v, %v", ok, err)
			}
		}

		claim, err := store.MarkPending(ctx, "alice", 100)
		if err != nil {
			t.Fatalf("failed to mark pending: %v", err)
		}

		resolved, err := store.ResolvePending(ctx, claim.State)
		if err != nil {
			t.Fatalf("failed to resolve: %v", err)
		}

		if err := store.SaveAccount(ctx, models.NewAccount(resolved.Identity, "refresh", resolved.ChatID)); err != nil {
			t.Fatalf("failed to save account: %v", err)
		}

		for range 3 {
			ok, err := store.IsRegistered(ctx, "alice")
			if err != nil || !ok {
				t.Fatalf("expected registered after completion, got %v, %v", ok, err)
			}
		}

		account, found, err := store.Lookup(ctx, "alice")
		if err != nil || !found || account.RefreshToken != "refresh" {
			t.Errorf("unexpected lookup result %+v, %v, %v", account, found, err)
		}
	})

	t.Run("LoadAccount NotFound", func(t *testing.T) {
		store := NewCredentialStore(setupTestDB(t), time.Hour)
		if _, err := store.LoadAccount(ctx, "ghost"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ResolvePending Empty State", func(t *testing.T) {
		store := NewCredentialStore(setupTestDB(t), time.Hour)
		if _, err := store.ResolvePending(ctx, ""); !errors.Is(err, shared.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("RemoveAccount", func(t *testing.T) {
		store := NewCredentialStore(setupTestDB(t), time.Hour)
		store.SaveAccount(ctx, models.NewAccount("alice", "refresh", 100))

		if err := store.RemoveAccount(ctx, "alice"); err != nil {
			t.Fatalf("failed to remove: %v", err)
		}
		if ok, _ := store.IsRegistered(ctx, "alice"); ok {
			t.Error("expected account to be removed")
		}
	})
	t.Run("Admin Listing", func(t *testing.T) {
		store := NewCredentialStore(setupTestDB(t), time.Hour)

		if _, err := store.LatestPending(ctx); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound with no claims, got %v", err)
		}

		store.MarkPending(ctx, "alice", 100)
		second, _ := store.MarkPending(ctx, "bob", 200)
		store.SaveAccount(ctx, models.NewAccount("carol", "refresh", 300))

		latest, err := store.LatestPending(ctx)
		if err != nil || latest.State != second.State {
			t.Errorf("expected bob's claim as latest, got %+v, %v", latest, err)
		}

		pending, err := store.ListPending(ctx)
		if err != nil || len(pending) != 2 || pending[0].Identity != "alice" {
			t.Errorf("unexpected pending list %+v, %v", pending, err)
		}

		accounts, err := store.ListAccounts(ctx)
		if err != nil || len(accounts) != 1 || accounts[0].Identity != "carol" {
			t.Errorf("unexpected account list %+v, %v", accounts, err)
		}
	})

	t.Run("PurgeExpiredPending", func(t *testing.T) {
		store := NewCredentialStore(setupTestDB(t), time.Hour)
		store.Pending.now = func() time.Time { return time.Now().UTC().Add(-2 * time.Hour) }
		store.MarkPending(ctx, "alice", 100)
		store.Pending.now = func() time.Time { return time.Now().UTC() }
		store.MarkPending(ctx, "bob", 200)

		purged, err := store.PurgeExpiredPending(ctx)
		if err != nil || purged != 1 {
			t.Fatalf("expected one purged claim, got %d, %v", purged, err)
		}

		pending, _ := store.ListPending(ctx)
		if len(pending) != 1 || pending[0].Identity != "bob" {
			t.Errorf("expected only bob's claim to remain, got %+v", pending)
		}
	})
}
