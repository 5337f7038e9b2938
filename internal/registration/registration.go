// Package registration links chat identities to Spotify accounts.
//
// A registration spans two processes: the chat handler calls [Registrar.Begin], which records a pending
// claim and returns an authorization link carrying the claim's state token. Spotify later redirects the
// user's browser to the HTTP server, which calls [Registrar.Complete] with the code and the echoed state.
// The state token, not arrival order, decides which identity the new account belongs to.
package registration

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotybot/internal/models"
	"github.com/desertthunder/spotybot/internal/shared"
)

const confirmation = "You are registered! Type /help to see what I can do"

// Store is the credential store surface used during registration.
type Store interface {
	IsRegistered(ctx context.Context, identity string) (bool, error)
	MarkPending(ctx context.Context, identity string, chatID int64) (*models.PendingRegistration, error)
	ResolvePending(ctx context.Context, state string) (*models.PendingRegistration, error)
	SaveAccount(ctx context.Context, account *models.Account) error
}

// Authorizer builds authorization links and trades codes for refresh tokens.
type Authorizer interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (string, error)
}

// Notifier tells the initiating chat that registration finished.
type Notifier interface {
	SendText(ctx context.Context, chatID int64, text, parseMode string) error
}

// Recorder counts completion attempts by result.
type Recorder interface {
	ObserveRegistration(result string)
}

// Registrar runs both halves of the registration handshake.
type Registrar struct {
	store    Store
	auth     Authorizer
	notifier Notifier
	metrics  Recorder
	logger   *log.Logger
}

// NewRegistrar creates a Registrar. notifier and metrics may be nil.
func NewRegistrar(store Store, auth Authorizer, notifier Notifier, metrics Recorder, logger *log.Logger) *Registrar {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Registrar{store: store, auth: auth, notifier: notifier, metrics: metrics, logger: logger}
}

// Begin records a pending claim for identity and returns the authorization URL to send it.
//
// A registered identity gets [shared.ErrAlreadyRegistered] and no claim. Calling Begin again while a
// claim is live returns the same link.
func (r *Registrar) Begin(ctx context.Context, identity string, chatID int64) (string, error) {
	registered, err := r.store.IsRegistered(ctx, identity)
	if err != nil {
		return "", err
	}
	if registered {
		return "", fmt.Errorf("%w: %s", shared.ErrAlreadyRegistered, identity)
	}

	claim, err := r.store.MarkPending(ctx, identity, chatID)
	if err != nil {
		return "", fmt.Errorf("failed to record pending registration: %w", err)
	}

	r.logger.Info("registration started", "identity", identity, "chat_id", chatID)
	return r.auth.AuthURL(claim.State), nil
}

// Complete exchanges code, resolves the claim carrying state and stores the new account.
//
// Errors wrap [shared.ErrInvalidState], [shared.ErrNotFound] or [shared.ErrPendingExpired] for a bad
// claim, [shared.ErrExchangeFailed] when Spotify rejects the code and [shared.ErrAlreadyRegistered]
// when the identity registered in the meantime.
func (r *Registrar) Complete(ctx context.Context, code, state string) (*models.Account, error) {
	account, err := r.complete(ctx, code, state)
	r.observe(err)
	if err != nil {
		r.logger.Warn("registration failed", "error", err)
		return nil, err
	}

	r.logger.Info("registration completed", "identity", account.Identity)
	r.notify(ctx, account.ChatID)
	return account, nil
}

func (r *Registrar) complete(ctx context.Context, code, state string) (*models.Account, error) {
	if state == "" {
		return nil, fmt.Errorf("%w: missing state", shared.ErrInvalidState)
	}
	if code == "" {
		return nil, fmt.Errorf("%w: missing code", shared.ErrInvalidArgument)
	}

	refresh, err := r.auth.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	claim, err := r.store.ResolvePending(ctx, state)
	if err != nil {
		return nil, err
	}

	account := models.NewAccount(claim.Identity, refresh, claim.ChatID)
	if err := r.store.SaveAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (r *Registrar) notify(ctx context.Context, chatID int64) {
	if r.notifier == nil || chatID == 0 {
		return
	}
	if err := r.notifier.SendText(ctx, chatID, confirmation, ""); err != nil {
		r.logger.Warn("failed to send registration confirmation", "chat_id", chatID, "error", err)
	}
}

func (r *Registrar) observe(err error) {
	if r.metrics == nil {
		return
	}
	r.metrics.ObserveRegistration(Result(err))
}

// Result names the outcome of a completion for metrics.
func Result(err error) string {
	switch {
	case err == nil:
		return "registered"
	case errors.Is(err, shared.ErrInvalidState), errors.Is(err, shared.ErrNotFound):
		return "invalid_state"
	case errors.Is(err, shared.ErrInvalidArgument):
		return "invalid_request"
	case errors.Is(err, shared.ErrPendingExpired):
		return "expired"
	case errors.Is(err, shared.ErrExchangeFailed):
		return "exchange_failed"
	case errors.Is(err, shared.ErrAlreadyRegistered):
		return "already_registered"
	default:
		return "error"
	}
}
