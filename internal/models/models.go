package models

import (
	"fmt"
	"strings"
	"time"
)

// Account is a registered chat identity.
//
// At most one account exists per identity; the refresh token is an opaque secret exchanged for an
// access token before every Spotify call.
type Account struct {
	Identity     string
	Sequence     int
	RefreshToken string
	ChatID       int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAccount creates an unsaved account stamped with the current time.
func NewAccount(identity, refreshToken string, chatID int64) *Account {
	now := time.Now().UTC()
	return &Account{
		Identity:     identity,
		RefreshToken: refreshToken,
		ChatID:       chatID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate checks the fields required for persistence.
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Identity) == "" {
		return fmt.Errorf("identity is required")
	}
	if a.RefreshToken == "" {
		return fmt.Errorf("refresh token is required")
	}
	return nil
}

// PendingRegistration links an in-progress OAuth handshake to the identity that started it.
//
// State is sent to Spotify in the authorization URL and echoed back on the redirect, which is how
// the completion endpoint finds the initiating identity.
type PendingRegistration struct {
	State     string
	Identity  string
	Sequence  int
	ChatID    int64
	CreatedAt time.Time
}

// Expired reports whether the claim is older than ttl at now. A non-positive ttl never expires.
func (p *PendingRegistration) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(p.CreatedAt) > ttl
}

// Choice is one inline button offered in a chat. Payload comes back verbatim when the button is tapped.
type Choice struct {
	Label   string
	Payload string
}
