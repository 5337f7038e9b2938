package shared

import (
	"context"
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Store errors
	ErrNotFound          = fmt.Errorf("record not found")
	ErrAlreadyRegistered = fmt.Errorf("identity already registered")
	ErrPendingExpired    = fmt.Errorf("pending registration expired")

	// Authentication errors
	ErrUnregistered   = fmt.Errorf("identity not registered")
	ErrAuthFailure    = fmt.Errorf("authorization rejected by spotify")
	ErrExchangeFailed = fmt.Errorf("authorization code exchange failed")
	ErrInvalidState   = fmt.Errorf("invalid state parameter")

	// Spotify API errors
	ErrNoActiveDevice = fmt.Errorf("no active device")
	ErrRateLimited    = fmt.Errorf("rate limited")
	ErrUpstream       = fmt.Errorf("spotify API request failed")

	// Input validation errors
	ErrFormat          = fmt.Errorf("wrong argument format")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// Outcome names the error class of err for logs and metric labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnregistered):
		return "unregistered"
	case errors.Is(err, ErrFormat), errors.Is(err, ErrMissingArgument), errors.Is(err, ErrInvalidArgument):
		return "format_error"
	case errors.Is(err, ErrAuthFailure):
		return "auth_failure"
	case errors.Is(err, ErrNoActiveDevice):
		return "no_active_device"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
