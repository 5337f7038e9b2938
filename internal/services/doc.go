// Package services wraps the Spotify Web API for the bot.
//
// # Sessions
//
// [SpotifyService] holds no per-user state. Every domain operation takes a chat identity, loads
// its refresh token from the credential store, exchanges it for a fresh access token through
// [oauth2.Config.TokenSource] and issues the request through a short-lived [Session] bound to
// that token. Sessions are never cached or shared across calls.
//
// Spotify occasionally rotates refresh tokens; a rotated token is written back to the store.
//
// # Error Handling
//
// Failures are classified with sentinels from the shared package:
//   - [shared.ErrUnregistered] : no account for the identity
//   - [shared.ErrAuthFailure] : the refresh token was revoked, or the API answered 401
//   - [shared.ErrNoActiveDevice] : a player endpoint answered 404 or NO_ACTIVE_DEVICE
//   - [shared.ErrRateLimited] : 429, never retried
//   - [shared.ErrUpstream] : everything else, including network failures and timeouts
//
// Non-2xx responses are returned as [*APIError], which unwraps to one of the sentinels above.
//
// # Numeric Inputs
//
// Limits, volume and offsets are passed through unchanged; callers clamp them.
package services
