// Package models defines the persisted entities of the bot.
//
//   - [Account] : a registered chat identity and its long-lived Spotify refresh token
//   - [PendingRegistration] : an OAuth handshake in flight, keyed by its state token
//   - [Choice] : an inline button offered in a chat
//
// Accounts and claims carry a sequence number assigned by the repositories for stable ordering.
package models
