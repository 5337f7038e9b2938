// Package repositories implements SQLite persistence for accounts and pending registrations.
//
// Key Implementations:
//   - [AccountRepository] : insert-only account rows keyed by chat identity
//   - [PendingRepository] : OAuth handshakes in flight, keyed by their state token
//   - [CredentialStore] : the contract the bot and the Spotify adapter consume, built on both
//
// Sequence numbers give both tables a stable creation order independent of timestamps.
// The [NextSequence] function increments the per-table counter inside the caller's transaction,
// so a row and its sequence commit together.
package repositories
