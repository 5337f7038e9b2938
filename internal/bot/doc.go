// Package bot dispatches chat commands and button taps to Spotify operations.
//
// # Commands
//
// Each command is an entry in a [Registry]. Commands other than /start, /help and /register require a
// registered identity; the guard runs before the handler and answers unregistered users with a fixed
// message. Names match case-insensitively and a "@botname" suffix is ignored.
//
// # Replies
//
// Handlers never talk to the transport directly. Everything goes through a [Messenger], normally an
// [Outbox] that paces messages with a token bucket. List replies are emitted from the last item to the
// first so the top ranked entry is the final message, with a pause after every few items.
//
// # Failures
//
// A handler error becomes exactly one reply chosen from its error class. Panics are recovered in
// [Bot.Handle] and answered with the generic failure message.
//
// # Buttons
//
// Inline choices carry a one-byte tag plus an argument:
//   - T<deviceID> : transfer playback
//   - Q<limit> : recommend from recently played tracks
//   - W<limit> : recommend from top tracks
//   - E<limit> : recommend from top artists
package bot
