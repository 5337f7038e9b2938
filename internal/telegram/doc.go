// Package telegram connects the bot to the Telegram Bot API.
//
// [Messenger] implements the outbound side: text, photos, audio previews, inline keyboards and
// callback acknowledgements. [Poller] long-polls for updates, turns messages and button taps into
// [bot.Event] values and hands them to the dispatcher one at a time, each under its own timeout.
//
// A user's identity is their Telegram username. Users without one are identified as "id:<user id>"
// so that they can still register.
package telegram
