// Package server provides the bot's HTTP surface.
//
// # Routing
//
// [BasicRouter] registers method-qualified patterns on an [http.ServeMux] and wraps every route with
// the [Middleware] added before it. [Handler] implementations bring their own patterns so a handler can
// own several routes.
//
// # Registration Redirect
//
// Spotify redirects the user's browser to GET /authorize after consent. [AuthorizeHandler] passes the
// code and state to a [Completer] and renders a small HTML page. Failures map to status codes:
// 400 for a missing, unknown or expired state or a denied consent, 502 when the code exchange fails,
// 409 when the identity is already registered.
//
// # Health and Metrics
//
// GET /health answers {"status":"ok"}. GET /metrics serves the Prometheus registry when one is given.
//
// [Server] runs alongside the Telegram update loop and shuts down gracefully when its context ends.
package server
