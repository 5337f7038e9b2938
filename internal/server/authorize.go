package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotybot/internal/models"
	"github.com/desertthunder/spotybot/internal/shared"
)

// Completer finishes a registration from the values Spotify echoes on the redirect.
type Completer interface {
	Complete(ctx context.Context, code, state string) (*models.Account, error)
}

// AuthorizeHandler serves the Spotify OAuth redirect at GET /authorize.
type AuthorizeHandler struct {
	completer Completer
	logger    *log.Logger
}

// NewAuthorizeHandler creates an [AuthorizeHandler].
func NewAuthorizeHandler(completer Completer, logger *log.Logger) *AuthorizeHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &AuthorizeHandler{completer: completer, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *AuthorizeHandler) Routes() []string {
	return []string{"GET /authorize"}
}

// ServeHTTP completes the registration carried by the state parameter.
//
// Spotify reports a denied consent with an error parameter and no code; that answers 400 without
// touching the pending claim, which stays available until it expires.
func (h *AuthorizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if reason := query.Get("error"); reason != "" {
		h.logger.Warn("authorization denied", "error", reason)
		h.renderPage(w, http.StatusBadRequest, "Authorization Failed", "Spotify did not grant access: "+reason)
		return
	}

	account, err := h.completer.Complete(r.Context(), query.Get("code"), query.Get("state"))
	if err != nil {
		status, detail := authorizeFailure(err)
		h.renderPage(w, status, "Authorization Failed", detail)
		return
	}

	h.renderPage(w, http.StatusOK, "Authorization Successful",
		fmt.Sprintf("%s is now linked to Spotify. You can close this window and return to Telegram.", account.Identity))
}

func authorizeFailure(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrInvalidState), errors.Is(err, shared.ErrNotFound):
		return http.StatusBadRequest, "This link is not valid. Send /register to get a new one."
	case errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest, "The authorization response is incomplete. Send /register to try again."
	case errors.Is(err, shared.ErrPendingExpired):
		return http.StatusBadRequest, "This link has expired. Send /register to get a new one."
	case errors.Is(err, shared.ErrExchangeFailed):
		return http.StatusBadGateway, "Spotify rejected the authorization. Please try again."
	case errors.Is(err, shared.ErrAlreadyRegistered):
		return http.StatusConflict, "This account is already registered."
	default:
		return http.StatusInternalServerError, "Something went wrong, please try again later."
	}
}

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: {{if .OK}}#1DB954{{else}}#E22134{{end}}; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <p>{{.Detail}}</p>
    </div>
</body>
</html>
`))

func (h *AuthorizeHandler) renderPage(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	err := page.Execute(w, struct {
		Title  string
		Detail string
		OK     bool
	}{title, detail, status == http.StatusOK})
	if err != nil {
		h.logger.Warn("failed to render page", "status", status, "error", err)
	}
}
