package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/spotybot/internal/shared"
	"golang.org/x/oauth2"
)

// APIError is a non-2xx answer from the Spotify Web API.
type APIError struct {
	Status     int
	Message    string
	Reason     string
	RetryAfter time.Duration
	kind       error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("spotify API error: status %d", e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

// Unwrap returns the shared sentinel the response maps to.
func (e *APIError) Unwrap() error {
	return e.kind
}

type errorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Reason  string `json:"reason"`
	} `json:"error"`
}

// newAPIError classifies resp. Player endpoints answer 404 when no device is active.
func newAPIError(resp *http.Response, endpoint string) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	var body errorBody
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil && len(data) > 0 {
		if json.Unmarshal(data, &body) == nil {
			apiErr.Message = body.Error.Message
			apiErr.Reason = body.Error.Reason
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		apiErr.kind = shared.ErrAuthFailure
	case resp.StatusCode == http.StatusTooManyRequests:
		apiErr.kind = shared.ErrRateLimited
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
	case apiErr.Reason == "NO_ACTIVE_DEVICE":
		apiErr.kind = shared.ErrNoActiveDevice
	case resp.StatusCode == http.StatusNotFound && strings.HasPrefix(endpoint, "/me/player"):
		apiErr.kind = shared.ErrNoActiveDevice
	default:
		apiErr.kind = shared.ErrUpstream
	}

	return apiErr
}

// classifyTokenError maps a refresh failure. The token endpoint answers 400 invalid_grant for a
// revoked refresh token; that is an authorization failure, anything else is upstream trouble.
func classifyTokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.ErrorCode == "invalid_grant" || re.ErrorCode == "invalid_client" {
			return fmt.Errorf("%w: %v", shared.ErrAuthFailure, err)
		}
		if re.Response != nil && (re.Response.StatusCode == http.StatusBadRequest || re.Response.StatusCode == http.StatusUnauthorized) {
			return fmt.Errorf("%w: %v", shared.ErrAuthFailure, err)
		}
	}
	return fmt.Errorf("%w: token refresh: %v", shared.ErrUpstream, err)
}
