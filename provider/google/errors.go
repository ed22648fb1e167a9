package google

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-calendar-sync/core"
)

// APIError is a non-2xx response from the calendar API. It unwraps to the
// core sentinel matching its condition so callers can branch with errors.Is.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		body = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("google: api error (%d): %s", e.StatusCode, body)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusGone:
		return core.ErrCursorInvalid
	case e.StatusCode >= http.StatusInternalServerError:
		return core.ErrProviderUnavailable
	}
	return nil
}

// tokenError is a failed token-endpoint exchange. An invalid_grant code
// means the refresh token itself was revoked.
type tokenError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *tokenError) Error() string {
	description := strings.TrimSpace(e.Description)
	if description == "" {
		description = "unknown error"
	}
	if e.Code != "" {
		return fmt.Sprintf("google: token endpoint error (%d): %s: %s", e.StatusCode, e.Code, description)
	}
	return fmt.Sprintf("google: token endpoint error (%d): %s", e.StatusCode, description)
}

func (e *tokenError) Unwrap() error {
	if strings.EqualFold(strings.TrimSpace(e.Code), "invalid_grant") {
		return core.ErrInvalidGrant
	}
	if e.StatusCode >= http.StatusInternalServerError {
		return core.ErrProviderUnavailable
	}
	return nil
}

// IsCursorInvalid reports the provider's distinguished stale-cursor status.
func IsCursorInvalid(err error) bool {
	return errors.Is(err, core.ErrCursorInvalid)
}

// IsInvalidGrant reports a revoked refresh token.
func IsInvalidGrant(err error) bool {
	return errors.Is(err, core.ErrInvalidGrant)
}
