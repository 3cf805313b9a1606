package yt

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Jeffail/gabs/v2"

	"github.com/Bebenbaven/YTcommentGETer/internal/harvest"
)

var (
	ErrNoCredentials = errors.New("youtube api key or access token is required")
	ErrBadRequest    = errors.New("bad request")
)

var quotaReasons = map[string]bool{
	"quotaExceeded":         true,
	"dailyLimitExceeded":    true,
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
}

// APIError is a non-200 answer of the Data API. It unwraps to one of the
// harvest sentinel errors.
type APIError struct {
	StatusCode int
	Reason     string
	Message    string
	kind       error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("youtube api: status %d", e.StatusCode)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.kind
}

func parseAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status}
	if doc, err := gabs.ParseJSON(body); err == nil {
		e.Message = str(doc, "error.message")
		e.Reason = str(doc, "error.errors.0.reason")
	}
	e.kind = classify(status, e.Reason)
	return e
}

func classify(status int, reason string) error {
	switch {
	case status == http.StatusUnauthorized:
		return harvest.ErrUnauthorized
	case status == http.StatusTooManyRequests:
		return harvest.ErrQuotaExceeded
	case status == http.StatusForbidden && quotaReasons[reason]:
		return harvest.ErrQuotaExceeded
	case status == http.StatusForbidden:
		return harvest.ErrForbidden
	case status == http.StatusNotFound:
		return harvest.ErrNotFound
	case status >= http.StatusInternalServerError:
		return harvest.ErrTransient
	default:
		return ErrBadRequest
	}
}
