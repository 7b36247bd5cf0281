package exchange

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is a non-2xx response from the API.
type StatusError struct {
	Code       int
	Body       string
	RetryAfter string
}

func (e *StatusError) Error() string {
	if e.Code == http.StatusTooManyRequests || e.Code == http.StatusForbidden {
		return fmt.Sprintf("rate limited (%d), retry after: %s", e.Code, e.RetryAfter)
	}
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// ErrorAction determines how to handle a request error.
type ErrorAction int

const (
	ActionRetry ErrorAction = iota
	ActionFatal
)

// ClassifyError determines the action for a given error. Client-side
// request errors (bad parameters, missing resources) never heal on retry.
// Everything else is retryable, including 403 and 429, which the API uses
// interchangeably to throttle bursts.
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionRetry
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound:
			return ActionFatal
		}
	}

	return ActionRetry
}
