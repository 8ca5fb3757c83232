package storyapi

import (
	"errors"
	"fmt"
	"net/http"
)

// RequestError is returned when the backend answers with a non-success
// status. Detail carries the server-supplied explanation when one was
// present in the response body.
type RequestError struct {
	Status int
	Detail string
}

func (e *RequestError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend error (status %d)", e.Status)
}

// RateLimited reports whether the failure was a rate-limit rejection.
func (e *RequestError) RateLimited() bool {
	return e.Status == http.StatusTooManyRequests
}

// AsRequestError unwraps err into a *RequestError if one is in the chain.
func AsRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr, true
	}
	return nil, false
}
