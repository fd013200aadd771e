package connectors

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound: backend ответил пустой выборкой там, где ждали одну запись.
var ErrNotFound = errors.New("record not found")

type ThrottleError struct {
	RetryAfter time.Duration
	Cause      error
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("throttled: retry after %v (cause: %v)", e.RetryAfter, e.Cause)
}

func (e *ThrottleError) Unwrap() error { return e.Cause }

// StatusError: не-2xx ответ backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.Code, e.Body)
}
