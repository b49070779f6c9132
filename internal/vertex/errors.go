package vertex

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoCredentials is returned when the client was built without a token source.
var ErrNoCredentials = errors.New("no credential source configured")

// AuthError means a bearer token could not be obtained or refreshed.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("vertex auth: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// GenerationError carries a non-2xx response from a generation endpoint verbatim.
type GenerationError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s %s: http %d: %s", e.Method, e.URL, e.Status, e.Body)
}

// OperationError is a long-running operation that finished with an error payload.
type OperationError struct {
	Name    string
	Code    int
	Message string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %s failed: code %d: %s", e.Name, e.Code, e.Message)
}

// OperationTimeout means polling gave up before the operation reported done.
type OperationTimeout struct {
	Name    string
	Elapsed time.Duration
	Polls   int
}

func (e *OperationTimeout) Error() string {
	return fmt.Sprintf("operation %s timed out after %s (%d polls)", e.Name, e.Elapsed.Round(time.Millisecond), e.Polls)
}
