// internal/apiclient/errors.go
//
// Failure normalisation.
//
// Every transport-level failure (network error, non-2xx status, malformed
// body) leaves the client as one *Error whose Message is picked in order:
//
//   1. the server's own `message` field,
//   2. the transport error text,
//   3. GenericMessage.
//
// Anything else (bad base URL, unmarshalable request) is a programming
// error and is returned as-is so it is never mistaken for an API failure.

package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// GenericMessage is the last-resort user-facing text.
const GenericMessage = "An error occurred"

var (
	// ErrMalformedResponse marks a 2xx response whose body could not be decoded.
	ErrMalformedResponse = errors.New("malformed response body")

	// ErrStatus marks a non-2xx response.  It is not transport text, so a
	// status failure without a server message falls back to GenericMessage.
	ErrStatus = errors.New("request failed with status code")
)

// Error is the single error kind returned for upstream failures.
type Error struct {
	Op      string // "shorten", "qr", "qr_image", "analytics"
	Status  int    // HTTP status; 0 when no response arrived
	Message string // user-facing, never empty
	Err     error  // underlying transport or decode error, may be nil
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// IsAPIError reports whether err is (or wraps) an *Error.
func IsAPIError(err error) bool {
	var ae *Error
	return errors.As(err, &ae)
}

// normalize builds an *Error from whatever the call produced.  body is the
// response body when one was read; cause is the transport or decode error.
func normalize(op string, status int, body []byte, cause error) *Error {
	e := &Error{Op: op, Status: status, Err: cause}

	if msg := serverMessage(body); msg != "" {
		e.Message = msg
		return e
	}
	if cause != nil && !errors.Is(cause, ErrMalformedResponse) && !errors.Is(cause, ErrStatus) {
		if msg := strings.TrimSpace(cause.Error()); msg != "" {
			e.Message = msg
			return e
		}
	}
	e.Message = GenericMessage
	return e
}

func serverMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	return strings.TrimSpace(eb.Message)
}

func statusError(status int) error {
	return fmt.Errorf("%w %d", ErrStatus, status)
}
