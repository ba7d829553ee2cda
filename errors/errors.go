package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Authentication failures returned by the identity verifier.
	ErrMissingCredential = fmt.Errorf("missing credential")
	ErrInvalidCredential = fmt.Errorf("invalid credential")

	// Membership failures returned by the group repository.
	ErrGroupAlreadyExists = fmt.Errorf("group already exists")
	ErrGroupNotFound      = fmt.Errorf("group not found")
	ErrForbidden          = fmt.Errorf("not a member of this group")

	// ErrStoreUnavailable flags a failure of the backing store. It is fatal
	// to the triggering request, never to the process.
	ErrStoreUnavailable = fmt.Errorf("store unavailable")

	ErrConnectionNotFound = fmt.Errorf("connection not found")

	// Per-target delivery failures. Swallowed by the fanout and logged,
	// never surfaced to the sender.
	ErrSlowConsumer     = fmt.Errorf("outbound channel full")
	ErrConnectionClosed = fmt.Errorf("connection closed")

	ErrWorkerPanic    = fmt.Errorf("worker panic")
	ErrInvalidRequest = fmt.Errorf("invalid request")
)

// MapToHTTPStatus converts domain errors to HTTP status codes at the
// transport boundary. Unknown errors are treated as internal.
func MapToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrMissingCredential), errors.Is(err, ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrGroupNotFound), errors.Is(err, ErrConnectionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrGroupAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
