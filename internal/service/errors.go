package service

import (
    "errors"
    "fmt"
    "strings"
)

// Error taxonomy surfaced to callers.  Handlers translate these into
// HTTP statuses: InvalidInput -> 400, NotFound -> 404, Forbidden -> 403,
// Conflict -> 409, ErrHoldExpired -> 410.  Everything else is a 500.

// ErrForbidden is returned when the caller's owner id does not match
// the record owner.
var ErrForbidden = errors.New("forbidden")

// ErrHoldExpired is returned when a hold's expiry passed between check
// and use.  The hold has already been released as expired by the time
// the caller sees this error.
var ErrHoldExpired = errors.New("hold expired")

// InvalidInputError reports a missing or malformed field.  It is fatal
// to the single call and must not be retried unchanged.
type InvalidInputError struct {
    Msg string
}

func (e *InvalidInputError) Error() string { return e.Msg }

func invalidInput(format string, args ...interface{}) error {
    return &InvalidInputError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown seat, hold, event or purchase id.
type NotFoundError struct {
    Resource string
    ID       string
}

func (e *NotFoundError) Error() string {
    return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError reports a state conflict: unavailable seats, a lost
// claim race, a non-active hold, a duplicate waitlist join or a double
// cancel.  SeatIDs names the contested seats when the conflict is
// seat-scoped.
type ConflictError struct {
    Reason  string
    SeatIDs []string
}

func (e *ConflictError) Error() string {
    if len(e.SeatIDs) == 0 {
        return e.Reason
    }
    return e.Reason + ": " + strings.Join(e.SeatIDs, ", ")
}
