package model

import "time"

// Hold status values.  A hold starts active and ends in exactly one of
// the three terminal states.  A hold owns no seats once it leaves active.
const (
    HoldActive    = "active"
    HoldCompleted = "completed"
    HoldExpired   = "expired"
    HoldFailed    = "failed"
)

// Hold represents a time-boxed reservation granting one owner the
// exclusive right to purchase a set of seats.  Holds reference seats
// by id only; the authoritative held/not-held state lives on the seat
// records themselves.
//
// Fields:
//  ID        – primary key identifier (UUID).
//  EventID   – event the held seats belong to.
//  SeatIDs   – ordered, de-duplicated seat ids covered by the hold.
//  OwnerID   – client that requested the hold.
//  Status    – one of active, completed, expired, failed.
//  ExpiresAt – when the hold lapses; compared lazily on access.
//  CreatedAt – creation timestamp.
type Hold struct {
    ID        string    // holds.id
    EventID   string    // holds.event_id
    SeatIDs   []string  // holds.seat_ids (JSON array column)
    OwnerID   string    // holds.owner_id
    Status    string    // holds.status
    ExpiresAt time.Time // holds.expires_at
    CreatedAt time.Time // holds.created_at
}

// Expired reports whether the hold's expiry has passed at the given
// instant.  Callers must pass a UTC time.
func (h *Hold) Expired(now time.Time) bool {
    return !h.ExpiresAt.After(now)
}
