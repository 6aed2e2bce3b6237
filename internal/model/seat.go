package model

import "time"

// Seat status values.  A seat moves available -> held -> sold and may
// return to available when a hold is released or expires.  Once sold,
// the only way back to available is an explicit purchase cancellation.
const (
    SeatAvailable = "available"
    SeatHeld      = "held"
    SeatSold      = "sold"
)

// Seat describes a single sellable seat for an event.  Seats are the
// only shared mutable resource in the system; every status change goes
// through the reservation or checkout services.
//
// Fields:
//  ID         – primary key identifier.
//  EventID    – event this seat belongs to.
//  SectionID  – section within the venue, used for pricing.
//  RowLabel   – letter or string designating the row.
//  SeatNumber – number of the seat within the row.
//  Status     – one of available, held, sold.
//  HoldID     – owning hold while the seat is held (nullable).
//  HoldExpiry – when the current hold lapses (nullable).
//  PurchaseID – purchase that bought the seat (nullable, set once sold).
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Seat struct {
    ID         string     // seats.id
    EventID    string     // seats.event_id
    SectionID  string     // seats.section_id
    RowLabel   string     // seats.row_label
    SeatNumber uint32     // seats.seat_number
    Status     string     // seats.status
    HoldID     *string    // seats.hold_id (nullable)
    HoldExpiry *time.Time // seats.hold_expiry (nullable)
    PurchaseID *string    // seats.purchase_id (nullable)
    CreatedAt  time.Time  // seats.created_at
    UpdatedAt  time.Time  // seats.updated_at
}
