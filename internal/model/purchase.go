package model

import "time"

// Purchase status values.
const (
    PurchaseConfirmed = "confirmed"
    PurchaseCancelled = "cancelled"
)

// Purchase records a committed sale of one or more seats.  The seat ids
// and total price are copied from the hold at commit time and are
// immutable thereafter; cancellation flips the status but never edits
// the seat list or amount.
//
// Fields:
//  ID              – primary key identifier (UUID).
//  EventID         – event the seats belong to.
//  OwnerID         – buyer that completed the hold.
//  SeatIDs         – seats covered by the purchase.
//  TotalPriceCents – sum of each seat's section price at commit time.
//  Status          – one of confirmed, cancelled.
//  CreatedAt       – creation timestamp.
type Purchase struct {
    ID              string    // purchases.id
    EventID         string    // purchases.event_id
    OwnerID         string    // purchases.owner_id
    SeatIDs         []string  // purchases.seat_ids (JSON array column)
    TotalPriceCents int64     // purchases.total_price_cents
    Status          string    // purchases.status
    CreatedAt       time.Time // purchases.created_at
}
