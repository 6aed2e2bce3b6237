// Package service contains the reservation engine, checkout processor,
// waitlist notifier and browse reads.  It talks to the record store
// through the narrow interfaces below: point reads, point patches and
// attribute-filtered scans only.  The store offers no compare-and-set
// and no cross-record transactions, so every invariant is maintained by
// read-patch-verify sequences with compensating rollbacks.
package service

import (
    "context"
    "errors"
    "time"

    "github.com/iliyamo/event-ticketing/internal/model"
)

// ErrNoRecord is returned by store implementations when a point read
// misses.  Services translate it into the NotFound taxonomy with the
// resource name attached.
var ErrNoRecord = errors.New("record not found")

// SeatFilter narrows a seat scan.  Zero-valued fields match anything.
type SeatFilter struct {
    EventID   string
    SectionID string
    Status    string
    HoldID    string
}

// SeatStore provides access to seat records.  The Mark* methods are
// unconditional single-row patches; they carry no status guard, which
// is exactly why the engine re-reads after writing.
type SeatStore interface {
    GetByID(ctx context.Context, id string) (*model.Seat, error)
    Query(ctx context.Context, f SeatFilter) ([]model.Seat, error)
    MarkHeld(ctx context.Context, seatID, holdID string, expiresAt time.Time) error
    MarkAvailable(ctx context.Context, seatID string) error
    MarkSold(ctx context.Context, seatID, purchaseID string) error
}

// HoldStore persists hold records.
type HoldStore interface {
    Create(ctx context.Context, h *model.Hold) error
    GetByID(ctx context.Context, id string) (*model.Hold, error)
    SetStatus(ctx context.Context, id, status string) error
}

// PurchaseStore persists purchase records.
type PurchaseStore interface {
    Create(ctx context.Context, p *model.Purchase) error
    GetByID(ctx context.Context, id string) (*model.Purchase, error)
    SetStatus(ctx context.Context, id, status string) error
}

// WaitlistStore persists waitlist entries.  ListUnnotified must return
// entries ordered by joined_at ascending so notification stays FIFO.
type WaitlistStore interface {
    Create(ctx context.Context, e *model.WaitlistEntry) error
    HasActiveEntry(ctx context.Context, eventID, ownerID string) (bool, error)
    ListUnnotified(ctx context.Context, eventID string) ([]model.WaitlistEntry, error)
    MarkNotified(ctx context.Context, id string, at time.Time) error
}

// EventFilter narrows a browse listing.  Zero-valued fields match
// anything; DateFrom/DateTo bound the event date when non-zero.
type EventFilter struct {
    Category string
    VenueID  string
    Status   string
    DateFrom time.Time
    DateTo   time.Time
}

// EventStore provides access to events, venues and section pricing.
type EventStore interface {
    GetByID(ctx context.Context, id string) (*model.Event, error)
    List(ctx context.Context, f EventFilter) ([]model.Event, error)
    Create(ctx context.Context, ev *model.Event) error
    SetStatus(ctx context.Context, id, status string) error
    GetVenue(ctx context.Context, id string) (*model.Venue, error)
    GetSection(ctx context.Context, id string) (*model.Section, error)
    ListSections(ctx context.Context, eventID string) ([]model.EventSection, error)
    SectionPrice(ctx context.Context, eventID, sectionID string) (int64, error)
}

// SeatsAvailableEvent is the single outbound message shape published
// when seats free up, one message per notification batch.
type SeatsAvailableEvent struct {
    Type              string   `json:"type"`
    EventID           string   `json:"eventId"`
    ReleasedSeatCount int      `json:"releasedSeatCount"`
    SectionIDs        []string `json:"sectionIds"`
    Timestamp         int64    `json:"timestamp"`
}

// Publisher pushes availability events to the message bus.  Publishing
// is best-effort: failures are logged by the caller and never affect
// the committed state of the triggering mutation.
type Publisher interface {
    PublishSeatsAvailable(ctx context.Context, ev SeatsAvailableEvent) error
}

// TaskEnqueuer schedules a waitlist notification to run detached from
// the request that triggered it, with bounded retries.
type TaskEnqueuer interface {
    EnqueueNotify(ctx context.Context, eventID string, seatIDs, sectionIDs []string) error
}
