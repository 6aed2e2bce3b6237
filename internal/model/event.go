package model

import "time"

// Event status values.  sold_out is advisory: it is derived by
// rescanning seat statuses after a purchase and may be reopened by a
// cancellation.
const (
    EventActive  = "active"
    EventSoldOut = "sold_out"
)

// Event is a ticketed occasion at a venue.  Browse listings filter on
// category, venue and date.
type Event struct {
    ID        string    // events.id
    VenueID   string    // events.venue_id
    Name      string    // events.name
    Category  string    // events.category
    Date      time.Time // events.date
    Status    string    // events.status
    CreatedAt time.Time // events.created_at
    UpdatedAt time.Time // events.updated_at
}

// Venue is the physical location hosting events.
type Venue struct {
    ID      string // venues.id
    Name    string // venues.name
    Address string // venues.address
    City    string // venues.city
}

// Section is a named seating area within a venue (e.g. "orchestra").
type Section struct {
    ID   string // sections.id
    Name string // sections.name
}

// EventSection links a section to an event and carries the section
// price for that event.  Checkout reads prices from here at commit
// time rather than trusting anything cached on the hold.
type EventSection struct {
    EventID    string // event_sections.event_id
    SectionID  string // event_sections.section_id
    PriceCents int64  // event_sections.price_cents
    TotalSeats uint32 // event_sections.total_seats
}
