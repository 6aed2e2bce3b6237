package model

import "time"

// WaitlistEntry represents a client waiting for seats to free up on an
// event.  Entries are notified in join order (FIFO) and at most once;
// the engine never deletes them, removal is an administrative action.
//
// Fields:
//  ID         – primary key identifier (UUID).
//  EventID    – event the client is waiting on.
//  SectionID  – optional section filter; nil means any section.
//  OwnerID    – client identity used for duplicate detection.
//  Email      – contact included in outbound notifications.
//  Notified   – whether the entry has been notified.
//  JoinedAt   – when the client joined; notification order key.
//  NotifiedAt – when the notified flag was flipped (nullable).
type WaitlistEntry struct {
    ID         string     // waitlist_entries.id
    EventID    string     // waitlist_entries.event_id
    SectionID  *string    // waitlist_entries.section_id (nullable)
    OwnerID    string     // waitlist_entries.owner_id
    Email      string     // waitlist_entries.email
    Notified   bool       // waitlist_entries.notified
    JoinedAt   time.Time  // waitlist_entries.joined_at
    NotifiedAt *time.Time // waitlist_entries.notified_at (nullable)
}
