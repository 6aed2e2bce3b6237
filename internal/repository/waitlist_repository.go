package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/event-ticketing/internal/model"
)

// WaitlistRepo provides data access to the waitlist_entries table.
// Entries are created and flagged, never deleted here; removal is an
// administrative action outside the engine.
type WaitlistRepo struct {
    db *sql.DB
}

// NewWaitlistRepo returns a WaitlistRepo bound to the provided database.
func NewWaitlistRepo(db *sql.DB) *WaitlistRepo { return &WaitlistRepo{db: db} }

// Create inserts a new waitlist entry.
func (r *WaitlistRepo) Create(ctx context.Context, e *model.WaitlistEntry) error {
    var sectionID interface{}
    if e.SectionID != nil {
        sectionID = *e.SectionID
    }
    _, err := r.db.ExecContext(ctx,
        `INSERT INTO waitlist_entries (id, event_id, section_id, owner_id, email, notified, joined_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
        e.ID, e.EventID, sectionID, e.OwnerID, e.Email, e.Notified, e.JoinedAt.UTC(),
    )
    return err
}

// HasActiveEntry reports whether an un-notified entry already exists
// for the event and owner, used to reject duplicate joins.
func (r *WaitlistRepo) HasActiveEntry(ctx context.Context, eventID, ownerID string) (bool, error) {
    var exists bool
    err := r.db.QueryRowContext(ctx,
        `SELECT EXISTS(SELECT 1 FROM waitlist_entries WHERE event_id = ? AND owner_id = ? AND notified = FALSE)`,
        eventID, ownerID,
    ).Scan(&exists)
    return exists, err
}

// ListUnnotified returns every un-notified entry for the event ordered
// by join time ascending, the FIFO order notification relies on.
func (r *WaitlistRepo) ListUnnotified(ctx context.Context, eventID string) ([]model.WaitlistEntry, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, event_id, section_id, owner_id, email, notified, joined_at, notified_at
         FROM waitlist_entries
         WHERE event_id = ? AND notified = FALSE
         ORDER BY joined_at ASC`,
        eventID,
    )
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var entries []model.WaitlistEntry
    for rows.Next() {
        var e model.WaitlistEntry
        var sectionID sql.NullString
        var notifiedAt sql.NullTime
        if err := rows.Scan(&e.ID, &e.EventID, &sectionID, &e.OwnerID, &e.Email, &e.Notified, &e.JoinedAt, &notifiedAt); err != nil {
            return nil, err
        }
        if sectionID.Valid {
            v := sectionID.String
            e.SectionID = &v
        }
        if notifiedAt.Valid {
            t := notifiedAt.Time.UTC()
            e.NotifiedAt = &t
        }
        e.JoinedAt = e.JoinedAt.UTC()
        entries = append(entries, e)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return entries, nil
}

// MarkNotified flips an entry's notified flag exactly once and records
// when it happened.
func (r *WaitlistRepo) MarkNotified(ctx context.Context, id string, at time.Time) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE waitlist_entries SET notified = TRUE, notified_at = ? WHERE id = ?`,
        at.UTC(), id,
    )
    return err
}
