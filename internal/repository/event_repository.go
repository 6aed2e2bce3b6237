package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/service"
)

// EventRepo provides data access to the events, venues, sections and
// event_sections tables.  Section pricing lives on event_sections so
// the same section can be priced differently per event.
type EventRepo struct {
    db *sql.DB
}

// NewEventRepo returns an EventRepo bound to the provided database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// GetByID returns a single event.  service.ErrNoRecord is returned
// when the id is unknown.
func (r *EventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
    var ev model.Event
    err := r.db.QueryRowContext(ctx,
        `SELECT id, venue_id, name, category, date, status, created_at, updated_at FROM events WHERE id = ?`,
        id,
    ).Scan(&ev.ID, &ev.VenueID, &ev.Name, &ev.Category, &ev.Date, &ev.Status, &ev.CreatedAt, &ev.UpdatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, service.ErrNoRecord
    }
    if err != nil {
        return nil, err
    }
    ev.Date = ev.Date.UTC()
    return &ev, nil
}

// List scans events matching the filter, ordered by date ascending.
// The scan is capped to keep browse payloads bounded.
func (r *EventRepo) List(ctx context.Context, f service.EventFilter) ([]model.Event, error) {
    q := `SELECT id, venue_id, name, category, date, status, created_at, updated_at FROM events`
    var conds []string
    var args []interface{}
    if f.Category != "" {
        conds = append(conds, "category = ?")
        args = append(args, f.Category)
    }
    if f.VenueID != "" {
        conds = append(conds, "venue_id = ?")
        args = append(args, f.VenueID)
    }
    if f.Status != "" {
        conds = append(conds, "status = ?")
        args = append(args, f.Status)
    }
    if !f.DateFrom.IsZero() {
        conds = append(conds, "date >= ?")
        args = append(args, f.DateFrom.UTC())
    }
    if !f.DateTo.IsZero() {
        conds = append(conds, "date <= ?")
        args = append(args, f.DateTo.UTC())
    }
    if len(conds) > 0 {
        q += " WHERE " + strings.Join(conds, " AND ")
    }
    q += " ORDER BY date ASC LIMIT 100"
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var events []model.Event
    for rows.Next() {
        var ev model.Event
        if err := rows.Scan(&ev.ID, &ev.VenueID, &ev.Name, &ev.Category, &ev.Date, &ev.Status, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
            return nil, err
        }
        ev.Date = ev.Date.UTC()
        events = append(events, ev)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return events, nil
}

// Create inserts a new event record.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) error {
    _, err := r.db.ExecContext(ctx,
        `INSERT INTO events (id, venue_id, name, category, date, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
        ev.ID, ev.VenueID, ev.Name, ev.Category, ev.Date.UTC(), ev.Status, ev.CreatedAt.UTC(), ev.UpdatedAt.UTC(),
    )
    return err
}

// SetStatus patches an event's aggregate status (active, sold_out).
func (r *EventRepo) SetStatus(ctx context.Context, id, status string) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE events SET status = ?, updated_at = UTC_TIMESTAMP(3) WHERE id = ?`,
        status, id,
    )
    return err
}

// GetVenue returns a single venue.
func (r *EventRepo) GetVenue(ctx context.Context, id string) (*model.Venue, error) {
    var v model.Venue
    err := r.db.QueryRowContext(ctx,
        `SELECT id, name, address, city FROM venues WHERE id = ?`,
        id,
    ).Scan(&v.ID, &v.Name, &v.Address, &v.City)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, service.ErrNoRecord
    }
    if err != nil {
        return nil, err
    }
    return &v, nil
}

// GetSection returns a single section.
func (r *EventRepo) GetSection(ctx context.Context, id string) (*model.Section, error) {
    var s model.Section
    err := r.db.QueryRowContext(ctx,
        `SELECT id, name FROM sections WHERE id = ?`,
        id,
    ).Scan(&s.ID, &s.Name)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, service.ErrNoRecord
    }
    if err != nil {
        return nil, err
    }
    return &s, nil
}

// ListSections returns every section linked to an event with its
// price for that event.
func (r *EventRepo) ListSections(ctx context.Context, eventID string) ([]model.EventSection, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT event_id, section_id, price_cents, total_seats FROM event_sections WHERE event_id = ?`,
        eventID,
    )
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var sections []model.EventSection
    for rows.Next() {
        var es model.EventSection
        if err := rows.Scan(&es.EventID, &es.SectionID, &es.PriceCents, &es.TotalSeats); err != nil {
            return nil, err
        }
        sections = append(sections, es)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return sections, nil
}

// SectionPrice returns the price of a section for a given event.
// service.ErrNoRecord is returned when the pairing does not exist.
func (r *EventRepo) SectionPrice(ctx context.Context, eventID, sectionID string) (int64, error) {
    var price int64
    err := r.db.QueryRowContext(ctx,
        `SELECT price_cents FROM event_sections WHERE event_id = ? AND section_id = ?`,
        eventID, sectionID,
    ).Scan(&price)
    if errors.Is(err, sql.ErrNoRows) {
        return 0, service.ErrNoRecord
    }
    return price, err
}
