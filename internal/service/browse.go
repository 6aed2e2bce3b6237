package service

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/event-ticketing/internal/cache"
    "github.com/iliyamo/event-ticketing/internal/model"
)

// SectionAvailability is the per-section availability aggregate
// returned by event detail and availability reads.
type SectionAvailability struct {
    SectionID      string `json:"section_id"`
    SectionName    string `json:"section_name"`
    PriceCents     int64  `json:"price_cents"`
    TotalSeats     int    `json:"total_seats"`
    AvailableSeats int    `json:"available_seats"`
    HeldSeats      int    `json:"held_seats"`
    SoldSeats      int    `json:"sold_seats"`
}

// VenueInfo is the sanitized venue summary embedded in event detail.
type VenueInfo struct {
    ID      string `json:"id"`
    Name    string `json:"name"`
    Address string `json:"address"`
    City    string `json:"city"`
}

// EventDetail is the full detail response: the event, its venue and
// per-section availability with pricing.
type EventDetail struct {
    ID       string                `json:"id"`
    Name     string                `json:"name"`
    Category string                `json:"category"`
    Date     time.Time             `json:"date"`
    Status   string                `json:"status"`
    Venue    *VenueInfo            `json:"venue,omitempty"`
    Sections []SectionAvailability `json:"sections"`
}

// EventSummary is a single row in a browse listing.
type EventSummary struct {
    ID       string    `json:"id"`
    VenueID  string    `json:"venue_id"`
    Name     string    `json:"name"`
    Category string    `json:"category"`
    Date     time.Time `json:"date"`
    Status   string    `json:"status"`
}

// cachedDetail is the envelope stored in the detail cache so a hit can
// serve both the body and the entity tag without touching the store.
type cachedDetail struct {
    ETag string          `json:"etag"`
    Body json.RawMessage `json:"body"`
}

// BrowseService serves the read side: cached listings, event detail
// with availability aggregation, and event creation.  Both read paths
// apply lazy expiry resolution before aggregating, so an expired hold
// shows up as available on the very next read.
type BrowseService struct {
    events      EventStore
    seats       SeatStore
    reservation *ReservationService
    cache       cache.Cache
    listTTL     time.Duration
    detailTTL   time.Duration
}

// NewBrowseService wires the read side.  The detail TTL should be the
// shorter of the two since availability is mutating data.
func NewBrowseService(events EventStore, seats SeatStore, reservation *ReservationService, c cache.Cache, listTTL, detailTTL time.Duration) *BrowseService {
    if events == nil || seats == nil || reservation == nil {
        panic("nil dependency passed to NewBrowseService")
    }
    if listTTL <= 0 {
        listTTL = 30 * time.Second
    }
    if detailTTL <= 0 {
        detailTTL = 10 * time.Second
    }
    return &BrowseService{
        events:      events,
        seats:       seats,
        reservation: reservation,
        cache:       c,
        listTTL:     listTTL,
        detailTTL:   detailTTL,
    }
}

// parseEventDate accepts RFC3339 or a plain date for the browse range
// filters.  Empty input yields a zero time, meaning unbounded.
func parseEventDate(s string) (time.Time, error) {
    if s == "" {
        return time.Time{}, nil
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t.UTC(), nil
    }
    t, err := time.Parse("2006-01-02", s)
    if err != nil {
        return time.Time{}, invalidInput("invalid date %q", s)
    }
    return t.UTC(), nil
}

// ListEvents returns the marshaled browse listing for the given filter
// strings, read through the cache.  The second return reports a cache
// hit; within the TTL two identical queries return byte-identical
// payloads and the second never touches the store.
func (s *BrowseService) ListEvents(ctx context.Context, category, venueID, dateFrom, dateTo, status string) ([]byte, bool, error) {
    key := cache.ListingKey(category, venueID, dateFrom, dateTo, status)
    if s.cache != nil {
        if body, ok := s.cache.Get(ctx, key); ok {
            return body, true, nil
        }
    }
    from, err := parseEventDate(dateFrom)
    if err != nil {
        return nil, false, err
    }
    to, err := parseEventDate(dateTo)
    if err != nil {
        return nil, false, err
    }
    events, err := s.events.List(ctx, EventFilter{
        Category: category,
        VenueID:  venueID,
        Status:   status,
        DateFrom: from,
        DateTo:   to,
    })
    if err != nil {
        return nil, false, err
    }
    out := make([]EventSummary, 0, len(events))
    for _, ev := range events {
        out = append(out, EventSummary{
            ID:       ev.ID,
            VenueID:  ev.VenueID,
            Name:     ev.Name,
            Category: ev.Category,
            Date:     ev.Date,
            Status:   ev.Status,
        })
    }
    body, err := json.Marshal(out)
    if err != nil {
        return nil, false, err
    }
    if s.cache != nil {
        s.cache.Set(ctx, key, body, s.listTTL)
    }
    return body, false, nil
}

// Availability aggregates per-section seat counts and pricing for an
// event, with lazy expiry resolved during the scan.
func (s *BrowseService) Availability(ctx context.Context, eventID string) ([]SectionAvailability, error) {
    sections, err := s.events.ListSections(ctx, eventID)
    if err != nil {
        return nil, err
    }
    out := make([]SectionAvailability, 0, len(sections))
    for _, es := range sections {
        seats, err := s.seats.Query(ctx, SeatFilter{EventID: eventID, SectionID: es.SectionID})
        if err != nil {
            return nil, err
        }
        ptrs := make([]*model.Seat, len(seats))
        for i := range seats {
            ptrs[i] = &seats[i]
        }
        if err := s.reservation.resolveSeats(ctx, ptrs); err != nil {
            return nil, err
        }
        agg := SectionAvailability{SectionID: es.SectionID, PriceCents: es.PriceCents, TotalSeats: len(seats)}
        if sec, err := s.events.GetSection(ctx, es.SectionID); err == nil {
            agg.SectionName = sec.Name
        } else {
            agg.SectionName = es.SectionID
        }
        for i := range seats {
            switch seats[i].Status {
            case model.SeatAvailable:
                agg.AvailableSeats++
            case model.SeatHeld:
                agg.HeldSeats++
            case model.SeatSold:
                agg.SoldSeats++
            }
        }
        out = append(out, agg)
    }
    return out, nil
}

// GetEventDetail returns the marshaled detail payload and its entity
// tag, read through the detail cache.  The tag covers the mutable event
// fields only, not the availability counters, so conditional reads stay
// stable while counts churn.
func (s *BrowseService) GetEventDetail(ctx context.Context, eventID string) ([]byte, string, bool, error) {
    key := cache.DetailKey(eventID)
    if s.cache != nil {
        if raw, ok := s.cache.Get(ctx, key); ok {
            var env cachedDetail
            if err := json.Unmarshal(raw, &env); err == nil {
                return env.Body, env.ETag, true, nil
            }
        }
    }
    ev, err := s.events.GetByID(ctx, eventID)
    if err != nil {
        if errors.Is(err, ErrNoRecord) {
            return nil, "", false, &NotFoundError{Resource: "event", ID: eventID}
        }
        return nil, "", false, err
    }
    detail := EventDetail{
        ID:       ev.ID,
        Name:     ev.Name,
        Category: ev.Category,
        Date:     ev.Date,
        Status:   ev.Status,
    }
    if ev.VenueID != "" {
        if venue, err := s.events.GetVenue(ctx, ev.VenueID); err == nil {
            detail.Venue = &VenueInfo{ID: venue.ID, Name: venue.Name, Address: venue.Address, City: venue.City}
        }
    }
    detail.Sections, err = s.Availability(ctx, eventID)
    if err != nil {
        return nil, "", false, err
    }
    etag := cache.Fingerprint(ev.ID, ev.Name, ev.Category, ev.VenueID, ev.Status,
        ev.Date.UTC().Format(time.RFC3339), ev.UpdatedAt.UTC().Format(time.RFC3339Nano))
    body, err := json.Marshal(detail)
    if err != nil {
        return nil, "", false, err
    }
    if s.cache != nil {
        if raw, err := json.Marshal(cachedDetail{ETag: etag, Body: body}); err == nil {
            s.cache.Set(ctx, key, raw, s.detailTTL)
        }
    }
    return body, etag, false, nil
}

// CreateEvent validates and stores a new event.  The venue must exist.
// The listing cache is invalidated so the new event shows up promptly.
func (s *BrowseService) CreateEvent(ctx context.Context, ev *model.Event) (*model.Event, error) {
    if strings.TrimSpace(ev.Name) == "" {
        return nil, invalidInput("name is required")
    }
    if ev.VenueID == "" {
        return nil, invalidInput("venueId is required")
    }
    if ev.Category == "" {
        return nil, invalidInput("category is required")
    }
    if ev.Date.IsZero() {
        return nil, invalidInput("date is required")
    }
    if _, err := s.events.GetVenue(ctx, ev.VenueID); err != nil {
        if errors.Is(err, ErrNoRecord) {
            return nil, &NotFoundError{Resource: "venue", ID: ev.VenueID}
        }
        return nil, err
    }
    if ev.ID == "" {
        ev.ID = uuid.NewString()
    }
    if ev.Status == "" {
        ev.Status = model.EventActive
    }
    ev.Date = ev.Date.UTC()
    now := time.Now().UTC()
    ev.CreatedAt = now
    ev.UpdatedAt = now
    if err := s.events.Create(ctx, ev); err != nil {
        return nil, fmt.Errorf("create event: %w", err)
    }
    if s.cache != nil {
        s.cache.InvalidatePrefix(ctx, cache.ListingPrefix)
    }
    return ev, nil
}
