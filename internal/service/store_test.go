package service

import (
    "context"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/iliyamo/event-ticketing/internal/model"
)

// memStore is an in-memory implementation of every store port.  It
// mimics the production store's contract: point reads, unconditional
// single-row patches and filtered scans, with no transactions and no
// conditional writes.  onMarkHeld runs under the lock right after a
// hold is written to a seat, letting tests interleave a rival claim
// inside the write-verify window; onMarkSold runs before a sold patch
// applies so tests can fail a commit partway through.
type memStore struct {
    mu sync.Mutex

    seats     map[string]*model.Seat
    holds     map[string]*model.Hold
    purchases map[string]*model.Purchase
    entries   []*model.WaitlistEntry
    events    map[string]*model.Event
    venues    map[string]*model.Venue
    sections  map[string]*model.Section
    pricing   []model.EventSection

    seatQueries int
    eventLists  int

    onMarkHeld func(seat *model.Seat)
    onMarkSold func(seatID string) error
}

func newMemStore() *memStore {
    return &memStore{
        seats:     make(map[string]*model.Seat),
        holds:     make(map[string]*model.Hold),
        purchases: make(map[string]*model.Purchase),
        events:    make(map[string]*model.Event),
        venues:    make(map[string]*model.Venue),
        sections:  make(map[string]*model.Section),
    }
}

func cloneSeat(s *model.Seat) *model.Seat {
    c := *s
    if s.HoldID != nil {
        v := *s.HoldID
        c.HoldID = &v
    }
    if s.HoldExpiry != nil {
        v := *s.HoldExpiry
        c.HoldExpiry = &v
    }
    if s.PurchaseID != nil {
        v := *s.PurchaseID
        c.PurchaseID = &v
    }
    return &c
}

func (m *memStore) GetByID(ctx context.Context, id string) (*model.Seat, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    s, ok := m.seats[id]
    if !ok {
        return nil, ErrNoRecord
    }
    return cloneSeat(s), nil
}

func (m *memStore) Query(ctx context.Context, f SeatFilter) ([]model.Seat, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.seatQueries++
    var out []model.Seat
    for _, s := range m.seats {
        if f.EventID != "" && s.EventID != f.EventID {
            continue
        }
        if f.SectionID != "" && s.SectionID != f.SectionID {
            continue
        }
        if f.Status != "" && s.Status != f.Status {
            continue
        }
        if f.HoldID != "" && (s.HoldID == nil || *s.HoldID != f.HoldID) {
            continue
        }
        out = append(out, *cloneSeat(s))
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

func (m *memStore) MarkHeld(ctx context.Context, seatID, holdID string, expiresAt time.Time) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    s, ok := m.seats[seatID]
    if !ok {
        return ErrNoRecord
    }
    s.Status = model.SeatHeld
    id := holdID
    s.HoldID = &id
    exp := expiresAt
    s.HoldExpiry = &exp
    if m.onMarkHeld != nil {
        m.onMarkHeld(s)
    }
    return nil
}

func (m *memStore) MarkAvailable(ctx context.Context, seatID string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    s, ok := m.seats[seatID]
    if !ok {
        return ErrNoRecord
    }
    s.Status = model.SeatAvailable
    s.HoldID = nil
    s.HoldExpiry = nil
    s.PurchaseID = nil
    return nil
}

func (m *memStore) MarkSold(ctx context.Context, seatID, purchaseID string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    if m.onMarkSold != nil {
        if err := m.onMarkSold(seatID); err != nil {
            return err
        }
    }
    s, ok := m.seats[seatID]
    if !ok {
        return ErrNoRecord
    }
    s.Status = model.SeatSold
    id := purchaseID
    s.PurchaseID = &id
    s.HoldID = nil
    s.HoldExpiry = nil
    return nil
}

func (m *memStore) Create(ctx context.Context, h *model.Hold) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    c := *h
    c.SeatIDs = append([]string(nil), h.SeatIDs...)
    m.holds[h.ID] = &c
    return nil
}

func (m *memStore) getHold(id string) (*model.Hold, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    h, ok := m.holds[id]
    if !ok {
        return nil, ErrNoRecord
    }
    c := *h
    c.SeatIDs = append([]string(nil), h.SeatIDs...)
    return &c, nil
}

func (m *memStore) setHoldStatus(id, status string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    h, ok := m.holds[id]
    if !ok {
        return ErrNoRecord
    }
    h.Status = status
    return nil
}

// holdStore and purchaseStore adapt memStore to the HoldStore and
// PurchaseStore ports; both have Create/GetByID/SetStatus and Go will
// not let one type carry two methods with the same name and different
// signatures.
type holdStore struct{ m *memStore }

func (h holdStore) Create(ctx context.Context, hold *model.Hold) error { return h.m.Create(ctx, hold) }
func (h holdStore) GetByID(ctx context.Context, id string) (*model.Hold, error) {
    return h.m.getHold(id)
}
func (h holdStore) SetStatus(ctx context.Context, id, status string) error {
    return h.m.setHoldStatus(id, status)
}

type purchaseStore struct{ m *memStore }

func (p purchaseStore) Create(ctx context.Context, pur *model.Purchase) error {
    p.m.mu.Lock()
    defer p.m.mu.Unlock()
    c := *pur
    c.SeatIDs = append([]string(nil), pur.SeatIDs...)
    p.m.purchases[pur.ID] = &c
    return nil
}

func (p purchaseStore) GetByID(ctx context.Context, id string) (*model.Purchase, error) {
    p.m.mu.Lock()
    defer p.m.mu.Unlock()
    pur, ok := p.m.purchases[id]
    if !ok {
        return nil, ErrNoRecord
    }
    c := *pur
    c.SeatIDs = append([]string(nil), pur.SeatIDs...)
    return &c, nil
}

func (p purchaseStore) SetStatus(ctx context.Context, id, status string) error {
    p.m.mu.Lock()
    defer p.m.mu.Unlock()
    pur, ok := p.m.purchases[id]
    if !ok {
        return ErrNoRecord
    }
    pur.Status = status
    return nil
}

type waitlistStore struct{ m *memStore }

func (w waitlistStore) Create(ctx context.Context, e *model.WaitlistEntry) error {
    w.m.mu.Lock()
    defer w.m.mu.Unlock()
    c := *e
    w.m.entries = append(w.m.entries, &c)
    return nil
}

func (w waitlistStore) HasActiveEntry(ctx context.Context, eventID, ownerID string) (bool, error) {
    w.m.mu.Lock()
    defer w.m.mu.Unlock()
    for _, e := range w.m.entries {
        if e.EventID == eventID && e.OwnerID == ownerID && !e.Notified {
            return true, nil
        }
    }
    return false, nil
}

func (w waitlistStore) ListUnnotified(ctx context.Context, eventID string) ([]model.WaitlistEntry, error) {
    w.m.mu.Lock()
    defer w.m.mu.Unlock()
    var out []model.WaitlistEntry
    for _, e := range w.m.entries {
        if e.EventID == eventID && !e.Notified {
            out = append(out, *e)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
    return out, nil
}

func (w waitlistStore) MarkNotified(ctx context.Context, id string, at time.Time) error {
    w.m.mu.Lock()
    defer w.m.mu.Unlock()
    for _, e := range w.m.entries {
        if e.ID == id {
            e.Notified = true
            t := at
            e.NotifiedAt = &t
            return nil
        }
    }
    return ErrNoRecord
}

type eventStore struct{ m *memStore }

func (e eventStore) GetByID(ctx context.Context, id string) (*model.Event, error) {
    e.m.mu.Lock()
    defer e.m.mu.Unlock()
    ev, ok := e.m.events[id]
    if !ok {
        return nil, ErrNoRecord
    }
    c := *ev
    return &c, nil
}

func (e eventStore) List(ctx context.Context, f EventFilter) ([]model.Event, error) {
    e.m.mu.Lock()
    defer e.m.mu.Unlock()
    e.m.eventLists++
    var out []model.Event
    for _, ev := range e.m.events {
        if f.Category != "" && ev.Category != f.Category {
            continue
        }
        if f.VenueID != "" && ev.VenueID != f.VenueID {
            continue
        }
        if f.Status != "" && ev.Status != f.Status {
            continue
        }
        if !f.DateFrom.IsZero() && ev.Date.Before(f.DateFrom) {
            continue
        }
        if !f.DateTo.IsZero() && ev.Date.After(f.DateTo) {
            continue
        }
        out = append(out, *ev)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

func (e eventStore) Create(ctx context.Context, ev *model.Event) error {
    e.m.mu.Lock()
    defer e.m.mu.Unlock()
    c := *ev
    e.m.events[ev.ID] = &c
    return nil
}

func (e eventStore) SetStatus(ctx context.Context, id, status string) error {
    e.m.mu.Lock()
    defer e.m.mu.Unlock()
    ev, ok := e.m.events[id]
    if !ok {
        return ErrNoRecord
    }
    ev.Status = status
    return nil
}

func (e eventStore) GetVenue(ctx context.Context, id string) (*model.Venue, error) {
    e.m.mu.Lock()
    defer e.m.mu.Unlock()
    v, ok := e.m.venues[id]
    if !ok {
        return nil, ErrNoRecord
    }
    c := *v
    return &c, nil
}

func (e eventStore) GetSection(ctx context.Context, id string) (*model.Section, error) {
    e.m.mu.Lock()
    defer e.m.mu.Unlock()
    s, ok := e.m.sections[id]
    if !ok {
        return nil, ErrNoRecord
    }
    c := *s
    return &c, nil
}

func (e eventStore) ListSections(ctx context.Context, eventID string) ([]model.EventSection, error) {
    e.m.mu.Lock()
    defer e.m.mu.Unlock()
    var out []model.EventSection
    for _, es := range e.m.pricing {
        if es.EventID == eventID {
            out = append(out, es)
        }
    }
    return out, nil
}

func (e eventStore) SectionPrice(ctx context.Context, eventID, sectionID string) (int64, error) {
    e.m.mu.Lock()
    defer e.m.mu.Unlock()
    for _, es := range e.m.pricing {
        if es.EventID == eventID && es.SectionID == sectionID {
            return es.PriceCents, nil
        }
    }
    return 0, ErrNoRecord
}

// recordingPublisher captures published events; failing toggles every
// publish into an error.
type recordingPublisher struct {
    mu      sync.Mutex
    events  []SeatsAvailableEvent
    failing bool
}

func (p *recordingPublisher) PublishSeatsAvailable(ctx context.Context, ev SeatsAvailableEvent) error {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.failing {
        return context.DeadlineExceeded
    }
    p.events = append(p.events, ev)
    return nil
}

func (p *recordingPublisher) published() []SeatsAvailableEvent {
    p.mu.Lock()
    defer p.mu.Unlock()
    return append([]SeatsAvailableEvent(nil), p.events...)
}

// syncEnqueuer runs notifications inline so tests never race a
// background goroutine.
type syncEnqueuer struct {
    svc *WaitlistService
}

func (e *syncEnqueuer) EnqueueNotify(ctx context.Context, eventID string, seatIDs, sectionIDs []string) error {
    _, err := e.svc.Notify(ctx, eventID, seatIDs, sectionIDs)
    return err
}

// fixture seeds one event with two priced sections and four seats, all
// available.
func newFixture() *memStore {
    m := newMemStore()
    m.venues["v1"] = &model.Venue{ID: "v1", Name: "Grand Hall", Address: "1 Main St", City: "Springfield"}
    m.sections["secA"] = &model.Section{ID: "secA", Name: "Orchestra"}
    m.sections["secB"] = &model.Section{ID: "secB", Name: "Balcony"}
    m.events["ev1"] = &model.Event{
        ID:       "ev1",
        VenueID:  "v1",
        Name:     "Spring Concert",
        Category: "music",
        Date:     time.Date(2026, 10, 1, 19, 0, 0, 0, time.UTC),
        Status:   model.EventActive,
    }
    m.pricing = []model.EventSection{
        {EventID: "ev1", SectionID: "secA", PriceCents: 10000, TotalSeats: 3},
        {EventID: "ev1", SectionID: "secB", PriceCents: 15000, TotalSeats: 1},
    }
    for _, id := range []string{"s1", "s2", "s3"} {
        n := uint32(strings.TrimPrefix(id, "s")[0] - '0')
        m.seats[id] = &model.Seat{ID: id, EventID: "ev1", SectionID: "secA", RowLabel: "A", SeatNumber: n, Status: model.SeatAvailable}
    }
    m.seats["s4"] = &model.Seat{ID: "s4", EventID: "ev1", SectionID: "secB", RowLabel: "B", SeatNumber: 1, Status: model.SeatAvailable}
    return m
}

// newEngine wires a reservation service over the fixture with inline
// waitlist notification.
func newEngine(m *memStore, holdDuration time.Duration) (*ReservationService, *WaitlistService, *recordingPublisher) {
    pub := &recordingPublisher{}
    wl := NewWaitlistService(waitlistStore{m}, eventStore{m}, pub, FanoutReleased)
    wl.SetEnqueuer(&syncEnqueuer{svc: wl})
    res := NewReservationService(m, holdStore{m}, eventStore{m}, wl, nil, holdDuration)
    return res, wl, pub
}
