package service

import (
    "context"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/event-ticketing/internal/cache"
    "github.com/iliyamo/event-ticketing/internal/model"
)

// DefaultHoldDuration is how long a claim reserves its seats before
// lapsing.  Overridable via HOLD_DURATION.
const DefaultHoldDuration = 5 * time.Minute

// ReservationService is the seat state machine.  It drives every
// transition between available, held and sold, resolves hold expiry
// lazily on each read path, and makes multi-seat claims effectively
// atomic over a store that has no transactions by writing the claim and
// then re-reading every seat to verify it was not overwritten by a
// concurrent claimer.
type ReservationService struct {
    seats        SeatStore
    holds        HoldStore
    events       EventStore
    waitlist     *WaitlistService
    cache        cache.Cache
    holdDuration time.Duration
}

// NewReservationService wires the engine.  waitlist may be nil in which
// case expiry and release events simply go unannounced; events may be
// nil in which case the sold_out flag is never cleared here.
func NewReservationService(seats SeatStore, holds HoldStore, events EventStore, waitlist *WaitlistService, c cache.Cache, holdDuration time.Duration) *ReservationService {
    if seats == nil || holds == nil {
        panic("nil store passed to NewReservationService")
    }
    if holdDuration <= 0 {
        holdDuration = DefaultHoldDuration
    }
    return &ReservationService{
        seats:        seats,
        holds:        holds,
        events:       events,
        waitlist:     waitlist,
        cache:        c,
        holdDuration: holdDuration,
    }
}

// HoldDuration reports the configured hold lifetime.
func (s *ReservationService) HoldDuration() time.Duration { return s.holdDuration }

// invalidate drops every cached browse listing and the detail entry for
// the event.  Filter combinations are not tracked individually, so the
// whole listing prefix goes.
func (s *ReservationService) invalidate(ctx context.Context, eventID string) {
    if s.cache == nil {
        return
    }
    s.cache.InvalidatePrefix(ctx, cache.ListingPrefix)
    s.cache.InvalidatePrefix(ctx, cache.DetailKey(eventID))
}

// expireSeat patches a lapsed held seat back to available and marks the
// owning hold expired if it was still active.  The passed seat struct
// is updated in place so callers hand out the resolved state, never the
// stale stored value.
func (s *ReservationService) expireSeat(ctx context.Context, seat *model.Seat) error {
    if err := s.seats.MarkAvailable(ctx, seat.ID); err != nil {
        return fmt.Errorf("release expired seat %s: %w", seat.ID, err)
    }
    if seat.HoldID != nil {
        hold, err := s.holds.GetByID(ctx, *seat.HoldID)
        if err == nil && hold.Status == model.HoldActive {
            if err := s.holds.SetStatus(ctx, hold.ID, model.HoldExpired); err != nil {
                log.Printf("reservation: mark hold %s expired failed: %v", hold.ID, err)
            }
        } else if err != nil && !errors.Is(err, ErrNoRecord) {
            log.Printf("reservation: load hold %s failed: %v", *seat.HoldID, err)
        }
    }
    seat.Status = model.SeatAvailable
    seat.HoldID = nil
    seat.HoldExpiry = nil
    return nil
}

// resolveSeats applies lazy expiry to every passed seat.  This runs on
// every read path because no background sweep is guaranteed to have run
// first.  When seats were freed, the waitlist is notified once per
// event and the browse cache is invalidated.
func (s *ReservationService) resolveSeats(ctx context.Context, seats []*model.Seat) error {
    now := time.Now().UTC()
    released := make(map[string][]string)  // eventID -> seat ids
    sections := make(map[string][]string)  // eventID -> section ids
    sectionSet := make(map[string]bool)
    for _, seat := range seats {
        if seat.Status != model.SeatHeld || seat.HoldExpiry == nil || seat.HoldExpiry.After(now) {
            continue
        }
        sectionID := seat.SectionID
        if err := s.expireSeat(ctx, seat); err != nil {
            return err
        }
        released[seat.EventID] = append(released[seat.EventID], seat.ID)
        if !sectionSet[seat.EventID+":"+sectionID] {
            sectionSet[seat.EventID+":"+sectionID] = true
            sections[seat.EventID] = append(sections[seat.EventID], sectionID)
        }
    }
    for eventID, seatIDs := range released {
        s.invalidate(ctx, eventID)
        s.reopenIfSoldOut(ctx, eventID)
        if s.waitlist != nil {
            s.waitlist.NotifyDetached(eventID, seatIDs, sections[eventID])
        }
    }
    return nil
}

// reopenIfSoldOut clears the advisory sold_out flag once freed seats
// put the event back on sale.  Runs after any release path: expiry,
// explicit hold release and purchase cancellation.
func (s *ReservationService) reopenIfSoldOut(ctx context.Context, eventID string) {
    if s.events == nil {
        return
    }
    ev, err := s.events.GetByID(ctx, eventID)
    if err != nil {
        log.Printf("reservation: reopen read event %s: %v", eventID, err)
        return
    }
    if ev.Status != model.EventSoldOut {
        return
    }
    if err := s.events.SetStatus(ctx, eventID, model.EventActive); err != nil {
        log.Printf("reservation: reopen event %s failed: %v", eventID, err)
    }
}

// GetSeat returns a single seat with lazy expiry resolved.
func (s *ReservationService) GetSeat(ctx context.Context, id string) (*model.Seat, error) {
    seat, err := s.seats.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, ErrNoRecord) {
            return nil, &NotFoundError{Resource: "seat", ID: id}
        }
        return nil, err
    }
    if err := s.resolveSeats(ctx, []*model.Seat{seat}); err != nil {
        return nil, err
    }
    return seat, nil
}

// ListSeats returns every seat of an event with lazy expiry resolved.
func (s *ReservationService) ListSeats(ctx context.Context, eventID string) ([]model.Seat, error) {
    seats, err := s.seats.Query(ctx, SeatFilter{EventID: eventID})
    if err != nil {
        return nil, err
    }
    ptrs := make([]*model.Seat, len(seats))
    for i := range seats {
        ptrs[i] = &seats[i]
    }
    if err := s.resolveSeats(ctx, ptrs); err != nil {
        return nil, err
    }
    return seats, nil
}

// ClaimSeats places a time-boxed hold on the requested seats for one
// owner.  The operation is all-or-nothing from the caller's view: if
// any seat is unavailable no hold survives and the conflict names the
// unavailable seat ids.
//
// The store has no conditional write, so the claim uses write-then-
// verify: every seat is patched with the new hold id and then re-read.
// A seat whose hold id no longer matches was won by a concurrent claim;
// the whole hold is rolled back (marked failed, still-owned seats
// released) and the losers are reported as a conflict.  The race window
// between write and verify is bounded and detectable, not eliminated.
func (s *ReservationService) ClaimSeats(ctx context.Context, eventID string, seatIDs []string, ownerID string) (*model.Hold, error) {
    if ownerID == "" {
        return nil, invalidInput("ownerId is required")
    }
    if eventID == "" {
        return nil, invalidInput("eventId is required")
    }
    if len(seatIDs) == 0 {
        return nil, invalidInput("seatIds is required")
    }
    seen := make(map[string]bool, len(seatIDs))
    for _, id := range seatIDs {
        if id == "" {
            return nil, invalidInput("empty seat id")
        }
        if seen[id] {
            return nil, invalidInput("duplicate seat id %s", id)
        }
        seen[id] = true
    }

    // Read every requested seat, resolve lazy expiry, and check
    // availability before writing anything.
    var unavailable []string
    for _, id := range seatIDs {
        seat, err := s.GetSeat(ctx, id)
        if err != nil {
            return nil, err
        }
        if seat.EventID != eventID {
            return nil, invalidInput("seat %s does not belong to event %s", id, eventID)
        }
        if seat.Status != model.SeatAvailable {
            unavailable = append(unavailable, id)
        }
    }
    if len(unavailable) > 0 {
        return nil, &ConflictError{Reason: "seats unavailable", SeatIDs: unavailable}
    }

    now := time.Now().UTC()
    hold := &model.Hold{
        ID:        uuid.NewString(),
        EventID:   eventID,
        SeatIDs:   append([]string(nil), seatIDs...),
        OwnerID:   ownerID,
        Status:    model.HoldActive,
        ExpiresAt: now.Add(s.holdDuration),
        CreatedAt: now,
    }
    if err := s.holds.Create(ctx, hold); err != nil {
        return nil, fmt.Errorf("create hold: %w", err)
    }

    // Write the claim to every seat.
    for _, id := range seatIDs {
        if err := s.seats.MarkHeld(ctx, id, hold.ID, hold.ExpiresAt); err != nil {
            s.rollbackClaim(ctx, hold)
            return nil, fmt.Errorf("claim seat %s: %w", id, err)
        }
    }

    // Verify every seat still carries our hold id.  A mismatch means a
    // concurrent claim overwrote ours after we wrote it.
    var lost []string
    for _, id := range seatIDs {
        cur, err := s.seats.GetByID(ctx, id)
        if err != nil {
            s.rollbackClaim(ctx, hold)
            return nil, fmt.Errorf("verify seat %s: %w", id, err)
        }
        if cur.Status != model.SeatHeld || cur.HoldID == nil || *cur.HoldID != hold.ID {
            lost = append(lost, id)
        }
    }
    if len(lost) > 0 {
        s.rollbackClaim(ctx, hold)
        return nil, &ConflictError{Reason: "lost claim race", SeatIDs: lost}
    }

    s.invalidate(ctx, eventID)
    return hold, nil
}

// rollbackClaim compensates a failed claim: the hold is marked failed
// and every seat it still owns goes back to available.  Compensation is
// best-effort; a seat missed here is freed later by lazy expiry.
func (s *ReservationService) rollbackClaim(ctx context.Context, hold *model.Hold) {
    if err := s.holds.SetStatus(ctx, hold.ID, model.HoldFailed); err != nil {
        log.Printf("reservation: mark hold %s failed: %v", hold.ID, err)
    }
    for _, id := range hold.SeatIDs {
        cur, err := s.seats.GetByID(ctx, id)
        if err != nil {
            log.Printf("reservation: rollback read seat %s: %v", id, err)
            continue
        }
        if cur.HoldID != nil && *cur.HoldID == hold.ID {
            if err := s.seats.MarkAvailable(ctx, id); err != nil {
                log.Printf("reservation: rollback seat %s: %v", id, err)
            }
        }
    }
}

// GetHold returns a hold with lazy expiry applied: an active hold whose
// expiry has passed is released on the spot and reported as expired.
func (s *ReservationService) GetHold(ctx context.Context, id string) (*model.Hold, error) {
    hold, err := s.holds.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, ErrNoRecord) {
            return nil, &NotFoundError{Resource: "hold", ID: id}
        }
        return nil, err
    }
    if hold.Status == model.HoldActive && hold.Expired(time.Now().UTC()) {
        if _, err := s.expireHold(ctx, hold); err != nil {
            return nil, err
        }
    }
    return hold, nil
}

// ReleaseHold tears down a hold before its expiry.  Terminal holds are
// a no-op so the call is idempotent.  When requesterID is non-empty it
// must match the hold owner.  Returns the seat ids actually released.
func (s *ReservationService) ReleaseHold(ctx context.Context, holdID, requesterID string) ([]string, error) {
    hold, err := s.holds.GetByID(ctx, holdID)
    if err != nil {
        if errors.Is(err, ErrNoRecord) {
            return nil, &NotFoundError{Resource: "hold", ID: holdID}
        }
        return nil, err
    }
    if hold.Status != model.HoldActive {
        return []string{}, nil
    }
    if requesterID != "" && requesterID != hold.OwnerID {
        return nil, ErrForbidden
    }
    return s.expireHold(ctx, hold)
}

// expireHold transitions an active hold to expired, frees the seats it
// still owns and notifies the waitlist once with the released set.
func (s *ReservationService) expireHold(ctx context.Context, hold *model.Hold) ([]string, error) {
    held, err := s.seats.Query(ctx, SeatFilter{HoldID: hold.ID, Status: model.SeatHeld})
    if err != nil {
        return nil, err
    }
    released := make([]string, 0, len(held))
    sections := make([]string, 0, len(held))
    sectionSet := make(map[string]bool)
    for i := range held {
        if err := s.seats.MarkAvailable(ctx, held[i].ID); err != nil {
            return nil, fmt.Errorf("release seat %s: %w", held[i].ID, err)
        }
        released = append(released, held[i].ID)
        if !sectionSet[held[i].SectionID] {
            sectionSet[held[i].SectionID] = true
            sections = append(sections, held[i].SectionID)
        }
    }
    if err := s.holds.SetStatus(ctx, hold.ID, model.HoldExpired); err != nil {
        return nil, fmt.Errorf("expire hold %s: %w", hold.ID, err)
    }
    hold.Status = model.HoldExpired
    s.invalidate(ctx, hold.EventID)
    if len(released) > 0 {
        s.reopenIfSoldOut(ctx, hold.EventID)
        if s.waitlist != nil {
            s.waitlist.NotifyDetached(hold.EventID, released, sections)
        }
    }
    return released, nil
}

// SweepExpired releases every lapsed hold for an event, or for all
// events when eventID is empty.  The sweep is an optimization only;
// correctness never depends on it because every read path resolves
// expiry itself.
func (s *ReservationService) SweepExpired(ctx context.Context, eventID string) ([]string, error) {
    held, err := s.seats.Query(ctx, SeatFilter{EventID: eventID, Status: model.SeatHeld})
    if err != nil {
        return nil, err
    }
    ptrs := make([]*model.Seat, 0, len(held))
    for i := range held {
        ptrs = append(ptrs, &held[i])
    }
    if err := s.resolveSeats(ctx, ptrs); err != nil {
        return nil, err
    }
    // Every seat in the scan was held; the ones now available are the
    // ones the resolve freed.
    released := []string{}
    for _, p := range ptrs {
        if p.Status == model.SeatAvailable {
            released = append(released, p.ID)
        }
    }
    return released, nil
}
