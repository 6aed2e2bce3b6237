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

// CheckoutService converts active holds into permanent sales and
// handles explicit cancellation.  Prices are looked up per section at
// commit time, so a price change before commit applies and is then
// frozen on the purchase record.
type CheckoutService struct {
    seats       SeatStore
    holds       HoldStore
    purchases   PurchaseStore
    events      EventStore
    reservation *ReservationService
    waitlist    *WaitlistService
    cache       cache.Cache
}

// NewCheckoutService wires the processor.  reservation is required for
// release-as-expiry and the sold-out rescan; waitlist may be nil.
func NewCheckoutService(seats SeatStore, holds HoldStore, purchases PurchaseStore, events EventStore, reservation *ReservationService, waitlist *WaitlistService, c cache.Cache) *CheckoutService {
    if seats == nil || holds == nil || purchases == nil || events == nil || reservation == nil {
        panic("nil dependency passed to NewCheckoutService")
    }
    return &CheckoutService{
        seats:       seats,
        holds:       holds,
        purchases:   purchases,
        events:      events,
        reservation: reservation,
        waitlist:    waitlist,
        cache:       c,
    }
}

func (s *CheckoutService) invalidate(ctx context.Context, eventID string) {
    if s.cache == nil {
        return
    }
    s.cache.InvalidatePrefix(ctx, cache.ListingPrefix)
    s.cache.InvalidatePrefix(ctx, cache.DetailKey(eventID))
}

// Purchase commits an active hold into a confirmed sale.  Before any
// write it re-verifies seat by seat that the hold still owns its seats,
// defending against a claim lost inside the race window that the hold
// record itself does not reflect.  Any mismatch fails the whole call
// with no partial writes.
func (s *CheckoutService) Purchase(ctx context.Context, holdID, ownerID string) (*model.Purchase, error) {
    if ownerID == "" {
        return nil, invalidInput("ownerId is required")
    }
    hold, err := s.holds.GetByID(ctx, holdID)
    if err != nil {
        if errors.Is(err, ErrNoRecord) {
            return nil, &NotFoundError{Resource: "hold", ID: holdID}
        }
        return nil, err
    }
    if hold.OwnerID != ownerID {
        return nil, ErrForbidden
    }
    if hold.Status == model.HoldActive && hold.Expired(time.Now().UTC()) {
        // Expired between check and use: release it and report Gone.
        if _, err := s.reservation.expireHold(ctx, hold); err != nil {
            return nil, err
        }
        return nil, ErrHoldExpired
    }
    if hold.Status != model.HoldActive {
        return nil, &ConflictError{Reason: fmt.Sprintf("hold is %s, not active", hold.Status)}
    }

    // Verify ownership seat by seat and price the order.  No writes
    // happen until every seat checks out.
    var total int64
    var mismatched []string
    for _, seatID := range hold.SeatIDs {
        seat, err := s.seats.GetByID(ctx, seatID)
        if err != nil {
            if errors.Is(err, ErrNoRecord) {
                return nil, &NotFoundError{Resource: "seat", ID: seatID}
            }
            return nil, err
        }
        if seat.Status != model.SeatHeld || seat.HoldID == nil || *seat.HoldID != hold.ID {
            mismatched = append(mismatched, seatID)
            continue
        }
        price, err := s.events.SectionPrice(ctx, hold.EventID, seat.SectionID)
        if err != nil {
            if errors.Is(err, ErrNoRecord) {
                return nil, &NotFoundError{Resource: "section price", ID: seat.SectionID}
            }
            return nil, err
        }
        total += price
    }
    if len(mismatched) > 0 {
        return nil, &ConflictError{Reason: "seats no longer held by this hold", SeatIDs: mismatched}
    }

    now := time.Now().UTC()
    purchase := &model.Purchase{
        ID:              uuid.NewString(),
        EventID:         hold.EventID,
        OwnerID:         hold.OwnerID,
        SeatIDs:         append([]string(nil), hold.SeatIDs...),
        TotalPriceCents: total,
        Status:          model.PurchaseConfirmed,
        CreatedAt:       now,
    }
    if err := s.purchases.Create(ctx, purchase); err != nil {
        return nil, fmt.Errorf("create purchase: %w", err)
    }
    for _, seatID := range hold.SeatIDs {
        if err := s.seats.MarkSold(ctx, seatID, purchase.ID); err != nil {
            s.rollbackPurchase(ctx, purchase, hold)
            return nil, fmt.Errorf("mark seat %s sold: %w", seatID, err)
        }
    }
    if err := s.holds.SetStatus(ctx, hold.ID, model.HoldCompleted); err != nil {
        log.Printf("checkout: mark hold %s completed failed: %v", hold.ID, err)
    }
    s.invalidate(ctx, hold.EventID)
    s.maybeMarkSoldOut(ctx, hold.EventID)
    return purchase, nil
}

// rollbackPurchase compensates a commit that failed partway: the
// purchase record is cancelled and every seat it already owns goes
// back under the hold, which is still active, so the owner can retry
// the checkout.  Compensation is best-effort; a seat missed here is
// freed later by lazy expiry when the hold lapses.
func (s *CheckoutService) rollbackPurchase(ctx context.Context, purchase *model.Purchase, hold *model.Hold) {
    if err := s.purchases.SetStatus(ctx, purchase.ID, model.PurchaseCancelled); err != nil {
        log.Printf("checkout: mark purchase %s cancelled failed: %v", purchase.ID, err)
    }
    for _, seatID := range purchase.SeatIDs {
        cur, err := s.seats.GetByID(ctx, seatID)
        if err != nil {
            log.Printf("checkout: rollback read seat %s: %v", seatID, err)
            continue
        }
        if cur.PurchaseID == nil || *cur.PurchaseID != purchase.ID {
            continue
        }
        if err := s.seats.MarkHeld(ctx, seatID, hold.ID, hold.ExpiresAt); err != nil {
            log.Printf("checkout: rollback seat %s: %v", seatID, err)
        }
    }
}

// GetPurchase returns a purchase record by id.
func (s *CheckoutService) GetPurchase(ctx context.Context, id string) (*model.Purchase, error) {
    p, err := s.purchases.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, ErrNoRecord) {
            return nil, &NotFoundError{Resource: "purchase", ID: id}
        }
        return nil, err
    }
    return p, nil
}

// Cancel reverses a confirmed purchase: the seats return to available
// and the waitlist hears about them.  A second cancel of the same
// purchase is a conflict, so the released set is reported exactly once.
func (s *CheckoutService) Cancel(ctx context.Context, purchaseID string) ([]string, error) {
    purchase, err := s.purchases.GetByID(ctx, purchaseID)
    if err != nil {
        if errors.Is(err, ErrNoRecord) {
            return nil, &NotFoundError{Resource: "purchase", ID: purchaseID}
        }
        return nil, err
    }
    if purchase.Status != model.PurchaseConfirmed {
        return nil, &ConflictError{Reason: "purchase already cancelled"}
    }

    released := make([]string, 0, len(purchase.SeatIDs))
    sections := make([]string, 0, len(purchase.SeatIDs))
    sectionSet := make(map[string]bool)
    for _, seatID := range purchase.SeatIDs {
        seat, err := s.seats.GetByID(ctx, seatID)
        if err != nil {
            log.Printf("checkout: cancel read seat %s: %v", seatID, err)
        } else if !sectionSet[seat.SectionID] {
            sectionSet[seat.SectionID] = true
            sections = append(sections, seat.SectionID)
        }
        if err := s.seats.MarkAvailable(ctx, seatID); err != nil {
            return nil, fmt.Errorf("release seat %s: %w", seatID, err)
        }
        released = append(released, seatID)
    }
    if err := s.purchases.SetStatus(ctx, purchaseID, model.PurchaseCancelled); err != nil {
        return nil, fmt.Errorf("cancel purchase %s: %w", purchaseID, err)
    }
    s.invalidate(ctx, purchase.EventID)
    s.reservation.reopenIfSoldOut(ctx, purchase.EventID)
    if len(released) > 0 && s.waitlist != nil {
        s.waitlist.NotifyDetached(purchase.EventID, released, sections)
    }
    return released, nil
}

// maybeMarkSoldOut flags the event sold_out when a rescan of its seats,
// with lazy expiry applied, finds nothing left to sell.  A held seat
// whose hold already lapsed counts as available, so the flag is never
// set while an expired-but-unresolved hold could still free seats.
func (s *CheckoutService) maybeMarkSoldOut(ctx context.Context, eventID string) {
    seats, err := s.reservation.ListSeats(ctx, eventID)
    if err != nil {
        log.Printf("checkout: sold-out rescan for %s failed: %v", eventID, err)
        return
    }
    for i := range seats {
        if seats[i].Status == model.SeatAvailable {
            return
        }
    }
    if err := s.events.SetStatus(ctx, eventID, model.EventSoldOut); err != nil {
        log.Printf("checkout: flag event %s sold_out failed: %v", eventID, err)
    }
}
