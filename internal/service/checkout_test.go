package service

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/event-ticketing/internal/model"
)

func newCheckout(m *memStore, holdDuration time.Duration) (*CheckoutService, *ReservationService, *WaitlistService, *recordingPublisher) {
    res, wl, pub := newEngine(m, holdDuration)
    co := NewCheckoutService(m, holdStore{m}, purchaseStore{m}, eventStore{m}, res, wl, nil)
    return co, res, wl, pub
}

func TestPurchaseSuccess(t *testing.T) {
    m := newFixture()
    co, res, _, _ := newCheckout(m, 5*time.Minute)
    ctx := context.Background()

    hold, err := res.ClaimSeats(ctx, "ev1", []string{"s1", "s2", "s4"}, "alice")
    require.NoError(t, err)

    purchase, err := co.Purchase(ctx, hold.ID, "alice")
    require.NoError(t, err)
    // Two orchestra seats at 100.00 plus one balcony at 150.00.
    assert.Equal(t, int64(35000), purchase.TotalPriceCents)
    assert.Equal(t, model.PurchaseConfirmed, purchase.Status)
    assert.ElementsMatch(t, []string{"s1", "s2", "s4"}, purchase.SeatIDs)

    for _, id := range []string{"s1", "s2", "s4"} {
        seat, err := m.GetByID(ctx, id)
        require.NoError(t, err)
        assert.Equal(t, model.SeatSold, seat.Status)
        require.NotNil(t, seat.PurchaseID)
        assert.Equal(t, purchase.ID, *seat.PurchaseID)
    }
    got, err := res.GetHold(ctx, hold.ID)
    require.NoError(t, err)
    assert.Equal(t, model.HoldCompleted, got.Status)

    // One seat remains, so the event stays active.
    ev, err := eventStore{m}.GetByID(ctx, "ev1")
    require.NoError(t, err)
    assert.Equal(t, model.EventActive, ev.Status)
}

func TestPurchasePricesAtCommitTime(t *testing.T) {
    m := newFixture()
    co, res, _, _ := newCheckout(m, 5*time.Minute)
    ctx := context.Background()

    hold, err := res.ClaimSeats(ctx, "ev1", []string{"s1"}, "alice")
    require.NoError(t, err)

    // Price rises after the claim; the purchase pays the new price.
    m.mu.Lock()
    m.pricing[0].PriceCents = 12000
    m.mu.Unlock()

    purchase, err := co.Purchase(ctx, hold.ID, "alice")
    require.NoError(t, err)
    assert.Equal(t, int64(12000), purchase.TotalPriceCents)
}

func TestPurchaseExpiredHold(t *testing.T) {
    m := newFixture()
    co, res, _, _ := newCheckout(m, 20*time.Millisecond)
    ctx := context.Background()

    hold, err := res.ClaimSeats(ctx, "ev1", []string{"s1"}, "alice")
    require.NoError(t, err)

    time.Sleep(40 * time.Millisecond)

    _, err = co.Purchase(ctx, hold.ID, "alice")
    require.ErrorIs(t, err, ErrHoldExpired)

    // The lapsed hold was resolved on the way out.
    seat, err := m.GetByID(ctx, "s1")
    require.NoError(t, err)
    assert.Equal(t, model.SeatAvailable, seat.Status)
    assert.Empty(t, m.purchases)
}

func TestPurchaseWrongOwner(t *testing.T) {
    m := newFixture()
    co, res, _, _ := newCheckout(m, 5*time.Minute)
    ctx := context.Background()

    hold, err := res.ClaimSeats(ctx, "ev1", []string{"s1"}, "alice")
    require.NoError(t, err)

    _, err = co.Purchase(ctx, hold.ID, "mallory")
    require.ErrorIs(t, err, ErrForbidden)

    _, err = co.Purchase(ctx, "missing", "alice")
    var notFound *NotFoundError
    require.ErrorAs(t, err, &notFound)
}

func TestPurchaseTwiceConflicts(t *testing.T) {
    m := newFixture()
    co, res, _, _ := newCheckout(m, 5*time.Minute)
    ctx := context.Background()

    hold, err := res.ClaimSeats(ctx, "ev1", []string{"s1"}, "alice")
    require.NoError(t, err)

    _, err = co.Purchase(ctx, hold.ID, "alice")
    require.NoError(t, err)

    _, err = co.Purchase(ctx, hold.ID, "alice")
    var conflict *ConflictError
    require.ErrorAs(t, err, &conflict)
}

func TestPurchaseMarkSoldFailureRollsBack(t *testing.T) {
    m := newFixture()
    co, res, _, _ := newCheckout(m, 5*time.Minute)
    ctx := context.Background()

    hold, err := res.ClaimSeats(ctx, "ev1", []string{"s1", "s2"}, "alice")
    require.NoError(t, err)

    // The store rejects the second sold patch, failing the commit
    // after s1 was already written.
    storeDown := errors.New("store write failed")
    m.onMarkSold = func(seatID string) error {
        if seatID == "s2" {
            return storeDown
        }
        return nil
    }

    _, err = co.Purchase(ctx, hold.ID, "alice")
    require.ErrorIs(t, err, storeDown)

    // Both seats must be back under the still-active hold, not half
    // sold.
    for _, id := range []string{"s1", "s2"} {
        seat, err := m.GetByID(ctx, id)
        require.NoError(t, err)
        assert.Equal(t, model.SeatHeld, seat.Status, "seat %s", id)
        require.NotNil(t, seat.HoldID)
        assert.Equal(t, hold.ID, *seat.HoldID)
        assert.Nil(t, seat.PurchaseID)
    }
    got, err := res.GetHold(ctx, hold.ID)
    require.NoError(t, err)
    assert.Equal(t, model.HoldActive, got.Status)

    // No confirmed purchase survives the failed commit.
    m.mu.Lock()
    for _, p := range m.purchases {
        assert.Equal(t, model.PurchaseCancelled, p.Status)
    }
    m.mu.Unlock()

    // With the store healthy again, the retry goes through.
    m.onMarkSold = nil
    purchase, err := co.Purchase(ctx, hold.ID, "alice")
    require.NoError(t, err)
    assert.Equal(t, model.PurchaseConfirmed, purchase.Status)
    assert.Equal(t, int64(20000), purchase.TotalPriceCents)
}

func TestExpiredHoldReopensSoldOut(t *testing.T) {
    m := newFixture()
    co, res, _, _ := newCheckout(m, 5*time.Minute)
    ctx := context.Background()

    // Buy three seats while a short-lived rival hold pins the fourth;
    // with nothing available the event goes sold out.
    shortRes := NewReservationService(m, holdStore{m}, eventStore{m}, nil, nil, 20*time.Millisecond)
    _, err := shortRes.ClaimSeats(ctx, "ev1", []string{"s4"}, "bob")
    require.NoError(t, err)

    hold, err := res.ClaimSeats(ctx, "ev1", []string{"s1", "s2", "s3"}, "alice")
    require.NoError(t, err)
    _, err = co.Purchase(ctx, hold.ID, "alice")
    require.NoError(t, err)

    ev, err := eventStore{m}.GetByID(ctx, "ev1")
    require.NoError(t, err)
    require.Equal(t, model.EventSoldOut, ev.Status)

    time.Sleep(40 * time.Millisecond)

    // Reading the seat resolves the lapsed hold and clears the stale
    // sold_out flag along with it.
    seat, err := res.GetSeat(ctx, "s4")
    require.NoError(t, err)
    assert.Equal(t, model.SeatAvailable, seat.Status)

    ev, err = eventStore{m}.GetByID(ctx, "ev1")
    require.NoError(t, err)
    assert.Equal(t, model.EventActive, ev.Status)
}

func TestCancelPurchase(t *testing.T) {
    m := newFixture()
    co, res, wl, pub := newCheckout(m, 5*time.Minute)
    ctx := context.Background()

    _, err := wl.Join(ctx, "ev1", "dave", "dave@example.com", nil)
    require.NoError(t, err)

    // Buying every seat flags the event sold out.
    hold, err := res.ClaimSeats(ctx, "ev1", []string{"s1", "s2", "s3", "s4"}, "alice")
    require.NoError(t, err)
    purchase, err := co.Purchase(ctx, hold.ID, "alice")
    require.NoError(t, err)

    ev, err := eventStore{m}.GetByID(ctx, "ev1")
    require.NoError(t, err)
    assert.Equal(t, model.EventSoldOut, ev.Status)

    released, err := co.Cancel(ctx, purchase.ID)
    require.NoError(t, err)
    assert.ElementsMatch(t, []string{"s1", "s2", "s3", "s4"}, released)

    // Seats reopen the event and reach the waitlist.
    ev, err = eventStore{m}.GetByID(ctx, "ev1")
    require.NoError(t, err)
    assert.Equal(t, model.EventActive, ev.Status)

    for _, id := range released {
        seat, err := m.GetByID(ctx, id)
        require.NoError(t, err)
        assert.Equal(t, model.SeatAvailable, seat.Status)
    }
    events := pub.published()
    require.Len(t, events, 1)
    assert.Equal(t, 4, events[0].ReleasedSeatCount)

    // A second cancel must not double-release.
    _, err = co.Cancel(ctx, purchase.ID)
    var conflict *ConflictError
    require.ErrorAs(t, err, &conflict)
}

func TestCancelMissingPurchase(t *testing.T) {
    m := newFixture()
    co, _, _, _ := newCheckout(m, 5*time.Minute)

    _, err := co.Cancel(context.Background(), "missing")
    var notFound *NotFoundError
    require.ErrorAs(t, err, &notFound)
}
