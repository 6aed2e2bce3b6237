package service

import (
    "context"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/event-ticketing/internal/model"
)

// Waitlist fan-out policies.  FanoutReleased caps notifications at the
// number of released seats (the default); FanoutAll notifies every
// eligible entry regardless of how many seats freed up.
const (
    FanoutReleased = "released"
    FanoutAll      = "all"
)

// WaitlistService manages waitlist membership and notification.
// Notification is FIFO by join time among eligible entries, flips each
// entry's notified flag exactly once, and publishes a single bus
// message per batch.  The publish step is best-effort: a failed publish
// is logged and never rolls back the flag flips, since the intent is
// recorded and a duplicate send is safe.
type WaitlistService struct {
    entries   WaitlistStore
    events    EventStore
    publisher Publisher
    enqueuer  TaskEnqueuer
    fanout    string
}

// NewWaitlistService wires the notifier.  publisher and enqueuer may be
// nil: without a publisher notifications are flag-flips only, and
// without an enqueuer detached notification falls back to a
// fire-and-forget goroutine.
func NewWaitlistService(entries WaitlistStore, events EventStore, publisher Publisher, fanout string) *WaitlistService {
    if entries == nil || events == nil {
        panic("nil store passed to NewWaitlistService")
    }
    if fanout != FanoutAll {
        fanout = FanoutReleased
    }
    return &WaitlistService{
        entries:   entries,
        events:    events,
        publisher: publisher,
        fanout:    fanout,
    }
}

// SetEnqueuer installs the background task dispatcher.  Installed after
// construction because the worker that consumes tasks needs the service
// first.
func (s *WaitlistService) SetEnqueuer(e TaskEnqueuer) { s.enqueuer = e }

// Join adds a client to an event's waitlist.  A second join for the
// same event and owner while the first entry is still un-notified is a
// conflict.  Entries are never deleted here; removal is administrative.
func (s *WaitlistService) Join(ctx context.Context, eventID, ownerID, email string, sectionID *string) (*model.WaitlistEntry, error) {
    if eventID == "" {
        return nil, invalidInput("eventId is required")
    }
    if ownerID == "" {
        return nil, invalidInput("ownerId is required")
    }
    if email == "" {
        return nil, invalidInput("email is required")
    }
    if _, err := s.events.GetByID(ctx, eventID); err != nil {
        if errors.Is(err, ErrNoRecord) {
            return nil, &NotFoundError{Resource: "event", ID: eventID}
        }
        return nil, err
    }
    active, err := s.entries.HasActiveEntry(ctx, eventID, ownerID)
    if err != nil {
        return nil, err
    }
    if active {
        return nil, &ConflictError{Reason: "already on waitlist for this event"}
    }
    entry := &model.WaitlistEntry{
        ID:        uuid.NewString(),
        EventID:   eventID,
        SectionID: sectionID,
        OwnerID:   ownerID,
        Email:     email,
        Notified:  false,
        JoinedAt:  time.Now().UTC(),
    }
    if err := s.entries.Create(ctx, entry); err != nil {
        return nil, fmt.Errorf("create waitlist entry: %w", err)
    }
    return entry, nil
}

// Notify marks eligible waitlist entries notified, oldest join first,
// and publishes one seats_available message for the batch.  An entry
// with a section filter is skipped unless the released set intersects
// it, and a skipped entry never blocks later eligible ones.  Returns
// the number of entries notified.
func (s *WaitlistService) Notify(ctx context.Context, eventID string, releasedSeatIDs, releasedSectionIDs []string) (int, error) {
    if eventID == "" || len(releasedSeatIDs) == 0 {
        return 0, nil
    }
    entries, err := s.entries.ListUnnotified(ctx, eventID)
    if err != nil {
        return 0, err
    }
    sections := make(map[string]bool, len(releasedSectionIDs))
    for _, id := range releasedSectionIDs {
        sections[id] = true
    }
    limit := len(releasedSeatIDs)
    if s.fanout == FanoutAll {
        limit = len(entries)
    }
    now := time.Now().UTC()
    notified := 0
    for i := range entries {
        if notified >= limit {
            break
        }
        e := &entries[i]
        if e.SectionID != nil && !sections[*e.SectionID] {
            continue
        }
        if err := s.entries.MarkNotified(ctx, e.ID, now); err != nil {
            // A dropped flag flip would strand the waiter, so this one
            // is a real error, unlike the publish below.
            return notified, fmt.Errorf("mark waitlist entry %s notified: %w", e.ID, err)
        }
        notified++
    }
    if notified > 0 && s.publisher != nil {
        ev := SeatsAvailableEvent{
            Type:              "seats_available",
            EventID:           eventID,
            ReleasedSeatCount: len(releasedSeatIDs),
            SectionIDs:        releasedSectionIDs,
            Timestamp:         now.UnixMilli(),
        }
        if err := s.publisher.PublishSeatsAvailable(ctx, ev); err != nil {
            log.Printf("waitlist: publish seats_available for %s failed: %v", eventID, err)
        }
    }
    return notified, nil
}

// NotifyDetached runs Notify without blocking the caller.  With a task
// enqueuer the work goes through the queue with bounded retries;
// otherwise a goroutine with its own deadline does it best-effort.
// Failure is logged, never propagated to the triggering mutation.
func (s *WaitlistService) NotifyDetached(eventID string, releasedSeatIDs, releasedSectionIDs []string) {
    if len(releasedSeatIDs) == 0 {
        return
    }
    if s.enqueuer != nil {
        err := s.enqueuer.EnqueueNotify(context.Background(), eventID, releasedSeatIDs, releasedSectionIDs)
        if err == nil {
            return
        }
        log.Printf("waitlist: enqueue notify for %s failed, running inline: %v", eventID, err)
    }
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        if _, err := s.Notify(ctx, eventID, releasedSeatIDs, releasedSectionIDs); err != nil {
            log.Printf("waitlist: notify for %s failed: %v", eventID, err)
        }
    }()
}
