package queue

import (
    "context"
    "encoding/json"

    "github.com/hibiken/asynq"
)

// Task type names routed through asynq.
const (
    // TypeWaitlistNotify fans notifications out to waitlisted users
    // after seats come back; enqueued whenever a hold lapses or is
    // released.
    TypeWaitlistNotify = "waitlist:notify"
    // TypeHoldSweep runs the periodic expired-hold sweep so seats
    // nobody reads still come back eventually.
    TypeHoldSweep = "holds:sweep"
)

// WaitlistNotifyPayload names the seats that came back and the
// sections they belong to.
type WaitlistNotifyPayload struct {
    EventID    string   `json:"eventId"`
    SeatIDs    []string `json:"seatIds"`
    SectionIDs []string `json:"sectionIds"`
}

// HoldSweepPayload scopes a sweep to one event; an empty EventID
// sweeps every event with lapsed holds.
type HoldSweepPayload struct {
    EventID string `json:"eventId"`
}

// Dispatcher enqueues background tasks on asynq.  It backs the
// reservation core's detached notification path so request handlers
// never wait on notification fan-out.
type Dispatcher struct {
    client *asynq.Client
}

// NewDispatcher wraps an asynq client.
func NewDispatcher(client *asynq.Client) *Dispatcher {
    return &Dispatcher{client: client}
}

// EnqueueNotify queues a waitlist notification run for the event.
func (d *Dispatcher) EnqueueNotify(ctx context.Context, eventID string, seatIDs, sectionIDs []string) error {
    payload, err := json.Marshal(WaitlistNotifyPayload{
        EventID:    eventID,
        SeatIDs:    seatIDs,
        SectionIDs: sectionIDs,
    })
    if err != nil {
        return err
    }
    task := asynq.NewTask(TypeWaitlistNotify, payload)
    _, err = d.client.EnqueueContext(ctx, task, asynq.MaxRetry(3), asynq.Queue("default"))
    return err
}
