package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "log"

    "github.com/hibiken/asynq"

    "github.com/iliyamo/event-ticketing/internal/service"
)

// Worker processes background tasks: waitlist notification fan-out and
// the scheduled expired-hold sweep.
type Worker struct {
    waitlist    *service.WaitlistService
    reservation *service.ReservationService
}

// NewWorker wires the services the task handlers call into.
func NewWorker(waitlist *service.WaitlistService, reservation *service.ReservationService) *Worker {
    return &Worker{waitlist: waitlist, reservation: reservation}
}

// Run starts the asynq server and the minutely sweep scheduler and
// blocks until the process exits.  Intended to run in its own
// goroutine.
func (w *Worker) Run(redisOpt asynq.RedisClientOpt) {
    srv := asynq.NewServer(redisOpt, asynq.Config{
        Concurrency: 10,
        Queues: map[string]int{
            "critical": 6,
            "default":  3,
            "low":      1,
        },
    })

    mux := asynq.NewServeMux()
    mux.HandleFunc(TypeWaitlistNotify, w.handleWaitlistNotify)
    mux.HandleFunc(TypeHoldSweep, w.handleHoldSweep)

    go w.runScheduler(redisOpt)

    if err := srv.Run(mux); err != nil {
        log.Fatalf("asynq server: %v", err)
    }
}

// runScheduler enqueues a sweep every minute so lapsed holds free
// their seats even when nobody touches the event.
func (w *Worker) runScheduler(redisOpt asynq.RedisClientOpt) {
    scheduler := asynq.NewScheduler(redisOpt, nil)
    task := asynq.NewTask(TypeHoldSweep, []byte(`{"eventId":""}`))
    if _, err := scheduler.Register("*/1 * * * *", task, asynq.Queue("low")); err != nil {
        log.Fatalf("asynq scheduler: register sweep: %v", err)
    }
    if err := scheduler.Run(); err != nil {
        log.Fatalf("asynq scheduler: %v", err)
    }
}

func (w *Worker) handleWaitlistNotify(ctx context.Context, t *asynq.Task) error {
    var p WaitlistNotifyPayload
    if err := json.Unmarshal(t.Payload(), &p); err != nil {
        return fmt.Errorf("waitlist notify payload: %w: %w", err, asynq.SkipRetry)
    }
    notified, err := w.waitlist.Notify(ctx, p.EventID, p.SeatIDs, p.SectionIDs)
    if err != nil {
        return fmt.Errorf("notify waitlist for event %s: %w", p.EventID, err)
    }
    log.Printf("waitlist: notified %d entries for event %s", notified, p.EventID)
    return nil
}

func (w *Worker) handleHoldSweep(ctx context.Context, t *asynq.Task) error {
    var p HoldSweepPayload
    if err := json.Unmarshal(t.Payload(), &p); err != nil {
        return fmt.Errorf("hold sweep payload: %w: %w", err, asynq.SkipRetry)
    }
    released, err := w.reservation.SweepExpired(ctx, p.EventID)
    if err != nil {
        return fmt.Errorf("sweep expired holds: %w", err)
    }
    if len(released) > 0 {
        log.Printf("sweep: released %d expired-held seats", len(released))
    }
    return nil
}
