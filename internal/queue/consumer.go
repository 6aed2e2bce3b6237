package queue

import (
    "encoding/json"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/event-ticketing/internal/service"
)

// waitlistQueue is the durable queue bound to every per-event routing
// key; a real notification sender would consume from here.  This
// consumer appends a line per event to logs/waitlist.log so delivery
// is observable in development.
const waitlistQueue = "waitlist.notifications"

// StartWaitlistConsumer consumes seats_available events forever,
// reconnecting with a delay whenever the broker connection drops.
// Intended to run in its own goroutine.
func StartWaitlistConsumer(url string) {
    if url == "" {
        log.Printf("waitlist consumer: no broker configured, not starting")
        return
    }
    for {
        if err := consumeWaitlist(url); err != nil {
            log.Printf("waitlist consumer: %v, retrying in 5s", err)
        }
        time.Sleep(5 * time.Second)
    }
}

func consumeWaitlist(url string) error {
    conn, err := amqp.Dial(url)
    if err != nil {
        return fmt.Errorf("dial: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.ExchangeDeclare(waitlistExchange, "topic", true, false, false, false, nil); err != nil {
        return fmt.Errorf("exchange declare: %w", err)
    }
    q, err := ch.QueueDeclare(waitlistQueue, true, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    if err := ch.QueueBind(q.Name, waitlistExchange+".#", waitlistExchange, false, nil); err != nil {
        return fmt.Errorf("queue bind: %w", err)
    }

    deliveries, err := ch.Consume(q.Name, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("consume: %w", err)
    }

    log.Printf("waitlist consumer: connected, waiting for events on %s", q.Name)
    for d := range deliveries {
        handleAvailability(d.Body)
        _ = d.Ack(false)
    }
    return fmt.Errorf("delivery channel closed")
}

func handleAvailability(body []byte) {
    var ev service.SeatsAvailableEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        log.Printf("waitlist consumer: bad message: %v", err)
        return
    }
    line := fmt.Sprintf("%s event=%s released=%d sections=%v\n",
        time.UnixMilli(ev.Timestamp).UTC().Format(time.RFC3339), ev.EventID, ev.ReleasedSeatCount, ev.SectionIDs)
    if err := appendLog("logs/waitlist.log", line); err != nil {
        log.Printf("waitlist consumer: write log: %v", err)
    }
}

func appendLog(path, line string) error {
    if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
        return err
    }
    f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
    if err != nil {
        return err
    }
    defer func() { _ = f.Close() }()
    _, err = f.WriteString(line)
    return err
}
