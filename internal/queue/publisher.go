// Package queue carries availability events to the outside world: an
// AMQP publisher and consumer for seats_available messages, and asynq
// tasks for detached waitlist notification and the periodic hold sweep.
package queue

import (
    "context"
    "encoding/json"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/event-ticketing/internal/service"
)

// waitlistExchange is the topic exchange availability events flow
// through; messages are routed per event as waitlist.<eventId>.
const waitlistExchange = "waitlist"

// Publisher publishes seats_available events to RabbitMQ.  It dials
// per publish and attempts to never panic; any error is logged and
// returned so the caller can choose to ignore it, which the waitlist
// notifier does.  Messages are marked persistent.
type Publisher struct {
    url string
}

// NewPublisher returns a Publisher for the given broker URL.  Callers
// must not construct one with an empty URL; the composition root skips
// the publisher entirely when no broker is configured.
func NewPublisher(url string) *Publisher {
    return &Publisher{url: url}
}

// PublishSeatsAvailable publishes one availability event on the
// per-event routing key.
func (p *Publisher) PublishSeatsAvailable(ctx context.Context, ev service.SeatsAvailableEvent) error {
    conn, err := amqp.Dial(p.url)
    if err != nil {
        log.Printf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Idempotent declare; durable so routed messages survive broker restarts.
    if err := ch.ExchangeDeclare(waitlistExchange, "topic", true, false, false, false, nil); err != nil {
        log.Printf("rabbitmq: exchange declare failed: %v", err)
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        log.Printf("rabbitmq: marshal event failed: %v", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }

    routingKey := waitlistExchange + "." + ev.EventID
    if err := ch.PublishWithContext(ctx, waitlistExchange, routingKey, false, false, pub); err != nil {
        log.Printf("rabbitmq: publish failed: %v", err)
        return err
    }
    return nil
}
