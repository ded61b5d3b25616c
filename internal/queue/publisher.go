package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

const (
    defaultBacklog = 256
    dialTimeout    = 2 * time.Second
    redialBackoff  = 5 * time.Second
    sendTimeout    = 5 * time.Second
)

var (
    // ErrBacklogFull is returned when events arrive faster than the broker takes them.
    ErrBacklogFull = errors.New("queue: publish backlog full")
    // ErrPublisherClosed is returned by Publish after Close.
    ErrPublisherClosed = errors.New("queue: publisher closed")
)

// Publisher sends OrderEvents to RabbitMQ from a single background
// worker.  Publish only enqueues, so a slow or unreachable broker never
// holds up the request that produced the event.  The connection is
// dialled by the worker on demand; after a failed dial it waits
// redialBackoff before trying again and drops events in the meantime.
type Publisher struct {
    url string
    log logrus.FieldLogger

    mu     sync.RWMutex
    closed bool
    events chan OrderEvent
    done   chan struct{}

    // owned by the worker
    conn    *amqp.Connection
    retryAt time.Time
}

// NewPublisher starts a publisher for the broker at url.
func NewPublisher(url string, log logrus.FieldLogger) *Publisher {
    return newPublisher(url, log, defaultBacklog)
}

func newPublisher(url string, log logrus.FieldLogger, backlog int) *Publisher {
    p := &Publisher{
        url:    url,
        log:    log,
        events: make(chan OrderEvent, backlog),
        done:   make(chan struct{}),
    }
    go p.run()
    return p
}

// Publish queues ev for delivery to the order.events queue.  It never
// blocks; delivery failures are logged by the worker.
func (p *Publisher) Publish(_ context.Context, ev OrderEvent) error {
    p.mu.RLock()
    defer p.mu.RUnlock()
    if p.closed {
        return ErrPublisherClosed
    }
    select {
    case p.events <- ev:
        return nil
    default:
        p.log.WithField("order_id", ev.OrderID).Warn("rabbitmq: backlog full, event dropped")
        return ErrBacklogFull
    }
}

// Close stops accepting events, waits for the worker to drain the
// backlog and releases the broker connection.
func (p *Publisher) Close() error {
    p.mu.Lock()
    if p.closed {
        p.mu.Unlock()
        return nil
    }
    p.closed = true
    close(p.events)
    p.mu.Unlock()

    <-p.done
    if p.conn == nil || p.conn.IsClosed() {
        return nil
    }
    return p.conn.Close()
}

func (p *Publisher) run() {
    defer close(p.done)
    for ev := range p.events {
        if err := p.send(ev); err != nil {
            p.log.WithError(err).WithFields(logrus.Fields{
                "order_id": ev.OrderID,
                "type":     ev.Type,
            }).Warn("rabbitmq: event not delivered")
        }
    }
}

func (p *Publisher) send(ev OrderEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    ch, err := p.channel()
    if err != nil {
        return err
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(OrderEventsQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
    defer cancel()
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Type:         string(ev.Type),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", OrderEventsQueue, false, false, pub); err != nil {
        return fmt.Errorf("publish: %w", err)
    }
    return nil
}

func (p *Publisher) channel() (*amqp.Channel, error) {
    if p.conn == nil || p.conn.IsClosed() {
        if time.Now().Before(p.retryAt) {
            return nil, errors.New("broker unavailable, waiting to redial")
        }
        conn, err := amqp.DialConfig(p.url, amqp.Config{
            Heartbeat: 10 * time.Second,
            Dial:      amqp.DefaultDial(dialTimeout),
        })
        if err != nil {
            p.retryAt = time.Now().Add(redialBackoff)
            return nil, fmt.Errorf("dial broker: %w", err)
        }
        p.conn = conn
    }
    return p.conn.Channel()
}

// NopPublisher drops every event.  It is used when EVENTS_ENABLED is off.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) error { return nil }
