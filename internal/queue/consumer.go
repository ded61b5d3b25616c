package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// Consumer drains the order.events queue and appends one human-readable
// line per event to an audit log file.
type Consumer struct {
    URL     string
    LogPath string
    Log     logrus.FieldLogger
}

// Run connects to RabbitMQ, declares the queue and consumes until ctx is
// cancelled.  Broker failures trigger a reconnect with exponential backoff
// capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Log.WithError(err).Warnf("order-consumer: failed to dial broker; retrying in %s", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.Log.WithError(err).Warn("order-consumer: consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Log.WithError(err).Warn("order-consumer: set QoS failed")
    }
    if _, err := ch.QueueDeclare(OrderEventsQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.ConsumeWithContext(ctx, OrderEventsQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := c.handle(d.Body); err != nil {
            c.Log.WithError(err).Error("order-consumer: handle message failed")
            _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

func (c *Consumer) handle(body []byte) error {
    var ev OrderEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatEvent(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatEvent renders one audit line, newline-terminated.
func FormatEvent(ev OrderEvent) string {
    items := make([]string, 0, len(ev.Items))
    for _, it := range ev.Items {
        items = append(items, fmt.Sprintf("%s x%d", it.ProductID, it.Quantity))
    }
    return fmt.Sprintf("[%s] %s | order_id=%s | account_id=%s | status=%s | total=%s | items=[%s]\n",
        ev.OccurredAt, ev.Type, ev.OrderID, ev.AccountID, ev.Status, ev.TotalAmount.StringFixed(2), strings.Join(items, ","))
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
