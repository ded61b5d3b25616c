// Package queue defines message payloads exchanged over the message broker.
package queue

import (
    "time"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/storefront-backend/internal/model"
)

// OrderEventsQueue is the durable queue all order lifecycle events go to.
const OrderEventsQueue = "order.events"

// EventType names an order lifecycle transition.
type EventType string

const (
    OrderPlaced        EventType = "order.placed"
    OrderCancelled     EventType = "order.cancelled"
    OrderStatusChanged EventType = "order.status_changed"
)

// OrderEvent is published after an order state change is persisted.  It
// carries enough for consumers to log or notify without reading the
// database.
type OrderEvent struct {
    Type        EventType       `json:"type"`
    OrderID     string          `json:"order_id"`
    AccountID   string          `json:"account_id"`
    Status      string          `json:"status"`
    TotalAmount decimal.Decimal `json:"total_amount"`
    Items       []EventItem     `json:"items"`
    OccurredAt  string          `json:"occurred_at"`
}

// EventItem is the (product, quantity) part of a line item.
type EventItem struct {
    ProductID string `json:"product_id"`
    Quantity  int    `json:"quantity"`
}

// NewOrderEvent snapshots o into an event of type t.
func NewOrderEvent(t EventType, o model.Order) OrderEvent {
    items := make([]EventItem, 0, len(o.Items))
    for _, it := range o.Items {
        items = append(items, EventItem{ProductID: it.ProductID, Quantity: it.Quantity})
    }
    return OrderEvent{
        Type:        t,
        OrderID:     o.ID,
        AccountID:   o.AccountID,
        Status:      string(o.Status),
        TotalAmount: o.TotalAmount,
        Items:       items,
        OccurredAt:  time.Now().UTC().Format(time.RFC3339),
    }
}
