package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
    OrderPending   OrderStatus = "pending"
    OrderConfirmed OrderStatus = "confirmed"
    OrderShipped   OrderStatus = "shipped"
    OrderDelivered OrderStatus = "delivered"
    OrderCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is one of the enumerated statuses.
func (s OrderStatus) Valid() bool {
    switch s {
    case OrderPending, OrderConfirmed, OrderShipped, OrderDelivered, OrderCancelled:
        return true
    }
    return false
}

// Order records a purchase.  Items are snapshots of the products at the
// time of purchase; TotalAmount is computed once when the order is created
// and is never recomputed.
//
// Fields:
//  ID              – opaque identifier (UUID string).
//  AccountID       – owner of the order.
//  Items           – ordered line item snapshots.
//  TotalAmount     – Σ unit price × quantity at creation.
//  ShippingAddress – free-form delivery address.
//  Status          – pending, confirmed, shipped, delivered or cancelled.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last status change.
type Order struct {
    ID              string          `json:"id"`
    AccountID       string          `json:"account_id"`
    Items           []OrderItem     `json:"items"`
    TotalAmount     decimal.Decimal `json:"total_amount"`
    ShippingAddress string          `json:"shipping_address"`
    Status          OrderStatus     `json:"status"`
    CreatedAt       time.Time       `json:"created_at"`
    UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem is one line of an order.  Name and Price are copied from the
// product and are not affected by later product edits.
type OrderItem struct {
    ProductID string          `json:"product_id"`
    Name      string          `json:"name"`
    Price     decimal.Decimal `json:"price"`
    Quantity  int             `json:"quantity"`
}

// Subtotal returns Price × Quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
    return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// LineRequest is one requested (product, quantity) pair of a cart.
type LineRequest struct {
    ProductID string `json:"product_id"`
    Quantity  int    `json:"quantity"`
}
