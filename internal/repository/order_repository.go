package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/storefront-backend/internal/model"
)

// OrderRepo persists orders in the `orders` table.  Line items are stored
// as a JSON document in the `items` column so each order carries its own
// product snapshots.  All timestamp fields are stored in UTC.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderColumns = "id,account_id,items,total_amount,shipping_address,status,created_at,updated_at"

// Create inserts a new order.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO orders ("+orderColumns+") VALUES (?,?,?,?,?,?,?,?)",
		o.ID, o.AccountID, string(items), o.TotalAmount, o.ShippingAddress, o.Status, o.CreatedAt, o.UpdatedAt)
	return err
}

// GetByID returns an order or ErrNotFound.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (model.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id=?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Order{}, ErrNotFound
	}
	return o, err
}

// ListByAccount returns the account's orders, newest first.
func (r *OrderRepo) ListByAccount(ctx context.Context, accountID string) ([]model.Order, error) {
	return r.query(ctx, "SELECT "+orderColumns+" FROM orders WHERE account_id=? ORDER BY created_at DESC", accountID)
}

// List returns every order, newest first, optionally restricted to status.
func (r *OrderRepo) List(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	if status == "" {
		return r.query(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC")
	}
	return r.query(ctx, "SELECT "+orderColumns+" FROM orders WHERE status=? ORDER BY created_at DESC", status)
}

// UpdateStatus overwrites the status unconditionally.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error {
	res, err := r.db.ExecContext(ctx, "UPDATE orders SET status=?, updated_at=? WHERE id=?", status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// TransitionStatus moves the order from one status to another only if it
// is currently in `from`.  It reports whether the row changed.
func (r *OrderRepo) TransitionStatus(ctx context.Context, id string, from, to model.OrderStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET status=?, updated_at=? WHERE id=? AND status=?",
		to, time.Now().UTC(), id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *OrderRepo) query(ctx context.Context, q string, args ...any) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanOrder(s scanner) (model.Order, error) {
	var (
		o     model.Order
		items string
	)
	if err := s.Scan(&o.ID, &o.AccountID, &items, &o.TotalAmount, &o.ShippingAddress, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return model.Order{}, err
	}
	if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
		return model.Order{}, fmt.Errorf("decode items of order %s: %w", o.ID, err)
	}
	return o, nil
}
