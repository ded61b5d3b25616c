package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/storefront-backend/internal/model"
)

// ProductRepo persists catalog entries in the `products` table.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo returns a new ProductRepo bound to the given database.
func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

const productColumns = "id,name,price,description,color,quantity,created_at,updated_at"

// Create inserts a product.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO products ("+productColumns+") VALUES (?,?,?,?,?,?,?,?)",
		p.ID, p.Name, p.Price, p.Description, p.Color, p.Quantity, p.CreatedAt, p.UpdatedAt)
	return err
}

// GetByID returns a single product or ErrNotFound.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (model.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id=?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Product{}, ErrNotFound
	}
	return p, err
}

// Update writes the descriptive columns of the product.  Quantity is left
// alone: it only moves through SetQuantity and the stock counters, so an
// edit cannot overwrite a concurrent decrement.
func (r *ProductRepo) Update(ctx context.Context, p model.Product) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE products SET name=?, price=?, description=?, color=?, updated_at=? WHERE id=?",
		p.Name, p.Price, p.Description, p.Color, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// SetQuantity replaces the units on hand.
func (r *ProductRepo) SetQuantity(ctx context.Context, id string, quantity int) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE products SET quantity=?, updated_at=? WHERE id=?", quantity, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// Delete removes a product.  Orders keep their snapshots.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id=?", id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// List returns the whole catalog ordered by creation time.
func (r *ProductRepo) List(ctx context.Context) ([]model.Product, error) {
	return r.query(ctx, "SELECT "+productColumns+" FROM products ORDER BY created_at ASC")
}

// Count returns the number of products.
func (r *ProductRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&n)
	return n, err
}

// DecrementStock atomically subtracts quantity when at least that many
// units are on hand.  It returns false, without touching the row, when the
// product is missing or short.
func (r *ProductRepo) DecrementStock(ctx context.Context, id string, quantity int) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE products SET quantity = quantity - ?, updated_at = ? WHERE id = ? AND quantity >= ?",
		quantity, time.Now().UTC(), id, quantity)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// IncrementStock atomically adds quantity back.  It returns false when the
// product no longer exists.
func (r *ProductRepo) IncrementStock(ctx context.Context, id string, quantity int) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE products SET quantity = quantity + ?, updated_at = ? WHERE id = ?",
		quantity, time.Now().UTC(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *ProductRepo) query(ctx context.Context, q string, args ...any) ([]model.Product, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProduct(s scanner) (model.Product, error) {
	var p model.Product
	err := s.Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.Color, &p.Quantity, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
