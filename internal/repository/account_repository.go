package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/storefront-backend/internal/model"
)

// AccountRepo persists accounts in the `accounts` table.  Email equality is
// case-sensitive (utf8mb4_bin collation).
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

const accountColumns = "id,name,email,password_hash,role,created_at,updated_at"

// Create inserts an account.  A duplicate email yields ErrEmailExists.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO accounts ("+accountColumns+") VALUES (?,?,?,?,?,?,?)",
		a.ID, a.Name, a.Email, a.PasswordHash, a.Role, a.CreatedAt, a.UpdatedAt)
	if isDuplicateKey(err) {
		return ErrEmailExists
	}
	return err
}

// GetByEmail fetches an account by exact email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	return r.getOne(ctx, "SELECT "+accountColumns+" FROM accounts WHERE email=? LIMIT 1", email)
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (model.Account, error) {
	return r.getOne(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id=? LIMIT 1", id)
}

func (r *AccountRepo) getOne(ctx context.Context, q string, arg any) (model.Account, error) {
	a, err := scanAccount(r.DB.QueryRowContext(ctx, q, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, ErrNotFound
	}
	return a, err
}

// Update overwrites name, email, password hash and role.
func (r *AccountRepo) Update(ctx context.Context, a model.Account) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET name=?, email=?, password_hash=?, role=?, updated_at=? WHERE id=?",
		a.Name, a.Email, a.PasswordHash, a.Role, a.UpdatedAt, a.ID)
	if isDuplicateKey(err) {
		return ErrEmailExists
	}
	if err != nil {
		return err
	}
	return expectOne(res)
}

// Delete removes an account.
func (r *AccountRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM accounts WHERE id=?", id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// List returns accounts ordered by creation time, optionally restricted to
// one role.
func (r *AccountRepo) List(ctx context.Context, role model.Role) ([]model.Account, error) {
	q := "SELECT " + accountColumns + " FROM accounts"
	var args []any
	if role != "" {
		q += " WHERE role=?"
		args = append(args, role)
	}
	q += " ORDER BY created_at ASC"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountByRole counts accounts holding role.
func (r *AccountRepo) CountByRole(ctx context.Context, role model.Role) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts WHERE role=?", role).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (model.Account, error) {
	var a model.Account
	err := s.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// expectOne converts a zero-row result into ErrNotFound.  It relies on
// the connection reporting matched rather than changed rows
// (clientFoundRows, set by database.Open).
func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
