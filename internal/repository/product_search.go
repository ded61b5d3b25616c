package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/storefront-backend/internal/model"
)

// Search returns every product matching the filter.  Name and color match
// case-insensitively as substrings; price bounds are inclusive.  There is
// no pagination.
func (r *ProductRepo) Search(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	where, args := searchClause(f)
	q := "SELECT " + productColumns + " FROM products"
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY created_at ASC"
	return r.query(ctx, q, args...)
}

func searchClause(f model.ProductFilter) (string, []any) {
	where := []string{}
	args := []any{}

	if f.Name != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, "%"+escapeLike(strings.ToLower(f.Name))+"%")
	}
	if f.Color != "" {
		where = append(where, "LOWER(color) LIKE ?")
		args = append(args, "%"+escapeLike(strings.ToLower(f.Color))+"%")
	}
	if f.MinPrice != nil {
		where = append(where, "price >= ?")
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		where = append(where, "price <= ?")
		args = append(args, *f.MaxPrice)
	}
	return strings.Join(where, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralises LIKE wildcards in user input.
func escapeLike(s string) string { return likeEscaper.Replace(s) }
