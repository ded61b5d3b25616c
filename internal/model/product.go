package model

import (
    "strings"
    "time"

    "github.com/shopspring/decimal"
)

func init() {
    // prices are rendered as JSON numbers, not quoted strings
    decimal.MarshalJSONWithoutQuotes = true
}

// Product is a catalog entry.  Quantity is the number of units on hand and
// never goes below zero.
type Product struct {
    ID          string          `json:"id"`
    Name        string          `json:"name"`
    Price       decimal.Decimal `json:"price"`
    Description string          `json:"description"`
    Color       string          `json:"color"`
    Quantity    int             `json:"quantity"`
    CreatedAt   time.Time       `json:"created_at"`
    UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductUpdate carries the optional fields of a product edit.
type ProductUpdate struct {
    Name        *string
    Price       *decimal.Decimal
    Description *string
    Color       *string
    Quantity    *int
}

// ProductFilter narrows a catalog search.  Zero values disable a filter.
type ProductFilter struct {
    Name     string
    Color    string
    MinPrice *decimal.Decimal
    MaxPrice *decimal.Decimal
}

// Empty reports whether no filter is set.
func (f ProductFilter) Empty() bool {
    return f.Name == "" && f.Color == "" && f.MinPrice == nil && f.MaxPrice == nil
}

// Matches applies the filter to a single product: case-insensitive
// substring on name and color, inclusive price bounds.
func (f ProductFilter) Matches(p Product) bool {
    if f.Name != "" && !containsFold(p.Name, f.Name) {
        return false
    }
    if f.Color != "" && !containsFold(p.Color, f.Color) {
        return false
    }
    if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
        return false
    }
    if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
        return false
    }
    return true
}

func containsFold(s, sub string) bool {
    return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
