package service

import (
	"context"

	"github.com/iliyamo/storefront-backend/internal/model"
	"github.com/iliyamo/storefront-backend/internal/queue"
	"github.com/iliyamo/storefront-backend/internal/utils"
)

// AccountStore is the credential store.  Implementations return
// repository.ErrNotFound and repository.ErrEmailExists.
type AccountStore interface {
	Create(ctx context.Context, a *model.Account) error
	GetByID(ctx context.Context, id string) (model.Account, error)
	GetByEmail(ctx context.Context, email string) (model.Account, error)
	Update(ctx context.Context, a model.Account) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, role model.Role) ([]model.Account, error)
	CountByRole(ctx context.Context, role model.Role) (int64, error)
}

// ProductStore is the catalog store.  DecrementStock must be a single
// indivisible conditional update.
type ProductStore interface {
	Create(ctx context.Context, p *model.Product) error
	GetByID(ctx context.Context, id string) (model.Product, error)
	// Update must not write Quantity; SetQuantity does.
	Update(ctx context.Context, p model.Product) error
	SetQuantity(ctx context.Context, id string, quantity int) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.Product, error)
	Search(ctx context.Context, f model.ProductFilter) ([]model.Product, error)
	Count(ctx context.Context) (int64, error)
	DecrementStock(ctx context.Context, id string, quantity int) (bool, error)
	IncrementStock(ctx context.Context, id string, quantity int) (bool, error)
}

// OrderStore is the order ledger.
type OrderStore interface {
	Create(ctx context.Context, o *model.Order) error
	GetByID(ctx context.Context, id string) (model.Order, error)
	ListByAccount(ctx context.Context, accountID string) ([]model.Order, error)
	List(ctx context.Context, status model.OrderStatus) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error
	TransitionStatus(ctx context.Context, id string, from, to model.OrderStatus) (bool, error)
}

// PasswordHasher is a one-way salted hash.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

// TokenIssuer signs access tokens at login.
type TokenIssuer interface {
	Issue(accountID, role string) (utils.AccessToken, error)
}

// TokenVerifier checks access tokens on protected requests.
type TokenVerifier interface {
	Verify(raw string) (utils.Claims, error)
}

// EventPublisher forwards order lifecycle events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.OrderEvent) error
}
