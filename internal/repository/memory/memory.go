// Package memory provides in-process stores with the same behaviour as the
// MySQL repositories.  They back STORE_DRIVER=memory and the package tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/storefront-backend/internal/model"
	"github.com/iliyamo/storefront-backend/internal/repository"
)

// Accounts is a map-backed account store keyed by id with an email index.
type Accounts struct {
	mu      sync.RWMutex
	byID    map[string]model.Account
	byEmail map[string]string
}

func NewAccounts() *Accounts {
	return &Accounts{byID: map[string]model.Account{}, byEmail: map[string]string{}}
}

func (s *Accounts) Create(_ context.Context, a *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[a.Email]; ok {
		return repository.ErrEmailExists
	}
	s.byID[a.ID] = *a
	s.byEmail[a.Email] = a.ID
	return nil
}

func (s *Accounts) GetByID(_ context.Context, id string) (model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return model.Account{}, repository.ErrNotFound
	}
	return a, nil
}

func (s *Accounts) GetByEmail(_ context.Context, email string) (model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return model.Account{}, repository.ErrNotFound
	}
	return s.byID[id], nil
}

func (s *Accounts) Update(_ context.Context, a model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.byID[a.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if owner, taken := s.byEmail[a.Email]; taken && owner != a.ID {
		return repository.ErrEmailExists
	}
	delete(s.byEmail, old.Email)
	s.byEmail[a.Email] = a.ID
	s.byID[a.ID] = a
	return nil
}

func (s *Accounts) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byEmail, a.Email)
	return nil
}

func (s *Accounts) List(_ context.Context, role model.Role) ([]model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Account, 0, len(s.byID))
	for _, a := range s.byID {
		if role == "" || a.Role == role {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return before(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out, nil
}

func (s *Accounts) CountByRole(_ context.Context, role model.Role) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, a := range s.byID {
		if a.Role == role {
			n++
		}
	}
	return n, nil
}

// Products is a map-backed catalog.  Stock moves happen under the write
// lock, which makes the conditional decrement indivisible.
type Products struct {
	mu   sync.RWMutex
	byID map[string]model.Product
}

func NewProducts() *Products { return &Products{byID: map[string]model.Product{}} }

func (s *Products) Create(_ context.Context, p *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[p.ID] = *p
	return nil
}

func (s *Products) GetByID(_ context.Context, id string) (model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return model.Product{}, repository.ErrNotFound
	}
	return p, nil
}

// Update keeps the stored quantity; see SetQuantity.
func (s *Products) Update(_ context.Context, p model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Quantity = cur.Quantity
	p.CreatedAt = cur.CreatedAt
	s.byID[p.ID] = p
	return nil
}

func (s *Products) SetQuantity(_ context.Context, id string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Quantity = quantity
	p.UpdatedAt = time.Now().UTC()
	s.byID[id] = p
	return nil
}

func (s *Products) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *Products) List(ctx context.Context) ([]model.Product, error) {
	return s.Search(ctx, model.ProductFilter{})
}

func (s *Products) Search(_ context.Context, f model.ProductFilter) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Product, 0, len(s.byID))
	for _, p := range s.byID {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return before(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out, nil
}

func (s *Products) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byID)), nil
}

func (s *Products) DecrementStock(_ context.Context, id string, quantity int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok || p.Quantity < quantity {
		return false, nil
	}
	p.Quantity -= quantity
	p.UpdatedAt = time.Now().UTC()
	s.byID[id] = p
	return true, nil
}

func (s *Products) IncrementStock(_ context.Context, id string, quantity int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return false, nil
	}
	p.Quantity += quantity
	p.UpdatedAt = time.Now().UTC()
	s.byID[id] = p
	return true, nil
}

// Orders is a map-backed order ledger.
type Orders struct {
	mu   sync.RWMutex
	byID map[string]model.Order
}

func NewOrders() *Orders { return &Orders{byID: map[string]model.Order{}} }

func (s *Orders) Create(_ context.Context, o *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[o.ID] = cloneOrder(*o)
	return nil
}

func (s *Orders) GetByID(_ context.Context, id string) (model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.byID[id]
	if !ok {
		return model.Order{}, repository.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *Orders) ListByAccount(_ context.Context, accountID string) ([]model.Order, error) {
	return s.filter(func(o model.Order) bool { return o.AccountID == accountID }), nil
}

func (s *Orders) List(_ context.Context, status model.OrderStatus) ([]model.Order, error) {
	return s.filter(func(o model.Order) bool { return status == "" || o.Status == status }), nil
}

func (s *Orders) UpdateStatus(_ context.Context, id string, status model.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	s.byID[id] = o
	return nil
}

func (s *Orders) TransitionStatus(_ context.Context, id string, from, to model.OrderStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	s.byID[id] = o
	return true, nil
}

func (s *Orders) filter(keep func(model.Order) bool) []model.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Order, 0)
	for _, o := range s.byID {
		if keep(o) {
			out = append(out, cloneOrder(o))
		}
	}
	// newest first, like the SQL store
	sort.Slice(out, func(i, j int) bool { return before(out[j].CreatedAt, out[i].CreatedAt, out[j].ID, out[i].ID) })
	return out
}

func cloneOrder(o model.Order) model.Order {
	o.Items = append([]model.OrderItem(nil), o.Items...)
	return o
}

func before(a, b time.Time, aID, bID string) bool {
	if a.Equal(b) {
		return aID < bID
	}
	return a.Before(b)
}
