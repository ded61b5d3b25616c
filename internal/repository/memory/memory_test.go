package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/storefront-backend/internal/model"
	"github.com/iliyamo/storefront-backend/internal/repository"
)

func TestAccountsEmailUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewAccounts()

	require.NoError(t, s.Create(ctx, &model.Account{ID: "1", Email: "a@x.com", Role: model.RoleUser}))
	assert.ErrorIs(t, s.Create(ctx, &model.Account{ID: "2", Email: "a@x.com", Role: model.RoleSeller}), repository.ErrEmailExists)
	require.NoError(t, s.Create(ctx, &model.Account{ID: "3", Email: "A@x.com", Role: model.RoleUser}), "emails compare case-sensitively")

	b := model.Account{ID: "3", Email: "a@x.com"}
	assert.ErrorIs(t, s.Update(ctx, b), repository.ErrEmailExists)

	b.Email = "b@x.com"
	require.NoError(t, s.Update(ctx, b))
	got, err := s.GetByEmail(ctx, "b@x.com")
	require.NoError(t, err)
	assert.Equal(t, "3", got.ID)
	_, err = s.GetByEmail(ctx, "A@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, s.Delete(ctx, "1"))
	assert.ErrorIs(t, s.Delete(ctx, "1"), repository.ErrNotFound)
	n, err := s.CountByRole(ctx, model.RoleUser)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestProductsConditionalDecrement(t *testing.T) {
	ctx := context.Background()
	s := NewProducts()
	require.NoError(t, s.Create(ctx, &model.Product{ID: "p", Quantity: 5, Price: decimal.NewFromInt(1)}))

	ok, err := s.DecrementStock(ctx, "p", 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.DecrementStock(ctx, "p", 3)
	require.NoError(t, err)
	assert.False(t, ok, "only 2 left")

	ok, err = s.DecrementStock(ctx, "missing", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.IncrementStock(ctx, "p", 3)
	require.NoError(t, err)
	assert.True(t, ok)
	p, _ := s.GetByID(ctx, "p")
	assert.Equal(t, 5, p.Quantity)

	ok, err = s.IncrementStock(ctx, "missing", 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProductsConcurrentDecrementNeverOversells(t *testing.T) {
	ctx := context.Background()
	s := NewProducts()
	require.NoError(t, s.Create(ctx, &model.Product{ID: "p", Quantity: 100}))

	var wg sync.WaitGroup
	var sold int64
	for i := 0; i < 500; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.DecrementStock(ctx, "p", 1); ok {
				atomic.AddInt64(&sold, 1)
			}
		}()
	}
	wg.Wait()

	p, _ := s.GetByID(ctx, "p")
	assert.EqualValues(t, 100, sold)
	assert.Equal(t, 0, p.Quantity)
}

func TestOrdersTransitionAndOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewOrders()
	now := time.Now()
	require.NoError(t, s.Create(ctx, &model.Order{ID: "o1", AccountID: "a", Status: model.OrderPending, CreatedAt: now}))
	require.NoError(t, s.Create(ctx, &model.Order{ID: "o2", AccountID: "a", Status: model.OrderPending, CreatedAt: now.Add(time.Second)}))
	require.NoError(t, s.Create(ctx, &model.Order{ID: "o3", AccountID: "b", Status: model.OrderShipped, CreatedAt: now}))

	ok, err := s.TransitionStatus(ctx, "o1", model.OrderPending, model.OrderCancelled)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.TransitionStatus(ctx, "o1", model.OrderPending, model.OrderCancelled)
	require.NoError(t, err)
	assert.False(t, ok, "second transition loses")

	mine, _ := s.ListByAccount(ctx, "a")
	require.Len(t, mine, 2)
	assert.Equal(t, "o2", mine[0].ID, "newest first")

	shipped, _ := s.List(ctx, model.OrderShipped)
	require.Len(t, shipped, 1)
	assert.Equal(t, "o3", shipped[0].ID)

	assert.ErrorIs(t, s.UpdateStatus(ctx, "nope", model.OrderShipped), repository.ErrNotFound)
}

func TestOrdersAreCopied(t *testing.T) {
	ctx := context.Background()
	s := NewOrders()
	o := model.Order{ID: "o", Items: []model.OrderItem{{ProductID: "p", Quantity: 1}}}
	require.NoError(t, s.Create(ctx, &o))
	o.Items[0].Quantity = 99

	got, _ := s.GetByID(ctx, "o")
	assert.Equal(t, 1, got.Items[0].Quantity)
}

func TestProductsUpdateKeepsQuantity(t *testing.T) {
	ctx := context.Background()
	s := NewProducts()
	require.NoError(t, s.Create(ctx, &model.Product{ID: "p", Name: "a", Quantity: 5, Price: decimal.NewFromInt(1)}))

	require.NoError(t, s.Update(ctx, model.Product{ID: "p", Name: "b", Quantity: 99, Price: decimal.NewFromInt(2)}))
	p, err := s.GetByID(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "b", p.Name)
	assert.Equal(t, 5, p.Quantity)

	require.NoError(t, s.SetQuantity(ctx, "p", 8))
	p, _ = s.GetByID(ctx, "p")
	assert.Equal(t, 8, p.Quantity)

	assert.ErrorIs(t, s.SetQuantity(ctx, "missing", 1), repository.ErrNotFound)
}
