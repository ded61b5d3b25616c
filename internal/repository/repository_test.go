package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/storefront-backend/internal/database"
	"github.com/iliyamo/storefront-backend/internal/model"
)

func TestSearchClause(t *testing.T) {
	lo, hi := decimal.NewFromInt(10), decimal.RequireFromString("99.50")

	where, args := searchClause(model.ProductFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = searchClause(model.ProductFilter{Name: "Shirt", Color: "50%_off", MinPrice: &lo, MaxPrice: &hi})
	assert.Equal(t, "LOWER(name) LIKE ? AND LOWER(color) LIKE ? AND price >= ? AND price <= ?", where)
	assert.Equal(t, []any{"%shirt%", `%50\%\_off%`, lo, hi}, args)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\\b\%c\_d`, escapeLike(`a\b%c_d`))
	assert.Equal(t, "plain", escapeLike("plain"))
}

// openTestDB connects to the MySQL named by DB_* variables, skipping the
// test when none is configured or reachable.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	host := os.Getenv("DB_HOST")
	if host == "" {
		t.Skip("DB_HOST not set; skipping MySQL integration test")
	}
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "3306"
	}
	db, err := database.Open(os.Getenv("DB_USER"), os.Getenv("DB_PASS"), host, port, os.Getenv("DB_NAME"))
	if err != nil {
		t.Skipf("mysql unavailable: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

func TestAccountRepoIntegration(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewAccountRepo(db)

	now := time.Now().UTC().Truncate(time.Second)
	email := uuid.NewString() + "@example.com"
	a := model.Account{ID: uuid.NewString(), Name: "A", Email: email, PasswordHash: "h", Role: model.RoleUser, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(ctx, &a))
	t.Cleanup(func() { _ = repo.Delete(ctx, a.ID) })

	dup := a
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, repo.Create(ctx, &dup), ErrEmailExists)

	_, err := repo.GetByEmail(ctx, "UPPER"+email)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := repo.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	got.Name = "B"
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", got.Name)

	// an update that changes nothing still finds the row
	require.NoError(t, repo.Update(ctx, got))

	n, err := repo.CountByRole(ctx, model.RoleUser)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	require.NoError(t, repo.Delete(ctx, a.ID))
	assert.ErrorIs(t, repo.Delete(ctx, a.ID), ErrNotFound)
}

func TestProductStockIntegration(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewProductRepo(db)

	now := time.Now().UTC().Truncate(time.Second)
	p := model.Product{ID: uuid.NewString(), Name: "Widget " + uuid.NewString(), Price: decimal.RequireFromString("19.99"), Color: "Teal", Quantity: 5, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(ctx, &p))
	t.Cleanup(func() { _ = repo.Delete(ctx, p.ID) })

	ok, err := repo.DecrementStock(ctx, p.ID, 6)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.DecrementStock(ctx, p.ID, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IncrementStock(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity)
	assert.True(t, got.Price.Equal(p.Price))

	got.Quantity = 40
	got.Color = "Navy"
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity, "Update leaves stock alone")
	assert.Equal(t, "Navy", got.Color)

	require.NoError(t, repo.SetQuantity(ctx, p.ID, 7))
	got, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Quantity)
	got.Color = "Teal"
	require.NoError(t, repo.Update(ctx, got))

	found, err := repo.Search(ctx, model.ProductFilter{Name: p.Name[7:], Color: "tea"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, p.ID, found[0].ID)

	require.NoError(t, repo.Delete(ctx, p.ID))
	ok, err = repo.IncrementStock(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrderRepoIntegration(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewOrderRepo(db)

	now := time.Now().UTC().Truncate(time.Second)
	o := model.Order{
		ID:        uuid.NewString(),
		AccountID: uuid.NewString(),
		Items: []model.OrderItem{
			{ProductID: uuid.NewString(), Name: "P", Price: decimal.NewFromInt(20), Quantity: 3},
		},
		TotalAmount:     decimal.NewFromInt(60),
		ShippingAddress: "1 Main St",
		Status:          model.OrderPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, repo.Create(ctx, &o))

	got, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Items[0].Name, got.Items[0].Name)
	assert.True(t, got.TotalAmount.Equal(o.TotalAmount))

	ok, err := repo.TransitionStatus(ctx, o.ID, model.OrderPending, model.OrderCancelled)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.TransitionStatus(ctx, o.ID, model.OrderPending, model.OrderCancelled)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.UpdateStatus(ctx, o.ID, model.OrderShipped))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, uuid.NewString(), model.OrderShipped), ErrNotFound)

	mine, err := repo.ListByAccount(ctx, o.AccountID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, model.OrderShipped, mine[0].Status)
}
