package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/storefront-backend/internal/model"
	"github.com/iliyamo/storefront-backend/internal/repository"
)

// CatalogService owns product CRUD and search.
type CatalogService struct {
	products ProductStore
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewCatalogService(products ProductStore, log logrus.FieldLogger) *CatalogService {
	return &CatalogService{products: products, log: log, now: time.Now}
}

// ProductInput is the body of a product create.
type ProductInput struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Color       string          `json:"color"`
	Quantity    int             `json:"quantity"`
}

func (s *CatalogService) Create(ctx context.Context, in ProductInput) (model.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return model.Product{}, fail(ErrInvalidRequest, "name is required")
	}
	if err := checkPriceQuantity(&in.Price, &in.Quantity); err != nil {
		return model.Product{}, err
	}
	now := s.now().UTC()
	p := model.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Price:       in.Price,
		Description: in.Description,
		Color:       strings.TrimSpace(in.Color),
		Quantity:    in.Quantity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.Create(ctx, &p); err != nil {
		return model.Product{}, err
	}
	s.log.WithFields(logrus.Fields{"product_id": p.ID, "quantity": p.Quantity}).Info("product created")
	return p, nil
}

// Update applies the non-nil fields of up.  Descriptive fields and the
// quantity are written separately so an edit that leaves quantity out
// never touches stock.
func (s *CatalogService) Update(ctx context.Context, id string, up model.ProductUpdate) (model.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return model.Product{}, err
	}
	if up.Name != nil {
		name := strings.TrimSpace(*up.Name)
		if name == "" {
			return model.Product{}, fail(ErrInvalidRequest, "name must not be empty")
		}
		p.Name = name
	}
	if err := checkPriceQuantity(up.Price, up.Quantity); err != nil {
		return model.Product{}, err
	}
	if up.Price != nil {
		p.Price = *up.Price
	}
	if up.Description != nil {
		p.Description = *up.Description
	}
	if up.Color != nil {
		p.Color = strings.TrimSpace(*up.Color)
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.products.Update(ctx, p); err != nil {
		return model.Product{}, s.notFound(id, err)
	}
	if up.Quantity != nil {
		if err := s.products.SetQuantity(ctx, id, *up.Quantity); err != nil {
			return model.Product{}, s.notFound(id, err)
		}
		s.log.WithFields(logrus.Fields{"product_id": id, "quantity": *up.Quantity}).Info("product stock set")
	}
	return s.Get(ctx, id)
}

func (s *CatalogService) notFound(id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fail(ErrNotFound, "product %s not found", id)
	}
	return err
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	err := s.products.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(ErrNotFound, "product %s not found", id)
	}
	if err == nil {
		s.log.WithField("product_id", id).Info("product deleted")
	}
	return err
}

func (s *CatalogService) Get(ctx context.Context, id string) (model.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Product{}, fail(ErrNotFound, "product %s not found", id)
	}
	return p, err
}

func (s *CatalogService) List(ctx context.Context) ([]model.Product, error) {
	return s.products.List(ctx)
}

// Search returns products matching every supplied filter.  With no
// filters it is the full listing.
func (s *CatalogService) Search(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, fail(ErrInvalidRequest, "min_price must not exceed max_price")
	}
	if f.Empty() {
		return s.products.List(ctx)
	}
	return s.products.Search(ctx, f)
}

func checkPriceQuantity(price *decimal.Decimal, quantity *int) error {
	if price != nil && price.IsNegative() {
		return fail(ErrInvalidRequest, "price must not be negative")
	}
	if price != nil && price.Exponent() < -2 && !price.Equal(price.Truncate(2)) {
		return fail(ErrInvalidRequest, "price must have at most 2 decimal places")
	}
	if quantity != nil && *quantity < 0 {
		return fail(ErrInvalidRequest, "quantity must not be negative")
	}
	return nil
}
