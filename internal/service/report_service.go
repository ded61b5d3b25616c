package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/storefront-backend/internal/model"
)

// Dashboard is the admin overview.
type Dashboard struct {
	UserCount    int64 `json:"user_count"`
	SellerCount  int64 `json:"seller_count"`
	AdminCount   int64 `json:"admin_count"`
	ProductCount int64 `json:"product_count"`
}

type ReportService struct {
	accounts AccountStore
	products ProductStore
}

func NewReportService(accounts AccountStore, products ProductStore) *ReportService {
	return &ReportService{accounts: accounts, products: products}
}

// Dashboard runs the four counts concurrently.  They are independent
// reads, so the result is not a consistent snapshot.
func (s *ReportService) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	g, ctx := errgroup.WithContext(ctx)
	for role, dst := range map[model.Role]*int64{
		model.RoleUser:   &d.UserCount,
		model.RoleSeller: &d.SellerCount,
		model.RoleAdmin:  &d.AdminCount,
	} {
		g.Go(func() error {
			n, err := s.accounts.CountByRole(ctx, role)
			*dst = n
			return err
		})
	}
	g.Go(func() error {
		n, err := s.products.Count(ctx)
		d.ProductCount = n
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}
