package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/storefront-backend/internal/model"
	"github.com/iliyamo/storefront-backend/internal/service"
)

// ProductHandler serves the catalog.
type ProductHandler struct {
	Catalog *service.CatalogService
}

func NewProductHandler(catalog *service.CatalogService) *ProductHandler {
	return &ProductHandler{Catalog: catalog}
}

type productPatch struct {
	Name        *string          `json:"name"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`
	Color       *string          `json:"color"`
	Quantity    *int             `json:"quantity"`
}

func (h *ProductHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	items, err := h.Catalog.List(ctx)
	if err != nil {
		return err
	}
	return list(c, "products", items)
}

// Search reads name, color, min_price and max_price from the query
// string.  All are optional.
func (h *ProductHandler) Search(c echo.Context) error {
	f := model.ProductFilter{
		Name:  strings.TrimSpace(c.QueryParam("name")),
		Color: strings.TrimSpace(c.QueryParam("color")),
	}
	var err error
	if f.MinPrice, err = priceParam(c, "min_price"); err != nil {
		return err
	}
	if f.MaxPrice, err = priceParam(c, "max_price"); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	items, err := h.Catalog.Search(ctx, f)
	if err != nil {
		return err
	}
	return list(c, "products", items)
}

func (h *ProductHandler) Get(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	p, err := h.Catalog.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"product": p})
}

func (h *ProductHandler) Create(c echo.Context) error {
	var req service.ProductInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	p, err := h.Catalog.Create(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "product created", "product": p})
}

func (h *ProductHandler) Update(c echo.Context) error {
	var req productPatch
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	p, err := h.Catalog.Update(ctx, c.Param("id"), model.ProductUpdate{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Color:       req.Color,
		Quantity:    req.Quantity,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "product updated", "product": p})
}

func (h *ProductHandler) Delete(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Catalog.Delete(ctx, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "product deleted"})
}

func priceParam(c echo.Context, name string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, badRequest("%s must be a number", name)
	}
	return &d, nil
}
