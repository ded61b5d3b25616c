package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront-backend/internal/service"
)

// OrderHandler serves a user's own orders.
type OrderHandler struct {
	Orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{Orders: orders}
}

// Buy places an order for the whole cart or fails without side effects.
func (h *OrderHandler) Buy(c echo.Context) error {
	a, err := caller(c)
	if err != nil {
		return err
	}
	var req service.BuyInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	o, err := h.Orders.Buy(ctx, a, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "order placed", "order": o})
}

func (h *OrderHandler) List(c echo.Context) error {
	a, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	orders, err := h.Orders.ListMine(ctx, a)
	if err != nil {
		return err
	}
	return list(c, "orders", orders)
}

func (h *OrderHandler) Get(c echo.Context) error {
	a, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	o, err := h.Orders.GetMine(ctx, a, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"order": o})
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	a, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	o, err := h.Orders.Cancel(ctx, a, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "order cancelled", "order": o})
}
