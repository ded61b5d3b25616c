package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront-backend/internal/model"
	"github.com/iliyamo/storefront-backend/internal/service"
)

// AdminHandler serves the admin-only endpoints.
type AdminHandler struct {
	Accounts *service.AccountService
	Orders   *service.OrderService
	Reports  *service.ReportService
}

func NewAdminHandler(accounts *service.AccountService, orders *service.OrderService, reports *service.ReportService) *AdminHandler {
	return &AdminHandler{Accounts: accounts, Orders: orders, Reports: reports}
}

type createAccountReq struct {
	registerReq
	Role model.Role `json:"role"`
}

type roleReq struct {
	Role model.Role `json:"role"`
}

type statusReq struct {
	Status model.OrderStatus `json:"status"`
}

func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	d, err := h.Reports.Dashboard(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

// ListAccounts accepts an optional ?role= filter.
func (h *AdminHandler) ListAccounts(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	accounts, err := h.Accounts.List(ctx, model.Role(strings.TrimSpace(c.QueryParam("role"))))
	if err != nil {
		return err
	}
	return list(c, "accounts", accounts)
}

func (h *AdminHandler) CreateAccount(c echo.Context) error {
	var req createAccountReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	a, err := h.Accounts.Register(ctx, service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "account created", "account": a})
}

func (h *AdminHandler) SetRole(c echo.Context) error {
	var req roleReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	a, err := h.Accounts.SetRole(ctx, c.Param("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "role updated", "account": a})
}

func (h *AdminHandler) DeleteAccount(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Accounts.Delete(ctx, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "account deleted"})
}

// ListOrders accepts an optional ?status= filter.
func (h *AdminHandler) ListOrders(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	orders, err := h.Orders.ListAll(ctx, model.OrderStatus(strings.TrimSpace(c.QueryParam("status"))))
	if err != nil {
		return err
	}
	return list(c, "orders", orders)
}

func (h *AdminHandler) SetOrderStatus(c echo.Context) error {
	var req statusReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	o, err := h.Orders.SetStatus(ctx, c.Param("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "order status updated", "order": o})
}
