package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront-backend/internal/model"
	"github.com/iliyamo/storefront-backend/internal/service"
)

// AccountHandler serves the caller's own account.
type AccountHandler struct {
	Accounts *service.AccountService
}

func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{Accounts: accounts}
}

type profileReq struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type passwordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AccountHandler) Me(c echo.Context) error {
	a, err := caller(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"account": a})
}

func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	a, err := caller(c)
	if err != nil {
		return err
	}
	var req profileReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Name == nil && req.Email == nil {
		return badRequest("nothing to update")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	updated, err := h.Accounts.UpdateProfile(ctx, a.ID, model.ProfileUpdate{Name: req.Name, Email: req.Email})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "profile updated", "account": updated})
}

func (h *AccountHandler) ChangePassword(c echo.Context) error {
	a, err := caller(c)
	if err != nil {
		return err
	}
	var req passwordReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Accounts.ChangePassword(ctx, a.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}
