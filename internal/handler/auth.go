package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront-backend/internal/model"
	"github.com/iliyamo/storefront-backend/internal/service"
)

// AuthHandler serves registration and login for each role.
type AuthHandler struct {
	Accounts *service.AccountService
}

func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{Accounts: accounts}
}

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register returns a handler creating accounts of the given role.
func (h *AuthHandler) Register(role model.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req registerReq
		if err := bind(c, &req); err != nil {
			return err
		}
		ctx, cancel := withTimeout(c)
		defer cancel()

		a, err := h.Accounts.Register(ctx, service.RegisterInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Role:     role,
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, echo.Map{"message": "account created", "account": a})
	}
}

// Login returns a handler that only accepts accounts of role scope.
func (h *AuthHandler) Login(scope model.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginReq
		if err := bind(c, &req); err != nil {
			return err
		}
		if req.Email == "" || req.Password == "" {
			return badRequest("email and password are required")
		}
		ctx, cancel := withTimeout(c)
		defer cancel()

		s, err := h.Accounts.Login(ctx, req.Email, req.Password, scope)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{
			"message": "login successful",
			"account": s.Account,
			"access":  s.Access,
		})
	}
}
