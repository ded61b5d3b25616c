package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront-backend/internal/model"
	"github.com/iliyamo/storefront-backend/internal/service"
)

// RequireRole lets the request through only when the authenticated
// account holds one of roles.  It must run after Authenticate.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			a, ok := AccountFrom(c)
			if !ok {
				return &service.Error{Kind: service.ErrUnauthenticated, Msg: "authentication required"}
			}
			if err := service.RequireRole(a, roles...); err != nil {
				return err
			}
			return next(c)
		}
	}
}
