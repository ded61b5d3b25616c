package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront-backend/internal/model"
)

// Context keys set by Authenticate.
const (
	ContextAccount = "account"
	ContextUserID  = "user_id"
	ContextRole    = "role"
)

// Authenticator resolves a raw bearer token to an account.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (model.Account, error)
}

// Authenticate rejects requests without a valid bearer token and stores
// the resolved account in the context.  Errors are returned to echo's
// HTTPErrorHandler, which renders them as 401.
func Authenticate(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			a, err := auth.Authenticate(c.Request().Context(), bearerToken(c))
			if err != nil {
				return err
			}
			c.Set(ContextAccount, a)
			c.Set(ContextUserID, a.ID)
			c.Set(ContextRole, string(a.Role))
			return next(c)
		}
	}
}

// AccountFrom returns the account stored by Authenticate.
func AccountFrom(c echo.Context) (model.Account, bool) {
	a, ok := c.Get(ContextAccount).(model.Account)
	return a, ok
}

func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
