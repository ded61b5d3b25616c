package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront-backend/internal/middleware"
	"github.com/iliyamo/storefront-backend/internal/model"
	"github.com/iliyamo/storefront-backend/internal/service"
)

// storeTimeout bounds the storage work of one request.
const storeTimeout = 5 * time.Second

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), storeTimeout)
}

// bind decodes the request body into dst.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return badRequest("invalid request body")
	}
	return nil
}

// caller returns the authenticated account.  Routes that use it are
// always behind middleware.Authenticate.
func caller(c echo.Context) (model.Account, error) {
	a, ok := middleware.AccountFrom(c)
	if !ok {
		return model.Account{}, &service.Error{Kind: service.ErrUnauthenticated, Msg: "authentication required"}
	}
	return a, nil
}

// list writes {"count": n, key: items}.
func list[T any](c echo.Context, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(items), key: items})
}
