package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/storefront-backend/internal/service"
)

// envelope is the body of every error response.
type envelope struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

var kinds = []struct {
	kind   error
	status int
	code   string
}{
	{service.ErrInvalidRequest, http.StatusBadRequest, "invalid_request"},
	{service.ErrConflict, http.StatusBadRequest, "conflict"},
	{service.ErrInvalidCredentials, http.StatusBadRequest, "invalid_credentials"},
	{service.ErrInsufficientStock, http.StatusBadRequest, "insufficient_stock"},
	{service.ErrInvalidTransition, http.StatusBadRequest, "invalid_transition"},
	{service.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
}

// statusOf maps an error to its HTTP status and envelope.  Anything
// unrecognised is a 500 with a generic message; its detail is only
// exposed when expose is set.
func statusOf(err error, expose bool) (int, envelope) {
	var se *service.Error
	if errors.As(err, &se) {
		for _, k := range kinds {
			if errors.Is(se, k.kind) {
				return k.status, envelope{Message: se.Msg, Error: k.code}
			}
		}
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			msg = s
		}
		return he.Code, envelope{Message: msg}
	}
	env := envelope{Message: "internal server error"}
	if expose {
		env.Error = err.Error()
	}
	return http.StatusInternalServerError, env
}

// ErrorHandler renders handler and middleware errors as envelopes.  It
// replaces echo's default HTTPErrorHandler.
func ErrorHandler(log logrus.FieldLogger, production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, env := statusOf(err, !production)
		if status >= http.StatusInternalServerError {
			log.WithError(err).WithFields(logrus.Fields{
				"method": c.Request().Method,
				"path":   c.Request().URL.Path,
			}).Error("unhandled error")
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, env)
		}
		if err != nil {
			log.WithError(err).Error("writing error response")
		}
	}
}

func badRequest(format string, args ...any) error {
	return &service.Error{Kind: service.ErrInvalidRequest, Msg: fmt.Sprintf(format, args...)}
}
