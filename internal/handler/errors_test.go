package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/storefront-backend/internal/service"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		kind   error
		status int
	}{
		{service.ErrInvalidRequest, http.StatusBadRequest},
		{service.ErrConflict, http.StatusBadRequest},
		{service.ErrInvalidCredentials, http.StatusBadRequest},
		{service.ErrInsufficientStock, http.StatusBadRequest},
		{service.ErrInvalidTransition, http.StatusBadRequest},
		{service.ErrUnauthenticated, http.StatusUnauthorized},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		err := fmt.Errorf("wrapped: %w", &service.Error{Kind: tc.kind, Msg: "detail"})
		status, env := statusOf(err, false)
		assert.Equal(t, tc.status, status, tc.kind)
		assert.Equal(t, "detail", env.Message)
		assert.NotEmpty(t, env.Error)
	}

	status, env := statusOf(echo.NewHTTPError(http.StatusRequestEntityTooLarge, "too big"), false)
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	assert.Equal(t, "too big", env.Message)
}

func TestUnexpectedErrorsAreGeneric(t *testing.T) {
	status, env := statusOf(errors.New("dial tcp: connection refused"), false)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, envelope{Message: "internal server error"}, env)

	_, env = statusOf(errors.New("dial tcp: connection refused"), true)
	assert.Equal(t, "dial tcp: connection refused", env.Error)
}

func TestErrorHandlerWritesEnvelope(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	ErrorHandler(log, true)(badRequest("quantity must be positive"), c)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var got envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, envelope{Message: "quantity must be positive", Error: "invalid_request"}, got)
}
