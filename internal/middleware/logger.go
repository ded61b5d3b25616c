package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// RequestLogger writes one structured line per request.  Handler errors
// are rendered first so the logged status is the one the client got.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			entry := log.WithFields(logrus.Fields{
				"method":     req.Method,
				"path":       req.URL.Path,
				"route":      c.Path(),
				"remote_ip":  c.RealIP(),
				"status":     c.Response().Status,
				"latency_ms": time.Since(start).Milliseconds(),
			})
			if id, ok := c.Get(ContextUserID).(string); ok {
				entry = entry.WithField("account_id", id)
			}
			if reqID := c.Response().Header().Get(echo.HeaderXRequestID); reqID != "" {
				entry = entry.WithField("request_id", reqID)
			}

			switch status := c.Response().Status; {
			case status >= 500:
				entry.WithError(err).Error("request failed")
			case status >= 400:
				entry.Warn("request rejected")
			default:
				entry.Info("request completed")
			}
			return nil
		}
	}
}
