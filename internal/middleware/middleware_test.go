package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/storefront-backend/internal/config"
	"github.com/iliyamo/storefront-backend/internal/model"
	"github.com/iliyamo/storefront-backend/internal/service"
)

type stubAuth map[string]model.Account

func (s stubAuth) Authenticate(_ context.Context, raw string) (model.Account, error) {
	if a, ok := s[raw]; ok {
		return a, nil
	}
	return model.Account{}, &service.Error{Kind: service.ErrUnauthenticated, Msg: "invalid or expired token"}
}

func discard() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func ok(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func run(t *testing.T, e *echo.Echo, h echo.HandlerFunc, req *http.Request) (*httptest.ResponseRecorder, echo.Context, error) {
	t.Helper()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, c, h(c)
}

func TestAuthenticate(t *testing.T) {
	e := echo.New()
	alice := model.Account{ID: "a1", Role: model.RoleUser}
	mw := Authenticate(stubAuth{"good": alice})

	var seen model.Account
	h := mw(func(c echo.Context) error {
		seen, _ = AccountFrom(c)
		assert.Equal(t, "a1", c.Get(ContextUserID))
		assert.Equal(t, "user", c.Get(ContextRole))
		return ok(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	rec, _, err := run(t, e, h, req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, alice, seen)

	for _, header := range []string{"", "Bearer", "Basic good", "Bearer bad"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, header)
		_, _, err := run(t, e, h, req)
		assert.ErrorIs(t, err, service.ErrUnauthenticated, header)
	}
}

func TestBearerSchemeIsCaseInsensitive(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "bearer  tok ")
	assert.Equal(t, "tok", bearerToken(e.NewContext(req, httptest.NewRecorder())))
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	h := RequireRole(model.RoleSeller, model.RoleAdmin)(ok)

	for role, want := range map[model.Role]error{
		model.RoleUser:   service.ErrForbidden,
		model.RoleSeller: nil,
		model.RoleAdmin:  nil,
	} {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		c.Set(ContextAccount, model.Account{ID: "x", Role: role})
		err := h(c)
		if want == nil {
			assert.NoError(t, err, role)
			assert.Equal(t, http.StatusOK, rec.Code)
		} else {
			assert.ErrorIs(t, err, want, role)
		}
	}

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.ErrorIs(t, h(c), service.ErrUnauthenticated)
}

func TestRequestLoggerRecordsRenderedStatus(t *testing.T) {
	e := echo.New()
	log, hook := test.NewNullLogger()
	h := RequestLogger(log)(func(echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "nope")
	})
	rec, _, err := run(t, e, h, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, http.StatusNotFound, entry.Data["status"])
	assert.Equal(t, "/missing", entry.Data["path"])
}

func TestRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/user/buy", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/user/buy")

	cfg := config.RateLimitConfig{Prefix: "rl"}
	cases := map[string]string{
		"ip":         "rl:ip:10.0.0.1",
		"user":       "rl:user:anon",
		"route":      "rl:route:POST /api/user/buy",
		"user_route": "rl:user:anon:route:POST /api/user/buy",
		"":           "rl:ip:10.0.0.1:user:anon:route:POST /api/user/buy",
	}
	for strategy, want := range cases {
		cfg.KeyStrategy = strategy
		assert.Equal(t, want, buildRateKey(cfg, c), strategy)
	}

	c.Set(ContextUserID, "a1")
	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:a1", buildRateKey(cfg, c))
}

func TestRateLimitFailsOpen(t *testing.T) {
	e := echo.New()
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute, Prefix: "rl"}

	rec, _, err := run(t, e, NewTokenBucket(cfg, nil, discard())(ok), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	// no expectations: every redis call errors
	db, _ := redismock.NewClientMock()
	rec, _, err = run(t, e, NewTokenBucket(cfg, db, discard())(ok), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func cacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}
}

func TestCacheHit(t *testing.T) {
	e := echo.New()
	cfg := cacheConfig()
	db, mock := redismock.NewClientMock()

	req := httptest.NewRequest(http.MethodGet, "/api/products?color=red", nil)
	key := cacheKeyFrom(cfg, e.NewContext(req, httptest.NewRecorder()))
	payload, err := encodePayload(http.StatusOK, http.Header{echo.HeaderContentType: {echo.MIMEApplicationJSON}}, []byte(`{"count":0}`))
	require.NoError(t, err)
	mock.ExpectGet(key).SetVal(string(payload))

	called := false
	rec, _, err := run(t, e, NewRedisCache(cfg, db)(func(c echo.Context) error {
		called = true
		return ok(c)
	}), req)
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, echo.MIMEApplicationJSON, rec.Header().Get(echo.HeaderContentType))
	assert.JSONEq(t, `{"count":0}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheMissCallsHandler(t *testing.T) {
	e := echo.New()
	cfg := cacheConfig()
	db, mock := redismock.NewClientMock()
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	mock.ExpectGet(cacheKeyFrom(cfg, e.NewContext(req, httptest.NewRecorder()))).RedisNil()

	rec, _, err := run(t, e, NewRedisCache(cfg, db)(ok), req)
	require.NoError(t, err)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "ok", rec.Body.String())
}

func TestCacheStoresOnlyResourceHeaders(t *testing.T) {
	e := echo.New()
	cfg := cacheConfig()
	db, mock := redismock.NewClientMock()
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	key := cacheKeyFrom(cfg, e.NewContext(req, httptest.NewRecorder()))
	want, err := encodePayload(http.StatusOK, http.Header{echo.HeaderContentType: {echo.MIMETextPlainCharsetUTF8}}, []byte("ok"))
	require.NoError(t, err)
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSetEx(key, want, cfg.TTL).SetVal("OK")

	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	h := c.Response().Header()
	h.Set(echo.HeaderXRequestID, "req-1")
	h.Set("X-RateLimit-Limit", "10")
	h.Set("X-RateLimit-Remaining", "9")
	h.Set("X-RateLimit-Key", "ip:192.0.2.1")
	require.NoError(t, NewRedisCache(cfg, db)(ok)(c))
	assert.Equal(t, "req-1", rec.Header().Get(echo.HeaderXRequestID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheHitKeepsCurrentRequestID(t *testing.T) {
	e := echo.New()
	cfg := cacheConfig()
	db, mock := redismock.NewClientMock()
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	stale := http.Header{
		echo.HeaderContentType:  {echo.MIMEApplicationJSON},
		echo.HeaderXRequestID:   {"old"},
		"X-Ratelimit-Remaining": {"0"},
	}
	payload, err := encodePayload(http.StatusOK, stale, []byte(`{}`))
	require.NoError(t, err)
	mock.ExpectGet(cacheKeyFrom(cfg, e.NewContext(req, httptest.NewRecorder()))).SetVal(string(payload))

	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Response().Header().Set(echo.HeaderXRequestID, "new")
	require.NoError(t, NewRedisCache(cfg, db)(ok)(c))
	assert.Equal(t, []string{"new"}, rec.Header().Values(echo.HeaderXRequestID))
	assert.Empty(t, rec.Header().Get("X-RateLimit-Remaining"))
}

func TestCacheKeyIncludesPathAndQuery(t *testing.T) {
	e := echo.New()
	cfg := cacheConfig()
	key := func(target string) string {
		return cacheKeyFrom(cfg, e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder()))
	}
	assert.NotEqual(t, key("/api/products/a"), key("/api/products/b"))
	assert.NotEqual(t, key("/api/products/search?name=a"), key("/api/products/search?name=b"))
	assert.Equal(t, key("/api/products"), key("/api/products"))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"X-A": {"1", "2"}}
	bs, err := encodePayload(http.StatusTeapot, hdr, []byte("body"))
	require.NoError(t, err)
	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusTeapot, status)
	assert.Equal(t, hdr, got)
	assert.Equal(t, "body", string(body))

	_, _, _, ok = decodePayload(bs[:5])
	assert.False(t, ok)
}

func TestInvalidateCache(t *testing.T) {
	e := echo.New()
	cfg := cacheConfig()
	db, mock := redismock.NewClientMock()
	mock.ExpectScan(0, "cache:*", 100).SetVal([]string{"cache:1", "cache:2"}, 0)
	mock.ExpectDel("cache:1", "cache:2").SetVal(2)

	mw := InvalidateCache(cfg, db, discard())
	_, _, err := run(t, e, mw(ok), httptest.NewRequest(http.MethodPost, "/api/products", nil))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	// failed writes leave the cache alone
	failing := mw(func(echo.Context) error { return errors.New("boom") })
	_, _, err = run(t, e, failing, httptest.NewRequest(http.MethodPost, "/api/products", nil))
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
