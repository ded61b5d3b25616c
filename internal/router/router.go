package router

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/storefront-backend/internal/config"
	"github.com/iliyamo/storefront-backend/internal/handler"
	"github.com/iliyamo/storefront-backend/internal/middleware"
	"github.com/iliyamo/storefront-backend/internal/model"
)

// Deps is everything the HTTP surface needs.  Redis may be nil, in which
// case rate limiting and response caching are off.
type Deps struct {
	Auth    *handler.AuthHandler
	Account *handler.AccountHandler
	Product *handler.ProductHandler
	Order   *handler.OrderHandler
	Admin   *handler.AdminHandler

	Gate  middleware.Authenticator
	DB    handler.Pinger
	Redis *redis.Client

	RateLimit  config.RateLimitConfig
	Cache      config.CacheConfig
	Log        logrus.FieldLogger
	Production bool
}

// Route is one entry of the API table.  A route with no Roles is public;
// otherwise the caller must be authenticated and hold one of Roles.
type Route struct {
	Method  string
	Path    string
	Roles   []model.Role
	Handler echo.HandlerFunc

	// Cached responses are served from Redis; Invalidates purges them
	// after a successful call.
	Cached      bool
	Invalidates bool
}

var (
	anyone      = []model.Role{model.RoleUser, model.RoleSeller, model.RoleAdmin}
	users       = []model.Role{model.RoleUser}
	merchandise = []model.Role{model.RoleSeller, model.RoleAdmin}
	admins      = []model.Role{model.RoleAdmin}
)

// Routes is the full /api table.
func Routes(d Deps) []Route {
	return []Route{
		{Method: http.MethodPost, Path: "/api/user/register", Handler: d.Auth.Register(model.RoleUser)},
		{Method: http.MethodPost, Path: "/api/seller/register", Handler: d.Auth.Register(model.RoleSeller)},
		{Method: http.MethodPost, Path: "/api/user/login", Handler: d.Auth.Login(model.RoleUser)},
		{Method: http.MethodPost, Path: "/api/seller/login", Handler: d.Auth.Login(model.RoleSeller)},
		{Method: http.MethodPost, Path: "/api/admin/login", Handler: d.Auth.Login(model.RoleAdmin)},

		{Method: http.MethodGet, Path: "/api/products", Handler: d.Product.List, Cached: true},
		{Method: http.MethodGet, Path: "/api/products/search", Handler: d.Product.Search, Cached: true},
		{Method: http.MethodGet, Path: "/api/products/:id", Handler: d.Product.Get, Cached: true},
		{Method: http.MethodPost, Path: "/api/products", Roles: merchandise, Handler: d.Product.Create, Invalidates: true},
		{Method: http.MethodPut, Path: "/api/products/:id", Roles: merchandise, Handler: d.Product.Update, Invalidates: true},
		{Method: http.MethodDelete, Path: "/api/products/:id", Roles: admins, Handler: d.Product.Delete, Invalidates: true},

		{Method: http.MethodGet, Path: "/api/account/me", Roles: anyone, Handler: d.Account.Me},
		{Method: http.MethodPut, Path: "/api/account/profile", Roles: anyone, Handler: d.Account.UpdateProfile},
		{Method: http.MethodPut, Path: "/api/account/password", Roles: anyone, Handler: d.Account.ChangePassword},

		{Method: http.MethodPost, Path: "/api/user/buy", Roles: users, Handler: d.Order.Buy, Invalidates: true},
		{Method: http.MethodGet, Path: "/api/user/orders", Roles: users, Handler: d.Order.List},
		{Method: http.MethodGet, Path: "/api/user/orders/:id", Roles: users, Handler: d.Order.Get},
		{Method: http.MethodPost, Path: "/api/user/orders/:id/cancel", Roles: users, Handler: d.Order.Cancel, Invalidates: true},

		{Method: http.MethodGet, Path: "/api/admin/dashboard", Roles: admins, Handler: d.Admin.Dashboard},
		{Method: http.MethodGet, Path: "/api/admin/accounts", Roles: admins, Handler: d.Admin.ListAccounts},
		{Method: http.MethodPost, Path: "/api/admin/accounts", Roles: admins, Handler: d.Admin.CreateAccount},
		{Method: http.MethodPut, Path: "/api/admin/accounts/:id/role", Roles: admins, Handler: d.Admin.SetRole},
		{Method: http.MethodDelete, Path: "/api/admin/accounts/:id", Roles: admins, Handler: d.Admin.DeleteAccount},
		{Method: http.MethodGet, Path: "/api/admin/orders", Roles: admins, Handler: d.Admin.ListOrders},
		{Method: http.MethodPut, Path: "/api/admin/orders/:id/status", Roles: admins, Handler: d.Admin.SetOrderStatus},
	}
}

// Register mounts /healthz and the route table on e.  Protected routes
// run Authenticate, then the rate limiter, then the role check.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health(d.DB))

	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)
	cache := middleware.NewRedisCache(d.Cache, d.Redis)
	purge := middleware.InvalidateCache(d.Cache, d.Redis, d.Log)
	authenticate := middleware.Authenticate(d.Gate)

	for _, r := range Routes(d) {
		var mws []echo.MiddlewareFunc
		if len(r.Roles) > 0 {
			mws = append(mws, authenticate, limit, middleware.RequireRole(r.Roles...))
		} else {
			mws = append(mws, limit)
		}
		if r.Cached {
			mws = append(mws, cache)
		}
		if r.Invalidates {
			mws = append(mws, purge)
		}
		e.Add(r.Method, r.Path, r.Handler, mws...)
	}
}

// New builds the echo instance with the process-wide middleware and
// error handler, and registers every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(d.Log, d.Production)

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			d.Log.WithError(err).WithField("stack", strings.TrimSpace(string(stack))).Error("panic recovered")
			return err
		},
	}))
	e.Use(echomw.BodyLimit("1M"))

	Register(e, d)
	return e
}
