package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/storefront-backend/internal/config"
	"github.com/iliyamo/storefront-backend/internal/database"
	"github.com/iliyamo/storefront-backend/internal/handler"
	"github.com/iliyamo/storefront-backend/internal/queue"
	"github.com/iliyamo/storefront-backend/internal/repository"
	"github.com/iliyamo/storefront-backend/internal/repository/memory"
	"github.com/iliyamo/storefront-backend/internal/router"
	"github.com/iliyamo/storefront-backend/internal/service"
	"github.com/iliyamo/storefront-backend/internal/utils"
)

type stores struct {
	accounts service.AccountStore
	products service.ProductStore
	orders   service.OrderStore
	db       *sql.DB
}

func openStores(ctx context.Context, cfg config.Config, log *logrus.Logger) stores {
	if cfg.StoreDriver == "memory" {
		log.Warn("using in-memory store; data is lost on exit")
		return stores{accounts: memory.NewAccounts(), products: memory.NewProducts(), orders: memory.NewOrders()}
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("database unreachable")
	}
	if err := database.Migrate(ctx, db); err != nil {
		log.WithError(err).Fatal("schema migration failed")
	}
	return stores{
		accounts: repository.NewAccountRepo(db),
		products: repository.NewProductRepo(db),
		orders:   repository.NewOrderRepo(db),
		db:       db,
	}
}

func main() {
	cfg := config.Load()
	log := config.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := openStores(ctx, cfg, log)
	if st.db != nil {
		defer st.db.Close()
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}

	var events service.EventPublisher = queue.NopPublisher{}
	if cfg.EventsEnabled {
		pub := queue.NewPublisher(cfg.RabbitURL, log.WithField("component", "order-publisher"))
		defer pub.Close()
		events = pub

		consumer := &queue.Consumer{URL: cfg.RabbitURL, LogPath: cfg.OrderLogPath, Log: log.WithField("component", "order-consumer")}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("order consumer stopped")
			}
		}()
	}

	signer := utils.NewJWTSigner(cfg.JWTSecret, cfg.TokenLifetime())
	accounts := service.NewAccountService(st.accounts, utils.NewBcryptHasher(cfg.BcryptCost), signer, log)
	orders := service.NewOrderService(st.products, st.orders, events, log)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := accounts.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.WithError(err).Fatal("admin bootstrap failed")
		}
		if created {
			log.WithField("email", cfg.AdminEmail).Info("bootstrap admin created")
		}
	}

	deps := router.Deps{
		Auth:    handler.NewAuthHandler(accounts),
		Account: handler.NewAccountHandler(accounts),
		Product: handler.NewProductHandler(service.NewCatalogService(st.products, log)),
		Order:   handler.NewOrderHandler(orders),
		Admin:   handler.NewAdminHandler(accounts, orders, service.NewReportService(st.accounts, st.products)),
		Gate:    service.NewGate(signer, st.accounts),
		Redis:   rdb,

		RateLimit:  config.LoadRateLimitConfig(),
		Cache:      config.LoadCacheConfig(),
		Log:        log,
		Production: cfg.Production(),
	}
	if st.db != nil {
		deps.DB = st.db
	}
	e := router.New(deps)

	go func() {
		addr := ":" + cfg.Port
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "store": cfg.StoreDriver}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
