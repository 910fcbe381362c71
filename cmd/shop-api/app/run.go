package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/dtnguyen/shop-api/configs"
	"github.com/dtnguyen/shop-api/internal/adapter/cache"
	apihttp "github.com/dtnguyen/shop-api/internal/adapter/http"
	"github.com/dtnguyen/shop-api/internal/adapter/http/middleware"
	"github.com/dtnguyen/shop-api/internal/adapter/repo"
	"github.com/dtnguyen/shop-api/internal/logging"
	"github.com/dtnguyen/shop-api/internal/security"
	"github.com/dtnguyen/shop-api/internal/usecase"
)

type App struct {
	Router *gin.Engine
	cfg    configs.Config
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	logging.Init(cfg.App.Name, cfg.App.LogFile)

	// init database
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, nil, err
	}

	logging.FromCtx(ctx).Info("shop-api: starting up")

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, nil, err
	}

	// infra
	productRepo := repo.NewMySQLProductRepo(db)
	orderRepo := repo.NewMySQLOrderRepo(db)
	userRepo := repo.NewMySQLUserRepo(db)
	idem := cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)

	var limiter middleware.Limiter
	if cfg.RateLimit.Max > 0 {
		limiter = cache.NewRedisRateLimiter(rdb, cfg.RateLimit.Window, cfg.RateLimit.Max)
	}

	tokens := security.NewTokenService(
		cfg.Security.JWTSecret, cfg.Security.Issuer, cfg.Security.Audience, cfg.Security.TokenTTL)

	// use cases
	identityUC := usecase.NewIdentity(userRepo, tokens)
	catalogUC := usecase.NewCatalog(productRepo)
	ordersUC := usecase.NewOrders(productRepo, orderRepo, idem, cfg.Payments.RestrictToOwner)

	// handlers + router + middleware
	uh := apihttp.NewUserHandler(identityUC)
	ph := apihttp.NewProductHandler(catalogUC)
	oh := apihttp.NewOrderHandler(ordersUC)
	auth := middleware.NewAuth(identityUC)
	router := apihttp.NewRouter(cfg, uh, ph, oh, auth, limiter)

	cleanup := func() {
		_ = db.Close()
		_ = rdb.Close()
	}

	return &App{Router: router, cfg: cfg}, cleanup, nil
}

// Run serves HTTP with the configured timeouts.
func (a *App) Run() error {
	srv := &http.Server{
		Addr:         a.cfg.App.HTTPAddr,
		Handler:      a.Router,
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
		IdleTimeout:  a.cfg.HTTP.IdleTimeout,
	}
	return srv.ListenAndServe()
}
