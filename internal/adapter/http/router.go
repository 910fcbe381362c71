package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dtnguyen/shop-api/configs"
	"github.com/dtnguyen/shop-api/internal/adapter/http/middleware"
	domain "github.com/dtnguyen/shop-api/internal/entity"
	"github.com/dtnguyen/shop-api/internal/logging"
)

func NewRouter(cfg configs.Config, uh *UserHandler, ph *ProductHandler, oh *OrderHandler,
	auth *middleware.Auth, limiter middleware.Limiter) *gin.Engine {

	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())

	debug := !cfg.IsProd()
	r.Use(func(c *gin.Context) { c.Set(debugErrorsKey, debug) })

	logging.Init(cfg.App.Name, cfg.App.LogFile)
	l := logging.New("http")
	r.Use(middleware.Logging(l))

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "API", "version": "1.0.0"})
	})
	r.GET("/healthz", func(c *gin.Context) {
		logging.From(c).Info("health check")
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", middleware.RateLimit(limiter))

	users := api.Group("/users")
	{
		users.POST("/register", uh.Register)
		users.POST("/login", uh.Login)
		users.GET("/profile", auth.Authenticate(), uh.GetProfile)
		users.PUT("/profile", auth.Authenticate(), uh.UpdateProfile)
		users.GET("", auth.Authenticate(), middleware.RequireRoles(domain.RoleAdmin), uh.ListUsers)
		users.DELETE("/:id", auth.Authenticate(), middleware.RequireRoles(domain.RoleAdmin), uh.DeleteUser)
	}

	products := api.Group("/products")
	{
		products.GET("", ph.ListProducts)
		products.GET("/search", ph.SearchProducts)
		products.GET("/featured", ph.GetFeaturedProducts)
		products.GET("/:id", ph.GetProductByID)
		products.POST("", auth.Authenticate(), ph.CreateProduct)
		products.PUT("/:id", auth.Authenticate(), ph.UpdateProduct)
		products.DELETE("/:id", auth.Authenticate(), ph.DeleteProduct)
	}

	orders := api.Group("/orders", auth.Authenticate())
	{
		orders.POST("", oh.CreateOrder)
		orders.GET("/myorders", oh.GetMyOrders)
		orders.GET("/:id", oh.GetOrderByID)
		orders.PUT("/:id/pay", oh.PayOrder)
		orders.PUT("/:id/cancel", oh.CancelOrder)
	}

	return r
}
