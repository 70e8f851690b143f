package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"gorm.io/gorm"

	"github.com/ericoliveiras/shopeasy/internal/auth"
	"github.com/ericoliveiras/shopeasy/internal/config"
	"github.com/ericoliveiras/shopeasy/internal/events"
	"github.com/ericoliveiras/shopeasy/internal/logging"
	"github.com/ericoliveiras/shopeasy/internal/metrics"
	"github.com/ericoliveiras/shopeasy/internal/model"
	"github.com/ericoliveiras/shopeasy/internal/service"
)

// Deps reúne o que o roteador precisa. Publisher e Limiter podem ser nil.
type Deps struct {
	Config    config.Config
	DB        *gorm.DB
	Log       *slog.Logger
	Metrics   *metrics.ServerMetrics
	Publisher events.Publisher
	Limiter   RateCounter
}

// NewSessionStore cria o cookie store usado como alternativa ao Bearer token.
func NewSessionStore(secret string) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

func NewRouter(d Deps) *gin.Engine {
	if d.Metrics == nil {
		d.Metrics = metrics.NewServerMetrics()
	}
	cfg := d.Config

	users := service.NewUserService(d.DB, d.Log)
	catalog := service.NewCatalogService(d.DB, d.Log)
	carts := service.NewCartService(d.DB, d.Log)
	orders := service.NewOrderService(d.DB, d.Log, d.Publisher, d.Metrics)

	authHandler := &AuthHandler{
		Users:  users,
		Tokens: auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		Store:  NewSessionStore(cfg.SessionSecret),
		Log:    d.Log,
	}
	productHandler := &ProductHandler{Catalog: catalog, UploadDir: cfg.UploadDir, Log: d.Log}
	cartHandler := &CartHandler{Carts: carts}
	orderHandler := &OrderHandler{Orders: orders}
	healthHandler := &HealthHandler{DB: d.DB}

	router := gin.New()
	router.Use(gin.Recovery(), logging.Middleware(d.Log), d.Metrics.Middleware())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rota não encontrada."})
	})

	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	router.Static("/"+UploadPrefix, cfg.UploadDir)

	api := router.Group("/api/v1")
	{
		limited := RateLimiter(d.Limiter, cfg.RateLimitPerMinute, "auth", d.Log)
		api.POST("/register", limited, authHandler.Register)
		api.POST("/token", limited, authHandler.Token)
		api.POST("/token/refresh", authHandler.Refresh)
		api.POST("/logout", authHandler.Logout)

		api.GET("/products", productHandler.ListProducts)
		api.GET("/products/:id", productHandler.GetProduct)
	}

	private := api.Group("")
	private.Use(authHandler.AuthRequired())
	{
		private.GET("/me", authHandler.Me)
		private.PUT("/me", authHandler.UpdateMe)
		private.POST("/change-password", authHandler.ChangePassword)

		private.GET("/carts/me", cartHandler.GetCart)
		private.PUT("/carts/me", cartHandler.ReplaceItems)
		private.DELETE("/carts/me", cartHandler.ClearCart)
		private.POST("/carts/items", cartHandler.AddItem)
		private.DELETE("/carts/items", cartHandler.RemoveItem)

		private.GET("/orders", orderHandler.ListOrders)
		private.POST("/orders", orderHandler.CreateOrder)
		private.GET("/orders/:id", orderHandler.GetOrder)
		private.DELETE("/orders/:id", orderHandler.DeleteOrder)
		private.POST("/orders/:id/pay", orderHandler.PayOrder)
	}

	admin := private.Group("")
	admin.Use(authHandler.RoleRequired(model.RoleAdmin))
	{
		admin.POST("/products", productHandler.CreateProduct)
		admin.PUT("/products/:id", productHandler.UpdateProduct)
		admin.DELETE("/products/:id", productHandler.DeleteProduct)

		admin.GET("/admin/products/export", productHandler.ExportProducts)
		admin.GET("/admin/products/:id/history", productHandler.ProductHistory)
		admin.GET("/admin/orders", orderHandler.AdminListOrders)
		admin.GET("/admin/orders/:id", orderHandler.AdminGetOrder)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
