package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/shareit-backend/internal/auth"
	"github.com/nekogravitycat/shareit-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/shareit-backend/internal/booking/http"
	"github.com/nekogravitycat/shareit-backend/internal/item"
	itemHttp "github.com/nekogravitycat/shareit-backend/internal/item/http"
	"github.com/nekogravitycat/shareit-backend/internal/itemrequest"
	itemRequestHttp "github.com/nekogravitycat/shareit-backend/internal/itemrequest/http"
	"github.com/nekogravitycat/shareit-backend/internal/pkg/idempotency"
	"github.com/nekogravitycat/shareit-backend/internal/user"
	userHttp "github.com/nekogravitycat/shareit-backend/internal/user/http"
)

// Config holds everything the router needs to wire handlers.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Logger       *zap.Logger
	// HealthCheck backs GET /healthz. Nil reports healthy.
	HealthCheck func(ctx context.Context) error

	UserService    user.Service
	ItemService    item.Service
	RequestService itemrequest.Service
	BookingService booking.Service

	Idempotency    idempotency.Store
	IdempotencyTTL time.Duration
}

// NewRouter initializes the HTTP router engine.
// It assembles middleware (CORS, logging, caller identity) and registers routes for every module.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global Middleware:
	// - RequestLogger: structured access log via zap.
	// - Recovery: returns 500 on panic.
	r.Use(RequestLogger(cfg.Logger), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{
		"http://localhost:8081", // Swagger
	}
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		config.AllowOrigins = splitOrigins(cfg.ProdOrigins)
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", auth.UserHeader, bookingHttp.IdempotencyHeader}
	r.Use(cors.New(config))

	r.GET("/healthz", func(c *gin.Context) {
		if cfg.HealthCheck != nil {
			if err := cfg.HealthCheck(c.Request.Context()); err != nil {
				_ = c.Error(err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// userMiddleware: resolves the caller from the X-Sharer-User-Id header.
	userMiddleware := auth.UserIDRequired()

	userHandler := userHttp.NewHandler(cfg.UserService)
	itemHandler := itemHttp.NewHandler(cfg.ItemService, cfg.Logger)
	requestHandler := itemRequestHttp.NewHandler(cfg.RequestService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService, cfg.Idempotency, cfg.IdempotencyTTL, cfg.Logger)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler)
		itemHttp.RegisterRoutes(v1, itemHandler, userMiddleware)
		itemRequestHttp.RegisterRoutes(v1, requestHandler, userMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, userMiddleware)
	}

	return r
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
