package app

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/nekogravitycat/shareit-backend/internal/api"
	"github.com/nekogravitycat/shareit-backend/internal/booking"
	"github.com/nekogravitycat/shareit-backend/internal/events"
	"github.com/nekogravitycat/shareit-backend/internal/item"
	"github.com/nekogravitycat/shareit-backend/internal/itemrequest"
	"github.com/nekogravitycat/shareit-backend/internal/pkg/clock"
	"github.com/nekogravitycat/shareit-backend/internal/pkg/idempotency"
	"github.com/nekogravitycat/shareit-backend/internal/pkg/storage"
	"github.com/nekogravitycat/shareit-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	Logger       *zap.Logger
	Clock        clock.Clock
	Publisher    events.Publisher
	// Idempotency may be nil, which disables idempotent booking creation.
	Idempotency    idempotency.Store
	IdempotencyTTL time.Duration
	Storage        storage.Storage
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router         *gin.Engine
	BookingService booking.Service
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	pub := cfg.Publisher
	if pub == nil {
		pub = events.NopPublisher{}
	}

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo)

	// Booking Module
	itemRepo := item.NewPgxRepository(cfg.DBPool)
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo, userService, itemCatalog{repo: itemRepo}, clk, pub, cfg.Logger)

	// Item Request Module
	requestRepo := itemrequest.NewPgxRepository(cfg.DBPool)
	requestService := itemrequest.NewService(requestRepo, userService, itemRepo)

	// Item Module
	itemService := item.NewService(itemRepo, userService, requestRepo, bookingService, cfg.Storage, cfg.Logger)

	router := api.NewRouter(api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		Logger:         cfg.Logger,
		HealthCheck:    cfg.DBPool.Ping,
		UserService:    userService,
		ItemService:    itemService,
		RequestService: requestService,
		BookingService: bookingService,
		Idempotency:    cfg.Idempotency,
		IdempotencyTTL: cfg.IdempotencyTTL,
	})

	return &Container{
		Router:         router,
		BookingService: bookingService,
	}
}

// itemCatalog exposes the item store to the booking engine.
type itemCatalog struct {
	repo item.Repository
}

func (c itemCatalog) Lookup(ctx context.Context, id string) (booking.ItemRef, bool, error) {
	it, err := c.repo.GetByID(ctx, id)
	if errors.Is(err, item.ErrNotFound) {
		return booking.ItemRef{}, false, nil
	}
	if err != nil {
		return booking.ItemRef{}, false, err
	}
	return it.Ref(), true, nil
}
