package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"

	"crudusers/internal/config"
	"crudusers/internal/handlers"
	"crudusers/internal/logger"
	"crudusers/internal/middleware"
	"crudusers/internal/repositories"
	"crudusers/internal/services"
	"crudusers/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	repo, err := NewUserRepository(connectCtx, cfg)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to initialize user store")
	}

	app := NewApp(cfg, repo, log)

	log.Info().Str("addr", cfg.AppPort).Str("driver", cfg.StoreDriver).Msg("starting server")

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-quit
	log.Info().Msg("shutting down server")

	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("error during Fiber shutdown")
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := repo.Close(closeCtx); err != nil {
		log.Error().Err(err).Msg("error closing user store")
	}
	log.Info().Msg("server gracefully stopped")
}

// NewUserRepository opens the store selected by cfg.StoreDriver.
func NewUserRepository(ctx context.Context, cfg *config.Config) (repositories.UserRepository, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		repo, err := repositories.NewMongoUserRepository(ctx, repositories.MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.DriverPostgres, config.DriverSQLite:
		dsn := cfg.DatabaseDSN
		if cfg.StoreDriver == config.DriverSQLite {
			dsn = cfg.SQLitePath
		}
		db, err := repositories.OpenGORM(cfg.StoreDriver, dsn)
		if err != nil {
			return nil, err
		}
		repo, err := repositories.NewGORMUserRepository(db)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.DriverMemory:
		return repositories.NewMemoryUserRepository(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// NewApp wires services, handlers and middleware around repo.
func NewApp(cfg *config.Config, repo repositories.UserRepository, log zerolog.Logger) *fiber.App {
	userService := services.NewUserService(repo, cfg.BcryptCost)
	userHandler := handlers.NewUserHandler(userService, log, cfg.StoreTimeout)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(middleware.Metrics())

	apiV1 := app.Group("/api/v1")
	userHandler.RegisterRoutes(apiV1)

	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), cfg.StoreTimeout)
		defer cancel()

		if err := userService.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unhealthy",
				"store":  cfg.StoreDriver,
				"error":  err.Error(),
			})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"store":  cfg.StoreDriver,
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	return app
}
