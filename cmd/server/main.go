package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/matija2209/home-energy-dashboard/internal/api"
	"github.com/matija2209/home-energy-dashboard/internal/config"
	"github.com/matija2209/home-energy-dashboard/internal/db"
	"github.com/matija2209/home-energy-dashboard/internal/logging"
	"github.com/matija2209/home-energy-dashboard/internal/repository"
	"github.com/matija2209/home-energy-dashboard/internal/service"
)

func main() {
	if path := config.LoadDotEnv(); path != "" {
		fmt.Printf("Loaded environment from: %s\n", path)
	} else {
		fmt.Println("No .env file found, using system environment variables")
	}

	app := fx.New(
		fx.Provide(
			config.Load,
			newLogger,
			ProvideDBPool,
			ProvideRepository,
			ProvideQueryService,
			newFiberApp,
		),
		fx.Invoke(startServer),
	)

	app.Run()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.NewLogger(cfg.ServiceName)
}

// ProvideDBPool creates the database pool
func ProvideDBPool(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*db.Pool, error) {
	return db.NewPool(lc, logger, cfg.Database.URL)
}

// ProvideRepository creates the reading store repository
func ProvideRepository(pool *db.Pool) *repository.Repository {
	return repository.NewRepository(pool)
}

// ProvideQueryService creates the query façade
func ProvideQueryService(repo *repository.Repository, logger *zap.Logger) *service.QueryService {
	return service.NewQueryService(repo, logger)
}

func newFiberApp(cfg *config.Config) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               cfg.ServiceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Config,
	logger *zap.Logger,
	fiberApp *fiber.App,
	svc *service.QueryService,
) {
	fiberApp.Use(fiberlogger.New())
	fiberApp.Use(recover.New())

	api.RegisterRoutes(fiberApp, svc)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			addr := fmt.Sprintf(":%d", cfg.ServicePort)
			logger.Info("starting read API server", zap.String("addr", addr))
			go func() {
				if err := fiberApp.Listen(addr); err != nil {
					logger.Error("fiber server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := fiberApp.ShutdownWithContext(ctx); err != nil {
				logger.Error("error during server shutdown", zap.Error(err))
				return err
			}
			logger.Info("server stopped gracefully")
			return nil
		},
	})
}
