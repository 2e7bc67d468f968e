package main

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/matija2209/home-energy-dashboard/internal/config"
	"github.com/matija2209/home-energy-dashboard/internal/db"
	"github.com/matija2209/home-energy-dashboard/internal/logging"
	"github.com/matija2209/home-energy-dashboard/internal/mojelektro"
	"github.com/matija2209/home-energy-dashboard/internal/mq"
	"github.com/matija2209/home-energy-dashboard/internal/repository"
	"github.com/matija2209/home-energy-dashboard/internal/service"
)

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

// ProvideMojElektroClient creates the remote reading source client
func ProvideMojElektroClient(cfg *config.Config) (*mojelektro.Client, error) {
	return mojelektro.NewClient(cfg.MojElektro)
}

// ProvidePublisher creates the optional ingest-event publisher. Returns nil
// when no broker is configured; ingestion then runs without eventing.
func ProvidePublisher(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*mq.Publisher, error) {
	if cfg.RabbitMQ.URL == "" {
		logger.Info("RABBITMQ_URL not set, ingest events disabled")
		return nil, nil
	}
	return mq.NewPublisher(lc, logger, cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey)
}

// ProvideIngestService creates the ingestion service
func ProvideIngestService(
	client *mojelektro.Client,
	repo *repository.Repository,
	publisher *mq.Publisher,
	cfg *config.Config,
	logger *zap.Logger,
) *service.IngestService {
	var events service.EventPublisher
	if publisher != nil {
		events = publisher
	}
	return service.NewIngestService(client, repo, events, cfg.Ingest.FetchDelay, logger)
}
