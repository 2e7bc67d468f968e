package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/matija2209/home-energy-dashboard/internal/config"
	"github.com/matija2209/home-energy-dashboard/internal/mojelektro"
	"github.com/matija2209/home-energy-dashboard/internal/service"
)

func main() {
	listTypes := flag.Bool("list-reading-types", false, "print the reading types the API offers and exit")
	endDate := flag.String("end-date", "", "last day to ingest (YYYY-MM-DD, default today)")
	flag.Parse()

	if path := config.LoadDotEnv(); path != "" {
		fmt.Printf("Loaded environment from: %s\n", path)
	} else {
		fmt.Println("No .env file found, using system environment variables")
	}

	if *listTypes {
		if err := runListReadingTypes(); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	if err := runIngest(*endDate); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// runListReadingTypes prints the remote API's reading-type catalogue so the
// operator can pick a TARGET_READING_TYPE_CODE. Needs only the API key.
func runListReadingTypes() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	client, err := mojelektro.NewClient(cfg.MojElektro)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	types, err := client.GetReadingTypes(ctx)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(types, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// runIngest builds the fx application and performs one ingestion run.
// Only a configuration or startup error yields a non-zero exit; per-day
// failures are reported in the run summary and never abort the run.
func runIngest(endDate string) error {
	var endOverride time.Time
	if endDate != "" {
		parsed, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return fmt.Errorf("invalid -end-date: %w", err)
		}
		endOverride = parsed
	}

	app := fx.New(
		fx.Provide(
			config.Load,
			newLogger,
			ProvideDBPool,
			ProvideRepository,
			ProvideMojElektroClient,
			ProvidePublisher,
			ProvideIngestService,
		),
		fx.Invoke(func(cfg *config.Config) error {
			return cfg.ValidateIngest()
		}),
		fx.Invoke(func(
			lc fx.Lifecycle,
			shutdowner fx.Shutdowner,
			cfg *config.Config,
			logger *zap.Logger,
			svc *service.IngestService,
		) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					go func() {
						start, _ := time.Parse("2006-01-02", cfg.Ingest.StartDate)
						summary, err := svc.Run(context.Background(), service.IngestRequest{
							GSRN:            cfg.Ingest.TargetGSRN,
							ReadingTypeCode: cfg.Ingest.ReadingTypeCode,
							SeedUserEmail:   cfg.Ingest.SeedUserEmail,
							StartDate:       start,
							EndDate:         endOverride,
						})
						if err != nil {
							logger.Error("ingestion run aborted", zap.Error(err))
						} else {
							logger.Info("run summary",
								zap.Int("days", len(summary.Days)),
								zap.Int64("inserted", summary.Inserted),
								zap.Int("empty", summary.Empty),
								zap.Int("failed", summary.Failed),
							)
						}
						_ = shutdowner.Shutdown()
					}()
					return nil
				},
			})
		}),
	)

	if err := app.Err(); err != nil {
		return err
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	<-app.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	return app.Stop(stopCtx)
}
