package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kingdave4/Nba-Data-Lake/internal/pipeline"
	"github.com/kingdave4/Nba-Data-Lake/pkg/catalog"
	"github.com/kingdave4/Nba-Data-Lake/pkg/config"
	"github.com/kingdave4/Nba-Data-Lake/pkg/logger"
	"github.com/kingdave4/Nba-Data-Lake/pkg/metrics"
	"github.com/kingdave4/Nba-Data-Lake/pkg/query"
	"github.com/kingdave4/Nba-Data-Lake/pkg/sink"
	"github.com/kingdave4/Nba-Data-Lake/pkg/sportsdata"
	"github.com/kingdave4/Nba-Data-Lake/pkg/storage"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load environment and config
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	l, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer l.Sync()

	l.Info("datalake pipeline initializing",
		zap.String("env", cfg.Environment),
		zap.String("bucket", cfg.Storage.Bucket),
		zap.String("region", cfg.AWS.Region))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Initialize AWS clients
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		l.Error("failed to load aws config", err)
		os.Exit(1)
	}

	// 4. Initialize components
	fetcher := sportsdata.NewClient(cfg.API.Endpoint, cfg.API.Key, cfg.API.Timeout, l)
	store := storage.NewS3Store(s3.NewFromConfig(awsCfg), cfg.AWS.Region, cfg.Storage.WaitTimeout, l)
	cat := catalog.NewGlueCatalog(glue.NewFromConfig(awsCfg), l)
	engine := query.NewAthenaEngine(athena.NewFromConfig(awsCfg), cfg.Athena.OutputLocation, cfg.Athena.PollInterval, cfg.Athena.Timeout, l)
	events := sink.NewCloudWatch(cloudwatchlogs.NewFromConfig(awsCfg), cfg.Logs.Group, cfg.Logs.Stream, l)

	// 5. Create service
	svc := pipeline.NewService(l, pipeline.Config{
		Bucket:          cfg.Storage.Bucket,
		ObjectKey:       cfg.ObjectKey(),
		TableLocation:   cfg.TableLocation(),
		CatalogDatabase: cfg.Catalog.Database,
		CatalogTable:    cfg.Catalog.Table,
		QueryDatabase:   cfg.Athena.Database,
		FetchAttempts:   cfg.API.MaxAttempts,
	}, fetcher, store, cat, engine, events)

	// 6. Run pipeline
	l.Info("datalake pipeline starting")
	runErr := svc.Run(ctx)
	switch {
	case runErr == nil:
		l.Info("datalake pipeline finished")
	case errors.Is(runErr, context.Canceled):
		l.Info("datalake pipeline interrupted")
	default:
		l.Error("datalake pipeline failed", runErr)
	}

	// 7. Push metrics
	pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metrics.NewPusher(cfg.Metrics.PushgatewayURL, cfg.ServiceName, l).Push(pushCtx); err != nil {
		l.Warn("failed to push metrics", zap.Error(err))
	}

	if runErr != nil {
		l.Sync()
		os.Exit(1)
	}
}
