package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/sairaghavaa/sol-analytics/configs"
	"github.com/sairaghavaa/sol-analytics/internal/cache"
	"github.com/sairaghavaa/sol-analytics/internal/feed"
	"github.com/sairaghavaa/sol-analytics/internal/ingest"
	"github.com/sairaghavaa/sol-analytics/internal/model"
	"github.com/sairaghavaa/sol-analytics/internal/repository"
	"github.com/sairaghavaa/sol-analytics/internal/service"
)

func main() {
	protocol := flag.String("protocol", "", "Protocol to resync (required)")
	scopeFlag := flag.String("scope", "", "Data scope (defaults to the protocol chain's default)")
	traders := flag.Bool("traders", false, "Resync trader rows instead of daily metrics")
	flag.Parse()

	logger := logrus.New()
	cfg := configs.AppLoad()

	if *protocol == "" {
		logger.Fatal("-protocol is required")
	}
	if err := cfg.RequireDuneKey(); err != nil {
		logger.WithError(err).Fatal("Missing configuration")
	}

	entry, ok := model.LookupProtocol(*protocol)
	if !ok {
		logger.WithField("protocol", *protocol).Fatal("Protocol not in registry")
	}

	scope := model.DefaultScope(entry.PrimaryChain())
	if *scopeFlag != "" {
		parsed, err := model.ParseScope(*scopeFlag)
		if err != nil {
			logger.WithError(err).Fatal("Invalid scope")
		}
		scope = parsed
	}

	db, err := gorm.Open(postgres.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	statRepo := repository.NewGormStatRepository(db)
	projectedRepo := repository.NewGormProjectedRepository(db)
	traderRepo := repository.NewGormTraderRepository(db)
	readCache := cache.New(time.Duration(cfg.Cache.TTLSeconds) * time.Second)

	pipelineCfg := ingest.DefaultConfig()
	pipelineCfg.ChunkSize = cfg.Ingest.ChunkSize
	pipelineCfg.MaxInFlight = cfg.Ingest.MaxInFlight
	pipelineCfg.DeletePageSize = cfg.Ingest.DeletePageSize
	pipelineCfg.Retry.MaxAttempts = cfg.Ingest.MaxRetries
	pipeline := ingest.NewPipeline(traderRepo, pipelineCfg, logger)

	feedClient := feed.NewClient(cfg.Dune.BaseURL, cfg.Dune.APIKey, cfg.Dune.RequestsPerMinute, logger)
	syncService := service.NewSyncService(feedClient, statRepo, projectedRepo, pipeline, readCache, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *traders {
		report, err := syncService.ResyncTraders(ctx, *protocol)
		if err != nil {
			logger.WithError(err).WithField("state", report.State).Fatal("Trader resync failed")
		}
		logger.WithFields(logrus.Fields{
			"deleted":  report.RowsDeleted,
			"inserted": report.RowsInserted,
			"elapsed":  report.Elapsed,
			"rows_sec": report.RowsPerSecond,
		}).Info("Trader resync complete")
		return
	}

	report, err := syncService.ResyncProtocol(ctx, *protocol, scope)
	if err != nil {
		logger.WithError(err).Fatal("Resync failed")
	}
	logger.WithFields(logrus.Fields{
		"inserted":       report.RowsInserted,
		"deleted":        report.RowsDeleted,
		"queries_failed": report.QueriesFailed,
		"elapsed":        report.Elapsed,
	}).Info("Resync complete")
}
