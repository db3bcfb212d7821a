package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
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
	"github.com/sairaghavaa/sol-analytics/internal/handler"
	"github.com/sairaghavaa/sol-analytics/internal/ingest"
	"github.com/sairaghavaa/sol-analytics/internal/repository"
	"github.com/sairaghavaa/sol-analytics/internal/router"
	"github.com/sairaghavaa/sol-analytics/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	cfg := configs.AppLoad()

	db, err := gorm.Open(postgres.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	statRepo := repository.NewGormStatRepository(db)
	projectedRepo := repository.NewGormProjectedRepository(db)
	traderRepo := repository.NewGormTraderRepository(db)

	readCache := cache.New(time.Duration(cfg.Cache.TTLSeconds) * time.Second)

	statsService := service.NewStatsService(statRepo, readCache, logger)
	displayService := service.NewDisplayVolumeService(statRepo, projectedRepo, service.NewVolumePolicy(), readCache, logger)
	traderService := service.NewTraderService(traderRepo, readCache, logger)

	pipelineCfg := ingest.DefaultConfig()
	pipelineCfg.ChunkSize = cfg.Ingest.ChunkSize
	pipelineCfg.MaxInFlight = cfg.Ingest.MaxInFlight
	pipelineCfg.DeletePageSize = cfg.Ingest.DeletePageSize
	pipelineCfg.Retry.MaxAttempts = cfg.Ingest.MaxRetries
	pipeline := ingest.NewPipeline(traderRepo, pipelineCfg, logger)

	feedClient := feed.NewClient(cfg.Dune.BaseURL, cfg.Dune.APIKey, cfg.Dune.RequestsPerMinute, logger)
	syncService := service.NewSyncService(feedClient, statRepo, projectedRepo, pipeline, readCache, logger)

	routerConfig := &router.Config{
		StatsHandler:  handler.NewStatsHandler(statsService, displayService),
		TraderHandler: handler.NewTraderHandler(traderService),
		SyncHandler:   handler.NewSyncHandler(syncService),
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router.NewRouter(routerConfig),
	}

	// Run with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.WithField("port", cfg.ServerPort).Info("API server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server stopped with error")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
		os.Exit(1)
	}
	logger.Info("Server shutdown complete")
}
