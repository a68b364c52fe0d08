package main

import (
	"context"
	"flag"

	"github.com/google/uuid"
	"github.com/lintang-b-s/Segmentx/pkg/config"
	"github.com/lintang-b-s/Segmentx/pkg/engine"
	"github.com/lintang-b-s/Segmentx/pkg/http"
	"github.com/lintang-b-s/Segmentx/pkg/http/usecases"
	"github.com/lintang-b-s/Segmentx/pkg/logger"
	"github.com/lintang-b-s/Segmentx/pkg/metrics"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "", "config file, defaults to ./data/config.* or ./config.*")
)

func main() {
	flag.Parse()
	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(err)
	}
	logger, err := logger.NewWithConfig(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		FilePath:    cfg.Log.FilePath,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
		Compress:    cfg.Log.Compress,
	})
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	logger = logger.With(zap.String("instance_id", uuid.NewString()))

	collector := metrics.NewCollector()
	reportEngine, err := engine.NewEngineFromConfig(cfg, collector, logger)
	if err != nil {
		logger.Fatal("engine init failed", zap.Error(err))
	}
	reportService := usecases.NewReportService(logger, reportEngine)

	ctx, stop := http.GracefulShutdown(context.Background())
	defer stop()

	api := http.NewServer(logger)
	if err := api.Run(ctx, cfg.HTTP, reportService, collector.Handler()); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return
	}
	logger.Info("Segmentx report server stopped")
}
