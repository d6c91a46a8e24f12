package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/sergeigeyn/WB-Repricer/internal/collector"
	"github.com/sergeigeyn/WB-Repricer/internal/config"
	"github.com/sergeigeyn/WB-Repricer/internal/database"
	"github.com/sergeigeyn/WB-Repricer/internal/engine"
	"github.com/sergeigeyn/WB-Repricer/internal/logger"
	"github.com/sergeigeyn/WB-Repricer/internal/strategy"
	"github.com/sergeigeyn/WB-Repricer/internal/wb"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize database
	db, err := database.NewDatabase(&cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Pick the WB client implementation. Mock mode generates a stable catalog
	// so the repricer can run without a real seller key.
	clients := func(apiKey string) wb.Client {
		return wb.NewRestClient(&cfg.WB, apiKey, log)
	}
	if cfg.WB.MockMode {
		log.Warn("Mock mode enabled. No real WB API calls will be made.")
		mock := wb.NewMockClient()
		clients = func(string) wb.Client { return mock }
	}

	dataCollector := collector.NewCollector(db, clients, log)
	runner := strategy.NewRunner(db, strategy.DefaultRegistry(), log)

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	repricer := engine.NewEngine(log, &cfg, dataCollector, runner)
	repricer.Run(ctx)

	log.Info("Repricer has been shut down.")
}
