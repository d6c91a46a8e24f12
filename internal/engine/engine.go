// Package engine drives the periodic collect-then-reprice cycle.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sergeigeyn/WB-Repricer/internal/collector"
	"github.com/sergeigeyn/WB-Repricer/internal/config"
	"github.com/sergeigeyn/WB-Repricer/internal/strategy"
)

// Engine ties the collector and the strategy runner together on a timer.
type Engine struct {
	logger    *zap.Logger
	cfg       *config.Config
	collector *collector.Collector
	runner    *strategy.Runner
}

// NewEngine creates a new repricing engine.
func NewEngine(logger *zap.Logger, cfg *config.Config, collector *collector.Collector, runner *strategy.Runner) *Engine {
	return &Engine{
		logger:    logger,
		cfg:       cfg,
		collector: collector,
		runner:    runner,
	}
}

// Run starts the engine's main loop and blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	interval := time.Duration(e.cfg.Repricer.TickInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info("Starting repricing loop", zap.Duration("interval", interval))

	if e.cfg.Repricer.RunOnStart {
		e.tick(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Stopping repricing engine...")
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

// tick runs one collect-then-reprice cycle. Collection failures for single
// accounts are already isolated inside the collector; a total failure skips
// repricing so strategies never run on an empty database.
func (e *Engine) tick(ctx context.Context) {
	e.logger.Info("Starting collection cycle...")
	summary, err := e.collector.CollectAll(ctx)
	if err != nil {
		e.logger.Error("Collection cycle failed", zap.Error(err))
		return
	}
	if summary.Accounts > 0 && len(summary.Errors) == summary.Accounts {
		e.logger.Error("Collection failed for every account, skipping strategy run")
		return
	}

	result := e.runner.RunAllActive("schedule")
	e.logger.Info("Repricing cycle complete",
		zap.String("batch_id", result.BatchID),
		zap.Int("strategies_run", result.StrategiesRun),
		zap.Int("recommendations", result.TotalRecommendations),
		zap.Int("errors", len(result.Errors)),
	)
}
