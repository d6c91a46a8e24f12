package strategy

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sergeigeyn/WB-Repricer/internal/models"
)

// Caller input errors. These are reported synchronously and, for the
// not-found/inactive cases, before any execution record exists.
var (
	ErrStrategyNotFound = errors.New("strategy not found")
	ErrStrategyInactive = errors.New("strategy is inactive")
	ErrNoHandler        = errors.New("no handler registered for strategy type")
)

// Runner executes strategies: it resolves the handler, loads assignments,
// persists recommendations and writes the execution audit record. Handlers
// never touch the database for writes; all persistence lives here.
type Runner struct {
	db       *gorm.DB
	registry *Registry
	logger   *zap.Logger
}

// NewRunner creates a strategy runner.
func NewRunner(db *gorm.DB, registry *Registry, logger *zap.Logger) *Runner {
	return &Runner{db: db, registry: registry, logger: logger}
}

type executionSummary struct {
	TotalProducts   int            `json:"total_products"`
	Recommendations int            `json:"recommendations"`
	AlertLevels     map[string]int `json:"alert_levels"`
}

// BatchResult summarizes one RunAllActive invocation. StrategiesRun counts
// only strategies that completed; a strategy that failed for any reason is
// reported in Errors instead.
type BatchResult struct {
	BatchID              string
	StrategiesRun        int
	TotalRecommendations int
	Errors               []string
}

// RunStrategy runs a single strategy and returns its execution record.
// Unknown or inactive strategy ids are caller errors returned before an
// execution record is created. Handler failures are recorded on the
// execution (status failed) and do not surface as an error here.
func (r *Runner) RunStrategy(strategyID uint, triggeredBy string) (*models.StrategyExecution, error) {
	return r.runStrategy(strategyID, triggeredBy, "")
}

func (r *Runner) runStrategy(strategyID uint, triggeredBy, batchID string) (*models.StrategyExecution, error) {
	var strat models.Strategy
	err := r.db.First(&strat, strategyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("strategy %d: %w", strategyID, ErrStrategyNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load strategy %d: %w", strategyID, err)
	}
	if !strat.IsActive {
		return nil, fmt.Errorf("strategy %d: %w", strategyID, ErrStrategyInactive)
	}

	execution := &models.StrategyExecution{
		StrategyID:  strat.ID,
		BatchID:     batchID,
		Status:      models.ExecutionRunning,
		TriggeredBy: triggeredBy,
		ExecutedAt:  time.Now().UTC(),
	}
	if err := r.db.Create(execution).Error; err != nil {
		return nil, fmt.Errorf("create execution record: %w", err)
	}

	handler, ok := r.registry.Handler(strat.Type)
	if !ok {
		r.failExecution(execution, fmt.Sprintf("no handler for type %q", strat.Type))
		return execution, fmt.Errorf("strategy %d, type %q: %w", strat.ID, strat.Type, ErrNoHandler)
	}

	var productIDs []uint
	err = r.db.Model(&models.ProductStrategy{}).
		Where("strategy_id = ? AND is_active = ?", strat.ID, true).
		Pluck("product_id", &productIDs).Error
	if err != nil {
		r.failExecution(execution, fmt.Sprintf("load assignments: %v", err))
		return execution, nil
	}

	if len(productIDs) == 0 {
		now := time.Now().UTC()
		execution.Status = models.ExecutionCompleted
		execution.DetailsJSON = `{"message": "no products assigned"}`
		execution.CompletedAt = &now
		if err := r.db.Save(execution).Error; err != nil {
			r.logger.Error("Failed to save execution record", zap.Uint("execution_id", execution.ID), zap.Error(err))
		}
		r.logger.Info("Strategy has no assigned products",
			zap.Uint("strategy_id", strat.ID), zap.String("type", strat.Type))
		return execution, nil
	}

	recommendations, err := r.dispatch(handler, &strat, productIDs)
	if err != nil {
		r.logger.Error("Strategy execution failed",
			zap.Uint("strategy_id", strat.ID), zap.String("type", strat.Type), zap.Error(err))
		r.failExecution(execution, err.Error())
		return execution, nil
	}

	// Persist recommendations and the completed transition atomically so a
	// partial write never leaves orphaned rows behind a running execution.
	err = r.db.Transaction(func(tx *gorm.DB) error {
		for _, rec := range recommendations {
			row := models.PriceHistory{
				ProductID:    rec.ProductID,
				StrategyID:   strat.ID,
				ExecutionID:  execution.ID,
				PriceBefore:  rec.CurrentPrice,
				PriceAfter:   rec.RecommendedPrice,
				MarginAmount: rec.NewMarginAmount,
				MarginPct:    rec.NewMarginPct,
				AlertLevel:   rec.AlertLevel,
				ChangeReason: rec.Reason,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("save recommendation for product %d: %w", rec.ProductID, err)
			}
		}

		summary := executionSummary{
			TotalProducts:   len(productIDs),
			Recommendations: len(recommendations),
			AlertLevels:     make(map[string]int),
		}
		for _, rec := range recommendations {
			summary.AlertLevels[rec.AlertLevel]++
		}
		details, err := json.Marshal(summary)
		if err != nil {
			return fmt.Errorf("marshal execution summary: %w", err)
		}

		now := time.Now().UTC()
		execution.Status = models.ExecutionCompleted
		execution.ProductsProcessed = len(productIDs)
		execution.RecommendationsCreated = len(recommendations)
		execution.DetailsJSON = string(details)
		execution.CompletedAt = &now
		return tx.Save(execution).Error
	})
	if err != nil {
		r.failExecution(execution, err.Error())
		return execution, nil
	}

	r.logger.Info("Strategy completed",
		zap.Uint("strategy_id", strat.ID),
		zap.String("type", strat.Type),
		zap.Int("products", len(productIDs)),
		zap.Int("recommendations", len(recommendations)))
	return execution, nil
}

// dispatch calls the handler, converting a panicking handler into an error
// so one buggy strategy cannot take down a batch.
func (r *Runner) dispatch(handler Handler, strat *models.Strategy, productIDs []uint) (recs []Recommendation, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panic: %v", p)
		}
	}()

	cfg := json.RawMessage(strat.ConfigJSON)
	if len(cfg) > 0 && !json.Valid(cfg) {
		r.logger.Warn("Strategy config is not valid JSON, using handler defaults",
			zap.Uint("strategy_id", strat.ID))
		cfg = nil
	}

	return handler.Execute(strat, cfg, productIDs, NewDBContext(r.db))
}

// executionError extracts the recorded error message of a failed execution.
func executionError(execution *models.StrategyExecution) string {
	var details struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(execution.DetailsJSON), &details); err == nil && details.Error != "" {
		return details.Error
	}
	return "execution failed"
}

// failExecution moves an execution to its terminal failed state.
func (r *Runner) failExecution(execution *models.StrategyExecution, message string) {
	details, _ := json.Marshal(map[string]string{"error": message})
	now := time.Now().UTC()
	execution.Status = models.ExecutionFailed
	execution.ErrorsCount = 1
	execution.DetailsJSON = string(details)
	execution.CompletedAt = &now
	if err := r.db.Save(execution).Error; err != nil {
		r.logger.Error("Failed to save failed execution record",
			zap.Uint("execution_id", execution.ID), zap.Error(err))
	}
}

// RunAllActive runs every active strategy in ascending priority order.
// A failure in one strategy lands in the error list; the rest still run.
func (r *Runner) RunAllActive(triggeredBy string) BatchResult {
	result := BatchResult{BatchID: uuid.NewString()}

	var strategies []models.Strategy
	err := r.db.Where("is_active = ?", true).Order("priority ASC").Find(&strategies).Error
	if err != nil {
		r.logger.Error("Failed to load active strategies", zap.Error(err))
		result.Errors = append(result.Errors, fmt.Sprintf("load strategies: %v", err))
		return result
	}

	r.logger.Info("Running active strategies",
		zap.String("batch_id", result.BatchID),
		zap.Int("count", len(strategies)),
		zap.String("triggered_by", triggeredBy))

	for _, strat := range strategies {
		execution, err := r.runStrategy(strat.ID, triggeredBy, result.BatchID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("strategy %d: %v", strat.ID, err))
			continue
		}
		// Handler failures are recorded on the execution rather than
		// returned; surface them here so the batch caller sees them.
		if execution.Status == models.ExecutionFailed {
			result.Errors = append(result.Errors,
				fmt.Sprintf("strategy %d: %s", strat.ID, executionError(execution)))
			continue
		}
		result.StrategiesRun++
		result.TotalRecommendations += execution.RecommendationsCreated
	}

	r.logger.Info("Batch run complete",
		zap.String("batch_id", result.BatchID),
		zap.Int("strategies_run", result.StrategiesRun),
		zap.Int("total_recommendations", result.TotalRecommendations),
		zap.Int("errors", len(result.Errors)))
	return result
}
