package strategy

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sergeigeyn/WB-Repricer/internal/models"
)

// Caller input errors, rejected before any execution record exists.
var (
	ErrUnknownStrategyType = errors.New("unknown strategy type")
	ErrInvalidConfig       = errors.New("invalid strategy config")
)

// FieldKind is the declared type of a config field.
type FieldKind string

const (
	FieldInt   FieldKind = "int"
	FieldFloat FieldKind = "float"
	FieldBool  FieldKind = "bool"
)

// ConfigField describes one recognized config parameter of a strategy type.
// The schema drives both creation-time validation and external form
// rendering.
type ConfigField struct {
	Name    string
	Kind    FieldKind
	Label   string
	Min     float64
	Max     float64
	Default any
}

var configSchemas = map[string][]ConfigField{
	models.TypeOutOfStock: {
		{Name: "threshold_days", Kind: FieldInt, Label: "Warn when stock covers fewer days than this", Min: 1, Max: 90, Default: 7},
		{Name: "critical_days", Kind: FieldInt, Label: "Critical when stock covers fewer days than this", Min: 1, Max: 30, Default: 3},
		{Name: "price_increase_pct", Kind: FieldFloat, Label: "Price increase % on warning", Min: 1, Max: 100, Default: 15.0},
		{Name: "critical_increase_pct", Kind: FieldFloat, Label: "Price increase % on critical", Min: 1, Max: 100, Default: 30.0},
		{Name: "max_price_increase_pct", Kind: FieldFloat, Label: "Hard ceiling on price increase %", Min: 1, Max: 200, Default: 50.0},
		{Name: "min_margin_pct", Kind: FieldFloat, Label: "Low-margin warning floor %", Min: 0, Max: 100, Default: 5.0},
		{Name: "exclude_zero_stock", Kind: FieldBool, Label: "Skip products already out of stock", Default: true},
	},
}

// ConfigSchema returns the declared config fields for a strategy type.
// Types without a schema accept any JSON object.
func ConfigSchema(strategyType string) ([]ConfigField, bool) {
	schema, ok := configSchemas[strategyType]
	return schema, ok
}

// ValidateConfig checks a raw config against the schema of the strategy
// type: recognized field names, matching kinds, numeric bounds. It is run
// at creation time so a bad config never reaches a handler.
func ValidateConfig(strategyType string, raw json.RawMessage) error {
	if !models.ValidStrategyType(strategyType) {
		return fmt.Errorf("%w: %q", ErrUnknownStrategyType, strategyType)
	}
	if len(raw) == 0 {
		return nil
	}

	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	schema, ok := configSchemas[strategyType]
	if !ok {
		return nil
	}

	fields := make(map[string]ConfigField, len(schema))
	for _, f := range schema {
		fields[f.Name] = f
	}

	for name, value := range values {
		field, known := fields[name]
		if !known {
			return fmt.Errorf("%w: unrecognized field %q", ErrInvalidConfig, name)
		}
		switch field.Kind {
		case FieldBool:
			if _, ok := value.(bool); !ok {
				return fmt.Errorf("%w: field %q must be a boolean", ErrInvalidConfig, name)
			}
		case FieldInt, FieldFloat:
			num, ok := value.(float64)
			if !ok {
				return fmt.Errorf("%w: field %q must be a number", ErrInvalidConfig, name)
			}
			if num < field.Min || num > field.Max {
				return fmt.Errorf("%w: field %q out of range [%g, %g]", ErrInvalidConfig, name, field.Min, field.Max)
			}
		}
	}
	return nil
}

// NewStrategy builds a strategy record, enforcing the closed type set and
// the config schema before anything is persisted.
func NewStrategy(name, strategyType string, config json.RawMessage, priority int) (*models.Strategy, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if err := ValidateConfig(strategyType, config); err != nil {
		return nil, err
	}
	if priority == 0 {
		priority = 5
	}
	if priority < 1 || priority > 10 {
		return nil, fmt.Errorf("%w: priority must be within [1, 10]", ErrInvalidConfig)
	}
	return &models.Strategy{
		Name:       name,
		Type:       strategyType,
		ConfigJSON: string(config),
		Priority:   priority,
		IsActive:   true,
	}, nil
}
