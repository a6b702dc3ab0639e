// Package score describes custom relevance strategies.
package score

import (
	"errors"
	"fmt"
	"slices"

	"github.com/kailas-cloud/querygate/internal/domain/search/filter"
)

// Type is the kind of scoring function a strategy contributes.
type Type string

// Strategy types.
const (
	BoostingFieldValue Type = "boosting_field_value"
	Decay              Type = "decay"
	CustomFunction     Type = "custom_function"
)

// IsValid checks if the type is one of the supported values.
func (t Type) IsValid() bool {
	return t == BoostingFieldValue || t == Decay || t == CustomFunction
}

// Function score combination modes.
const (
	ScoreModeMultiply = "multiply"
	ScoreModeSum      = "sum"
	ScoreModeAvg      = "avg"
	ScoreModeFirst    = "first"
	ScoreModeMax      = "max"
	ScoreModeMin      = "min"

	// ScoreModeNone is only meaningful for nested strategies.
	ScoreModeNone = "none"

	BoostModeMultiply = "multiply"
	BoostModeReplace  = "replace"
	BoostModeSum      = "sum"
)

// Decay function shapes.
const (
	DecayGauss       = "gauss"
	DecayLinear      = "linear"
	DecayExponential = "exp"
)

// Configuration keys read by the compiler.
const (
	ConfigField    = "field"
	ConfigFactor   = "factor"
	ConfigModifier = "modifier"
	ConfigMissing  = "missing"
	ConfigType     = "type"
	ConfigOrigin   = "origin"
	ConfigScale    = "scale"
	ConfigOffset   = "offset"
	ConfigDecay    = "decay"
	ConfigFunction = "function"
)

// DefaultWeight is applied when a strategy has no explicit weight.
const DefaultWeight = 1.0

// Strategy is one scoring function with its configuration.
type Strategy struct {
	typ       Type
	config    map[string]any
	weight    float64
	filter    *filter.Filter
	scoreMode string
}

// New validates and creates a Strategy.
func New(typ Type, config map[string]any, weight float64, f *filter.Filter, scoreMode string) (Strategy, error) {
	if !typ.IsValid() {
		return Strategy{}, fmt.Errorf("invalid score strategy type: %q", typ)
	}
	switch typ {
	case BoostingFieldValue, Decay:
		if field, _ := config[ConfigField].(string); field == "" {
			return Strategy{}, fmt.Errorf("%s strategy requires a field", typ)
		}
	case CustomFunction:
		if fn, _ := config[ConfigFunction].(string); fn == "" {
			return Strategy{}, errors.New("custom_function strategy requires a function")
		}
	}
	if weight == 0 {
		weight = DefaultWeight
	}
	if scoreMode == "" {
		scoreMode = ScoreModeAvg
	}
	cfg := make(map[string]any, len(config))
	for k, v := range config {
		cfg[k] = v
	}
	return Strategy{typ: typ, config: cfg, weight: weight, filter: f, scoreMode: scoreMode}, nil
}

// Type returns the strategy type.
func (s Strategy) Type() Type { return s.typ }

// Weight returns the function weight.
func (s Strategy) Weight() float64 { return s.weight }

// Filter returns the filter scoping the function, nil if unscoped.
func (s Strategy) Filter() *filter.Filter { return s.filter }

// ScoreMode returns the score mode used when the strategy is nested.
func (s Strategy) ScoreMode() string { return s.scoreMode }

// Field returns the configured field, empty for custom functions.
func (s Strategy) Field() string { return s.String(ConfigField) }

// String returns a string configuration value.
func (s Strategy) String(key string) string {
	v, _ := s.config[key].(string)
	return v
}

// Float returns a numeric configuration value and whether it was present.
func (s Strategy) Float(key string) (float64, bool) {
	switch v := s.config[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Value returns a raw configuration value.
func (s Strategy) Value(key string) (any, bool) {
	v, ok := s.config[key]
	return v, ok
}

// Strategies groups strategies under one function score.
type Strategies struct {
	scoreMode  string
	boostMode  string
	strategies []Strategy
}

// NewStrategies creates a strategies container.
func NewStrategies(scoreMode, boostMode string, strategies ...Strategy) Strategies {
	if scoreMode == "" {
		scoreMode = ScoreModeSum
	}
	if boostMode == "" {
		boostMode = BoostModeMultiply
	}
	return Strategies{scoreMode: scoreMode, boostMode: boostMode, strategies: slices.Clone(strategies)}
}

// ScoreMode returns how function scores are combined.
func (s Strategies) ScoreMode() string { return s.scoreMode }

// BoostMode returns how the function score combines with the query score.
func (s Strategies) BoostMode() string { return s.boostMode }

// All returns the strategies in order.
func (s Strategies) All() []Strategy { return slices.Clone(s.strategies) }

// IsEmpty reports whether no strategy is configured.
func (s Strategies) IsEmpty() bool { return len(s.strategies) == 0 }
