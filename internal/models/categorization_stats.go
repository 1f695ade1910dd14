package models

import (
	"fjacquet/expense-manager/internal/logging"
)

// CategorizationStats counts how descriptions were resolved. Counts are per
// distinct description, not per row.
type CategorizationStats struct {
	Descriptions   int `json:"descriptions" yaml:"descriptions"`
	FuzzyHits      int `json:"fuzzy_hits" yaml:"fuzzy_hits"`
	OracleResolved int `json:"oracle_resolved" yaml:"oracle_resolved"`
	Fallback       int `json:"fallback" yaml:"fallback"`
	Batches        int `json:"batches" yaml:"batches"`
	InvalidBatches int `json:"invalid_batches" yaml:"invalid_batches"`
}

// Add accumulates other into cs.
func (cs *CategorizationStats) Add(other CategorizationStats) {
	cs.Descriptions += other.Descriptions
	cs.FuzzyHits += other.FuzzyHits
	cs.OracleResolved += other.OracleResolved
	cs.Fallback += other.Fallback
	cs.Batches += other.Batches
	cs.InvalidBatches += other.InvalidBatches
}

// GetSuccessRate is the share of descriptions resolved without falling back, in percent.
func (cs CategorizationStats) GetSuccessRate() float64 {
	if cs.Descriptions == 0 {
		return 0.0
	}
	return float64(cs.FuzzyHits+cs.OracleResolved) / float64(cs.Descriptions) * 100.0
}

// LogSummary logs the counters at info level.
func (cs CategorizationStats) LogSummary(logger logging.Logger, source string) {
	if logger == nil {
		return
	}

	logger.Info("Categorization summary",
		logging.Field{Key: logging.FieldFile, Value: source},
		logging.Field{Key: "descriptions", Value: cs.Descriptions},
		logging.Field{Key: "fuzzy_hits", Value: cs.FuzzyHits},
		logging.Field{Key: "oracle_resolved", Value: cs.OracleResolved},
		logging.Field{Key: "fallback", Value: cs.Fallback},
		logging.Field{Key: "batches", Value: cs.Batches},
		logging.Field{Key: "invalid_batches", Value: cs.InvalidBatches},
		logging.Field{Key: "success_rate", Value: cs.GetSuccessRate()},
	)
}
