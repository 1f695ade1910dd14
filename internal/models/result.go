package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DataCheck compares a file's totals before and after categorization.
type DataCheck struct {
	File       string          `csv:"File"`
	AmountIn   decimal.Decimal `csv:"Amount In"`
	AmountOut  decimal.Decimal `csv:"Amount Out"`
	RecordsIn  int             `csv:"Records In"`
	RecordsOut int             `csv:"Records Out"`
}

// Balanced reports whether nothing was lost or altered in between.
func (d DataCheck) Balanced() bool {
	return d.RecordsIn == d.RecordsOut && d.AmountIn.Equal(d.AmountOut)
}

// ProcessingResult is the outcome of one input file.
type ProcessingResult struct {
	FileID       string
	Path         string
	Variant      FormatVariant
	Transactions []Transaction
	NewPairs     []ReferencePair
	Stats        CategorizationStats
	DataCheck    DataCheck
	Err          error
}

// Succeeded reports whether the file produced transactions without error.
func (r ProcessingResult) Succeeded() bool {
	return r.Err == nil
}

// FileFailure names a failed file and why.
type FileFailure struct {
	File  string `json:"file" yaml:"file"`
	Error string `json:"error" yaml:"error"`
}

// RunSummary reports a whole run.
type RunSummary struct {
	RunID        string              `json:"run_id" yaml:"run_id"`
	Started      time.Time           `json:"started" yaml:"started"`
	Finished     time.Time           `json:"finished" yaml:"finished"`
	Processed    int                 `json:"processed" yaml:"processed"`
	Succeeded    int                 `json:"succeeded" yaml:"succeeded"`
	Failed       int                 `json:"failed" yaml:"failed"`
	Failures     []FileFailure       `json:"failures,omitempty" yaml:"failures,omitempty"`
	Transactions int                 `json:"transactions" yaml:"transactions"`
	NewPairs     int                 `json:"new_reference_pairs" yaml:"new_reference_pairs"`
	OracleCalls  int64               `json:"oracle_calls" yaml:"oracle_calls"`
	Stats        CategorizationStats `json:"categorization" yaml:"categorization"`
	Unbalanced   []string            `json:"unbalanced_files,omitempty" yaml:"unbalanced_files,omitempty"`
}

// Duration is the wall time of the run.
func (s RunSummary) Duration() time.Duration {
	if s.Finished.Before(s.Started) {
		return 0
	}
	return s.Finished.Sub(s.Started)
}
