// Package report renders run summaries.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"fjacquet/expense-manager/internal/logging"
	"fjacquet/expense-manager/internal/models"

	"gopkg.in/yaml.v3"
)

// ReportGenerator renders a RunSummary as text, JSON or YAML.
type ReportGenerator struct {
	logger logging.Logger
}

// NewReportGenerator creates a new instance of ReportGenerator.
func NewReportGenerator(logger logging.Logger) *ReportGenerator {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &ReportGenerator{
		logger: logger.WithField(logging.FieldComponent, "ReportGenerator"),
	}
}

// GenerateReport renders summary in format.
func (g *ReportGenerator) GenerateReport(summary *models.RunSummary, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "text", "":
		return g.generateTextReport(summary), nil
	case "json":
		return g.generateJSONReport(summary)
	case "yaml":
		return g.generateYAMLReport(summary)
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

func (g *ReportGenerator) generateTextReport(s *models.RunSummary) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Run %s finished in %s\n", s.RunID, s.Duration().Round(1e6))
	fmt.Fprintf(&b, "Files: %d processed, %d succeeded, %d failed\n", s.Processed, s.Succeeded, s.Failed)
	fmt.Fprintf(&b, "Transactions written: %d\n", s.Transactions)
	fmt.Fprintf(&b, "New reference pairs: %d\n", s.NewPairs)
	fmt.Fprintf(&b, "Descriptions: %d (fuzzy %d, oracle %d, fallback %d, %.1f%% resolved)\n",
		s.Stats.Descriptions, s.Stats.FuzzyHits, s.Stats.OracleResolved, s.Stats.Fallback, s.Stats.GetSuccessRate())
	if s.Stats.Batches > 0 {
		fmt.Fprintf(&b, "Oracle batches: %d (%d invalid, %d requests)\n", s.Stats.Batches, s.Stats.InvalidBatches, s.OracleCalls)
	}
	for _, f := range s.Failures {
		fmt.Fprintf(&b, "FAILED %s: %s\n", f.File, f.Error)
	}
	for _, f := range s.Unbalanced {
		fmt.Fprintf(&b, "UNBALANCED %s\n", f)
	}
	return b.Bytes()
}

func (g *ReportGenerator) generateJSONReport(s *models.RunSummary) ([]byte, error) {
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		g.logger.WithError(err).Error("Failed to marshal JSON report")
		return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return append(out, '\n'), nil
}

func (g *ReportGenerator) generateYAMLReport(s *models.RunSummary) ([]byte, error) {
	var b bytes.Buffer
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		g.logger.WithError(err).Error("Failed to marshal YAML report")
		return nil, fmt.Errorf("failed to marshal YAML report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML report: %w", err)
	}
	return b.Bytes(), nil
}
