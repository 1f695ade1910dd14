package report

import (
	"encoding/json"
	"testing"
	"time"

	"fjacquet/expense-manager/internal/logging"
	"fjacquet/expense-manager/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleSummary() *models.RunSummary {
	started := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return &models.RunSummary{
		RunID:        "run-1",
		Started:      started,
		Finished:     started.Add(1500 * time.Millisecond),
		Processed:    3,
		Succeeded:    2,
		Failed:       1,
		Failures:     []models.FileFailure{{File: "broken.csv", Error: "required columns not found"}},
		Transactions: 12,
		NewPairs:     4,
		OracleCalls:  3,
		Stats:        models.CategorizationStats{Descriptions: 10, FuzzyHits: 5, OracleResolved: 4, Fallback: 1, Batches: 1},
	}
}

func TestReportGenerator_Text(t *testing.T) {
	out, err := NewReportGenerator(logging.NewMockLogger()).GenerateReport(sampleSummary(), "text")
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "Run run-1 finished in 1.5s")
	assert.Contains(t, text, "Files: 3 processed, 2 succeeded, 1 failed")
	assert.Contains(t, text, "Descriptions: 10 (fuzzy 5, oracle 4, fallback 1, 90.0% resolved)")
	assert.Contains(t, text, "FAILED broken.csv: required columns not found")
	assert.Contains(t, text, "Oracle batches: 1 (0 invalid, 3 requests)")
}

func TestReportGenerator_JSON(t *testing.T) {
	summary := sampleSummary()
	out, err := NewReportGenerator(logging.NewMockLogger()).GenerateReport(summary, "json")
	require.NoError(t, err)

	var decoded models.RunSummary
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, summary.RunID, decoded.RunID)
	assert.Equal(t, summary.Failures, decoded.Failures)
	assert.Equal(t, summary.Stats, decoded.Stats)
}

func TestReportGenerator_YAML(t *testing.T) {
	out, err := NewReportGenerator(logging.NewMockLogger()).GenerateReport(sampleSummary(), "yaml")
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.Equal(t, 2, decoded["succeeded"])
}

func TestReportGenerator_UnsupportedFormat(t *testing.T) {
	_, err := NewReportGenerator(nil).GenerateReport(sampleSummary(), "xml")
	assert.EqualError(t, err, "unsupported report format: xml")
}
