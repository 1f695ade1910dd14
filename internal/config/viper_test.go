package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearTestEnvVars blanks every variable the tests touch. Viper ignores empty
// values, so a blank variable behaves as unset.
func clearTestEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"EXPENSE_LOG_LEVEL",
		"EXPENSE_LOG_FORMAT",
		"EXPENSE_CSV_DELIMITER",
		"EXPENSE_CSV_DAY_FIRST",
		"EXPENSE_PATHS_INPUT_DIR",
		"EXPENSE_PATHS_REFERENCE_FILE",
		"EXPENSE_CATEGORIZATION_FUZZY_THRESHOLD",
		"EXPENSE_CATEGORIZATION_BATCH_SIZE",
		"EXPENSE_AI_ENABLED",
		"EXPENSE_AI_PROVIDER",
		"EXPENSE_AI_MODEL",
		"EXPENSE_AI_REQUESTS_PER_MINUTE",
		"EXPENSE_RUN_MAX_PARALLEL_FILES",
		"GEMINI_API_KEY",
		"OPENAI_API_KEY",
	} {
		t.Setenv(key, "")
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestInitializeConfig_Defaults(t *testing.T) {
	clearTestEnvVars(t)

	config, err := InitializeConfig("")
	require.NoError(t, err)

	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "text", config.Log.Format)
	assert.Equal(t, ",", config.CSV.Delimiter)
	assert.Equal(t, ',', config.CSV.OutputDelimiter())
	assert.Equal(t, rune(0), config.CSV.InputDelimiterRune())
	assert.False(t, config.CSV.DayFirst)
	assert.Equal(t, "data/ref_data/ref_master_data.csv", config.Paths.ReferenceFile)
	assert.Equal(t, "data/tx_data/output/tx_master_data.csv", config.Paths.OutputFile)
	assert.Equal(t, "data/tx_data/archive", config.Paths.ArchiveDir)
	assert.Equal(t, 75, config.Categorization.FuzzyThreshold)
	assert.Equal(t, 10, config.Categorization.BatchSize)
	assert.Equal(t, "Other", config.Categorization.FallbackCategory)
	assert.False(t, config.AI.Enabled)
	assert.Equal(t, "gemini", config.AI.Provider)
	assert.Equal(t, 6, config.AI.Retry.MaxAttempts)
	assert.Equal(t, 1, config.AI.Retry.MinBackoffSeconds)
	assert.Equal(t, 20, config.AI.Retry.MaxBackoffSeconds)
	assert.Equal(t, 30*time.Second, config.AI.Timeout())
	assert.Equal(t, 4, config.Run.MaxParallelFiles)
	assert.False(t, config.Run.ArchiveInputs)
}

func TestInitializeConfig_EnvironmentVariables(t *testing.T) {
	clearTestEnvVars(t)

	for key, value := range map[string]string{
		"EXPENSE_LOG_LEVEL":                      "debug",
		"EXPENSE_LOG_FORMAT":                     "json",
		"EXPENSE_CSV_DELIMITER":                  ";",
		"EXPENSE_CSV_DAY_FIRST":                  "true",
		"EXPENSE_CATEGORIZATION_FUZZY_THRESHOLD": "80",
		"EXPENSE_AI_ENABLED":                     "true",
		"EXPENSE_AI_PROVIDER":                    "openai",
		"EXPENSE_AI_MODEL":                       "gpt-4o",
		"EXPENSE_AI_REQUESTS_PER_MINUTE":         "15",
		"OPENAI_API_KEY":                         "sk-test",
		"GEMINI_API_KEY":                         "gemini-test",
	} {
		t.Setenv(key, value)
	}

	config, err := InitializeConfig("")
	require.NoError(t, err)

	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "json", config.Log.Format)
	assert.Equal(t, ';', config.CSV.OutputDelimiter())
	assert.True(t, config.CSV.DayFirst)
	assert.Equal(t, 80, config.Categorization.FuzzyThreshold)
	assert.True(t, config.AI.Enabled)
	assert.Equal(t, "gpt-4o", config.AI.Model)
	assert.Equal(t, 15, config.AI.RequestsPerMinute)
	assert.Equal(t, "sk-test", config.AI.APIKey())
}

func TestInitializeConfig_ConfigFile(t *testing.T) {
	clearTestEnvVars(t)

	configFile := filepath.Join(t.TempDir(), "expense.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
log:
  level: "warn"
csv:
  delimiter: "|"
  input_delimiter: ";"
paths:
  reference_file: "ref.csv"
categorization:
  batch_size: 5
run:
  archive_inputs: true
ai:
  requests_per_minute: 20
`), 0600))

	t.Setenv("EXPENSE_LOG_LEVEL", "error")

	config, err := InitializeConfig(configFile)
	require.NoError(t, err)

	assert.Equal(t, "error", config.Log.Level, "environment wins over the file")
	assert.Equal(t, '|', config.CSV.OutputDelimiter())
	assert.Equal(t, ';', config.CSV.InputDelimiterRune())
	assert.Equal(t, "ref.csv", config.Paths.ReferenceFile)
	assert.Equal(t, 5, config.Categorization.BatchSize)
	assert.True(t, config.Run.ArchiveInputs)
	assert.Equal(t, 20, config.AI.RequestsPerMinute)
}

func TestInitializeConfig_SearchPath(t *testing.T) {
	clearTestEnvVars(t)
	require.NoError(t, os.WriteFile("config.yaml", []byte("categorization:\n  fuzzy_threshold: 90\n"), 0600))

	config, err := InitializeConfig("")
	require.NoError(t, err)
	assert.Equal(t, 90, config.Categorization.FuzzyThreshold)
}

func TestInitializeConfig_MissingExplicitFile(t *testing.T) {
	clearTestEnvVars(t)

	_, err := InitializeConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func validConfig() *Config {
	return &Config{
		Log:            LogConfig{Level: "info", Format: "text"},
		CSV:            CSVConfig{Delimiter: ","},
		Paths:          PathsConfig{ReferenceFile: "ref.csv"},
		Categorization: CategorizationConfig{FuzzyThreshold: 75, BatchSize: 10, FallbackCategory: "Other"},
		AI: AIConfig{
			Provider:          "gemini",
			RequestsPerMinute: 10,
			TimeoutSeconds:    30,
			Retry:             RetryConfig{MaxAttempts: 6, MinBackoffSeconds: 1, MaxBackoffSeconds: 20},
		},
		Run: RunConfig{MaxParallelFiles: 4},
	}
}

func TestValidateConfig_Valid(t *testing.T) {
	assert.NoError(t, validateConfig(validConfig()))
}

func TestValidateConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name         string
		modifyConfig func(*Config)
		expectError  string
	}{
		{"invalid log level", func(c *Config) { c.Log.Level = "invalid" }, "invalid log level"},
		{"invalid log format", func(c *Config) { c.Log.Format = "xml" }, "invalid log format"},
		{"invalid CSV delimiter", func(c *Config) { c.CSV.Delimiter = "abc" }, "CSV delimiter must be a single character"},
		{"invalid input delimiter", func(c *Config) { c.CSV.InputDelimiter = ";;" }, "CSV input delimiter"},
		{"missing reference file", func(c *Config) { c.Paths.ReferenceFile = "" }, "paths.reference_file must be set"},
		{"threshold too high", func(c *Config) { c.Categorization.FuzzyThreshold = 101 }, "fuzzy_threshold must be between 1 and 100"},
		{"zero batch size", func(c *Config) { c.Categorization.BatchSize = 0 }, "batch_size must be at least 1"},
		{"blank fallback", func(c *Config) { c.Categorization.FallbackCategory = " " }, "fallback_category must not be empty"},
		{"zero parallel files", func(c *Config) { c.Run.MaxParallelFiles = 0 }, "max_parallel_files must be at least 1"},
		{"gemini without key", func(c *Config) { c.AI.Enabled = true }, "GEMINI_API_KEY required when AI is enabled"},
		{
			"openai without key",
			func(c *Config) { c.AI.Enabled = true; c.AI.Provider = "openai"; c.AI.GeminiAPIKey = "k" },
			"OPENAI_API_KEY required when AI is enabled",
		},
		{"unknown provider", func(c *Config) { c.AI.Enabled = true; c.AI.Provider = "claude" }, "ai.provider must be"},
		{
			"invalid requests per minute",
			func(c *Config) { c.AI.Enabled = true; c.AI.GeminiAPIKey = "k"; c.AI.RequestsPerMinute = 0 },
			"ai.requests_per_minute must be between 1 and 1000",
		},
		{
			"invalid timeout seconds",
			func(c *Config) { c.AI.Enabled = true; c.AI.GeminiAPIKey = "k"; c.AI.TimeoutSeconds = 0 },
			"ai.timeout_seconds must be between 1 and 300",
		},
		{
			"inverted backoff",
			func(c *Config) { c.AI.Enabled = true; c.AI.GeminiAPIKey = "k"; c.AI.Retry.MaxBackoffSeconds = 0 },
			"ai.retry backoff",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.modifyConfig(config)
			err := validateConfig(config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestAIConfig_APIKey(t *testing.T) {
	ai := AIConfig{Provider: "gemini", GeminiAPIKey: "g", OpenAIAPIKey: "o"}
	assert.Equal(t, "g", ai.APIKey())
	ai.Provider = "OpenAI"
	assert.Equal(t, "o", ai.APIKey())
}

func TestLoadEnv(t *testing.T) {
	clearTestEnvVars(t)
	require.NoError(t, os.WriteFile(".env", []byte("EXPENSE_TEST_FROM_DOTENV=yes\n"), 0600))
	t.Setenv("EXPENSE_TEST_FROM_DOTENV", "")
	require.NoError(t, os.Unsetenv("EXPENSE_TEST_FROM_DOTENV"))

	assert.Equal(t, ".env", LoadEnv(logrus.New()))
	assert.Equal(t, "yes", os.Getenv("EXPENSE_TEST_FROM_DOTENV"))
}

func TestConfigureLoggingFromConfig(t *testing.T) {
	config := validConfig()
	config.Log = LogConfig{Level: "debug", Format: "json"}

	logger := ConfigureLoggingFromConfig(config)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	config.Log = LogConfig{Level: "bogus", Format: "text"}
	logger = ConfigureLoggingFromConfig(config)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}
