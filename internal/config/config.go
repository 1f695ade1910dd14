// Package config loads the application configuration from defaults, an
// optional YAML file, a .env file and the environment.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config represents the complete application configuration
type Config struct {
	Log            LogConfig            `mapstructure:"log" yaml:"log"`
	CSV            CSVConfig            `mapstructure:"csv" yaml:"csv"`
	Paths          PathsConfig          `mapstructure:"paths" yaml:"paths"`
	Categorization CategorizationConfig `mapstructure:"categorization" yaml:"categorization"`
	AI             AIConfig             `mapstructure:"ai" yaml:"ai"`
	Run            RunConfig            `mapstructure:"run" yaml:"run"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// CSVConfig controls how inputs are read and outputs written.
type CSVConfig struct {
	// Delimiter is used for every file the application writes.
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	// InputDelimiter forces the input delimiter; empty sniffs it per file.
	InputDelimiter string `mapstructure:"input_delimiter" yaml:"input_delimiter"`
	// DayFirst reads ambiguous dates like 03/04/2024 as 3 April.
	DayFirst bool `mapstructure:"day_first" yaml:"day_first"`
}

type PathsConfig struct {
	InputDir       string `mapstructure:"input_dir" yaml:"input_dir"`
	OutputFile     string `mapstructure:"output_file" yaml:"output_file"`
	DataChecksFile string `mapstructure:"data_checks_file" yaml:"data_checks_file"`
	ArchiveDir     string `mapstructure:"archive_dir" yaml:"archive_dir"`
	ReferenceFile  string `mapstructure:"reference_file" yaml:"reference_file"`
	CategoriesFile string `mapstructure:"categories_file" yaml:"categories_file"`
}

type CategorizationConfig struct {
	FuzzyThreshold       int    `mapstructure:"fuzzy_threshold" yaml:"fuzzy_threshold"`
	BatchSize            int    `mapstructure:"batch_size" yaml:"batch_size"`
	FallbackCategory     string `mapstructure:"fallback_category" yaml:"fallback_category"`
	MaxConcurrentBatches int    `mapstructure:"max_concurrent_batches" yaml:"max_concurrent_batches"`
}

// AIConfig configures the classification oracle.
type AIConfig struct {
	Enabled           bool        `mapstructure:"enabled" yaml:"enabled"`
	Provider          string      `mapstructure:"provider" yaml:"provider"`
	Model             string      `mapstructure:"model" yaml:"model"`
	BaseURL           string      `mapstructure:"base_url" yaml:"base_url"`
	RequestsPerMinute int         `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	TimeoutSeconds    int         `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	Retry             RetryConfig `mapstructure:"retry" yaml:"retry"`

	// Keys are only ever read from the environment.
	GeminiAPIKey string `mapstructure:"gemini_api_key" yaml:"-"`
	OpenAIAPIKey string `mapstructure:"openai_api_key" yaml:"-"`
}

type RetryConfig struct {
	MaxAttempts       int `mapstructure:"max_attempts" yaml:"max_attempts"`
	MinBackoffSeconds int `mapstructure:"min_backoff_seconds" yaml:"min_backoff_seconds"`
	MaxBackoffSeconds int `mapstructure:"max_backoff_seconds" yaml:"max_backoff_seconds"`
}

type RunConfig struct {
	MaxParallelFiles int  `mapstructure:"max_parallel_files" yaml:"max_parallel_files"`
	ArchiveInputs    bool `mapstructure:"archive_inputs" yaml:"archive_inputs"`
}

// APIKey returns the key for the configured provider.
func (a AIConfig) APIKey() string {
	if strings.EqualFold(a.Provider, "openai") {
		return a.OpenAIAPIKey
	}
	return a.GeminiAPIKey
}

// Timeout is the per-request oracle timeout.
func (a AIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// OutputDelimiter returns the first rune of the output delimiter.
func (c CSVConfig) OutputDelimiter() rune {
	return firstRune(c.Delimiter, ',')
}

// InputDelimiterRune returns the forced input delimiter, or 0 to sniff.
func (c CSVConfig) InputDelimiterRune() rune {
	return firstRune(c.InputDelimiter, 0)
}

func firstRune(s string, fallback rune) rune {
	for _, r := range s {
		return r
	}
	return fallback
}

// LoadEnv loads variables from a .env file in the working directory or its
// parent. Variables already set in the environment are kept.
func LoadEnv(logger *logrus.Logger) string {
	for _, candidate := range []string{".env", filepath.Join("..", ".env")} {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		if err := godotenv.Load(candidate); err != nil {
			if logger != nil {
				logger.Warnf("Error loading .env file: %v", err)
			}
			return ""
		}
		if logger != nil {
			logger.Debugf("Loaded environment variables from %s", candidate)
		}
		return candidate
	}
	return ""
}

// ConfigureLoggingFromConfig builds a logrus logger from the log section.
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
