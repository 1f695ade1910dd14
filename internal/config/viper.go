package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. EXPENSE_LOG_LEVEL.
const EnvPrefix = "EXPENSE"

// InitializeConfig loads configuration with the precedence defaults < config
// file < environment. configFile overrides the search path when set.
func InitializeConfig(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.expense-manager")
		v.AddConfigPath(".expense-manager")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless given explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	// 5. Provider keys keep their conventional, unprefixed names
	if err := v.BindEnv("ai.gemini_api_key", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind GEMINI_API_KEY: %w", err)
	}
	if err := v.BindEnv("ai.openai_api_key", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_API_KEY: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("csv.delimiter", ",")
	v.SetDefault("csv.input_delimiter", "")
	v.SetDefault("csv.day_first", false)

	v.SetDefault("paths.input_dir", "data/tx_data/input")
	v.SetDefault("paths.output_file", "data/tx_data/output/tx_master_data.csv")
	v.SetDefault("paths.data_checks_file", "data/tx_data/output/data_checks.csv")
	v.SetDefault("paths.archive_dir", "data/tx_data/archive")
	v.SetDefault("paths.reference_file", "data/ref_data/ref_master_data.csv")
	v.SetDefault("paths.categories_file", "")

	v.SetDefault("categorization.fuzzy_threshold", 75)
	v.SetDefault("categorization.batch_size", 10)
	v.SetDefault("categorization.fallback_category", "Other")
	v.SetDefault("categorization.max_concurrent_batches", 4)

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.requests_per_minute", 10)
	v.SetDefault("ai.timeout_seconds", 30)
	v.SetDefault("ai.retry.max_attempts", 6)
	v.SetDefault("ai.retry.min_backoff_seconds", 1)
	v.SetDefault("ai.retry.max_backoff_seconds", 20)

	v.SetDefault("run.max_parallel_files", 4)
	v.SetDefault("run.archive_inputs", false)
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if len([]rune(config.CSV.Delimiter)) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.CSV.Delimiter)
	}
	if len([]rune(config.CSV.InputDelimiter)) > 1 {
		return fmt.Errorf("CSV input delimiter must be empty or a single character, got: %s", config.CSV.InputDelimiter)
	}

	if config.Paths.ReferenceFile == "" {
		return fmt.Errorf("paths.reference_file must be set")
	}

	if t := config.Categorization.FuzzyThreshold; t < 1 || t > 100 {
		return fmt.Errorf("categorization.fuzzy_threshold must be between 1 and 100, got: %d", t)
	}
	if config.Categorization.BatchSize < 1 {
		return fmt.Errorf("categorization.batch_size must be at least 1, got: %d", config.Categorization.BatchSize)
	}
	if strings.TrimSpace(config.Categorization.FallbackCategory) == "" {
		return fmt.Errorf("categorization.fallback_category must not be empty")
	}

	if config.Run.MaxParallelFiles < 1 {
		return fmt.Errorf("run.max_parallel_files must be at least 1, got: %d", config.Run.MaxParallelFiles)
	}

	if config.AI.Enabled {
		switch strings.ToLower(config.AI.Provider) {
		case "gemini":
			if config.AI.GeminiAPIKey == "" {
				return fmt.Errorf("GEMINI_API_KEY required when AI is enabled")
			}
		case "openai":
			if config.AI.OpenAIAPIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY required when AI is enabled")
			}
		default:
			return fmt.Errorf("ai.provider must be 'gemini' or 'openai', got: %s", config.AI.Provider)
		}

		if config.AI.RequestsPerMinute < 1 || config.AI.RequestsPerMinute > 1000 {
			return fmt.Errorf("ai.requests_per_minute must be between 1 and 1000, got: %d", config.AI.RequestsPerMinute)
		}

		if config.AI.TimeoutSeconds < 1 || config.AI.TimeoutSeconds > 300 {
			return fmt.Errorf("ai.timeout_seconds must be between 1 and 300, got: %d", config.AI.TimeoutSeconds)
		}

		r := config.AI.Retry
		if r.MaxAttempts < 1 {
			return fmt.Errorf("ai.retry.max_attempts must be at least 1, got: %d", r.MaxAttempts)
		}
		if r.MinBackoffSeconds < 0 || r.MaxBackoffSeconds < r.MinBackoffSeconds {
			return fmt.Errorf("ai.retry backoff must satisfy 0 <= min <= max, got: %d..%d", r.MinBackoffSeconds, r.MaxBackoffSeconds)
		}
	}

	return nil
}
