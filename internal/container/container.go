// Package container provides dependency injection for the expense-manager
// application. It centralizes the creation and wiring of all application
// dependencies, making them explicit and testable.
package container

import (
	"context"
	"fmt"
	"io"
	"time"

	"fjacquet/expense-manager/internal/batch"
	"fjacquet/expense-manager/internal/categorizer"
	"fjacquet/expense-manager/internal/config"
	"fjacquet/expense-manager/internal/logging"
	"fjacquet/expense-manager/internal/matcher"
	"fjacquet/expense-manager/internal/models"
	"fjacquet/expense-manager/internal/oracle"
	"fjacquet/expense-manager/internal/report"
	"fjacquet/expense-manager/internal/scanner"
	"fjacquet/expense-manager/internal/store"
)

// BackendFactory builds the oracle backend. Tests swap it for a stub.
type BackendFactory func(ctx context.Context, cfg oracle.BackendConfig) (oracle.Backend, error)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation - all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger     logging.Logger
	config     *config.Config
	refStore   *store.ReferenceStore
	catStore   *store.CategoryStore
	categories []string
	backend    oracle.Backend
	oracle     *oracle.Client
	scanner    *scanner.InputScanner
	reporter   *report.ReportGenerator
}

// NewContainer creates and wires all application dependencies.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	return NewContainerWithBackend(ctx, cfg, oracle.NewBackend)
}

// NewContainerWithBackend is NewContainer with a custom oracle backend factory.
func NewContainerWithBackend(ctx context.Context, cfg *config.Config, newBackend BackendFactory) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	// Create logger first as it's needed by other components
	logger := logging.NewLogrusAdapterFromLogger(config.ConfigureLoggingFromConfig(cfg))

	catStore := store.NewCategoryStore(cfg.Paths.CategoriesFile, logger)
	categoryConfigs, err := catStore.LoadCategories()
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	categories := models.CategoryNames(categoryConfigs)

	c := &Container{
		logger:     logger,
		config:     cfg,
		refStore:   store.NewReferenceStore(cfg.Paths.ReferenceFile, logger),
		catStore:   catStore,
		categories: categories,
		scanner:    scanner.NewInputScanner(logger),
		reporter:   report.NewReportGenerator(logger),
	}

	if cfg.AI.Enabled {
		backend, err := newBackend(ctx, oracle.BackendConfig{
			Provider: cfg.AI.Provider,
			APIKey:   cfg.AI.APIKey(),
			Model:    cfg.AI.Model,
			BaseURL:  cfg.AI.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create AI backend: %w", err)
		}
		c.backend = backend
		c.oracle = oracle.NewClient(backend, categories, oracle.Options{
			Retry: oracle.RetryPolicy{
				MaxAttempts: cfg.AI.Retry.MaxAttempts,
				MinBackoff:  time.Duration(cfg.AI.Retry.MinBackoffSeconds) * time.Second,
				MaxBackoff:  time.Duration(cfg.AI.Retry.MaxBackoffSeconds) * time.Second,
				Multiplier:  2,
			},
			RequestsPerMinute: cfg.AI.RequestsPerMinute,
			Timeout:           cfg.AI.Timeout(),
			FallbackCategory:  cfg.Categorization.FallbackCategory,
		}, logger)
		logger.Info("AI categorization enabled",
			logging.Field{Key: logging.FieldBackend, Value: backend.Name()})
	} else {
		logger.Info("AI categorization disabled")
	}

	logger.Debug("Container initialized successfully",
		logging.Field{Key: "categories_count", Value: len(categories)},
		logging.Field{Key: "ai_enabled", Value: cfg.AI.Enabled})

	return c, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetReferenceStore returns the reference store.
func (c *Container) GetReferenceStore() *store.ReferenceStore {
	return c.refStore
}

// GetCategoryStore returns the category vocabulary store.
func (c *Container) GetCategoryStore() *store.CategoryStore {
	return c.catStore
}

// GetCategories returns the category vocabulary offered to the oracle.
func (c *Container) GetCategories() []string {
	return append([]string(nil), c.categories...)
}

// GetClassifier returns the oracle client, or nil when AI is disabled.
func (c *Container) GetClassifier() categorizer.Classifier {
	if c.oracle == nil {
		return nil
	}
	return c.oracle
}

// GetOracle returns the concrete oracle client. Returns nil if AI is not enabled.
func (c *Container) GetOracle() *oracle.Client {
	return c.oracle
}

// GetScanner returns the input scanner.
func (c *Container) GetScanner() *scanner.InputScanner {
	return c.scanner
}

// GetReportGenerator returns the run report renderer.
func (c *Container) GetReportGenerator() *report.ReportGenerator {
	return c.reporter
}

func (c *Container) categorizerOptions() categorizer.Options {
	return categorizer.Options{
		BatchSize:            c.config.Categorization.BatchSize,
		FallbackCategory:     c.config.Categorization.FallbackCategory,
		MaxConcurrentBatches: c.config.Categorization.MaxConcurrentBatches,
	}
}

// OrchestratorOptions returns batch options derived from the configuration.
func (c *Container) OrchestratorOptions() batch.Options {
	cfg := c.config
	return batch.Options{
		OutputFile:       cfg.Paths.OutputFile,
		DataChecksFile:   cfg.Paths.DataChecksFile,
		ArchiveDir:       cfg.Paths.ArchiveDir,
		ArchiveInputs:    cfg.Run.ArchiveInputs,
		InputDelimiter:   cfg.CSV.InputDelimiterRune(),
		OutputDelimiter:  cfg.CSV.OutputDelimiter(),
		DayFirst:         cfg.CSV.DayFirst,
		FuzzyThreshold:   cfg.Categorization.FuzzyThreshold,
		MaxParallelFiles: cfg.Run.MaxParallelFiles,
		Categorizer:      c.categorizerOptions(),
	}
}

// NewOrchestrator builds a batch orchestrator with opts, usually a tweaked
// copy of OrchestratorOptions.
func (c *Container) NewOrchestrator(opts batch.Options) *batch.Orchestrator {
	return batch.NewOrchestrator(c.refStore, c.GetClassifier(), opts, c.logger)
}

// NewCategorizer loads the reference store and returns a categorizer over
// its current snapshot.
func (c *Container) NewCategorizer() (*categorizer.Categorizer, error) {
	if _, err := c.refStore.Load(); err != nil {
		return nil, err
	}
	lookup := matcher.New(c.refStore.Snapshot(), c.config.Categorization.FuzzyThreshold)
	return categorizer.NewCategorizer(lookup, c.GetClassifier(), c.categorizerOptions(), c.logger), nil
}

// Close releases the oracle backend if it holds resources.
func (c *Container) Close() error {
	if closer, ok := c.backend.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("failed to close AI backend: %w", err)
		}
	}
	c.logger.Debug("Container closed")
	return nil
}
