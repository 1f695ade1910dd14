// Package batch runs the whole pipeline over a set of input files.
package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"fjacquet/expense-manager/internal/categorizer"
	"fjacquet/expense-manager/internal/common"
	"fjacquet/expense-manager/internal/detector"
	"fjacquet/expense-manager/internal/fileutils"
	"fjacquet/expense-manager/internal/logging"
	"fjacquet/expense-manager/internal/matcher"
	"fjacquet/expense-manager/internal/models"
	"fjacquet/expense-manager/internal/normalizer"
	"fjacquet/expense-manager/internal/parsererror"
	"fjacquet/expense-manager/internal/store"
	"fjacquet/expense-manager/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ReferenceStore is the persistence the orchestrator needs from the store.
type ReferenceStore interface {
	Load() ([]models.ReferencePair, error)
	Snapshot() store.Snapshot
	Merge(newPairs []models.ReferencePair) error
}

// callCounter is implemented by classifiers that count their remote requests.
type callCounter interface {
	Calls() int64
}

// Options configure a run.
type Options struct {
	OutputFile       string
	DataChecksFile   string
	ArchiveDir       string
	ArchiveInputs    bool
	InputDelimiter   rune // 0 sniffs each file
	OutputDelimiter  rune
	DayFirst         bool
	FuzzyThreshold   int
	MaxParallelFiles int // <= 0 means 4
	Categorizer      categorizer.Options

	// OnFileDone, when set, is called once per file as it settles.
	OnFileDone func(models.ProcessingResult)
	// Now defaults to time.Now.
	Now func() time.Time
}

// Orchestrator processes files independently and settles shared outputs
// once all of them are done.
type Orchestrator struct {
	store      ReferenceStore
	classifier categorizer.Classifier
	opts       Options
	logger     logging.Logger
}

// NewOrchestrator wires an orchestrator. classifier may be nil to run
// without the oracle.
func NewOrchestrator(refStore ReferenceStore, classifier categorizer.Classifier, opts Options, logger logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if opts.MaxParallelFiles <= 0 {
		opts.MaxParallelFiles = 4
	}
	if opts.OutputDelimiter == 0 {
		opts.OutputDelimiter = ','
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{store: refStore, classifier: classifier, opts: opts, logger: logger}
}

// Run processes files and returns the run summary. Only a reference store
// that cannot be loaded aborts the run; a failing file is recorded and the
// others carry on. Errors writing the shared outputs are returned alongside
// the summary.
func (o *Orchestrator) Run(ctx context.Context, files []string) (*models.RunSummary, error) {
	runID := uuid.NewString()
	logger := o.logger.WithField(logging.FieldRunID, runID)
	summary := &models.RunSummary{RunID: runID, Started: o.opts.Now()}

	if _, err := o.store.Load(); err != nil {
		logger.WithError(err).Error("Cannot load reference store, aborting run")
		return nil, err
	}
	snapshot := o.store.Snapshot()
	lookup := matcher.New(snapshot, o.opts.FuzzyThreshold)
	cat := categorizer.NewCategorizer(lookup, o.classifier, o.opts.Categorizer, logger)

	logger.Info("Starting run",
		logging.Field{Key: logging.FieldCount, Value: len(files)},
		logging.Field{Key: "reference_pairs", Value: snapshot.Len()},
		logging.Field{Key: "fuzzy_threshold", Value: lookup.Threshold()})

	counter, counted := o.classifier.(callCounter)
	var callsBefore int64
	if counted {
		callsBefore = counter.Calls()
	}

	results := o.processAll(ctx, files, cat, logger)

	if counted {
		summary.OracleCalls = counter.Calls() - callsBefore
	}

	var (
		transactions []models.Transaction
		checks       []models.DataCheck
		staged       []models.ReferencePair
		succeeded    []string
	)
	for _, r := range results {
		summary.Processed++
		if !r.Succeeded() {
			summary.Failed++
			summary.Failures = append(summary.Failures, models.FileFailure{File: r.FileID, Error: r.Err.Error()})
			continue
		}
		summary.Succeeded++
		summary.Stats.Add(r.Stats)
		transactions = append(transactions, r.Transactions...)
		checks = append(checks, r.DataCheck)
		staged = append(staged, r.NewPairs...)
		succeeded = append(succeeded, r.Path)
		if err := validation.CheckBalanced(r.DataCheck); err != nil {
			summary.Unbalanced = append(summary.Unbalanced, r.FileID)
			logger.WithError(err).Warn("Data check mismatch")
		}
	}
	summary.Transactions = len(transactions)
	summary.NewPairs = len(store.Dedup(staged))

	err := o.settle(transactions, checks, staged, succeeded, logger)
	summary.Finished = o.opts.Now()

	logger.Info("Run finished",
		logging.Field{Key: "succeeded", Value: summary.Succeeded},
		logging.Field{Key: "failed", Value: summary.Failed},
		logging.Field{Key: "transactions", Value: summary.Transactions},
		logging.Field{Key: logging.FieldDuration, Value: summary.Duration().Milliseconds()})
	return summary, err
}

// processAll runs every file on its own goroutine and returns the results in
// completion order. File goroutines never return an error, so one failure
// does not cancel its siblings.
func (o *Orchestrator) processAll(ctx context.Context, files []string, cat *categorizer.Categorizer, logger logging.Logger) []models.ProcessingResult {
	var (
		mu      sync.Mutex
		results = make([]models.ProcessingResult, 0, len(files))
		g       errgroup.Group
	)
	g.SetLimit(o.opts.MaxParallelFiles)

	for _, path := range files {
		path := path
		g.Go(func() error {
			r := o.ProcessFile(ctx, path, cat)
			switch {
			case r.Err == nil:
			case parsererror.IsFileFatal(r.Err):
				logger.WithError(r.Err).Warn("File rejected",
					logging.Field{Key: logging.FieldFile, Value: r.FileID})
			default:
				logger.WithError(r.Err).Error("File failed",
					logging.Field{Key: logging.FieldFile, Value: r.FileID})
			}
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
			if o.opts.OnFileDone != nil {
				o.opts.OnFileDone(r)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// ProcessFile runs read, detect, normalize and categorize on one file. Any
// error or panic ends up in the result.
func (o *Orchestrator) ProcessFile(ctx context.Context, path string, cat *categorizer.Categorizer) (result models.ProcessingResult) {
	fileID := filepath.Base(path)
	result = models.ProcessingResult{FileID: fileID, Path: path}
	logger := o.logger.WithField(logging.FieldFile, fileID)

	defer func() {
		if r := recover(); r != nil {
			result = models.ProcessingResult{
				FileID: fileID,
				Path:   path,
				Err:    &parsererror.FileError{File: fileID, Stage: "panic", Err: fmt.Errorf("%v", r)},
			}
		}
	}()

	table, err := common.ReadRawTable(path, o.opts.InputDelimiter)
	if err != nil {
		result.Err = &parsererror.FileError{File: fileID, Stage: "read", Err: err}
		return result
	}

	roles, variant, err := detector.Detect(table.Header, table.Rows)
	if err != nil {
		result.Err = &parsererror.FileError{File: fileID, Stage: "detect", Err: err}
		return result
	}
	result.Variant = variant
	logger.Debug("Detected format",
		logging.Field{Key: logging.FieldVariant, Value: variant.String()})

	txs, err := normalizer.New(o.opts.DayFirst, logger).Normalize(fileID, table, roles, variant)
	if err != nil {
		result.Err = &parsererror.FileError{File: fileID, Stage: "normalize", Err: err}
		return result
	}

	categorized, learned, stats := cat.Categorize(ctx, txs)
	stats.LogSummary(logger, fileID)

	result.Transactions = categorized
	result.NewPairs = learned
	result.Stats = stats
	result.DataCheck = validation.BuildDataCheck(fileID, txs, categorized)
	return result
}

// settle performs the single-writer steps after every file is done. Each
// step runs even if an earlier one failed; the errors are joined.
func (o *Orchestrator) settle(transactions []models.Transaction, checks []models.DataCheck, staged []models.ReferencePair, succeeded []string, logger logging.Logger) error {
	var errs []error

	if err := o.store.Merge(staged); err != nil {
		errs = append(errs, fmt.Errorf("reference store merge: %w", err))
	}

	if o.opts.OutputFile != "" {
		if err := common.AppendTransactions(o.opts.OutputFile, transactions, o.opts.OutputDelimiter); err != nil {
			errs = append(errs, fmt.Errorf("master output: %w", err))
		} else if len(transactions) > 0 {
			logger.Info("Appended transactions",
				logging.Field{Key: logging.FieldOutputFile, Value: o.opts.OutputFile},
				logging.Field{Key: logging.FieldCount, Value: len(transactions)})
		}
	}

	if o.opts.DataChecksFile != "" {
		if err := common.AppendDataChecks(o.opts.DataChecksFile, checks, o.opts.OutputDelimiter); err != nil {
			errs = append(errs, fmt.Errorf("data checks output: %w", err))
		}
	}

	if o.opts.ArchiveInputs && o.opts.ArchiveDir != "" && len(errs) == 0 {
		for _, path := range succeeded {
			dest, err := fileutils.ArchiveFile(path, o.opts.ArchiveDir, o.opts.Now())
			if err != nil {
				logger.WithError(err).Warn("Failed to archive input",
					logging.Field{Key: logging.FieldFile, Value: path})
				continue
			}
			logger.Debug("Archived input",
				logging.Field{Key: logging.FieldFile, Value: path},
				logging.Field{Key: "archived_to", Value: dest})
		}
	}

	return errors.Join(errs...)
}
