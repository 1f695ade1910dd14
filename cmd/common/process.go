// Package common contains shared functionality for command handlers
package common

import (
	"context"
	"fmt"
	"io"

	"fjacquet/expense-manager/internal/container"
	"fjacquet/expense-manager/internal/logging"
	"fjacquet/expense-manager/internal/models"
	"fjacquet/expense-manager/internal/validation"

	"github.com/schollz/progressbar/v3"
)

// RunOptions are the per-invocation knobs of a pipeline run.
type RunOptions struct {
	Paths        []string // files or directories; empty means the configured input dir
	Format       string   // report format: text, json or yaml
	Archive      bool
	ShowProgress bool
}

// ProcessFiles scans the inputs, runs the pipeline and writes the report to
// out. Progress, when enabled, goes to progressOut.
func ProcessFiles(ctx context.Context, c *container.Container, opts RunOptions, out, progressOut io.Writer) (*models.RunSummary, error) {
	log := c.GetLogger()

	if err := validation.IsValidOutputFormat(opts.Format); err != nil {
		return nil, err
	}

	paths := opts.Paths
	if len(paths) == 0 {
		paths = []string{c.GetConfig().Paths.InputDir}
	}
	for _, p := range paths {
		if err := validation.IsValidPath(p); err != nil {
			return nil, err
		}
	}

	files, err := c.GetScanner().ScanPaths(paths)
	if err != nil {
		return nil, fmt.Errorf("failed to scan inputs: %w", err)
	}
	log.Info("Found files for processing", logging.Field{Key: logging.FieldCount, Value: len(files)})

	runOpts := c.OrchestratorOptions()
	runOpts.ArchiveInputs = runOpts.ArchiveInputs || opts.Archive

	if opts.ShowProgress && len(files) > 0 {
		bar := progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(progressOut),
			progressbar.OptionSetDescription("Processing files"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		runOpts.OnFileDone = func(models.ProcessingResult) {
			_ = bar.Add(1)
		}
		defer func() { _ = bar.Finish() }()
	}

	summary, runErr := c.NewOrchestrator(runOpts).Run(ctx, files)
	if summary == nil {
		return nil, runErr
	}

	report, err := c.GetReportGenerator().GenerateReport(summary, opts.Format)
	if err != nil {
		return summary, err
	}
	if _, err := out.Write(report); err != nil {
		return summary, fmt.Errorf("failed to write report: %w", err)
	}
	return summary, runErr
}
