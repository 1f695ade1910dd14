// Package run implements the pipeline command.
package run

import (
	"fmt"

	"fjacquet/expense-manager/cmd/common"
	"fjacquet/expense-manager/cmd/root"

	"github.com/spf13/cobra"
)

var (
	format     string
	archive    bool
	noProgress bool
)

// Cmd represents the run command
var Cmd = &cobra.Command{
	Use:   "run [file|dir]...",
	Short: "Normalize and categorize bank CSV exports",
	Long: `Process every CSV export in the given files or directories (default: the
configured input directory). Each file is normalized and categorized
independently; a failing file is reported and skipped. Categorized
transactions are appended to the master output, newly learned descriptions
are merged into the reference store and a run summary is printed.

Example:
  expense-manager run
  expense-manager run data/tx_data/input --format json --archive`,
	RunE: runFunc,
}

func init() {
	Cmd.Flags().StringVarP(&format, "format", "f", "text", "Summary format (text, json, yaml)")
	Cmd.Flags().BoolVar(&archive, "archive", false, "Move successfully processed inputs to the archive folder")
	Cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
}

func runFunc(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	if c == nil {
		return fmt.Errorf("container not initialized")
	}

	summary, err := common.ProcessFiles(cmd.Context(), c, common.RunOptions{
		Paths:        args,
		Format:       format,
		Archive:      archive,
		ShowProgress: !noProgress,
	}, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		c.GetLogger().Warn(fmt.Sprintf("%d of %d files failed", summary.Failed, summary.Processed))
	}
	return nil
}
