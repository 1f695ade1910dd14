// Package categorize handles ad-hoc categorization of descriptions
package categorize

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"fjacquet/expense-manager/cmd/root"
	"fjacquet/expense-manager/internal/container"
	"fjacquet/expense-manager/internal/logging"

	"github.com/spf13/cobra"
)

var save bool

// Cmd represents the categorize command
var Cmd = &cobra.Command{
	Use:   "categorize <description>...",
	Short: "Categorize transaction descriptions",
	Long: `Categorize transaction descriptions given on the command line with the same
strategy as a run: fuzzy match against the reference store first, then the AI
model for whatever is left, then the fallback category.`,
	Args: cobra.MinimumNArgs(1),
	RunE: categorizeFunc,
}

func init() {
	Cmd.Flags().BoolVarP(&save, "save", "s", false, "Merge AI answers into the reference store")
}

func categorizeFunc(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	if c == nil {
		return fmt.Errorf("container not initialized")
	}
	return Categorize(cmd.Context(), c, args, save, cmd.OutOrStdout())
}

// Categorize resolves descriptions and prints one line per distinct
// description with its category and the tier that decided it.
func Categorize(ctx context.Context, c *container.Container, descriptions []string, save bool, out io.Writer) error {
	var cleaned []string
	for _, d := range descriptions {
		if d = strings.TrimSpace(d); d != "" {
			cleaned = append(cleaned, d)
		}
	}
	if len(cleaned) == 0 {
		return fmt.Errorf("no description given")
	}

	cat, err := c.NewCategorizer()
	if err != nil {
		return err
	}
	resolved, learned, stats := cat.Resolve(ctx, cleaned)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, r := range resolved.Sorted() {
		fmt.Fprintf(w, "%s\t%s\t(%s)\n", r.Description, r.Category, r.Source)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	c.GetLogger().Debug("Categorized descriptions",
		logging.Field{Key: "sources", Value: resolved.Summary()},
		logging.Field{Key: "batches", Value: stats.Batches})

	if save && len(learned) > 0 {
		if err := c.GetReferenceStore().Merge(learned); err != nil {
			return fmt.Errorf("failed to save reference pairs: %w", err)
		}
	}
	return nil
}
