// Package ref manages the reference store from the command line.
package ref

import (
	"fmt"
	"io"
	"strings"

	"fjacquet/expense-manager/cmd/root"
	"fjacquet/expense-manager/internal/common"
	"fjacquet/expense-manager/internal/models"
	"fjacquet/expense-manager/internal/store"

	"github.com/spf13/cobra"
)

// Cmd groups the reference store subcommands.
var Cmd = &cobra.Command{
	Use:   "ref",
	Short: "Inspect and edit the reference store",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every description/category pair",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := root.GetContainer()
		if c == nil {
			return fmt.Errorf("container not initialized")
		}
		return List(c.GetReferenceStore(), cmd.OutOrStdout())
	},
}

var addCmd = &cobra.Command{
	Use:   "add <description> <category>",
	Short: "Add a pair; an existing description keeps its category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := root.GetContainer()
		if c == nil {
			return fmt.Errorf("container not initialized")
		}
		return Add(c.GetReferenceStore(), args[0], args[1], cmd.OutOrStdout())
	},
}

func init() {
	Cmd.AddCommand(listCmd, addCmd)
}

// List writes the store as CSV to out, sorted by description.
func List(s *store.ReferenceStore, out io.Writer) error {
	pairs, err := s.Load()
	if err != nil {
		return err
	}
	return common.WriteCSV(out, store.Dedup(pairs), ',', true)
}

// Add merges one pair into the store.
func Add(s *store.ReferenceStore, description, category string, out io.Writer) error {
	pair := models.ReferencePair{
		Description: strings.TrimSpace(description),
		Category:    strings.TrimSpace(category),
	}
	if pair.Description == "" || pair.Category == "" {
		return fmt.Errorf("description and category must not be empty")
	}

	before, err := s.Load()
	if err != nil {
		return err
	}
	for _, p := range before {
		if p.Description == pair.Description {
			fmt.Fprintf(out, "%q already categorized as %q\n", p.Description, p.Category)
			return nil
		}
	}
	if err := s.Merge([]models.ReferencePair{pair}); err != nil {
		return err
	}
	fmt.Fprintf(out, "Added %q -> %q\n", pair.Description, pair.Category)
	return nil
}
