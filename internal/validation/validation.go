// Package validation checks run inputs and the integrity of processed files.
package validation

import (
	"fmt"
	"os"
	"strings"

	"fjacquet/expense-manager/internal/currencyutils"
	"fjacquet/expense-manager/internal/models"

	"github.com/shopspring/decimal"
)

// Report formats accepted by IsValidOutputFormat.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// IsValidPath checks if a given path exists and is a regular file or a
// directory.
func IsValidPath(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", path, err)
	}

	if !info.IsDir() && !info.Mode().IsRegular() {
		return fmt.Errorf("path %s is neither a file nor a directory", path)
	}

	return nil
}

// IsValidOutputFormat checks if the given report format is supported.
func IsValidOutputFormat(format string) error {
	switch strings.ToLower(format) {
	case FormatText, FormatJSON, FormatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s. Supported formats are 'text', 'json', 'yaml'", format)
	}
}

// IsValidFilePermissions checks that others have no access to a file.
func IsValidFilePermissions(mode os.FileMode) error {
	if mode&0007 != 0 {
		return fmt.Errorf("file permissions are too permissive: %s. Recommended 0600 or 0644", mode.String())
	}
	return nil
}

// BuildDataCheck compares a file's transactions before and after
// categorization.
func BuildDataCheck(file string, before, after []models.Transaction) models.DataCheck {
	return models.DataCheck{
		File:       file,
		AmountIn:   total(before),
		AmountOut:  total(after),
		RecordsIn:  len(before),
		RecordsOut: len(after),
	}
}

// CheckBalanced returns an error describing how check is off, or nil.
func CheckBalanced(check models.DataCheck) error {
	if check.Balanced() {
		return nil
	}
	return fmt.Errorf("%s: records %d -> %d, amount %s -> %s",
		check.File,
		check.RecordsIn, check.RecordsOut,
		currencyutils.FormatAmount(check.AmountIn), currencyutils.FormatAmount(check.AmountOut))
}

func total(txs []models.Transaction) decimal.Decimal {
	amounts := make([]decimal.Decimal, len(txs))
	for i, tx := range txs {
		amounts[i] = tx.Amount
	}
	return currencyutils.Sum(amounts...)
}
