// Package common holds the CSV plumbing shared by the pipeline: reading bank
// exports into raw tables and appending to the master outputs.
package common

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fjacquet/expense-manager/internal/currencyutils"
	"fjacquet/expense-manager/internal/dateutils"
	"fjacquet/expense-manager/internal/models"

	"github.com/gocarina/gocsv"
)

// MasterRow is one line of the master transaction output.
type MasterRow struct {
	Source      string `csv:"Source"`
	Date        string `csv:"Date"`
	Type        string `csv:"Type"`
	Category    string `csv:"Category"`
	Description string `csv:"Description"`
	Amount      string `csv:"Amount"`
}

// DataCheckRow is one line of the data checks output.
type DataCheckRow struct {
	File       string `csv:"File"`
	AmountIn   string `csv:"Amount In"`
	AmountOut  string `csv:"Amount Out"`
	RecordsIn  int    `csv:"Records In"`
	RecordsOut int    `csv:"Records Out"`
}

// ToMasterRows renders transactions in the master output format.
func ToMasterRows(transactions []models.Transaction) []MasterRow {
	rows := make([]MasterRow, len(transactions))
	for i, tx := range transactions {
		rows[i] = MasterRow{
			Source:      tx.SourceFile,
			Date:        dateutils.FormatCanonical(tx.Date),
			Type:        string(tx.Type),
			Category:    tx.Category,
			Description: tx.Description,
			Amount:      currencyutils.FormatAmount(tx.Amount),
		}
	}
	return rows
}

// ToDataCheckRows renders data checks in the output format.
func ToDataCheckRows(checks []models.DataCheck) []DataCheckRow {
	rows := make([]DataCheckRow, len(checks))
	for i, c := range checks {
		rows[i] = DataCheckRow{
			File:       c.File,
			AmountIn:   currencyutils.FormatAmount(c.AmountIn),
			AmountOut:  currencyutils.FormatAmount(c.AmountOut),
			RecordsIn:  c.RecordsIn,
			RecordsOut: c.RecordsOut,
		}
	}
	return rows
}

// AppendTransactions appends transactions to the master output, writing the
// header only when the file is new or empty.
func AppendTransactions(path string, transactions []models.Transaction, delimiter rune) error {
	return AppendCSV(path, ToMasterRows(transactions), delimiter)
}

// AppendDataChecks appends data check rows to path.
func AppendDataChecks(path string, checks []models.DataCheck, delimiter rune) error {
	return AppendCSV(path, ToDataCheckRows(checks), delimiter)
}

// AppendCSV appends rows to a CSV file with gocsv. The header row is written
// only when the file does not exist yet or is empty.
func AppendCSV[T any](path string, rows []T, delimiter rune) error {
	if len(rows) == 0 {
		return nil
	}
	if delimiter == 0 {
		delimiter = ','
	}

	if err := os.MkdirAll(filepath.Dir(path), models.PermissionDirectory); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	withHeader := true
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		withHeader = false
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, models.PermissionDataFile) // #nosec G304 -- output path comes from configuration
	if err != nil {
		return fmt.Errorf("error opening CSV file: %w", err)
	}

	if err := WriteCSV(file, rows, delimiter, withHeader); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("error closing CSV file: %w", err)
	}
	return nil
}

// WriteCSV marshals rows to w.
func WriteCSV[T any](w io.Writer, rows []T, delimiter rune, withHeader bool) error {
	csvWriter := csv.NewWriter(w)
	if delimiter != 0 {
		csvWriter.Comma = delimiter
	}
	safe := gocsv.NewSafeCSVWriter(csvWriter)

	var err error
	if withHeader {
		err = gocsv.MarshalCSV(rows, safe)
	} else {
		err = gocsv.MarshalCSVWithoutHeaders(rows, safe)
	}
	if err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

// ReadCSVFile reads a CSV file with a header row into a slice of structs.
func ReadCSVFile[TCSVRow any](filePath string) ([]TCSVRow, error) {
	file, err := os.Open(filePath) // #nosec G304 -- path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	var rows []TCSVRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("error parsing CSV file: %w", err)
	}
	return rows, nil
}
