// Package normalizer turns a detected raw table into canonical transactions.
package normalizer

import (
	"errors"
	"fmt"
	"time"

	"fjacquet/expense-manager/internal/currencyutils"
	"fjacquet/expense-manager/internal/dateutils"
	"fjacquet/expense-manager/internal/detector"
	"fjacquet/expense-manager/internal/logging"
	"fjacquet/expense-manager/internal/models"
	"fjacquet/expense-manager/internal/parsererror"

	"github.com/shopspring/decimal"
)

// Normalizer applies a ColumnRoleMap to a RawTable.
type Normalizer struct {
	dates  *dateutils.Parser
	logger logging.Logger
}

// New returns a Normalizer. dayFirst decides ambiguous date columns.
func New(dayFirst bool, logger logging.Logger) *Normalizer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Normalizer{dates: dateutils.NewParser(dayFirst), logger: logger}
}

// typedRow is a row reduced to the fields every variant shares, after the
// credit/debit reshape.
type typedRow struct {
	index       int // 1-based data row
	date        string
	description string
	txType      string // raw type cell, empty when the layout has none
	amount      string
}

// Normalize produces one transaction per usable row, tagged with sourceFile.
func (n *Normalizer) Normalize(sourceFile string, table models.RawTable, roles models.ColumnRoleMap, variant models.FormatVariant) ([]models.Transaction, error) {
	switch variant {
	case models.CrDbAmounts:
		return n.typeAmounts(sourceFile, meltCreditDebit(table, roles))
	case models.TypeAmounts:
		return n.typeAmounts(sourceFile, project(table, roles, true))
	case models.OnlyAmounts:
		return n.onlyAmounts(sourceFile, project(table, roles, false))
	default:
		return nil, fmt.Errorf("unsupported format variant %s", variant)
	}
}

func project(table models.RawTable, roles models.ColumnRoleMap, withType bool) []typedRow {
	dateCol := roles[models.RoleDate]
	descCol := roles[models.RoleDescription]
	amountCol := roles[models.RoleAmount]
	typeCol := roles[models.RoleType]

	out := make([]typedRow, 0, len(table.Rows))
	for i, row := range table.Rows {
		r := typedRow{
			index:       i + 1,
			date:        row[dateCol],
			description: row[descCol],
			amount:      row[amountCol],
		}
		if withType {
			r.txType = row[typeCol]
		}
		out = append(out, r)
	}
	return out
}

// meltCreditDebit reshapes the credit and debit columns into one typed row
// per non-empty cell. Rows with both cells empty disappear.
func meltCreditDebit(table models.RawTable, roles models.ColumnRoleMap) []typedRow {
	dateCol := roles[models.RoleDate]
	descCol := roles[models.RoleDescription]
	creditCol := roles[models.RoleCredit]
	debitCol := roles[models.RoleDebit]

	out := make([]typedRow, 0, len(table.Rows))
	for i, row := range table.Rows {
		base := typedRow{index: i + 1, date: row[dateCol], description: row[descCol]}
		if v := row[creditCol]; v != "" {
			r := base
			r.txType, r.amount = detector.CreditNames[0], v
			out = append(out, r)
		}
		if v := row[debitCol]; v != "" {
			r := base
			r.txType, r.amount = detector.DebitNames[0], v
			out = append(out, r)
		}
	}
	return out
}

type parsedRow struct {
	typedRow
	when  time.Time
	value decimal.Decimal
}

// parse converts dates and amounts. Rows without an amount carry no money
// movement and are skipped.
func (n *Normalizer) parse(sourceFile string, rows []typedRow) ([]parsedRow, error) {
	dates := make([]string, len(rows))
	for i, r := range rows {
		dates[i] = r.date
	}
	layout := n.dates.InferLayout(dates)

	out := make([]parsedRow, 0, len(rows))
	skipped := 0
	for _, r := range rows {
		if r.amount == "" {
			skipped++
			continue
		}
		amount, err := currencyutils.ParseAmount(r.amount)
		if err != nil {
			var numErr *parsererror.NumericParseError
			if errors.As(err, &numErr) {
				numErr.Row = r.index
			}
			return nil, err
		}
		date, ok := n.dates.Parse(r.date, layout)
		if !ok {
			return nil, &parsererror.DateParseError{Value: r.date, Row: r.index}
		}
		out = append(out, parsedRow{typedRow: r, when: date, value: amount})
	}

	if skipped > 0 {
		n.logger.Debug("Skipped rows without amount",
			logging.Field{Key: logging.FieldFile, Value: sourceFile},
			logging.Field{Key: logging.FieldCount, Value: skipped})
	}
	return out, nil
}

// typeAmounts forces every amount's sign to agree with its type cell. Rows
// with a blank type cell take the type from the amount sign.
func (n *Normalizer) typeAmounts(sourceFile string, rows []typedRow) ([]models.Transaction, error) {
	parsed, err := n.parse(sourceFile, rows)
	if err != nil {
		return nil, err
	}

	out := make([]models.Transaction, 0, len(parsed))
	for _, r := range parsed {
		var txType models.TransactionType
		switch {
		case detector.IsCreditValue(r.txType):
			txType = models.Credit
		case detector.IsDebitValue(r.txType):
			txType = models.Debit
		case r.txType == "":
			txType = typeFromSign(r.value)
		default:
			return nil, fmt.Errorf("row %d: unknown transaction type %q", r.index, r.txType)
		}
		tx, err := models.NewTransaction(sourceFile, r.when, txType, r.description, r.value)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

// onlyAmounts applies the majority-sign heuristic: when positive amounts
// outnumber negative ones the file is assumed to list expenses as positive
// numbers and every sign is flipped. This is a guess, not a guarantee; a file
// that genuinely holds more credits than debits comes out inverted.
func (n *Normalizer) onlyAmounts(sourceFile string, rows []typedRow) ([]models.Transaction, error) {
	parsed, err := n.parse(sourceFile, rows)
	if err != nil {
		return nil, err
	}

	positives, negatives := 0, 0
	for _, r := range parsed {
		switch r.value.Sign() {
		case 1:
			positives++
		case -1:
			negatives++
		}
	}
	invert := positives > negatives
	if invert {
		n.logger.Info("Inverting amount signs, positive amounts are the majority",
			logging.Field{Key: logging.FieldFile, Value: sourceFile},
			logging.Field{Key: "positives", Value: positives},
			logging.Field{Key: "negatives", Value: negatives})
	}

	out := make([]models.Transaction, 0, len(parsed))
	for _, r := range parsed {
		amount := r.value
		if invert {
			amount = amount.Neg()
		}
		out = append(out, models.Transaction{
			SourceFile:  sourceFile,
			Date:        r.when,
			Type:        typeFromSign(amount),
			Description: r.description,
			Amount:      amount,
		})
	}
	return out, nil
}

func typeFromSign(amount decimal.Decimal) models.TransactionType {
	if amount.IsNegative() {
		return models.Debit
	}
	return models.Credit
}
