package normalizer

import (
	"errors"
	"testing"
	"time"

	"fjacquet/expense-manager/internal/common"
	"fjacquet/expense-manager/internal/detector"
	"fjacquet/expense-manager/internal/logging"
	"fjacquet/expense-manager/internal/models"
	"fjacquet/expense-manager/internal/parsererror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run reads csv text, detects its layout and normalizes it.
func run(t *testing.T, csv string) ([]models.Transaction, models.FormatVariant, error) {
	t.Helper()
	table, err := common.ParseRawTable([]byte(csv), ',')
	require.NoError(t, err)

	roles, variant, err := detector.Detect(table.Header, table.Rows)
	if err != nil {
		return nil, 0, err
	}
	txs, err := New(false, logging.NewMockLogger()).Normalize("bank.csv", table, roles, variant)
	return txs, variant, err
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNormalize_SpanishOnlyAmounts(t *testing.T) {
	txs, variant, err := run(t, "Fecha,Concepto,Importe\n2024/01/05,SUPERMERCADO,\"-45,30\"\n")
	require.NoError(t, err)
	assert.Equal(t, models.OnlyAmounts, variant)
	require.Len(t, txs, 1)

	tx := txs[0]
	assert.Equal(t, day(2024, 1, 5), tx.Date)
	assert.Equal(t, models.Debit, tx.Type)
	assert.True(t, amount("-45.30").Equal(tx.Amount))
	assert.Equal(t, "SUPERMERCADO", tx.Description)
	assert.Equal(t, "bank.csv", tx.SourceFile)
	assert.Empty(t, tx.Category)
}

func TestNormalize_CreditDebitColumns(t *testing.T) {
	txs, variant, err := run(t, "Date,Debit,Credit,Description\n2024/02/01,12.50,,Coffee Shop\n")
	require.NoError(t, err)
	assert.Equal(t, models.CrDbAmounts, variant)
	require.Len(t, txs, 1, "empty credit cell produces no row")

	assert.Equal(t, models.Debit, txs[0].Type)
	assert.True(t, amount("-12.50").Equal(txs[0].Amount))
}

func TestNormalize_CreditDebitMelt(t *testing.T) {
	csv := "Date,Description,Credit,Debit\n" +
		"2024-03-01,Salary,1500.00,\n" +
		"2024-03-02,Both,10.00,4.00\n" +
		"2024-03-03,Nothing,,\n" +
		"2024-03-04,Rent,,-800.00\n"
	txs, _, err := run(t, csv)
	require.NoError(t, err)
	require.Len(t, txs, 4)

	assert.Equal(t, models.Credit, txs[0].Type)
	assert.True(t, amount("1500").Equal(txs[0].Amount))
	assert.Equal(t, "Both", txs[1].Description)
	assert.Equal(t, models.Credit, txs[1].Type)
	assert.Equal(t, "Both", txs[2].Description)
	assert.Equal(t, models.Debit, txs[2].Type)
	assert.True(t, amount("-4").Equal(txs[2].Amount))
	assert.Equal(t, "Rent", txs[3].Description)
	assert.True(t, amount("-800").Equal(txs[3].Amount), "debit is negative whatever the source sign")
}

func TestNormalize_TypeAmounts(t *testing.T) {
	csv := "Date,Description,Type,Amount\n" +
		"01/15/2024,Refund,CR,-20.00\n" +
		"01/16/2024,Groceries,Debit,35.10\n" +
		"01/17/2024,Unknown,,-3.00\n"
	txs, variant, err := run(t, csv)
	require.NoError(t, err)
	assert.Equal(t, models.TypeAmounts, variant)
	require.Len(t, txs, 3)

	assert.Equal(t, models.Credit, txs[0].Type)
	assert.True(t, amount("20").Equal(txs[0].Amount))
	assert.Equal(t, models.Debit, txs[1].Type)
	assert.True(t, amount("-35.10").Equal(txs[1].Amount))
	assert.Equal(t, models.Debit, txs[2].Type, "blank type follows the amount sign")
	assert.Equal(t, day(2024, 1, 15), txs[0].Date)

	for _, tx := range txs {
		assert.True(t, tx.SignConsistent())
	}
}

func TestNormalize_OnlyAmountsMajorityInversion(t *testing.T) {
	csv := "Date,Description,Amount\n" +
		"2024-01-01,Shop A,10.00\n" +
		"2024-01-02,Shop B,20.00\n" +
		"2024-01-03,Payroll,-100.00\n" +
		"2024-01-04,Nothing,0\n"
	txs, _, err := run(t, csv)
	require.NoError(t, err)
	require.Len(t, txs, 4)

	assert.True(t, amount("-10").Equal(txs[0].Amount))
	assert.Equal(t, models.Debit, txs[0].Type)
	assert.True(t, amount("100").Equal(txs[2].Amount))
	assert.Equal(t, models.Credit, txs[2].Type)
	assert.Equal(t, models.Credit, txs[3].Type, "zero is a credit")
}

func TestNormalize_OnlyAmountsNegativeMajorityKept(t *testing.T) {
	csv := "Date,Description,Amount\n2024-01-01,A,-1\n2024-01-02,B,-2\n2024-01-03,C,5\n"
	txs, _, err := run(t, csv)
	require.NoError(t, err)

	assert.True(t, amount("-1").Equal(txs[0].Amount))
	assert.True(t, amount("5").Equal(txs[2].Amount))
}

func TestNormalize_DayFirstColumn(t *testing.T) {
	txs, _, err := run(t, "Fecha,Concepto,Importe\n01/02/2024,A,-1\n13/02/2024,B,-1\n")
	require.NoError(t, err)
	assert.Equal(t, day(2024, 2, 1), txs[0].Date)
	assert.Equal(t, day(2024, 2, 13), txs[1].Date)
}

func TestNormalize_RowsWithoutAmountSkipped(t *testing.T) {
	txs, _, err := run(t, "Date,Description,Amount\n2024-01-01,A,-1\n2024-01-02,Pending,\n")
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestNormalize_NumericParseError(t *testing.T) {
	_, _, err := run(t, "Date,Description,Amount\n2024-01-01,A,-1\n2024-01-02,B,n/a\n")
	require.Error(t, err)

	var numErr *parsererror.NumericParseError
	require.True(t, errors.As(err, &numErr))
	assert.Equal(t, 2, numErr.Row)
	assert.Equal(t, "n/a", numErr.Value)
}

func TestNormalize_DateParseError(t *testing.T) {
	_, _, err := run(t, "Date,Description,Amount\nsoon,A,-1\n")

	var dateErr *parsererror.DateParseError
	require.True(t, errors.As(err, &dateErr))
	assert.Equal(t, 1, dateErr.Row)
}

func TestNormalize_UnknownVariant(t *testing.T) {
	_, err := New(false, nil).Normalize("x.csv", models.RawTable{}, models.ColumnRoleMap{}, models.FormatVariant(0))
	assert.Error(t, err)
}
