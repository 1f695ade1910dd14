// Package detector classifies a bank export's column layout.
package detector

import (
	"fjacquet/expense-manager/internal/models"
	"fjacquet/expense-manager/internal/parsererror"
)

// Detect maps header columns to roles and picks the layout variant.
//
// Headers are expected folded (see common.FoldHeader). The first header
// matching each keyword set wins; headers carrying a date keyword are never
// candidates for description or amount. A type column only counts when every
// non-blank sampled value is a credit/debit synonym, otherwise it is treated
// as a false positive and the next variant is tried.
func Detect(header []string, sample []map[string]string) (models.ColumnRoleMap, models.FormatVariant, error) {
	var dateCol, descCol, amountCol, typeCol, creditCol, debitCol string

	for _, h := range header {
		isDate := containsAny(h, DateKeywords)
		if dateCol == "" && isDate {
			dateCol = h
		}
		if descCol == "" && !isDate && containsAny(h, DescriptionKeywords) {
			descCol = h
		}
		if amountCol == "" && !isDate && containsAny(h, AmountKeywords) {
			amountCol = h
		}
		if typeCol == "" && containsAny(h, TypeNameKeywords) && typeValuesVerified(h, sample) {
			typeCol = h
		}
		if creditCol == "" && equalsAny(h, CreditNames) {
			creditCol = h
		}
		if debitCol == "" && equalsAny(h, DebitNames) {
			debitCol = h
		}
	}

	var missing []string
	if dateCol == "" {
		missing = append(missing, models.RoleDate.String())
	}
	if descCol == "" {
		missing = append(missing, models.RoleDescription.String())
	}
	if len(missing) > 0 {
		return nil, 0, &parsererror.FormatDetectionError{
			Missing: missing,
			Msg:     "required columns not found",
		}
	}

	roles := models.ColumnRoleMap{
		models.RoleDate:        dateCol,
		models.RoleDescription: descCol,
	}

	switch {
	case amountCol != "" && typeCol != "":
		roles[models.RoleAmount] = amountCol
		roles[models.RoleType] = typeCol
		return roles, models.TypeAmounts, nil
	case amountCol != "":
		roles[models.RoleAmount] = amountCol
		return roles, models.OnlyAmounts, nil
	case creditCol != "" && debitCol != "":
		roles[models.RoleCredit] = creditCol
		roles[models.RoleDebit] = debitCol
		return roles, models.CrDbAmounts, nil
	}

	return nil, 0, &parsererror.FormatDetectionError{
		Msg: "no amount, type or credit/debit columns matched",
	}
}

// typeValuesVerified reports whether the column holds only credit/debit
// synonyms. Blank cells are ignored but at least one value must be present.
func typeValuesVerified(column string, sample []map[string]string) bool {
	seen := 0
	for _, row := range sample {
		v := row[column]
		if v == "" {
			continue
		}
		if !IsTypeValue(v) {
			return false
		}
		seen++
	}
	return seen > 0
}
