package detector

import "strings"

// Header keyword sets, English and Spanish. Header names are matched by
// substring except credit/debit names, which must match exactly.
var (
	DateKeywords        = []string{"date", "fecha"}
	DescriptionKeywords = []string{"desc", "desc.", "description", "descripción", "concepto"}
	AmountKeywords      = []string{"amount", "cantidad", "monto", "importe", "valor"}
	TypeNameKeywords    = []string{"type", "tipo"}

	CreditNames = []string{"credit", "cr", "cr.", "c"}
	DebitNames  = []string{"debit", "dr", "dr.", "d"}
)

// containsAny reports whether header contains one of the keywords.
func containsAny(header string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(header, k) {
			return true
		}
	}
	return false
}

func equalsAny(value string, names []string) bool {
	for _, n := range names {
		if value == n {
			return true
		}
	}
	return false
}

// IsCreditValue reports whether a type cell means credit.
func IsCreditValue(value string) bool {
	return equalsAny(strings.ToLower(strings.TrimSpace(value)), CreditNames)
}

// IsDebitValue reports whether a type cell means debit.
func IsDebitValue(value string) bool {
	return equalsAny(strings.ToLower(strings.TrimSpace(value)), DebitNames)
}

// IsTypeValue reports whether a cell belongs to the credit/debit vocabulary.
func IsTypeValue(value string) bool {
	return IsCreditValue(value) || IsDebitValue(value)
}
