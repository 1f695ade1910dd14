// Package currencyutils converts bank-export amount strings into decimals.
package currencyutils

import (
	"regexp"
	"strings"

	"fjacquet/expense-manager/internal/parsererror"

	"github.com/shopspring/decimal"
)

var (
	// currency symbols, ISO codes commonly glued to amounts, and every kind of space
	noiseRe = regexp.MustCompile(`(?i)[€$£¥₣₤₧₹₺₽₩฿₫₲₴₸₼₪\s\x{00A0}\x{202F}']|EUR|USD|GBP|CHF|MXN|ARS|COP|CLP|PEN`)
	digitRe = regexp.MustCompile(`\d`)

	periodGroupsRe = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
	commaGroupsRe  = regexp.MustCompile(`^\d{1,3}(,\d{3})+$`)
)

// ParseAmount parses a locale-formatted amount into a signed decimal.
//
// When a comma appears after the last period, or there is a comma and no
// period at all, the comma is the decimal separator and periods group
// thousands ("1.234,56"). Otherwise commas group thousands and the period is
// the decimal separator ("1,234.56"). A string with repeated separators of a
// single kind in groups of three ("1.234.567") is read as thousands grouping.
// Parentheses and a trailing minus mark negative amounts.
func ParseAmount(raw string) (decimal.Decimal, error) {
	standardized, ok := StandardizeAmount(raw)
	if !ok {
		return decimal.Zero, &parsererror.NumericParseError{Value: raw}
	}

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, &parsererror.NumericParseError{Value: raw, Err: err}
	}
	return amount, nil
}

// StandardizeAmount rewrites raw into the form accepted by
// decimal.NewFromString. The boolean is false when raw holds no digits.
func StandardizeAmount(raw string) (string, bool) {
	s := noiseRe.ReplaceAllString(strings.TrimSpace(raw), "")
	if !digitRe.MatchString(s) {
		return "", false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") {
		negative = true
		s = strings.TrimSuffix(s, "-")
	}
	switch {
	case strings.HasPrefix(s, "-"):
		negative = !negative
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	s = normalizeSeparators(s)
	if negative {
		s = "-" + s
	}
	return s, true
}

func normalizeSeparators(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastPeriod := strings.LastIndex(s, ".")

	switch {
	case lastComma < 0 && lastPeriod < 0:
		return s
	case lastComma < 0:
		if strings.Count(s, ".") > 1 && periodGroupsRe.MatchString(s) {
			return strings.ReplaceAll(s, ".", "")
		}
		return s
	case lastPeriod < 0:
		if strings.Count(s, ",") > 1 && commaGroupsRe.MatchString(s) {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case lastComma > lastPeriod:
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	default:
		return strings.ReplaceAll(s, ",", "")
	}
}

// FormatAmount renders an amount with two decimal places and no grouping.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// Sum adds up amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
