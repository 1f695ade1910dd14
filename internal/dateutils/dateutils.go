// Package dateutils parses the date columns of bank exports and renders the
// canonical calendar-date form used in the master output.
package dateutils

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Common date layouts.
const (
	DateLayoutISO       = "2006-01-02"
	DateLayoutCanonical = "2006/01/02"
	DateLayoutEuropean  = "2.1.2006"
	DateLayoutUS        = "1/2/2006"
	DateLayoutDayFirst  = "2/1/2006"
	DateLayoutFull      = "2006-01-02 15:04:05"
	DateLayoutWithMonth = "2-Jan-2006"
)

// unambiguous layouts, tried before any day/month ordering question arises
var isoLayouts = []string{
	DateLayoutISO,
	DateLayoutCanonical,
	"2006.01.02",
	"2006-1-2",
	"2006/1/2",
	DateLayoutFull,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"20060102",
}

var monthFirstLayouts = []string{
	DateLayoutUS,
	"1-2-2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"01/02/06",
}

var dayFirstLayouts = []string{
	DateLayoutDayFirst,
	"2-1-2006",
	DateLayoutEuropean,
	"2/1/2006 15:04",
	"2/1/2006 15:04:05",
	"02/01/06",
	"02.01.06",
}

var textLayouts = []string{
	DateLayoutWithMonth,
	"02-Jan-2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
}

var spaceRe = regexp.MustCompile(`\s+`)

// Parser parses date cells. The day-first flag decides how an ambiguous
// column like "03/04/2024" is read when no value in it settles the question.
type Parser struct {
	layouts []string
}

// NewParser returns a Parser preferring month-first or day-first layouts.
func NewParser(dayFirst bool) *Parser {
	layouts := make([]string, 0, len(isoLayouts)+len(monthFirstLayouts)+len(dayFirstLayouts)+len(textLayouts))
	layouts = append(layouts, isoLayouts...)
	if dayFirst {
		layouts = append(layouts, dayFirstLayouts...)
		layouts = append(layouts, monthFirstLayouts...)
	} else {
		layouts = append(layouts, monthFirstLayouts...)
		layouts = append(layouts, dayFirstLayouts...)
	}
	layouts = append(layouts, textLayouts...)
	return &Parser{layouts: layouts}
}

// InferLayout returns the first layout that parses every non-empty value, or
// "" when no single layout fits the whole column. Inferring per column keeps
// "01/02/2024" and "13/02/2024" in the same file on the same reading.
func (p *Parser) InferLayout(values []string) string {
	for _, layout := range p.layouts {
		matched := 0
		ok := true
		for _, v := range values {
			v = cleanDateString(v)
			if v == "" {
				continue
			}
			if _, err := time.Parse(layout, v); err != nil {
				ok = false
				break
			}
			matched++
		}
		if ok && matched > 0 {
			return layout
		}
	}
	return ""
}

// Parse parses value, trying layout first when given, then every known
// layout, then free-form inference. The result is a calendar date at UTC
// midnight.
func (p *Parser) Parse(value, layout string) (time.Time, bool) {
	value = cleanDateString(value)
	if value == "" {
		return time.Time{}, false
	}
	if layout != "" {
		if t, err := time.Parse(layout, value); err == nil {
			return truncateToDate(t), true
		}
	}
	for _, l := range p.layouts {
		if t, err := time.Parse(l, value); err == nil {
			return truncateToDate(t), true
		}
	}
	if t, err := dateparse.ParseAny(value); err == nil {
		return truncateToDate(t), true
	}
	return time.Time{}, false
}

// FormatCanonical renders t as YYYY/MM/DD.
func FormatCanonical(t time.Time) string {
	return t.Format(DateLayoutCanonical)
}

// truncateToDate drops the time-of-day and zone, keeping the calendar date.
func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// cleanDateString trims and collapses whitespace.
func cleanDateString(dateStr string) string {
	return spaceRe.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}
