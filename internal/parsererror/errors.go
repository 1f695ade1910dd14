// Package parsererror defines the typed errors raised while turning a bank
// export into categorized transactions.
package parsererror

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStoreLoad marks a reference store that exists but cannot be read. It is
// the only error that aborts a whole run.
var ErrStoreLoad = errors.New("reference store could not be loaded")

// FormatDetectionError is returned when no column layout matches a file.
type FormatDetectionError struct {
	File    string
	Missing []string // roles that could not be located, if known
	Msg     string
}

func (e *FormatDetectionError) Error() string {
	var b strings.Builder
	b.WriteString("format detection failed")
	if e.File != "" {
		fmt.Fprintf(&b, " for '%s'", e.File)
	}
	if e.Msg != "" {
		fmt.Fprintf(&b, ": %s", e.Msg)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, " (missing: %s)", strings.Join(e.Missing, ", "))
	}
	return b.String()
}

// NumericParseError is returned for amount strings that carry no number.
type NumericParseError struct {
	Value string
	Row   int // 1-based data row, 0 when unknown
	Err   error
}

func (e *NumericParseError) Error() string {
	msg := fmt.Sprintf("failed to parse amount '%s'", e.Value)
	if e.Row > 0 {
		msg = fmt.Sprintf("row %d: %s", e.Row, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NumericParseError) Unwrap() error {
	return e.Err
}

// DateParseError is returned for date cells that match no known layout.
type DateParseError struct {
	Value string
	Row   int
}

func (e *DateParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: unable to parse date '%s'", e.Row, e.Value)
	}
	return fmt.Sprintf("unable to parse date '%s'", e.Value)
}

// OracleTransportError wraps a failed request to a classification backend.
type OracleTransportError struct {
	Backend string
	Err     error
}

func (e *OracleTransportError) Error() string {
	return fmt.Sprintf("%s: classification request failed: %v", e.Backend, e.Err)
}

func (e *OracleTransportError) Unwrap() error {
	return e.Err
}

// OracleOutputMalformedError is returned when a classification response
// yields no usable description/category pair at all.
type OracleOutputMalformedError struct {
	Raw string
}

func (e *OracleOutputMalformedError) Error() string {
	raw := e.Raw
	if r := []rune(raw); len(r) > 120 {
		raw = string(r[:120]) + "..."
	}
	return fmt.Sprintf("classification output could not be parsed: '%s'", raw)
}

// FileError attaches the input file to an error raised while processing it.
type FileError struct {
	File  string
	Stage string
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.File, e.Stage, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// IsFileFatal reports whether err belongs to the classes that fail a single
// file without affecting the rest of the run.
func IsFileFatal(err error) bool {
	var fd *FormatDetectionError
	var np *NumericParseError
	var dp *DateParseError
	return errors.As(err, &fd) || errors.As(err, &np) || errors.As(err, &dp)
}

// IsRetryable reports whether a classification failure should be retried.
func IsRetryable(err error) bool {
	var te *OracleTransportError
	var me *OracleOutputMalformedError
	return errors.As(err, &te) || errors.As(err, &me)
}
