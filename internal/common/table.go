package common

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"fjacquet/expense-manager/internal/models"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	utf8BOM = []byte("\xef\xbb\xbf")
	folder  = cases.Fold()

	candidateDelimiters = []rune{',', ';', '\t', '|'}
)

// ErrEmptyTable is returned for files without a header row.
var ErrEmptyTable = errors.New("file has no header row")

// FoldHeader normalizes a header name: trimmed, NFC-composed and case-folded,
// so "  Descripción" and "DESCRIPCIÓN" compare equal.
func FoldHeader(name string) string {
	return folder.String(norm.NFC.String(strings.TrimSpace(name)))
}

// ReadRawTable reads a delimited file into a RawTable. A zero delimiter means
// sniff it from the header line.
func ReadRawTable(path string, delimiter rune) (models.RawTable, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- input paths come from the scanned input directory
	if err != nil {
		return models.RawTable{}, fmt.Errorf("error opening CSV file: %w", err)
	}
	return ParseRawTable(data, delimiter)
}

// ParseRawTable decodes data to UTF-8 and parses it. Non UTF-8 exports
// (typically windows-1252 from older bank portals) are transcoded first.
func ParseRawTable(data []byte, delimiter rune) (models.RawTable, error) {
	decoded, err := DecodeToUTF8(data)
	if err != nil {
		return models.RawTable{}, err
	}
	if delimiter == 0 {
		delimiter = SniffDelimiter(decoded)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return models.RawTable{}, ErrEmptyTable
	}
	if err != nil {
		return models.RawTable{}, fmt.Errorf("error reading CSV header: %w", err)
	}

	table := models.RawTable{Header: make([]string, len(header))}
	for i, h := range header {
		table.Header[i] = FoldHeader(h)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.RawTable{}, fmt.Errorf("error reading CSV row %d: %w", len(table.Rows)+1, err)
		}
		if blankRecord(record) {
			continue
		}

		row := make(map[string]string, len(table.Header))
		for i, name := range table.Header {
			if _, seen := row[name]; seen {
				continue // duplicate header names keep the first column
			}
			if i < len(record) {
				row[name] = strings.TrimSpace(record[i])
			} else {
				row[name] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// DecodeToUTF8 returns data as UTF-8 without a leading BOM. Input that is
// not valid UTF-8 is transcoded using its BOM or, failing that, the charset
// sniffer's windows-1252 default.
func DecodeToUTF8(data []byte) ([]byte, error) {
	if utf8.Valid(data) {
		return bytes.TrimPrefix(data, utf8BOM), nil
	}
	enc, name, _ := charset.DetermineEncoding(data, "text/csv")
	if name != "utf-8" {
		decoded, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("error decoding %s input: %w", name, err)
		}
		data = decoded
	}
	return bytes.TrimPrefix(data, utf8BOM), nil
}

// SniffDelimiter picks the candidate delimiter occurring most often on the
// first line, defaulting to a comma.
func SniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', 0
	for _, d := range candidateDelimiters {
		if n := strings.Count(string(line), string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
