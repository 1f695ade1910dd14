// Package scanner collects the bank export files a run should process.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fjacquet/expense-manager/internal/fileutils"
	"fjacquet/expense-manager/internal/logging"
)

// DefaultExtension is the only input suffix recognized, compared
// case-insensitively.
const DefaultExtension = ".csv"

// InputScanner finds input files.
type InputScanner struct {
	extension string
	logger    logging.Logger
}

// NewInputScanner creates a scanner for DefaultExtension.
func NewInputScanner(logger logging.Logger) *InputScanner {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &InputScanner{
		extension: DefaultExtension,
		logger:    logger.WithField(logging.FieldComponent, "InputScanner"),
	}
}

// ScanPaths resolves paths (files or directories) into a sorted, duplicate
// free list of input files. Directories contribute their direct children with
// the recognized extension; explicit files are taken as given.
func (s *InputScanner) ScanPaths(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			s.logger.WithError(err).WithField("path", p).Error("Failed to stat path")
			return nil, fmt.Errorf("failed to stat path %s: %w", p, err)
		}

		if !info.IsDir() {
			add(filepath.Clean(p))
			continue
		}

		found, err := fileutils.ListFilesWithExtension(p, s.extension)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			s.logger.Warn("No input files found",
				logging.Field{Key: "path", Value: p},
				logging.Field{Key: "extension", Value: s.extension})
		}
		for _, f := range found {
			add(f)
		}
	}

	sort.Strings(files)
	return files, nil
}

// IsInputFile reports whether path carries the recognized extension.
func (s *InputScanner) IsInputFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), s.extension)
}
