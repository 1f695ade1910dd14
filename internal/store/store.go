// Package store owns the reference store, the persistent description to
// category cache shared across runs.
package store

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"fjacquet/expense-manager/internal/common"
	"fjacquet/expense-manager/internal/fileutils"
	"fjacquet/expense-manager/internal/logging"
	"fjacquet/expense-manager/internal/models"
	"fjacquet/expense-manager/internal/parsererror"
)

// Snapshot is the read-only view of the store taken at run start.
type Snapshot struct {
	descriptions []string
	pairs        []models.ReferencePair
}

// NewSnapshot builds a snapshot over pairs. The slice is copied.
func NewSnapshot(pairs []models.ReferencePair) Snapshot {
	cp := make([]models.ReferencePair, len(pairs))
	copy(cp, pairs)
	descs := make([]string, len(cp))
	for i, p := range cp {
		descs[i] = p.Description
	}
	return Snapshot{descriptions: descs, pairs: cp}
}

// Len is the number of pairs.
func (s Snapshot) Len() int { return len(s.pairs) }

// Descriptions returns the known descriptions in store order.
func (s Snapshot) Descriptions() []string {
	out := make([]string, len(s.descriptions))
	copy(out, s.descriptions)
	return out
}

// Pairs returns a copy of the pairs in store order.
func (s Snapshot) Pairs() []models.ReferencePair {
	out := make([]models.ReferencePair, len(s.pairs))
	copy(out, s.pairs)
	return out
}

// Pair returns the i-th pair.
func (s Snapshot) Pair(i int) models.ReferencePair { return s.pairs[i] }

// ReferenceStore is the single writer of the reference file. Load it once at
// the start of a run and Merge once at the end.
type ReferenceStore struct {
	path      string
	delimiter rune
	logger    logging.Logger

	mu       sync.Mutex
	snapshot Snapshot
}

// NewReferenceStore returns a store backed by path.
func NewReferenceStore(path string, logger logging.Logger) *ReferenceStore {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &ReferenceStore{path: path, delimiter: ',', logger: logger}
}

// Path is the backing file.
func (s *ReferenceStore) Path() string { return s.path }

// Load reads the store file. A missing or empty file is an empty store.
// Anything unreadable wraps ErrStoreLoad.
func (s *ReferenceStore) Load() ([]models.ReferencePair, error) {
	pairs, err := s.read()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.snapshot = NewSnapshot(pairs)
	s.mu.Unlock()

	s.logger.Debug("Loaded reference store",
		logging.Field{Key: logging.FieldFile, Value: s.path},
		logging.Field{Key: logging.FieldCount, Value: len(pairs)})
	return pairs, nil
}

func (s *ReferenceStore) read() ([]models.ReferencePair, error) {
	info, err := os.Stat(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", parsererror.ErrStoreLoad, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", parsererror.ErrStoreLoad, s.path)
	}
	if info.Size() == 0 {
		return nil, nil
	}

	rows, err := common.ReadCSVFile[models.ReferencePair](s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", parsererror.ErrStoreLoad, err)
	}

	pairs := make([]models.ReferencePair, 0, len(rows))
	for _, r := range rows {
		r.Description = strings.TrimSpace(r.Description)
		r.Category = strings.TrimSpace(r.Category)
		if r.Description == "" {
			continue
		}
		pairs = append(pairs, r)
	}
	return pairs, nil
}

// Snapshot returns the view captured by the last Load or Merge.
func (s *ReferenceStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Merge unions the current file content with newPairs and replaces the file.
// Existing entries come first, so a description already in the store keeps
// its category. The result is deduplicated by description and sorted.
func (s *ReferenceStore) Merge(newPairs []models.ReferencePair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read()
	if err != nil {
		return err
	}

	merged := MergePairs(existing, newPairs)
	added := len(merged) - len(Dedup(existing))
	if added == 0 && fileutils.FileExists(s.path) {
		s.logger.Debug("Reference store unchanged",
			logging.Field{Key: logging.FieldFile, Value: s.path})
		s.snapshot = NewSnapshot(merged)
		return nil
	}

	var buf bytes.Buffer
	if err := common.WriteCSV(&buf, merged, s.delimiter, true); err != nil {
		return fmt.Errorf("failed to encode reference store: %w", err)
	}
	if err := fileutils.AtomicWriteFile(s.path, buf.Bytes(), models.PermissionDataFile); err != nil {
		return fmt.Errorf("failed to write reference store: %w", err)
	}
	s.snapshot = NewSnapshot(merged)

	s.logger.Info("Reference store updated",
		logging.Field{Key: logging.FieldFile, Value: s.path},
		logging.Field{Key: "added", Value: added},
		logging.Field{Key: logging.FieldCount, Value: len(merged)})
	return nil
}

// MergePairs concatenates existing and added, keeps the first pair seen for
// each description, and sorts by description.
func MergePairs(existing, added []models.ReferencePair) []models.ReferencePair {
	all := make([]models.ReferencePair, 0, len(existing)+len(added))
	all = append(all, existing...)
	all = append(all, added...)
	return Dedup(all)
}

// Dedup keeps the first pair for each description and sorts the result.
// Pairs with an empty description or category are dropped.
func Dedup(pairs []models.ReferencePair) []models.ReferencePair {
	seen := make(map[string]struct{}, len(pairs))
	out := make([]models.ReferencePair, 0, len(pairs))
	for _, p := range pairs {
		if p.Description == "" || p.Category == "" {
			continue
		}
		if _, ok := seen[p.Description]; ok {
			continue
		}
		seen[p.Description] = struct{}{}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Description < out[j].Description
	})
	return out
}
