package store

import (
	"sync"

	"fjacquet/expense-manager/internal/models"
)

// MockReferenceStore is an in-memory stand-in for ReferenceStore in tests.
type MockReferenceStore struct {
	mu     sync.Mutex
	Pairs  []models.ReferencePair
	Merges int

	LoadError  error
	MergeError error
}

// Load returns the in-memory pairs.
func (m *MockReferenceStore) Load() ([]models.ReferencePair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	out := make([]models.ReferencePair, len(m.Pairs))
	copy(out, m.Pairs)
	return out, nil
}

// Snapshot returns a snapshot of the in-memory pairs.
func (m *MockReferenceStore) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return NewSnapshot(m.Pairs)
}

// Merge applies the same existing-wins merge as ReferenceStore.
func (m *MockReferenceStore) Merge(newPairs []models.ReferencePair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MergeError != nil {
		return m.MergeError
	}
	m.Merges++
	m.Pairs = MergePairs(m.Pairs, newPairs)
	return nil
}
