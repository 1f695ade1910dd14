package categorizer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"fjacquet/expense-manager/internal/models"
)

// Lookup resolves a description from the local reference data.
type Lookup interface {
	// Match returns the category of the closest known description, if it is
	// close enough.
	Match(description string) (string, bool)
	// Empty reports whether there is no reference data at all.
	Empty() bool
}

// Classifier resolves a batch of descriptions remotely. Implementations must
// not fail: an unusable batch comes back with Valid false.
type Classifier interface {
	ClassifyBatch(ctx context.Context, descriptions []string) models.BatchResult
}

// Source names the tier that settled a description.
type Source string

const (
	SourceFuzzy    Source = "fuzzy"
	SourceOracle   Source = "oracle"
	SourceFallback Source = "fallback"
)

// Resolution is the category decided for one distinct description.
type Resolution struct {
	Description string
	Category    string
	Source      Source
}

// Resolutions maps descriptions to their resolution.
type Resolutions map[string]Resolution

// Sorted returns the resolutions ordered by description.
func (r Resolutions) Sorted() []Resolution {
	out := make([]Resolution, 0, len(r))
	for _, res := range r {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Description < out[j].Description })
	return out
}

// Summary returns a human-readable count per source.
func (r Resolutions) Summary() string {
	counts := map[Source]int{}
	for _, res := range r {
		counts[res.Source]++
	}
	parts := make([]string, 0, 3)
	for _, s := range []Source{SourceFuzzy, SourceOracle, SourceFallback} {
		parts = append(parts, fmt.Sprintf("%s:%d", s, counts[s]))
	}
	return strings.Join(parts, ", ")
}
