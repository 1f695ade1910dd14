// Package categorizer assigns a category to every transaction of a file:
// first from the reference store by fuzzy match, then by asking the oracle in
// batches, and finally by falling back to a fixed category.
package categorizer

import (
	"context"
	"fmt"
	"sort"

	"fjacquet/expense-manager/internal/logging"
	"fjacquet/expense-manager/internal/models"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is the number of descriptions sent per oracle request.
const DefaultBatchSize = 10

// Options tune a Categorizer.
type Options struct {
	BatchSize        int
	FallbackCategory string
	// MaxConcurrentBatches bounds in-flight oracle requests per file; <= 0
	// means no bound.
	MaxConcurrentBatches int
}

// Categorizer runs the two-tier categorization for one file at a time. It
// keeps no per-file state and can be shared across goroutines.
type Categorizer struct {
	lookup     Lookup
	classifier Classifier
	opts       Options
	logger     logging.Logger
}

// NewCategorizer creates a Categorizer. classifier may be nil, in which case
// descriptions the lookup misses go straight to the fallback category.
func NewCategorizer(lookup Lookup, classifier Classifier, opts Options, logger logging.Logger) *Categorizer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.FallbackCategory == "" {
		opts.FallbackCategory = models.CategoryOther
	}
	return &Categorizer{lookup: lookup, classifier: classifier, opts: opts, logger: logger}
}

// Categorize returns a copy of txs with every category set, the pairs the
// oracle taught us, and the counters for this file. Transactions that already
// carry a category are left alone.
func (c *Categorizer) Categorize(ctx context.Context, txs []models.Transaction) ([]models.Transaction, []models.ReferencePair, models.CategorizationStats) {
	out := make([]models.Transaction, len(txs))
	copy(out, txs)

	var descriptions []string
	for _, tx := range out {
		if !tx.IsCategorized() {
			descriptions = append(descriptions, tx.Description)
		}
	}

	resolved, learned, stats := c.Resolve(ctx, descriptions)
	for i := range out {
		if out[i].IsCategorized() {
			continue
		}
		out[i].Category = resolved[out[i].Description].Category
	}
	return out, learned, stats
}

// Resolve settles every distinct description. The result holds one entry per
// distinct input; learned lists the oracle answers sorted by description.
func (c *Categorizer) Resolve(ctx context.Context, descriptions []string) (Resolutions, []models.ReferencePair, models.CategorizationStats) {
	unique := dedupSorted(descriptions)
	resolved := make(Resolutions, len(unique))
	stats := models.CategorizationStats{Descriptions: len(unique)}

	pending := c.fuzzyPass(unique, resolved, &stats)

	var learned []models.ReferencePair
	if len(pending) > 0 && c.classifier != nil {
		learned = c.oraclePass(ctx, pending, resolved, &stats)
	}

	for _, d := range unique {
		if _, ok := resolved[d]; ok {
			continue
		}
		resolved[d] = Resolution{Description: d, Category: c.opts.FallbackCategory, Source: SourceFallback}
		stats.Fallback++
	}
	return resolved, learned, stats
}

// fuzzyPass resolves what the reference data already knows and returns the
// rest in sorted order.
func (c *Categorizer) fuzzyPass(unique []string, resolved Resolutions, stats *models.CategorizationStats) []string {
	if c.lookup == nil || c.lookup.Empty() {
		return unique
	}

	pending := make([]string, 0, len(unique))
	for _, d := range unique {
		if category, ok := c.lookup.Match(d); ok {
			resolved[d] = Resolution{Description: d, Category: category, Source: SourceFuzzy}
			stats.FuzzyHits++
			continue
		}
		pending = append(pending, d)
	}

	c.logger.Debug("Fuzzy pass finished",
		logging.Field{Key: "hits", Value: stats.FuzzyHits},
		logging.Field{Key: "pending", Value: len(pending)})
	return pending
}

// oraclePass classifies pending in concurrent batches and folds the answers
// back by exact description. A bad batch only affects its own descriptions.
func (c *Categorizer) oraclePass(ctx context.Context, pending []string, resolved Resolutions, stats *models.CategorizationStats) []models.ReferencePair {
	batches := split(pending, c.opts.BatchSize)
	results := make([]models.BatchResult, len(batches))

	var g errgroup.Group
	if c.opts.MaxConcurrentBatches > 0 {
		g.SetLimit(c.opts.MaxConcurrentBatches)
	}
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error("Oracle batch panicked",
						logging.Field{Key: logging.FieldBatch, Value: i},
						logging.Field{Key: logging.FieldError, Value: fmt.Sprint(r)})
					results[i] = models.BatchResult{Valid: false}
				}
			}()
			results[i] = c.classifier.ClassifyBatch(ctx, batch)
			return nil
		})
	}
	_ = g.Wait()

	wanted := make(map[string]struct{}, len(pending))
	for _, d := range pending {
		wanted[d] = struct{}{}
	}

	var learned []models.ReferencePair
	for i, result := range results {
		stats.Batches++
		if !result.Valid {
			stats.InvalidBatches++
			c.logger.Warn("Oracle batch returned unusable output",
				logging.Field{Key: logging.FieldBatch, Value: i},
				logging.Field{Key: logging.FieldCount, Value: len(batches[i])},
				logging.Field{Key: "pairs", Value: len(result.Pairs)})
		}
		for _, p := range result.Pairs {
			if _, ok := wanted[p.Description]; !ok {
				continue
			}
			if _, done := resolved[p.Description]; done {
				continue
			}
			resolved[p.Description] = Resolution{Description: p.Description, Category: p.Category, Source: SourceOracle}
			learned = append(learned, p)
			stats.OracleResolved++
		}
	}

	sort.Slice(learned, func(i, j int) bool { return learned[i].Description < learned[j].Description })
	return learned
}

func dedupSorted(descriptions []string) []string {
	seen := make(map[string]struct{}, len(descriptions))
	out := make([]string, 0, len(descriptions))
	for _, d := range descriptions {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func split(items []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
