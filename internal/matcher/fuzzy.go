// Package matcher looks up transaction descriptions in the reference store by
// approximate string similarity.
package matcher

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"fjacquet/expense-manager/internal/models"
	"fjacquet/expense-manager/internal/store"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// DefaultThreshold is the minimum score for a match.
const DefaultThreshold = 75

// Result is the best reference entry for a description.
type Result struct {
	Pair  models.ReferencePair
	Score int
}

type entry struct {
	norm   []rune
	sorted []rune
	pair   models.ReferencePair
}

// Matcher scores descriptions against a fixed snapshot. It holds no mutable
// state after construction and is safe for concurrent use.
type Matcher struct {
	threshold int
	entries   []entry
	exact     map[string]int
}

// New builds a Matcher over snap. A threshold <= 0 means DefaultThreshold.
func New(snap store.Snapshot, threshold int) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	m := &Matcher{
		threshold: threshold,
		entries:   make([]entry, 0, snap.Len()),
		exact:     make(map[string]int, snap.Len()),
	}
	for _, p := range snap.Pairs() {
		norm := Normalize(p.Description)
		if norm == "" {
			continue
		}
		if _, ok := m.exact[norm]; !ok {
			m.exact[norm] = len(m.entries)
		}
		m.entries = append(m.entries, entry{
			norm:   []rune(norm),
			sorted: []rune(sortTokens(norm)),
			pair:   p,
		})
	}
	return m
}

// Threshold is the configured minimum score.
func (m *Matcher) Threshold() int { return m.threshold }

// Empty reports whether there is nothing to match against.
func (m *Matcher) Empty() bool { return len(m.entries) == 0 }

// Match returns the category of the best scoring entry when its score reaches
// the threshold.
func (m *Matcher) Match(description string) (string, bool) {
	best, ok := m.Best(description)
	if !ok || best.Score < m.threshold {
		return "", false
	}
	return best.Pair.Category, true
}

// Best returns the highest scoring entry. Ties keep the earliest entry in
// store order.
func (m *Matcher) Best(description string) (Result, bool) {
	norm := Normalize(description)
	if norm == "" || len(m.entries) == 0 {
		return Result{}, false
	}
	if i, ok := m.exact[norm]; ok {
		return Result{Pair: m.entries[i].pair, Score: 100}, true
	}

	q := []rune(norm)
	qSorted := []rune(sortTokens(norm))
	best := Result{Score: -1}
	for _, e := range m.entries {
		score := weightedRatio(q, qSorted, e.norm, e.sorted)
		if score > best.Score {
			best = Result{Pair: e.pair, Score: score}
			if score == 100 {
				break
			}
		}
	}
	return best, true
}

// Score compares two descriptions on a 0-100 scale.
func Score(a, b string) int {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	return weightedRatio([]rune(na), []rune(sortTokens(na)), []rune(nb), []rune(sortTokens(nb)))
}

// Normalize lower-cases s and collapses every run of non-alphanumeric
// characters into a single space.
func Normalize(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
			continue
		}
		space = true
	}
	return b.String()
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// weightedRatio takes the best of the plain ratio, the token-sort ratio and,
// when one string is much longer than the other, a scaled partial ratio.
func weightedRatio(a, aSorted, b, bSorted []rune) int {
	base := ratio(a, b)

	best := base
	if ts := ratio(aSorted, bSorted) * 0.95; ts > best {
		best = ts
	}

	short, long := len(a), len(b)
	if short > long {
		short, long = long, short
	}
	lenRatio := float64(long) / float64(short)
	if lenRatio >= 1.5 {
		scale := 0.9
		if lenRatio > 8 {
			scale = 0.6
		}
		if pr := partialRatio(a, b) * scale; pr > best {
			best = pr
		}
	}
	return int(math.Round(best))
}

// ratio is the indel similarity: 100 * (1 - distance / (len(a)+len(b))) with
// substitutions costing two.
func ratio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	return levenshtein.RatioForStrings(a, b, levenshtein.DefaultOptions) * 100
}

// partialRatio is the best ratio between the shorter string and every window
// of the same length in the longer one.
func partialRatio(a, b []rune) float64 {
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}

	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		r := ratio(short, long[i:i+len(short)])
		if r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}
