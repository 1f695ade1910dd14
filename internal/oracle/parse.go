package oracle

import (
	"regexp"
	"strings"

	"fjacquet/expense-manager/internal/models"
	"fjacquet/expense-manager/internal/parsererror"
)

var (
	fenceRe = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)\\s*```")
	// innermost bracketed chunk, used once quoting has gone wrong
	chunkRe = regexp.MustCompile(`\[[^\[\]]*\]`)

	doubleQuotedPairRe = regexp.MustCompile(`^\[\s*"((?:[^"\\]|\\.)*)"\s*,\s*"((?:[^"\\]|\\.)*)"\s*\]$`)
	singleQuotedPairRe = regexp.MustCompile(`^\[\s*'((?:[^'\\]|\\.)*)'\s*,\s*'((?:[^'\\]|\\.)*)'\s*\]$`)

	unescaper = strings.NewReplacer(`\"`, `"`, `\'`, `'`, `\\`, `\`)
)

// Vocabulary resolves oracle categories to the configured names.
type Vocabulary struct {
	names    []string
	byFolded map[string]string
	fallback string
}

// NewVocabulary builds a vocabulary over names. Unknown categories resolve to
// fallback.
func NewVocabulary(names []string, fallback string) Vocabulary {
	if fallback == "" {
		fallback = models.CategoryOther
	}
	v := Vocabulary{byFolded: make(map[string]string, len(names)+1), fallback: fallback}
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		if key == "" {
			continue
		}
		if _, ok := v.byFolded[key]; !ok {
			v.byFolded[key] = n
			v.names = append(v.names, n)
		}
	}
	if _, ok := v.byFolded[strings.ToLower(fallback)]; !ok {
		v.byFolded[strings.ToLower(fallback)] = fallback
		v.names = append(v.names, fallback)
	}
	return v
}

// Names lists the categories offered to the oracle.
func (v Vocabulary) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Resolve maps a returned category onto the vocabulary.
func (v Vocabulary) Resolve(category string) string {
	if name, ok := v.byFolded[strings.ToLower(strings.TrimSpace(category))]; ok {
		return name
	}
	return v.fallback
}

// ParseResponse extracts [description, category] pairs from raw. valid is
// false when any bracketed chunk is not a well-formed pair; the pairs that
// did parse are still returned. A response yielding no pair at all is an
// OracleOutputMalformedError.
func ParseResponse(raw string, vocab Vocabulary) (pairs []models.ReferencePair, valid bool, err error) {
	body := stripFences(raw)

	chunks := pairChunks(body)
	valid = true
	for _, chunk := range chunks {
		desc, cat, ok := parsePair(chunk)
		if !ok {
			valid = false
			continue
		}
		desc = strings.TrimSpace(desc)
		if desc == "" {
			valid = false
			continue
		}
		pairs = append(pairs, models.ReferencePair{Description: desc, Category: vocab.Resolve(cat)})
	}

	if len(pairs) == 0 {
		return nil, false, &parsererror.OracleOutputMalformedError{Raw: raw}
	}
	return pairs, valid, nil
}

// stripFences returns the contents of every fenced block in raw, or all of
// raw when it has none.
func stripFences(raw string) string {
	blocks := fenceRe.FindAllStringSubmatch(raw, -1)
	if len(blocks) == 0 {
		return strings.TrimSpace(raw)
	}
	parts := make([]string, 0, len(blocks))
	for _, m := range blocks {
		parts = append(parts, m[1])
	}
	return strings.Join(parts, "\n")
}

// pairChunks returns the candidate pair literals in body: every bracketed
// span whose first element is not itself a list. Brackets inside quoted
// strings are part of the string.
func pairChunks(body string) []string {
	var chunks []string
	for i := 0; i < len(body); i++ {
		if body[i] != '[' {
			continue
		}
		j := i + 1
		for j < len(body) && isSpace(body[j]) {
			j++
		}
		if j < len(body) && body[j] == '[' {
			continue
		}
		end := closingBracket(body, i)
		if end < 0 {
			// unbalanced quote or bracket: the rest cannot be read quote-aware
			rest := chunkRe.FindAllString(body[i:], -1)
			if len(rest) == 0 {
				rest = []string{body[i:]}
			}
			chunks = append(chunks, rest...)
			break
		}
		chunks = append(chunks, body[i:end+1])
		i = end
	}
	return chunks
}

// closingBracket returns the index of the bracket closing the one at open,
// or -1 when there is none.
func closingBracket(s string, open int) int {
	depth := 0
	var quote byte
	for k := open; k < len(s); k++ {
		c := s[k]
		switch {
		case quote != 0:
			if c == '\\' {
				k++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth == 0 {
				return k
			}
		}
	}
	return -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func parsePair(chunk string) (string, string, bool) {
	chunk = strings.TrimSpace(chunk)
	if m := doubleQuotedPairRe.FindStringSubmatch(chunk); m != nil {
		return unescaper.Replace(m[1]), unescaper.Replace(m[2]), true
	}
	if m := singleQuotedPairRe.FindStringSubmatch(chunk); m != nil {
		return unescaper.Replace(m[1]), unescaper.Replace(m[2]), true
	}
	return "", "", false
}
