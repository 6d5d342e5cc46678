// Package keyword implements negation-aware phrase matching used by the
// digression cascade and by SOP trigger handling.
//
// Strategies:
//  1. exact    - whole message equals a keyword
//  2. contains - keyword is a substring (negation checked)
//  3. regex    - keyword compiled as an RE2 pattern
//  4. synonyms - keyword or a configured synonym (negation checked)
package keyword

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"dialogcore/internal/observability"
)

// Strategy selects how keywords are compared against a message.
type Strategy string

const (
	StrategyExact    Strategy = "exact"
	StrategyContains Strategy = "contains"
	StrategyRegex    Strategy = "regex"
	StrategySynonyms Strategy = "synonyms"
)

// MatchResult describes the outcome of a single matching pass.
type MatchResult struct {
	Matched  bool
	Keyword  string
	Synonym  string // set when a synonym fired instead of the keyword itself
	Strategy Strategy
	Score    float64
}

// Negation window calibration. Tuned for zh-TW syntax; revisit both values
// before reusing the matcher for a language with different negation
// placement.
const (
	// negationLookback is how many characters before the matched keyword a
	// negation marker may start.
	negationLookback = 2
	// negationGapMax is the largest run of non-space characters tolerated
	// between the marker and the keyword.
	negationGapMax = 1
)

// maxPatternLen caps externally configured regex keywords. RE2 matching is
// linear in input size, so the cap only guards against absurd pattern blobs.
const maxPatternLen = 256

// Matcher performs multi-strategy keyword matching with scoring.
// Zero-cost to share; all state is read-only after construction.
type Matcher struct {
	synonyms  map[string][]string
	negations []string
	logger    *observability.Logger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithSynonyms replaces the built-in synonym table.
func WithSynonyms(table map[string][]string) Option {
	return func(m *Matcher) { m.synonyms = table }
}

// WithNegationMarkers replaces the built-in negation marker set.
func WithNegationMarkers(markers []string) Option {
	return func(m *Matcher) { m.negations = markers }
}

// WithLogger attaches a logger for skipped-pattern warnings.
func WithLogger(logger *observability.Logger) Option {
	return func(m *Matcher) { m.logger = logger }
}

// NewMatcher builds a matcher with the default zh-TW synonym table and
// negation markers.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{
		synonyms:  defaultSynonyms,
		negations: defaultNegationMarkers,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match checks text against keywords using a single strategy.
func (m *Matcher) Match(text string, keywords []string, strategy Strategy, caseSensitive bool) MatchResult {
	if len(keywords) == 0 {
		return MatchResult{Strategy: strategy}
	}

	if !caseSensitive {
		text = strings.ToLower(text)
		lowered := make([]string, len(keywords))
		for i, kw := range keywords {
			lowered[i] = strings.ToLower(kw)
		}
		keywords = lowered
	}

	switch strategy {
	case StrategyExact:
		return m.exactMatch(text, keywords)
	case StrategyRegex:
		return m.regexMatch(text, keywords)
	case StrategySynonyms:
		return m.synonymsMatch(text, keywords)
	default:
		// contains is also the fallback for unknown strategies
		return m.containsMatch(text, keywords)
	}
}

// MatchAny tries strategies in priority order and returns on the first hit.
// A nil strategy list defaults to contains then synonyms.
func (m *Matcher) MatchAny(text string, keywords []string, strategies []Strategy) MatchResult {
	if len(strategies) == 0 {
		strategies = []Strategy{StrategyContains, StrategySynonyms}
	}
	for _, strategy := range strategies {
		if result := m.Match(text, keywords, strategy, false); result.Matched {
			return result
		}
	}
	return MatchResult{}
}

// BestMatch returns the highest scoring keyword, or ok=false when nothing
// scores above zero. Scoring: exact equality 1.0, un-negated substring
// len(keyword)/len(text), un-negated synonym 0.8*len(synonym)/len(text).
func (m *Matcher) BestMatch(text string, keywords []string) (string, float64, bool) {
	scores := m.Scores(text, keywords)
	best := ""
	bestScore := 0.0
	for kw, score := range scores {
		if score > bestScore || (score == bestScore && score > 0 && kw < best) {
			best = kw
			bestScore = score
		}
	}
	if bestScore <= 0 {
		return "", 0, false
	}
	return best, bestScore, true
}

// Scores computes the per-keyword match score for ranking.
func (m *Matcher) Scores(text string, keywords []string) map[string]float64 {
	scores := make(map[string]float64, len(keywords))
	textLen := float64(utf8.RuneCountInString(text))

	for _, kw := range keywords {
		score := 0.0
		switch {
		case strings.TrimSpace(text) == strings.TrimSpace(kw):
			score = 1.0
		case strings.Contains(text, kw):
			if !m.isNegated(text, kw) && textLen > 0 {
				score = float64(utf8.RuneCountInString(kw)) / textLen
			}
		default:
			for _, syn := range m.synonyms[kw] {
				if strings.Contains(text, syn) && !m.isNegated(text, syn) && textLen > 0 {
					synScore := 0.8 * float64(utf8.RuneCountInString(syn)) / textLen
					if synScore > score {
						score = synScore
					}
				}
			}
		}
		scores[kw] = score
	}
	return scores
}

func (m *Matcher) exactMatch(text string, keywords []string) MatchResult {
	trimmed := strings.TrimSpace(text)
	for _, kw := range keywords {
		if trimmed == strings.TrimSpace(kw) {
			return MatchResult{Matched: true, Keyword: kw, Strategy: StrategyExact, Score: 1.0}
		}
	}
	return MatchResult{Strategy: StrategyExact}
}

func (m *Matcher) containsMatch(text string, keywords []string) MatchResult {
	for _, kw := range keywords {
		if kw == "" || !strings.Contains(text, kw) {
			continue
		}
		if m.isNegated(text, kw) {
			continue
		}
		return MatchResult{Matched: true, Keyword: kw, Strategy: StrategyContains, Score: containsScore(text, kw)}
	}
	return MatchResult{Strategy: StrategyContains}
}

func (m *Matcher) regexMatch(text string, keywords []string) MatchResult {
	for _, kw := range keywords {
		if len(kw) > maxPatternLen {
			m.warn("regex keyword exceeds pattern budget, skipping", "pattern_len", len(kw))
			continue
		}
		pattern, err := regexp.Compile(kw)
		if err != nil {
			// Externally configured pattern, never fatal.
			m.warn("invalid regex keyword, skipping", "pattern", kw, "error", err)
			continue
		}
		if pattern.MatchString(text) {
			return MatchResult{Matched: true, Keyword: kw, Strategy: StrategyRegex, Score: 1.0}
		}
	}
	return MatchResult{Strategy: StrategyRegex}
}

func (m *Matcher) synonymsMatch(text string, keywords []string) MatchResult {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) && !m.isNegated(text, kw) {
			return MatchResult{Matched: true, Keyword: kw, Strategy: StrategySynonyms, Score: containsScore(text, kw)}
		}
		for _, syn := range m.synonyms[kw] {
			if syn == "" || !strings.Contains(text, syn) {
				continue
			}
			if m.isNegated(text, syn) {
				continue
			}
			return MatchResult{
				Matched:  true,
				Keyword:  kw,
				Synonym:  syn,
				Strategy: StrategySynonyms,
				Score:    0.8 * containsScore(text, syn),
			}
		}
	}
	return MatchResult{Strategy: StrategySynonyms}
}

// isNegated reports whether the first occurrence of needle in text is
// preceded by a negation marker within the lookback window. Only the window
// immediately before the match is inspected; earlier clauses never count.
func (m *Matcher) isNegated(text, needle string) bool {
	byteIdx := strings.Index(text, needle)
	if byteIdx < 0 {
		return false
	}
	before := []rune(text[:byteIdx])

	for _, neg := range m.negations {
		negRunes := []rune(neg)
		for offset := 0; offset <= negationLookback; offset++ {
			start := len(before) - len(negRunes) - offset
			if start < 0 {
				continue
			}
			window := before[start:]
			if !runesHavePrefix(window, negRunes) {
				continue
			}
			gap := strings.TrimSpace(string(window[len(negRunes):]))
			if utf8.RuneCountInString(gap) <= negationGapMax {
				return true
			}
		}
	}
	return false
}

func (m *Matcher) warn(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Warn(msg, args...)
	}
}

func containsScore(text, kw string) float64 {
	textLen := utf8.RuneCountInString(text)
	if textLen == 0 {
		return 0
	}
	return float64(utf8.RuneCountInString(kw)) / float64(textLen)
}

func runesHavePrefix(runes, prefix []rune) bool {
	if len(runes) < len(prefix) {
		return false
	}
	for i, r := range prefix {
		if runes[i] != r {
			return false
		}
	}
	return true
}
