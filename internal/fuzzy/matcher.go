package fuzzy

import (
	"strings"
	"unicode/utf8"
)

const (
	// ExactScore is the similarity of two equal strings.
	ExactScore = 1.0
	// KnownTypoScore is the similarity assigned to curated typo pairs.
	KnownTypoScore = 0.95
	// DefaultThreshold is the minimum similarity for a skill match.
	DefaultThreshold = 0.75

	// affixBoost is added when strings share a long prefix or one is a
	// prefix of the other. Capped so boosted scores stay below KnownTypoScore.
	affixBoost     = 0.05
	affixMinPrefix = 4
)

// knownTypos maps frequent misspellings to their intended form. Pairs listed
// here score KnownTypoScore regardless of raw edit distance.
var knownTypos = map[string]string{
	"pyton":      "python",
	"phyton":     "python",
	"pyhton":     "python",
	"javscript":  "javascript",
	"javasript":  "javascript",
	"javastript": "javascript",
	"kuberentes": "kubernetes",
	"kubernets":  "kubernetes",
	"kubenetes":  "kubernetes",
	"dokcer":     "docker",
	"doker":      "docker",
	"postgress":  "postgres",
	"postgre":    "postgres",
	"mongod":     "mongodb",
	"reactjs":    "react",
	"anguler":    "angular",
	"developr":   "developer",
	"develper":   "developer",
	"enginer":    "engineer",
	"engeneer":   "engineer",
	"machien":    "machine",
	"lerning":    "learning",
	"sneior":     "senior",
	"senoir":     "senior",
	"junoir":     "junior",
}

// Matcher scores string similarity and skill overlap.
type Matcher struct {
	threshold float64
	// equivalent reports whether two canonical terms mean the same thing,
	// typically backed by the synonym expander. May be nil.
	equivalent func(a, b string) bool
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithThreshold sets the minimum similarity for MatchSkills.
func WithThreshold(t float64) MatcherOption {
	return func(m *Matcher) {
		if t > 0 && t <= 1 {
			m.threshold = t
		}
	}
}

// WithEquivalence sets a term-equivalence predicate (synonym awareness).
func WithEquivalence(eq func(a, b string) bool) MatcherOption {
	return func(m *Matcher) {
		m.equivalent = eq
	}
}

// NewMatcher creates a Matcher with the default threshold.
func NewMatcher(opts ...MatcherOption) *Matcher {
	m := &Matcher{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Similarity returns a score in [0,1]: 1.0 for an exact (case-insensitive)
// match, 0.95 for a known typo pair, otherwise a normalized edit-distance
// ratio with a small boost for shared prefixes.
func (m *Matcher) Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == b {
		if a == "" {
			return 0
		}
		return ExactScore
	}
	if m.equivalent != nil && m.equivalent(a, b) {
		return ExactScore
	}
	if knownTypos[a] == b || knownTypos[b] == a {
		return KnownTypoScore
	}

	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 0
	}

	dist := DamerauLevenshteinDistance(a, b)
	ratio := 1.0 - float64(dist)/float64(maxLen)
	if ratio < 0 {
		ratio = 0
	}

	if sharesAffix(a, b) {
		ratio += affixBoost
		// Never let a boosted ratio outrank a curated typo pair.
		if ratio >= KnownTypoScore {
			ratio = KnownTypoScore - 0.01
		}
	}
	return ratio
}

// sharesAffix reports whether one string is a prefix of the other or both
// share a prefix of at least affixMinPrefix runes.
func sharesAffix(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if strings.HasPrefix(a, b) || strings.HasPrefix(b, a) {
		return true
	}
	runesA := []rune(a)
	runesB := []rune(b)
	n := 0
	for n < len(runesA) && n < len(runesB) && runesA[n] == runesB[n] {
		n++
	}
	return n >= affixMinPrefix
}

// SkillMatch is the result of matching required skills against a candidate.
type SkillMatch struct {
	// Matched lists required skills with a candidate match above threshold.
	Matched []string
	// Missing lists required skills without any match.
	Missing []string
	// Ratio is matched/required; 0 when no skills were required.
	Ratio float64
}

// MatchSkills matches each required skill against the best candidate skill.
// An empty required list yields Ratio 0 and empty Matched/Missing.
func (m *Matcher) MatchSkills(required, candidate []string) SkillMatch {
	match := SkillMatch{Matched: []string{}, Missing: []string{}}
	if len(required) == 0 {
		return match
	}

	for _, req := range required {
		best := 0.0
		for _, cand := range candidate {
			if s := m.Similarity(req, cand); s > best {
				best = s
			}
		}
		if best >= m.threshold {
			match.Matched = append(match.Matched, req)
		} else {
			match.Missing = append(match.Missing, req)
		}
	}

	match.Ratio = float64(len(match.Matched)) / float64(len(required))
	return match
}

// CorrectTerm returns the curated correction for a known typo, or the input
// unchanged. Used by the query parser before vocabulary lookup.
func CorrectTerm(term string) (string, bool) {
	fixed, ok := knownTypos[strings.ToLower(term)]
	if !ok {
		return term, false
	}
	return fixed, true
}

// IsKnownTypo reports whether the pair is a curated typo pair in either direction.
func IsKnownTypo(a, b string) bool {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	return knownTypos[a] == b || knownTypos[b] == a
}
