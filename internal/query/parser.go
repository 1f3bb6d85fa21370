package query

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/hireloop/talentsearch/internal/fuzzy"
	"github.com/hireloop/talentsearch/internal/models"
)

// typoThreshold is the minimum fuzzy similarity for replacing an unknown
// token with a vocabulary term.
const typoThreshold = 0.85

// minTypoTokenLen guards against "correcting" short tokens, where a single
// edit covers most of the string.
const minTypoTokenLen = 4

var (
	numberPattern     = regexp.MustCompile(`^\d+$`)
	experiencePattern = regexp.MustCompile(`^(\d+)\+?$`)
	rangePattern      = regexp.MustCompile(`^(\d+)-(\d+)$`)
)

// yearTokens are the tokens that mark an experience phrase.
var yearTokens = map[string]struct{}{
	"year": {}, "years": {}, "yr": {}, "yrs": {},
}

// Parser extracts structured facets from free-text queries.
type Parser struct {
	matcher  *fuzzy.Matcher
	expander *Expander
	dict     []string
}

// NewParser creates a Parser backed by the given synonym expander and fuzzy matcher.
func NewParser(expander *Expander, matcher *fuzzy.Matcher) *Parser {
	return &Parser{
		matcher:  matcher,
		expander: expander,
		dict:     singleWordVocabulary(),
	}
}

// Parse tokenizes, typo-corrects, and classifies the query. Parsing is
// idempotent: running Parse on the Normalized output reproduces the facets.
func (p *Parser) Parse(raw string) *models.ParsedQuery {
	parsed := &models.ParsedQuery{
		Original:       raw,
		Skills:         []string{},
		Roles:          []string{},
		RemainingTerms: []string{},
	}

	tokens := tokenize(raw)
	if len(tokens) == 0 {
		return parsed
	}

	// Typo correction happens before any facet extraction so that
	// "pyton developer" classifies exactly like "python developer".
	corrected := false
	for i, tok := range tokens {
		fixed, changed := p.correctToken(tok)
		if changed {
			tokens[i] = fixed
			corrected = true
		}
	}
	parsed.Normalized = strings.Join(tokens, " ")
	parsed.Corrected = corrected

	consumed := make([]bool, len(tokens))

	p.extractExperience(tokens, consumed, parsed)
	p.extractSkills(tokens, consumed, parsed)
	p.classifyTokens(tokens, consumed, parsed)

	for i, tok := range tokens {
		if consumed[i] {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if numberPattern.MatchString(tok) {
			continue
		}
		parsed.RemainingTerms = append(parsed.RemainingTerms, tok)
	}

	if len(parsed.Skills) > 0 {
		parsed.PrimarySkill = parsed.Skills[0]
	}
	return parsed
}

// tokenize lowercases, normalizes whitespace, and strips edge punctuation
// while keeping meaningful interior and trailing characters (c++, c#, node.js, ci/cd).
func tokenize(raw string) []string {
	raw = strings.ToLower(raw)
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tok := strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) && r != '+' && r != '#' && r != '-' && r != '.'
		})
		// Trailing sentence dot is noise, interior dot is not (node.js).
		tok = strings.TrimSuffix(tok, ".")
		if tok != "" && tok != "-" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// correctToken returns the corrected form of an unknown token, consulting the
// curated typo table first and the fuzzy matcher second.
func (p *Parser) correctToken(tok string) (string, bool) {
	if numberPattern.MatchString(tok) || experiencePattern.MatchString(tok) {
		return tok, false
	}
	if inAnyVocabulary(tok) {
		return tok, false
	}
	if fixed, ok := fuzzy.CorrectTerm(tok); ok {
		return fixed, true
	}
	if len(tok) < minTypoTokenLen {
		return tok, false
	}

	best := ""
	bestScore := 0.0
	for _, term := range p.dict {
		if s := p.matcher.Similarity(tok, term); s > bestScore {
			best, bestScore = term, s
		}
	}
	if bestScore >= typoThreshold {
		return best, true
	}
	return tok, false
}

// extractExperience consumes "N years", "N+ years", and "N-M years" phrases.
// Ranges take the lower bound. The first phrase wins.
func (p *Parser) extractExperience(tokens []string, consumed []bool, parsed *models.ParsedQuery) {
	for i := 0; i < len(tokens)-1; i++ {
		if consumed[i] {
			continue
		}
		if _, isYear := yearTokens[tokens[i+1]]; !isYear {
			continue
		}

		var years int
		if m := rangePattern.FindStringSubmatch(tokens[i]); m != nil {
			years = atoi(m[1])
		} else if m := experiencePattern.FindStringSubmatch(tokens[i]); m != nil {
			years = atoi(m[1])
		} else {
			continue
		}

		consumed[i] = true
		consumed[i+1] = true
		if parsed.ExperienceYears == nil {
			y := years
			parsed.ExperienceYears = &y
		}
	}
}

// extractSkills runs greedy longest-match-first n-gram matching over the
// unconsumed tokens. Matching is whole-token, so short skills like "go" never
// match inside longer words. Unknown n-grams are retried through the synonym
// expander so "k8s" extracts as "kubernetes".
func (p *Parser) extractSkills(tokens []string, consumed []bool, parsed *models.ParsedQuery) {
	seen := make(map[string]struct{})

	for n := maxSkillTokens; n >= 1; n-- {
		for i := 0; i+n <= len(tokens); i++ {
			if anyConsumed(consumed[i : i+n]) {
				continue
			}
			candidate := strings.Join(tokens[i:i+n], " ")

			skill, ok := skillTokenIndex[candidate]
			if !ok {
				canon := p.expander.Canonical(candidate)
				if canon != candidate {
					skill, ok = skillTokenIndex[canon]
				}
			}
			if !ok {
				continue
			}

			skill = p.expander.Canonical(skill)
			for j := i; j < i+n; j++ {
				consumed[j] = true
			}
			if _, dup := seen[skill]; !dup {
				seen[skill] = struct{}{}
				parsed.Skills = append(parsed.Skills, skill)
			}
		}
	}
}

// classifyTokens assigns leftover single tokens to seniority and role facets.
// Conflicting seniority terms keep the first occurrence.
func (p *Parser) classifyTokens(tokens []string, consumed []bool, parsed *models.ParsedQuery) {
	seenRoles := make(map[string]struct{})

	for i, tok := range tokens {
		if consumed[i] {
			continue
		}
		if canon, ok := seniorityVocabulary[tok]; ok {
			consumed[i] = true
			if parsed.Seniority == "" {
				parsed.Seniority = canon
			}
			continue
		}
		if canon, ok := roleVocabulary[tok]; ok {
			consumed[i] = true
			if _, dup := seenRoles[canon]; !dup {
				seenRoles[canon] = struct{}{}
				parsed.Roles = append(parsed.Roles, canon)
			}
		}
	}
}

func anyConsumed(window []bool) bool {
	for _, c := range window {
		if c {
			return true
		}
	}
	return false
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
