package rank

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hireloop/talentsearch/internal/fuzzy"
	"github.com/hireloop/talentsearch/internal/models"
)

// QueryType classifies a parsed query for weight selection.
type QueryType string

const (
	// QueryTypeSkillHeavy is a query naming two or more concrete skills.
	QueryTypeSkillHeavy QueryType = "skill_heavy"
	// QueryTypeRoleSeniority is a query anchored on a role and/or seniority.
	QueryTypeRoleSeniority QueryType = "role_seniority"
	// QueryTypeNarrative is a long free-text query with few concrete skills.
	QueryTypeNarrative QueryType = "narrative"
	// QueryTypeGeneric is everything else.
	QueryTypeGeneric QueryType = "generic"
)

// DetectQueryType classifies a parsed query. Skill-heavy wins over the other
// types; narrative requires a long remainder with few extracted skills.
func DetectQueryType(parsed *models.ParsedQuery) QueryType {
	if parsed == nil {
		return QueryTypeGeneric
	}
	if len(parsed.Skills) >= 2 {
		return QueryTypeSkillHeavy
	}
	if len(parsed.RemainingTerms) >= 6 {
		return QueryTypeNarrative
	}
	if parsed.Seniority != "" || len(parsed.Roles) > 0 {
		return QueryTypeRoleSeniority
	}
	return QueryTypeGeneric
}

// Ranker fuses keyword and vector result sets into a hybrid ranking.
type Ranker struct {
	config  *Config
	matcher *fuzzy.Matcher
}

// NewRanker creates a ranker with the given weight configuration and fuzzy
// matcher. A nil config uses defaults.
func NewRanker(config *Config, matcher *fuzzy.Matcher) *Ranker {
	if config == nil {
		config = DefaultConfig()
	}
	config.ApplyDefaults()
	if matcher == nil {
		matcher = fuzzy.NewMatcher(fuzzy.WithThreshold(config.SkillMatchThreshold))
	}
	return &Ranker{config: config, matcher: matcher}
}

// Rank merges per-resume keyword and vector scores into a single ordered
// result list. Both score sets are normalized to [0,1] by their maximum before
// weighting, so the composite is comparable across queries. Resumes absent
// from the resumes map are skipped.
//
// Ordering is a total order: skill-match ratio descending, composite score
// descending, UpdatedAt descending, then ID ascending. The same inputs always
// produce the same ranking.
func (r *Ranker) Rank(parsed *models.ParsedQuery, keywordScores, vectorScores map[string]float64, resumes map[string]*models.Resume) []*models.SearchResult {
	queryType := DetectQueryType(parsed)
	weights := r.config.ForType(queryType)

	maxKeyword := maxScore(keywordScores)
	maxVector := maxScore(vectorScores)

	seen := make(map[string]bool, len(keywordScores)+len(vectorScores))
	results := make([]*models.SearchResult, 0, len(keywordScores)+len(vectorScores))

	addResume := func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		resume, ok := resumes[id]
		if !ok {
			return
		}

		kw := normalize(keywordScores[id], maxKeyword)
		vec := normalize(vectorScores[id], maxVector)

		var match fuzzy.SkillMatch
		if parsed != nil {
			match = r.matcher.MatchSkills(parsed.Skills, resume.Skills)
		}

		composite := weights.Keyword*kw + weights.Vector*vec + weights.SkillBoost*match.Ratio
		results = append(results, &models.SearchResult{
			Resume:          resume,
			Score:           composite,
			KeywordScore:    kw,
			VectorScore:     vec,
			SkillMatchRatio: match.Ratio,
			MatchedSkills:   match.Matched,
			MissingSkills:   match.Missing,
			Explanation:     explain(queryType, kw, vec, match),
		})
	}

	for id := range keywordScores {
		addResume(id)
	}
	for id := range vectorScores {
		addResume(id)
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.SkillMatchRatio != b.SkillMatchRatio {
			return a.SkillMatchRatio > b.SkillMatchRatio
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Resume.UpdatedAt.Equal(b.Resume.UpdatedAt) {
			return a.Resume.UpdatedAt.After(b.Resume.UpdatedAt)
		}
		return a.Resume.ID < b.Resume.ID
	})
	for i, res := range results {
		res.Rank = i + 1
	}
	return results
}

// Weights exposes the weight set used for a query type, mainly for the status
// endpoint and explanations.
func (r *Ranker) Weights(t QueryType) Weights {
	return r.config.ForType(t)
}

func maxScore(scores map[string]float64) float64 {
	var max float64
	for _, s := range scores {
		if s > max {
			max = s
		}
	}
	return max
}

func normalize(score, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return score / max
}

func explain(t QueryType, keyword, vector float64, match fuzzy.SkillMatch) string {
	parts := []string{fmt.Sprintf("query=%s", t)}
	if keyword > 0 {
		parts = append(parts, fmt.Sprintf("keyword=%.2f", keyword))
	}
	if vector > 0 {
		parts = append(parts, fmt.Sprintf("semantic=%.2f", vector))
	}
	if len(match.Matched) > 0 {
		parts = append(parts, "skills: "+strings.Join(match.Matched, ", "))
	}
	if len(match.Missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(match.Missing, ", "))
	}
	return strings.Join(parts, "; ")
}
