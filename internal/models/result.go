package models

// SearchResult represents a single candidate hit with its score components.
type SearchResult struct {
	Resume *Resume `json:"resume"`
	// Score is the stage-dependent score: keyword rank, vector similarity,
	// or the hybrid composite once merged.
	Score float64 `json:"score"`
	// KeywordScore and VectorScore are the normalized per-source scores.
	KeywordScore float64 `json:"keyword_score"`
	VectorScore  float64 `json:"vector_score"`
	// SkillMatchRatio is matched/required from fuzzy skill matching.
	SkillMatchRatio float64  `json:"skill_match_ratio"`
	MatchedSkills   []string `json:"matched_skills,omitempty"`
	MissingSkills   []string `json:"missing_skills,omitempty"`
	// Explanation is the optional LLM-generated annotation.
	Explanation string `json:"explanation,omitempty"`
	Rank        int    `json:"rank"`
}

// Stage identifies a step of the progressive search pipeline.
type Stage string

const (
	StageParsed   Stage = "parsed"
	StageKeyword  Stage = "keyword"
	StageVector   Stage = "vector"
	StageHybrid   Stage = "hybrid"
	StageEnhanced Stage = "enhanced"
	StageComplete Stage = "complete"
	StageError    Stage = "error"
)

// Number returns the 1-based position of the stage in the pipeline.
// Terminal stages share the position after the last result stage.
func (s Stage) Number() int {
	switch s {
	case StageParsed:
		return 1
	case StageKeyword:
		return 2
	case StageVector:
		return 3
	case StageHybrid:
		return 4
	case StageEnhanced:
		return 5
	default:
		return 6
	}
}

// StageEvent is one frame of the server-streamed progressive search protocol.
type StageEvent struct {
	Stage       Stage           `json:"stage"`
	StageNumber int             `json:"stage_number"`
	Count       int             `json:"count"`
	TimingMS    int64           `json:"timing_ms"`
	Results     []*SearchResult `json:"results,omitempty"`
	// Parsed carries the extracted facets on the parsed stage.
	Parsed *ParsedQuery `json:"parsed,omitempty"`
	// Suggestion carries the corrected query when typo correction fired.
	Suggestion string `json:"suggestion,omitempty"`
	// Error carries a generic message on the error stage only.
	Error   string `json:"error,omitempty"`
	IsFinal bool   `json:"is_final"`
}
