// Package llm provides optional language-model assistance for query
// understanding and result annotation. The search pipeline works fully
// without it; every consumer must tolerate a nil Analyzer.
package llm

import (
	"context"

	"github.com/hireloop/talentsearch/internal/models"
)

// QueryInsight is the model's reading of a search query beyond what the
// rule-based parser extracts.
type QueryInsight struct {
	// Intent is a one-line restatement of what the recruiter is looking for.
	Intent string `json:"intent"`
	// ImpliedSkills are skills the query implies without naming them.
	ImpliedSkills []string `json:"implied_skills"`
	// ExpandedQuery is a reformulation suitable for semantic search.
	ExpandedQuery string `json:"expanded_query"`
}

// Enhancement is a model-written explanation for one result.
type Enhancement struct {
	ResumeID    string `json:"resume_id"`
	Explanation string `json:"explanation"`
}

// Analyzer runs model-backed query analysis and result enhancement.
// Implementations must treat failures as non-fatal: the caller degrades to
// the unenhanced pipeline on any error.
type Analyzer interface {
	// AnalyzeQuery interprets a parsed query. Returns nil insight when the
	// model produced nothing usable.
	AnalyzeQuery(ctx context.Context, parsed *models.ParsedQuery) (*QueryInsight, error)
	// EnhanceResults writes short explanations for the given results.
	// Results without an enhancement are left untouched by callers.
	EnhanceResults(ctx context.Context, query string, results []*models.SearchResult) ([]Enhancement, error)
}
