package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/hireloop/talentsearch/internal/models"
)

// MockAnalyzer is a deterministic Analyzer for tests and offline development.
type MockAnalyzer struct {
	// Err, when set, is returned by every call.
	Err error
}

// NewMockAnalyzer creates a mock analyzer.
func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{}
}

// AnalyzeQuery returns a canned insight derived from the parsed query.
func (m *MockAnalyzer) AnalyzeQuery(ctx context.Context, parsed *models.ParsedQuery) (*QueryInsight, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if parsed == nil || parsed.Original == "" {
		return nil, nil
	}
	return &QueryInsight{
		Intent:        "find candidates matching: " + parsed.Original,
		ExpandedQuery: parsed.Normalized,
	}, nil
}

// EnhanceResults returns one explanation per result naming matched skills.
func (m *MockAnalyzer) EnhanceResults(ctx context.Context, query string, results []*models.SearchResult) ([]Enhancement, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	enhancements := make([]Enhancement, 0, len(results))
	for _, res := range results {
		if res.Resume == nil {
			continue
		}
		explanation := "relevant to the query"
		if len(res.MatchedSkills) > 0 {
			explanation = fmt.Sprintf("matches %s", strings.Join(res.MatchedSkills, ", "))
		}
		enhancements = append(enhancements, Enhancement{
			ResumeID:    res.Resume.ID,
			Explanation: explanation,
		})
	}
	return enhancements, nil
}
