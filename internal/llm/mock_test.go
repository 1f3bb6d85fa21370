package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/talentsearch/internal/models"
)

func TestMockAnalyzerAnalyzeQuery(t *testing.T) {
	m := NewMockAnalyzer()
	ctx := context.Background()

	insight, err := m.AnalyzeQuery(ctx, &models.ParsedQuery{
		Original:   "senior go developer",
		Normalized: "senior go developer",
	})
	require.NoError(t, err)
	require.NotNil(t, insight)
	assert.NotEmpty(t, insight.Intent)
	assert.Equal(t, "senior go developer", insight.ExpandedQuery)

	// Empty queries yield no insight.
	insight, err = m.AnalyzeQuery(ctx, &models.ParsedQuery{})
	require.NoError(t, err)
	assert.Nil(t, insight)
}

func TestMockAnalyzerEnhanceResults(t *testing.T) {
	m := NewMockAnalyzer()
	results := []*models.SearchResult{
		{
			Resume:        &models.Resume{ID: "r1"},
			MatchedSkills: []string{"go", "kubernetes"},
		},
		{Resume: &models.Resume{ID: "r2"}},
	}

	enhancements, err := m.EnhanceResults(context.Background(), "go developer", results)
	require.NoError(t, err)
	require.Len(t, enhancements, 2)
	assert.Equal(t, "r1", enhancements[0].ResumeID)
	assert.Contains(t, enhancements[0].Explanation, "go")
}

func TestMockAnalyzerErr(t *testing.T) {
	m := NewMockAnalyzer()
	m.Err = errors.New("down")

	_, err := m.AnalyzeQuery(context.Background(), &models.ParsedQuery{Original: "x"})
	assert.Error(t, err)
	_, err = m.EnhanceResults(context.Background(), "x", nil)
	assert.Error(t, err)
}
