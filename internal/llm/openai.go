package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"

	"github.com/hireloop/talentsearch/internal/models"
)

const (
	// maxParseAttempts bounds retries on malformed model JSON.
	maxParseAttempts = 3
	// maxEnhanceResults caps how many results are sent for annotation.
	maxEnhanceResults = 5
	// summarySnippetLen truncates resume summaries in the enhance prompt.
	summarySnippetLen = 400
)

const analyzeSystemPrompt = `You analyze recruiter search queries for a resume search engine.
Given a query and the facets already extracted from it, respond with JSON only:
{"intent": "<one sentence>", "implied_skills": ["<skill>", ...], "expanded_query": "<reformulation for semantic search>"}
implied_skills must list only skills NOT already in the extracted facets. Use lowercase canonical skill names.`

const enhanceSystemPrompt = `You explain why candidates match a recruiter's search query.
For each candidate, write one concise sentence naming the strongest evidence of fit.
Respond with JSON only: {"explanations": [{"resume_id": "<id>", "explanation": "<sentence>"}, ...]}
Never invent skills or experience the candidate summary does not mention.`

// OpenAIAnalyzer implements Analyzer against an OpenAI-compatible chat API.
type OpenAIAnalyzer struct {
	client llms.Model
	model  string
	logger *zap.Logger
}

// NewOpenAIAnalyzer creates an analyzer. baseURL is optional and supports
// OpenAI-compatible local services.
func NewOpenAIAnalyzer(apiKey, model, baseURL string, logger *zap.Logger) (*OpenAIAnalyzer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIAnalyzer{client: client, model: model, logger: logger}, nil
}

// AnalyzeQuery asks the model to interpret the query. The parser's facets are
// included so the model only adds what rule-based extraction missed.
func (a *OpenAIAnalyzer) AnalyzeQuery(ctx context.Context, parsed *models.ParsedQuery) (*QueryInsight, error) {
	if parsed == nil || parsed.Original == "" {
		return nil, nil
	}

	facets, _ := json.Marshal(map[string]any{
		"skills":    parsed.Skills,
		"seniority": parsed.Seniority,
		"roles":     parsed.Roles,
	})
	user := fmt.Sprintf("Query: %s\nExtracted facets: %s", parsed.Original, facets)

	var insight QueryInsight
	if err := a.generateJSON(ctx, analyzeSystemPrompt, user, &insight); err != nil {
		return nil, err
	}
	if insight.Intent == "" && len(insight.ImpliedSkills) == 0 && insight.ExpandedQuery == "" {
		return nil, nil
	}
	for i, s := range insight.ImpliedSkills {
		insight.ImpliedSkills[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return &insight, nil
}

// EnhanceResults annotates the top results with match explanations. Only the
// first maxEnhanceResults results are sent to the model.
func (a *OpenAIAnalyzer) EnhanceResults(ctx context.Context, query string, results []*models.SearchResult) ([]Enhancement, error) {
	if len(results) == 0 {
		return nil, nil
	}
	if len(results) > maxEnhanceResults {
		results = results[:maxEnhanceResults]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\nCandidates:\n", query)
	for _, res := range results {
		if res.Resume == nil {
			continue
		}
		summary := res.Resume.Summary
		if len(summary) > summarySnippetLen {
			summary = summary[:summarySnippetLen]
		}
		fmt.Fprintf(&b, "- id=%s skills=%s summary=%s\n",
			res.Resume.ID, strings.Join(res.Resume.Skills, ","), summary)
	}

	var payload struct {
		Explanations []Enhancement `json:"explanations"`
	}
	if err := a.generateJSON(ctx, enhanceSystemPrompt, b.String(), &payload); err != nil {
		return nil, err
	}
	return payload.Explanations, nil
}

// generateJSON runs one chat completion and unmarshals the JSON response into
// out, retrying on malformed output after repair.
func (a *OpenAIAnalyzer) generateJSON(ctx context.Context, system, user string, out any) error {
	content := []llms.MessageContent{
		{Role: schema.ChatMessageTypeSystem, Parts: []llms.ContentPart{llms.TextPart(system)}},
		{Role: schema.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextPart(user)}},
	}

	var lastErr error
	for attempt := 1; attempt <= maxParseAttempts; attempt++ {
		response, err := a.client.GenerateContent(ctx, content,
			llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			return fmt.Errorf("generate content: %w", err)
		}
		if len(response.Choices) == 0 {
			return fmt.Errorf("model returned no choices")
		}

		text := repairJSON(extractJSON(response.Choices[0].Content))
		if err := json.Unmarshal([]byte(text), out); err != nil {
			lastErr = err
			a.logger.Warn("malformed model response",
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}
		return nil
	}
	return fmt.Errorf("parse model response: %w", lastErr)
}
