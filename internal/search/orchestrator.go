// Package search runs the progressive hybrid search pipeline: parse, keyword
// and vector retrieval, hybrid ranking, and optional LLM enhancement, with
// one stage event emitted per completed stage.
package search

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hireloop/talentsearch/internal/analytics"
	"github.com/hireloop/talentsearch/internal/config"
	"github.com/hireloop/talentsearch/internal/embedding"
	"github.com/hireloop/talentsearch/internal/llm"
	"github.com/hireloop/talentsearch/internal/models"
	"github.com/hireloop/talentsearch/internal/query"
	"github.com/hireloop/talentsearch/internal/rank"
	"github.com/hireloop/talentsearch/internal/storage"
	"github.com/hireloop/talentsearch/internal/vector"
)

// EmitFunc receives stage events in pipeline order. The orchestrator emits
// exactly one terminal event (complete or error) per search.
type EmitFunc func(*models.StageEvent)

// Response is the result of a non-streaming search.
type Response struct {
	Query      string                 `json:"query"`
	Parsed     *models.ParsedQuery    `json:"parsed"`
	Suggestion string                 `json:"suggestion,omitempty"`
	Results    []*models.SearchResult `json:"results"`
	Total      int                    `json:"total"`
	QueryType  string                 `json:"query_type"`
	TookMS     int64                  `json:"took_ms"`
}

// Orchestrator coordinates the progressive search stages.
type Orchestrator struct {
	parser   *query.Parser
	expander *query.Expander
	store    storage.Store
	embedder embedding.Embedder
	index    vector.Index
	ranker   *rank.Ranker
	// analyzer is nil when LLM features are disabled; the pipeline then
	// ends at the hybrid stage.
	analyzer llm.Analyzer
	emitter  *analytics.Emitter
	config   *config.SearchConfig
	logger   *zap.Logger
}

// NewOrchestrator creates an orchestrator with the given dependencies.
// analyzer and emitter may be nil.
func NewOrchestrator(
	parser *query.Parser,
	expander *query.Expander,
	store storage.Store,
	embedder embedding.Embedder,
	index vector.Index,
	ranker *rank.Ranker,
	analyzer llm.Analyzer,
	emitter *analytics.Emitter,
	cfg *config.SearchConfig,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		parser:   parser,
		expander: expander,
		store:    store,
		embedder: embedder,
		index:    index,
		ranker:   ranker,
		analyzer: analyzer,
		emitter:  emitter,
		config:   cfg,
		logger:   logger,
	}
}

// vectorOutcome carries the vector stage result across the stage barrier.
type vectorOutcome struct {
	scores  map[string]float64
	ids     []string
	insight *llm.QueryInsight
	elapsed time.Duration
}

// Stream runs the full pipeline, calling emit once per completed stage.
// Retrieval stage failures degrade to empty stage results; only an invalid
// request or cancellation produces a terminal error event.
func (o *Orchestrator) Stream(ctx context.Context, req *models.SearchRequest, emit EmitFunc) error {
	start := time.Now()
	if err := req.Validate(); err != nil {
		emit(&models.StageEvent{
			Stage:       models.StageError,
			StageNumber: models.StageError.Number(),
			Error:       err.Error(),
			IsFinal:     true,
		})
		return err
	}

	// Stage 1: parse.
	parsed := o.parser.Parse(req.Query)
	suggestion := ""
	if parsed.Corrected {
		suggestion = parsed.Normalized
	}
	emit(&models.StageEvent{
		Stage:       models.StageParsed,
		StageNumber: models.StageParsed.Number(),
		TimingMS:    sinceMS(start),
		Parsed:      parsed,
		Suggestion:  suggestion,
	})
	if canceled(ctx, emit) {
		return ctx.Err()
	}

	// Stages 2 and 3 run concurrently; events still go out in stage order.
	vectorDone := make(chan vectorOutcome, 1)
	go func() {
		vectorDone <- o.vectorStage(ctx, req, parsed)
	}()

	kwStart := time.Now()
	kwScores, kwIDs := o.keywordStage(ctx, req, parsed)
	kwResults, resumes := o.loadResults(ctx, kwIDs, kwScores, req)
	emit(&models.StageEvent{
		Stage:       models.StageKeyword,
		StageNumber: models.StageKeyword.Number(),
		Count:       len(kwResults),
		TimingMS:    durationMS(time.Since(kwStart)),
		Results:     kwResults,
	})
	if canceled(ctx, emit) {
		return ctx.Err()
	}

	vec := <-vectorDone
	vecResults, vecResumes := o.loadResults(ctx, vec.ids, vec.scores, req)
	for id, r := range vecResumes {
		resumes[id] = r
	}
	emit(&models.StageEvent{
		Stage:       models.StageVector,
		StageNumber: models.StageVector.Number(),
		Count:       len(vecResults),
		TimingMS:    durationMS(vec.elapsed),
		Results:     vecResults,
	})
	if canceled(ctx, emit) {
		return ctx.Err()
	}

	// Stage 4: hybrid ranking over the union of both stages.
	hybridStart := time.Now()
	ranked := o.ranker.Rank(parsed, kwScores, vec.scores, resumes)
	if len(ranked) > req.Limit {
		ranked = ranked[:req.Limit]
	}
	emit(&models.StageEvent{
		Stage:       models.StageHybrid,
		StageNumber: models.StageHybrid.Number(),
		Count:       len(ranked),
		TimingMS:    sinceMS(hybridStart),
		Results:     ranked,
	})
	if canceled(ctx, emit) {
		return ctx.Err()
	}

	// Stage 5: optional LLM enhancement. Failures skip the stage entirely.
	enhanced := false
	if req.Enhance && o.analyzer != nil && len(ranked) > 0 {
		if done := o.enhanceStage(ctx, req, ranked, emit); done {
			enhanced = true
		}
	}

	emit(&models.StageEvent{
		Stage:       models.StageComplete,
		StageNumber: models.StageComplete.Number(),
		Count:       len(ranked),
		TimingMS:    sinceMS(start),
		IsFinal:     true,
	})

	if o.emitter != nil {
		o.emitter.Record(analytics.Event{
			UserID:      req.UserID,
			Query:       req.Query,
			QueryType:   string(rank.DetectQueryType(parsed)),
			ResultCount: len(ranked),
			DurationMS:  sinceMS(start),
			Enhanced:    enhanced,
		})
	}
	return nil
}

// Search runs the pipeline to completion and returns the final ranking.
func (o *Orchestrator) Search(ctx context.Context, req *models.SearchRequest) (*Response, error) {
	start := time.Now()
	resp := &Response{Query: req.Query, Results: []*models.SearchResult{}}

	err := o.Stream(ctx, req, func(event *models.StageEvent) {
		switch event.Stage {
		case models.StageParsed:
			resp.Parsed = event.Parsed
			resp.Suggestion = event.Suggestion
		case models.StageHybrid, models.StageEnhanced:
			resp.Results = event.Results
		}
	})
	if err != nil {
		return nil, err
	}

	resp.Total = len(resp.Results)
	resp.QueryType = string(rank.DetectQueryType(resp.Parsed))
	resp.TookMS = sinceMS(start)
	return resp, nil
}

// keywordStage runs user-scoped full-text search. Errors degrade to an empty
// result set so later stages still run.
func (o *Orchestrator) keywordStage(ctx context.Context, req *models.SearchRequest, parsed *models.ParsedQuery) (map[string]float64, []string) {
	kwCtx, cancel := context.WithTimeout(ctx, o.config.KeywordTimeout())
	defer cancel()

	kq := o.buildKeywordQuery(parsed)
	hits, err := o.store.SearchKeyword(kwCtx, kq, req.UserID, o.config.TopKCandidates)
	if err != nil {
		o.logger.Warn("keyword stage failed",
			zap.String("user_id", req.UserID),
			zap.Error(err))
		return map[string]float64{}, nil
	}

	scores := make(map[string]float64, len(hits))
	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		scores[hit.ResumeID] = hit.Score
		ids = append(ids, hit.ResumeID)
	}
	return scores, ids
}

// vectorStage embeds the query and searches the vector index. When an
// analyzer is available and enhancement was requested, the query is first
// expanded by the model; analyzer failures fall back to the parsed query.
func (o *Orchestrator) vectorStage(ctx context.Context, req *models.SearchRequest, parsed *models.ParsedQuery) vectorOutcome {
	start := time.Now()
	out := vectorOutcome{scores: map[string]float64{}}

	embedText := parsed.Normalized
	if embedText == "" {
		embedText = req.Query
	}
	if req.Enhance && o.analyzer != nil {
		out.insight = o.analyzeQuery(ctx, parsed)
		if out.insight != nil && out.insight.ExpandedQuery != "" {
			embedText = out.insight.ExpandedQuery
		}
	}

	vecCtx, cancel := context.WithTimeout(ctx, o.config.VectorTimeout())
	defer cancel()

	queryVec, err := o.embedder.Embed(vecCtx, embedText)
	if err != nil {
		o.logger.Warn("query embedding failed", zap.Error(err))
		out.elapsed = time.Since(start)
		return out
	}
	hits, err := o.index.Search(vecCtx, queryVec, req.UserID, o.config.TopKCandidates)
	if err != nil {
		o.logger.Warn("vector stage failed",
			zap.String("user_id", req.UserID),
			zap.Error(err))
		out.elapsed = time.Since(start)
		return out
	}

	for _, hit := range hits {
		out.scores[hit.ID] = hit.Score
		out.ids = append(out.ids, hit.ID)
	}
	out.elapsed = time.Since(start)
	return out
}

// enhanceStage annotates the ranked results and emits the enhanced event.
// Returns false when the stage was skipped due to an analyzer failure.
func (o *Orchestrator) enhanceStage(ctx context.Context, req *models.SearchRequest, ranked []*models.SearchResult, emit EmitFunc) bool {
	start := time.Now()
	enhCtx, cancel := context.WithTimeout(ctx, o.config.EnhanceTimeout())
	defer cancel()

	enhancements, err := o.analyzer.EnhanceResults(enhCtx, req.Query, ranked)
	if err != nil {
		o.logger.Warn("enhancement failed", zap.Error(err))
		return false
	}

	byID := make(map[string]string, len(enhancements))
	for _, e := range enhancements {
		if e.Explanation != "" {
			byID[e.ResumeID] = e.Explanation
		}
	}
	for _, res := range ranked {
		if res.Resume == nil {
			continue
		}
		if explanation, ok := byID[res.Resume.ID]; ok {
			res.Explanation = explanation
		}
	}

	emit(&models.StageEvent{
		Stage:       models.StageEnhanced,
		StageNumber: models.StageEnhanced.Number(),
		Count:       len(ranked),
		TimingMS:    sinceMS(start),
		Results:     ranked,
	})
	return true
}

// analyzeQuery runs the LLM query analysis with the enhancement timeout.
func (o *Orchestrator) analyzeQuery(ctx context.Context, parsed *models.ParsedQuery) *llm.QueryInsight {
	aCtx, cancel := context.WithTimeout(ctx, o.config.EnhanceTimeout())
	defer cancel()

	insight, err := o.analyzer.AnalyzeQuery(aCtx, parsed)
	if err != nil {
		o.logger.Warn("query analysis failed", zap.Error(err))
		return nil
	}
	return insight
}

// buildKeywordQuery maps parsed facets onto the storage query: every facet
// becomes a full-text term, skills additionally carry their synonym variants
// for array matching.
func (o *Orchestrator) buildKeywordQuery(parsed *models.ParsedQuery) *storage.KeywordQuery {
	seen := make(map[string]bool)
	var terms []string
	add := func(t string) {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		terms = append(terms, t)
	}
	for _, s := range parsed.Skills {
		add(s)
	}
	for _, r := range parsed.Roles {
		add(r)
	}
	add(parsed.Seniority)
	for _, t := range parsed.RemainingTerms {
		add(t)
	}

	variantSet := make(map[string]bool)
	var variants []string
	for _, skill := range parsed.Skills {
		for _, v := range o.expander.Expand(skill) {
			if !variantSet[v] {
				variantSet[v] = true
				variants = append(variants, v)
			}
		}
	}

	kq := &storage.KeywordQuery{Terms: terms, SkillVariants: variants}
	if parsed.ExperienceYears != nil {
		kq.MinExperienceYears = *parsed.ExperienceYears
	}
	return kq
}

// loadResults resolves hit ids to the user's resumes, preserving hit order
// and attaching raw stage scores. Ids the store does not return (foreign,
// deleted, unknown) are dropped.
func (o *Orchestrator) loadResults(ctx context.Context, ids []string, scores map[string]float64, req *models.SearchRequest) ([]*models.SearchResult, map[string]*models.Resume) {
	resumes := make(map[string]*models.Resume)
	if len(ids) == 0 {
		return []*models.SearchResult{}, resumes
	}

	loaded, err := o.store.GetResumesByIDs(ctx, ids, req.UserID)
	if err != nil {
		o.logger.Warn("resume load failed", zap.Error(err))
		return []*models.SearchResult{}, resumes
	}
	for _, r := range loaded {
		resumes[r.ID] = r
	}

	results := make([]*models.SearchResult, 0, len(ids))
	for _, id := range ids {
		resume, ok := resumes[id]
		if !ok {
			continue
		}
		results = append(results, &models.SearchResult{
			Resume: resume,
			Score:  scores[id],
			Rank:   len(results) + 1,
		})
		if len(results) >= req.Limit {
			break
		}
	}
	return results, resumes
}

// canceled emits the terminal error event when ctx is done.
func canceled(ctx context.Context, emit EmitFunc) bool {
	if ctx.Err() == nil {
		return false
	}
	emit(&models.StageEvent{
		Stage:       models.StageError,
		StageNumber: models.StageError.Number(),
		Error:       "search canceled",
		IsFinal:     true,
	})
	return true
}

func sinceMS(t time.Time) int64 {
	return durationMS(time.Since(t))
}

func durationMS(d time.Duration) int64 {
	return d.Milliseconds()
}
