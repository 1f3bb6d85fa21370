package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hireloop/talentsearch/internal/config"
	"github.com/hireloop/talentsearch/internal/embedding"
	"github.com/hireloop/talentsearch/internal/fuzzy"
	"github.com/hireloop/talentsearch/internal/indexer"
	"github.com/hireloop/talentsearch/internal/llm"
	"github.com/hireloop/talentsearch/internal/models"
	"github.com/hireloop/talentsearch/internal/query"
	"github.com/hireloop/talentsearch/internal/rank"
	"github.com/hireloop/talentsearch/internal/search"
	"github.com/hireloop/talentsearch/internal/storage"
	"github.com/hireloop/talentsearch/internal/vector"
)

func testServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	store := storage.NewMemoryStore()
	embedder := embedding.NewMockEmbedder(8)
	vecIndex, err := vector.NewMemoryIndex(8)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = store.Close()
		_ = embedder.Close()
		_ = vecIndex.Close()
	})

	expander := query.NewExpander()
	matcher := fuzzy.NewMatcher(fuzzy.WithEquivalence(expander.Equivalent))
	parser := query.NewParser(expander, matcher)
	ranker := rank.NewRanker(&cfg.Search.Ranking, matcher)
	orchestrator := search.NewOrchestrator(parser, expander, store, embedder,
		vecIndex, ranker, llm.NewMockAnalyzer(), nil, &cfg.Search, nil)
	idx := indexer.NewIndexer(store, embedder, vecIndex, nil)

	srv := NewServer(orchestrator, idx, store, vecIndex, nil, cfg, nil)
	return srv, srv.Router()
}

func doJSON(t *testing.T, handler http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set(userIDHeader, user)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func createResume(t *testing.T, handler http.Handler, user, summary string, skills []string) *models.Resume {
	t.Helper()
	w := doJSON(t, handler, http.MethodPost, "/api/v1/resumes", user, models.ResumeInput{
		CandidateName: "Test Candidate",
		Summary:       summary,
		Skills:        skills,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create resume: status %d: %s", w.Code, w.Body.String())
	}
	var resume models.Resume
	if err := json.NewDecoder(w.Body).Decode(&resume); err != nil {
		t.Fatal(err)
	}
	return &resume
}

func TestMissingUserHeaderRejected(t *testing.T) {
	_, handler := testServer(t)

	w := doJSON(t, handler, http.MethodPost, "/api/v1/search", "", models.SearchRequest{Query: "go"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestHealthNeedsNoAuth(t *testing.T) {
	_, handler := testServer(t)

	w := doJSON(t, handler, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestResumeLifecycle(t *testing.T) {
	_, handler := testServer(t)

	resume := createResume(t, handler, "alice", "python developer", []string{"python"})

	w := doJSON(t, handler, http.MethodGet, "/api/v1/resumes/"+resume.ID, "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: status %d", w.Code)
	}

	w = doJSON(t, handler, http.MethodPut, "/api/v1/resumes/"+resume.ID, "alice", models.ResumeInput{
		Summary: "senior python developer",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: status %d: %s", w.Code, w.Body.String())
	}
	var updated models.Resume
	_ = json.NewDecoder(w.Body).Decode(&updated)
	if updated.Summary != "senior python developer" {
		t.Errorf("Summary = %q, want updated", updated.Summary)
	}

	w = doJSON(t, handler, http.MethodDelete, "/api/v1/resumes/"+resume.ID, "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status %d", w.Code)
	}
	w = doJSON(t, handler, http.MethodGet, "/api/v1/resumes/"+resume.ID, "alice", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", w.Code)
	}
}

func TestResumeOwnershipEnforced(t *testing.T) {
	_, handler := testServer(t)

	resume := createResume(t, handler, "alice", "python developer", []string{"python"})

	// Another user cannot read, update, or delete it.
	if w := doJSON(t, handler, http.MethodGet, "/api/v1/resumes/"+resume.ID, "bob", nil); w.Code != http.StatusNotFound {
		t.Errorf("foreign get: status %d, want 404", w.Code)
	}
	w := doJSON(t, handler, http.MethodPut, "/api/v1/resumes/"+resume.ID, "bob", models.ResumeInput{Summary: "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign update: status %d, want 404", w.Code)
	}
	if w := doJSON(t, handler, http.MethodDelete, "/api/v1/resumes/"+resume.ID, "bob", nil); w.Code != http.StatusNotFound {
		t.Errorf("foreign delete: status %d, want 404", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, handler := testServer(t)

	createResume(t, handler, "alice", "senior python developer with aws", []string{"python", "aws"})
	createResume(t, handler, "bob", "python developer", []string{"python"})

	w := doJSON(t, handler, http.MethodPost, "/api/v1/search", "alice", models.SearchRequest{
		Query: "python developer",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("search: status %d: %s", w.Code, w.Body.String())
	}

	var resp search.Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 {
		t.Fatalf("Total = %d, want only alice's resume", resp.Total)
	}
	if resp.Results[0].Resume.UserID != "alice" {
		t.Errorf("result belongs to %s, want alice", resp.Results[0].Resume.UserID)
	}
	if resp.Parsed == nil || len(resp.Parsed.Skills) == 0 {
		t.Error("response missing parsed facets")
	}
}

func TestSearchEmptyQueryRejected(t *testing.T) {
	_, handler := testServer(t)

	w := doJSON(t, handler, http.MethodPost, "/api/v1/search", "alice", models.SearchRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSearchStreamSSE(t *testing.T) {
	_, handler := testServer(t)
	createResume(t, handler, "alice", "python developer", []string{"python"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/stream?q=python+developer", nil)
	req.Header.Set(userIDHeader, "alice")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	body := w.Body.String()
	for _, stage := range []string{"parsed", "keyword", "vector", "hybrid", "complete"} {
		if !strings.Contains(body, "event: "+stage+"\n") {
			t.Errorf("stream missing stage %q:\n%s", stage, body)
		}
	}
	// Each frame is an SSE data line with a JSON stage event.
	var sawFinal bool
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var event models.StageEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			t.Fatalf("bad data frame %q: %v", line, err)
		}
		if event.IsFinal {
			sawFinal = true
		}
	}
	if !sawFinal {
		t.Error("stream carried no terminal event")
	}
}

func TestListResumes(t *testing.T) {
	_, handler := testServer(t)
	createResume(t, handler, "alice", "first resume", nil)
	createResume(t, handler, "alice", "second resume", nil)
	createResume(t, handler, "bob", "other user", nil)

	w := doJSON(t, handler, http.MethodGet, "/api/v1/resumes", "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status %d", w.Code)
	}
	var out struct {
		Resumes []*models.Resume `json:"resumes"`
	}
	_ = json.NewDecoder(w.Body).Decode(&out)
	if len(out.Resumes) != 2 {
		t.Errorf("resumes = %d, want 2", len(out.Resumes))
	}
}

func TestReindexEndpoint(t *testing.T) {
	_, handler := testServer(t)
	createResume(t, handler, "alice", "python developer", []string{"python"})

	w := doJSON(t, handler, http.MethodPost, "/api/v1/reindex", "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reindex: status %d: %s", w.Code, w.Body.String())
	}
	var out struct {
		Reindexed int `json:"reindexed"`
	}
	_ = json.NewDecoder(w.Body).Decode(&out)
	if out.Reindexed != 1 {
		t.Errorf("reindexed = %d, want 1", out.Reindexed)
	}
}

func TestStatusEndpoint(t *testing.T) {
	_, handler := testServer(t)
	createResume(t, handler, "alice", "python developer", []string{"python"})

	w := doJSON(t, handler, http.MethodGet, "/api/v1/status", "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	var out map[string]any
	_ = json.NewDecoder(w.Body).Decode(&out)
	if out["resumes"] != float64(1) {
		t.Errorf("resumes = %v, want 1", out["resumes"])
	}
	if out["vector_index_size"] != float64(1) {
		t.Errorf("vector_index_size = %v, want 1", out["vector_index_size"])
	}
}
