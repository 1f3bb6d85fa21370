package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/hireloop/talentsearch/internal/embedding"
	"github.com/hireloop/talentsearch/internal/models"
	"github.com/hireloop/talentsearch/internal/storage"
	"github.com/hireloop/talentsearch/internal/vector"
)

func testIndexer(t *testing.T) (*Indexer, *storage.MemoryStore, vector.Index) {
	t.Helper()
	store := storage.NewMemoryStore()
	embedder := embedding.NewMockEmbedder(8)
	idx, err := vector.NewMemoryIndex(8)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = store.Close()
		_ = embedder.Close()
		_ = idx.Close()
	})
	return NewIndexer(store, embedder, idx, nil), store, idx
}

func TestIndexResume(t *testing.T) {
	ix, store, vecIndex := testIndexer(t)
	ctx := context.Background()

	resume, err := ix.IndexResume(ctx, &models.ResumeInput{
		UserID:        "alice",
		CandidateName: "Jordan Doe",
		Summary:       "Backend engineer with Go and Postgres",
		Skills:        []string{"go", "postgres"},
	})
	if err != nil {
		t.Fatalf("IndexResume: %v", err)
	}
	if resume.ID == "" {
		t.Error("IndexResume did not assign an id")
	}
	if !resume.Parsed {
		t.Error("resume not marked parsed")
	}

	stored, err := store.GetResume(ctx, resume.ID, "alice")
	if err != nil {
		t.Fatalf("GetResume after index: %v", err)
	}
	if !stored.Parsed || stored.Status != models.StatusActive {
		t.Errorf("stored resume = %+v, want active and parsed", stored)
	}
	if vecIndex.Size() != 1 {
		t.Errorf("vector index size = %d, want 1", vecIndex.Size())
	}

	embeddings, _ := store.ListEmbeddings(ctx, "alice")
	if len(embeddings) != 1 {
		t.Errorf("stored embeddings = %d, want 1", len(embeddings))
	}
}

func TestIndexResumeValidation(t *testing.T) {
	ix, _, _ := testIndexer(t)
	ctx := context.Background()

	if _, err := ix.IndexResume(ctx, &models.ResumeInput{Summary: "no user"}); err == nil {
		t.Error("IndexResume without user id should fail")
	}
	if _, err := ix.IndexResume(ctx, &models.ResumeInput{UserID: "alice"}); err == nil {
		t.Error("IndexResume without summary should fail")
	}
}

func TestIndexResumeSurvivesEmbeddingFailure(t *testing.T) {
	store := storage.NewMemoryStore()
	embedder := &failingEmbedder{}
	idx, _ := vector.NewMemoryIndex(8)
	ix := NewIndexer(store, embedder, idx, nil)
	ctx := context.Background()

	resume, err := ix.IndexResume(ctx, &models.ResumeInput{
		UserID:  "alice",
		Summary: "keyword-only candidate",
	})
	if err != nil {
		t.Fatalf("IndexResume with failing embedder: %v", err)
	}
	// Still searchable by keyword: parsed is set despite the missing vector.
	if !resume.Parsed {
		t.Error("resume not marked parsed after embedding failure")
	}
	if idx.Size() != 0 {
		t.Errorf("vector index size = %d, want 0", idx.Size())
	}
}

func TestUpdateResumeReembeds(t *testing.T) {
	ix, _, vecIndex := testIndexer(t)
	ctx := context.Background()

	resume, _ := ix.IndexResume(ctx, &models.ResumeInput{
		UserID:  "alice",
		Summary: "original summary",
	})

	updated, err := ix.UpdateResume(ctx, &models.ResumeInput{
		ID:      resume.ID,
		UserID:  "alice",
		Summary: "rewritten summary",
		Skills:  []string{"rust"},
	})
	if err != nil {
		t.Fatalf("UpdateResume: %v", err)
	}
	if updated.Summary != "rewritten summary" {
		t.Errorf("Summary = %q, want rewritten", updated.Summary)
	}
	if vecIndex.Size() != 1 {
		t.Errorf("vector index size = %d, want 1 (replaced, not duplicated)", vecIndex.Size())
	}
}

func TestUpdateForeignResumeFails(t *testing.T) {
	ix, _, _ := testIndexer(t)
	ctx := context.Background()

	resume, _ := ix.IndexResume(ctx, &models.ResumeInput{UserID: "alice", Summary: "mine"})
	_, err := ix.UpdateResume(ctx, &models.ResumeInput{
		ID: resume.ID, UserID: "bob", Summary: "stolen",
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("foreign update err = %v, want ErrNotFound", err)
	}
}

func TestDeleteResumeRemovesVector(t *testing.T) {
	ix, store, vecIndex := testIndexer(t)
	ctx := context.Background()

	resume, _ := ix.IndexResume(ctx, &models.ResumeInput{UserID: "alice", Summary: "to delete"})
	if err := ix.DeleteResume(ctx, resume.ID, "alice"); err != nil {
		t.Fatalf("DeleteResume: %v", err)
	}
	if vecIndex.Size() != 0 {
		t.Errorf("vector index size = %d, want 0 after delete", vecIndex.Size())
	}
	if _, err := store.GetResume(ctx, resume.ID, "alice"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("deleted resume still readable: %v", err)
	}
}

func TestRebuild(t *testing.T) {
	ix, store, _ := testIndexer(t)
	ctx := context.Background()

	_, _ = ix.IndexResume(ctx, &models.ResumeInput{UserID: "alice", Summary: "first"})
	_, _ = ix.IndexResume(ctx, &models.ResumeInput{UserID: "bob", Summary: "second"})

	// A fresh index rebuilt from stored embeddings matches the live one.
	fresh, _ := vector.NewMemoryIndex(8)
	rebuilt := NewIndexer(store, embedding.NewMockEmbedder(8), fresh, nil)
	n, err := rebuilt.Rebuild(ctx)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if n != 2 || fresh.Size() != 2 {
		t.Errorf("Rebuild = %d points, index size %d, want 2/2", n, fresh.Size())
	}
}

func TestReindexUser(t *testing.T) {
	ix, store, _ := testIndexer(t)
	ctx := context.Background()

	_, _ = ix.IndexResume(ctx, &models.ResumeInput{UserID: "alice", Summary: "one"})
	_, _ = ix.IndexResume(ctx, &models.ResumeInput{UserID: "alice", Summary: "two"})
	_, _ = ix.IndexResume(ctx, &models.ResumeInput{UserID: "bob", Summary: "other"})

	n, err := ix.ReindexUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ReindexUser: %v", err)
	}
	if n != 2 {
		t.Errorf("ReindexUser = %d, want 2", n)
	}
	embeddings, _ := store.ListEmbeddings(ctx, "alice")
	if len(embeddings) != 2 {
		t.Errorf("alice embeddings = %d, want 2", len(embeddings))
	}
}

// failingEmbedder always errors, exercising the degraded keyword-only path.
type failingEmbedder struct{}

func (f *failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embedding service down")
}

func (f *failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("embedding service down")
}

func (f *failingEmbedder) Dimensions() int { return 8 }
func (f *failingEmbedder) Close() error    { return nil }
