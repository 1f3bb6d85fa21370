// Package indexer coordinates resume persistence, embedding, and vector
// index registration.
package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hireloop/talentsearch/internal/embedding"
	"github.com/hireloop/talentsearch/internal/models"
	"github.com/hireloop/talentsearch/internal/storage"
	"github.com/hireloop/talentsearch/internal/vector"
)

// Indexer writes resumes to the store and keeps the vector index in sync.
type Indexer struct {
	store    storage.Store
	embedder embedding.Embedder
	index    vector.Index
	logger   *zap.Logger
}

// NewIndexer creates an indexer.
func NewIndexer(store storage.Store, embedder embedding.Embedder, index vector.Index, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{store: store, embedder: embedder, index: index, logger: logger}
}

// IndexResume persists a new resume and makes it searchable: the record is
// stored, embedded, registered in the vector index, and marked parsed. An
// embedding failure is logged but does not fail the operation; the resume
// stays reachable through keyword search and gets its vector on the next
// reindex.
func (i *Indexer) IndexResume(ctx context.Context, input *models.ResumeInput) (*models.Resume, error) {
	if input.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if input.Summary == "" {
		return nil, fmt.Errorf("summary is required")
	}

	now := time.Now().UTC()
	resume := &models.Resume{
		ID:              input.ID,
		UserID:          input.UserID,
		CandidateName:   input.CandidateName,
		Summary:         input.Summary,
		Skills:          input.Skills,
		ExperienceYears: input.ExperienceYears,
		Status:          models.StatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if resume.ID == "" {
		resume.ID = uuid.New().String()
	}
	if resume.Skills == nil {
		resume.Skills = []string{}
	}

	if err := i.store.CreateResume(ctx, resume); err != nil {
		return nil, fmt.Errorf("create resume: %w", err)
	}

	i.embed(ctx, resume)

	if err := i.store.MarkParsed(ctx, resume.ID, true); err != nil {
		return nil, fmt.Errorf("mark parsed: %w", err)
	}
	resume.Parsed = true

	i.logger.Info("resume indexed",
		zap.String("resume_id", resume.ID),
		zap.String("user_id", resume.UserID),
		zap.Int("skills", len(resume.Skills)))
	return resume, nil
}

// UpdateResume applies changes to an existing resume and re-embeds it.
func (i *Indexer) UpdateResume(ctx context.Context, input *models.ResumeInput) (*models.Resume, error) {
	resume, err := i.store.GetResume(ctx, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.CandidateName != "" {
		resume.CandidateName = input.CandidateName
	}
	if input.Summary != "" {
		resume.Summary = input.Summary
	}
	if input.Skills != nil {
		resume.Skills = input.Skills
	}
	if input.ExperienceYears > 0 {
		resume.ExperienceYears = input.ExperienceYears
	}
	resume.UpdatedAt = time.Now().UTC()

	if err := i.store.UpdateResume(ctx, resume); err != nil {
		return nil, fmt.Errorf("update resume: %w", err)
	}

	i.embed(ctx, resume)
	return resume, nil
}

// DeleteResume soft-deletes a resume and drops it from the vector index so
// it disappears from search immediately.
func (i *Indexer) DeleteResume(ctx context.Context, id, userID string) error {
	if err := i.store.SoftDeleteResume(ctx, id, userID); err != nil {
		return err
	}
	if err := i.index.Remove(ctx, []string{id}); err != nil {
		i.logger.Warn("vector removal failed",
			zap.String("resume_id", id),
			zap.Error(err))
	}
	return nil
}

// Rebuild reloads the vector index from embeddings stored in Postgres.
// Used at startup when no snapshot exists and by the reindex endpoint.
func (i *Indexer) Rebuild(ctx context.Context) (int, error) {
	records, err := i.store.ListEmbeddings(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("list embeddings: %w", err)
	}

	points := make([]vector.Point, 0, len(records))
	for _, rec := range records {
		points = append(points, vector.Point{
			ID:     rec.ResumeID,
			UserID: rec.UserID,
			Vector: rec.Vector,
		})
	}
	if len(points) > 0 {
		if err := i.index.Upsert(ctx, points); err != nil {
			return 0, fmt.Errorf("rebuild index: %w", err)
		}
	}
	i.logger.Info("vector index rebuilt", zap.Int("points", len(points)))
	return len(points), nil
}

// ReindexUser re-embeds every active resume belonging to userID. Returns the
// number of resumes processed.
func (i *Indexer) ReindexUser(ctx context.Context, userID string) (int, error) {
	const pageSize = 200
	count := 0
	for offset := 0; ; offset += pageSize {
		page, err := i.store.ListResumes(ctx, userID, offset, pageSize)
		if err != nil {
			return count, fmt.Errorf("list resumes: %w", err)
		}
		if len(page) == 0 {
			return count, nil
		}
		for _, resume := range page {
			i.embed(ctx, resume)
			if err := i.store.MarkParsed(ctx, resume.ID, true); err != nil {
				return count, fmt.Errorf("mark parsed: %w", err)
			}
			count++
		}
		if len(page) < pageSize {
			return count, nil
		}
	}
}

// PurgeDeleted hard-deletes resumes that were soft-deleted longer than
// olderThan ago.
func (i *Indexer) PurgeDeleted(ctx context.Context, olderThan time.Duration) (int64, error) {
	purged, err := i.store.PurgeDeleted(ctx, olderThan)
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		i.logger.Info("purged deleted resumes", zap.Int64("count", purged))
	}
	return purged, nil
}

// embed computes and registers the resume embedding. Failures are logged,
// never returned: keyword search works without a vector.
func (i *Indexer) embed(ctx context.Context, resume *models.Resume) {
	vec, err := i.embedder.Embed(ctx, resume.SearchText())
	if err != nil {
		i.logger.Warn("embedding failed",
			zap.String("resume_id", resume.ID),
			zap.Error(err))
		return
	}
	if err := i.store.SetEmbedding(ctx, resume.ID, vec); err != nil {
		i.logger.Warn("store embedding failed",
			zap.String("resume_id", resume.ID),
			zap.Error(err))
	}
	point := vector.Point{ID: resume.ID, UserID: resume.UserID, Vector: vec}
	if err := i.index.Upsert(ctx, []vector.Point{point}); err != nil {
		i.logger.Warn("vector upsert failed",
			zap.String("resume_id", resume.ID),
			zap.Error(err))
	}
}
