// Package storage defines resume persistence and the user-scoped keyword search.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hireloop/talentsearch/internal/models"
)

// ErrNotFound is returned when a resume does not exist, is deleted, or
// belongs to another user. Callers cannot distinguish those cases.
var ErrNotFound = errors.New("resume not found")

// KeywordHit is a single keyword search hit.
type KeywordHit struct {
	ResumeID string
	Score    float64
}

// KeywordQuery carries the search terms for the keyword stage. Skill variants
// are pre-expanded by the caller (synonym groups), so storage stays a dumb filter.
type KeywordQuery struct {
	// Terms are full-text terms, OR-combined.
	Terms []string
	// SkillVariants holds every synonym form of every required skill,
	// matched against the stored skill array.
	SkillVariants []string
	// MinExperienceYears filters candidates below the bound when > 0.
	MinExperienceYears int
}

// EmbeddingRecord pairs a resume with its stored embedding, used for vector
// index rebuilds.
type EmbeddingRecord struct {
	ResumeID string
	UserID   string
	Vector   []float32
}

// Store defines resume persistence operations. Every read that can reach
// search results is scoped by user id inside the query itself.
type Store interface {
	CreateResume(ctx context.Context, r *models.Resume) error
	GetResume(ctx context.Context, id, userID string) (*models.Resume, error)
	UpdateResume(ctx context.Context, r *models.Resume) error
	// SoftDeleteResume flips status to deleted; the record stays for audit
	// until purged.
	SoftDeleteResume(ctx context.Context, id, userID string) error
	// PurgeDeleted hard-deletes resumes soft-deleted longer than olderThan ago.
	PurgeDeleted(ctx context.Context, olderThan time.Duration) (int64, error)

	// MarkParsed flags a resume as fully indexed and searchable.
	MarkParsed(ctx context.Context, id string, parsed bool) error
	// SetEmbedding stores the resume embedding for later index rebuilds.
	SetEmbedding(ctx context.Context, id string, vector []float32) error
	// ListEmbeddings returns stored embeddings; empty userID means all users.
	ListEmbeddings(ctx context.Context, userID string) ([]EmbeddingRecord, error)

	// GetResumesByIDs loads resumes by id, restricted to the given user and
	// active status. Unknown or foreign ids are silently dropped.
	GetResumesByIDs(ctx context.Context, ids []string, userID string) ([]*models.Resume, error)
	// ListResumes returns the user's active resumes.
	ListResumes(ctx context.Context, userID string, offset, limit int) ([]*models.Resume, error)

	// SearchKeyword runs full-text/trigram search over the user's active,
	// parsed resumes. The owner filter is part of the SQL, never post-hoc.
	SearchKeyword(ctx context.Context, q *KeywordQuery, userID string, limit int) ([]KeywordHit, error)

	CountResumes(ctx context.Context, userID string) (int64, error)

	Close() error
}
