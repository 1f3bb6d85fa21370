package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hireloop/talentsearch/internal/models"
)

// MemoryStore is an in-memory Store used by tests and dev mode. Its keyword
// scoring mirrors the shape of the Postgres implementation: term frequency
// plus a flat bonus for skill overlap, with the same user/status/parsed
// scoping and result ordering.
type MemoryStore struct {
	mu         sync.RWMutex
	resumes    map[string]*models.Resume
	embeddings map[string][]float32
	deletedAt  map[string]time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		resumes:    make(map[string]*models.Resume),
		embeddings: make(map[string][]float32),
		deletedAt:  make(map[string]time.Time),
	}
}

// CreateResume stores a new resume.
func (m *MemoryStore) CreateResume(ctx context.Context, r *models.Resume) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.resumes[r.ID]; exists {
		return fmt.Errorf("resume %s already exists", r.ID)
	}
	m.resumes[r.ID] = cloneResume(r)
	return nil
}

// GetResume returns the resume if it belongs to userID and is not deleted.
func (m *MemoryStore) GetResume(ctx context.Context, id, userID string) (*models.Resume, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.resumes[id]
	if !ok || r.UserID != userID || r.Status != models.StatusActive {
		return nil, ErrNotFound
	}
	return cloneResume(r), nil
}

// UpdateResume replaces a stored resume, enforcing ownership.
func (m *MemoryStore) UpdateResume(ctx context.Context, r *models.Resume) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.resumes[r.ID]
	if !ok || existing.UserID != r.UserID || existing.Status != models.StatusActive {
		return ErrNotFound
	}
	m.resumes[r.ID] = cloneResume(r)
	return nil
}

// SoftDeleteResume flips the status to deleted.
func (m *MemoryStore) SoftDeleteResume(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resumes[id]
	if !ok || r.UserID != userID || r.Status != models.StatusActive {
		return ErrNotFound
	}
	r.Status = models.StatusDeleted
	r.UpdatedAt = time.Now().UTC()
	m.deletedAt[id] = r.UpdatedAt
	return nil
}

// PurgeDeleted removes soft-deleted resumes older than olderThan.
func (m *MemoryStore) PurgeDeleted(ctx context.Context, olderThan time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().UTC().Add(-olderThan)
	var purged int64
	for id, deleted := range m.deletedAt {
		if deleted.Before(cutoff) {
			delete(m.resumes, id)
			delete(m.embeddings, id)
			delete(m.deletedAt, id)
			purged++
		}
	}
	return purged, nil
}

// MarkParsed flags a resume as searchable.
func (m *MemoryStore) MarkParsed(ctx context.Context, id string, parsed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resumes[id]
	if !ok {
		return ErrNotFound
	}
	r.Parsed = parsed
	return nil
}

// SetEmbedding stores an embedding.
func (m *MemoryStore) SetEmbedding(ctx context.Context, id string, vector []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.resumes[id]; !ok {
		return ErrNotFound
	}
	vec := make([]float32, len(vector))
	copy(vec, vector)
	m.embeddings[id] = vec
	return nil
}

// ListEmbeddings returns embeddings of active resumes; empty userID means all.
func (m *MemoryStore) ListEmbeddings(ctx context.Context, userID string) ([]EmbeddingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var records []EmbeddingRecord
	for id, vec := range m.embeddings {
		r, ok := m.resumes[id]
		if !ok || r.Status != models.StatusActive {
			continue
		}
		if userID != "" && r.UserID != userID {
			continue
		}
		records = append(records, EmbeddingRecord{ResumeID: id, UserID: r.UserID, Vector: vec})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ResumeID < records[j].ResumeID })
	return records, nil
}

// GetResumesByIDs loads active resumes by id for one user; foreign and
// unknown ids are dropped.
func (m *MemoryStore) GetResumesByIDs(ctx context.Context, ids []string, userID string) ([]*models.Resume, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Resume, 0, len(ids))
	for _, id := range ids {
		r, ok := m.resumes[id]
		if !ok || r.UserID != userID || r.Status != models.StatusActive {
			continue
		}
		out = append(out, cloneResume(r))
	}
	return out, nil
}

// ListResumes returns the user's active resumes ordered by UpdatedAt desc.
func (m *MemoryStore) ListResumes(ctx context.Context, userID string, offset, limit int) ([]*models.Resume, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []*models.Resume
	for _, r := range m.resumes {
		if r.UserID != userID || r.Status != models.StatusActive {
			continue
		}
		all = append(all, cloneResume(r))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].UpdatedAt.Equal(all[j].UpdatedAt) {
			return all[i].UpdatedAt.After(all[j].UpdatedAt)
		}
		return all[i].ID < all[j].ID
	})
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// SearchKeyword scores the user's active parsed resumes by term frequency
// and skill overlap.
func (m *MemoryStore) SearchKeyword(ctx context.Context, q *KeywordQuery, userID string, limit int) ([]KeywordHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	variants := make(map[string]bool, len(q.SkillVariants))
	for _, v := range q.SkillVariants {
		variants[strings.ToLower(v)] = true
	}

	type scored struct {
		hit     KeywordHit
		updated time.Time
	}
	var hits []scored
	for _, r := range m.resumes {
		if r.UserID != userID || r.Status != models.StatusActive || !r.Parsed {
			continue
		}
		if q.MinExperienceYears > 0 && r.ExperienceYears < q.MinExperienceYears {
			continue
		}

		text := strings.ToLower(r.SearchText())
		var score float64
		for _, term := range q.Terms {
			score += float64(strings.Count(text, strings.ToLower(term)))
		}
		for _, s := range r.Skills {
			if variants[strings.ToLower(s)] {
				score += 0.5
			}
		}
		if score > 0 {
			hits = append(hits, scored{
				hit:     KeywordHit{ResumeID: r.ID, Score: score},
				updated: r.UpdatedAt,
			})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].hit.Score != hits[j].hit.Score {
			return hits[i].hit.Score > hits[j].hit.Score
		}
		if !hits[i].updated.Equal(hits[j].updated) {
			return hits[i].updated.After(hits[j].updated)
		}
		return hits[i].hit.ResumeID < hits[j].hit.ResumeID
	})
	if limit > 0 && limit < len(hits) {
		hits = hits[:limit]
	}
	out := make([]KeywordHit, len(hits))
	for i, h := range hits {
		out[i] = h.hit
	}
	return out, nil
}

// CountResumes returns the user's active resume count.
func (m *MemoryStore) CountResumes(ctx context.Context, userID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, r := range m.resumes {
		if r.UserID == userID && r.Status == models.StatusActive {
			n++
		}
	}
	return n, nil
}

// Close is a no-op for MemoryStore.
func (m *MemoryStore) Close() error {
	return nil
}

func cloneResume(r *models.Resume) *models.Resume {
	c := *r
	c.Skills = append([]string(nil), r.Skills...)
	return &c
}
