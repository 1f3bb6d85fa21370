// Package storage provides the Postgres implementation of the Store interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/hireloop/talentsearch/internal/models"
)

// PostgresStore implements Store using Postgres full-text search and pg_trgm.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool to dsn and initializes the schema.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an existing connection (used by tests).
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE EXTENSION IF NOT EXISTS pg_trgm;

	CREATE TABLE IF NOT EXISTS resumes (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		candidate_name TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		skills JSONB NOT NULL DEFAULT '[]'::jsonb,
		experience_years INT NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active',
		parsed BOOLEAN NOT NULL DEFAULT FALSE,
		embedding DOUBLE PRECISION[],
		search_vector TSVECTOR,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at TIMESTAMPTZ
	);

	CREATE INDEX IF NOT EXISTS idx_resumes_user_status ON resumes(user_id, status);
	CREATE INDEX IF NOT EXISTS idx_resumes_search_vector ON resumes USING GIN(search_vector);
	CREATE INDEX IF NOT EXISTS idx_resumes_summary_trgm ON resumes USING GIN(summary gin_trgm_ops);
	CREATE INDEX IF NOT EXISTS idx_resumes_skills ON resumes USING GIN(skills);
	`
	_, err := db.Exec(schema)
	return err
}

func skillsText(skills []string) string {
	return strings.Join(skills, " ")
}

// CreateResume inserts a resume in active, unparsed state.
func (s *PostgresStore) CreateResume(ctx context.Context, r *models.Resume) error {
	skillsJSON, err := json.Marshal(lowerAll(r.Skills))
	if err != nil {
		return fmt.Errorf("failed to marshal skills: %w", err)
	}

	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.Status == "" {
		r.Status = models.StatusActive
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO resumes (id, user_id, candidate_name, summary, skills, experience_years,
			status, parsed, search_vector, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
			to_tsvector('english', coalesce($4,'') || ' ' || coalesce($3,'') || ' ' || coalesce($9,'')),
			$10, $11)`,
		r.ID, r.UserID, r.CandidateName, r.Summary, string(skillsJSON), r.ExperienceYears,
		string(r.Status), r.Parsed, skillsText(r.Skills), r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert resume: %w", err)
	}
	return nil
}

// GetResume returns one of the user's resumes regardless of parsed state.
// Soft-deleted resumes are not returned.
func (s *PostgresStore) GetResume(ctx context.Context, id, userID string) (*models.Resume, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, candidate_name, summary, skills, experience_years,
			status, parsed, created_at, updated_at
		 FROM resumes
		 WHERE id = $1 AND user_id = $2 AND status = 'active'`,
		id, userID,
	)
	r, err := scanResume(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, err
}

// UpdateResume updates mutable fields and refreshes the search vector.
func (s *PostgresStore) UpdateResume(ctx context.Context, r *models.Resume) error {
	skillsJSON, err := json.Marshal(lowerAll(r.Skills))
	if err != nil {
		return fmt.Errorf("failed to marshal skills: %w", err)
	}
	r.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx,
		`UPDATE resumes
		 SET candidate_name = $3, summary = $4, skills = $5, experience_years = $6,
			parsed = $7,
			search_vector = to_tsvector('english', coalesce($4,'') || ' ' || coalesce($3,'') || ' ' || coalesce($8,'')),
			updated_at = $9
		 WHERE id = $1 AND user_id = $2 AND status = 'active'`,
		r.ID, r.UserID, r.CandidateName, r.Summary, string(skillsJSON), r.ExperienceYears,
		r.Parsed, skillsText(r.Skills), r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update resume: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, r.ID)
	}
	return nil
}

// SoftDeleteResume marks the resume deleted and records the deletion time.
func (s *PostgresStore) SoftDeleteResume(ctx context.Context, id, userID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE resumes SET status = 'deleted', deleted_at = now(), updated_at = now()
		 WHERE id = $1 AND user_id = $2 AND status = 'active'`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete resume: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// PurgeDeleted hard-deletes resumes soft-deleted longer than olderThan ago.
func (s *PostgresStore) PurgeDeleted(ctx context.Context, olderThan time.Duration) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM resumes WHERE status = 'deleted' AND deleted_at < $1`,
		time.Now().UTC().Add(-olderThan),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge resumes: %w", err)
	}
	return result.RowsAffected()
}

// MarkParsed flags indexing completion.
func (s *PostgresStore) MarkParsed(ctx context.Context, id string, parsed bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE resumes SET parsed = $2, updated_at = now() WHERE id = $1`,
		id, parsed,
	)
	return err
}

// SetEmbedding stores the embedding vector for rebuilds.
func (s *PostgresStore) SetEmbedding(ctx context.Context, id string, vector []float32) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE resumes SET embedding = $2 WHERE id = $1`,
		id, pq.Array(toFloat64(vector)),
	)
	return err
}

// ListEmbeddings returns stored embeddings for active resumes.
func (s *PostgresStore) ListEmbeddings(ctx context.Context, userID string) ([]EmbeddingRecord, error) {
	q := `SELECT id, user_id, embedding FROM resumes
		 WHERE status = 'active' AND embedding IS NOT NULL`
	args := []interface{}{}
	if userID != "" {
		q += ` AND user_id = $1`
		args = append(args, userID)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list embeddings: %w", err)
	}
	defer rows.Close()

	var records []EmbeddingRecord
	for rows.Next() {
		var rec EmbeddingRecord
		var vec pq.Float64Array
		if err := rows.Scan(&rec.ResumeID, &rec.UserID, &vec); err != nil {
			return nil, err
		}
		rec.Vector = toFloat32(vec)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetResumesByIDs loads the user's active resumes for the given ids, in no
// particular order. Foreign or missing ids are dropped.
func (s *PostgresStore) GetResumesByIDs(ctx context.Context, ids []string, userID string) ([]*models.Resume, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, candidate_name, summary, skills, experience_years,
			status, parsed, created_at, updated_at
		 FROM resumes
		 WHERE id = ANY($1) AND user_id = $2 AND status = 'active'`,
		pq.Array(ids), userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load resumes: %w", err)
	}
	defer rows.Close()
	return scanResumes(rows)
}

// ListResumes returns the user's active resumes, newest first.
func (s *PostgresStore) ListResumes(ctx context.Context, userID string, offset, limit int) ([]*models.Resume, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, candidate_name, summary, skills, experience_years,
			status, parsed, created_at, updated_at
		 FROM resumes
		 WHERE user_id = $1 AND status = 'active'
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer rows.Close()
	return scanResumes(rows)
}

// SearchKeyword runs full-text plus trigram search over the user's active,
// parsed resumes. The user_id/status/parsed predicates are part of the WHERE
// clause so no other user's record can ever reach the result set.
func (s *PostgresStore) SearchKeyword(ctx context.Context, q *KeywordQuery, userID string, limit int) ([]KeywordHit, error) {
	tsQuery := buildTSQuery(q.Terms)
	if tsQuery == "" && len(q.SkillVariants) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	variants := lowerAll(q.SkillVariants)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,
			ts_rank(search_vector, to_tsquery('english', $3)) +
			CASE WHEN skills ?| $4 THEN 0.5 ELSE 0 END +
			similarity(summary, $5) * 0.2 AS score
		 FROM resumes
		 WHERE user_id = $1 AND status = 'active' AND parsed = TRUE
		   AND experience_years >= $6
		   AND (search_vector @@ to_tsquery('english', $3) OR skills ?| $4)
		 ORDER BY score DESC, updated_at DESC, id ASC
		 LIMIT $2`,
		userID, limit, nonEmptyTSQuery(tsQuery), pq.Array(variants),
		strings.Join(q.Terms, " "), q.MinExperienceYears,
	)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	defer rows.Close()

	var hits []KeywordHit
	for rows.Next() {
		var h KeywordHit
		if err := rows.Scan(&h.ResumeID, &h.Score); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// CountResumes counts the user's active resumes; empty userID counts all.
func (s *PostgresStore) CountResumes(ctx context.Context, userID string) (int64, error) {
	var count int64
	var err error
	if userID == "" {
		err = s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM resumes WHERE status = 'active'`).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM resumes WHERE status = 'active' AND user_id = $1`, userID).Scan(&count)
	}
	return count, err
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanResume(row rowScanner) (*models.Resume, error) {
	var r models.Resume
	var skillsJSON []byte
	var status string
	if err := row.Scan(&r.ID, &r.UserID, &r.CandidateName, &r.Summary, &skillsJSON,
		&r.ExperienceYears, &status, &r.Parsed, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Status = models.ResumeStatus(status)
	if len(skillsJSON) > 0 {
		if err := json.Unmarshal(skillsJSON, &r.Skills); err != nil {
			// Malformed stored JSON excludes the record, not the query.
			return nil, fmt.Errorf("malformed skills for resume %s: %w", r.ID, err)
		}
	}
	return &r, nil
}

func scanResumes(rows *sql.Rows) ([]*models.Resume, error) {
	var resumes []*models.Resume
	for rows.Next() {
		r, err := scanResume(rows)
		if err != nil {
			// Data-integrity anomaly: drop the offending record, not the query.
			if strings.Contains(err.Error(), "malformed skills") {
				continue
			}
			return nil, err
		}
		resumes = append(resumes, r)
	}
	return resumes, rows.Err()
}

// buildTSQuery joins sanitized terms with OR for to_tsquery.
func buildTSQuery(terms []string) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		t = sanitizeTSTerm(t)
		if t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " | ")
}

// nonEmptyTSQuery substitutes a never-matching placeholder when no full-text
// terms are present so to_tsquery does not reject an empty string.
func nonEmptyTSQuery(q string) string {
	if q == "" {
		return "zzzznomatch"
	}
	return q
}

// sanitizeTSTerm strips tsquery syntax characters from a term. Multi-word
// skills become adjacency queries (machine <-> learning).
func sanitizeTSTerm(t string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '&', '|', '!', '(', ')', ':', '\'', '<', '>', '*':
			return -1
		}
		return r
	}, t)
	words := strings.Fields(clean)
	return strings.Join(words, " <-> ")
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func toFloat64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
