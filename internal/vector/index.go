// Package vector provides an owner-filtered nearest-neighbor index over
// resume embeddings.
package vector

import "context"

// Point is one indexed embedding with its owning user. The owner travels with
// the vector so search can filter before scoring.
type Point struct {
	ID     string
	UserID string
	Vector []float32
}

// Result is a single vector search hit.
type Result struct {
	ID    string
	Score float64
}

// Index defines vector index operations. Search only ever considers points
// owned by userID; results never cross user boundaries.
type Index interface {
	Upsert(ctx context.Context, points []Point) error
	Search(ctx context.Context, query []float32, userID string, k int) ([]*Result, error)
	Remove(ctx context.Context, ids []string) error
	// Size returns the number of points in the index.
	Size() int
	// Save persists a snapshot to path; Load replaces the contents from one.
	Save(path string) error
	Load(path string) error
	Close() error
}
