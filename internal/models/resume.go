// Package models defines core data structures for resumes, parsed queries, and search results.
package models

import "time"

// ResumeStatus is the lifecycle state of a resume record.
type ResumeStatus string

const (
	// StatusActive marks a resume that is searchable.
	StatusActive ResumeStatus = "active"
	// StatusDeleted marks a soft-deleted resume awaiting purge.
	StatusDeleted ResumeStatus = "deleted"
)

// Resume represents a stored candidate record. A resume always belongs to
// exactly one user; search must never cross that boundary.
type Resume struct {
	ID              string       `json:"id" db:"id"`
	UserID          string       `json:"user_id" db:"user_id"`
	CandidateName   string       `json:"candidate_name" db:"candidate_name"`
	Summary         string       `json:"summary" db:"summary"`
	Skills          []string     `json:"skills" db:"skills"`
	ExperienceYears int          `json:"experience_years" db:"experience_years"`
	Status          ResumeStatus `json:"status" db:"status"`
	// Parsed indicates indexing completed; only parsed resumes are searchable.
	Parsed    bool      `json:"parsed" db:"parsed"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SearchText returns the text used for embedding and full-text matching.
func (r *Resume) SearchText() string {
	text := r.Summary
	for _, s := range r.Skills {
		text += " " + s
	}
	return text
}

// ResumeInput is the input for creating or updating a resume.
type ResumeInput struct {
	ID              string   `json:"id,omitempty"`
	UserID          string   `json:"user_id"`
	CandidateName   string   `json:"candidate_name"`
	Summary         string   `json:"summary"`
	Skills          []string `json:"skills,omitempty"`
	ExperienceYears int      `json:"experience_years,omitempty"`
}
