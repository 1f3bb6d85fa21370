package models

import "fmt"

// ParsedQuery holds the structured facets extracted from a free-text query.
// It is derived per search call and never persisted.
type ParsedQuery struct {
	// Original is the raw query string as received.
	Original string `json:"original"`
	// Normalized is the lowercased, typo-corrected query text.
	Normalized string `json:"normalized"`
	// Corrected is true when typo correction changed the query.
	Corrected bool `json:"corrected,omitempty"`
	// Skills are the extracted skill terms, deduplicated in insertion order.
	Skills []string `json:"skills"`
	// PrimarySkill is the first extracted skill, if any.
	PrimarySkill string `json:"primary_skill,omitempty"`
	// Seniority is the first seniority label found (first occurrence wins).
	Seniority string `json:"seniority,omitempty"`
	// Roles are the extracted role labels.
	Roles []string `json:"roles"`
	// ExperienceYears is the extracted lower bound of years of experience.
	// Nil when the query carries no experience requirement.
	ExperienceYears *int `json:"experience_years,omitempty"`
	// RemainingTerms are tokens that matched no vocabulary.
	RemainingTerms []string `json:"remaining_terms"`
}

// HasFacets reports whether any structured facet was extracted.
func (p *ParsedQuery) HasFacets() bool {
	return len(p.Skills) > 0 || p.Seniority != "" || len(p.Roles) > 0 || p.ExperienceYears != nil
}

// SearchRequest is a progressive search request.
type SearchRequest struct {
	Query  string `json:"query"`
	UserID string `json:"user_id"`
	Limit  int    `json:"limit,omitempty"`
	// Enhance requests LLM enhancement of the top results when available.
	Enhance bool `json:"enhance,omitempty"`
}

// Validate ensures the request has valid fields and sets defaults.
func (r *SearchRequest) Validate() error {
	if r.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if r.UserID == "" {
		return fmt.Errorf("user_id cannot be empty")
	}
	if r.Limit <= 0 {
		r.Limit = 10
	}
	if r.Limit > 100 {
		r.Limit = 100
	}
	return nil
}
