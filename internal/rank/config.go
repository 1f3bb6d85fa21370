// Package rank merges keyword and vector result sets into a single
// deterministic hybrid ranking.
package rank

// Weights are the hybrid scoring weights for one query type.
type Weights struct {
	// Keyword scales the normalized keyword score.
	Keyword float64 `yaml:"keyword"`
	// Vector scales the normalized vector similarity.
	Vector float64 `yaml:"vector"`
	// SkillBoost scales the fuzzy skill-match ratio.
	SkillBoost float64 `yaml:"skill_boost"`
}

// Config holds the per-query-type weight table and matching settings.
// The weights are tunable configuration, not derived constants; the defaults
// below are starting points meant to be adjusted from search-quality feedback.
type Config struct {
	SkillHeavy    Weights `yaml:"skill_heavy"`
	RoleSeniority Weights `yaml:"role_seniority"`
	Narrative     Weights `yaml:"narrative"`
	Generic       Weights `yaml:"generic"`

	// SkillMatchThreshold is the minimum fuzzy similarity for a skill match.
	SkillMatchThreshold float64 `yaml:"skill_match_threshold"` // default: 0.75
}

// DefaultConfig returns the default ranking configuration.
func DefaultConfig() *Config {
	return &Config{
		// Skill-heavy queries trust exact/keyword evidence most.
		SkillHeavy: Weights{Keyword: 0.55, Vector: 0.25, SkillBoost: 0.20},
		// Role/seniority queries sit between keyword and semantic signals.
		RoleSeniority: Weights{Keyword: 0.45, Vector: 0.35, SkillBoost: 0.20},
		// Narrative queries lean on vector similarity.
		Narrative: Weights{Keyword: 0.25, Vector: 0.60, SkillBoost: 0.15},
		Generic:   Weights{Keyword: 0.40, Vector: 0.45, SkillBoost: 0.15},

		SkillMatchThreshold: 0.75,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()

	if c.SkillHeavy.isZero() {
		c.SkillHeavy = defaults.SkillHeavy
	}
	if c.RoleSeniority.isZero() {
		c.RoleSeniority = defaults.RoleSeniority
	}
	if c.Narrative.isZero() {
		c.Narrative = defaults.Narrative
	}
	if c.Generic.isZero() {
		c.Generic = defaults.Generic
	}
	if c.SkillMatchThreshold == 0 {
		c.SkillMatchThreshold = defaults.SkillMatchThreshold
	}
}

func (w Weights) isZero() bool {
	return w.Keyword == 0 && w.Vector == 0 && w.SkillBoost == 0
}

// ForType returns the weights for a detected query type.
func (c *Config) ForType(t QueryType) Weights {
	switch t {
	case QueryTypeSkillHeavy:
		return c.SkillHeavy
	case QueryTypeRoleSeniority:
		return c.RoleSeniority
	case QueryTypeNarrative:
		return c.Narrative
	default:
		return c.Generic
	}
}
