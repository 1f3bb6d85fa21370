package query

import (
	"reflect"
	"testing"

	"github.com/hireloop/talentsearch/internal/fuzzy"
)

func newTestParser() *Parser {
	expander := NewExpander()
	matcher := fuzzy.NewMatcher(fuzzy.WithEquivalence(expander.Equivalent))
	return NewParser(expander, matcher)
}

func TestParseFacets(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name      string
		query     string
		skills    []string
		primary   string
		seniority string
		roles     []string
		years     int // -1 means no experience facet
	}{
		{
			name:      "seniority role and skills",
			query:     "Senior Python Developer with AWS",
			skills:    []string{"python", "aws"},
			primary:   "python",
			seniority: "senior",
			roles:     []string{"developer"},
			years:     -1,
		},
		{
			name:    "multi word skill longest match first",
			query:   "machine learning engineer",
			skills:  []string{"machine learning"},
			primary: "machine learning",
			roles:   []string{"engineer"},
			years:   -1,
		},
		{
			name:    "synonym abbreviation extracts canonical",
			query:   "k8s and docker",
			skills:  []string{"kubernetes", "docker"},
			primary: "kubernetes",
			roles:   []string{},
			years:   -1,
		},
		{
			name:    "experience lower bound plus",
			query:   "python 5+ years",
			skills:  []string{"python"},
			primary: "python",
			roles:   []string{},
			years:   5,
		},
		{
			name:    "experience range takes lower bound",
			query:   "java developer 3-5 years",
			skills:  []string{"java"},
			primary: "java",
			roles:   []string{"developer"},
			years:   3,
		},
		{
			name:      "conflicting seniority first wins",
			query:     "senior junior engineer",
			skills:    []string{},
			seniority: "senior",
			roles:     []string{"engineer"},
			years:     -1,
		},
		{
			name:   "empty query yields empty facets",
			query:  "",
			skills: []string{},
			roles:  []string{},
			years:  -1,
		},
		{
			name:    "duplicate skills deduplicated in order",
			query:   "python aws python",
			skills:  []string{"python", "aws"},
			primary: "python",
			roles:   []string{},
			years:   -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := p.Parse(tt.query)
			if !reflect.DeepEqual(parsed.Skills, tt.skills) {
				t.Errorf("Skills = %v, want %v", parsed.Skills, tt.skills)
			}
			if parsed.PrimarySkill != tt.primary {
				t.Errorf("PrimarySkill = %q, want %q", parsed.PrimarySkill, tt.primary)
			}
			if parsed.Seniority != tt.seniority {
				t.Errorf("Seniority = %q, want %q", parsed.Seniority, tt.seniority)
			}
			if !reflect.DeepEqual(parsed.Roles, tt.roles) {
				t.Errorf("Roles = %v, want %v", parsed.Roles, tt.roles)
			}
			if tt.years == -1 {
				if parsed.ExperienceYears != nil {
					t.Errorf("ExperienceYears = %v, want nil", *parsed.ExperienceYears)
				}
			} else if parsed.ExperienceYears == nil || *parsed.ExperienceYears != tt.years {
				t.Errorf("ExperienceYears = %v, want %d", parsed.ExperienceYears, tt.years)
			}
		})
	}
}

func TestParseTypoCorrection(t *testing.T) {
	p := newTestParser()

	parsed := p.Parse("pyton developer")
	if parsed.Normalized != "python developer" {
		t.Errorf("Normalized = %q, want %q", parsed.Normalized, "python developer")
	}
	if !parsed.Corrected {
		t.Error("Corrected = false, want true")
	}
	if len(parsed.Skills) != 1 || parsed.Skills[0] != "python" {
		t.Errorf("Skills = %v, want [python]", parsed.Skills)
	}
	if len(parsed.Roles) != 1 || parsed.Roles[0] != "developer" {
		t.Errorf("Roles = %v, want [developer]", parsed.Roles)
	}
}

func TestParseIdempotent(t *testing.T) {
	p := newTestParser()

	queries := []string{
		"Senior Pyton Developer with AWS",
		"machine lerning engineer 5+ years",
		"k8s devops",
		"narrative text about building data pipelines at scale",
	}

	for _, q := range queries {
		first := p.Parse(q)
		second := p.Parse(first.Normalized)

		if !reflect.DeepEqual(first.Skills, second.Skills) {
			t.Errorf("reparse %q: Skills %v != %v", q, first.Skills, second.Skills)
		}
		if first.Seniority != second.Seniority {
			t.Errorf("reparse %q: Seniority %q != %q", q, first.Seniority, second.Seniority)
		}
		if !reflect.DeepEqual(first.Roles, second.Roles) {
			t.Errorf("reparse %q: Roles %v != %v", q, first.Roles, second.Roles)
		}
		if !reflect.DeepEqual(first.RemainingTerms, second.RemainingTerms) {
			t.Errorf("reparse %q: RemainingTerms %v != %v", q, first.RemainingTerms, second.RemainingTerms)
		}
		if (first.ExperienceYears == nil) != (second.ExperienceYears == nil) {
			t.Errorf("reparse %q: ExperienceYears presence differs", q)
		}
	}
}

func TestParseRemainingTerms(t *testing.T) {
	p := newTestParser()

	parsed := p.Parse("python developer fintech startup")
	want := []string{"fintech", "startup"}
	if !reflect.DeepEqual(parsed.RemainingTerms, want) {
		t.Errorf("RemainingTerms = %v, want %v", parsed.RemainingTerms, want)
	}
}

func TestParseStopwordsDropped(t *testing.T) {
	p := newTestParser()

	parsed := p.Parse("someone with strong python and aws experience")
	if len(parsed.RemainingTerms) != 0 {
		t.Errorf("RemainingTerms = %v, want empty (all stopwords)", parsed.RemainingTerms)
	}
	if !reflect.DeepEqual(parsed.Skills, []string{"python", "aws"}) {
		t.Errorf("Skills = %v, want [python aws]", parsed.Skills)
	}
}
