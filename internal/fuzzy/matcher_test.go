package fuzzy

import "testing"

func TestSimilarity(t *testing.T) {
	m := NewMatcher()

	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{"exact match", "python", "python", 1.0},
		{"case insensitive exact", "Python", "PYTHON", 1.0},
		{"both empty", "", "", 0},
		{"known typo pyton", "pyton", "python", KnownTypoScore},
		{"known typo reversed", "python", "pyton", KnownTypoScore},
		{"known typo kubernetes", "kuberentes", "kubernetes", KnownTypoScore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Similarity(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarityKnownTyposAtLeastThreshold(t *testing.T) {
	// Every curated typo pair must score >= 0.95.
	m := NewMatcher()
	for typo, fixed := range knownTypos {
		if got := m.Similarity(typo, fixed); got < KnownTypoScore {
			t.Errorf("Similarity(%q, %q) = %v, want >= %v", typo, fixed, got, KnownTypoScore)
		}
	}
}

func TestSimilarityRange(t *testing.T) {
	m := NewMatcher()
	pairs := [][2]string{
		{"python", "java"},
		{"javascript", "typescript"},
		{"a", "completely different"},
		{"postgres", "postgresql"},
		{"", "x"},
	}
	for _, p := range pairs {
		got := m.Similarity(p[0], p[1])
		if got < 0 || got > 1 {
			t.Errorf("Similarity(%q, %q) = %v, out of [0,1]", p[0], p[1], got)
		}
	}
}

func TestSimilarityAffixBoost(t *testing.T) {
	m := NewMatcher()
	// Shared long prefix should score higher than an unrelated pair of the same lengths.
	boosted := m.Similarity("postgres", "postgresql")
	plain := m.Similarity("postgres", "mysqlmysql")
	if boosted <= plain {
		t.Errorf("expected affix boost: Similarity(postgres, postgresql)=%v <= Similarity(postgres, mysqlmysql)=%v", boosted, plain)
	}
	if boosted >= KnownTypoScore {
		t.Errorf("boosted ratio %v must stay below the known-typo score %v", boosted, KnownTypoScore)
	}
}

func TestMatchSkills(t *testing.T) {
	m := NewMatcher()

	t.Run("empty required gives zero ratio", func(t *testing.T) {
		match := m.MatchSkills(nil, []string{"python", "aws"})
		if match.Ratio != 0 {
			t.Errorf("Ratio = %v, want 0", match.Ratio)
		}
		if len(match.Matched) != 0 || len(match.Missing) != 0 {
			t.Errorf("Matched/Missing = %v/%v, want empty", match.Matched, match.Missing)
		}
	})

	t.Run("all matched", func(t *testing.T) {
		match := m.MatchSkills([]string{"python", "aws"}, []string{"Python", "AWS", "Docker"})
		if match.Ratio != 1.0 {
			t.Errorf("Ratio = %v, want 1.0", match.Ratio)
		}
		if len(match.Missing) != 0 {
			t.Errorf("Missing = %v, want empty", match.Missing)
		}
	})

	t.Run("partial match", func(t *testing.T) {
		match := m.MatchSkills([]string{"python", "aws"}, []string{"aws"})
		if match.Ratio != 0.5 {
			t.Errorf("Ratio = %v, want 0.5", match.Ratio)
		}
		if len(match.Matched) != 1 || match.Matched[0] != "aws" {
			t.Errorf("Matched = %v, want [aws]", match.Matched)
		}
		if len(match.Missing) != 1 || match.Missing[0] != "python" {
			t.Errorf("Missing = %v, want [python]", match.Missing)
		}
	})

	t.Run("typo still matches", func(t *testing.T) {
		match := m.MatchSkills([]string{"kubernetes"}, []string{"kubernets"})
		if match.Ratio != 1.0 {
			t.Errorf("Ratio = %v, want 1.0 (known typo above threshold)", match.Ratio)
		}
	})

	t.Run("unrelated skill misses", func(t *testing.T) {
		match := m.MatchSkills([]string{"python"}, []string{"cobol"})
		if match.Ratio != 0 {
			t.Errorf("Ratio = %v, want 0", match.Ratio)
		}
	})
}

func TestMatchSkillsWithEquivalence(t *testing.T) {
	eq := func(a, b string) bool {
		return (a == "k8s" && b == "kubernetes") || (a == "kubernetes" && b == "k8s")
	}
	m := NewMatcher(WithEquivalence(eq))
	match := m.MatchSkills([]string{"k8s"}, []string{"kubernetes"})
	if match.Ratio != 1.0 {
		t.Errorf("Ratio = %v, want 1.0 via synonym equivalence", match.Ratio)
	}
}

func TestCorrectTerm(t *testing.T) {
	if got, ok := CorrectTerm("pyton"); !ok || got != "python" {
		t.Errorf("CorrectTerm(pyton) = %q, %v; want python, true", got, ok)
	}
	if got, ok := CorrectTerm("python"); ok || got != "python" {
		t.Errorf("CorrectTerm(python) = %q, %v; want python, false", got, ok)
	}
}
