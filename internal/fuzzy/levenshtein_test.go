package fuzzy

import "testing"

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{"identical empty", "", "", 0},
		{"identical word", "python", "python", 0},
		{"empty a", "", "java", 4},
		{"empty b", "java", "", 4},

		{"one substitution", "cat", "bat", 1},
		{"one insertion", "go", "gol", 1},
		{"one deletion", "gola", "gol", 1},

		{"kitten to sitting", "kitten", "sitting", 3},

		// Typos the parser must tolerate
		{"pyton to python", "pyton", "python", 1},
		{"kubernets to kubernetes", "kubernets", "kubernetes", 1},
		{"developr to developer", "developr", "developer", 1},

		{"unicode substitution", "café", "cafe", 1},

		// Plain Levenshtein counts a transposition as two edits
		{"transposition ab-ba", "ab", "ba", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := LevenshteinDistance(tt.a, tt.b)
			if result != tt.expected {
				t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, result, tt.expected)
			}
			if rev := LevenshteinDistance(tt.b, tt.a); rev != result {
				t.Errorf("LevenshteinDistance is not symmetric: (%q,%q)=%d, (%q,%q)=%d",
					tt.a, tt.b, result, tt.b, tt.a, rev)
			}
		})
	}
}

func TestDamerauLevenshteinDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{"identical", "docker", "docker", 0},
		{"empty a", "", "aws", 3},
		{"transposition is one edit", "ab", "ba", 1},
		{"sneior to senior", "sneior", "senior", 1},
		{"substitution", "cat", "bat", 1},
		{"mixed edits", "dokcer", "docker", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DamerauLevenshteinDistance(tt.a, tt.b)
			if result != tt.expected {
				t.Errorf("DamerauLevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, result, tt.expected)
			}
		})
	}
}
