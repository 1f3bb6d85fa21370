package query

import (
	"sort"
	"strings"
)

// synonymGroups lists equivalent skill forms. The first entry of each group
// is the canonical form.
var synonymGroups = [][]string{
	{"kubernetes", "k8s"},
	{"javascript", "js"},
	{"typescript", "ts"},
	{"go", "golang"},
	{"postgres", "postgresql", "psql"},
	{"mongodb", "mongo"},
	{"machine learning", "ml"},
	{"deep learning", "dl"},
	{"natural language processing", "nlp"},
	{"computer vision", "cv"},
	{"aws", "amazon web services"},
	{"gcp", "google cloud platform", "google cloud"},
	{"azure", "microsoft azure"},
	{"ci/cd", "cicd", "continuous integration"},
	{"node.js", "nodejs", "node"},
	{"react", "reactjs", "react.js"},
	{"vue", "vuejs", "vue.js"},
	{"angular", "angularjs"},
	{"ruby on rails", "rails", "ror"},
	{"spring boot", "springboot"},
	{"elasticsearch", "elastic"},
	{"c#", "csharp"},
	{"c++", "cpp"},
	{".net", "dotnet"},
	{"tdd", "test driven development"},
	{"sre", "site reliability engineering"},
}

// Expander maps skill terms to their synonym group. Bidirectional indices are
// built once at construction; lookups are read-only afterwards.
type Expander struct {
	groupOf   map[string]int
	canonical map[string]string
}

// NewExpander builds an Expander from the curated synonym groups.
func NewExpander() *Expander {
	e := &Expander{
		groupOf:   make(map[string]int),
		canonical: make(map[string]string),
	}
	for i, group := range synonymGroups {
		for _, term := range group {
			e.groupOf[term] = i
			e.canonical[term] = group[0]
		}
	}
	return e
}

// Expand returns all known equivalent forms of term, always including the
// input itself. The result is sorted for deterministic query construction.
func (e *Expander) Expand(term string) []string {
	term = strings.ToLower(strings.TrimSpace(term))
	idx, ok := e.groupOf[term]
	if !ok {
		return []string{term}
	}

	out := make([]string, 0, len(synonymGroups[idx])+1)
	seen := map[string]struct{}{}
	for _, t := range synonymGroups[idx] {
		if _, dup := seen[t]; !dup {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	if _, dup := seen[term]; !dup {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

// Canonical returns the canonical form of term, or term itself when unknown.
func (e *Expander) Canonical(term string) string {
	term = strings.ToLower(strings.TrimSpace(term))
	if c, ok := e.canonical[term]; ok {
		return c
	}
	return term
}

// Equivalent reports whether two terms belong to the same synonym group.
func (e *Expander) Equivalent(a, b string) bool {
	return e.Canonical(a) == e.Canonical(b)
}
