// Package query parses free-text recruiter queries into structured facets
// using curated vocabularies, synonym expansion, and typo correction.
package query

import "strings"

// skillVocabulary is the curated list of known skills, including multi-word
// entries. Matching is token-based (whole words only), longest match first.
var skillVocabulary = []string{
	// Languages
	"python", "java", "javascript", "typescript", "go", "golang", "ruby",
	"php", "c++", "c#", "rust", "kotlin", "swift", "scala", "elixir", "sql",

	// Frontend
	"react", "react native", "angular", "vue", "svelte", "next.js", "html",
	"css", "tailwind",

	// Backend / frameworks
	"node.js", "django", "flask", "fastapi", "spring", "spring boot",
	"rails", "ruby on rails", "laravel", ".net", "express", "graphql",
	"rest api", "grpc", "microservices",

	// Data / ML
	"machine learning", "deep learning", "data science", "data engineering",
	"natural language processing", "computer vision", "pandas", "numpy",
	"tensorflow", "pytorch", "scikit-learn", "spark", "airflow", "etl",

	// Databases
	"postgres", "postgresql", "mysql", "mongodb", "redis", "elasticsearch",
	"cassandra", "dynamodb", "sqlite", "oracle",

	// Cloud / infra
	"aws", "gcp", "azure", "kubernetes", "docker", "terraform", "ansible",
	"jenkins", "ci/cd", "linux", "serverless", "lambda",

	// Practices
	"agile", "scrum", "tdd", "unit testing", "system design",
}

// seniorityVocabulary maps seniority tokens to their canonical label.
var seniorityVocabulary = map[string]string{
	"senior":    "senior",
	"sr":        "senior",
	"sr.":       "senior",
	"junior":    "junior",
	"jr":        "junior",
	"jr.":       "junior",
	"mid":       "mid",
	"mid-level": "mid",
	"midlevel":  "mid",
	"lead":      "lead",
	"principal": "principal",
	"staff":     "staff",
	"entry":     "junior",
	"intern":    "intern",
}

// roleVocabulary maps role tokens (including plurals) to their canonical label.
var roleVocabulary = map[string]string{
	"developer":  "developer",
	"developers": "developer",
	"dev":        "developer",
	"engineer":   "engineer",
	"engineers":  "engineer",
	"programmer": "developer",
	"architect":  "architect",
	"architects": "architect",
	"manager":    "manager",
	"managers":   "manager",
	"designer":   "designer",
	"designers":  "designer",
	"analyst":    "analyst",
	"analysts":   "analyst",
	"scientist":  "scientist",
	"scientists": "scientist",
	"consultant": "consultant",
	"devops":     "devops",
	"sre":        "sre",
	"qa":         "qa",
	"tester":     "qa",
}

// stopwords are dropped from remaining terms; they carry no ranking signal.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "with": {},
	"in": {}, "of": {}, "for": {}, "to": {}, "at": {}, "on": {},
	"who": {}, "has": {}, "have": {}, "knows": {}, "using": {},
	"experience": {}, "experienced": {}, "skilled": {}, "knowledge": {},
	"strong": {}, "good": {}, "looking": {}, "candidate": {}, "someone": {},
}

// skillTokenIndex maps each known skill to its token sequence, and
// maxSkillTokens is the longest sequence length. Built once at init.
var (
	skillTokenIndex map[string]string
	maxSkillTokens  int
)

func init() {
	skillTokenIndex = make(map[string]string, len(skillVocabulary))
	for _, skill := range skillVocabulary {
		tokens := strings.Fields(skill)
		if len(tokens) > maxSkillTokens {
			maxSkillTokens = len(tokens)
		}
		skillTokenIndex[skill] = skill
	}
}

// singleWordVocabulary returns all single-token vocabulary entries. Used as
// the dictionary for typo correction; multi-word entries are corrected per token.
func singleWordVocabulary() []string {
	terms := make([]string, 0, len(skillVocabulary)+len(seniorityVocabulary)+len(roleVocabulary))
	seen := make(map[string]struct{})
	add := func(t string) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	for _, skill := range skillVocabulary {
		for _, tok := range strings.Fields(skill) {
			add(tok)
		}
	}
	for tok := range seniorityVocabulary {
		add(tok)
	}
	for tok := range roleVocabulary {
		add(tok)
	}
	return terms
}

// inAnyVocabulary reports whether the token is already a known term.
func inAnyVocabulary(token string) bool {
	if _, ok := seniorityVocabulary[token]; ok {
		return true
	}
	if _, ok := roleVocabulary[token]; ok {
		return true
	}
	if _, ok := skillTokenIndex[token]; ok {
		return true
	}
	if _, ok := stopwords[token]; ok {
		return true
	}
	// Tokens of multi-word skills count as known ("machine", "learning").
	for _, skill := range skillVocabulary {
		for _, tok := range strings.Fields(skill) {
			if tok == token {
				return true
			}
		}
	}
	return false
}
