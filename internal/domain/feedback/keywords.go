package feedback

import (
	"regexp"
	"sort"
	"strings"
)

// Keyword extraction limits.
const (
	maxKeywords     = 5
	minPhraseLength = 5
	minWordLength   = 3
)

// priorityTerms is the fixed technology/soft-skill vocabulary that biases
// keyword extraction. Matching is substring-based and case-insensitive.
// The list is frozen: downstream consumers depend on exact membership.
var priorityTerms = []string{
	"python", "java", "javascript", "typescript", "react", "angular", "node",
	"golang", "kubernetes", "docker", "aws", "azure", "cloud", "database",
	"sql", "api", "microservices", "architecture", "algorithms", "testing",
	"debugging", "security", "devops", "frontend", "backend", "leadership",
	"communication", "teamwork", "collaboration", "mentoring", "agile",
	"scrum", "planning", "analytics", "design",
}

// stopWords are excluded from both extraction passes (case-insensitive).
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "this": {}, "that": {},
	"have": {}, "from": {}, "your": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "about": {}, "their": {}, "there": {}, "which": {},
	"when": {}, "what": {}, "more": {}, "some": {}, "very": {}, "just": {},
	"also": {}, "been": {}, "were": {}, "they": {}, "them": {}, "then": {},
	"than": {}, "such": {}, "into": {}, "over": {}, "only": {}, "other": {},
	"after": {}, "before": {}, "while": {}, "during": {}, "between": {},
	"because": {}, "through": {}, "answer": {}, "question": {}, "response": {},
	"interview": {}, "candidate": {}, "consider": {}, "improve": {},
	"practice": {}, "provide": {}, "mentioned": {}, "discussed": {},
}

var (
	// phrasePattern captures runs of letters and internal spaces, 3 to 26
	// characters long, as multi-word phrase candidates.
	phrasePattern = regexp.MustCompile(`[A-Za-z][A-Za-z ]{2,25}`)

	// wordPattern captures single-word candidates: a capitalized run of at
	// least three letters, a lowercase run with an uppercase continuation, or
	// a plain lowercase run of at least three letters.
	wordPattern = regexp.MustCompile(`\b(?:[A-Z][a-z]{2,}|[a-z]+[A-Z][A-Za-z]*|[a-z]{3,})\b`)
)

// MissedKeywords extracts up to five candidate terms from free-form feedback
// text: priority-bearing phrases first, then single words stable-sorted so
// priority matches lead. Duplicates are removed preserving first occurrence.
func MissedKeywords(text string) []string {
	candidates := extractPhrases(text)
	candidates = append(candidates, extractWords(text)...)

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, maxKeywords)
	for _, c := range candidates {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

func extractPhrases(text string) []string {
	matches := phrasePattern.FindAllString(text, -1)
	phrases := make([]string, 0, maxKeywords)
	for _, m := range matches {
		phrase := strings.TrimSpace(m)
		if len(phrase) <= minPhraseLength-1 {
			continue
		}
		lower := strings.ToLower(phrase)
		if _, stop := stopWords[lower]; stop {
			continue
		}
		if !containsPriorityTerm(lower) {
			continue
		}
		phrases = append(phrases, phrase)
		if len(phrases) == maxKeywords {
			break
		}
	}
	return phrases
}

func extractWords(text string) []string {
	matches := wordPattern.FindAllString(text, -1)
	words := make([]string, 0, len(matches))
	for _, w := range matches {
		if len(w) <= minWordLength-1 {
			continue
		}
		if _, stop := stopWords[strings.ToLower(w)]; stop {
			continue
		}
		words = append(words, w)
	}

	// Priority matches sort before the rest; relative order within each
	// group is preserved.
	sort.SliceStable(words, func(i, j int) bool {
		return matchesPriorityTerm(words[i]) && !matchesPriorityTerm(words[j])
	})
	return words
}

func containsPriorityTerm(lower string) bool {
	for _, term := range priorityTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func matchesPriorityTerm(word string) bool {
	lower := strings.ToLower(word)
	for _, term := range priorityTerms {
		if lower == term || strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
