package diag

import (
	"fmt"
	"strings"
)

// Stage-level remediation hints.
const (
	HintKeywords     = "Check for typos in command keywords (ALERT, QUERY, STATUS, HELP)"
	HintStructure    = "Ensure proper command structure: COMMAND <type> <preposition> <location>"
	HintPrepositions = "Valid prepositions: AT, NEAR, IN"
	HintLocation     = "Verify location format (use GPS:lat,lng for coordinates)"
	HintContact      = "Check contact format (Pakistani phone: +92-xxx-xxxxxxx)"
)

// Suggestions derives remediation hints from the recorded diagnostics. Stage
// hints come first, followed by any per-diagnostic suggestion, without
// duplicates.
func (ds *Diagnostics) Suggestions() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	if len(ds.LexerErrors) > 0 {
		add(HintKeywords)
	}
	if len(ds.ParseErrors) > 0 {
		add(HintStructure)
		add(HintPrepositions)
	}
	if len(ds.SemanticErrors) > 0 {
		add(HintLocation)
		add(HintContact)
	}

	for _, d := range ds.All() {
		add(d.Suggestion)
	}
	return out
}

// SuggestKeyword proposes the closest keyword to word. It returns "" when
// nothing is within two edits, which keeps ordinary words from being flagged.
func SuggestKeyword(word string, keywords []string) string {
	if len(keywords) == 0 || word == "" {
		return ""
	}

	upper := strings.ToUpper(word)
	minDistance := 1000
	var bestMatch string

	for _, kw := range keywords {
		dist := levenshteinDistance(upper, kw)
		if dist < minDistance {
			minDistance = dist
			bestMatch = kw
		}
	}

	if minDistance > 0 && minDistance <= 2 {
		return fmt.Sprintf("Did you mean '%s'?", bestMatch)
	}
	return ""
}

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}

	len1 := len(s1)
	len2 := len(s2)

	prev := make([]int, len2+1)
	curr := make([]int, len2+1)
	for j := 0; j <= len2; j++ {
		prev[j] = j
	}

	for i := 1; i <= len1; i++ {
		curr[0] = i
		for j := 1; j <= len2; j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // Deletion
				curr[j-1]+1,    // Insertion
				prev[j-1]+cost, // Substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len2]
}
