package keywords

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MinKeywordLength is the minimum token length kept during extraction
const MinKeywordLength = 2

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// Normalize prepares text for keyword matching: trimmed, lowercased and
// NFKC unicode normalized so visually equivalent characters compare equal.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	return norm.NFKC.String(strings.ToLower(strings.TrimSpace(text)))
}

// ExtractTerms extracts unique lowercase alphanumeric tokens in first
// occurrence order. Tokens shorter than minLength and tokens in stopwords
// are dropped. A nil stopwords set disables stopword filtering, used for
// payload extraction at ingest time so stored keywords stay comprehensive.
func ExtractTerms(text string, minLength int, stopwords map[string]bool) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}

	var terms []string
	seen := make(map[string]bool)
	for _, token := range tokenPattern.FindAllString(normalized, -1) {
		if len(token) < minLength {
			continue
		}
		if stopwords != nil && stopwords[token] {
			continue
		}
		if seen[token] {
			continue
		}
		seen[token] = true
		terms = append(terms, token)
	}

	return terms
}

// QuestionKeywords returns the content-bearing terms of a question.
// Always filters with the standard English stopword list.
func QuestionKeywords(question string) map[string]bool {
	keywords := make(map[string]bool)
	for _, term := range ExtractTerms(question, MinKeywordLength, englishStopwords) {
		keywords[term] = true
	}
	return keywords
}

// ContainsAnyKeyword reports whether the normalized text contains any of the
// keywords. Matching is substring containment rather than token-boundary
// matching, trading precision for recall ("cat" matches inside "category").
func ContainsAnyKeyword(text string, keywords map[string]bool) bool {
	if len(keywords) == 0 {
		return false
	}
	lower := Normalize(text)
	for keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// CountKeywordMatches counts how many distinct keywords the text contains
func CountKeywordMatches(text string, keywords map[string]bool) int {
	if text == "" || len(keywords) == 0 {
		return 0
	}
	lower := Normalize(text)
	count := 0
	for keyword := range keywords {
		if strings.Contains(lower, keyword) {
			count++
		}
	}
	return count
}
