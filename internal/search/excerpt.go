package search

import (
	"strings"
	"unicode/utf8"
)

// excerpt builds a bounded window of the chunk text around the strongest
// query token match. "Strongest" is the longest token that occurs in the
// text; longer tokens carry more signal than short function words. When no
// token matches, the leading text is returned and the offsets are -1.
//
// Returned offsets are byte positions of the match within the excerpt.
func excerpt(text string, tokens []string, maxRunes int) (out string, matchStart, matchEnd int) {
	if maxRunes <= 0 || text == "" {
		return "", -1, -1
	}

	lower := strings.ToLower(text)

	bestPos, bestLen := -1, 0
	for _, tok := range tokens {
		if tok == "" || len(tok) <= bestLen {
			continue
		}
		if pos := strings.Index(lower, strings.ToLower(tok)); pos >= 0 {
			bestPos, bestLen = pos, len(tok)
		}
	}

	if bestPos < 0 {
		return truncateRunes(text, maxRunes), -1, -1
	}

	// Center the window on the match, clamped to the text bounds.
	runes := []rune(text)
	matchRune := utf8.RuneCountInString(text[:bestPos])
	start := matchRune - maxRunes/2
	if start < 0 {
		start = 0
	}
	end := start + maxRunes
	if end > len(runes) {
		end = len(runes)
		if start = end - maxRunes; start < 0 {
			start = 0
		}
	}

	window := string(runes[start:end])
	offset := bestPos - len(string(runes[:start]))
	if offset < 0 || offset+bestLen > len(window) {
		// Match straddles the window edge; report no offsets rather than
		// a partial highlight.
		return window, -1, -1
	}
	return window, offset, offset + bestLen
}

// truncateRunes returns the leading maxRunes runes of s.
func truncateRunes(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes])
}
