// Package normalize provides the text canonicalization shared by the
// ingestion and query paths. Tokenization and embedding must always consume
// normalized text so that queries are scored in the same space the indices
// were built in.
package normalize

import "strings"

var quoteReplacer = strings.NewReplacer(
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"‘", "'", // left single quote
	"’", "'", // right single quote
)

// Normalize canonicalizes text for indexing and querying: lower-cases,
// straightens curly quotes, and collapses whitespace runs to single spaces.
// It is pure, total, and idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = quoteReplacer.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}

// Tokenize splits normalized text into whitespace-delimited tokens.
// Input is expected to already be normalized; an empty or blank string
// yields a nil slice, never an error.
func Tokenize(norm string) []string {
	return strings.Fields(norm)
}
