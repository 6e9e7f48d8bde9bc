package prolog

import (
	"regexp"
	"strings"
)

var (
	// The first group matches quoted strings, the second one comments.
	commentPattern = regexp.MustCompile(`(?s)(".*?"|'.*?')|(/\*.*?\*/|%[^\r\n]*)`)
	tokenPattern   = regexp.MustCompile(`[A-Za-z0-9_]+|:-|[().,]`)
)

// StripComments removes % line comments and /* */ block comments from the text.
// Quoted strings are kept verbatim even if they contain comment syntax.
func StripComments(text string) string {
	var (
		sb   strings.Builder
		last int
	)
	for _, m := range commentPattern.FindAllStringSubmatchIndex(text, -1) {
		sb.WriteString(text[last:m[0]])
		if m[2] >= 0 {
			sb.WriteString(text[m[2]:m[3]])
		}
		last = m[1]
	}
	sb.WriteString(text[last:])
	return sb.String()
}

// Tokenize splits the text into tokens after removing comments.
// Tokens are runs of letters, digits and underscores, the symbol :- and the characters ( ) . ,
// Everything else is dropped.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(StripComments(text), -1)
}
