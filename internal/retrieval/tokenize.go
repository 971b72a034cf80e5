package retrieval

import "strings"

// tokenizeQuery lowercases text, splits on anything outside
// [a-z0-9_.], and drops single-character tokens. Identifier-ish tokens
// like "pkg.Func" or "snake_case" survive intact.
func tokenizeQuery(text string) []string {
	text = strings.ToLower(text)
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '.')
	})

	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(p) > 1 {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// nameSegments splits an identifier on every non-alphanumeric rune, so
// "build_rrlm_graph" becomes [build rrlm graph]. Used for fuzzy name
// matching, where underscores and dots are separators rather than part
// of the token.
func nameSegments(name string) []string {
	name = strings.ToLower(name)
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})

	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(p) > 1 {
			segments = append(segments, p)
		}
	}
	return segments
}
