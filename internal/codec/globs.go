package codec

// SplitGlobs splits a comma-separated glob list into individual globs. Commas
// nested inside {...} brace-expansion groups and [...] character classes are
// not split points. An empty input yields no globs; "," yields two empty
// globs (validation of emptiness is the caller's concern).
func SplitGlobs(s string) []string {
	if s == "" {
		return nil
	}

	var out []string
	var braceDepth int
	inBracket := false
	start := 0

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			if !inBracket {
				inBracket = true
			}
		case ']':
			inBracket = false
		case '{':
			if !inBracket {
				braceDepth++
			}
		case '}':
			if !inBracket && braceDepth > 0 {
				braceDepth--
			}
		case ',':
			if !inBracket && braceDepth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}
