package codec

import (
	"regexp"
	"strings"
)

// ReplaceEmail rewrites every occurrence of oldEmail in raw config content to
// newEmail, without going through the structured parser. The email is only
// replaced where it is bounded by whitespace, '=', ',', '#', line start or
// line end, so substrings of longer emails are left alone. All other
// characters, including comments and the presence of a trailing newline, are
// preserved exactly.
func ReplaceEmail(content, oldEmail, newEmail string) string {
	// The pattern depends on the input email, so it cannot be a package-level
	// constant like the grammar patterns.
	re := regexp.MustCompile(`(^|[\s=,#])` + regexp.QuoteMeta(oldEmail) + `([\s=,#]|$)`)

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		// A single pass cannot rewrite back-to-back occurrences such as
		// "old@x.com,old@x.com" because the match consumes the boundary
		// character, so apply the pattern until the line stops changing.
		for {
			replaced := re.ReplaceAllStringFunc(line, func(m string) string {
				sub := re.FindStringSubmatch(m)
				return sub[1] + newEmail + sub[2]
			})
			if replaced == line {
				break
			}
			line = replaced
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}
