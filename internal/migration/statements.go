package migration

import (
	"strings"
	"unicode"
)

// SplitStatements splits a migration script on the ";" delimiter into trimmed
// statements. Delimiters inside quoted literals and comments do not split.
// Empty and comment-only fragments, such as the text after a trailing ";",
// are dropped.
func SplitStatements(script string) []string {
	var (
		out            []string
		current        strings.Builder
		hasCode        bool
		inSingle       bool
		inDouble       bool
		inLineComment  bool
		inBlockComment bool
	)

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		if hasCode && stmt != "" {
			out = append(out, stmt)
		}
		current.Reset()
		hasCode = false
	}

	runes := []rune(script)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		var next rune
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch {
		case inLineComment:
			if r == '\n' {
				inLineComment = false
			}
		case inBlockComment:
			if r == '*' && next == '/' {
				inBlockComment = false
				current.WriteRune(r)
				current.WriteRune(next)
				i++
				continue
			}
		case inSingle:
			// A doubled quote closes and immediately reopens the literal.
			if r == '\'' {
				inSingle = false
			}
		case inDouble:
			if r == '"' {
				inDouble = false
			}
		default:
			switch {
			case r == '-' && next == '-':
				inLineComment = true
			case r == '/' && next == '*':
				inBlockComment = true
				current.WriteRune(r)
				current.WriteRune(next)
				i++
				continue
			case r == ';':
				flush()
				continue
			case r == '\'':
				inSingle = true
				hasCode = true
			case r == '"':
				inDouble = true
				hasCode = true
			case !unicode.IsSpace(r):
				hasCode = true
			}
		}
		current.WriteRune(r)
	}
	flush()

	return out
}
