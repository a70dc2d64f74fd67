package schema

import (
	"strings"
)

// EscapeString escapes s for use inside a single-quoted MySQL literal,
// following the rules of mysql_escape_string: NUL, newline, carriage
// return, backslash, both quote characters and Ctrl-Z are backslash
// escaped. Other bytes pass through unchanged.
func EscapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case 0:
			b.WriteString(`\0`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '"':
			b.WriteString(`\"`)
		case '\x1a':
			b.WriteString(`\Z`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// quote wraps an already escaped value in single quotes.
func quote(s string) string {
	return "'" + s + "'"
}
