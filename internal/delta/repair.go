// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package delta

import "strings"

// Repair strips comment-like content and trailing separators from a
// near-JSON delta block so that records copied out of annotated notes
// or hand-edited still decode. Text inside double-quoted strings is
// preserved untouched, escapes included. Repair is best-effort: it
// never fails, and a block it cannot save is simply still unparseable.
func Repair(raw string) string {
	var (
		out      strings.Builder
		inString bool
		escaped  bool
	)

	for i := 0; i < len(raw); i++ {
		c := raw[i]

		if inString {
			out.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}

		switch {
		case c == '"':
			inString = true
			out.WriteByte(c)
		case c == '/' && i+1 < len(raw) && raw[i+1] == '/':
			// Line comment: skip to end of line.
			for i < len(raw) && raw[i] != '\n' {
				i++
			}
			if i < len(raw) {
				out.WriteByte('\n')
			}
		case c == '/' && i+1 < len(raw) && raw[i+1] == '*':
			// Block comment: skip to the closing marker.
			i += 2
			for i+1 < len(raw) && !(raw[i] == '*' && raw[i+1] == '/') {
				i++
			}
			i++ // past the '/'
		case c == ',':
			// Trailing comma: drop it when the next non-space character
			// closes the enclosing object or array.
			if nextCloses(raw, i+1) {
				continue
			}
			out.WriteByte(c)
		default:
			out.WriteByte(c)
		}
	}

	return out.String()
}

// nextCloses reports whether the next non-whitespace, non-comment
// character at or after pos is '}' or ']'.
func nextCloses(raw string, pos int) bool {
	for i := pos; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			continue
		case c == '/' && i+1 < len(raw) && raw[i+1] == '/':
			for i < len(raw) && raw[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(raw) && raw[i+1] == '*':
			i += 2
			for i+1 < len(raw) && !(raw[i] == '*' && raw[i+1] == '/') {
				i++
			}
			i++
		default:
			return c == '}' || c == ']'
		}
	}
	return false
}
