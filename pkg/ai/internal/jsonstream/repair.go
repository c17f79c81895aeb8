// ABOUTME: Best-effort completion of truncated JSON text (tool-call arguments cut mid-stream)
// ABOUTME: Closes open strings, objects, and arrays; strips dangling separators and literals

package jsonstream

import (
	"encoding/json"
	"strings"
)

// Repair returns s unchanged if it is valid JSON. Otherwise it tries to
// close whatever was left open. ok is false when no valid document could
// be produced; the returned text is then "{}".
func Repair(s string) (repaired string, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "{}", true
	}
	if json.Valid([]byte(s)) {
		return s, true
	}

	completed := complete(s)
	if json.Valid([]byte(completed)) {
		return completed, true
	}
	return "{}", false
}

// complete appends the closers needed to balance s.
func complete(s string) string {
	var closers []byte
	inString, escaped := false, false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			closers = append(closers, '}')
		case '[':
			closers = append(closers, ']')
		case '}', ']':
			if len(closers) > 0 {
				closers = closers[:len(closers)-1]
			}
		}
	}

	var sb strings.Builder
	sb.WriteString(s)
	if inString {
		// A dangling backslash would escape the closing quote.
		if escaped {
			sb.WriteByte('\\')
		}
		sb.WriteByte('"')
	}

	inObject := len(closers) > 0 && closers[len(closers)-1] == '}'
	out := trimDangling(sb.String(), inObject)
	sb.Reset()
	sb.WriteString(out)
	for i := len(closers) - 1; i >= 0; i-- {
		sb.WriteByte(closers[i])
	}
	return sb.String()
}

// partialLiterals are prefixes of true/false/null seen when a stream is
// cut mid-value.
var partialLiterals = []string{"tru", "tr", "t", "fals", "fal", "fa", "f", "nul", "nu", "n"}

// trimDangling drops a trailing separator, a truncated literal, and, when
// the innermost open container is an object, a key left without a value.
func trimDangling(s string, inObject bool) string {
	s = strings.TrimRight(s, " \t\r\n,:")

	for _, lit := range partialLiterals {
		prefix, found := strings.CutSuffix(s, lit)
		if !found || len(prefix) == 0 {
			continue
		}
		if last := prefix[len(prefix)-1]; last != ':' && last != ',' && last != '[' && last != ' ' {
			continue
		}
		s = strings.TrimRight(prefix, " \t\r\n,:")
		break
	}

	// `{"a":1,"b"` -> `{"a":1`: a key string directly after '{' or ','
	// with nothing following it has no value.
	if inObject && strings.HasSuffix(s, `"`) {
		open := strings.LastIndex(s[:len(s)-1], `"`)
		if open > 0 {
			if before := s[open-1]; before == '{' || before == ',' {
				s = strings.TrimRight(s[:open], ",")
			}
		}
	}
	return s
}
