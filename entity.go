package mdstream

import (
	"html"
	"strings"
)

// Resolves backslash escapes and entity references in link destinations,
// titles and info strings.
func unescapeString(s string) string {
	if strings.IndexAny(s, "\\&") < 0 {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		if c == '\\' && i+1 < len(s) && isASCIIPunct(s[i+1]) {
			sb.WriteByte(s[i+1])
			i += 2
			continue
		}
		if c == '&' {
			if r, n := decodeEntity(s[i:]); n > 0 {
				sb.WriteString(r)
				i += n
				continue
			}
		}
		sb.WriteByte(c)
		i++
	}
	return sb.String()
}

// Decodes the entity or numeric character reference at the start of s.
// Returns the replacement text and the number of bytes consumed, 0 if s
// does not start with a complete reference. The terminating ';' is
// required.
func decodeEntity(s string) (string, int) {
	if len(s) < 3 || s[0] != '&' {
		return "", 0
	}
	end := strings.IndexByte(s, ';')
	if end < 2 || end > 33 {
		return "", 0
	}
	name := s[1:end]
	if name[0] == '#' {
		digits, hex := name[1:], false
		if digits != "" && (digits[0] == 'x' || digits[0] == 'X') {
			digits, hex = digits[1:], true
		}
		if digits == "" || (hex && len(digits) > 6) || (!hex && len(digits) > 7) {
			return "", 0
		}
		for i := 0; i < len(digits); i++ {
			if !isDigit(digits[i]) && !(hex && isHexLetter(digits[i])) {
				return "", 0
			}
		}
	} else {
		if !isLetter(name[0]) {
			return "", 0
		}
		for i := 1; i < len(name); i++ {
			if !isLetter(name[i]) && !isDigit(name[i]) {
				return "", 0
			}
		}
	}
	ref := s[:end+1]
	r := html.UnescapeString(ref)
	if r == ref {
		return "", 0
	}
	// html.UnescapeString also resolves a known prefix without the
	// semicolon ("&notit;" becomes "¬it;"); reject those.
	if name[0] != '#' && r == html.UnescapeString(s[:end])+";" {
		return "", 0
	}
	return r, end + 1
}

func isDigit(c byte) bool     { return c >= '0' && c <= '9' }
func isHexLetter(c byte) bool { return (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }
func isLetter(c byte) bool    { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
