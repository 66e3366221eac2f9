package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// InvalidCode replaces the whole decoded text when any coded value is malformed
const InvalidCode = "INVALID"

var codedValueRe = regexp.MustCompile(`@\{([^{}]*)\}`)

// Decode replaces @{N} and @{xHH} coded values with the character they name.
// A single bad payload turns the entire result into InvalidCode.
func Decode(s string) string {
	if !strings.Contains(s, "@{") {
		return s
	}

	var b strings.Builder
	pos := 0
	for _, loc := range codedValueRe.FindAllStringSubmatchIndex(s, -1) {
		r, ok := codePoint(s[loc[2]:loc[3]])
		if !ok {
			return InvalidCode
		}
		b.WriteString(s[pos:loc[0]])
		b.WriteRune(r)
		pos = loc[1]
	}
	b.WriteString(s[pos:])
	return b.String()
}

// codePoint parses a decimal or x-prefixed hexadecimal code point
func codePoint(payload string) (rune, bool) {
	base := 10
	if strings.HasPrefix(payload, "x") || strings.HasPrefix(payload, "X") {
		payload = payload[1:]
		base = 16
	}
	if payload == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(payload, base, 32)
	if err != nil {
		return 0, false
	}
	r := rune(n)
	if !utf8.ValidRune(r) {
		return 0, false
	}
	return r, true
}
