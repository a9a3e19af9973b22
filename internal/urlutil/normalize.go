package urlutil

import (
	"net/url"
	"strings"

	"isitdown/internal/models"
)

var schemes = []string{"http://", "https://"}

// Normalize percent-decodes a validated target and makes sure it carries an
// http or https scheme. A scheme is matched case-insensitively and written
// back in lower case; when none is present http:// is prepended.
// Normalize never fails: malformed escapes are kept as they are.
// Re-normalizing keeps the scheme, but decodes any %XX left in the result.
func Normalize(target models.RawTarget) models.NormalizedTarget {
	decoded := Unescape(string(target))

	for _, scheme := range schemes {
		if len(decoded) >= len(scheme) && strings.EqualFold(decoded[:len(scheme)], scheme) {
			return models.NormalizedTarget(scheme + decoded[len(scheme):])
		}
	}
	return models.NormalizedTarget("http://" + decoded)
}

// Unescape decodes %XX sequences. Unlike url.PathUnescape it does not reject
// the whole string on a malformed sequence; such sequences pass through
// unchanged. '+' is left alone.
func Unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	if decoded, err := url.PathUnescape(s); err == nil {
		return decoded
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	switch {
	case '0' <= c && c <= '9', 'a' <= c && c <= 'f', 'A' <= c && c <= 'F':
		return true
	}
	return false
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
