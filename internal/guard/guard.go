// Package guard validates and sanitizes inbound chat messages.
//
// The pattern list is a best-effort denylist, not a security boundary: the
// entity encoding applied by Sanitize is what actually keeps markup from
// reaching downstream consumers.
package guard

import (
	"regexp"
	"strings"

	"github.com/bappa-ai/gateway/internal/api"
)

// MaxMessageLen is the hard cap on a single chat message.
const MaxMessageLen = 1000

// dangerousPatterns flag script/iframe/object/embed elements, script-scheme
// URIs and inline event-handler attributes. Closed-element forms come first
// so Sanitize removes the element body, not just the opening tag.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script\b.*?</script\s*>`),
	regexp.MustCompile(`(?is)<iframe\b.*?</iframe\s*>`),
	regexp.MustCompile(`(?is)<object\b.*?</object\s*>`),
	regexp.MustCompile(`(?is)<embed\b.*?</embed\s*>`),
	regexp.MustCompile(`(?i)<script\b`),
	regexp.MustCompile(`(?i)<iframe\b`),
	regexp.MustCompile(`(?i)<object\b`),
	regexp.MustCompile(`(?i)<embed\b`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)vbscript:`),
	regexp.MustCompile(`(?i)\bon\w+\s*=`),
}

// Validate rejects empty, over-length and pattern-matching messages.
func Validate(message string) error {
	if strings.TrimSpace(message) == "" {
		return api.ErrInvalidMessage
	}
	if len(message) > MaxMessageLen {
		return api.ErrMessageTooLong
	}
	for _, re := range dangerousPatterns {
		if re.MatchString(message) {
			return api.ErrMaliciousContent
		}
	}
	return nil
}

// Sanitize strips the dangerous constructs, entity-encodes the five XML
// special characters in what remains, and trims surrounding whitespace.
// It never fails (worst case the result is empty) and is idempotent:
// Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(message string) string {
	return strings.TrimSpace(encodeSpecials(stripDangerous(message)))
}

// stripDangerous removes pattern matches until a fixpoint, so a match
// reassembled from the fragments around a removed one ("jajavascript:vascript:")
// does not survive a single pass.
func stripDangerous(s string) string {
	for {
		out := s
		for _, re := range dangerousPatterns {
			out = re.ReplaceAllString(out, "")
		}
		if out == s {
			return out
		}
		s = out
	}
}

var producedEntities = []string{"&amp;", "&lt;", "&gt;", "&quot;", "&#x27;"}

// encodeSpecials entity-encodes & < > " '. Ampersands that already begin an
// entity produced here are left alone, which keeps the encoding idempotent.
func encodeSpecials(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			if startsProducedEntity(s[i:]) {
				b.WriteByte(c)
			} else {
				b.WriteString("&amp;")
			}
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&#x27;")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func startsProducedEntity(s string) bool {
	for _, e := range producedEntities {
		if strings.HasPrefix(s, e) {
			return true
		}
	}
	return false
}
