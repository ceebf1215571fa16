package guard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bappa-ai/gateway/internal/api"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    error
	}{
		{"plain text", "Hello Bappa", nil},
		{"exactly at cap", strings.Repeat("a", 1000), nil},
		{"empty", "", api.ErrInvalidMessage},
		{"whitespace only", "   \t\n ", api.ErrInvalidMessage},
		{"over cap", strings.Repeat("a", 1001), api.ErrMessageTooLong},
		{"script element", "<script>alert(1)</script>hi", api.ErrMaliciousContent},
		{"unclosed script", "<script>alert(1)", api.ErrMaliciousContent},
		{"mixed case script", "<ScRiPt>alert(1)</sCrIpT>", api.ErrMaliciousContent},
		{"iframe", `<iframe src="https://evil.example"></iframe>`, api.ErrMaliciousContent},
		{"object", "<object data=x></object>", api.ErrMaliciousContent},
		{"embed", "<embed src=x>", api.ErrMaliciousContent},
		{"javascript uri", "click javascript:alert(1)", api.ErrMaliciousContent},
		{"vbscript uri", "vbscript:MsgBox(1)", api.ErrMaliciousContent},
		{"event handler", `<img src=x onerror=alert(1)>`, api.ErrMaliciousContent},
		{"handler with spaces", `<div onclick = "x()">`, api.ErrMaliciousContent},
		{"on inside word is fine", "conversion=5 is my favorite ratio", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.message)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Hello Bappa", "Hello Bappa"},
		{"trims", "  hi  ", "hi"},
		{"strips script with body", "a<script>alert(1)</script>b", "ab"},
		{"strips javascript uri", "go javascript:alert(1)", "go alert(1)"},
		{"encodes angle brackets", "1 < 2 > 0", "1 &lt; 2 &gt; 0"},
		{"encodes quotes", `say "hi" and 'bye'`, "say &quot;hi&quot; and &#x27;bye&#x27;"},
		{"encodes ampersand", "this & that", "this &amp; that"},
		{"empty in empty out", "", ""},
		{"only dangerous content", "<script>alert(1)</script>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

// A match reassembled from the fragments around a removed one must not
// survive sanitization.
func TestSanitize_ReassembledPatterns(t *testing.T) {
	out := Sanitize("jajavascript:vascript:alert(1)")
	assert.NotContains(t, strings.ToLower(out), "javascript:")
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"Hello Bappa",
		"1 < 2 && 3 > 2",
		`"quoted" & 'single'`,
		"<script>alert(1)</script>",
		"a<script>b</script>c<iframe>d</iframe>e",
		"javascript:alert(1)",
		"<img src=x onerror=alert(1)>",
		"already &amp; encoded &lt;tag&gt;",
		"  padded  ",
		"",
		"jajavascript:vascript:x",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		assert.Equal(t, once, twice, "input %q", in)
	}
}

// Sanitized output never contains raw markup characters.
func TestSanitize_NoRawSpecials(t *testing.T) {
	inputs := []string{
		"<b>bold</b>",
		`<a href="x">link</a>`,
		"5 > 3 < 7",
		"tom & jerry's \"show\"",
	}
	for _, in := range inputs {
		out := Sanitize(in)
		assert.NotContains(t, out, "<", "input %q", in)
		assert.NotContains(t, out, ">", "input %q", in)
		assert.NotContains(t, out, `"`, "input %q", in)
		assert.NotContains(t, out, "'", "input %q", in)
	}
}
