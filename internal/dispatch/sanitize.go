// Package dispatch validates canonical actions against their per-kind
// field requirements and executes them through a pluggable executor
// registry. Everything it returns to a caller is sanitized first.
package dispatch

import (
	"regexp"
	"strings"

	"sentinel/internal/privacy"
)

// exactEmailPattern matches a value that is an email address and
// nothing else. Such values are masked to a first name rather than
// line-redacted.
var exactEmailPattern = regexp.MustCompile(`^` + privacy.EmailPattern.String() + `$`)

var nameTokenPattern = regexp.MustCompile(`[A-Za-z]+`)

// alwaysRedactedKeys are payload keys whose values are wholesale
// identity or payment data. They are replaced outright rather than
// walked.
var alwaysRedactedKeys = map[string]bool{
	"customer": true,
	"address":  true,
	"payment":  true,
}

// Sanitizer redacts payloads and results before they are echoed back to
// a caller. It reuses the line redactor for free text and applies
// structural rules for known-sensitive keys.
type Sanitizer struct {
	redactor *privacy.Redactor
}

// NewSanitizer returns a sanitizer backed by the given redactor.
func NewSanitizer(redactor *privacy.Redactor) *Sanitizer {
	return &Sanitizer{redactor: redactor}
}

// NormalizeEmail lowercases gmail-style addresses where casing carries
// no meaning, and leaves other addresses untouched.
func NormalizeEmail(value string) string {
	email := strings.TrimSpace(value)
	lowered := strings.ToLower(email)
	if strings.HasSuffix(lowered, "@gmail.com") || strings.HasSuffix(lowered, "@googlemail.com") {
		return lowered
	}
	return email
}

// MaskEmail reduces an email address to a capitalized first-name alias
// so responses can reference a recipient without exposing the address.
func (s *Sanitizer) MaskEmail(value string) string {
	local, _, _ := strings.Cut(NormalizeEmail(value), "@")
	tokens := nameTokenPattern.FindAllString(local, -1)
	if len(tokens) == 0 {
		return "Recipient"
	}
	first := tokens[0]
	masked := strings.ToUpper(first[:1]) + strings.ToLower(first[1:])
	return s.redactor.Redact(masked)
}

// Sanitize walks a value and redacts everything sensitive: exact email
// strings become name aliases, free text goes through the line
// redactor, customer/address/payment subtrees are replaced, and
// document lists are reduced to their names.
func (s *Sanitizer) Sanitize(value any) any {
	switch v := value.(type) {
	case string:
		if exactEmailPattern.MatchString(v) {
			return s.MaskEmail(v)
		}
		return s.redactor.Redact(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = s.Sanitize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			switch {
			case alwaysRedactedKeys[key]:
				out[key] = "[REDACTED]"
			case key == "documents":
				out[key] = s.sanitizeDocuments(val)
			default:
				out[key] = s.Sanitize(val)
			}
		}
		return out
	default:
		return value
	}
}

// sanitizeDocuments keeps only document names; content and paths never
// reach the response.
func (s *Sanitizer) sanitizeDocuments(value any) any {
	list, ok := value.([]any)
	if !ok {
		return "[REDACTED]"
	}
	out := make([]any, len(list))
	for i, doc := range list {
		if obj, ok := doc.(map[string]any); ok {
			out[i] = s.Sanitize(obj["name"])
			continue
		}
		out[i] = s.Sanitize(doc)
	}
	return out
}
