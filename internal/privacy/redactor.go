package privacy

import "strings"

// RedactedSentinel replaces any line that matches the pattern bank.
// The sentinel itself never matches a pattern, which makes redaction
// idempotent.
const RedactedSentinel = "[REDACTED SENSITIVE INFORMATION]"

// Redactor scrubs text at line granularity. A line with even one
// sensitive token is replaced wholesale; the coarse granularity is
// intentional so that context adjacent to a match cannot leak.
type Redactor struct {
	classifier *Classifier
}

// NewRedactor returns a redactor backed by the given classifier.
func NewRedactor(c *Classifier) *Redactor {
	return &Redactor{classifier: c}
}

// Redact replaces every line that the classifier flags with the
// sentinel. Non-matching lines pass through unchanged.
func (r *Redactor) Redact(text string) string {
	if text == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if r.classifier.ContainsPrivate(line) {
			lines[i] = RedactedSentinel
		}
	}
	return strings.Join(lines, "\n")
}
