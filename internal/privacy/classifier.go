// Package privacy implements the sensitivity classification, redaction,
// and reversible placeholder substitution that keep private text inside
// the trust boundary. Classification is a pure existence test over a
// fixed pattern bank: any single match labels the text private. There is
// no scoring and no threshold; the bank deliberately over-matches so that
// false positives (over-redaction) are preferred to false negatives.
package privacy

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Label is the sensitivity classification of a piece of text.
// It is derived on demand and never stored.
type Label string

const (
	LabelPublic  Label = "public"
	LabelPrivate Label = "private"
	// LabelUnknown is returned for empty or whitespace-only text. It is
	// treated as non-private for routing, but it is never redacted
	// (there is nothing to redact).
	LabelUnknown Label = "unknown"
)

// EmailPattern matches an email-address shape. Exported because the
// deterministic parser and the placeholder vault extract recipients and
// entities with the same shape the classifier flags.
var EmailPattern = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`)

// PhonePattern matches a loose phone-number shape: a digit, then at
// least seven digits/dashes/spaces, ending in a digit.
var PhonePattern = regexp.MustCompile(`\+?\d[\d\-\s]{7,}\d`)

// CardPattern matches a 13-16 digit run with optional spaces or dashes,
// a candidate payment card number.
var CardPattern = regexp.MustCompile(`(?:\d[ -]?){13,16}`)

// builtinBank is the fixed, ordered pattern bank. Order matters only for
// diagnostics; classification is a disjunction over all entries.
var builtinBank = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bpassword\b`),
	regexp.MustCompile(`(?i)\bsecret\b`),
	regexp.MustCompile(`(?i)\btoken\b`),
	regexp.MustCompile(`(?i)\bauth\b`),
	regexp.MustCompile(`(?i)\bssn\b`),
	regexp.MustCompile(`(?i)social security`),
	regexp.MustCompile(`(?i)\bcredit card\b`),
	regexp.MustCompile(`(?i)\baccount\b`),
	regexp.MustCompile(`(?i)\brouting\b`),
	regexp.MustCompile(`(?i)\bbank\b`),
	regexp.MustCompile(`(?i)\bprivate\b`),
	regexp.MustCompile(`(?i)\bconfidential\b`),
	regexp.MustCompile(`(?i)\bpersonal\b`),
	regexp.MustCompile(`(?i)\bphone\b`),
	regexp.MustCompile(`(?i)\bdob\b`),
	regexp.MustCompile(`(?i)\bbirth(date)?\b`),
	CardPattern,
	EmailPattern,
	regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
}

// Classifier labels text as public or private against the built-in bank
// plus any operator-supplied extra patterns. It is safe for concurrent
// use; extra patterns may be swapped at runtime by the pattern watcher.
type Classifier struct {
	mu    sync.RWMutex
	extra []*regexp.Regexp
}

// NewClassifier returns a classifier using only the built-in bank.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify returns the sensitivity label for text. It is total: no input
// can make it fail.
func (c *Classifier) Classify(text string) Label {
	if strings.TrimSpace(text) == "" {
		return LabelUnknown
	}
	if c.ContainsPrivate(text) {
		return LabelPrivate
	}
	return LabelPublic
}

// ContainsPrivate reports whether any pattern in the bank matches text.
func (c *Classifier) ContainsPrivate(text string) bool {
	for _, p := range builtinBank {
		if p.MatchString(text) {
			return true
		}
	}
	c.mu.RLock()
	extra := c.extra
	c.mu.RUnlock()
	for _, p := range extra {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// patternFile is the on-disk shape of an extra-pattern file.
type patternFile struct {
	Patterns []string `yaml:"patterns"`
}

// LoadPatternFile replaces the extra pattern set with the contents of a
// yaml file. The built-in bank is never removed or reordered.
func (c *Classifier) LoadPatternFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read pattern file: %w", err)
	}
	var pf patternFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("parse pattern file: %w", err)
	}
	compiled := make([]*regexp.Regexp, 0, len(pf.Patterns))
	for _, raw := range pf.Patterns {
		p, err := regexp.Compile(raw)
		if err != nil {
			return fmt.Errorf("compile pattern %q: %w", raw, err)
		}
		compiled = append(compiled, p)
	}
	c.mu.Lock()
	c.extra = compiled
	c.mu.Unlock()
	return nil
}

// ExtraPatternCount returns the number of loaded extra patterns.
func (c *Classifier) ExtraPatternCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.extra)
}
