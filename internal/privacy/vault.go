package privacy

import (
	"fmt"
	"regexp"
	"strings"
)

// PlaceholderMap is the bijection between opaque tokens and the original
// sensitive substrings for a single interpretation call. It is discarded
// once the call resolves; nothing about it is persisted.
type PlaceholderMap map[string]string

// vaultCategories are scanned in fixed order. Email shapes first so that
// the digit-run patterns never chew through an address.
var vaultCategories = []struct {
	label   string
	pattern *regexp.Regexp
}{
	{"EMAIL", EmailPattern},
	{"PHONE", PhonePattern},
	{"CARD", CardPattern},
}

// Vault performs reversible placeholder substitution so a remote parser
// can operate on text containing emails, phone numbers, and card numbers
// without ever seeing the originals.
type Vault struct{}

// NewVault returns a placeholder vault.
func NewVault() *Vault {
	return &Vault{}
}

// Sanitize replaces each sensitive match with a unique token of the form
// [LABEL_n], where n is the match's ordinal within its category. The same
// raw substring appearing twice gets two independent tokens: position,
// not identity, is what must be restored. Tokens are checked against the
// input so they cannot collide with substrings already present.
func (v *Vault) Sanitize(text string) (string, PlaceholderMap) {
	placeholders := make(PlaceholderMap)
	sanitized := text
	for _, cat := range vaultCategories {
		sanitized = substitute(sanitized, text, cat.label, cat.pattern, placeholders)
	}
	return sanitized, placeholders
}

func substitute(current, original, label string, pattern *regexp.Regexp, placeholders PlaceholderMap) string {
	matches := pattern.FindAllStringIndex(current, -1)
	if len(matches) == 0 {
		return current
	}
	var b strings.Builder
	prev := 0
	ordinal := 0
	for _, m := range matches {
		token := fmt.Sprintf("[%s_%d]", label, ordinal)
		// Bump the ordinal past any token text the instruction already
		// contains, otherwise restore would rewrite user content.
		for strings.Contains(original, token) {
			ordinal++
			token = fmt.Sprintf("[%s_%d]", label, ordinal)
		}
		placeholders[token] = current[m[0]:m[1]]
		b.WriteString(current[prev:m[0]])
		b.WriteString(token)
		prev = m[1]
		ordinal++
	}
	b.WriteString(current[prev:])
	return b.String()
}

// Restore walks an arbitrary nested structure and swaps any string value
// that exactly equals a known token back to its original substring.
// Partial matches inside a larger string are left untouched: if the
// remote parser rewrote the text around a token, restoration fails
// silently for that field rather than leaking the wrong value.
func (v *Vault) Restore(value any, placeholders PlaceholderMap) any {
	switch tv := value.(type) {
	case string:
		if original, ok := placeholders[tv]; ok {
			return original
		}
		return tv
	case []any:
		out := make([]any, len(tv))
		for i, item := range tv {
			out[i] = v.Restore(item, placeholders)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, item := range tv {
			out[k] = v.Restore(item, placeholders)
		}
		return out
	default:
		return value
	}
}
