package dispatch

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"sentinel/internal/privacy"
)

func newTestSanitizer() *Sanitizer {
	return NewSanitizer(privacy.NewRedactor(privacy.NewClassifier()))
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Jane.Doe@Gmail.com", "jane.doe@gmail.com"},
		{"Jane.Doe@GoogleMail.com", "jane.doe@googlemail.com"},
		{"Jane.Doe@Example.com", "Jane.Doe@Example.com"},
		{"  a@b.co ", "a@b.co"},
	}
	for _, tt := range tests {
		if got := NormalizeEmail(tt.in); got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizer_MaskEmail(t *testing.T) {
	s := newTestSanitizer()
	if got := s.MaskEmail("jane.doe@example.com"); got != "Jane" {
		t.Errorf("MaskEmail = %q", got)
	}
	if got := s.MaskEmail("12345@example.com"); got != "Recipient" {
		t.Errorf("MaskEmail digits-only = %q", got)
	}
}

func TestSanitizer_Sanitize(t *testing.T) {
	s := newTestSanitizer()

	input := map[string]any{
		"to":       "jane.doe@example.com",
		"subject":  "lunch",
		"note":     "my password is hunter2",
		"customer": map[string]any{"first_name": "Ada"},
		"address":  map[string]any{"street": "1 Main"},
		"payment":  map[string]any{"card_number": "4111111111111111"},
		"documents": []any{
			map[string]any{"name": "report.pdf", "data": "aGVsbG8="},
			"plain.pdf",
		},
		"count": float64(3),
	}
	want := map[string]any{
		"to":        "Jane",
		"subject":   "lunch",
		"note":      privacy.RedactedSentinel,
		"customer":  "[REDACTED]",
		"address":   "[REDACTED]",
		"payment":   "[REDACTED]",
		"documents": []any{"report.pdf", "plain.pdf"},
		"count":     float64(3),
	}

	got := s.Sanitize(input)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Sanitize mismatch (-want +got):\n%s", diff)
	}
}

func TestSanitizer_SanitizeListRecurses(t *testing.T) {
	s := newTestSanitizer()
	got := s.Sanitize([]any{"clean", "a@b.co"})
	list, ok := got.([]any)
	if !ok || len(list) != 2 {
		t.Fatalf("got = %v", got)
	}
	if list[0] != "clean" {
		t.Errorf("clean entry changed: %v", list[0])
	}
	if list[1] != "A" {
		t.Errorf("email entry = %v, want masked alias", list[1])
	}
}
