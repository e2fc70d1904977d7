package privacy

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestVault_SanitizeReplacesEntities(t *testing.T) {
	v := NewVault()

	text := "email jane.doe@example.com or call 555 123 4567"
	sanitized, placeholders := v.Sanitize(text)

	if strings.Contains(sanitized, "jane.doe@example.com") {
		t.Errorf("email leaked: %q", sanitized)
	}
	if strings.Contains(sanitized, "555 123 4567") {
		t.Errorf("phone leaked: %q", sanitized)
	}
	if !strings.Contains(sanitized, "[EMAIL_0]") {
		t.Errorf("missing email token: %q", sanitized)
	}
	if !strings.Contains(sanitized, "[PHONE_0]") {
		t.Errorf("missing phone token: %q", sanitized)
	}
	if placeholders["[EMAIL_0]"] != "jane.doe@example.com" {
		t.Errorf("placeholder map: %v", placeholders)
	}
}

func TestVault_SanitizeNumbersEachMatch(t *testing.T) {
	v := NewVault()
	sanitized, placeholders := v.Sanitize("cc a@x.com and b@y.com")
	if !strings.Contains(sanitized, "[EMAIL_0]") || !strings.Contains(sanitized, "[EMAIL_1]") {
		t.Fatalf("expected two email tokens, got %q", sanitized)
	}
	if placeholders["[EMAIL_0]"] != "a@x.com" || placeholders["[EMAIL_1]"] != "b@y.com" {
		t.Errorf("placeholder map out of order: %v", placeholders)
	}
}

func TestVault_SanitizeCleanTextIsNoop(t *testing.T) {
	v := NewVault()
	text := "schedule a sync about the roadmap"
	sanitized, placeholders := v.Sanitize(text)
	if sanitized != text {
		t.Errorf("clean text changed: %q", sanitized)
	}
	if len(placeholders) != 0 {
		t.Errorf("unexpected placeholders: %v", placeholders)
	}
}

func TestVault_SanitizeAvoidsTokenCollision(t *testing.T) {
	v := NewVault()
	// The literal token text already appears in the input; the real
	// match must get a different ordinal.
	sanitized, placeholders := v.Sanitize("[EMAIL_0] was mentioned, write to a@x.com")
	if placeholders["[EMAIL_0]"] != "" {
		t.Errorf("[EMAIL_0] must stay reserved, map: %v", placeholders)
	}
	if placeholders["[EMAIL_1]"] != "a@x.com" {
		t.Errorf("expected bumped ordinal, map: %v", placeholders)
	}
	if !strings.Contains(sanitized, "[EMAIL_1]") {
		t.Errorf("sanitized text: %q", sanitized)
	}
}

func TestVault_RestoreNestedStructure(t *testing.T) {
	v := NewVault()
	placeholders := PlaceholderMap{
		"[EMAIL_0]": "jane@example.com",
		"[PHONE_0]": "555 123 4567",
	}

	payload := map[string]any{
		"to":      "[EMAIL_0]",
		"subject": "call me",
		"nested": map[string]any{
			"numbers": []any{"[PHONE_0]", "unchanged"},
		},
	}
	want := map[string]any{
		"to":      "jane@example.com",
		"subject": "call me",
		"nested": map[string]any{
			"numbers": []any{"555 123 4567", "unchanged"},
		},
	}

	got := v.Restore(payload, placeholders)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Restore mismatch (-want +got):\n%s", diff)
	}
}

func TestVault_RestoreIsExactMatchOnly(t *testing.T) {
	v := NewVault()
	placeholders := PlaceholderMap{"[EMAIL_0]": "jane@example.com"}

	// A token embedded in a longer string is not restored; the remote
	// side rewrote the field and the original must not be guessed in.
	got := v.Restore("send to [EMAIL_0] today", placeholders)
	if got != "send to [EMAIL_0] today" {
		t.Errorf("partial match was restored: %v", got)
	}
}

func TestVault_SanitizeRestoreRoundTrip(t *testing.T) {
	v := NewVault()
	text := "invite jane@example.com and call 555 123 4567"
	sanitized, placeholders := v.Sanitize(text)

	fields := strings.Split(sanitized, " ")
	restored := make([]string, len(fields))
	for i, f := range fields {
		restored[i] = v.Restore(f, placeholders).(string)
	}
	if got := strings.Join(restored, " "); got != text {
		t.Errorf("round trip failed: %q", got)
	}
}
