package privacy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name string
		text string
		want Label
	}{
		{"empty", "", LabelUnknown},
		{"whitespace only", "   \n\t", LabelUnknown},
		{"plain request", "schedule a meeting with the design group tomorrow", LabelPublic},
		{"password keyword", "my password is hunter2", LabelPrivate},
		{"keyword is case insensitive", "THIS IS CONFIDENTIAL", LabelPrivate},
		{"email address", "reach me at jane.doe@example.com", LabelPrivate},
		{"ssn digits", "the number is 123-45-6789", LabelPrivate},
		{"card number run", "pay with 4111 1111 1111 1111 please", LabelPrivate},
		{"ssn keyword", "what is an SSN used for", LabelPrivate},
		{"bank keyword", "transfer from my bank", LabelPrivate},
		{"bare phone number", "call 555 123 4567 when ready", LabelPublic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.text); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassifier_ClassifyMatchesContainsPrivate(t *testing.T) {
	c := NewClassifier()
	for _, text := range []string{"", "hello", "my secret plan", "a@b.co"} {
		private := c.ContainsPrivate(text)
		label := c.Classify(text)
		if private && label != LabelPrivate {
			t.Errorf("ContainsPrivate(%q) true but Classify = %v", text, label)
		}
		if !private && label == LabelPrivate {
			t.Errorf("ContainsPrivate(%q) false but Classify = private", text)
		}
	}
}

func TestClassifier_LoadPatternFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	content := "patterns:\n  - 'PROJ-\\d{4}'\n  - '(?i)codename'\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewClassifier()
	if c.ContainsPrivate("ticket PROJ-9921 update") {
		t.Fatal("extra pattern matched before loading")
	}
	if err := c.LoadPatternFile(path); err != nil {
		t.Fatalf("LoadPatternFile failed: %v", err)
	}
	if got := c.ExtraPatternCount(); got != 2 {
		t.Errorf("ExtraPatternCount = %d, want 2", got)
	}
	if !c.ContainsPrivate("ticket PROJ-9921 update") {
		t.Error("extra pattern did not match after loading")
	}
	if !c.ContainsPrivate("the Codename file") {
		t.Error("case-insensitive extra pattern did not match")
	}
	// Built-ins stay active alongside extras.
	if !c.ContainsPrivate("my password") {
		t.Error("built-in pattern lost after loading extras")
	}
}

func TestClassifier_LoadPatternFileRejectsBadRegex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	if err := os.WriteFile(path, []byte("patterns:\n  - '[unclosed'\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewClassifier()
	if err := c.LoadPatternFile(path); err == nil {
		t.Fatal("expected error for invalid regex")
	}
	if c.ExtraPatternCount() != 0 {
		t.Error("invalid file must not install any patterns")
	}
}
