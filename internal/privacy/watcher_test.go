package privacy

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func writePatterns(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPatternWatcher_LoadsAtStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	writePatterns(t, path, "patterns:\n  - 'INTERNAL-\\d+'\n")

	c := NewClassifier()
	w, err := NewPatternWatcher(path, c)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if c.ExtraPatternCount() != 1 {
		t.Errorf("ExtraPatternCount = %d, want 1", c.ExtraPatternCount())
	}
	if !c.ContainsPrivate("ref INTERNAL-42") {
		t.Error("pattern from file not active after Start")
	}
}

func TestPatternWatcher_ReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	writePatterns(t, path, "patterns: []\n")

	c := NewClassifier()
	w, err := NewPatternWatcher(path, c)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	writePatterns(t, path, "patterns:\n  - 'BADGE-\\d{6}'\n")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if c.ContainsPrivate("id BADGE-112233") {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("pattern file change was not picked up")
}

func TestPatternWatcher_StopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	writePatterns(t, path, "patterns: []\n")

	w, err := NewPatternWatcher(path, NewClassifier())
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}
