package privacy

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"sentinel/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// PatternWatcher watches an operator-supplied extra-pattern file and
// reloads the classifier when it changes. The built-in bank is immutable;
// only the extra set is swapped.
type PatternWatcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	classifier  *Classifier
	patternFile string
	debounce    time.Duration
	lastReload  time.Time
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// NewPatternWatcher creates a watcher for the given pattern file. The
// file does not have to exist yet; its directory is watched so a file
// created later is picked up.
func NewPatternWatcher(patternFile string, classifier *Classifier) (*PatternWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &PatternWatcher{
		watcher:     w,
		classifier:  classifier,
		patternFile: patternFile,
		debounce:    500 * time.Millisecond, // Collapse rapid editor saves
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start loads the file once and begins watching. Non-blocking.
func (pw *PatternWatcher) Start(ctx context.Context) error {
	pw.mu.Lock()
	if pw.running {
		pw.mu.Unlock()
		return nil
	}
	pw.running = true
	pw.mu.Unlock()

	if err := pw.classifier.LoadPatternFile(pw.patternFile); err != nil {
		logging.Get(logging.CategoryPrivacy).Warn("pattern file not loaded yet: %v", err)
	} else {
		logging.Privacy("loaded %d extra privacy patterns from %s",
			pw.classifier.ExtraPatternCount(), pw.patternFile)
	}

	if err := pw.watcher.Add(filepath.Dir(pw.patternFile)); err != nil {
		return err
	}

	go pw.loop(ctx)
	return nil
}

func (pw *PatternWatcher) loop(ctx context.Context) {
	defer close(pw.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-pw.stopCh:
			return
		case event, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(pw.patternFile) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			pw.mu.Lock()
			if time.Since(pw.lastReload) < pw.debounce {
				pw.mu.Unlock()
				continue
			}
			pw.lastReload = time.Now()
			pw.mu.Unlock()

			if err := pw.classifier.LoadPatternFile(pw.patternFile); err != nil {
				logging.Get(logging.CategoryPrivacy).Error("pattern reload failed: %v", err)
				continue
			}
			logging.Privacy("reloaded extra privacy patterns (%d active)",
				pw.classifier.ExtraPatternCount())
		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryPrivacy).Warn("pattern watcher error: %v", err)
		}
	}
}

// Stop ends the watch loop and releases the underlying watcher.
func (pw *PatternWatcher) Stop() {
	pw.mu.Lock()
	if !pw.running {
		pw.mu.Unlock()
		return
	}
	pw.running = false
	pw.mu.Unlock()

	close(pw.stopCh)
	_ = pw.watcher.Close()
	<-pw.doneCh
}
