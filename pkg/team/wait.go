package team

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// waitPollInterval is the fallback poll cadence for platforms or
// directories where fsnotify delivers nothing.
const waitPollInterval = 500 * time.Millisecond

// WaitForMessage blocks until the teammate's inbox has traffic, the
// teammate is shut down (team deletion flips status first), or the
// context is cancelled. It watches the inbox directory with fsnotify and
// polls as a fallback.
func (r *Registry) WaitForMessage(ctx context.Context, tm *Teammate) error {
	var events chan fsnotify.Event
	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(tm.InboxPath)); err == nil {
			events = watcher.Events
		}
	}

	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()

	for {
		if tm.Status() == StatusShutdown || inboxHasTraffic(tm.InboxPath) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-events:
		}
	}
}

// inboxHasTraffic reports whether the inbox file exists with pending
// bytes.
func inboxHasTraffic(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}
