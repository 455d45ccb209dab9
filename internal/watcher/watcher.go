// Package watcher reports changes to the local blob directory.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/menuboard/internal/localstore"
)

// Change kinds.
const (
	KindWritten = "written"
	KindDeleted = "deleted"
)

// EventCallback receives one coalesced change per blob. userID is empty for
// legacy unscoped blobs.
type EventCallback func(userID, key, kind string)

// DefaultDebounce is how long a blob must stay quiet before its change is
// reported.
const DefaultDebounce = 150 * time.Millisecond

// Watch observes dir until ctx is cancelled. Temp files from atomic writes
// are ignored; bursts of events on the same blob collapse into one callback.
func Watch(ctx context.Context, dir string, debounce time.Duration, logger *slog.Logger, cb EventCallback) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("dir", dir))

	pending := make(map[string]string)
	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	schedule := func() {
		if flushTimer == nil {
			flushTimer = time.NewTimer(debounce)
			flushCh = flushTimer.C
			return
		}
		if !flushTimer.Stop() {
			select {
			case <-flushTimer.C:
			default:
			}
		}
		flushTimer.Reset(debounce)
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-flushCh:
			for name, kind := range pending {
				uid, key := localstore.SplitScopedKey(name)
				logger.Debug("watcher: blob changed",
					slog.String("user_id", uid), slog.String("key", key), slog.String("op", kind))
				if cb != nil {
					cb(uid, key, kind)
				}
			}
			clear(pending)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if strings.HasPrefix(name, ".") {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				pending[name] = KindWritten
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				pending[name] = KindDeleted
			default:
				continue
			}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
