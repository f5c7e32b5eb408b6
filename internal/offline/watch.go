package offline

import (
	"context"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch blocks until ctx is done, triggering a replay pass whenever the
// queue file changes on disk. This lets a long-running `ajo queue watch`
// pick up actions enqueued by other ajo processes.
func (q *Queue) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: the queue file is replaced by rename, so
	// watching the file itself would break after the first write.
	if err := watcher.Add(q.store.dir); err != nil {
		return err
	}

	// Debounce bursts of events from a single save.
	var timer *time.Timer
	trigger := make(chan struct{}, 1)
	kick := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(200*time.Millisecond, func() {
			select {
			case trigger <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if strings.HasSuffix(event.Name, QueueFileName) &&
				event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				kick()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			q.logger.Warn("queue watcher error", "err", err)
		case <-trigger:
			if q.monitor == nil || q.monitor.Online() {
				_ = q.Process(ctx)
			}
		}
	}
}
