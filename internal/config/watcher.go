// ABOUTME: Polling watcher that reloads a Store when its settings file changes
// ABOUTME: Compares mtime and size at an interval; a removed file counts as a change

package config

import (
	"os"
	"sync"
	"time"

	pilog "github.com/mauromedda/guesswho-go/internal/log"
)

// DefaultWatchInterval is the polling period used by Store.Watch when
// interval is zero.
const DefaultWatchInterval = 2 * time.Second

type fileStamp struct {
	mtime  time.Time
	size   int64
	exists bool
}

func stat(path string) fileStamp {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}
	}
	return fileStamp{mtime: info.ModTime(), size: info.Size(), exists: true}
}

func (f fileStamp) equal(o fileStamp) bool {
	return f.exists == o.exists && f.size == o.size && f.mtime.Equal(o.mtime)
}

// Watcher polls one file and calls onChange after it changes.
type Watcher struct {
	path     string
	interval time.Duration
	onChange func()

	mu   sync.Mutex
	last fileStamp

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// newWatcher snapshots path and starts polling.
func newWatcher(path string, interval time.Duration, onChange func()) *Watcher {
	w := &Watcher{
		path:     path,
		interval: interval,
		onChange: onChange,
		last:     stat(path),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.loop()
	return w
}

// Stop halts polling and waits for the loop to exit. Safe to call
// multiple times.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.done
}

// Check compares the file against the last snapshot and calls onChange
// synchronously when it differs. It reports whether a change was seen.
func (w *Watcher) Check() bool {
	w.mu.Lock()
	cur := stat(w.path)
	changed := !cur.equal(w.last)
	w.last = cur
	w.mu.Unlock()

	if changed {
		w.onChange()
	}
	return changed
}

func (w *Watcher) loop() {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Check()
		}
	}
}

// Watch reloads the store whenever its file changes on disk. onReload,
// when non-nil, receives the outcome of every reload. A reload that fails
// keeps the previous settings.
func (s *Store) Watch(interval time.Duration, onReload func(error)) *Watcher {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	return newWatcher(s.path, interval, func() {
		err := s.Reload()
		if err != nil {
			pilog.Warn("config: keeping previous settings: %v", err)
		} else {
			pilog.Debug("config: reloaded %s", s.path)
		}
		if onReload != nil {
			onReload(err)
		}
	})
}
