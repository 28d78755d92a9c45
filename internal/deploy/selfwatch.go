package deploy

import (
	"github.com/fsnotify/fsnotify"

	"github.com/gitrelay/gitrelay/internal/logging"
)

// selfWatcher flags an update to the daemon's own binary, preferring an
// fsnotify watch (immediate) and falling back to the mtime poll that
// Daemon.selfUpdated already does on every loop iteration when a watch
// cannot be established — e.g. the binary lives on a filesystem that
// doesn't support inotify.
type selfWatcher struct {
	watcher *fsnotify.Watcher
	updated chan struct{}
}

// watchSelf starts watching path for write/rename/create events. If the
// watch cannot be established, it returns a nil *selfWatcher and the
// caller is expected to rely on the mtime-poll fallback instead.
func watchSelf(path string, log *logging.Logger) *selfWatcher {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Debugf("fsnotify unavailable, falling back to mtime poll: %v", err)
		return nil
	}
	if err := w.Add(path); err != nil {
		log.Debugf("fsnotify watch on %s failed, falling back to mtime poll: %v", path, err)
		w.Close()
		return nil
	}

	sw := &selfWatcher{watcher: w, updated: make(chan struct{}, 1)}
	go sw.run(log)
	return sw
}

func (sw *selfWatcher) run(log *logging.Logger) {
	for {
		select {
		case ev, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Rename|fsnotify.Create) != 0 {
				select {
				case sw.updated <- struct{}{}:
				default:
				}
			}
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			log.Debugf("fsnotify watch error: %v", err)
		}
	}
}

// Updated reports whether a qualifying event has fired since the last
// check, without blocking.
func (sw *selfWatcher) Updated() bool {
	select {
	case <-sw.updated:
		return true
	default:
		return false
	}
}

func (sw *selfWatcher) Close() {
	sw.watcher.Close()
}
