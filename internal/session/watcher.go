package session

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// SettingsWatcher reloads the settings file when it changes on disk and
// hands the result to a callback. Editors typically replace the file rather
// than write it in place, so the parent directory is watched.
type SettingsWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	done    chan struct{}
}

// WatchSettings starts watching path. onChange runs on a background
// goroutine with the freshly loaded settings after every change.
func WatchSettings(path string, onChange func(Settings)) (*SettingsWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	w := &SettingsWatcher{
		watcher: watcher,
		path:    path,
		done:    make(chan struct{}),
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				onChange(LoadSettings(path))
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			case <-w.done:
				return
			}
		}
	}()

	return w, nil
}

// Close stops the watcher.
func (w *SettingsWatcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
