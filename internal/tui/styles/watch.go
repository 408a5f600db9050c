package styles

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ThemeWatcher reloads a theme file whenever it changes on disk.
type ThemeWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	done    chan struct{}
	once    sync.Once
}

// WatchThemeFile calls onChange with the reloaded theme (or the load error)
// each time path is written or created. The parent directory is watched so
// editors that save by rename are seen.
func WatchThemeFile(path string, onChange func(*ThemeFile, error)) (*ThemeWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, err
	}

	tw := &ThemeWatcher{watcher: w, path: abs, done: make(chan struct{})}
	go tw.loop(onChange)
	return tw, nil
}

func (tw *ThemeWatcher) loop(onChange func(*ThemeFile, error)) {
	defer close(tw.done)
	for {
		select {
		case ev, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != tw.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			onChange(LoadThemeFile(tw.path))
		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			onChange(nil, err)
		}
	}
}

// Close stops watching and waits for the watch loop to exit.
func (tw *ThemeWatcher) Close() error {
	var err error
	tw.once.Do(func() {
		err = tw.watcher.Close()
		<-tw.done
	})
	return err
}
