package assets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/fbtex/engine/core"
	"golang.org/x/exp/slices"
)

var ErrWatcherClosed = errors.New("watcher already closed")

type AssetInfo struct {
	Path        string
	LastChanged time.Time
}

// Watcher keeps an index of the PNG files under a set of directories and
// reports every create or write on them. It never holds decoded pixels.
type Watcher struct {
	assets   map[string]AssetInfo
	onChange func(path string)

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
}

func NewWatcher(onChange func(path string)) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		assets:   make(map[string]AssetInfo),
		onChange: onChange,
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go w.start()

	return w, nil
}

// Add starts watching dir and all of its sub-directories. PNG files already
// present are indexed but not reported.
func (w *Watcher) Add(dir string) error {
	if w.closed() {
		return ErrWatcherClosed
	}
	return w.watchRecursive(dir)
}

// Paths returns the indexed PNG files, sorted.
func (w *Watcher) Paths() []string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	paths := make([]string, 0, len(w.assets))
	for p := range w.assets {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

func (w *Watcher) Close() error {
	w.mutex.Lock()
	if w.isClosed {
		w.mutex.Unlock()
		return ErrWatcherClosed
	}
	w.isClosed = true
	w.mutex.Unlock()

	close(w.done)
	<-w.stopped
	return nil
}

func (w *Watcher) closed() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.isClosed
}

func (w *Watcher) start() {
	defer close(w.stopped)
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			w.handleEvent(e)

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("watcher: %s", err)

		case <-w.done:
			w.fsnotify.Close()
			return
		}
	}
}

func (w *Watcher) handleEvent(e fsnotify.Event) {
	if e.Has(fsnotify.Create) {
		if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
			if err := w.watchRecursive(e.Name); err != nil {
				core.LogWarn("watcher: cannot watch new directory '%s': %s", e.Name, err)
			}
			return
		}
	}
	// Can't stat a deleted path, so just drop it from the index and the
	// watch list whatever it was.
	if e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename) {
		w.removeAsset(e.Name)
		_ = w.fsnotify.Remove(e.Name)
		return
	}
	if e.Has(fsnotify.Create) || e.Has(fsnotify.Write) {
		if w.indexAsset(e.Name) && w.onChange != nil {
			w.onChange(e.Name)
		}
	}
}

// watchRecursive adds all directories under the given one to the watch list.
// A file created between the walk and the Add call is not reported.
func (w *Watcher) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return w.fsnotify.Add(walkPath)
		}
		w.indexAsset(walkPath)
		return nil
	})
}

// indexAsset records path if it looks like a PNG and reports whether it did.
func (w *Watcher) indexAsset(path string) bool {
	if !isPNG(path) {
		return false
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.assets[path] = AssetInfo{
		Path:        path,
		LastChanged: time.Now(),
	}
	return true
}

// removeAsset drops path, and everything below it when path was a directory.
func (w *Watcher) removeAsset(path string) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	delete(w.assets, path)
	prefix := path + string(filepath.Separator)
	for p := range w.assets {
		if strings.HasPrefix(p, prefix) {
			delete(w.assets, p)
		}
	}
}

func isPNG(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".png")
}
