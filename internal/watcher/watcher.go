package watcher

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/signcast/signcast/internal/media"
)

// Notifier fans an event out to connected screens. Nil disables it.
type Notifier interface {
	Broadcast(event string, data interface{})
}

// Watcher monitors the media data directory and deactivates rows whose
// backing file disappears, so players stop receiving dead URLs.
type Watcher struct {
	repo     *media.Repository
	notifier Notifier
	dataDir  string
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	debounce map[string]*time.Timer
	stop     chan struct{}
}

func New(repo *media.Repository, notifier Notifier, dataDir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		repo:     repo,
		notifier: notifier,
		dataDir:  dataDir,
		watcher:  fw,
		debounce: make(map[string]*time.Timer),
		stop:     make(chan struct{}),
	}, nil
}

func (w *Watcher) Start() error {
	if err := w.addRecursive(w.dataDir); err != nil {
		return err
	}
	go w.eventLoop()
	log.Printf("[watcher] watching %s", w.dataDir)
	return nil
}

func (w *Watcher) Stop() {
	close(w.stop)
	w.watcher.Close()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip inaccessible dirs
		}
		if info.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				log.Printf("[watcher] add %s: %v", path, err)
			}
		}
		return nil
	})
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[watcher] error: %v", err)
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".tmp") ||
		strings.HasSuffix(base, ".part") {
		return
	}

	// New directories join the watch set.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.watcher.Add(event.Name)
			return
		}
	}

	if !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	// Editors often replace files with a remove+create pair; the debounce
	// window lets the replacement land before the row is touched.
	w.mu.Lock()
	if timer, ok := w.debounce[event.Name]; ok {
		timer.Stop()
	}
	path := event.Name
	w.debounce[path] = time.AfterFunc(time.Second, func() {
		w.mu.Lock()
		delete(w.debounce, path)
		w.mu.Unlock()
		w.fileGone(path)
	})
	w.mu.Unlock()
}

func (w *Watcher) fileGone(path string) {
	if _, err := os.Stat(path); err == nil {
		return // the file came back
	}

	m, err := w.repo.GetByFilePath(path)
	if err != nil {
		log.Printf("[watcher] lookup %s: %v", path, err)
		return
	}
	if m == nil || !m.Active {
		return
	}
	if err := w.repo.Deactivate(m.ID); err != nil {
		log.Printf("[watcher] deactivate media %s: %v", m.ID, err)
		return
	}
	log.Printf("[watcher] media %s deactivated, file gone: %s", m.ID, path)

	if w.notifier != nil {
		w.notifier.Broadcast("media:missing", map[string]string{"mediaId": m.ID.String()})
	}
}
