package runs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports runs as they appear under a save_dir's models tree.
// The training framework creates the run directory and drops config.json
// into it; the watcher emits a descriptor once the record parses.
type Watcher struct {
	fsw    *fsnotify.Watcher
	events chan *Run
	log    *zap.Logger

	closing chan struct{}
	done    chan struct{}
	seen    map[string]struct{}
}

// Watch starts watching <saveDir>/models for new runs. Runs already on
// disk are not replayed; pair with Discover for a full picture.
func Watch(saveDir string, log *zap.Logger) (*Watcher, error) {
	modelsDir := filepath.Join(saveDir, "models")
	if err := os.MkdirAll(modelsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create models directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		fsw:     fsw,
		events:  make(chan *Run, 16),
		log:     log,
		closing: make(chan struct{}),
		done:    make(chan struct{}),
		seen:    make(map[string]struct{}),
	}

	// fsnotify is not recursive; watch the existing tree and extend the
	// watch set as directories appear.
	err = filepath.WalkDir(modelsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch models tree: %w", err)
	}

	go w.loop()
	return w, nil
}

// Events delivers a descriptor per newly appeared run. The channel is
// closed after Close.
func (w *Watcher) Events() <-chan *Run {
	return w.events
}

// Close stops the watcher and waits for the event loop to drain.
func (w *Watcher) Close() error {
	close(w.closing)
	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	defer close(w.events)

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			w.addTree(ev.Name)
			return
		}
	}

	if filepath.Base(ev.Name) != "config.json" {
		return
	}
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) {
		return
	}
	w.tryEmit(ev.Name)
}

// addTree watches a newly created directory and picks up any config
// that landed before the watch was in place.
func (w *Watcher) addTree(dir string) {
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // tree may be racing with its creator
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				w.log.Warn("failed to watch directory",
					zap.String("dir", path), zap.Error(err))
			}
			return nil
		}
		if filepath.Base(path) == "config.json" {
			w.tryEmit(path)
		}
		return nil
	})
	if err != nil {
		w.log.Warn("failed to extend watch", zap.String("dir", dir), zap.Error(err))
	}
}

func (w *Watcher) tryEmit(cfgPath string) {
	if _, dup := w.seen[cfgPath]; dup {
		return
	}

	run, err := load(cfgPath)
	if err != nil {
		// A Write event often fires mid-copy; the final Write parses.
		w.log.Debug("run config not yet readable",
			zap.String("path", cfgPath), zap.Error(err))
		return
	}

	w.seen[cfgPath] = struct{}{}
	select {
	case w.events <- run:
	case <-w.closing:
	}
}
