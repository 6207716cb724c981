package watcher

import (
	"context"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"vincit.fi/photo-gallery/api"
	"vincit.fi/photo-gallery/backend/internal/storage"
	"vincit.fi/photo-gallery/common/logger"
	"vincit.fi/photo-gallery/common/util"
)

const DefaultDebounce = 500 * time.Millisecond

// Watcher re-indexes directories of the photos root that change on
// disk and calls onChange after each re-index. Events of a directory
// are debounced so that a burst of changes causes a single scan.
type Watcher struct {
	watcher  *fsnotify.Watcher
	tree     *storage.DirTree
	scanner  api.MediaScanner
	owner    string
	debounce time.Duration
	onChange func(ctx context.Context)

	mu       sync.Mutex
	watching map[string]bool
	started  bool
	done     chan struct{}
	stopped  chan struct{}

	closeOnce sync.Once
	closeErr  error
}

func NewWatcher(tree *storage.DirTree, scanner api.MediaScanner, owner string, debounce time.Duration, onChange func(ctx context.Context)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		watcher:  w,
		tree:     tree,
		scanner:  scanner,
		owner:    owner,
		debounce: debounce,
		onChange: onChange,
		watching: map[string]bool{},
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// Start watches the root and every directory below it and starts
// processing events.
func (s *Watcher) Start(ctx context.Context) error {
	if err := s.watchRecursive(ctx, s.tree.Root()); err != nil {
		return err
	}
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	go s.run(ctx)
	return nil
}

func (s *Watcher) watchRecursive(ctx context.Context, osPath string) error {
	if err := s.watch(osPath); err != nil {
		return err
	}
	rel, ok := s.tree.RelPath(osPath)
	if !ok {
		return nil
	}
	return s.tree.Walk(ctx, rel, func(dirRel string, info fs.FileInfo) error {
		if info.IsDir() {
			if err := s.watch(s.tree.OsPath(dirRel)); err != nil {
				logger.Warn.Printf("Could not watch '%s': %s", dirRel, err)
			}
		}
		return nil
	})
}

func (s *Watcher) watch(osPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watching[osPath] {
		return nil
	}
	if err := s.watcher.Add(osPath); err != nil {
		return err
	}
	s.watching[osPath] = true
	logger.Trace.Printf("Watching '%s'", osPath)
	return nil
}

func (s *Watcher) isWatched(osPath string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watching[osPath]
}

func (s *Watcher) forget(osPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.watching, osPath)
}

func (s *Watcher) run(ctx context.Context) {
	defer close(s.stopped)
	lastEvent := map[string]time.Time{}
	ticker := time.NewTicker(s.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if dir, ok := s.changedDirectory(ctx, event); ok {
				lastEvent[dir] = time.Now()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn.Printf("Watcher error: %s", err)

		case <-ticker.C:
			var ready []string
			now := time.Now()
			for dir, at := range lastEvent {
				if now.Sub(at) >= s.debounce {
					ready = append(ready, dir)
					delete(lastEvent, dir)
				}
			}
			if len(ready) > 0 {
				s.rescan(ctx, ready)
			}
		}
	}
}

// changedDirectory returns the directory to re-index for the event.
// New directories are watched as well.
func (s *Watcher) changedDirectory(ctx context.Context, event fsnotify.Event) (string, bool) {
	if !(event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) ||
		event.Has(fsnotify.Rename) || event.Has(fsnotify.Write)) {
		return "", false
	}

	if s.isWatched(event.Name) && (event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
		s.forget(event.Name)
		return event.Name, true
	}
	if event.Has(fsnotify.Create) && util.IsDirectory(event.Name) {
		if err := s.watchRecursive(ctx, event.Name); err != nil {
			logger.Warn.Printf("Could not watch '%s': %s", event.Name, err)
		}
		return event.Name, true
	}

	parent := filepath.Dir(event.Name)
	if s.isWatched(parent) {
		logger.Trace.Printf("Event %s on '%s'", event.Op, event.Name)
		return parent, true
	}
	return "", false
}

func (s *Watcher) rescan(ctx context.Context, dirs []string) {
	logger.Debug.Printf("Re-scanning %d changed directories", len(dirs))
	if err := s.scanner.Scan(ctx, s.owner, dirs...); err != nil {
		logger.Warn.Printf("Re-scanning changed directories failed: %s", err)
	}
	if s.onChange != nil {
		s.onChange(ctx)
	}
}

// Close stops the watcher. Calling it again returns the first result.
func (s *Watcher) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.closeErr = s.watcher.Close()
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if started {
			<-s.stopped
		}
	})
	return s.closeErr
}
