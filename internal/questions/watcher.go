package questions

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/kanban-board/internal/models"
)

// Watcher evicts cached templates when their files change on disk.
type Watcher struct {
	loader  *Loader
	watcher *fsnotify.Watcher
	logger  zerolog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	// OnEvict, when set, is called after a category has been evicted.
	OnEvict func(models.Category)
}

// NewWatcher creates a watcher over the loader's directory. Call Start to begin.
func NewWatcher(loader *Loader, logger zerolog.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &Watcher{
		loader:  loader,
		watcher: w,
		logger:  logger.With().Str("component", "template_watcher").Logger(),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Start watches the templates directory until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	if err := w.watcher.Add(w.loader.Dir()); err != nil {
		return fmt.Errorf("watch %s: %w", w.loader.Dir(), err)
	}
	w.running = true
	go w.run(ctx)

	w.logger.Info().Str("dir", w.loader.Dir()).Msg("Watching question templates")
	return nil
}

// Stop ends the event loop and releases the underlying watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()

	if wasRunning {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		w.logger.Error().Err(err).Msg("Error closing template watcher")
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Template watcher error")
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return
	}

	category, ok := categoryFromPath(event.Name)
	if !ok {
		return
	}

	w.logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("Template changed")
	w.loader.Invalidate(category)
	if w.OnEvict != nil {
		w.OnEvict(category)
	}
}

func categoryFromPath(path string) (models.Category, bool) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	switch ext {
	case ".json", ".yaml":
	default:
		return "", false
	}
	name := strings.TrimSuffix(base, ext)
	if !models.IsValidCategory(name) {
		return "", false
	}
	return models.Category(name), true
}
