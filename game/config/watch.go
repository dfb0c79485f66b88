package config

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/wricardo/storekeeper/game/levelpack"
)

const watchDebounce = 100 * time.Millisecond

// Watcher invalidates cached packs when files in the pack directory change
type Watcher struct {
	watcher *fsnotify.Watcher
	manager *Manager
	logger  zerolog.Logger

	// Events receives the ID of invalidated packs, at most once per file
	// per debounce window. Sends never block; a slow reader misses events.
	Events chan string

	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewWatcher starts watching the manager's pack directory
func NewWatcher(m *Manager, logger zerolog.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(m.Dir()); err != nil {
		_ = w.Close()
		return nil, err
	}

	watcher := &Watcher{
		watcher: w,
		manager: m,
		logger:  logger.With().Str("component", "pack-watcher").Logger(),
		Events:  make(chan string, 16),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops the watcher and waits for it to exit
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	defer close(w.Events)

	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !levelpack.IsPackFile(event.Name) {
				continue
			}
			// every change invalidates; only the notification is debounced
			id := levelpack.PackID(event.Name)
			w.manager.Invalidate(id)

			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < watchDebounce {
				continue
			}
			last[event.Name] = now

			w.logger.Info().Str("pack", id).Str("op", event.Op.String()).Msg("level pack changed")

			select {
			case w.Events <- id:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("watch error")
		case <-w.closeCh:
			return
		}
	}
}
