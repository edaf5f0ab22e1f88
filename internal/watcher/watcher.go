package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"stfed/internal/logger"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const DefaultDelay = 300 * time.Millisecond

// Watcher signals when a single file is written or replaced. The parent
// directory is watched so that editors replacing the file by rename are
// still seen. Bursts of writes within delay collapse into one signal.
type Watcher struct {
	fw       *fsnotify.Watcher
	file     string
	delay    time.Duration
	reloadCh chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

func New(file string, delay time.Duration) (*Watcher, error) {
	absFile, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		fw:       fw,
		file:     absFile,
		delay:    delay,
		reloadCh: make(chan struct{}, 1),
		doneCh:   make(chan struct{}),
	}, nil
}

func (w *Watcher) Start() error {
	dir := filepath.Dir(w.file)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("hooks directory not found: %w", err)
	}

	if err := w.fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go w.run()

	logger.Log.Info("watching hooks file",
		zap.String("file", w.file))
	return nil
}

func (w *Watcher) run() {
	var timer *time.Timer
	var timerC <-chan time.Time

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.doneCh:
			return

		case fsEvent, ok := <-w.fw.Events:
			if !ok {
				return
			}

			if filepath.Clean(fsEvent.Name) != w.file {
				continue
			}
			if !fsEvent.Op.Has(fsnotify.Write) && !fsEvent.Op.Has(fsnotify.Create) {
				continue
			}

			logger.Log.Debug("hooks file changed",
				zap.String("op", fsEvent.Op.String()))

			if timer == nil {
				timer = time.NewTimer(w.delay)
			} else {
				timer.Reset(w.delay)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			select {
			case w.reloadCh <- struct{}{}:
			default:
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}

			logger.Log.Error("watcher error",
				zap.Error(err))
		}
	}
}

// Reloads receives once per settled change. Pending signals coalesce.
func (w *Watcher) Reloads() <-chan struct{} {
	return w.reloadCh
}

func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.doneCh)
		_ = w.fw.Close()
	})
}
