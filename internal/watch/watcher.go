// Package watch reports debounced changes to a single file.
//
// The parent directory is watched rather than the file itself so that editors
// and spreadsheet apps that save by writing a temp file and renaming it over
// the original keep triggering events.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/ashwch/s3tools/internal/logging"
)

const defaultDebounce = 400 * time.Millisecond

type Config struct {
	// Path is the file to watch. It must exist when New is called.
	Path string
	// Debounce is the quiet period after the last event. Zero or negative
	// values fall back to defaultDebounce.
	Debounce time.Duration
	Logger   *log.Logger
}

// Watcher delivers one value on Changes per burst of events touching Path.
// Run must be called exactly once.
type Watcher struct {
	path     string
	name     string
	fsw      *fsnotify.Watcher
	debounce time.Duration
	logger   *log.Logger
	changes  chan struct{}
	started  atomic.Bool
}

func New(cfg Config) (*Watcher, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("watch: path is required")
	}
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("watch: %s is a directory", abs)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch: add directory %q: %w", filepath.Dir(abs), err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{
		path:     abs,
		name:     filepath.Base(abs),
		fsw:      fsw,
		debounce: debounce,
		logger:   logging.Or(cfg.Logger),
		changes:  make(chan struct{}, 1),
	}, nil
}

func (w *Watcher) Path() string { return w.path }

// Changes is closed when Run returns.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Run blocks until ctx is cancelled or the watcher fails fatally.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("watch: Run called more than once")
	}

	var (
		mu     sync.Mutex
		timer  *time.Timer
		closed bool
	)
	fire := func() {
		mu.Lock()
		defer mu.Unlock()
		if closed || ctx.Err() != nil {
			return
		}
		select {
		case w.changes <- struct{}{}:
		default:
		}
	}

	defer func() {
		mu.Lock()
		closed = true
		if timer != nil {
			timer.Stop()
		}
		close(w.changes)
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close fsnotify", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch: fsnotify event channel closed unexpectedly")
			}
			if !w.relevant(evt) {
				continue
			}
			w.logger.Debug("file event", "path", evt.Name, "op", evt.Op.String())

			mu.Lock()
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

func (w *Watcher) relevant(evt fsnotify.Event) bool {
	if evt.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(evt.Name)
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		return strings.EqualFold(base, w.name)
	}
	return base == w.name
}

func isFatalFsnotifyError(err error) bool {
	return !errors.Is(err, fsnotify.ErrEventOverflow) && isResourceExhausted(err)
}
