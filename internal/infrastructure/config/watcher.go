package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the configuration when its file changes and hands the new
// value to every registered callback.
type Watcher struct {
	path     string
	reload   func() (*Config, error)
	debounce time.Duration
	logger   *zap.Logger

	mu        sync.RWMutex
	current   *Config
	callbacks []func(*Config)
}

// NewWatcher watches cfg.File. reload is normally Load.
func NewWatcher(cfg *Config, reload func() (*Config, error), logger *zap.Logger) *Watcher {
	return &Watcher{
		path:     cfg.File,
		reload:   reload,
		debounce: 200 * time.Millisecond,
		current:  cfg,
		logger:   logger.With(zap.String("component", "config-watcher")),
	}
}

// OnChange registers fn to receive each successfully reloaded config.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, fn)
	w.mu.Unlock()
}

// Config returns the latest config.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start watches until ctx is done. It returns immediately when there is no
// config file to watch.
func (w *Watcher) Start(ctx context.Context) error {
	if w.path == "" {
		w.logger.Debug("No config file, hot reload disabled")
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory: editors replace files by rename.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("failed to watch config dir: %w", err)
	}

	w.logger.Info("Config watcher started", zap.String("path", w.path))

	go func() {
		defer fw.Close()
		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				w.logger.Info("Config watcher stopped")
				return
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(w.path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(w.debounce)
				} else {
					timer.Reset(w.debounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				w.apply()
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				w.logger.Error("Watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

func (w *Watcher) apply() {
	cfg, err := w.reload()
	if err != nil {
		w.logger.Warn("Config reload failed, keeping previous config", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = cfg
	callbacks := append([]func(*Config){}, w.callbacks...)
	w.mu.Unlock()

	w.logger.Info("Config reloaded",
		zap.String("path", w.path),
		zap.String("backend", cfg.Backend.BaseURL),
		zap.Duration("notice_ttl", cfg.UI.NoticeTTL),
	)
	for _, fn := range callbacks {
		fn(cfg)
	}
}
