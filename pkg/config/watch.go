package config

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/zeebo/xxh3"
)

// reloadDebounce coalesces the burst of events editors emit on save.
const reloadDebounce = 150 * time.Millisecond

// Watcher reloads a config file into a Holder whenever it changes on disk.
// Writes that leave the content unchanged (same xxh3 fingerprint) are
// ignored, as are files that fail to parse: the previous snapshot stays
// active until a valid file appears.
type Watcher struct {
	path   string
	holder *Holder
	logger *slog.Logger

	// OnReload, if set, is called after a new snapshot is stored.
	OnReload func(cfg *Config, issues []Issue)

	fingerprint uint64
}

// NewWatcher creates a Watcher for path feeding holder.
func NewWatcher(path string, holder *Holder, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	w := &Watcher{path: path, holder: holder, logger: logger}
	if data, err := os.ReadFile(path); err == nil {
		w.fingerprint = xxh3.Hash(data)
	}
	return w
}

// Run watches until ctx is cancelled. The parent directory is watched so
// that atomic rename-into-place saves are observed.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: create watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("config: watch %s: %w", dir, err)
	}
	w.logger.Debug("watching config", "path", w.path)

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			timerCh = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)
		case <-timerCh:
			timerCh = nil
			w.Reload()
		}
	}
}

// Reload re-reads the file and swaps the snapshot if the content changed.
// It reports whether a new snapshot was stored.
func (w *Watcher) Reload() bool {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.Warn("config reload: read failed, keeping previous config", "path", w.path, "error", err)
		return false
	}

	sum := xxh3.Hash(data)
	if sum == w.fingerprint {
		w.logger.Debug("config reload: content unchanged", "path", w.path)
		return false
	}

	raw, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		w.logger.Warn("config reload: parse failed, keeping previous config", "path", w.path, "error", err)
		return false
	}
	cfg, issues := raw.Normalize()
	for _, is := range issues {
		w.logger.Warn("config issue", "field", is.Field, "detail", is.Message)
	}

	w.fingerprint = sum
	w.holder.Store(cfg)
	w.logger.Info("config reloaded", "path", w.path, "theme", cfg.Theme, "modules", len(cfg.Modules))
	if w.OnReload != nil {
		w.OnReload(cfg, issues)
	}
	return true
}
