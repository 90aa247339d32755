package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config at path whenever it, or the .env beside it, is
// written or recreated, and calls fn with each config that loads and
// validates. Invalid configs are logged and skipped. Blocks until ctx is
// done and returns ctx.Err().
func Watch(ctx context.Context, path string, fn func(*Config)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	dotenv := filepath.Join(filepath.Dir(abs), ".env")

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// Editors replace files on save, so watch the directory.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	slog.Debug("config watch started", "path", abs)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return ctx.Err()
			}
			name := filepath.Clean(ev.Name)
			if name != abs && name != dotenv {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			reload(abs, fn)
		case err, ok := <-w.Errors:
			if !ok {
				return ctx.Err()
			}
			slog.Warn("config watch error", "error", err)
		}
	}
}

func reload(path string, fn func(*Config)) {
	cfg, err := Load(path)
	if err != nil {
		slog.Warn("config reload failed", "path", path, "error", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		slog.Warn("config reload rejected", "path", path, "error", err)
		return
	}
	slog.Info("config reloaded", "path", path)
	fn(cfg)
}
