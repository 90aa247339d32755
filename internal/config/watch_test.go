package config

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "identifier: 1\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var reloaded []*Config
	errCh := make(chan error, 1)
	go func() {
		errCh <- Watch(ctx, path, func(cfg *Config) {
			mu.Lock()
			defer mu.Unlock()
			reloaded = append(reloaded, cfg)
		})
	}()

	// Rewrite until the watcher is up and picks a write.
	require.Eventually(t, func() bool {
		assert.NoError(t, os.WriteFile(path, []byte("identifier: 2\nactivity:\n  state: Reloaded\n"), 0o644))
		mu.Lock()
		defer mu.Unlock()
		return len(reloaded) > 0
	}, 5*time.Second, 50*time.Millisecond)

	mu.Lock()
	cfg := reloaded[len(reloaded)-1]
	mu.Unlock()
	assert.Equal(t, uint64(2), cfg.Identifier)
	require.NotNil(t, cfg.Activity)
	assert.Equal(t, "Reloaded", cfg.Activity.State)

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatch_SkipsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "identifier: 1\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var reloaded []*Config
	go func() {
		_ = Watch(ctx, path, func(cfg *Config) {
			mu.Lock()
			defer mu.Unlock()
			reloaded = append(reloaded, cfg)
		})
	}()

	require.Eventually(t, func() bool {
		// identifier 0 is rejected; the valid write afterwards is delivered.
		assert.NoError(t, os.WriteFile(path, []byte("identifier: 0\n"), 0o644))
		assert.NoError(t, os.WriteFile(path, []byte("identifier: 3\n"), 0o644))
		mu.Lock()
		defer mu.Unlock()
		return len(reloaded) > 0
	}, 5*time.Second, 50*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, cfg := range reloaded {
		assert.NotZero(t, cfg.Identifier)
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), "/nonexistent/dir/presence.yaml", func(*Config) {})
	assert.Error(t, err)
}
