package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/worldkit/pkg/core"
)

func TestWatcherReportsChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "db"), 0o755))

	events := make(chan core.Event, 16)
	w := NewWatcher(WatchConfig{Root: root, Exclude: []string{"db/LOCK"}, Debounce: 10 * time.Millisecond}, events)
	require.NoError(t, w.Start(ctx))
	defer w.Stop(context.Background())
	waitForActive(t, w, true)

	writeFile(t, filepath.Join(root, "db", "LOCK"), "")
	writeFile(t, filepath.Join(root, "levelname.txt"), "renamed")

	select {
	case e := <-events:
		assert.Equal(t, core.EventSourceChanged, e.Type)
		assert.Equal(t, "levelname.txt", e.Path)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for source change")
	}

	w.Pause()
	writeFile(t, filepath.Join(root, "levelname.txt"), "ignored")
	select {
	case e := <-events:
		t.Fatalf("unexpected event while paused: %v", e)
	case <-time.After(150 * time.Millisecond):
	}
	w.Resume()
}

func TestWatcherSupervisorRestarts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	root := t.TempDir()
	events := make(chan core.Event)
	created := make(chan *Watcher, 2)

	spec := supervisor.Spec{
		Name: "source-watcher",
		Type: string(worker.TypeGoroutine),
		Factory: func() (worker.Worker, error) {
			w := NewWatcher(WatchConfig{Root: root}, events)
			created <- w
			return w, nil
		},
		Backoff: supervisor.Backoff{
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     50 * time.Millisecond,
			Multiplier:      1,
			ResetDuration:   50 * time.Millisecond,
			MaxRestarts:     2,
			MaxDuration:     200 * time.Millisecond,
		},
		RestartPolicy: supervisor.RestartOnFailure,
	}

	sup := supervisor.New("test-watcher", supervisor.StrategyOneForOne, spec)
	require.NoError(t, sup.Start(ctx))

	first := waitForWorker(t, created, "first")
	waitForActive(t, first, true)
	_ = first.watcher.Close()

	second := waitForWorker(t, created, "second")
	require.NotSame(t, first, second, "expected supervisor to restart watcher with a new instance")
	waitForActive(t, second, true)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, sup.Stop(stopCtx))
}

func waitForWorker(t *testing.T, ch <-chan *Watcher, label string) *Watcher {
	t.Helper()

	select {
	case w := <-ch:
		return w
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for %s worker", label)
		return nil
	}
}

func waitForActive(t *testing.T, w *Watcher, expected bool) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		if w.Active() == expected {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timeout waiting for watcher active = %v", expected)
		case <-time.After(10 * time.Millisecond):
		}
	}
}
