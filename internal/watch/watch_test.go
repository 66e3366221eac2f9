package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebuildsOncePerBurst(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "a.h")
	require.NoError(t, os.WriteFile(input, []byte("/**\n */\n"), 0o644))

	w, err := New([]string{input}, 50*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()

	rebuilt := make(chan struct{}, 10)
	done := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { done <- w.Run(ctx, func() { rebuilt <- struct{}{} }) }()

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(input, []byte("/**\n * v\n */\n"), 0o644))
	}

	select {
	case <-rebuilt:
	case <-time.After(3 * time.Second):
		t.Fatal("no rebuild after change")
	}

	select {
	case <-rebuilt:
		t.Fatal("burst triggered more than one rebuild")
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "a.h")
	require.NoError(t, os.WriteFile(input, nil, 0o644))

	w, err := New([]string{input}, 20*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)

	rebuilt := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background(), func() { rebuilt <- struct{}{} }) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))

	select {
	case <-rebuilt:
		t.Fatal("unrelated file triggered a rebuild")
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, w.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after Close")
	}
}

func TestRelevant(t *testing.T) {
	w := &Watcher{files: map[string]struct{}{"/src/a.h": {}}}

	tests := []struct {
		name     string
		event    fsnotify.Event
		expected bool
	}{
		{name: "write", event: fsnotify.Event{Name: "/src/a.h", Op: fsnotify.Write}, expected: true},
		{name: "rename", event: fsnotify.Event{Name: "/src/a.h", Op: fsnotify.Rename}, expected: true},
		{name: "chmod only", event: fsnotify.Event{Name: "/src/a.h", Op: fsnotify.Chmod}, expected: false},
		{name: "other file", event: fsnotify.Event{Name: "/src/b.h", Op: fsnotify.Write}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, w.relevant(tt.event))
		})
	}
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "nope", "a.h")}, 0, zerolog.Nop())
	assert.Error(t, err)
}
