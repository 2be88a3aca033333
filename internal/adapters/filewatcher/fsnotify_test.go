package filewatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/ports"
)

func TestFSNotifyWatcher_DefaultExtensions(t *testing.T) {
	watcher, err := NewFSNotifyWatcher(nil, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.Equal(t, []string{".pdf"}, watcher.extensions)
}

func TestFSNotifyWatcher_NormalizesExtensions(t *testing.T) {
	watcher, err := NewFSNotifyWatcher([]string{"PDF", ".Txt"}, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.True(t, watcher.isWatchedExtension("/in/REPORT.PDF"))
	assert.True(t, watcher.isWatchedExtension("notes.txt"))
	assert.False(t, watcher.isWatchedExtension("data.json"))
}

func TestFSNotifyWatcher_WatchDirectory(t *testing.T) {
	dir := t.TempDir()

	watcher, err := NewFSNotifyWatcher(nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer watcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, err := watcher.Watch(ctx, dir)
	require.NoError(t, err)

	go func() {
		time.Sleep(100 * time.Millisecond)
		os.WriteFile(filepath.Join(dir, "paper.pdf"), []byte("%PDF"), 0644)
	}()

	select {
	case event := <-events:
		assert.Equal(t, ports.FileCreated, event.Operation)
		assert.Equal(t, "paper.pdf", filepath.Base(event.Path))
	case <-ctx.Done():
		t.Error("timeout waiting for event")
	}
}

func TestFSNotifyWatcher_FiltersByExtension(t *testing.T) {
	dir := t.TempDir()

	watcher, err := NewFSNotifyWatcher(nil, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	events, err := watcher.Watch(ctx, dir)
	require.NoError(t, err)

	os.WriteFile(filepath.Join(dir, "test.json"), []byte("{}"), 0644)

	select {
	case <-events:
		t.Error("should not receive event for .json")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		op   fsnotify.Op
		want ports.FileOperation
		ok   bool
	}{
		{fsnotify.Create, ports.FileCreated, true},
		{fsnotify.Write, ports.FileModified, true},
		{fsnotify.Create | fsnotify.Write, ports.FileCreated, true},
		{fsnotify.Remove, ports.FileDeleted, true},
		{fsnotify.Rename, ports.FileDeleted, true},
		{fsnotify.Chmod, 0, false},
	}
	for _, tt := range tests {
		got, ok := translate(tt.op)
		assert.Equal(t, tt.ok, ok, tt.op.String())
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.op.String())
		}
	}
}

func TestFSNotifyWatcher_Stop(t *testing.T) {
	watcher, err := NewFSNotifyWatcher(nil, nil)
	require.NoError(t, err)
	assert.NoError(t, watcher.Stop())
}
