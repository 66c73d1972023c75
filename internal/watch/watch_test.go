package watch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_DebouncesBursts(t *testing.T) {
	root := t.TempDir()
	var calls atomic.Int32
	fired := make(chan struct{}, 8)

	w, err := New([]string{root}, 100*time.Millisecond, func() {
		calls.Add(1)
		fired <- struct{}{}
	}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Shutdown()

	for _, n := range []string{"a.npy", "b.npy", "c.npy"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, n), []byte("x"), 0o644))
	}

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification")
	}
	time.Sleep(300 * time.Millisecond)
	assert.EqualValues(t, 1, calls.Load())
}

func TestWatcher_FollowsNewSubdirectories(t *testing.T) {
	root := t.TempDir()
	fired := make(chan struct{}, 8)

	w, err := New([]string{root}, 50*time.Millisecond, func() { fired <- struct{}{} }, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Shutdown()

	sub := filepath.Join(root, "p1")
	require.NoError(t, os.Mkdir(sub, 0o755))
	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("no notification for new directory")
	}

	require.NoError(t, os.WriteFile(filepath.Join(sub, "1.dcm"), []byte("x"), 0o644))
	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("no notification inside new directory")
	}
}

func TestWatcher_ShutdownIsIdempotent(t *testing.T) {
	w, err := New([]string{t.TempDir(), ""}, 0, nil, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	w.Shutdown()
	w.Shutdown()
}

func TestWatcher_MissingRootIsReported(t *testing.T) {
	w, err := New([]string{filepath.Join(t.TempDir(), "gone")}, 0, nil, nil)
	require.NoError(t, err)
	assert.Error(t, w.Start())
	w.Shutdown()
}

func TestIgnored(t *testing.T) {
	assert.True(t, ignored("/x/.a.nii.tmp-123"))
	assert.False(t, ignored("/x/a.nii"))
}
