package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/loader"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/models"
)

type fakeLoader struct {
	calls   atomic.Int32
	running atomic.Int32
	peak    atomic.Int32
	delay   time.Duration
	err     error
}

func (f *fakeLoader) Load(ctx context.Context, path string) (*models.Volume, error) {
	f.calls.Add(1)
	n := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	time.Sleep(f.delay)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Volume{Path: path, Shape: []int{1, 2}, Data: []float64{0, 8}}, nil
}

func newService(t *testing.T, l loader.Loader, size, workers int) *VolumeService {
	t.Helper()
	vs, err := NewVolumeService(l, size, workers, nil)
	require.NoError(t, err)
	return vs
}

func TestVolumeService_CachesNormalizedVolumes(t *testing.T) {
	l := &fakeLoader{}
	vs := newService(t, l, 2, 2)
	ctx := context.Background()

	vol, err := vs.Load(ctx, "/data/a.npy")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, vol.Data)
	assert.Equal(t, 8.0, vol.Max)

	again, err := vs.Load(ctx, "/data/../data/a.npy")
	require.NoError(t, err)
	assert.Same(t, vol, again)
	assert.EqualValues(t, 1, l.calls.Load())
}

func TestVolumeService_EvictsLeastRecentlyUsed(t *testing.T) {
	l := &fakeLoader{}
	vs := newService(t, l, 2, 1)
	ctx := context.Background()

	for _, p := range []string{"/a", "/b", "/a", "/c"} {
		_, err := vs.Load(ctx, p)
		require.NoError(t, err)
	}
	assert.True(t, vs.Cached("/a"))
	assert.False(t, vs.Cached("/b"))
	assert.True(t, vs.Cached("/c"))

	vs.Invalidate("/a")
	assert.False(t, vs.Cached("/a"))
	vs.Purge()
	assert.False(t, vs.Cached("/c"))
}

func TestVolumeService_BoundsConcurrency(t *testing.T) {
	l := &fakeLoader{delay: 20 * time.Millisecond}
	vs := newService(t, l, 16, 2)

	var results []<-chan LoadResult
	for _, p := range []string{"/1", "/2", "/3", "/4", "/5", "/6"} {
		results = append(results, vs.LoadAsync(context.Background(), p))
	}
	for _, ch := range results {
		res := <-ch
		require.NoError(t, res.Err)
		assert.NotNil(t, res.Volume)
	}
	assert.LessOrEqual(t, l.peak.Load(), int32(2))
}

func TestVolumeService_SharesInflightDecode(t *testing.T) {
	l := &fakeLoader{delay: 30 * time.Millisecond}
	vs := newService(t, l, 4, 2)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := vs.Load(context.Background(), "/same")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, l.calls.Load())
}

func TestVolumeService_ErrorsAreNotCached(t *testing.T) {
	boom := errors.New("decode failed")
	l := &fakeLoader{err: boom}
	vs := newService(t, l, 4, 2)

	_, err := vs.Load(context.Background(), "/x")
	assert.ErrorIs(t, err, boom)
	assert.False(t, vs.Cached("/x"))
}

func TestVolumeService_Shutdown(t *testing.T) {
	vs := newService(t, &fakeLoader{}, 0, 0)
	_, err := vs.Load(context.Background(), "/a")
	require.NoError(t, err)

	vs.Shutdown()
	assert.False(t, vs.Cached("/a"))
	_, err = vs.Load(context.Background(), "/b")
	assert.ErrorIs(t, err, ErrServiceClosed)
}

// ctxLoader blocks until released or until its context ends
type ctxLoader struct {
	release chan struct{}
	calls   atomic.Int32
}

func (c *ctxLoader) Load(ctx context.Context, path string) (*models.Volume, error) {
	c.calls.Add(1)
	select {
	case <-c.release:
		return &models.Volume{Path: path, Shape: []int{1, 2}, Data: []float64{0, 1}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestVolumeService_CancelledCallerDoesNotFailOthers(t *testing.T) {
	l := &ctxLoader{release: make(chan struct{})}
	vs := newService(t, l, 4, 2)

	first, cancel := context.WithCancel(context.Background())
	abandoned := vs.LoadAsync(first, "/a")
	require.Eventually(t, func() bool { return l.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	live := vs.LoadAsync(context.Background(), "/a")
	cancel()

	res := <-abandoned
	assert.ErrorIs(t, res.Err, context.Canceled)

	close(l.release)
	res = <-live
	require.NoError(t, res.Err)
	assert.NotNil(t, res.Volume)
	assert.EqualValues(t, 1, l.calls.Load())
	assert.True(t, vs.Cached("/a"))
}

func TestVolumeService_ShutdownCancelsRunningDecode(t *testing.T) {
	l := &ctxLoader{release: make(chan struct{})}
	vs := newService(t, l, 4, 2)

	res := vs.LoadAsync(context.Background(), "/a")
	require.Eventually(t, func() bool { return l.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		vs.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown waited on a blocked decode")
	}
	assert.ErrorIs(t, (<-res).Err, context.Canceled)
}
