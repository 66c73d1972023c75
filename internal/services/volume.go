package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/loader"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/logger"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/models"
)

const (
	DefaultCacheSize = 8
	DefaultWorkers   = 2
)

// ErrServiceClosed is returned by loads issued after Shutdown
var ErrServiceClosed = errors.New("volume service shut down")

// LoadResult is delivered by LoadAsync once decoding finishes
type LoadResult struct {
	Path   string
	Volume *models.Volume
	Err    error
}

// inflight decode shared by every caller asking for the same path
type call struct {
	done chan struct{}
	vol  *models.Volume
	err  error
}

// VolumeService decodes volumes on a bounded worker pool and keeps the most
// recently used normalized volumes in memory.
type VolumeService struct {
	loader     loader.Loader
	cache      *lru.Cache[string, *models.Volume]
	workerPool chan struct{}
	logger     logger.Logger

	// decodes run under ctx so a caller giving up never fails the others
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	inflight map[string]*call
	closed   bool
	wg       sync.WaitGroup
}

// NewVolumeService creates a service. Non-positive sizes select the defaults.
func NewVolumeService(l loader.Loader, cacheSize, workers int, log logger.Logger) (*VolumeService, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}

	cache, err := lru.New[string, *models.Volume](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create volume cache: %w", err)
	}

	pool := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		pool <- struct{}{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &VolumeService{
		ctx:        ctx,
		cancel:     cancel,
		loader:     l,
		cache:      cache,
		workerPool: pool,
		logger:     logger.OrNop(log),
		inflight:   make(map[string]*call),
	}, nil
}

// Load returns the normalized volume at path, decoding it if it is not cached.
// Concurrent requests for the same path share one decode. Cancelling ctx only
// abandons this caller's wait; the decode keeps running and fills the cache.
func (vs *VolumeService) Load(ctx context.Context, path string) (*models.Volume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := cacheKey(path)

	if vol, ok := vs.cache.Get(key); ok {
		return vol, nil
	}

	vs.mu.Lock()
	if vs.closed {
		vs.mu.Unlock()
		return nil, ErrServiceClosed
	}
	c, ok := vs.inflight[key]
	if !ok {
		c = &call{done: make(chan struct{})}
		vs.inflight[key] = c
		vs.wg.Add(1)
		go vs.run(key, c)
	}
	vs.mu.Unlock()

	select {
	case <-c.done:
		return c.vol, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (vs *VolumeService) run(key string, c *call) {
	defer vs.wg.Done()

	c.vol, c.err = vs.decode(vs.ctx, key)

	vs.mu.Lock()
	delete(vs.inflight, key)
	vs.mu.Unlock()
	close(c.done)
}

// LoadAsync runs Load on a background goroutine. The returned channel receives
// exactly one result.
func (vs *VolumeService) LoadAsync(ctx context.Context, path string) <-chan LoadResult {
	out := make(chan LoadResult, 1)
	go func() {
		vol, err := vs.Load(ctx, path)
		out <- LoadResult{Path: path, Volume: vol, Err: err}
	}()
	return out
}

func (vs *VolumeService) decode(ctx context.Context, key string) (*models.Volume, error) {
	// Acquire worker from pool
	select {
	case <-vs.workerPool:
		defer func() { vs.workerPool <- struct{}{} }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	start := time.Now()
	raw, err := vs.loader.Load(ctx, key)
	if err != nil {
		vs.logger.Error("VolumeService", err, map[string]interface{}{"path": key})
		return nil, err
	}

	vol, lo, hi := loader.Normalize(raw)
	vs.cache.Add(key, vol)

	vs.logger.Debug("VolumeService", "volume decoded", map[string]interface{}{
		"path":     key,
		"shape":    vol.Shape,
		"min":      lo,
		"max":      hi,
		"duration": time.Since(start).String(),
	})
	return vol, nil
}

// Invalidate drops one path from the cache
func (vs *VolumeService) Invalidate(path string) {
	vs.cache.Remove(cacheKey(path))
}

// Purge empties the cache
func (vs *VolumeService) Purge() {
	vs.cache.Purge()
}

// Cached reports whether path is currently cached
func (vs *VolumeService) Cached(path string) bool {
	return vs.cache.Contains(cacheKey(path))
}

// Shutdown rejects new loads, cancels running decodes, waits for them and
// drops the cache
func (vs *VolumeService) Shutdown() {
	vs.mu.Lock()
	vs.closed = true
	vs.mu.Unlock()

	vs.cancel()
	vs.wg.Wait()
	vs.cache.Purge()
	vs.logger.Info("VolumeService", "shutdown complete", nil)
}

func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
