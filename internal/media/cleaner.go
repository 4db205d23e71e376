package media

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ObjectDeleter removes a stored object by key.
type ObjectDeleter interface {
	Delete(ctx context.Context, key string) error
}

// CleanerConfig controls the concurrency characteristics of the cleaner.
type CleanerConfig struct {
	QueueSize int
	Workers   int
}

// Cleaner asynchronously deletes replaced or orphaned media objects. Deletes
// are best effort: a failed delete is logged and dropped, never retried, so
// the object store may accumulate strays that a periodic sweep would have to
// reclaim.
type Cleaner struct {
	deleter ObjectDeleter
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan string
	wg     sync.WaitGroup
}

// NewCleaner constructs a background worker pool that deletes media objects.
func NewCleaner(deleter ObjectDeleter, cfg CleanerConfig, logger *slog.Logger) *Cleaner {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Cleaner{
		deleter: deleter,
		logger:  logger,
		jobs:    make(chan string, cfg.QueueSize),
	}

	c.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go c.worker()
	}

	return c
}

// Enqueue schedules deletion of the supplied object keys. Empty keys are
// skipped. When the queue is full the keys are dropped with a log line rather
// than blocking the caller, and keys enqueued after Shutdown are discarded.
func (c *Cleaner) Enqueue(keys ...string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return
	}

	for _, key := range keys {
		if key == "" {
			continue
		}
		select {
		case c.jobs <- key:
		default:
			c.logger.Warn("media cleaner queue full, dropping key", "key", key)
		}
	}
}

// Shutdown waits for the worker pool to drain outstanding jobs.
func (c *Cleaner) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.jobs)
	}
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (c *Cleaner) worker() {
	defer c.wg.Done()

	for key := range c.jobs {
		c.handleKey(key)
	}
}

func (c *Cleaner) handleKey(key string) {
	if c.deleter == nil {
		c.logger.Error("media cleaner missing deleter", "key", key)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.deleter.Delete(ctx, key); err != nil {
		c.logger.Error("delete media object", "key", key, "error", err)
	}
}
