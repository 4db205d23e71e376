package media

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

type recordingDeleter struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (d *recordingDeleter) Delete(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.deleted = append(d.deleted, key)
	return nil
}

func (d *recordingDeleter) keys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	keys := append([]string(nil), d.deleted...)
	sort.Strings(keys)
	return keys
}

func TestCleanerDeletesEnqueuedKeys(t *testing.T) {
	deleter := &recordingDeleter{}
	cleaner := NewCleaner(deleter, CleanerConfig{QueueSize: 8, Workers: 2}, nil)

	cleaner.Enqueue("avatars/a", "thumbnails/b", "", "videos/c")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cleaner.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	want := []string{"avatars/a", "thumbnails/b", "videos/c"}
	got := deleter.keys()
	if len(got) != len(want) {
		t.Fatalf("deleted %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("deleted %v, want %v", got, want)
		}
	}
}

func TestCleanerSurvivesDeleteFailures(t *testing.T) {
	deleter := &recordingDeleter{err: errors.New("bucket gone")}
	cleaner := NewCleaner(deleter, CleanerConfig{}, nil)

	cleaner.Enqueue("avatars/a")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cleaner.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestCleanerEnqueueAfterShutdownIsNoop(t *testing.T) {
	deleter := &recordingDeleter{}
	cleaner := NewCleaner(deleter, CleanerConfig{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cleaner.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	cleaner.Enqueue("avatars/late")

	if keys := deleter.keys(); len(keys) != 0 {
		t.Fatalf("deleted %v after shutdown, want none", keys)
	}
}

func TestCleanerDropsKeysWhenQueueFull(t *testing.T) {
	deleter := &recordingDeleter{}
	cleaner := NewCleaner(deleter, CleanerConfig{QueueSize: 1, Workers: 1}, nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			cleaner.Enqueue("avatars/spam")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cleaner.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
