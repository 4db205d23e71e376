package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tweettube/backend/internal/models"
)

type countingProvider struct {
	stats models.ChannelStats
	err   error
	calls int
}

func (p *countingProvider) ChannelStats(context.Context, string) (models.ChannelStats, error) {
	p.calls++
	if p.err != nil {
		return models.ChannelStats{}, p.err
	}
	return p.stats, nil
}

func TestCachingProviderServesFromCache(t *testing.T) {
	base := &countingProvider{stats: models.ChannelStats{TotalVideos: 2, TotalViews: 50}}
	provider := NewCachingProvider(base, time.Minute)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		got, err := provider.ChannelStats(ctx, "channel-1")
		if err != nil {
			t.Fatalf("ChannelStats: %v", err)
		}
		if got != base.stats {
			t.Fatalf("stats = %+v, want %+v", got, base.stats)
		}
	}

	if base.calls != 1 {
		t.Errorf("base provider called %d times, want 1", base.calls)
	}
}

func TestCachingProviderIsPerChannel(t *testing.T) {
	base := &countingProvider{}
	provider := NewCachingProvider(base, time.Minute)

	ctx := context.Background()
	if _, err := provider.ChannelStats(ctx, "channel-1"); err != nil {
		t.Fatalf("ChannelStats: %v", err)
	}
	if _, err := provider.ChannelStats(ctx, "channel-2"); err != nil {
		t.Fatalf("ChannelStats: %v", err)
	}

	if base.calls != 2 {
		t.Errorf("base provider called %d times, want 2", base.calls)
	}
}

func TestCachingProviderInvalidate(t *testing.T) {
	base := &countingProvider{}
	provider := NewCachingProvider(base, time.Minute)

	ctx := context.Background()
	if _, err := provider.ChannelStats(ctx, "channel-1"); err != nil {
		t.Fatalf("ChannelStats: %v", err)
	}

	provider.Invalidate("channel-1")

	if _, err := provider.ChannelStats(ctx, "channel-1"); err != nil {
		t.Fatalf("ChannelStats after invalidate: %v", err)
	}
	if base.calls != 2 {
		t.Errorf("base provider called %d times, want 2", base.calls)
	}
}

func TestCachingProviderExpiry(t *testing.T) {
	base := &countingProvider{}
	provider := NewCachingProvider(base, time.Nanosecond)

	ctx := context.Background()
	if _, err := provider.ChannelStats(ctx, "channel-1"); err != nil {
		t.Fatalf("ChannelStats: %v", err)
	}

	time.Sleep(time.Millisecond)

	if _, err := provider.ChannelStats(ctx, "channel-1"); err != nil {
		t.Fatalf("ChannelStats after expiry: %v", err)
	}
	if base.calls != 2 {
		t.Errorf("base provider called %d times, want 2", base.calls)
	}
}

func TestCachingProviderDoesNotCacheErrors(t *testing.T) {
	base := &countingProvider{err: errors.New("query failed")}
	provider := NewCachingProvider(base, time.Minute)

	ctx := context.Background()
	if _, err := provider.ChannelStats(ctx, "channel-1"); err == nil {
		t.Fatal("expected error from base provider")
	}

	base.err = nil
	if _, err := provider.ChannelStats(ctx, "channel-1"); err != nil {
		t.Fatalf("ChannelStats after recovery: %v", err)
	}
	if base.calls != 2 {
		t.Errorf("base provider called %d times, want 2", base.calls)
	}
}

func TestCachingProviderWithoutBase(t *testing.T) {
	provider := NewCachingProvider(nil, time.Minute)

	if _, err := provider.ChannelStats(context.Background(), "channel-1"); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("err = %v, want ErrProviderUnavailable", err)
	}
}
