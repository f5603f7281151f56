package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fekuna/omnipos-inventory-service/internal/ledgererr"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/cache"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/logger"
	"github.com/redis/go-redis/v9"
)

func TestLocal_SerialisesSameKey(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "prod-1|warehouse-main")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
			unlock()
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("expected counter 50, got %d", counter)
	}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *cache.RedisClient) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, cache.NewFromClient(client)
}

func TestRedis_AcquireAndRelease(t *testing.T) {
	mr, rc := newTestRedis(t)
	l := NewRedis(rc, RedisConfig{TTL: time.Second}, logger.NewNop())
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "prod-1")
	if err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	if !mr.Exists("lock:inventory:prod-1") {
		t.Fatal("expected lock key to exist")
	}

	unlock()
	if mr.Exists("lock:inventory:prod-1") {
		t.Error("expected lock key to be deleted after unlock")
	}
}

func TestRedis_BusyKeyReturnsErrLock(t *testing.T) {
	mr, rc := newTestRedis(t)
	l := NewRedis(rc, RedisConfig{TTL: time.Second, Attempts: 2, RetryDelay: time.Millisecond}, logger.NewNop())

	if err := mr.Set("lock:inventory:prod-1", "someone-else"); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	_, err := l.Lock(context.Background(), "prod-1")
	if !errors.Is(err, ledgererr.ErrLock) {
		t.Fatalf("expected ErrLock, got %v", err)
	}
}

func TestRedis_ReleaseKeepsForeignLock(t *testing.T) {
	mr, rc := newTestRedis(t)
	l := NewRedis(rc, RedisConfig{TTL: time.Second}, logger.NewNop())

	unlock, err := l.Lock(context.Background(), "prod-1")
	if err != nil {
		t.Fatalf("lock failed: %v", err)
	}

	// Simulate expiry and takeover by another replica.
	mr.Set("lock:inventory:prod-1", "other-token")
	unlock()

	got, _ := mr.Get("lock:inventory:prod-1")
	if got != "other-token" {
		t.Errorf("expected foreign lock to survive, got %q", got)
	}
}

func TestRedis_RenewsWhileHeld(t *testing.T) {
	mr, rc := newTestRedis(t)
	l := NewRedis(rc, RedisConfig{TTL: 300 * time.Millisecond}, logger.NewNop())

	unlock, err := l.Lock(context.Background(), "transfer:t-1")
	if err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	key := "lock:inventory:transfer:t-1"

	// Let most of the ttl pass; the holder must push it back out.
	mr.FastForward(250 * time.Millisecond)
	deadline := time.After(2 * time.Second)
	for mr.TTL(key) <= 100*time.Millisecond {
		select {
		case <-deadline:
			t.Fatalf("lock was not renewed, ttl %s", mr.TTL(key))
		case <-time.After(10 * time.Millisecond):
		}
	}
	if !mr.Exists(key) {
		t.Fatal("expected lock to survive past its original ttl")
	}

	unlock()
	if mr.Exists(key) {
		t.Error("expected lock key to be deleted after unlock")
	}
}

func TestLocal_HoldsDistinctKeysTogether(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// A transfer holds its own key while stock operations lock item keys.
		outer, _ := l.Lock(ctx, "transfer:t-1")
		for i := 0; i < 1000; i++ {
			inner, _ := l.Lock(ctx, fmt.Sprintf("prod-%d|warehouse-main", i))
			inner()
		}
		outer()
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("locking distinct keys from one goroutine blocked")
	}
	if len(l.keys) != 0 {
		t.Errorf("expected released keys to be dropped, %d left", len(l.keys))
	}
}
