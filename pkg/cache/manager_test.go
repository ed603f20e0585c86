package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis connects to a local Redis and skips the test when none is
// running. The integration suite covers the same paths with testcontainers.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestNewManager(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	manager := NewManager(client)
	if manager == nil {
		t.Fatal("NewManager returned nil")
	}
	if manager.redis != client {
		t.Error("Manager redis client not set correctly")
	}
}

func TestNewManager_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewManager should panic with nil redis client")
		}
	}()
	NewManager(nil)
}

func TestManager_SetAndGet(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()

	key := CacheKey{FundID: "00980A", Date: "2025-08-04"}
	entry := NewEntry([]byte(`{"Entries":{}}`), 3, 5*time.Minute)

	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	retrieved, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(retrieved.Body) != string(entry.Body) {
		t.Errorf("Body mismatch: got %s, want %s", retrieved.Body, entry.Body)
	}
	if retrieved.Records != 3 {
		t.Errorf("Records = %d, want 3", retrieved.Records)
	}
}

func TestManager_Get_CacheMiss(t *testing.T) {
	manager := NewManager(setupTestRedis(t))

	_, err := manager.Get(context.Background(), CacheKey{FundID: "00980A", Date: "1999-01-01"})
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestManager_Set_ExpiredEntry(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()
	key := CacheKey{FundID: "00980A", Date: "2025-08-04"}

	if err := manager.Set(ctx, key, NewEntry([]byte(`{}`), 0, -time.Hour)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss for expired entry, got %v", err)
	}
}

func TestManager_Get_InvalidEntry(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)
	ctx := context.Background()
	key := CacheKey{FundID: "00980A", Date: "2025-08-04"}

	if err := client.Set(ctx, key.String(), "not json", time.Minute).Err(); err != nil {
		t.Fatal(err)
	}

	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("Expected ErrInvalidEntry, got %v", err)
	}
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()
	key := CacheKey{FundID: "00980A", Date: "2025-08-04"}

	if err := manager.Set(ctx, key, NewEntry([]byte(`{}`), 0, time.Minute)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := manager.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after Delete, got %v", err)
	}
}

func TestManager_Purge(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()

	for _, d := range []string{"2025-08-04", "2025-08-05", "2025-08-06"} {
		if err := manager.Set(ctx, CacheKey{FundID: "00980A", Date: d}, NewEntry([]byte(`{}`), 0, time.Minute)); err != nil {
			t.Fatal(err)
		}
	}
	other := CacheKey{FundID: "00981A", Date: "2025-08-04"}
	if err := manager.Set(ctx, other, NewEntry([]byte(`{}`), 0, time.Minute)); err != nil {
		t.Fatal(err)
	}

	n, err := manager.Purge(ctx, "00980A")
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Purge deleted %d keys, want 3", n)
	}
	if _, err := manager.Get(ctx, other); err != nil {
		t.Errorf("other fund entry should survive Purge: %v", err)
	}
}

func TestManager_Set_NilEntry(t *testing.T) {
	manager := NewManager(setupTestRedis(t))

	if err := manager.Set(context.Background(), CacheKey{FundID: "00980A"}, nil); err == nil {
		t.Error("Set with nil entry should return error")
	}
}
