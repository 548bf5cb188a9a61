package session

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(Config{TTL: time.Hour})
	t.Cleanup(func() { _ = store.Close(ctx) })

	sess := Session{Token: "tok-1", Email: "a@b.com"}
	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, ok, err := store.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !ok || got.Email != "a@b.com" {
		t.Fatalf("unexpected session: %+v ok=%v", got, ok)
	}
	if got.ExpiresAt == nil {
		t.Fatal("expected TTL-derived expiry to be set")
	}

	if _, ok, _ := store.Get(ctx, "unknown"); ok {
		t.Fatal("unknown token reported as found")
	}

	if err := store.Remove(ctx, "tok-1"); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "tok-1"); ok {
		t.Fatal("removed token still found")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(Config{TTL: time.Hour})
	t.Cleanup(func() { _ = store.Close(ctx) })

	past := time.Now().Add(-time.Minute)
	if err := store.Put(ctx, Session{Token: "old", Email: "a@b.com", ExpiresAt: &past}); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	if _, ok, _ := store.Get(ctx, "old"); ok {
		t.Fatal("expired session reported as valid")
	}

	if err := store.CleanupExpired(ctx); err != nil {
		t.Fatalf("CleanupExpired error: %v", err)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats["total"].(int) != 0 {
		t.Fatalf("expected empty store after cleanup, got %v", stats["total"])
	}
}

func TestMemoryStoreRejectsEmptyToken(t *testing.T) {
	store := NewMemory(Config{})
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	if err := store.Put(context.Background(), Session{Email: "a@b.com"}); err == nil {
		t.Fatal("expected error for empty token")
	}
}
