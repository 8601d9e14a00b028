package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[string](4, time.Minute)

	if _, ok, _ := c.Get(ctx, "missing"); ok {
		t.Fatalf("missing key must not hit")
	}

	if err := c.Set(ctx, "a", "uno"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := c.Get(ctx, "a")
	if err != nil || !ok || got != "uno" {
		t.Fatalf("expected hit 'uno', got %q ok=%v err=%v", got, ok, err)
	}
}

func TestMemoryEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[int](2, time.Minute)
	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	c.Get(ctx, "a") // refresh a; b becomes the eviction candidate
	c.Set(ctx, "c", 3)

	if _, ok, _ := c.Get(ctx, "b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if _, ok, _ := c.Get(ctx, "a"); !ok {
		t.Fatalf("a should survive")
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[int](4, 10*time.Millisecond)
	c.Set(ctx, "a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Fatalf("expired entry must miss")
	}
}

func TestMemorySweep(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[int](8, 10*time.Millisecond)
	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	time.Sleep(20 * time.Millisecond)
	c.Set(ctx, "c", 3)

	if removed := c.Sweep(); removed != 2 {
		t.Fatalf("expected 2 swept entries, got %d", removed)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 surviving entry, got %d", c.Len())
	}
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c Noop[int]
	if err := c.Set(ctx, "a", 1); err != nil {
		t.Fatalf("noop set: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Fatalf("noop must never hit")
	}
}

func TestKey(t *testing.T) {
	if got := Key("cashflow", "2024-03-01", "2024-03-31", "daily"); got != "cashflow|2024-03-01|2024-03-31|daily" {
		t.Fatalf("unexpected key %q", got)
	}
}
