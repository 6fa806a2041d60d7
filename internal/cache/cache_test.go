package cache

import (
	"context"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := New[string, int](time.Minute)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "a", 1, time.Minute)

	got, ok := c.Get(ctx, "a")
	if !ok || got != 1 {
		t.Fatalf("Get = %d, %v; want 1, true", got, ok)
	}

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Error("missing key should not be found")
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New[string, int](time.Minute)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "a", 1, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("expired entry should not be returned")
	}
}

func TestCache_Delete(t *testing.T) {
	c := New[string, int](time.Minute)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "a", 1, time.Minute)
	c.Delete(ctx, "a")

	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("deleted entry still present")
	}
}

func TestCache_Sweep(t *testing.T) {
	c := New[string, int](20 * time.Millisecond)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "a", 1, time.Millisecond)
	time.Sleep(80 * time.Millisecond)

	if c.Len() != 0 {
		t.Errorf("len = %d, want 0 after sweep", c.Len())
	}
}
