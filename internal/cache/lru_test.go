package cache

import (
	"testing"
	"time"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRU[int](2, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss")
	}

	c.Set("a", 1)
	c.Set("b", 2)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a = %d, %v", v, ok)
	}

	// "a" was just touched, so "b" is the eviction candidate.
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a must survive")
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUOverwriteKeepsSize(t *testing.T) {
	c := NewLRU[string](2, time.Minute)
	c.Set("k", "v1")
	c.Set("k", "v2")
	if c.Size() != 1 {
		t.Fatalf("size = %d", c.Size())
	}
	if v, _ := c.Get("k"); v != "v2" {
		t.Fatalf("v = %q", v)
	}
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRU[int](10, 10*time.Millisecond)
	c.Set("k", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry must miss")
	}
	if c.Size() != 0 {
		t.Fatalf("lazy eviction should have removed entry, size = %d", c.Size())
	}
}

func TestCleanExpired(t *testing.T) {
	c := NewLRU[int](10, 10*time.Millisecond)
	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(20 * time.Millisecond)
	c.Set("fresh", 3)

	if n := c.CleanExpired(); n != 2 {
		t.Fatalf("cleaned %d, want 2", n)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Fatal("fresh entry must survive cleanup")
	}
}

func TestDelete(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	c.Set("k", 1)
	c.Delete("k")
	c.Delete("k") // no-op
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after delete")
	}
}
