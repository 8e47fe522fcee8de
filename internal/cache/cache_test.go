package cache

import (
	"testing"
	"time"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("get a = %d, %v", v, ok)
	}

	// "b" is now least recently used and should be evicted.
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if c.Size() != 2 {
		t.Errorf("size = %d, want 2", c.Size())
	}
}

func TestLRUTTL(t *testing.T) {
	c := NewLRUCache[string](10, 10*time.Millisecond)
	c.Set("k", "v")
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry should miss")
	}
	if n := c.CleanExpired(); n != 0 {
		// The failed Get already removed it.
		t.Errorf("clean = %d, want 0", n)
	}
}

func TestLRUDeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("u1:report:2025-03", 1)
	c.Set("u1:trends:6", 2)
	c.Set("u2:report:2025-03", 3)

	c.DeletePrefix("u1:")

	if _, ok := c.Get("u1:report:2025-03"); ok {
		t.Error("u1 report should be gone")
	}
	if _, ok := c.Get("u1:trends:6"); ok {
		t.Error("u1 trends should be gone")
	}
	if _, ok := c.Get("u2:report:2025-03"); !ok {
		t.Error("u2 entry should survive")
	}
}
