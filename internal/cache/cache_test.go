package cache

import (
	"testing"
	"time"
)

func TestCacheGetSet(t *testing.T) {
	c := New[string](time.Minute, 0)
	defer c.Stop()

	if _, ok := c.Get("missing"); ok {
		t.Error("Expected miss for unknown key")
	}

	c.Set("live_highchart:800x400", "<svg/>")
	v, ok := c.Get("live_highchart:800x400")
	if !ok || v != "<svg/>" {
		t.Errorf("Get() = %q, %v; want <svg/>, true", v, ok)
	}

	c.Delete("live_highchart:800x400")
	if _, ok := c.Get("live_highchart:800x400"); ok {
		t.Error("Expected miss after Delete")
	}
}

func TestCacheExpiration(t *testing.T) {
	c := New[int](time.Second, 0)
	defer c.Stop()

	now := time.Unix(1700000000, 0)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	now = now.Add(500 * time.Millisecond)
	if _, ok := c.Get("a"); !ok {
		t.Error("Entry expired too early")
	}

	now = now.Add(time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("Expected entry to be expired")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d before sweep, want 1", c.Len())
	}

	c.Sweep()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after sweep, want 0", c.Len())
	}
}

func TestCacheStopIsIdempotent(t *testing.T) {
	c := New[int](time.Second, 10*time.Millisecond)
	c.Stop()
	c.Stop()
}
