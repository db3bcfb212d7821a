package cache

import (
	"strings"
	"testing"
	"time"
)

func TestGetSetWithinTTL(t *testing.T) {
	c := New(30 * time.Second)

	if _, ok := c.Get("missing"); ok {
		t.Error("Expected miss for absent key")
	}

	c.Set("k", 42)
	v, ok := c.Get("k")
	if !ok {
		t.Fatal("Expected hit within TTL")
	}
	if v.(int) != 42 {
		t.Errorf("Expected 42, got %v", v)
	}
}

func TestExpiryIsLazy(t *testing.T) {
	c := New(30 * time.Second)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("k", "v")

	now = now.Add(29 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Error("Expected hit at 29s")
	}

	now = now.Add(time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("Expected miss at exactly TTL")
	}

	// Expired entries stay until overwritten or invalidated.
	if c.Len() != 1 {
		t.Errorf("Expected 1 stored entry, got %d", c.Len())
	}
}

func TestSetOverwrites(t *testing.T) {
	c := New(30 * time.Second)
	c.Set("k", 1)
	c.Set("k", 2)
	v, _ := c.Get("k")
	if v.(int) != 2 {
		t.Errorf("Expected overwrite to 2, got %v", v)
	}
}

func TestInvalidatePredicate(t *testing.T) {
	c := New(30 * time.Second)
	c.Set("total|photon", 1)
	c.Set("total|bullx", 2)
	c.Set("series|photon", 3)

	c.Invalidate(func(key string) bool { return strings.Contains(key, "photon") })

	if _, ok := c.Get("total|photon"); ok {
		t.Error("Expected photon total invalidated")
	}
	if _, ok := c.Get("series|photon"); ok {
		t.Error("Expected photon series invalidated")
	}
	if _, ok := c.Get("total|bullx"); !ok {
		t.Error("Expected bullx entry kept")
	}
}

func TestInvalidateAll(t *testing.T) {
	c := New(30 * time.Second)
	c.Set("a", 1)
	c.Set("b", 2)
	c.InvalidateAll()
	if c.Len() != 0 {
		t.Errorf("Expected empty cache, got %d entries", c.Len())
	}
}

func TestDefaultTTLFallback(t *testing.T) {
	c := New(0)
	if c.ttl != DefaultTTL {
		t.Errorf("Expected default TTL %v, got %v", DefaultTTL, c.ttl)
	}
}

func TestProtocolsPartCanonical(t *testing.T) {
	a := ProtocolsPart([]string{"Photon", "bullx"})
	b := ProtocolsPart([]string{"bullx", "photon"})
	if a != b {
		t.Errorf("Expected identical keys regardless of order, got %q vs %q", a, b)
	}
	if ProtocolsPart(nil) != "*" {
		t.Errorf("Expected wildcard for empty list, got %q", ProtocolsPart(nil))
	}
}

func TestKeyEncodesAllDimensions(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	key := Key("total", ProtocolsPart([]string{"photon"}), "solana", "private", DatePart(&from), DatePart(nil))
	want := "total|photon|solana|private|2024-03-01|-"
	if key != want {
		t.Errorf("Expected %q, got %q", want, key)
	}
}
