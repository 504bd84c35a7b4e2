package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestKeys(t *testing.T) {
	if got := GlobalTopKey(2, 10); got != "bluewhale:feed:global-top:2:10" {
		t.Errorf("unexpected key %s", got)
	}
	if !strings.HasPrefix(GlobalTopKey(1, 10), GlobalTopPrefix()) {
		t.Error("global top keys must share the prefix")
	}
	if got := UnreadCountKey(7); got != "bluewhale:notifications:unread:7" {
		t.Errorf("unexpected key %s", got)
	}
}

func TestNopAlwaysMisses(t *testing.T) {
	var c Cache = Nop{}
	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected miss, got %v", err)
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	m.Set(ctx, "a:1", []byte("one"), time.Minute)
	m.Set(ctx, "a:2", []byte("two"), 0)
	m.Set(ctx, "b:1", []byte("three"), time.Minute)

	if v, err := m.Get(ctx, "a:1"); err != nil || string(v) != "one" {
		t.Fatalf("Get() = %q, %v", v, err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := m.Get(ctx, "a:1"); !errors.Is(err, ErrMiss) {
		t.Error("expected expired entry to miss")
	}
	if _, err := m.Get(ctx, "a:2"); err != nil {
		t.Error("entry without ttl should not expire")
	}

	m.DeletePrefix(ctx, "a:")
	if _, err := m.Get(ctx, "a:2"); !errors.Is(err, ErrMiss) {
		t.Error("expected prefix delete to remove a:2")
	}

	m.Delete(ctx, "b:1")
	if _, err := m.Get(ctx, "b:1"); !errors.Is(err, ErrMiss) {
		t.Error("expected b:1 deleted")
	}
}
