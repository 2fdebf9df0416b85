package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreSetGetDel(t *testing.T) {
	s := NewMemoryStore(true)
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if err := s.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after Del, got %v", err)
	}
}

func TestMemoryStoreHonorsTTL(t *testing.T) {
	s := NewMemoryStore(true)
	ctx := context.Background()

	now := time.Now()
	s.SetClock(func() time.Time { return now })

	if err := s.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := s.Get(ctx, "k"); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after TTL, got %v", err)
	}
}

func TestMemoryStoreIgnoresTTLWhenDisabled(t *testing.T) {
	s := NewMemoryStore(false)
	ctx := context.Background()

	now := time.Now()
	s.SetClock(func() time.Time { return now })

	if err := s.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	now = now.Add(time.Hour)
	got, err := s.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Fatalf("Get = %q, %v; demo mode must retain expired keys", got, err)
	}
}

func TestMemoryStoreListOps(t *testing.T) {
	s := NewMemoryStore(true)
	ctx := context.Background()

	for _, v := range []string{"a", "b", "c"} {
		if err := s.LPush(ctx, "l", v); err != nil {
			t.Fatalf("LPush: %v", err)
		}
	}
	got, err := s.LRange(ctx, "l", 0, -1)
	if err != nil {
		t.Fatalf("LRange: %v", err)
	}
	want := []string{"c", "b", "a"}
	if len(got) != len(want) {
		t.Fatalf("LRange = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("LRange[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if err := s.LTrim(ctx, "l", 0, 1); err != nil {
		t.Fatalf("LTrim: %v", err)
	}
	got, err = s.LRange(ctx, "l", 0, -1)
	if err != nil {
		t.Fatalf("LRange after trim: %v", err)
	}
	if len(got) != 2 || got[0] != "c" || got[1] != "b" {
		t.Fatalf("LRange after trim = %v", got)
	}
}

func TestMemoryStoreListExpiry(t *testing.T) {
	s := NewMemoryStore(true)
	ctx := context.Background()

	now := time.Now()
	s.SetClock(func() time.Time { return now })

	if err := s.LPush(ctx, "l", "x"); err != nil {
		t.Fatalf("LPush: %v", err)
	}
	if err := s.Expire(ctx, "l", time.Hour); err != nil {
		t.Fatalf("Expire: %v", err)
	}

	now = now.Add(2 * time.Hour)
	got, err := s.LRange(ctx, "l", 0, -1)
	if err != nil {
		t.Fatalf("LRange: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected expired list to read empty, got %v", got)
	}
}

func TestSliceRangeNegativeIndexes(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	got := sliceRange(items, 0, -1)
	if len(got) != 4 {
		t.Fatalf("sliceRange(0,-1) = %v", got)
	}
	got = sliceRange(items, 1, 2)
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Fatalf("sliceRange(1,2) = %v", got)
	}
	if got := sliceRange(items, 5, 9); got != nil {
		t.Fatalf("sliceRange(5,9) = %v, want nil", got)
	}
}
