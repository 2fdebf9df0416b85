package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"animator/internal/domain"
	"animator/internal/store"
)

func testLedger() (*Ledger, *store.MemoryStore) {
	s := store.NewMemoryStore(true)
	return New(s, zerolog.New(io.Discard)), s
}

func TestAppendBoundsToTwenty(t *testing.T) {
	l, _ := testLedger()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 25; i++ {
		entry := domain.HistoryEntry{
			ArtifactURL: fmt.Sprintf("https://cdn.example.com/v%d.mp4", i),
			Actions:     []domain.Action{domain.ActionTurn},
			InputRef:    "https://cdn.example.com/in.jpg",
			ProducedAt:  base.Add(time.Duration(i) * time.Second),
		}
		if err := l.Append(ctx, "u1", entry); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	entries, err := l.List(ctx, "u1", 50)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 20 {
		t.Fatalf("len = %d, want 20", len(entries))
	}
	// Most recent first: entries 24 down to 5.
	for i, e := range entries {
		want := fmt.Sprintf("https://cdn.example.com/v%d.mp4", 24-i)
		if e.ArtifactURL != want {
			t.Fatalf("entries[%d] = %q, want %q", i, e.ArtifactURL, want)
		}
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].ProducedAt.After(entries[i-1].ProducedAt) {
			t.Fatalf("entries not in descending time order at %d", i)
		}
	}
}

func TestListHonorsLimit(t *testing.T) {
	l, _ := testLedger()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		entry := domain.HistoryEntry{ArtifactURL: fmt.Sprintf("v%d", i), ProducedAt: time.Now()}
		if err := l.Append(ctx, "u1", entry); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	entries, err := l.List(ctx, "u1", 3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}
	if entries[0].ArtifactURL != "v4" {
		t.Fatalf("entries[0] = %q, want v4", entries[0].ArtifactURL)
	}
}

// Entries older than the retention window must be unreadable even when the
// backing store has not evicted the sequence.
func TestListFiltersStaleEntries(t *testing.T) {
	s := store.NewMemoryStore(false)
	l := New(s, zerolog.New(io.Discard))
	ctx := context.Background()

	now := time.Now()
	l.SetClock(func() time.Time { return now })

	old := domain.HistoryEntry{ArtifactURL: "old", ProducedAt: now.Add(-8 * 24 * time.Hour)}
	fresh := domain.HistoryEntry{ArtifactURL: "fresh", ProducedAt: now.Add(-time.Hour)}
	if err := l.Append(ctx, "u1", old); err != nil {
		t.Fatalf("Append old: %v", err)
	}
	if err := l.Append(ctx, "u1", fresh); err != nil {
		t.Fatalf("Append fresh: %v", err)
	}

	entries, err := l.List(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].ArtifactURL != "fresh" {
		t.Fatalf("entries = %v, want only the fresh one", entries)
	}
}

func TestLastRoundTrip(t *testing.T) {
	l, _ := testLedger()
	ctx := context.Background()

	if _, err := l.Last(ctx, "u1"); !errors.Is(err, ErrNoLast) {
		t.Fatalf("expected ErrNoLast, got %v", err)
	}
	if err := l.SetLast(ctx, "u1", "https://cdn.example.com/v.mp4"); err != nil {
		t.Fatalf("SetLast: %v", err)
	}
	url, err := l.Last(ctx, "u1")
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if url != "https://cdn.example.com/v.mp4" {
		t.Fatalf("Last = %q", url)
	}
}
