// Package history keeps the bounded, expiring per-subject ledger of produced
// artifacts, plus the last-artifact pointer used by the quick-access endpoint.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"animator/internal/domain"
	"animator/internal/infra"
	"animator/internal/store"
)

const (
	maxEntries = 20
	retention  = 7 * 24 * time.Hour
	lastTTL    = time.Hour

	histPrefix = "hist:"
	lastPrefix = "last_video:"
)

// ErrNoLast is returned by Last when the subject has no recorded artifact.
var ErrNoLast = errors.New("history: no last artifact")

// Ledger is the per-subject history ledger.
type Ledger struct {
	store  store.Store
	logger infra.Logger
	now    func() time.Time
}

// New constructs a Ledger over the given store.
func New(s store.Store, logger infra.Logger) *Ledger {
	return &Ledger{store: s, logger: logger, now: time.Now}
}

// SetClock overrides the ledger's time source for tests.
func (l *Ledger) SetClock(now func() time.Time) { l.now = now }

// Append inserts entry at the head of the subject's sequence, truncates to
// the most recent entries, and refreshes the retention window on the whole
// sequence. Appending resets the expiry clock for the entire history.
func (l *Ledger) Append(ctx context.Context, subjectID string, entry domain.HistoryEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("history: encode entry: %w", err)
	}
	key := histPrefix + subjectID
	if err := l.store.LPush(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("history: push: %w", err)
	}
	if err := l.store.LTrim(ctx, key, 0, maxEntries-1); err != nil {
		return fmt.Errorf("history: trim: %w", err)
	}
	if err := l.store.Expire(ctx, key, retention); err != nil {
		return fmt.Errorf("history: expire: %w", err)
	}
	l.logger.Debug().Str("subject_id", subjectID).Msg("history: appended entry")
	return nil
}

// List returns the subject's entries most recent first, at most limit. Stale
// entries past the retention window are filtered out on read so they are
// unreadable even if the store has not yet evicted the sequence.
func (l *Ledger) List(ctx context.Context, subjectID string, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 || limit > maxEntries {
		limit = maxEntries
	}
	rows, err := l.store.LRange(ctx, histPrefix+subjectID, 0, int64(limit-1))
	if err != nil {
		return nil, fmt.Errorf("history: range: %w", err)
	}

	cutoff := l.now().Add(-retention)
	entries := make([]domain.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		var entry domain.HistoryEntry
		if err := json.Unmarshal([]byte(row), &entry); err != nil {
			l.logger.Warn().Err(err).Str("subject_id", subjectID).Msg("history: skipping undecodable entry")
			continue
		}
		if entry.ProducedAt.Before(cutoff) {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// SetLast records the subject's most recent artifact URL.
func (l *Ledger) SetLast(ctx context.Context, subjectID, artifactURL string) error {
	if err := l.store.Set(ctx, lastPrefix+subjectID, artifactURL, lastTTL); err != nil {
		return fmt.Errorf("history: set last: %w", err)
	}
	return nil
}

// Last returns the subject's most recent artifact URL.
func (l *Ledger) Last(ctx context.Context, subjectID string) (string, error) {
	url, err := l.store.Get(ctx, lastPrefix+subjectID)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNoLast
	}
	if err != nil {
		return "", fmt.Errorf("history: get last: %w", err)
	}
	return url, nil
}
