package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for demo deployments and tests. When
// honorTTL is false it retains everything forever, matching the throwaway
// demo behavior some environments rely on; the divergence is an explicit
// configuration choice, not a silent one.
type MemoryStore struct {
	mu       sync.Mutex
	strings  map[string]memoryEntry
	lists    map[string]memoryList
	honorTTL bool
	now      func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

type memoryList struct {
	items     []string
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(honorTTL bool) *MemoryStore {
	return &MemoryStore{
		strings:  make(map[string]memoryEntry),
		lists:    make(map[string]memoryList),
		honorTTL: honorTTL,
		now:      time.Now,
	}
}

// SetClock overrides the store's time source. Tests use it to simulate expiry
// without sleeping.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) expired(at time.Time) bool {
	return s.honorTTL && !at.IsZero() && s.now().After(at)
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.strings[key]
	if !ok {
		return "", ErrNotFound
	}
	if s.expired(e.expiresAt) {
		delete(s.strings, key)
		return "", ErrNotFound
	}
	return e.value, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.now().Add(ttl)
	}
	s.strings[key] = memoryEntry{value: value, expiresAt: expiresAt}
	return nil
}

func (s *MemoryStore) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.strings, key)
	delete(s.lists, key)
	return nil
}

func (s *MemoryStore) LPush(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.lists[key]
	if s.expired(l.expiresAt) {
		l = memoryList{}
	}
	l.items = append([]string{value}, l.items...)
	s.lists[key] = l
	return nil
}

func (s *MemoryStore) LTrim(_ context.Context, key string, start, stop int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lists[key]
	if !ok || s.expired(l.expiresAt) {
		return nil
	}
	l.items = sliceRange(l.items, start, stop)
	s.lists[key] = l
	return nil
}

func (s *MemoryStore) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lists[key]
	if !ok {
		return nil, nil
	}
	if s.expired(l.expiresAt) {
		delete(s.lists, key)
		return nil, nil
	}
	out := sliceRange(l.items, start, stop)
	return append([]string(nil), out...), nil
}

func (s *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt := s.now().Add(ttl)
	if e, ok := s.strings[key]; ok {
		e.expiresAt = expiresAt
		s.strings[key] = e
	}
	if l, ok := s.lists[key]; ok {
		l.expiresAt = expiresAt
		s.lists[key] = l
	}
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// sliceRange applies Redis LRANGE/LTRIM index semantics: stop is inclusive
// and negative indexes count from the tail.
func sliceRange(items []string, start, stop int64) []string {
	n := int64(len(items))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop || start >= n {
		return nil
	}
	return items[start : stop+1]
}

var _ Store = (*MemoryStore)(nil)
