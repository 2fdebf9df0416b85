// Package store abstracts the backing key-value store used for artifact
// caching and per-subject history. Two implementations exist: a Redis-backed
// one for real deployments and an in-memory one for demo and test use,
// selected by configuration.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("store: key not found")

// Store is the minimal surface the service needs from its backing store:
// string keys with per-key expiry plus bounded-list primitives.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error

	LPush(ctx context.Context, key, value string) error
	LTrim(ctx context.Context, key string, start, stop int64) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error

	Ping(ctx context.Context) error
	Close() error
}
