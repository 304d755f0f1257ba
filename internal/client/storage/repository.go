// Package storage is the client-side key/value store that plays the role of
// browser localStorage. Entries are grouped into namespaces: the terminal
// client uses a fixed namespace, the web front one namespace per browser
// session.
package storage

import (
	"context"
	"time"
)

// Repository is the namespaced key/value store. Get returns (nil, nil) for
// a missing key.
type Repository interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Set(ctx context.Context, namespace, key string, value []byte) error
	// SetMany writes every entry or none of them.
	SetMany(ctx context.Context, namespace string, entries map[string][]byte) error
	Delete(ctx context.Context, namespace string, keys ...string) error
	// Purge drops every namespace whose newest entry is older than cutoff
	// and reports how many rows went away.
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// KV is a Repository bound to one namespace.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetMany(ctx context.Context, entries map[string][]byte) error
	Delete(ctx context.Context, keys ...string) error
}

type Scoped struct {
	repo      Repository
	namespace string
}

func Scope(repo Repository, namespace string) *Scoped {
	return &Scoped{repo: repo, namespace: namespace}
}

func (s *Scoped) Get(ctx context.Context, key string) ([]byte, error) {
	return s.repo.Get(ctx, s.namespace, key)
}

func (s *Scoped) Set(ctx context.Context, key string, value []byte) error {
	return s.repo.Set(ctx, s.namespace, key, value)
}

func (s *Scoped) SetMany(ctx context.Context, entries map[string][]byte) error {
	return s.repo.SetMany(ctx, s.namespace, entries)
}

func (s *Scoped) Delete(ctx context.Context, keys ...string) error {
	return s.repo.Delete(ctx, s.namespace, keys...)
}
