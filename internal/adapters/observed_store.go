package adapters

import (
	"context"
	"log/slog"

	"spendlog/internal/kv"
)

// ChangePublisher announces a changed key to other processes.
type ChangePublisher interface {
	PublishChange(ctx context.Context, key string) error
}

// ObservedStore decorates a kv.Store so every successful Set notifies
// in-process subscribers and, when a publisher is configured, other processes.
// It implements both kv.Store and kv.Notifier.
type ObservedStore struct {
	store     kv.Store
	hub       *kv.Hub
	publisher ChangePublisher
}

// Ensure interface conformance
var (
	_ kv.Store    = (*ObservedStore)(nil)
	_ kv.Notifier = (*ObservedStore)(nil)
)

// NewObservedStore wraps store. A nil publisher disables cross-process fan-out.
func NewObservedStore(store kv.Store, publisher ChangePublisher) *ObservedStore {
	return &ObservedStore{
		store:     store,
		hub:       kv.NewHub(),
		publisher: publisher,
	}
}

// Get implements kv.Store
func (s *ObservedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.store.Get(ctx, key)
}

// Set implements kv.Store. Publish failures are logged and never fail the write.
func (s *ObservedStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.store.Set(ctx, key, value); err != nil {
		return err
	}

	s.hub.Notify(key)

	if s.publisher != nil {
		if err := s.publisher.PublishChange(ctx, key); err != nil {
			slog.WarnContext(ctx, "Failed to publish storage change", "key", key, "error", err)
		}
	}
	return nil
}

// OnChange implements kv.Notifier
func (s *ObservedStore) OnChange(key string, fn func(key string)) func() {
	return s.hub.OnChange(key, fn)
}

// Keys implements kv.Lister when the wrapped store does.
func (s *ObservedStore) Keys(ctx context.Context) ([]string, error) {
	if l, ok := s.store.(kv.Lister); ok {
		return l.Keys(ctx)
	}
	return append([]string(nil), kv.TrackedKeys...), nil
}
