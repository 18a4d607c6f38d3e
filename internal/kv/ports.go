package kv

import (
	"context"
	"errors"
)

// Keys under which the journal state is persisted. Each holds one JSON value.
const (
	RecordsKey    = "spending-records"
	CategoriesKey = "spending-categories"
)

// TrackedKeys lists every key the application reads or writes.
var TrackedKeys = []string{RecordsKey, CategoriesKey}

var ErrEmptyKey = errors.New("empty key")

// Ports for outbound adapters.
type (
	// Store reads and writes whole values by key. Get reports found=false for
	// a key that was never set.
	Store interface {
		Get(ctx context.Context, key string) (value []byte, found bool, err error)
		Set(ctx context.Context, key string, value []byte) error
	}

	// Notifier delivers change notifications naming the key that changed.
	// The returned cancel func removes the subscription.
	Notifier interface {
		OnChange(key string, fn func(key string)) (cancel func())
	}

	// Lister is implemented by stores able to enumerate their keys.
	Lister interface {
		Keys(ctx context.Context) ([]string, error)
	}
)
