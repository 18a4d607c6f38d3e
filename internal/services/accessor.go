package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"spendlog/internal/core"
	"spendlog/internal/kv"
	applog "spendlog/internal/log"
)

var errNotArray = errors.New("stored value is not a JSON array")

// ErrMalformedValue is returned by the strict loads when the stored value
// cannot be decoded. The value is left as it is.
var ErrMalformedValue = errors.New("stored value is malformed")

// Accessor loads and saves the two persisted collections. The display loads
// never fail: a missing key is initialized with its default, and unreadable or
// malformed content yields the default while the stored value is left
// untouched. Read-modify-write callers use the strict loads instead, which
// report those cases so nothing is saved over data that could not be read.
type Accessor struct {
	store kv.Store
}

func NewAccessor(store kv.Store) *Accessor {
	return &Accessor{store: store}
}

// LoadRecords returns the persisted records, or an empty list.
func (a *Accessor) LoadRecords(ctx context.Context) []core.Record {
	return load(ctx, a.store, kv.RecordsKey, func() []core.Record { return []core.Record{} })
}

// LoadCategories returns the persisted categories, or the default list.
func (a *Accessor) LoadCategories(ctx context.Context) []string {
	return load(ctx, a.store, kv.CategoriesKey, core.DefaultCategories)
}

// RecordsForUpdate is LoadRecords for callers that will save the result back.
// A read failure or a malformed value is returned as an error.
func (a *Accessor) RecordsForUpdate(ctx context.Context) ([]core.Record, error) {
	return read(ctx, a.store, kv.RecordsKey, func() []core.Record { return []core.Record{} })
}

// CategoriesForUpdate is LoadCategories for callers that will save the result
// back.
func (a *Accessor) CategoriesForUpdate(ctx context.Context) ([]string, error) {
	return read(ctx, a.store, kv.CategoriesKey, core.DefaultCategories)
}

// SaveRecords replaces the persisted records.
func (a *Accessor) SaveRecords(ctx context.Context, records []core.Record) error {
	if records == nil {
		records = []core.Record{}
	}
	return save(ctx, a.store, kv.RecordsKey, records)
}

// SaveCategories replaces the persisted categories.
func (a *Accessor) SaveCategories(ctx context.Context, categories []string) error {
	if categories == nil {
		categories = []string{}
	}
	return save(ctx, a.store, kv.CategoriesKey, categories)
}

func load[T any](ctx context.Context, store kv.Store, key string, def func() []T) []T {
	value, err := read(ctx, store, key, def)
	if err != nil {
		slog.WarnContext(ctx, "Failed to load stored value, using default",
			applog.FieldComponent, applog.ComponentStorage,
			applog.FieldKey, key,
			applog.FieldError, err)
		return def()
	}
	return value
}

// read initializes a missing or blank key with its default. Any other failure
// is returned without touching storage.
func read[T any](ctx context.Context, store kv.Store, key string, def func() []T) ([]T, error) {
	raw, found, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	if !found || len(bytes.TrimSpace(raw)) == 0 {
		value := def()
		if err := save(ctx, store, key, value); err != nil {
			slog.WarnContext(ctx, "Failed to initialize missing key",
				applog.FieldComponent, applog.ComponentStorage,
				applog.FieldKey, key,
				applog.FieldError, err)
		}
		return value, nil
	}

	value, err := decodeArray[T](raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedValue, key, err)
	}
	return value, nil
}

func decodeArray[T any](raw []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errNotArray
	}
	var out []T
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func save[T any](ctx context.Context, store kv.Store, key string, value []T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
