package adapters

import (
	"context"
	"errors"
	"testing"

	"spendlog/internal/kv"
	"spendlog/internal/kv/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	keys []string
	err  error
}

func (f *fakePublisher) PublishChange(_ context.Context, key string) error {
	f.keys = append(f.keys, key)
	return f.err
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (failingStore) Set(context.Context, string, []byte) error        { return errors.New("disk full") }

func TestObservedStore_NotifiesAndPublishes(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	s := NewObservedStore(memory.New(), pub)

	var notified []string
	cancel := s.OnChange(kv.RecordsKey, func(k string) { notified = append(notified, k) })
	defer cancel()

	require.NoError(t, s.Set(ctx, kv.RecordsKey, []byte("[]")))
	require.NoError(t, s.Set(ctx, kv.CategoriesKey, []byte("[]")))

	assert.Equal(t, []string{kv.RecordsKey}, notified)
	assert.Equal(t, []string{kv.RecordsKey, kv.CategoriesKey}, pub.keys)

	got, found, err := s.Get(ctx, kv.RecordsKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", string(got))
}

func TestObservedStore_PublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	s := NewObservedStore(memory.New(), pub)
	assert.NoError(t, s.Set(context.Background(), kv.RecordsKey, []byte("[]")))
}

func TestObservedStore_FailedWriteIsSilent(t *testing.T) {
	pub := &fakePublisher{}
	s := NewObservedStore(failingStore{}, pub)

	called := false
	s.OnChange("", func(string) { called = true })

	assert.Error(t, s.Set(context.Background(), kv.RecordsKey, []byte("[]")))
	assert.False(t, called)
	assert.Empty(t, pub.keys)
}

func TestObservedStore_KeysFallsBackToTrackedKeys(t *testing.T) {
	keys, err := NewObservedStore(failingStore{}, nil).Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, kv.TrackedKeys, keys)
}
