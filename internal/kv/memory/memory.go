package memory

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"spendlog/internal/kv"
)

type Store struct {
	mu     sync.Mutex
	values map[string][]byte
}

// Ensure interface conformance
var (
	_ kv.Store  = (*Store)(nil)
	_ kv.Lister = (*Store)(nil)
)

func New() *Store {
	return &Store{values: make(map[string][]byte)}
}

// NewFromFiles seeds the store from <base>/<key>.json for every tracked key.
// Missing or empty files leave the key unset so defaults apply on first load.
func NewFromFiles(base string) *Store {
	s := New()
	for _, key := range kv.TrackedKeys {
		data := readSeed(filepath.Join(base, key+".json"))
		if data == nil {
			continue
		}
		s.values[key] = data
	}
	return s
}

// Get returns a copy of the stored value.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, kv.ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set replaces the whole value for key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if key == "" {
		return kv.ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	return nil
}

// Keys lists stored keys in sorted order.
func (s *Store) Keys(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func readSeed(path string) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil
	}
	return data
}
