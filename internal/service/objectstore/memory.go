package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/tinkerborg/otaupdate/internal/store"
)

// MemoryStore is an in-process Store used by tests, backed by the
// teacher's generic MockStore keyed by the object-store key string. A
// mutex guards it since MockStore itself has no locking of its own.
type MemoryStore struct {
	mu   sync.Mutex
	data *store.MockStore[string, []byte]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: store.NewMockStore[string, []byte]()}
}

func (m *MemoryStore) Put(_ context.Context, key string, body io.Reader, _ int64) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.Upsert(key, b)
}

func (m *MemoryStore) Get(_ context.Context, key string) (*Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.data.Get(key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &Object{Body: io.NopCloser(bytes.NewReader(b)), ContentLength: int64(len(b))}, nil
}

func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := []string{}
	for _, k := range m.data.Keys() {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	return keys, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.data.Delete(key); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
