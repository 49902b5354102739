package gallery

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps images for the lifetime of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	images []SavedImage // most recent first
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Add(_ context.Context, img SavedImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images = append([]SavedImage{img}, m.images...)
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]SavedImage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]SavedImage(nil), m.images...), nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (SavedImage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, img := range m.images {
		if img.ID == id {
			return img, nil
		}
	}
	return SavedImage{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, img := range m.images {
		if img.ID == id {
			m.images = append(m.images[:i:i], m.images[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (m *MemoryStore) Search(ctx context.Context, term string) ([]SavedImage, error) {
	all, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	return filterByName(all, term), nil
}

var _ Store = (*MemoryStore)(nil)
