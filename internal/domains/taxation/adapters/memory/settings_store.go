package memory

import (
	"context"
	"sync"

	"github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/ports"
)

var _ ports.SettingsStore = (*SettingsStore)(nil)

// SettingsStore keeps settings in a map, for development and tests.
type SettingsStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewSettingsStore(initial map[string]string) *SettingsStore {
	values := make(map[string]string, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &SettingsStore{values: values}
}

func (s *SettingsStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *SettingsStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}
