package secret

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// MemoryBackend is a process-local Backend for the standalone service and for tests.
type MemoryBackend struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// NewMemoryBackend returns a MemoryBackend seeded with the given secrets.
func NewMemoryBackend(seed map[string]string) *MemoryBackend {
	secrets := make(map[string]string, len(seed))
	for k, v := range seed {
		secrets[k] = v
	}
	return &MemoryBackend{secrets: secrets}
}

func (m *MemoryBackend) GetSecret(_ context.Context, name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.secrets[name]
	if !ok {
		return "", errors.WithMessage(ErrNotFound, name)
	}
	return value, nil
}

func (m *MemoryBackend) CreateSecret(_ context.Context, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.secrets[name]; ok {
		return errors.WithMessage(ErrAlreadyExists, name)
	}
	m.secrets[name] = value
	return nil
}
