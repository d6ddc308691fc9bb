package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/OrlandoBitencourt/gonfalon/internal/domain"
)

// Memory is an in-process Store for tests and single-node development runs.
type Memory struct {
	mu    sync.RWMutex
	flags map[string]domain.Flag
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		flags: make(map[string]domain.Flag),
	}
}

func (m *Memory) Get(ctx context.Context, key string) (*domain.Flag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	flag, ok := m.flags[key]
	if !ok {
		return nil, domain.NewNotFoundError("flag", key)
	}
	return &flag, nil
}

func (m *Memory) List(ctx context.Context, skip, limit int) ([]domain.Flag, error) {
	m.mu.RLock()
	keys := make([]string, 0, len(m.flags))
	for k := range m.flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.Flag, 0, limit)
	for i, k := range keys {
		if i < skip {
			continue
		}
		if len(out) >= limit {
			break
		}
		out = append(out, m.flags[k])
	}
	m.mu.RUnlock()
	return out, nil
}

func (m *Memory) Create(ctx context.Context, flag domain.Flag) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.flags[flag.Key]; exists {
		return domain.NewValidationError(fmt.Sprintf("flag with key %q already exists", flag.Key))
	}
	m.flags[flag.Key] = flag
	return nil
}

func (m *Memory) Update(ctx context.Context, flag domain.Flag) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.flags[flag.Key]; !exists {
		return domain.NewNotFoundError("flag", flag.Key)
	}
	m.flags[flag.Key] = flag
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.flags[key]; !exists {
		return domain.NewNotFoundError("flag", key)
	}
	delete(m.flags, key)
	return nil
}

func (m *Memory) Close() error {
	return nil
}
