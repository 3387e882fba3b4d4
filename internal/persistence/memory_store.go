package persistence

import (
	"context"
	"sync"

	"github.com/abeauvois/ingestflow/pkg/api"
)

// InMemoryStore is a simple, goroutine-safe TaskStore backed by a map.
// It is non-durable and intended for tests and local development.
type InMemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*api.Task
}

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		tasks: make(map[string]*api.Task),
	}
}

// Ensure InMemoryStore implements TaskStore.
var _ TaskStore = (*InMemoryStore)(nil)

func (s *InMemoryStore) CreateTask(ctx context.Context, t *api.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a clone so the caller's copy and N concurrent readers never
	// share memory.
	s.tasks[t.ID] = t.Clone()
	return nil
}

func (s *InMemoryStore) UpdateTask(ctx context.Context, t *api.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[t.ID]; !ok {
		return ErrTaskNotFound
	}

	s.tasks[t.ID] = t.Clone()
	return nil
}

func (s *InMemoryStore) GetTask(ctx context.Context, id string) (*api.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}

	return t.Clone(), nil
}

func (s *InMemoryStore) ListTasks(ctx context.Context, filter TaskFilter) ([]*api.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*api.Task
	for _, t := range s.tasks {
		if filter.Preset != "" && t.Preset != filter.Preset {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		result = append(result, t.Clone())
	}

	return result, nil
}
