package protected

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory registry used in tests and by callers
// that do not keep a local database.
type MemoryRepository struct {
	mu     sync.RWMutex
	scopes map[string]map[string]struct{}
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{scopes: make(map[string]map[string]struct{})}
}

func (r *MemoryRepository) Get(_ context.Context, deckID string) (map[string]struct{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]struct{})
	for name := range r.scopes[GlobalScope] {
		result[name] = struct{}{}
	}
	for name := range r.scopes[deckID] {
		result[name] = struct{}{}
	}
	return result, nil
}

func (r *MemoryRepository) Set(_ context.Context, deckID string, fields []string) error {
	names, err := normalize(fields)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	scope := make(map[string]struct{}, len(names))
	for _, name := range names {
		scope[name] = struct{}{}
	}
	r.scopes[deckID] = scope
	return nil
}

func (r *MemoryRepository) Add(_ context.Context, deckID string, fields []string) error {
	names, err := normalize(fields)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	scope := r.scopes[deckID]
	if scope == nil {
		scope = make(map[string]struct{}, len(names))
		r.scopes[deckID] = scope
	}
	for _, name := range names {
		scope[name] = struct{}{}
	}
	return nil
}
