package cardstore

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/decksync/internal/client/models"
	"github.com/dmitrijs2005/decksync/internal/common"
)

// MemoryStore keeps collections in a map. It backs the engine tests and
// doubles as a scratch store for dry runs.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*memoryCard
}

type memoryCard struct {
	fields map[string]string
	tags   []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]*memoryCard)}
}

// AddCollection registers an empty collection under the given reference.
func (s *MemoryStore) AddCollection(localRef string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[localRef]; !ok {
		s.collections[localRef] = make(map[string]*memoryCard)
	}
}

// AddCard creates a card with the given fields, replacing any existing one.
// The collection is created on demand.
func (s *MemoryStore) AddCard(localRef, guid string, fields map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[localRef]
	if !ok {
		col = make(map[string]*memoryCard)
		s.collections[localRef] = col
	}
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	col[guid] = &memoryCard{fields: copied}
}

// DropCollection removes the collection and everything in it.
func (s *MemoryStore) DropCollection(_ context.Context, localRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, localRef)
	return nil
}

func (s *MemoryStore) CollectionExists(_ context.Context, localRef string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[localRef]
	return ok, nil
}

func (s *MemoryStore) CardExists(_ context.Context, localRef, guid string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[localRef][guid]
	return ok, nil
}

func (s *MemoryStore) GetField(_ context.Context, localRef, guid, field string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	card, ok := s.collections[localRef][guid]
	if !ok {
		return "", common.ErrCardNotFound
	}
	value, ok := card.fields[field]
	if !ok {
		return "", &models.ValidationError{Field: field, Reason: "not present on card"}
	}
	return value, nil
}

func (s *MemoryStore) SetField(_ context.Context, localRef, guid, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.collections[localRef][guid]
	if !ok {
		return common.ErrCardNotFound
	}
	card.fields[field] = value
	return nil
}

func (s *MemoryStore) DeleteCard(_ context.Context, localRef, guid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[localRef], guid)
	return nil
}

func (s *MemoryStore) Tags(_ context.Context, localRef, guid string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	card, ok := s.collections[localRef][guid]
	if !ok {
		return nil, common.ErrCardNotFound
	}
	out := make([]string, len(card.tags))
	copy(out, card.tags)
	return out, nil
}

func (s *MemoryStore) SetTags(_ context.Context, localRef, guid string, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.collections[localRef][guid]
	if !ok {
		return common.ErrCardNotFound
	}
	out := make([]string, len(tags))
	copy(out, tags)
	card.tags = out
	return nil
}
