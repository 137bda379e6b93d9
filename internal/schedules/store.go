package schedules

import (
	"context"
	"sort"
	"sync"
)

// Store persists schedule definitions keyed by appointment type.
type Store interface {
	// Save inserts or fully replaces a definition.
	Save(ctx context.Context, def *Definition) error
	// Replace overwrites an existing definition, or returns ErrNotFound.
	Replace(ctx context.Context, def *Definition) error
	Get(ctx context.Context, appointmentType string) (*Definition, error)
	List(ctx context.Context) ([]Definition, error)
	Delete(ctx context.Context, appointmentType string) error
}

// MemoryStore is a Store for development and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{defs: make(map[string]Definition)}
}

func (s *MemoryStore) Save(ctx context.Context, def *Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.defs[def.AppointmentType]; ok {
		def.CreatedAt = existing.CreatedAt
	}
	s.defs[def.AppointmentType] = *def
	return nil
}

func (s *MemoryStore) Replace(ctx context.Context, def *Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.defs[def.AppointmentType]
	if !ok {
		return ErrNotFound
	}
	def.CreatedAt = existing.CreatedAt
	s.defs[def.AppointmentType] = *def
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, appointmentType string) (*Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.defs[appointmentType]
	if !ok {
		return nil, ErrNotFound
	}
	return &def, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Definition, error) {
	s.mu.RLock()
	out := make([]Definition, 0, len(s.defs))
	for _, def := range s.defs {
		out = append(out, def)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, appointmentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.defs[appointmentType]; !ok {
		return ErrNotFound
	}
	delete(s.defs, appointmentType)
	return nil
}
