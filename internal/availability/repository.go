package availability

import (
	"context"
	"sort"
	"sync"

	"github.com/wolfman30/clinic-booking/internal/pagination"
)

// Repository persists availability exceptions.
type Repository interface {
	Create(ctx context.Context, e *Exception) error
	Get(ctx context.Context, id string) (*Exception, error)
	List(ctx context.Context, q pagination.Query) (*pagination.Result[Exception], error)
	Update(ctx context.Context, e *Exception) error
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository is a Repository for development and tests.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items map[string]Exception
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{items: make(map[string]Exception)}
}

func (r *InMemoryRepository) Create(ctx context.Context, e *Exception) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[e.ID] = *e
	return nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id string) (*Exception, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (r *InMemoryRepository) List(ctx context.Context, q pagination.Query) (*pagination.Result[Exception], error) {
	q = q.Normalize()
	r.mu.RLock()
	var matched []Exception
	for _, e := range r.items {
		if q.Matches(e.DoctorName, e.HospitalName) {
			matched = append(matched, e)
		}
	}
	r.mu.RUnlock()
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return pagination.Slice(q, matched), nil
}

func (r *InMemoryRepository) Update(ctx context.Context, e *Exception) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[e.ID]; !ok {
		return ErrNotFound
	}
	r.items[e.ID] = *e
	return nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}
