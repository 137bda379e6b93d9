package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wolfman30/clinic-booking/internal/pagination"
)

// Repository persists the pending and confirmed collections. An appointment
// lives in exactly one of them.
type Repository interface {
	CreatePending(ctx context.Context, appt *PendingAppointment) error
	GetPending(ctx context.Context, id string) (*PendingAppointment, error)
	ListPending(ctx context.Context, q pagination.Query) (*pagination.Result[PendingAppointment], error)
	UpdatePending(ctx context.Context, appt *PendingAppointment) error
	DeletePending(ctx context.Context, id string) error

	// MoveToConfirmed atomically removes the pending record and inserts its
	// confirmed copy. scheduledAt replaces the requested time when non-nil.
	MoveToConfirmed(ctx context.Context, id string, scheduledAt *time.Time, acceptedAt time.Time) (*ConfirmedAppointment, error)

	GetConfirmed(ctx context.Context, id string) (*ConfirmedAppointment, error)
	ListConfirmed(ctx context.Context, q pagination.Query) (*pagination.Result[ConfirmedAppointment], error)
	UpdateConfirmed(ctx context.Context, appt *ConfirmedAppointment) error
	DeleteConfirmed(ctx context.Context, id string) error
	SetSlipRef(ctx context.Context, id, ref string) error
}

// InMemoryRepository is a Repository for development and tests.
type InMemoryRepository struct {
	mu        sync.RWMutex
	pending   map[string]PendingAppointment
	confirmed map[string]ConfirmedAppointment
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		pending:   make(map[string]PendingAppointment),
		confirmed: make(map[string]ConfirmedAppointment),
	}
}

func (r *InMemoryRepository) CreatePending(ctx context.Context, appt *PendingAppointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[appt.ID] = *appt
	return nil
}

func (r *InMemoryRepository) GetPending(ctx context.Context, id string) (*PendingAppointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	appt, ok := r.pending[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &appt, nil
}

func (r *InMemoryRepository) ListPending(ctx context.Context, q pagination.Query) (*pagination.Result[PendingAppointment], error) {
	q = q.Normalize()
	r.mu.RLock()
	var matched []PendingAppointment
	for _, a := range r.pending {
		if q.Matches(a.FullName, a.Email, a.Mobile, a.AppointmentNumber) {
			matched = append(matched, a)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].AppointmentNumber > matched[j].AppointmentNumber
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return pagination.Slice(q, matched), nil
}

func (r *InMemoryRepository) UpdatePending(ctx context.Context, appt *PendingAppointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pending[appt.ID]; !ok {
		return ErrNotFound
	}
	r.pending[appt.ID] = *appt
	return nil
}

func (r *InMemoryRepository) DeletePending(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pending[id]; !ok {
		return ErrNotFound
	}
	delete(r.pending, id)
	return nil
}

func (r *InMemoryRepository) MoveToConfirmed(ctx context.Context, id string, scheduledAt *time.Time, acceptedAt time.Time) (*ConfirmedAppointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pending, ok := r.pending[id]
	if !ok {
		return nil, ErrNotFound
	}
	confirmed := ConfirmedAppointment{PendingAppointment: pending, AcceptedAt: acceptedAt}
	if scheduledAt != nil {
		confirmed.ScheduledAt = *scheduledAt
	}
	confirmed.UpdatedAt = acceptedAt
	r.confirmed[id] = confirmed
	delete(r.pending, id)
	return &confirmed, nil
}

func (r *InMemoryRepository) GetConfirmed(ctx context.Context, id string) (*ConfirmedAppointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	appt, ok := r.confirmed[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &appt, nil
}

func (r *InMemoryRepository) ListConfirmed(ctx context.Context, q pagination.Query) (*pagination.Result[ConfirmedAppointment], error) {
	q = q.Normalize()
	r.mu.RLock()
	var matched []ConfirmedAppointment
	for _, a := range r.confirmed {
		if q.Matches(a.FullName, a.Email, a.Mobile, a.AppointmentNumber) {
			matched = append(matched, a)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].AcceptedAt.Equal(matched[j].AcceptedAt) {
			return matched[i].AppointmentNumber > matched[j].AppointmentNumber
		}
		return matched[i].AcceptedAt.After(matched[j].AcceptedAt)
	})
	return pagination.Slice(q, matched), nil
}

func (r *InMemoryRepository) UpdateConfirmed(ctx context.Context, appt *ConfirmedAppointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.confirmed[appt.ID]; !ok {
		return ErrNotFound
	}
	r.confirmed[appt.ID] = *appt
	return nil
}

func (r *InMemoryRepository) DeleteConfirmed(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.confirmed[id]; !ok {
		return ErrNotFound
	}
	delete(r.confirmed, id)
	return nil
}

func (r *InMemoryRepository) SetSlipRef(ctx context.Context, id, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.confirmed[id]
	if !ok {
		return ErrNotFound
	}
	appt.SlipRef = ref
	r.confirmed[id] = appt
	return nil
}
