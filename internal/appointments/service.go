package appointments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/clinic-booking/internal/observability/metrics"
	"github.com/wolfman30/clinic-booking/internal/pagination"
	"github.com/wolfman30/clinic-booking/internal/sequence"
	"github.com/wolfman30/clinic-booking/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var appointmentsTracer = otel.Tracer("clinic.internal.appointments")

// Notifier is told about workflow transitions. Implementations must not
// block the caller or report failures back to it.
type Notifier interface {
	NotifyReceived(ctx context.Context, appt PendingAppointment)
	NotifyConfirmed(ctx context.Context, appt ConfirmedAppointment)
}

type noopNotifier struct{}

func (noopNotifier) NotifyReceived(context.Context, PendingAppointment)     {}
func (noopNotifier) NotifyConfirmed(context.Context, ConfirmedAppointment) {}

// Service implements the pending -> confirmed workflow.
type Service struct {
	repo      Repository
	allocator sequence.Allocator
	notifier  Notifier
	logger    *logging.Logger
	metrics   *metrics.BookingMetrics
	location  *time.Location
	now       func() time.Time
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithLocation sets the clinic time zone used for zone-less datetimes.
func WithLocation(loc *time.Location) ServiceOption {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithMetrics(m *metrics.BookingMetrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

func NewService(repo Repository, allocator sequence.Allocator, notifier Notifier, logger *logging.Logger, opts ...ServiceOption) *Service {
	if repo == nil {
		panic("appointments: repository required")
	}
	if allocator == nil {
		panic("appointments: allocator required")
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		repo:      repo,
		allocator: allocator,
		notifier:  notifier,
		logger:    logger,
		location:  time.Local,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the request, allocates an appointment number and stores
// the pending record. Invalid requests never consume a number.
func (s *Service) Create(ctx context.Context, req CreateRequest) (_ *PendingAppointment, err error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.create")
	defer span.End()
	start := s.now()
	defer func() { s.observe("create", start, err) }()

	if err = req.Validate(); err != nil {
		return nil, err
	}
	scheduledAt, ok := parseDatetime(req.Datetime, s.location)
	if !ok {
		err = invalidField("invalid datetime", "datetime")
		return nil, err
	}

	// Numbers belong to the day the appointment is for, not the day it was requested.
	number, err := s.allocator.Allocate(ctx, scheduledAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "allocate failed")
		return nil, fmt.Errorf("appointments: allocate number: %w", err)
	}
	span.SetAttributes(attribute.String("appointment.number", number))

	now := s.now()
	appt := &PendingAppointment{
		ID:                uuid.NewString(),
		AppointmentNumber: number,
		AppointmentType:   trimmed(req.AppointmentType),
		Hospital:          trimmed(req.Hospital),
		ScheduledAt:       scheduledAt,
		FullName:          trimmed(req.FullName),
		Email:             trimmed(req.Email),
		Mobile:            trimmed(req.Mobile),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err = s.repo.CreatePending(ctx, appt); err != nil {
		span.RecordError(err)
		s.logger.WithContext(ctx).Error("pending appointment insert failed; number burned",
			"appointment_number", number,
			"error", err,
		)
		return nil, err
	}

	s.logger.WithContext(ctx).Info("appointment requested",
		"appointment_id", appt.ID,
		"appointment_number", appt.AppointmentNumber,
		"appointment_type", appt.AppointmentType,
	)
	s.notifier.NotifyReceived(ctx, *appt)
	return appt, nil
}

// Confirm moves a pending appointment to the confirmed collection, optionally
// rescheduling it to date+time in the clinic's time zone.
func (s *Service) Confirm(ctx context.Context, id string, req ConfirmRequest) (_ *ConfirmedAppointment, err error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.confirm")
	defer span.End()
	span.SetAttributes(attribute.String("appointment.id", id))
	start := s.now()
	defer func() { s.observe("confirm", start, err) }()

	override, err := req.override(s.location)
	if err != nil {
		return nil, err
	}

	confirmed, err := s.repo.MoveToConfirmed(ctx, id, override, s.now())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("appointment.number", confirmed.AppointmentNumber),
		attribute.Bool("appointment.rescheduled", override != nil),
	)

	s.logger.WithContext(ctx).Info("appointment confirmed",
		"appointment_id", confirmed.ID,
		"appointment_number", confirmed.AppointmentNumber,
		"scheduled_at", confirmed.ScheduledAt,
	)
	s.notifier.NotifyConfirmed(ctx, *confirmed)
	return confirmed, nil
}

func (s *Service) ListPending(ctx context.Context, q pagination.Query) (*pagination.Result[PendingAppointment], error) {
	return s.repo.ListPending(ctx, q.Normalize())
}

func (s *Service) ListConfirmed(ctx context.Context, q pagination.Query) (*pagination.Result[ConfirmedAppointment], error) {
	return s.repo.ListConfirmed(ctx, q.Normalize())
}

func (s *Service) GetPending(ctx context.Context, id string) (*PendingAppointment, error) {
	return s.repo.GetPending(ctx, id)
}

func (s *Service) GetConfirmed(ctx context.Context, id string) (*ConfirmedAppointment, error) {
	return s.repo.GetConfirmed(ctx, id)
}

// UpdatePending applies a partial update. The appointment number, id and
// creation time never change.
func (s *Service) UpdatePending(ctx context.Context, id string, req UpdateRequest) (*PendingAppointment, error) {
	appt, err := s.repo.GetPending(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.apply(appt, s.location); err != nil {
		return nil, err
	}
	appt.UpdatedAt = s.now()
	if err := s.repo.UpdatePending(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// UpdateConfirmed applies a partial update. acceptedAt is preserved.
func (s *Service) UpdateConfirmed(ctx context.Context, id string, req UpdateRequest) (*ConfirmedAppointment, error) {
	appt, err := s.repo.GetConfirmed(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.apply(&appt.PendingAppointment, s.location); err != nil {
		return nil, err
	}
	appt.UpdatedAt = s.now()
	if err := s.repo.UpdateConfirmed(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *Service) DeletePending(ctx context.Context, id string) error {
	if err := s.repo.DeletePending(ctx, id); err != nil {
		return err
	}
	s.logger.WithContext(ctx).Info("pending appointment deleted", "appointment_id", id)
	s.metrics.ObserveTransition("delete_pending", "ok")
	return nil
}

func (s *Service) DeleteConfirmed(ctx context.Context, id string) error {
	if err := s.repo.DeleteConfirmed(ctx, id); err != nil {
		return err
	}
	s.logger.WithContext(ctx).Info("confirmed appointment deleted", "appointment_id", id)
	s.metrics.ObserveTransition("delete_confirmed", "ok")
	return nil
}

func (s *Service) observe(action string, start time.Time, err error) {
	status := "ok"
	switch {
	case err == nil:
	case IsValidation(err):
		status = "invalid"
	default:
		status = "error"
	}
	s.metrics.ObserveTransition(action, status)
	s.metrics.ObserveLatency(action, s.now().Sub(start).Seconds())
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
