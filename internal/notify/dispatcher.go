package notify

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/clinic-booking/internal/appointments"
	"github.com/wolfman30/clinic-booking/internal/observability/metrics"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

const defaultEnqueueTimeout = 5 * time.Second

// Dispatcher turns workflow transitions into queued notification jobs. It
// never blocks the caller and never reports failure back to it.
type Dispatcher struct {
	queue   Queue
	logger  *logging.Logger
	metrics *metrics.BookingMetrics
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(queue Queue, logger *logging.Logger, m *metrics.BookingMetrics) *Dispatcher {
	if queue == nil {
		panic("notify: queue required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		queue:   queue,
		logger:  logger,
		metrics: m,
		timeout: defaultEnqueueTimeout,
	}
}

func (d *Dispatcher) NotifyReceived(ctx context.Context, appt appointments.PendingAppointment) {
	d.dispatch(ctx, notificationJob{
		Kind:        jobKindReceived,
		Appointment: appointments.ConfirmedAppointment{PendingAppointment: appt},
	})
}

func (d *Dispatcher) NotifyConfirmed(ctx context.Context, appt appointments.ConfirmedAppointment) {
	d.dispatch(ctx, notificationJob{Kind: jobKindConfirmed, Appointment: appt})
}

// Wait blocks until in-flight enqueues finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(ctx context.Context, job notificationJob) {
	appt := job.Appointment
	if strings.TrimSpace(appt.Email) == "" {
		d.logger.Debug("notification skipped: no email on file",
			"kind", job.Kind,
			"appointment_number", appt.AppointmentNumber,
		)
		d.metrics.ObserveNotification(string(job.Kind), "skipped")
		return
	}

	encoded, body, err := encodeJob(job)
	if err != nil {
		d.logger.Error("notification encode failed",
			"kind", job.Kind,
			"recipient", appt.Email,
			"appointment_number", appt.AppointmentNumber,
			"error", err,
		)
		d.metrics.ObserveNotification(string(job.Kind), "failed")
		return
	}

	// Detached from the request so a finished response does not cancel the send.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		if err := d.queue.Send(sendCtx, body); err != nil {
			d.logger.WithContext(sendCtx).Error("notification enqueue failed",
				"job_id", encoded.ID,
				"kind", job.Kind,
				"recipient", appt.Email,
				"appointment_number", appt.AppointmentNumber,
				"error", err,
			)
			d.metrics.ObserveNotification(string(job.Kind), "failed")
			return
		}
		d.metrics.ObserveNotification(string(job.Kind), "queued")
	}()
}

var _ appointments.Notifier = (*Dispatcher)(nil)
