package notify

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/clinic-booking/internal/appointments"
	"github.com/wolfman30/clinic-booking/internal/observability/metrics"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

type recordingSender struct {
	sent chan EmailMessage
	err  error
}

func newRecordingSender(err error) *recordingSender {
	return &recordingSender{sent: make(chan EmailMessage, 8), err: err}
}

func (s *recordingSender) Send(_ context.Context, msg EmailMessage) error {
	s.sent <- msg
	return s.err
}

type memorySlips struct {
	mu   sync.Mutex
	puts map[string][]byte
	err  error
}

func (m *memorySlips) Put(_ context.Context, number string, body []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	if m.puts == nil {
		m.puts = make(map[string][]byte)
	}
	m.puts[number] = body
	return "mem://" + number, nil
}

type slipRefs struct {
	mu   sync.Mutex
	refs map[string]string
}

func (s *slipRefs) SetSlipRef(_ context.Context, id, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs == nil {
		s.refs = make(map[string]string)
	}
	s.refs[id] = ref
	return nil
}

type failingQueue struct{ MemoryQueue }

func (failingQueue) Send(context.Context, string) error { return errors.New("queue down") }

func waitForEmail(t *testing.T, s *recordingSender) EmailMessage {
	t.Helper()
	select {
	case msg := <-s.sent:
		return msg
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for email")
		return EmailMessage{}
	}
}

func startWorker(t *testing.T, q *MemoryQueue, sender EmailSender, opts ...WorkerOption) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	opts = append([]WorkerOption{WithWorkerCount(1), WithReceiveWaitSeconds(1)}, opts...)
	w := NewWorker(q, sender, NewSlipRenderer("City Clinic", time.UTC), nil, opts...)
	w.Start(ctx)
	t.Cleanup(func() {
		cancel()
		w.Wait()
	})
}

func TestDispatcherToWorkerConfirmed(t *testing.T) {
	q := NewMemoryQueue(8)
	sender := newRecordingSender(nil)
	slips := &memorySlips{}
	refs := &slipRefs{}
	startWorker(t, q, sender, WithSlipArchive(slips, refs))

	d := NewDispatcher(q, nil, nil)
	appt := sampleAppointment()
	d.NotifyConfirmed(context.Background(), appt)
	d.Wait()

	msg := waitForEmail(t, sender)
	assert.Equal(t, "rahim@example.com", msg.To)
	assert.Equal(t, "Appointment confirmed (2025-10-01-001)", msg.Subject)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "appointment-2025-10-01-001.html", msg.Attachments[0].Filename)

	slips.mu.Lock()
	assert.Contains(t, slips.puts, "2025-10-01-001")
	slips.mu.Unlock()
	refs.mu.Lock()
	assert.Equal(t, "mem://2025-10-01-001", refs.refs[appt.ID])
	refs.mu.Unlock()
}

func TestDispatcherToWorkerReceivedSkipsArchive(t *testing.T) {
	q := NewMemoryQueue(8)
	sender := newRecordingSender(nil)
	slips := &memorySlips{}
	startWorker(t, q, sender, WithSlipArchive(slips, nil))

	d := NewDispatcher(q, nil, nil)
	d.NotifyReceived(context.Background(), sampleAppointment().PendingAppointment)
	d.Wait()

	msg := waitForEmail(t, sender)
	assert.Equal(t, "Appointment request received (2025-10-01-001)", msg.Subject)
	slips.mu.Lock()
	assert.Empty(t, slips.puts)
	slips.mu.Unlock()
}

func TestWorkerSendFailureDoesNotStopLaterJobs(t *testing.T) {
	q := NewMemoryQueue(8)
	sender := newRecordingSender(errors.New("smtp rejected"))
	startWorker(t, q, sender, WithSlipArchive(&memorySlips{err: errors.New("s3 down")}, nil))

	d := NewDispatcher(q, nil, nil)
	first := sampleAppointment()
	second := sampleAppointment()
	second.AppointmentNumber = "2025-10-01-002"
	d.NotifyConfirmed(context.Background(), first)
	d.NotifyConfirmed(context.Background(), second)
	d.Wait()

	numbers := map[string]bool{}
	for range 2 {
		msg := waitForEmail(t, sender)
		numbers[msg.Subject] = true
	}
	assert.True(t, numbers["Appointment confirmed (2025-10-01-001)"])
	assert.True(t, numbers["Appointment confirmed (2025-10-01-002)"])
}

func TestWorkerDropsUndecodableMessages(t *testing.T) {
	q := NewMemoryQueue(8)
	sender := newRecordingSender(nil)
	startWorker(t, q, sender)

	require.NoError(t, q.Send(context.Background(), "not json"))
	NewDispatcher(q, nil, nil).NotifyConfirmed(context.Background(), sampleAppointment())

	msg := waitForEmail(t, sender)
	assert.Equal(t, "Appointment confirmed (2025-10-01-001)", msg.Subject)
}

func TestDispatcherSkipsMissingEmail(t *testing.T) {
	q := NewMemoryQueue(2)
	d := NewDispatcher(q, nil, nil)
	appt := sampleAppointment()
	appt.Email = " "

	d.NotifyConfirmed(context.Background(), appt)
	d.Wait()
	assert.Zero(t, q.Len())
}

func TestDispatcherQueueFailureIsSwallowed(t *testing.T) {
	d := NewDispatcher(&failingQueue{}, nil, nil)
	d.NotifyReceived(context.Background(), sampleAppointment().PendingAppointment)
	d.Wait()
}

func TestDispatcherSurvivesCanceledRequestContext(t *testing.T) {
	q := NewMemoryQueue(2)
	d := NewDispatcher(q, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d.NotifyConfirmed(ctx, sampleAppointment())
	d.Wait()
	assert.Equal(t, 1, q.Len())
}

func notificationCount(t *testing.T, reg *prometheus.Registry, kind, status string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "clinic_notifications_sent_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["kind"] == kind && labels["status"] == status {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestDispatcherEncodeFailureKeepsKind(t *testing.T) {
	var logs bytes.Buffer
	reg := prometheus.NewRegistry()
	q := NewMemoryQueue(2)
	d := NewDispatcher(q, logging.NewWithWriter("info", &logs), metrics.NewBookingMetrics(reg))

	appt := sampleAppointment()
	appt.AcceptedAt = time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)
	d.NotifyConfirmed(context.Background(), appt)
	d.Wait()

	assert.Zero(t, q.Len())
	assert.Contains(t, logs.String(), "notification encode failed")
	assert.Contains(t, logs.String(), `"kind":"appointment.confirmed.v1"`)
	assert.Equal(t, float64(1), notificationCount(t, reg, string(jobKindConfirmed), "failed"))
	assert.Zero(t, notificationCount(t, reg, "", "failed"))
}

var _ appointments.Notifier = NewDispatcher(NewMemoryQueue(1), nil, nil)
