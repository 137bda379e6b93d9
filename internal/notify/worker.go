package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/wolfman30/clinic-booking/internal/observability/metrics"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

// SlipRecorder stores the archive reference on a confirmed appointment.
type SlipRecorder interface {
	SetSlipRef(ctx context.Context, id, ref string) error
}

// Worker consumes notification jobs, renders slips and emails patients.
// Each job is attempted once; failures are logged and the message dropped.
type Worker struct {
	queue    Queue
	sender   EmailSender
	renderer *SlipRenderer
	logger   *logging.Logger

	cfg workerConfig
	wg  sync.WaitGroup
}

type workerConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
	slips            SlipStore
	recorder         SlipRecorder
	metrics          *metrics.BookingMetrics
}

const (
	defaultWorkerCount   = 2
	defaultWaitSeconds   = 2
	defaultBatchSize     = 5
	maxWaitSeconds       = 20
	maxReceiveBatchSize  = 10
	deleteTimeoutSeconds = 5
	sendTimeout          = 30 * time.Second
)

// WorkerOption customizes worker behavior.
type WorkerOption func(*workerConfig)

// WithWorkerCount sets the number of concurrent consumer goroutines.
func WithWorkerCount(count int) WorkerOption {
	return func(cfg *workerConfig) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithReceiveWaitSeconds sets the long-poll wait duration.
func WithReceiveWaitSeconds(seconds int) WorkerOption {
	return func(cfg *workerConfig) {
		if seconds < 0 {
			return
		}
		cfg.receiveWaitSecs = min(seconds, maxWaitSeconds)
	}
}

// WithReceiveBatchSize sets how many messages to fetch per poll.
func WithReceiveBatchSize(size int) WorkerOption {
	return func(cfg *workerConfig) {
		if size <= 0 {
			return
		}
		cfg.receiveBatchSize = min(size, maxReceiveBatchSize)
	}
}

// WithSlipArchive uploads confirmed slips and records the reference.
func WithSlipArchive(store SlipStore, recorder SlipRecorder) WorkerOption {
	return func(cfg *workerConfig) {
		cfg.slips = store
		cfg.recorder = recorder
	}
}

func WithWorkerMetrics(m *metrics.BookingMetrics) WorkerOption {
	return func(cfg *workerConfig) {
		cfg.metrics = m
	}
}

func NewWorker(queue Queue, sender EmailSender, renderer *SlipRenderer, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if queue == nil {
		panic("notify: queue required")
	}
	if sender == nil {
		panic("notify: email sender required")
	}
	if renderer == nil {
		panic("notify: slip renderer required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	cfg := workerConfig{
		workers:          defaultWorkerCount,
		receiveWaitSecs:  defaultWaitSeconds,
		receiveBatchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Worker{
		queue:    queue,
		sender:   sender,
		renderer: renderer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Start launches the consumer goroutines. They exit when ctx is done.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("notification worker started", "worker_id", workerID)

	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("notification worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			w.logger.Error("failed to receive notification jobs", "error", err, "worker_id", workerID)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg QueueMessage) {
	defer w.deleteMessage(msg.ReceiptHandle)

	var job notificationJob
	if err := json.Unmarshal([]byte(msg.Body), &job); err != nil {
		w.logger.Error("failed to decode notification job", "message_id", msg.ID, "error", err)
		return
	}

	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()
	if err := w.process(jobCtx, job); err != nil {
		w.logger.Error("notification failed",
			"job_id", job.ID,
			"kind", job.Kind,
			"recipient", job.Appointment.Email,
			"appointment_number", job.Appointment.AppointmentNumber,
			"error", err,
		)
		w.cfg.metrics.ObserveNotification(string(job.Kind), "failed")
		return
	}
	w.cfg.metrics.ObserveNotification(string(job.Kind), "sent")
}

func (w *Worker) process(ctx context.Context, job notificationJob) error {
	appt := job.Appointment
	slip, err := w.renderer.Render(job.Kind, appt)
	if err != nil {
		return err
	}

	if job.Kind == jobKindConfirmed && w.cfg.slips != nil {
		w.archive(ctx, job, slip)
	}

	return w.sender.Send(ctx, EmailMessage{
		To:      appt.Email,
		ToName:  appt.FullName,
		Subject: slip.Subject,
		Body:    slip.Text,
		HTML:    string(slip.HTML),
		Attachments: []Attachment{{
			Filename:    "appointment-" + appt.AppointmentNumber + ".html",
			ContentType: "text/html",
			Content:     slip.HTML,
		}},
	})
}

// archive failures are logged but do not stop the email.
func (w *Worker) archive(ctx context.Context, job notificationJob, slip *Slip) {
	appt := job.Appointment
	ref, err := w.cfg.slips.Put(ctx, appt.AppointmentNumber, slip.HTML)
	if err != nil {
		w.logger.Warn("slip archive failed",
			"job_id", job.ID,
			"appointment_number", appt.AppointmentNumber,
			"error", err,
		)
		return
	}
	if w.cfg.recorder == nil {
		return
	}
	if err := w.cfg.recorder.SetSlipRef(ctx, appt.ID, ref); err != nil {
		w.logger.Warn("slip reference not recorded",
			"job_id", job.ID,
			"appointment_number", appt.AppointmentNumber,
			"slip_ref", ref,
			"error", err,
		)
	}
}

func (w *Worker) deleteMessage(receiptHandle string) {
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeoutSeconds*time.Second)
	defer cancel()
	if err := w.queue.Delete(ctx, receiptHandle); err != nil {
		w.logger.Error("failed to delete notification job", "error", err)
	}
}
