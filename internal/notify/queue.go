package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/wolfman30/clinic-booking/internal/appointments"
)

// Queue carries notification jobs between the dispatcher and workers.
type Queue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]QueueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type QueueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

type jobKind string

const (
	jobKindReceived  jobKind = "appointment.received.v1"
	jobKindConfirmed jobKind = "appointment.confirmed.v1"
)

// notificationJob is the queue payload. Received jobs leave AcceptedAt zero.
type notificationJob struct {
	ID          string                            `json:"id"`
	Kind        jobKind                           `json:"kind"`
	Appointment appointments.ConfirmedAppointment `json:"appointment"`
}

func encodeJob(job notificationJob) (notificationJob, string, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	body, err := json.Marshal(job)
	if err != nil {
		return notificationJob{}, "", fmt.Errorf("notify: failed to encode job: %w", err)
	}
	return job, string(body), nil
}
