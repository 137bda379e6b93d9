package bootstrap

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/wolfman30/clinic-booking/internal/config"
	"github.com/wolfman30/clinic-booking/internal/notify"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

const memoryQueueBuffer = 256

// BuildNotificationQueue returns the in-process queue when USE_MEMORY_QUEUE is
// set, otherwise an SQS queue. The bool reports whether the queue is in
// memory, in which case the caller must run the worker in the same process.
func BuildNotificationQueue(cfg *appconfig.Config, sqsClient *sqs.Client) (notify.Queue, bool, error) {
	if cfg == nil {
		return nil, false, fmt.Errorf("bootstrap: config is required")
	}
	if cfg.UseMemoryQueue {
		return notify.NewMemoryQueue(memoryQueueBuffer), true, nil
	}
	if strings.TrimSpace(cfg.NotificationQueueURL) == "" {
		return nil, false, fmt.Errorf("bootstrap: NOTIFICATION_QUEUE_URL is required when USE_MEMORY_QUEUE=false")
	}
	if sqsClient == nil {
		return nil, false, fmt.Errorf("bootstrap: sqs client is required")
	}
	return notify.NewSQSQueue(sqsClient, cfg.NotificationQueueURL), false, nil
}

// BuildEmailSender selects the EMAIL_PROVIDER. A provider that cannot be
// configured falls back to the stub sender so bookings still succeed.
func BuildEmailSender(cfg *appconfig.Config, sesClient *sesv2.Client, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil {
		return notify.NewStubEmailSender(logger)
	}

	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender != nil {
			logger.Info("email provider ready", "provider", "sendgrid")
			return sender
		}
		logger.Warn("SENDGRID_API_KEY missing; using stub email sender")
	case "ses":
		if sesClient != nil {
			logger.Info("email provider ready", "provider", "ses")
			return notify.NewSESSender(sesClient, notify.SESConfig{
				FromEmail: cfg.EmailFromAddress,
				FromName:  cfg.EmailFromName,
			}, logger)
		}
		logger.Warn("ses client unavailable; using stub email sender")
	case "", "stub":
	default:
		logger.Warn("unknown EMAIL_PROVIDER; using stub email sender", "provider", cfg.EmailProvider)
	}
	return notify.NewStubEmailSender(logger)
}
