package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/wolfman30/clinic-booking/cmd/mainconfig"
	"github.com/wolfman30/clinic-booking/internal/app/bootstrap"
	"github.com/wolfman30/clinic-booking/internal/appointments"
	"github.com/wolfman30/clinic-booking/internal/config"
	"github.com/wolfman30/clinic-booking/internal/notify"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := validate(cfg); err != nil {
		logger.Error("notification worker misconfigured", "error", err)
		os.Exit(1)
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load aws config", "error", err)
		os.Exit(1)
	}

	queue, _, err := bootstrap.BuildNotificationQueue(cfg, sqs.NewFromConfig(awsCfg))
	if err != nil {
		logger.Error("failed to build notification queue", "error", err)
		os.Exit(1)
	}

	loc, err := cfg.ClinicLocation()
	if err != nil {
		logger.Error("invalid clinic timezone", "error", err)
		os.Exit(1)
	}

	var sesClient *sesv2.Client
	if cfg.EmailProvider == "ses" {
		sesClient = sesv2.NewFromConfig(awsCfg)
	}

	opts := []notify.WorkerOption{notify.WithWorkerCount(cfg.WorkerCount)}
	if cfg.SlipBucket != "" && cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		opts = append(opts, notify.WithSlipArchive(slipStore(cfg, awsCfg), appointments.NewPostgresRepository(pool)))
		logger.Info("slip archive enabled", "bucket", cfg.SlipBucket)
	}

	worker := notify.NewWorker(queue,
		bootstrap.BuildEmailSender(cfg, sesClient, logger),
		notify.NewSlipRenderer(cfg.ClinicName, loc),
		logger, opts...)
	worker.Start(ctx)
	logger.Info("notification worker started", "workers", cfg.WorkerCount)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("notification worker shutting down")
	cancel()
	worker.Wait()
}

// validate rejects configurations where this process would have nothing to
// consume: an in-memory queue only exists inside the API process.
func validate(cfg *config.Config) error {
	if cfg.UseMemoryQueue {
		return errors.New("USE_MEMORY_QUEUE must be false for the standalone worker")
	}
	if cfg.NotificationQueueURL == "" {
		return errors.New("NOTIFICATION_QUEUE_URL is required")
	}
	return nil
}

func slipStore(cfg *config.Config, awsCfg aws.Config) *notify.S3SlipStore {
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = mainconfig.UsesEndpointOverride(cfg)
	})
	return notify.NewS3SlipStore(client, cfg.SlipBucket)
}
