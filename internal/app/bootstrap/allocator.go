package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/clinic-booking/internal/config"
	"github.com/wolfman30/clinic-booking/internal/observability/metrics"
	"github.com/wolfman30/clinic-booking/internal/sequence"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

// AllocatorDeps are the clients a sequence backend may need. Only the one
// matching SEQUENCE_BACKEND has to be set.
type AllocatorDeps struct {
	Pool   *pgxpool.Pool
	Redis  *redis.Client
	Dynamo *dynamodb.Client
}

// BuildAllocator picks the day-counter backend named by cfg.SequenceBackend
// and wraps it with allocation metrics.
func BuildAllocator(cfg *appconfig.Config, deps AllocatorDeps, m *metrics.BookingMetrics, logger *logging.Logger) (sequence.Allocator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	backend := cfg.SequenceBackend
	var alloc sequence.Allocator
	switch backend {
	case "", "postgres":
		backend = "postgres"
		if deps.Pool == nil {
			return nil, fmt.Errorf("bootstrap: postgres sequence backend requires DATABASE_URL")
		}
		alloc = sequence.NewPostgresAllocator(deps.Pool)
	case "redis":
		if deps.Redis == nil {
			return nil, fmt.Errorf("bootstrap: redis sequence backend requires REDIS_ADDR")
		}
		alloc = sequence.NewRedisAllocator(deps.Redis)
	case "dynamodb":
		if deps.Dynamo == nil {
			return nil, fmt.Errorf("bootstrap: dynamodb sequence backend requires an AWS client")
		}
		alloc = sequence.NewDynamoAllocator(deps.Dynamo, cfg.DayCounterTable)
	case "memory":
		logger.Warn("using in-memory appointment numbers; counters reset on restart")
		alloc = sequence.NewMemoryAllocator()
	default:
		return nil, fmt.Errorf("bootstrap: unknown SEQUENCE_BACKEND %q", cfg.SequenceBackend)
	}

	logger.Info("appointment number allocator ready", "backend", backend)
	return &instrumentedAllocator{next: alloc, backend: backend, metrics: m}, nil
}

type instrumentedAllocator struct {
	next    sequence.Allocator
	backend string
	metrics *metrics.BookingMetrics
}

func (a *instrumentedAllocator) Allocate(ctx context.Context, forDate time.Time) (string, error) {
	number, err := a.next.Allocate(ctx, forDate)
	a.metrics.ObserveAllocation(a.backend, err == nil)
	return number, err
}
