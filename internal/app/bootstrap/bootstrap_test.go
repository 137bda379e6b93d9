package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/clinic-booking/internal/config"
	"github.com/wolfman30/clinic-booking/internal/notify"
	"github.com/wolfman30/clinic-booking/internal/observability/metrics"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

func TestBuildRedisClient(t *testing.T) {
	logger := logging.New("error")
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{}, logger, true))

	mr := miniredis.RunT(t)
	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, logger, true)
	require.NotNil(t, client)
	defer client.Close()

	mr.Close()
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, logger, true))
}

func TestBuildAllocatorMemory(t *testing.T) {
	m := metrics.NewBookingMetrics(prometheus.NewRegistry())
	alloc, err := BuildAllocator(&appconfig.Config{SequenceBackend: "memory"}, AllocatorDeps{}, m, logging.New("error"))
	require.NoError(t, err)

	day := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	first, err := alloc.Allocate(context.Background(), day)
	require.NoError(t, err)
	second, err := alloc.Allocate(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, "2025-10-01-001", first)
	assert.Equal(t, "2025-10-01-002", second)
}

func TestBuildAllocatorRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	alloc, err := BuildAllocator(&appconfig.Config{SequenceBackend: "redis"}, AllocatorDeps{Redis: client}, nil, nil)
	require.NoError(t, err)
	number, err := alloc.Allocate(context.Background(), time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2025-10-01-001", number)
}

func TestBuildAllocatorMissingDeps(t *testing.T) {
	for _, backend := range []string{"postgres", "redis", "dynamodb", "etcd"} {
		_, err := BuildAllocator(&appconfig.Config{SequenceBackend: backend}, AllocatorDeps{}, nil, nil)
		assert.Error(t, err, backend)
	}
}

func TestBuildNotificationQueue(t *testing.T) {
	q, inMemory, err := BuildNotificationQueue(&appconfig.Config{UseMemoryQueue: true}, nil)
	require.NoError(t, err)
	assert.True(t, inMemory)
	assert.IsType(t, &notify.MemoryQueue{}, q)

	_, _, err = BuildNotificationQueue(&appconfig.Config{UseMemoryQueue: false}, nil)
	assert.Error(t, err)
}

func TestBuildEmailSenderFallsBackToStub(t *testing.T) {
	logger := logging.New("error")
	assert.IsType(t, &notify.StubEmailSender{}, BuildEmailSender(&appconfig.Config{EmailProvider: "sendgrid"}, nil, logger))
	assert.IsType(t, &notify.StubEmailSender{}, BuildEmailSender(&appconfig.Config{EmailProvider: "ses"}, nil, logger))
	assert.IsType(t, &notify.StubEmailSender{}, BuildEmailSender(&appconfig.Config{EmailProvider: "pigeon"}, nil, logger))
	assert.IsType(t, &notify.SendGridSender{}, BuildEmailSender(&appconfig.Config{EmailProvider: "sendgrid", SendGridAPIKey: "key"}, nil, logger))
}
