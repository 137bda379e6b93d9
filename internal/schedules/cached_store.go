package schedules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

// CachedStore is a read-through Redis cache in front of another Store.
// Cache errors degrade to the backing store.
type CachedStore struct {
	next   Store
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

func NewCachedStore(next Store, client *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedStore {
	if next == nil || client == nil {
		panic("schedules: backing store and redis client required")
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedStore{next: next, redis: client, ttl: ttl, logger: logger}
}

func (s *CachedStore) key(appointmentType string) string {
	return fmt.Sprintf("schedule:definition:%s", appointmentType)
}

func (s *CachedStore) Get(ctx context.Context, appointmentType string) (*Definition, error) {
	data, err := s.redis.Get(ctx, s.key(appointmentType)).Bytes()
	if err == nil {
		var def Definition
		if jsonErr := json.Unmarshal(data, &def); jsonErr == nil {
			return &def, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn("schedule cache read failed", "appointment_type", appointmentType, "error", err)
	}

	def, err := s.next.Get(ctx, appointmentType)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(def); err == nil {
		if err := s.redis.Set(ctx, s.key(appointmentType), data, s.ttl).Err(); err != nil {
			s.logger.Warn("schedule cache write failed", "appointment_type", appointmentType, "error", err)
		}
	}
	return def, nil
}

func (s *CachedStore) List(ctx context.Context) ([]Definition, error) {
	return s.next.List(ctx)
}

func (s *CachedStore) Save(ctx context.Context, def *Definition) error {
	if err := s.next.Save(ctx, def); err != nil {
		return err
	}
	s.invalidate(ctx, def.AppointmentType)
	return nil
}

func (s *CachedStore) Replace(ctx context.Context, def *Definition) error {
	if err := s.next.Replace(ctx, def); err != nil {
		return err
	}
	s.invalidate(ctx, def.AppointmentType)
	return nil
}

func (s *CachedStore) Delete(ctx context.Context, appointmentType string) error {
	if err := s.next.Delete(ctx, appointmentType); err != nil {
		return err
	}
	s.invalidate(ctx, appointmentType)
	return nil
}

func (s *CachedStore) invalidate(ctx context.Context, appointmentType string) {
	if err := s.redis.Del(ctx, s.key(appointmentType)).Err(); err != nil {
		s.logger.Warn("schedule cache invalidate failed", "appointment_type", appointmentType, "error", err)
	}
}
