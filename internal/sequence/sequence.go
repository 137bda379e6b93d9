// Package sequence issues human-readable per-day appointment numbers of the
// form YYYY-MM-DD-NNN.
//
// Counters are keyed by the UTC calendar date of the appointment's scheduled
// time, not the clinic's local date: an appointment shortly after local
// midnight in a zone ahead of UTC draws from the previous UTC day's counter. Each
// backend increments its counter with a single atomic upsert, so concurrent
// callers always receive distinct, strictly increasing values. A number
// allocated for a request that then fails to persist is burned, never reused.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Allocator hands out the next appointment number for a day.
type Allocator interface {
	Allocate(ctx context.Context, forDate time.Time) (string, error)
}

// ErrUnavailable wraps failures of the counter store.
var ErrUnavailable = errors.New("sequence: counter store unavailable")

const (
	dayKeyLayout = "2006-01-02"
	numberPad    = 3
)

// DayKey returns the UTC calendar date of t as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.UTC().Format(dayKeyLayout)
}

// Format renders an appointment number. Values past 999 widen naturally.
func Format(dayKey string, seq int64) string {
	return fmt.Sprintf("%s-%0*d", dayKey, numberPad, seq)
}

func unavailable(backend string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, backend, err)
}
