package sequence

import (
	"context"
	"sync"
	"time"
)

// MemoryAllocator is a process-local allocator for development and tests.
type MemoryAllocator struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemoryAllocator() *MemoryAllocator {
	return &MemoryAllocator{counters: make(map[string]int64)}
}

func (a *MemoryAllocator) Allocate(ctx context.Context, forDate time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := DayKey(forDate)
	a.mu.Lock()
	a.counters[key]++
	seq := a.counters[key]
	a.mu.Unlock()
	return Format(key, seq), nil
}
