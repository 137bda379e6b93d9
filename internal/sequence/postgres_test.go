package sequence

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresAllocatorUpsertsCounter(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	a := newPostgresAllocatorWithQuerier(mock)
	day := time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO day_counters").WithArgs("2025-10-01").
		WillReturnRows(pgxmock.NewRows([]string{"seq"}).AddRow(int64(1)))
	mock.ExpectQuery("INSERT INTO day_counters").WithArgs("2025-10-01").
		WillReturnRows(pgxmock.NewRows([]string{"seq"}).AddRow(int64(2)))

	first, err := a.Allocate(context.Background(), day)
	require.NoError(t, err)
	second, err := a.Allocate(context.Background(), day)
	require.NoError(t, err)

	assert.Equal(t, "2025-10-01-001", first)
	assert.Equal(t, "2025-10-01-002", second)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAllocatorWrapsStoreErrors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	a := newPostgresAllocatorWithQuerier(mock)
	mock.ExpectQuery("INSERT INTO day_counters").WillReturnError(errors.New("connection refused"))

	_, err = a.Allocate(context.Background(), time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresAllocatorRequiresPool(t *testing.T) {
	assert.Panics(t, func() { NewPostgresAllocator(nil) })
}

// Runs against a real database when TEST_DATABASE_URL points at a migrated schema.
func TestPostgresAllocatorConcurrentIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	day := time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = pool.Exec(ctx, `DELETE FROM day_counters WHERE date_key = $1`, DayKey(day))
	require.NoError(t, err)

	a := NewPostgresAllocator(pool)
	const k = 20
	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		wg   sync.WaitGroup
	)
	for range k {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := a.Allocate(ctx, day)
			if err != nil {
				t.Errorf("allocate: %v", err)
				return
			}
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, k)
	assert.True(t, seen["2099-01-01-001"])
	assert.True(t, seen[Format("2099-01-01", k)])
}
