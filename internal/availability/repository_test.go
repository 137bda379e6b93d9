package availability

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/clinic-booking/internal/pagination"
)

const testID = "0f4e9a2b-3c1d-4e5f-8a7b-6c5d4e3f2a1b"

var exceptionCols = []string{"id", "doctor_name", "hospital_name", "holiday_start", "holiday_end", "open_time", "close_time", "created_at", "updated_at"}

func TestInMemoryRepositorySearchAndPaging(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	base := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	for i := range 12 {
		hospital := "Central"
		if i%3 == 0 {
			hospital = "North Clinic"
		}
		require.NoError(t, repo.Create(ctx, &Exception{
			ID:           fmt.Sprintf("id-%02d", i),
			DoctorName:   fmt.Sprintf("Dr. %02d", i),
			HospitalName: hospital,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}))
	}

	res, err := repo.List(ctx, pagination.Query{Page: 2, PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, 12, res.Total)
	assert.Equal(t, 3, res.TotalPages)
	require.Len(t, res.Items, 5)
	assert.Equal(t, "id-06", res.Items[0].ID)

	res, err = repo.List(ctx, pagination.Query{Search: "north"})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, "id-09", res.Items[0].ID)
}

func TestInMemoryRepositoryNotFound(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &Exception{ID: "missing"}), ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "missing"), ErrNotFound)
}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, newPostgresRepositoryWithConn(mock)
}

func TestPostgresRepositoryCreateAndGet(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	e := &Exception{
		ID: testID, DoctorName: "Dr. Karim", HospitalName: "Central",
		HolidayStart: "2025-12-24", HolidayEnd: "2025-12-26",
		OpenTime: "10:00", CloseTime: "14:00", CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectExec("INSERT INTO doctor_availability").
		WithArgs(testID, "Dr. Karim", "Central", "2025-12-24", "2025-12-26", "10:00", "14:00", now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("FROM doctor_availability WHERE id = \\$1").
		WithArgs(testID).
		WillReturnRows(pgxmock.NewRows(exceptionCols).AddRow(
			testID, "Dr. Karim", "Central", "2025-12-24", "2025-12-26", "10:00", "14:00", now, now))

	require.NoError(t, repo.Create(context.Background(), e))
	got, err := repo.Get(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, e, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryGetMissing(t *testing.T) {
	mock, repo := newMockRepo(t)
	mock.ExpectQuery("FROM doctor_availability WHERE id = \\$1").
		WithArgs(testID).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), testID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryList(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM doctor_availability").
		WithArgs("karim", "%karim%").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs("karim", "%karim%", 5, 10).
		WillReturnRows(pgxmock.NewRows(exceptionCols).AddRow(
			testID, "Dr. Karim", "Central", "2025-12-24", "2025-12-26", "10:00", "14:00", now, now))

	res, err := repo.List(context.Background(), pagination.Query{Search: "karim", Page: 3, PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, 11, res.Total)
	assert.Equal(t, 3, res.TotalPages)
	assert.Len(t, res.Items, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryUpdateAndDelete(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE doctor_availability").
		WithArgs(testID, "Dr. Karim", "Central", "2025-12-24", "2025-12-26", "10:00", "15:00", now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectExec("DELETE FROM doctor_availability").
		WithArgs(testID).
		WillReturnError(errors.New("connection reset"))

	err := repo.Update(context.Background(), &Exception{
		ID: testID, DoctorName: "Dr. Karim", HospitalName: "Central",
		HolidayStart: "2025-12-24", HolidayEnd: "2025-12-26",
		OpenTime: "10:00", CloseTime: "15:00", UpdatedAt: now,
	})
	assert.ErrorIs(t, err, ErrNotFound)

	err = repo.Delete(context.Background(), testID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresRepositoryRequiresPool(t *testing.T) {
	assert.Panics(t, func() { NewPostgresRepository(nil) })
}
