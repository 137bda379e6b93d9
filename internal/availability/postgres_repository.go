package availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wolfman30/clinic-booking/internal/pagination"
)

type pgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores exceptions in doctor_availability.
type PostgresRepository struct {
	db pgxConn
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("availability: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithConn(db pgxConn) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `id, doctor_name, hospital_name, holiday_start::text, holiday_end::text,
	to_char(open_time, 'HH24:MI'), to_char(close_time, 'HH24:MI'), created_at, updated_at`

func scanException(row pgx.Row, e *Exception) error {
	return row.Scan(
		&e.ID,
		&e.DoctorName,
		&e.HospitalName,
		&e.HolidayStart,
		&e.HolidayEnd,
		&e.OpenTime,
		&e.CloseTime,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
}

func (r *PostgresRepository) Create(ctx context.Context, e *Exception) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO doctor_availability (id, doctor_name, hospital_name, holiday_start, holiday_end, open_time, close_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.DoctorName, e.HospitalName, e.HolidayStart, e.HolidayEnd, e.OpenTime, e.CloseTime, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("availability: insert: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Exception, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	var e Exception
	err := scanException(r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM doctor_availability WHERE id = $1`, id), &e)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("availability: select: %w", err)
	}
	return &e, nil
}

func (r *PostgresRepository) List(ctx context.Context, q pagination.Query) (*pagination.Result[Exception], error) {
	q = q.Normalize()
	const where = `($1 = '' OR doctor_name ILIKE $2 OR hospital_name ILIKE $2)`

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM doctor_availability WHERE `+where,
		q.Search, q.LikePattern()).Scan(&total); err != nil {
		return nil, fmt.Errorf("availability: count: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT `+selectColumns+` FROM doctor_availability WHERE `+where+`
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		q.Search, q.LikePattern(), q.PageSize, q.Offset())
	if err != nil {
		return nil, fmt.Errorf("availability: list: %w", err)
	}
	defer rows.Close()

	items := make([]Exception, 0, q.PageSize)
	for rows.Next() {
		var e Exception
		if err := scanException(rows, &e); err != nil {
			return nil, fmt.Errorf("availability: scan: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("availability: list: %w", err)
	}
	return pagination.NewResult(q, total, items), nil
}

func (r *PostgresRepository) Update(ctx context.Context, e *Exception) error {
	if uuid.Validate(e.ID) != nil {
		return ErrNotFound
	}
	ct, err := r.db.Exec(ctx, `
		UPDATE doctor_availability
		SET doctor_name = $2, hospital_name = $3, holiday_start = $4, holiday_end = $5, open_time = $6, close_time = $7, updated_at = $8
		WHERE id = $1`,
		e.ID, e.DoctorName, e.HospitalName, e.HolidayStart, e.HolidayEnd, e.OpenTime, e.CloseTime, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("availability: update: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return ErrNotFound
	}
	ct, err := r.db.Exec(ctx, `DELETE FROM doctor_availability WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("availability: delete: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
