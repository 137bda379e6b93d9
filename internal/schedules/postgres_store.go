package schedules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps each definition as one JSONB document.
type PostgresStore struct {
	db pgxConn
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("schedules: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

func newPostgresStoreWithConn(db pgxConn) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, def *Definition) error {
	days, err := json.Marshal(def.Days)
	if err != nil {
		return fmt.Errorf("schedules: marshal days: %w", err)
	}
	err = s.db.QueryRow(ctx, `
		INSERT INTO schedules (appointment_type, days, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (appointment_type)
		DO UPDATE SET days = EXCLUDED.days, updated_at = EXCLUDED.updated_at
		RETURNING created_at`,
		def.AppointmentType, days, def.CreatedAt, def.UpdatedAt,
	).Scan(&def.CreatedAt)
	if err != nil {
		return fmt.Errorf("schedules: upsert: %w", err)
	}
	return nil
}

func (s *PostgresStore) Replace(ctx context.Context, def *Definition) error {
	days, err := json.Marshal(def.Days)
	if err != nil {
		return fmt.Errorf("schedules: marshal days: %w", err)
	}
	err = s.db.QueryRow(ctx, `
		UPDATE schedules SET days = $2, updated_at = $3
		WHERE appointment_type = $1
		RETURNING created_at`,
		def.AppointmentType, days, def.UpdatedAt,
	).Scan(&def.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("schedules: replace: %w", err)
	}
	return nil
}

func scanDefinition(row pgx.Row) (*Definition, error) {
	var (
		def  Definition
		days []byte
	)
	if err := row.Scan(&def.AppointmentType, &days, &def.CreatedAt, &def.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(days, &def.Days); err != nil {
		return nil, fmt.Errorf("schedules: decode days for %s: %w", def.AppointmentType, err)
	}
	return &def, nil
}

func (s *PostgresStore) Get(ctx context.Context, appointmentType string) (*Definition, error) {
	row := s.db.QueryRow(ctx, `
		SELECT appointment_type, days, created_at, updated_at
		FROM schedules WHERE appointment_type = $1`, appointmentType)
	def, err := scanDefinition(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("schedules: get: %w", err)
	}
	return def, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Definition, error) {
	rows, err := s.db.Query(ctx, `
		SELECT appointment_type, days, created_at, updated_at
		FROM schedules ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("schedules: list: %w", err)
	}
	defer rows.Close()

	var out []Definition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("schedules: list: %w", err)
		}
		out = append(out, *def)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, appointmentType string) error {
	ct, err := s.db.Exec(ctx, `DELETE FROM schedules WHERE appointment_type = $1`, appointmentType)
	if err != nil {
		return fmt.Errorf("schedules: delete: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
