package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

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
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresRepository stores appointments in pending_appointments and
// confirmed_appointments.
type PostgresRepository struct {
	db pgxConn
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithConn(db pgxConn) *PostgresRepository {
	if db == nil {
		panic("appointments: conn required")
	}
	return &PostgresRepository{db: db}
}

const (
	pendingColumns   = `id, appointment_number, appointment_type, hospital, scheduled_at, full_name, email, mobile, created_at, updated_at`
	confirmedColumns = pendingColumns + `, accepted_at, slip_ref`

	searchClause = `($1 = '' OR full_name ILIKE $2 OR email ILIKE $2 OR mobile ILIKE $2 OR appointment_number ILIKE $2)`
)

// ids are UUIDs; anything else cannot exist and would only produce a cast
// error from Postgres.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}

func scanPending(row pgx.Row, a *PendingAppointment) error {
	return row.Scan(
		&a.ID,
		&a.AppointmentNumber,
		&a.AppointmentType,
		&a.Hospital,
		&a.ScheduledAt,
		&a.FullName,
		&a.Email,
		&a.Mobile,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
}

func scanConfirmed(row pgx.Row, a *ConfirmedAppointment) error {
	return row.Scan(
		&a.ID,
		&a.AppointmentNumber,
		&a.AppointmentType,
		&a.Hospital,
		&a.ScheduledAt,
		&a.FullName,
		&a.Email,
		&a.Mobile,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.AcceptedAt,
		&a.SlipRef,
	)
}

func (r *PostgresRepository) CreatePending(ctx context.Context, a *PendingAppointment) error {
	query := `INSERT INTO pending_appointments (` + pendingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := r.db.Exec(ctx, query,
		a.ID,
		a.AppointmentNumber,
		a.AppointmentType,
		a.Hospital,
		a.ScheduledAt,
		a.FullName,
		a.Email,
		a.Mobile,
		a.CreatedAt,
		a.UpdatedAt,
	); err != nil {
		return fmt.Errorf("appointments: insert pending: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetPending(ctx context.Context, id string) (*PendingAppointment, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	var a PendingAppointment
	row := r.db.QueryRow(ctx, `SELECT `+pendingColumns+` FROM pending_appointments WHERE id = $1`, id)
	if err := scanPending(row, &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: select pending: %w", err)
	}
	return &a, nil
}

func (r *PostgresRepository) ListPending(ctx context.Context, q pagination.Query) (*pagination.Result[PendingAppointment], error) {
	q = q.Normalize()
	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM pending_appointments WHERE `+searchClause,
		q.Search, q.LikePattern(),
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("appointments: count pending: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+pendingColumns+` FROM pending_appointments WHERE `+searchClause+`
		ORDER BY created_at DESC, appointment_number DESC LIMIT $3 OFFSET $4`,
		q.Search, q.LikePattern(), q.PageSize, q.Offset(),
	)
	if err != nil {
		return nil, fmt.Errorf("appointments: list pending: %w", err)
	}
	defer rows.Close()

	items := make([]PendingAppointment, 0, q.PageSize)
	for rows.Next() {
		var a PendingAppointment
		if err := scanPending(rows, &a); err != nil {
			return nil, fmt.Errorf("appointments: scan pending: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: list pending: %w", err)
	}
	return pagination.NewResult(q, total, items), nil
}

func (r *PostgresRepository) UpdatePending(ctx context.Context, a *PendingAppointment) error {
	if !validID(a.ID) {
		return ErrNotFound
	}
	ct, err := r.db.Exec(ctx, `
		UPDATE pending_appointments
		SET appointment_type = $2, hospital = $3, scheduled_at = $4, full_name = $5, email = $6, mobile = $7, updated_at = $8
		WHERE id = $1`,
		a.ID, a.AppointmentType, a.Hospital, a.ScheduledAt, a.FullName, a.Email, a.Mobile, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("appointments: update pending: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeletePending(ctx context.Context, id string) error {
	return r.deleteFrom(ctx, "pending_appointments", id)
}

func (r *PostgresRepository) DeleteConfirmed(ctx context.Context, id string) error {
	return r.deleteFrom(ctx, "confirmed_appointments", id)
}

func (r *PostgresRepository) deleteFrom(ctx context.Context, table, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	ct, err := r.db.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: delete from %s: %w", table, err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MoveToConfirmed locks the pending row, copies it into confirmed_appointments
// and deletes it, all in one transaction.
func (r *PostgresRepository) MoveToConfirmed(ctx context.Context, id string, scheduledAt *time.Time, acceptedAt time.Time) (_ *ConfirmedAppointment, err error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointments: begin confirm: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var pending PendingAppointment
	row := tx.QueryRow(ctx, `SELECT `+pendingColumns+` FROM pending_appointments WHERE id = $1 FOR UPDATE`, id)
	if err = scanPending(row, &pending); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrNotFound
			return nil, err
		}
		return nil, fmt.Errorf("appointments: lock pending: %w", err)
	}

	confirmed := ConfirmedAppointment{PendingAppointment: pending, AcceptedAt: acceptedAt}
	if scheduledAt != nil {
		confirmed.ScheduledAt = *scheduledAt
	}
	confirmed.UpdatedAt = acceptedAt

	if _, err = tx.Exec(ctx, `INSERT INTO confirmed_appointments (`+confirmedColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		confirmed.ID,
		confirmed.AppointmentNumber,
		confirmed.AppointmentType,
		confirmed.Hospital,
		confirmed.ScheduledAt,
		confirmed.FullName,
		confirmed.Email,
		confirmed.Mobile,
		confirmed.CreatedAt,
		confirmed.UpdatedAt,
		confirmed.AcceptedAt,
		confirmed.SlipRef,
	); err != nil {
		return nil, fmt.Errorf("appointments: insert confirmed: %w", err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM pending_appointments WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("appointments: delete pending: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("appointments: commit confirm: %w", err)
	}
	return &confirmed, nil
}

func (r *PostgresRepository) GetConfirmed(ctx context.Context, id string) (*ConfirmedAppointment, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	var a ConfirmedAppointment
	row := r.db.QueryRow(ctx, `SELECT `+confirmedColumns+` FROM confirmed_appointments WHERE id = $1`, id)
	if err := scanConfirmed(row, &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: select confirmed: %w", err)
	}
	return &a, nil
}

func (r *PostgresRepository) ListConfirmed(ctx context.Context, q pagination.Query) (*pagination.Result[ConfirmedAppointment], error) {
	q = q.Normalize()
	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM confirmed_appointments WHERE `+searchClause,
		q.Search, q.LikePattern(),
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("appointments: count confirmed: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+confirmedColumns+` FROM confirmed_appointments WHERE `+searchClause+`
		ORDER BY accepted_at DESC, appointment_number DESC LIMIT $3 OFFSET $4`,
		q.Search, q.LikePattern(), q.PageSize, q.Offset(),
	)
	if err != nil {
		return nil, fmt.Errorf("appointments: list confirmed: %w", err)
	}
	defer rows.Close()

	items := make([]ConfirmedAppointment, 0, q.PageSize)
	for rows.Next() {
		var a ConfirmedAppointment
		if err := scanConfirmed(rows, &a); err != nil {
			return nil, fmt.Errorf("appointments: scan confirmed: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: list confirmed: %w", err)
	}
	return pagination.NewResult(q, total, items), nil
}

func (r *PostgresRepository) UpdateConfirmed(ctx context.Context, a *ConfirmedAppointment) error {
	if !validID(a.ID) {
		return ErrNotFound
	}
	ct, err := r.db.Exec(ctx, `
		UPDATE confirmed_appointments
		SET appointment_type = $2, hospital = $3, scheduled_at = $4, full_name = $5, email = $6, mobile = $7, updated_at = $8
		WHERE id = $1`,
		a.ID, a.AppointmentType, a.Hospital, a.ScheduledAt, a.FullName, a.Email, a.Mobile, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("appointments: update confirmed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) SetSlipRef(ctx context.Context, id, ref string) error {
	if !validID(id) {
		return ErrNotFound
	}
	ct, err := r.db.Exec(ctx, `UPDATE confirmed_appointments SET slip_ref = $2 WHERE id = $1`, id, ref)
	if err != nil {
		return fmt.Errorf("appointments: set slip ref: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
