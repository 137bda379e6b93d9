package staff

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/wolfman30/clinic-booking/internal/pagination"
)

// SQLRepository stores users in staff_users through database/sql.
type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	if db == nil {
		panic("staff: sql db required")
	}
	return &SQLRepository{db: db}
}

const userColumns = `id, name, email, phone, password_hash, role, last_login, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*User, error) {
	var (
		u         User
		lastLogin sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &lastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func (r *SQLRepository) Create(ctx context.Context, u *User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO staff_users (id, name, email, phone, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, string(u.Role), u.CreatedAt, u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("staff: insert user: %w", err)
	}
	return nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*User, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM staff_users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("staff: select user: %w", err)
	}
	return u, nil
}

func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM staff_users WHERE lower(email) = $1`, NormalizeEmail(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("staff: select user by email: %w", err)
	}
	return u, nil
}

func (r *SQLRepository) List(ctx context.Context, q pagination.Query) (*pagination.Result[User], error) {
	q = q.Normalize()
	const where = `($1 = '' OR name ILIKE $2 OR email ILIKE $2 OR phone ILIKE $2 OR role ILIKE $2)`

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM staff_users WHERE `+where,
		q.Search, q.LikePattern()).Scan(&total); err != nil {
		return nil, fmt.Errorf("staff: count users: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM staff_users WHERE `+where+`
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		q.Search, q.LikePattern(), q.PageSize, q.Offset())
	if err != nil {
		return nil, fmt.Errorf("staff: list users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0, q.PageSize)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("staff: scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("staff: list users: %w", err)
	}
	return pagination.NewResult(q, total, users), nil
}

func (r *SQLRepository) Update(ctx context.Context, u *User) error {
	if uuid.Validate(u.ID) != nil {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE staff_users
		SET name = $2, email = $3, phone = $4, password_hash = $5, role = $6, updated_at = $7
		WHERE id = $1`,
		u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, string(u.Role), u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("staff: update user: %w", err)
	}
	return requireRow(res)
}

func (r *SQLRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE staff_users SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("staff: touch last login: %w", err)
	}
	return requireRow(res)
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM staff_users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("staff: delete user: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("staff: rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
