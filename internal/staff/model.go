// Package staff manages clinic staff accounts and issues the bearer tokens
// that gate the staff-only endpoints.
package staff

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

var (
	ErrNotFound           = errors.New("staff user not found")
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
	// ErrStoreUnavailable means the user store could not be reached; callers
	// should ask the client to try again later.
	ErrStoreUnavailable = errors.New("staff store unavailable")
)

// User is a staff account. PasswordHash never leaves the process.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID string
	Name   string
	Email  string
	Role   Role
}

type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	return "staff: " + e.Message
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type CreateInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

func (in *CreateInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Role == "" {
		in.Role = RoleStaff
	}

	var missing []string
	if in.Name == "" {
		missing = append(missing, "name")
	}
	if in.Email == "" {
		missing = append(missing, "email")
	}
	if in.Phone == "" {
		missing = append(missing, "phone")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return &ValidationError{Message: "missing required fields", Fields: missing}
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return &ValidationError{Message: "invalid email", Fields: []string{"email"}}
	}
	if !in.Role.Valid() {
		return &ValidationError{Message: "role must be admin or staff", Fields: []string{"role"}}
	}
	return nil
}

// UpdateInput changes only the fields that are set.
type UpdateInput struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Password *string `json:"password"`
	Role     *Role   `json:"role"`
}

func (in UpdateInput) Validate() error {
	var blank []string
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		blank = append(blank, "name")
	}
	if in.Email != nil && NormalizeEmail(*in.Email) == "" {
		blank = append(blank, "email")
	}
	if in.Phone != nil && strings.TrimSpace(*in.Phone) == "" {
		blank = append(blank, "phone")
	}
	if in.Password != nil && *in.Password == "" {
		blank = append(blank, "password")
	}
	if len(blank) > 0 {
		return &ValidationError{Message: "fields cannot be blank", Fields: blank}
	}
	if in.Email != nil {
		if _, err := mail.ParseAddress(NormalizeEmail(*in.Email)); err != nil {
			return &ValidationError{Message: "invalid email", Fields: []string{"email"}}
		}
	}
	if in.Role != nil && !in.Role.Valid() {
		return &ValidationError{Message: "role must be admin or staff", Fields: []string{"role"}}
	}
	return nil
}
