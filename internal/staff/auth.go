package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

const tokenIssuer = "clinic-booking"

// Claims are the JWT claims issued at login.
type Claims struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
	jwt.RegisteredClaims
}

// Session is the result of a successful login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

// AuthService issues and verifies HMAC-signed staff tokens.
type AuthService struct {
	users  Repository
	secret []byte
	ttl    time.Duration
	logger *logging.Logger
	now    func() time.Time
}

func NewAuthService(users Repository, secret string, ttl time.Duration, logger *logging.Logger) *AuthService {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{users: users, secret: []byte(secret), ttl: ttl, logger: logger, now: time.Now}
}

// Login verifies credentials, stamps lastLogin and returns a signed token.
// Unknown emails and wrong passwords both return ErrInvalidCredentials; any
// store failure returns ErrStoreUnavailable.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	if len(s.secret) == 0 {
		return nil, errors.New("staff: token signing disabled")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	ok, err := CheckPassword(u.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	u.LastLogin = &now

	expires := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("staff: sign token: %w", err)
	}
	s.logger.Info("staff login", "user_id", u.ID, "role", u.Role)
	return &Session{Token: signed, ExpiresAt: expires, User: *u}, nil
}

// Authenticate verifies a bearer token and loads the current account so
// deleted users and role changes take effect immediately.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (Identity, error) {
	tokenString = strings.TrimSpace(tokenString)
	if len(s.secret) == 0 || tokenString == "" {
		return Identity{}, ErrUnauthorized
	}
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return Identity{}, ErrUnauthorized
	}

	u, err := s.users.GetByID(ctx, claims.Subject)
	if errors.Is(err, ErrNotFound) {
		return Identity{}, ErrUnauthorized
	}
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return Identity{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}, nil
}
