package staff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type brokenRepository struct {
	*MemoryRepository
	err error
}

func (b *brokenRepository) GetByEmail(context.Context, string) (*User, error) { return nil, b.err }
func (b *brokenRepository) GetByID(context.Context, string) (*User, error)    { return nil, b.err }

func seedUser(t *testing.T, repo Repository, role Role) *User {
	t.Helper()
	u, err := NewUserService(repo, nil).Create(context.Background(), CreateInput{
		Name: "Nadia", Email: "Nadia@Clinic.test", Phone: "01700000000", Password: "s3cret", Role: role,
	})
	require.NoError(t, err)
	return u
}

func TestLoginIssuesTokenAndStampsLastLogin(t *testing.T) {
	repo := NewMemoryRepository()
	u := seedUser(t, repo, RoleAdmin)
	auth := NewAuthService(repo, testSecret, time.Hour, nil)
	now := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	auth.now = func() time.Time { return now }

	session, err := auth.Login(context.Background(), " nadia@clinic.test ", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, now.Add(time.Hour), session.ExpiresAt)
	require.NotNil(t, session.User.LastLogin)

	stored, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
	assert.Equal(t, now, *stored.LastLogin)

	id, err := auth.Authenticate(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: u.ID, Name: "Nadia", Email: "nadia@clinic.test", Role: RoleAdmin}, id)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	repo := NewMemoryRepository()
	seedUser(t, repo, RoleStaff)
	auth := NewAuthService(repo, testSecret, time.Hour, nil)

	_, err := auth.Login(context.Background(), "nadia@clinic.test", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(context.Background(), "nobody@clinic.test", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginReportsStoreUnavailable(t *testing.T) {
	repo := &brokenRepository{MemoryRepository: NewMemoryRepository(), err: errors.New("connection refused")}
	auth := NewAuthService(repo, testSecret, time.Hour, nil)

	_, err := auth.Login(context.Background(), "nadia@clinic.test", "s3cret")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	repo := NewMemoryRepository()
	u := seedUser(t, repo, RoleStaff)
	auth := NewAuthService(repo, testSecret, time.Hour, nil)
	now := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	auth.now = func() time.Time { return now }

	session, err := auth.Login(context.Background(), u.Email, "s3cret")
	require.NoError(t, err)

	other := NewAuthService(repo, "other-secret", time.Hour, nil)
	_, err = other.Authenticate(context.Background(), session.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = auth.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: u.ID, Issuer: tokenIssuer}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = auth.Authenticate(context.Background(), unsigned)
	assert.ErrorIs(t, err, ErrUnauthorized)

	auth.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = auth.Authenticate(context.Background(), session.Token)
	assert.ErrorIs(t, err, ErrUnauthorized, "expired token")

	auth.now = func() time.Time { return now }
	require.NoError(t, repo.Delete(context.Background(), u.ID))
	_, err = auth.Authenticate(context.Background(), session.Token)
	assert.ErrorIs(t, err, ErrUnauthorized, "deleted user")
}

func TestAuthenticateStoreDown(t *testing.T) {
	repo := NewMemoryRepository()
	u := seedUser(t, repo, RoleStaff)
	auth := NewAuthService(repo, testSecret, time.Hour, nil)
	session, err := auth.Login(context.Background(), u.Email, "s3cret")
	require.NoError(t, err)

	broken := NewAuthService(&brokenRepository{MemoryRepository: repo, err: errors.New("timeout")}, testSecret, time.Hour, nil)
	_, err = broken.Authenticate(context.Background(), session.Token)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestLoginWithoutSecret(t *testing.T) {
	repo := NewMemoryRepository()
	seedUser(t, repo, RoleStaff)
	_, err := NewAuthService(repo, "", time.Hour, nil).Login(context.Background(), "nadia@clinic.test", "s3cret")
	assert.Error(t, err)
}
