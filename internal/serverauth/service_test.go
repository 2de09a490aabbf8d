package serverauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amdadul/brandstore-crm/internal/repo"
)

type serviceFixture struct {
	svc   *AuthService
	otp   *OtpStub
	jwt   *JWTService
	users repo.UserRepo
	user  repo.User
}

func newServiceFixture(t *testing.T) serviceFixture {
	t.Helper()
	database := openTestDB(t)
	ctx := context.Background()

	users := repo.NewUserRepo(database)
	hash, err := HashPassword("secret-pass")
	require.NoError(t, err)
	u := repo.User{Name: "Rahim", Email: "rahim@example.com", Phone: "01711111111", EmployeeType: "2", PasswordHash: hash}
	u.ID, err = users.Create(ctx, u)
	require.NoError(t, err)

	stub := NewOtpStub(repo.NewOtpRepo(database), "salt", true)
	stub.MinAttemptDelay = 0
	jwtService := NewJWTService("test-secret")
	return serviceFixture{
		svc:   NewAuthService(stub, jwtService, users, repo.NewTokenRepo(database)),
		otp:   stub,
		jwt:   jwtService,
		users: users,
		user:  u,
	}
}

func TestLogin(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	user, token, err := f.svc.Login(ctx, "RAHIM@example.com", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, user.ID)

	claims, err := f.jwt.VerifyToken(token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, id)
	assert.Equal(t, "2", claims.EmployeeType)
	assert.NotEmpty(t, claims.ID)

	_, _, err = f.svc.Login(ctx, "rahim@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = f.svc.Login(ctx, "nobody@example.com", "secret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, token, err := f.svc.Login(ctx, "rahim@example.com", "secret-pass")
	require.NoError(t, err)
	claims, err := f.jwt.VerifyToken(token)
	require.NoError(t, err)

	revoked, err := f.svc.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, f.svc.Logout(ctx, claims))
	revoked, err = f.svc.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestChangePasswordRequiresVerifiedOtp(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.CheckPassword(ctx, &f.user, "secret-pass"))
	assert.ErrorIs(t, f.svc.CheckPassword(ctx, &f.user, "nope"), ErrInvalidCredentials)

	assert.ErrorIs(t, f.svc.ChangePassword(ctx, &f.user, "another-pass"), ErrNotVerified)

	require.NoError(t, f.otp.RequestOTP(ctx, f.user.Phone, PurposePassword))
	require.NoError(t, f.otp.VerifyOTP(ctx, f.user.Phone, DevOTP, PurposePassword))
	require.NoError(t, f.svc.ChangePassword(ctx, &f.user, "another-pass"))

	_, _, err := f.svc.Login(ctx, "rahim@example.com", "another-pass")
	require.NoError(t, err)
}

func TestResetPassword(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "01999999999", "x-pass-123", PurposePassword), ErrUnknownPhone)
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, f.user.Phone, "x-pass-123", PurposePassword), ErrNotVerified)

	require.NoError(t, f.otp.RequestOTP(ctx, f.user.Phone, PurposePassword))
	require.NoError(t, f.otp.VerifyOTP(ctx, f.user.Phone, DevOTP, PurposePassword))
	require.NoError(t, f.svc.ResetPassword(ctx, f.user.Phone, "x-pass-123", PurposePassword))

	_, _, err := f.svc.Login(ctx, "rahim@example.com", "x-pass-123")
	require.NoError(t, err)
}
