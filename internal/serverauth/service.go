package serverauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/amdadul/brandstore-crm/internal/repo"
)

// PurposePassword is the OTP purpose code of both password flows.
const PurposePassword = 5

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownPhone       = errors.New("no account with this phone number")
)

// AuthService orchestrates authentication operations
type AuthService struct {
	otpProvider OtpProvider
	jwtService  *JWTService
	userRepo    repo.UserRepo
	tokenRepo   repo.TokenRepo
}

// NewAuthService creates a new auth service
func NewAuthService(
	otpProvider OtpProvider,
	jwtService *JWTService,
	userRepo repo.UserRepo,
	tokenRepo repo.TokenRepo,
) *AuthService {
	return &AuthService{
		otpProvider: otpProvider,
		jwtService:  jwtService,
		userRepo:    userRepo,
		tokenRepo:   tokenRepo,
	}
}

// HashPassword returns the bcrypt hash stored for a password.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Login checks the email/password pair and issues an access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*repo.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwtService.SignAccessToken(user.ID, user.EmployeeType)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return &user, token, nil
}

// Logout revokes the presented access token until it expires.
func (s *AuthService) Logout(ctx context.Context, claims *JWTClaims) error {
	if claims == nil || claims.ID == "" {
		return fmt.Errorf("token has no id")
	}
	exp := time.Now().Add(tokenExpiry)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	return s.tokenRepo.Revoke(ctx, claims.ID, exp)
}

// CheckPassword verifies the current password of a signed-in user.
func (s *AuthService) CheckPassword(ctx context.Context, user *repo.User, password string) error {
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// ChangePassword sets a new password for a signed-in user. The user's phone
// must have passed OTP verification in the last few minutes.
func (s *AuthService) ChangePassword(ctx context.Context, user *repo.User, password string) error {
	if err := s.otpProvider.ConsumeVerified(ctx, user.Phone, PurposePassword); err != nil {
		return err
	}
	return s.setPassword(ctx, user.ID, password)
}

// ResetPassword sets a new password for the account owning phone after a
// verified OTP for purpose.
func (s *AuthService) ResetPassword(ctx context.Context, phone, password string, purpose int) error {
	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUnknownPhone
		}
		return err
	}
	if err := s.otpProvider.ConsumeVerified(ctx, phone, purpose); err != nil {
		return err
	}
	return s.setPassword(ctx, user.ID, password)
}

func (s *AuthService) setPassword(ctx context.Context, userID int64, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// KnownPhone returns ErrUnknownPhone unless an account uses phone.
func (s *AuthService) KnownPhone(ctx context.Context, phone string) error {
	if _, err := s.userRepo.GetByPhone(ctx, phone); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUnknownPhone
		}
		return err
	}
	return nil
}

// IsRevoked reports whether the token id was logged out.
func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.tokenRepo.IsRevoked(ctx, jti)
}
