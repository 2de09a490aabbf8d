package serverauth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/amdadul/brandstore-crm/internal/repo"
)

const (
	DevOTP = "123456"

	otpExpiry            = 5 * time.Minute
	verifiedWindow       = 10 * time.Minute
	maxAttempts          = 5
	DefaultAttemptDelay  = 2 * time.Second
	requestWindow        = 10 * time.Minute
	maxRequestsPerWindow = 3
)

var (
	ErrRateLimited = errors.New("rate limit exceeded")
	ErrInvalidOTP  = errors.New("invalid or expired OTP")
	ErrTooFast     = errors.New("too many attempts, try again later")
	ErrNotVerified = errors.New("phone has not been verified")
)

// OtpStub implements OtpProvider with database-backed sessions. It never
// sends SMS; outside dev mode the generated code is handed to Deliver.
type OtpStub struct {
	otpRepo repo.OtpRepo
	salt    string
	devMode bool

	// Deliver receives the plaintext code outside dev mode.
	Deliver func(phone, code string)
	// MinAttemptDelay is the minimum gap between verification attempts.
	MinAttemptDelay time.Duration
}

// NewOtpStub creates a new OTP provider
func NewOtpStub(otpRepo repo.OtpRepo, salt string, devMode bool) *OtpStub {
	return &OtpStub{
		otpRepo:         otpRepo,
		salt:            salt,
		devMode:         devMode,
		MinAttemptDelay: DefaultAttemptDelay,
	}
}

// RequestOTP creates or replaces an OTP session. Rate limit: max 3 requests per 10 min per phone.
// In dev mode the code is always 123456; only its hash is stored.
func (p *OtpStub) RequestOTP(ctx context.Context, phone string, purpose int) error {
	since := time.Now().Add(-requestWindow)
	count, err := p.otpRepo.CountRecentRequests(ctx, phone, since)
	if err != nil {
		return fmt.Errorf("rate limit check: %w", err)
	}
	if count >= maxRequestsPerWindow {
		return fmt.Errorf("%w: max %d OTP requests per %v per phone", ErrRateLimited, maxRequestsPerWindow, requestWindow)
	}

	code := DevOTP
	if !p.devMode {
		if code, err = generateOTPCode(); err != nil {
			return fmt.Errorf("generate otp: %w", err)
		}
	}

	hashHex := hashOTPHex(phone, code, p.salt)
	if _, err := p.otpRepo.CreateOrReplaceSession(ctx, phone, hashHex, purpose, time.Now().Add(otpExpiry)); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if !p.devMode && p.Deliver != nil {
		p.Deliver(phone, code)
	}
	return nil
}

// VerifyOTP verifies the code against the active session: attempt limit 5,
// minimum delay between attempts, hash comparison, then marks it verified.
func (p *OtpStub) VerifyOTP(ctx context.Context, phone, code string, purpose int) error {
	session, err := p.otpRepo.GetActiveSessionByPhone(ctx, phone, purpose)
	if err != nil {
		return ErrInvalidOTP
	}

	now := time.Now()
	if session.LastAttemptAt != nil && now.Sub(*session.LastAttemptAt) < p.MinAttemptDelay {
		return ErrTooFast
	}

	newCount, err := p.otpRepo.IncrementAttempt(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}

	providedHash := hashOTPBytes(phone, code, p.salt)
	if !constantTimeCompare(providedHash, session.OTPHash) {
		if newCount >= maxAttempts {
			_ = p.otpRepo.MarkConsumed(ctx, session.ID)
		}
		return ErrInvalidOTP
	}

	if err := p.otpRepo.MarkVerified(ctx, session.ID); err != nil {
		return fmt.Errorf("failed to mark session verified: %w", err)
	}
	return nil
}

// ConsumeVerified consumes a session verified within the last 10 minutes.
func (p *OtpStub) ConsumeVerified(ctx context.Context, phone string, purpose int) error {
	session, err := p.otpRepo.GetVerifiedSessionByPhone(ctx, phone, purpose, time.Now().Add(-verifiedWindow))
	if err != nil {
		return ErrNotVerified
	}
	if err := p.otpRepo.MarkConsumed(ctx, session.ID); err != nil {
		return fmt.Errorf("failed to consume session: %w", err)
	}
	return nil
}

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// hashOTPHex returns SHA-256(phone:code:salt) as hex for DB storage
func hashOTPHex(phone, code, salt string) string {
	return hex.EncodeToString(hashOTPBytes(phone, code, salt))
}

func hashOTPBytes(phone, code, salt string) []byte {
	data := fmt.Sprintf("%s:%s:%s", phone, code, salt)
	hash := sha256.Sum256([]byte(data))
	return hash[:]
}

func constantTimeCompare(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var result int
	for i := 0; i < len(a); i++ {
		result |= int(a[i]) ^ int(b[i])
	}
	return result == 0
}
