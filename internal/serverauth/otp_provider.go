package serverauth

import "context"

// OtpProvider defines the interface for OTP operations
type OtpProvider interface {
	RequestOTP(ctx context.Context, phone string, purpose int) error
	VerifyOTP(ctx context.Context, phone, code string, purpose int) error
	ConsumeVerified(ctx context.Context, phone string, purpose int) error
}
