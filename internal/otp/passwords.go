package otp

import (
	"context"
	"strings"

	"github.com/amdadul/brandstore-crm/internal/api"
	"github.com/amdadul/brandstore-crm/internal/validate"
)

// PasswordAPI is the part of the API client the password flows call.
type PasswordAPI interface {
	OtpAPI
	ChangePasswordVerify(ctx context.Context, oldPassword string) api.Result[api.Ack]
	ChangePassword(ctx context.Context, req api.ChangePasswordRequest) api.Result[api.Ack]
	ResetPassword(ctx context.Context, req api.ResetPasswordRequest) api.Result[api.Ack]
}

// PhoneSource returns the signed-in user's phone number.
type PhoneSource func(ctx context.Context) (string, error)

// ChangePasswordForm is the signed-in user's change-password form.
type ChangePasswordForm struct {
	OldPassword string
	Password    string
	Confirm     string
}

// ForgotPasswordForm is the signed-out reset form.
type ForgotPasswordForm struct {
	Phone    string
	Password string
	Confirm  string
}

// NewChangePassword checks the old password, sends an OTP to the stored phone
// and changes the password once the OTP is accepted.
func NewChangePassword(client PasswordAPI, phone PhoneSource) *Flow[ChangePasswordForm] {
	storedPhone := func(ctx context.Context, _ ChangePasswordForm) (string, error) {
		p, err := phone(ctx)
		if err != nil {
			return "", err
		}
		p = strings.TrimSpace(p)
		if !validate.Digits(p) {
			return "", ErrInvalidMedium
		}
		return p, nil
	}

	return NewFlow(client, Steps[ChangePasswordForm]{
		ValidateRequest: func(f ChangePasswordForm) error {
			return validate.ChangePasswordRequest(f.OldPassword, f.Password, f.Confirm)
		},
		PreCheck: func(ctx context.Context, f ChangePasswordForm) error {
			return client.ChangePasswordVerify(ctx, f.OldPassword).Err()
		},
		Phone: storedPhone,
		ValidateCommit: func(f ChangePasswordForm) error {
			return validate.ChangePasswordRequest(f.OldPassword, f.Password, f.Confirm)
		},
		Medium: storedPhone,
		Commit: func(ctx context.Context, f ChangePasswordForm) error {
			return client.ChangePassword(ctx, api.ChangePasswordRequest{Password: f.Password, ConfirmPassword: f.Confirm}).Err()
		},
	})
}

// NewForgotPassword sends an OTP to the entered phone, verifies it and resets
// the password.
func NewForgotPassword(client PasswordAPI) *Flow[ForgotPasswordForm] {
	formPhone := func(_ context.Context, f ForgotPasswordForm) (string, error) {
		return strings.TrimSpace(f.Phone), nil
	}

	var flow *Flow[ForgotPasswordForm]
	flow = NewFlow(client, Steps[ForgotPasswordForm]{
		ValidateRequest: func(f ForgotPasswordForm) error {
			return validate.ForgotPasswordRequest(f.Phone)
		},
		Phone: formPhone,
		ValidateCommit: func(f ForgotPasswordForm) error {
			return validate.NewPassword(f.Password, f.Confirm)
		},
		Medium: formPhone,
		Commit: func(ctx context.Context, f ForgotPasswordForm) error {
			return client.ResetPassword(ctx, api.ResetPasswordRequest{
				Phone:           strings.TrimSpace(f.Phone),
				Password:        f.Password,
				ConfirmPassword: f.Confirm,
				Type:            flow.purpose,
			}).Err()
		},
	})
	return flow
}
