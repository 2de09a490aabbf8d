package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/amdadul/brandstore-crm/internal/middleware"
	"github.com/amdadul/brandstore-crm/internal/model"
	"github.com/amdadul/brandstore-crm/internal/serverauth"
	"github.com/amdadul/brandstore-crm/internal/validate"
)

// AuthHandler handles login, logout and the password endpoints
type AuthHandler struct {
	authService     *serverauth.AuthService
	otpProvider     serverauth.OtpProvider
	devMode         bool
	ipLimiter       *middleware.RateLimiter
	verifyIPLimiter *middleware.RateLimiter
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService *serverauth.AuthService,
	otpProvider serverauth.OtpProvider,
	devMode bool,
) *AuthHandler {
	// IP rate limiters: 10 per 10min for send-otp, 20 per 10min for verify-otp (phone limit is DB-based)
	return &AuthHandler{
		authService:     authService,
		otpProvider:     otpProvider,
		devMode:         devMode,
		ipLimiter:       middleware.NewRateLimiter(10*time.Minute, 10),
		verifyIPLimiter: middleware.NewRateLimiter(10*time.Minute, 20),
	}
}

// Close stops the rate limiter goroutines.
func (h *AuthHandler) Close() {
	h.ipLimiter.Stop()
	h.verifyIPLimiter.Stop()
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordVerifyRequest struct {
	OldPassword string `json:"old_password"`
}

type changePasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"c_password"`
}

type sendOtpRequest struct {
	Phone      string `json:"phone"`
	Type       int    `json:"type"`
	CheckPlace int    `json:"check_place"`
}

type sendOtpResponse struct {
	DevOTP string `json:"dev_otp,omitempty"`
}

type verifyOtpRequest struct {
	Medium     string `json:"medium"`
	Otp        string `json:"otp"`
	Type       int    `json:"type"`
	CheckPlace int    `json:"check_place"`
}

type resetPasswordRequest struct {
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Type            int    `json:"type"`
}

// HandleLogin handles POST /brand-store/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Login(req.Email, req.Password); err != nil {
		respondInvalid(w, err)
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, serverauth.ErrInvalidCredentials) {
			respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	respondOK(w, model.Profile{
		Token:        token,
		Name:         user.Name,
		Phone:        user.Phone,
		EmployeeType: model.EmployeeType(user.EmployeeType),
	}, "Login successful")
}

// HandleLogout handles POST /brand-store/logout (protected)
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}
	if err := h.authService.Logout(r.Context(), claims); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to logout")
		return
	}
	respondOK(w, nil, "Logged out successfully")
}

// HandleChangePasswordVerify handles POST /brand-store/change-password-verify (protected)
func (h *AuthHandler) HandleChangePasswordVerify(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req changePasswordVerifyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.OldPassword) == "" {
		respondInvalid(w, validate.Errors{"old_password": "Old password is required"})
		return
	}
	if err := h.authService.CheckPassword(r.Context(), user, req.OldPassword); err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, "Old password does not match")
		return
	}
	respondOK(w, nil, "Password matched")
}

// HandleChangePassword handles POST /brand-store/change-password (protected)
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req changePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	errs := validate.Errors{}
	if err := validate.NewPassword(req.Password, req.ConfirmPassword); err != nil {
		for f, msg := range err.(validate.Errors) {
			if f == "confirm_password" {
				f = "c_password"
			}
			errs.Add(f, msg)
		}
		respondInvalid(w, errs)
		return
	}

	if err := h.authService.ChangePassword(r.Context(), user, req.Password); err != nil {
		if errors.Is(err, serverauth.ErrNotVerified) {
			respondWithError(w, http.StatusForbidden, "Please verify the OTP first")
			return
		}
		logMaskedPhone(user.Phone, "Failed to change password: %v", err)
		respondWithError(w, http.StatusInternalServerError, "failed to change password")
		return
	}
	respondOK(w, nil, "Password changed successfully")
}

// HandleSendOtp handles POST /send-otp-phone
func (h *AuthHandler) HandleSendOtp(w http.ResponseWriter, r *http.Request) {
	var req sendOtpRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Phone = strings.TrimSpace(req.Phone)
	if err := validate.ForgotPasswordRequest(req.Phone); err != nil {
		respondInvalid(w, err)
		return
	}

	if !h.ipLimiter.Allow(middleware.GetIPKey(r)) {
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	if err := h.authService.KnownPhone(r.Context(), req.Phone); err != nil {
		logMaskedPhone(req.Phone, "OTP requested for unknown phone")
		respondWithError(w, http.StatusUnprocessableEntity, "No account found with this phone number")
		return
	}

	if err := h.otpProvider.RequestOTP(r.Context(), req.Phone, req.Type); err != nil {
		logMaskedPhone(req.Phone, "Failed to request OTP: %v", err)
		if errors.Is(err, serverauth.ErrRateLimited) {
			respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to send OTP")
		return
	}

	var resp sendOtpResponse
	if h.devMode {
		resp.DevOTP = serverauth.DevOTP
	}
	respondOK(w, resp, "OTP sent successfully")
}

// HandleVerifyOtp handles POST /verify-otp
func (h *AuthHandler) HandleVerifyOtp(w http.ResponseWriter, r *http.Request) {
	var req verifyOtpRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Medium = strings.TrimSpace(req.Medium)
	req.Otp = strings.TrimSpace(req.Otp)
	if req.Medium == "" {
		respondInvalid(w, validate.Errors{"medium": "Phone is required"})
		return
	}
	if err := validate.Otp(req.Otp); err != nil {
		respondInvalid(w, err)
		return
	}

	if !h.verifyIPLimiter.Allow(middleware.GetIPKey(r)) {
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	if err := h.otpProvider.VerifyOTP(r.Context(), req.Medium, req.Otp, req.Type); err != nil {
		logMaskedPhone(req.Medium, "OTP verification failed: %v", err)
		if errors.Is(err, serverauth.ErrTooFast) {
			respondWithError(w, http.StatusTooManyRequests, err.Error())
			return
		}
		respondWithError(w, http.StatusUnprocessableEntity, "Invalid or expired OTP")
		return
	}
	respondOK(w, nil, "OTP verified")
}

// HandleResetPassword handles POST /reset-password-phone
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Phone = strings.TrimSpace(req.Phone)
	errs := validate.Errors{}
	if err := validate.ForgotPasswordRequest(req.Phone); err != nil {
		for f, msg := range err.(validate.Errors) {
			errs.Add(f, msg)
		}
	}
	if err := validate.NewPassword(req.Password, req.ConfirmPassword); err != nil {
		for f, msg := range err.(validate.Errors) {
			errs.Add(f, msg)
		}
	}
	if len(errs) > 0 {
		respondInvalid(w, errs)
		return
	}

	err := h.authService.ResetPassword(r.Context(), req.Phone, req.Password, req.Type)
	switch {
	case err == nil:
		respondOK(w, nil, "Password reset successfully")
	case errors.Is(err, serverauth.ErrUnknownPhone):
		respondWithError(w, http.StatusUnprocessableEntity, "No account found with this phone number")
	case errors.Is(err, serverauth.ErrNotVerified):
		respondWithError(w, http.StatusForbidden, "Please verify the OTP first")
	default:
		logMaskedPhone(req.Phone, "Failed to reset password: %v", err)
		respondWithError(w, http.StatusInternalServerError, "failed to reset password")
	}
}
