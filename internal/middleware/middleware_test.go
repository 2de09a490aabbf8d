package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amdadul/brandstore-crm/internal/db"
	"github.com/amdadul/brandstore-crm/internal/repo"
	"github.com/amdadul/brandstore-crm/internal/serverauth"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 2)
	defer rl.Stop()

	assert.True(t, rl.Allow("ip:1"))
	assert.True(t, rl.Allow("ip:1"))
	assert.False(t, rl.Allow("ip:1"))
	assert.True(t, rl.Allow("ip:2"), "keys are limited independently")
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 1)
	defer rl.Stop()
	h := RateLimitMiddleware(rl, GetIPKey)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/send-otp-phone", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Too many requests, please try again later."}`, rec.Body.String())
}

func TestGetIPKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "ip:10.0.0.1", GetIPKey(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "ip:203.0.113.7", GetIPKey(req))
}

func TestAuthMiddleware(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "api.db"), repo.Migrations)
	require.NoError(t, err)
	defer database.Close()

	users := repo.NewUserRepo(database)
	tokens := repo.NewTokenRepo(database)
	id, err := users.Create(ctx, repo.User{Name: "Rahim", Email: "r@example.com", Phone: "01711111111", EmployeeType: "2", PasswordHash: "h"})
	require.NoError(t, err)

	jwtService := serverauth.NewJWTService("secret")
	token, err := jwtService.SignAccessToken(id, "2")
	require.NoError(t, err)

	var seen *repo.User
	h := AuthMiddleware(jwtService, tokens, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUser(r.Context())
		_, ok := GetClaims(r.Context())
		assert.True(t, ok)
		w.WriteHeader(http.StatusOK)
	}))

	call := func(authHeader string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/brand-store/stock/inventories", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, call(""))
	assert.Equal(t, http.StatusUnauthorized, call("Token "+token))
	assert.Equal(t, http.StatusUnauthorized, call("Bearer not-a-jwt"))

	other, err := serverauth.NewJWTService("other-secret").SignAccessToken(id, "2")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+other))

	assert.Equal(t, http.StatusOK, call("Bearer "+token))
	require.NotNil(t, seen)
	assert.Equal(t, "Rahim", seen.Name)

	claims, err := jwtService.VerifyToken(token)
	require.NoError(t, err)
	require.NoError(t, tokens.Revoke(ctx, claims.ID, claims.ExpiresAt.Time))
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+token))
}
