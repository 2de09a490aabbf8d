package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/amdadul/brandstore-crm/internal/repo"
	"github.com/amdadul/brandstore-crm/internal/serverauth"
)

type contextKey string

const (
	userKey   contextKey = "user"
	claimsKey contextKey = "claims"
)

// RevocationChecker reports whether an access token id was logged out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthMiddleware validates JWT tokens, rejects revoked ones, loads the user
// from DB and attaches user and claims to the context
func AuthMiddleware(jwtService *serverauth.JWTService, revoked RevocationChecker, userRepo repo.UserRepo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				RespondWithError(w, http.StatusUnauthorized, "Unauthenticated.")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			tokenString := strings.TrimSpace(parts[1])
			if tokenString == "" {
				RespondWithError(w, http.StatusUnauthorized, "Unauthenticated.")
				return
			}

			claims, err := jwtService.VerifyToken(tokenString)
			if err != nil {
				RespondWithError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			if isRevoked, err := revoked.IsRevoked(r.Context(), claims.ID); err != nil || isRevoked {
				RespondWithError(w, http.StatusUnauthorized, "Unauthenticated.")
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				RespondWithError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			user, err := userRepo.GetByID(r.Context(), userID)
			if err != nil {
				RespondWithError(w, http.StatusUnauthorized, "user not found")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, &user)
			ctx = context.WithValue(ctx, claimsKey, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser returns the user attached to the request context (set by AuthMiddleware)
func GetUser(ctx context.Context) (*repo.User, bool) {
	u, ok := ctx.Value(userKey).(*repo.User)
	return u, ok
}

// GetClaims returns the verified token claims of the request
func GetClaims(ctx context.Context) (*serverauth.JWTClaims, bool) {
	c, ok := ctx.Value(claimsKey).(*serverauth.JWTClaims)
	return c, ok
}

// RespondWithError sends a JSON failure envelope
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]interface{}{"success": false, "message": message}
	_ = json.NewEncoder(w).Encode(response)
}
