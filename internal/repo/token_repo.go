package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// TokenRepo tracks access tokens revoked by logout until they expire.
type TokenRepo interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type tokenRepo struct {
	db *sqlx.DB
}

// NewTokenRepo creates a new TokenRepo instance
func NewTokenRepo(db *sqlx.DB) TokenRepo {
	return &tokenRepo{db: db}
}

func (r *tokenRepo) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)
		ON CONFLICT (jti) DO NOTHING
	`), jti, expiresAt.Unix())
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	// expired entries can never match a valid token again
	_, _ = r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM revoked_tokens WHERE expires_at < ?`), time.Now().Unix())
	return nil
}

func (r *tokenRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`), jti); err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}
