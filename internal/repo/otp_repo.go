package repo

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// OtpRepo defines the interface for OTP session repository operations
type OtpRepo interface {
	CreateOrReplaceSession(ctx context.Context, phone, otpHashHex string, purpose int, expiresAt time.Time) (string, error)
	GetActiveSessionByPhone(ctx context.Context, phone string, purpose int) (OtpSession, error)
	GetVerifiedSessionByPhone(ctx context.Context, phone string, purpose int, since time.Time) (OtpSession, error)
	MarkVerified(ctx context.Context, sessionID string) error
	MarkConsumed(ctx context.Context, sessionID string) error
	IncrementAttempt(ctx context.Context, sessionID string) (newAttemptCount int, err error)
	CountRecentRequests(ctx context.Context, phone string, since time.Time) (int, error)
}

type otpRepo struct {
	db *sqlx.DB
}

// NewOtpRepo creates a new OtpRepo instance
func NewOtpRepo(db *sqlx.DB) OtpRepo {
	return &otpRepo{db: db}
}

type otpRow struct {
	ID            string `db:"id"`
	PhoneNumber   string `db:"phone_number"`
	OTPHash       string `db:"otp_hash"`
	Purpose       int    `db:"purpose"`
	ExpiresAt     int64  `db:"expires_at"`
	ConsumedAt    *int64 `db:"consumed_at"`
	VerifiedAt    *int64 `db:"verified_at"`
	CreatedAt     int64  `db:"created_at"`
	AttemptCount  int    `db:"attempt_count"`
	LastAttemptAt *int64 `db:"last_attempt_at"`
}

func (r otpRow) session() (OtpSession, error) {
	hash, err := hex.DecodeString(r.OTPHash)
	if err != nil {
		return OtpSession{}, fmt.Errorf("decode otp_hash: %w", err)
	}
	return OtpSession{
		ID:            r.ID,
		PhoneNumber:   r.PhoneNumber,
		OTPHash:       hash,
		Purpose:       r.Purpose,
		ExpiresAt:     time.Unix(r.ExpiresAt, 0),
		ConsumedAt:    unixPtr(r.ConsumedAt),
		VerifiedAt:    unixPtr(r.VerifiedAt),
		CreatedAt:     time.Unix(r.CreatedAt, 0),
		AttemptCount:  r.AttemptCount,
		LastAttemptAt: unixPtr(r.LastAttemptAt),
	}, nil
}

const otpColumns = `id, phone_number, otp_hash, purpose, expires_at, consumed_at, verified_at, created_at, attempt_count, last_attempt_at`

// CreateOrReplaceSession keeps at most one open session per phone: it
// consumes any existing one and inserts the new session in one transaction.
func (r *otpRepo) CreateOrReplaceSession(ctx context.Context, phone, otpHashHex string, purpose int, expiresAt time.Time) (string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	_, err = tx.ExecContext(ctx, tx.Rebind(`
		UPDATE otp_sessions SET consumed_at = ? WHERE phone_number = ? AND consumed_at IS NULL
	`), now, phone)
	if err != nil {
		return "", fmt.Errorf("consume existing sessions: %w", err)
	}

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO otp_sessions (id, phone_number, otp_hash, purpose, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), id, phone, otpHashHex, purpose, expiresAt.Unix(), now)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// GetActiveSessionByPhone returns the latest unverified, unconsumed, unexpired session for the phone.
func (r *otpRepo) GetActiveSessionByPhone(ctx context.Context, phone string, purpose int) (OtpSession, error) {
	return r.getOne(ctx, `
		SELECT `+otpColumns+` FROM otp_sessions
		WHERE phone_number = ? AND purpose = ?
		  AND consumed_at IS NULL AND verified_at IS NULL
		  AND expires_at > ?
		ORDER BY created_at DESC
		LIMIT 1
	`, phone, purpose, time.Now().Unix())
}

// GetVerifiedSessionByPhone returns the latest verified, unconsumed session verified after since.
func (r *otpRepo) GetVerifiedSessionByPhone(ctx context.Context, phone string, purpose int, since time.Time) (OtpSession, error) {
	return r.getOne(ctx, `
		SELECT `+otpColumns+` FROM otp_sessions
		WHERE phone_number = ? AND purpose = ?
		  AND consumed_at IS NULL AND verified_at IS NOT NULL
		  AND verified_at >= ?
		ORDER BY verified_at DESC
		LIMIT 1
	`, phone, purpose, since.Unix())
}

func (r *otpRepo) getOne(ctx context.Context, query string, args ...interface{}) (OtpSession, error) {
	var row otpRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return OtpSession{}, fmt.Errorf("no active session: %w", ErrNotFound)
		}
		return OtpSession{}, fmt.Errorf("query session: %w", err)
	}
	return row.session()
}

func (r *otpRepo) MarkVerified(ctx context.Context, sessionID string) error {
	return r.stamp(ctx, "verified_at", sessionID)
}

func (r *otpRepo) MarkConsumed(ctx context.Context, sessionID string) error {
	return r.stamp(ctx, "consumed_at", sessionID)
}

func (r *otpRepo) stamp(ctx context.Context, column, sessionID string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE otp_sessions SET `+column+` = ? WHERE id = ?`), time.Now().Unix(), sessionID)
	if err != nil {
		return fmt.Errorf("set %s: %w", column, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %w", ErrNotFound)
	}
	return nil
}

// IncrementAttempt bumps attempt_count and last_attempt_at; returns the new attempt_count.
func (r *otpRepo) IncrementAttempt(ctx context.Context, sessionID string) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE otp_sessions SET attempt_count = attempt_count + 1, last_attempt_at = ? WHERE id = ?
	`), time.Now().Unix(), sessionID)
	if err != nil {
		return 0, fmt.Errorf("increment attempt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, fmt.Errorf("session %w", ErrNotFound)
	}

	var newCount int
	if err := tx.GetContext(ctx, &newCount, tx.Rebind(`SELECT attempt_count FROM otp_sessions WHERE id = ?`), sessionID); err != nil {
		return 0, fmt.Errorf("read attempt count: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return newCount, nil
}

// CountRecentRequests returns the number of sessions created for the phone since the given time (for rate limiting).
func (r *otpRepo) CountRecentRequests(ctx context.Context, phone string, since time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, r.db.Rebind(`
		SELECT COUNT(*) FROM otp_sessions WHERE phone_number = ? AND created_at >= ?
	`), phone, since.Unix())
	if err != nil {
		return 0, fmt.Errorf("count recent requests: %w", err)
	}
	return count, nil
}
