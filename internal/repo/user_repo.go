package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// UserRepo defines the interface for user repository operations
type UserRepo interface {
	Create(ctx context.Context, u User) (int64, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByPhone(ctx context.Context, phone string) (User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type userRepo struct {
	db *sqlx.DB
}

// NewUserRepo creates a new UserRepo instance
func NewUserRepo(db *sqlx.DB) UserRepo {
	return &userRepo{db: db}
}

const userColumns = `id, name, email, phone, employee_type, store_id, password_hash`

func (r *userRepo) Create(ctx context.Context, u User) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO users (name, email, phone, employee_type, store_id, password_hash)
		VALUES (?, ?, ?, ?, ?, ?)
	`), u.Name, u.Email, u.Phone, u.EmployeeType, u.StoreID, u.PasswordHash)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower(?)`, email)
}

func (r *userRepo) GetByPhone(ctx context.Context, phone string) (User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE phone = ?`, phone)
}

func (r *userRepo) getOne(ctx context.Context, query string, arg interface{}) (User, error) {
	var u User
	if err := r.db.GetContext(ctx, &u, r.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, fmt.Errorf("user %w", ErrNotFound)
		}
		return User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

func (r *userRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE users SET password_hash = ? WHERE id = ?`), passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %w", ErrNotFound)
	}
	return nil
}
