package repo

import (
	"embed"
	"errors"
	"time"
)

// Migrations holds the brand-store schema.
//
//go:embed migrations/*.sql
var Migrations embed.FS

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// User is a brand-store employee account
type User struct {
	ID           int64  `db:"id"`
	Name         string `db:"name"`
	Email        string `db:"email"`
	Phone        string `db:"phone"`
	EmployeeType string `db:"employee_type"`
	StoreID      *int64 `db:"store_id"`
	PasswordHash string `db:"password_hash"`
}

// Unit is one serialised product unit
type Unit struct {
	ID          int64  `db:"id"`
	StoreID     int64  `db:"store_id"`
	ProductName string `db:"product_name"`
	SerialNo    string `db:"serial_no"`
	Status      string `db:"status"`
}

// Unit statuses.
const (
	UnitShipped = "shipped"
	UnitInStock = "in_stock"
	UnitSold    = "sold"
)

// Invoice kinds.
const (
	KindStock = "stock"
	KindSale  = "sale"
)

// OtpSession represents an OTP session for phone verification
type OtpSession struct {
	ID            string
	PhoneNumber   string
	OTPHash       []byte
	Purpose       int
	ExpiresAt     time.Time
	ConsumedAt    *time.Time
	VerifiedAt    *time.Time
	CreatedAt     time.Time
	AttemptCount  int
	LastAttemptAt *time.Time
}

func unixPtr(v *int64) *time.Time {
	if v == nil {
		return nil
	}
	t := time.Unix(*v, 0)
	return &t
}
