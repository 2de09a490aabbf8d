package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	MinPasswordLength = 8
	DateLayout        = "2006-01-02"
)

var phonePattern = regexp.MustCompile(`^[0-9]{11}$`)

// Errors maps a form field to its first validation message.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e[f]))
	}
	return strings.Join(parts, "; ")
}

// Add records msg for field unless the field already has a message.
func (e Errors) Add(field, msg string) {
	if _, exists := e[field]; !exists {
		e[field] = msg
	}
}

// Err returns e as an error, or nil when empty.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func required(errs Errors, field, value, label string) bool {
	if strings.TrimSpace(value) == "" {
		errs.Add(field, label+" is required")
		return false
	}
	return true
}

func newPassword(errs Errors, pwField, password, confirmField, confirm string) {
	if required(errs, pwField, password, "Password") && len(password) < MinPasswordLength {
		errs.Add(pwField, fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	if required(errs, confirmField, confirm, "Confirm password") && confirm != password {
		errs.Add(confirmField, "Passwords do not match")
	}
}

// Login checks the login form.
func Login(email, password string) error {
	errs := Errors{}
	required(errs, "email", email, "Email")
	required(errs, "password", password, "Password")
	return errs.Err()
}

// ChangePasswordRequest checks the first step of the change-password form.
func ChangePasswordRequest(oldPassword, password, confirm string) error {
	errs := Errors{}
	required(errs, "old_password", oldPassword, "Old password")
	newPassword(errs, "password", password, "c_password", confirm)
	return errs.Err()
}

// ForgotPasswordRequest checks the phone step of the forgot-password form.
func ForgotPasswordRequest(phone string) error {
	errs := Errors{}
	required(errs, "phone", phone, "Phone")
	return errs.Err()
}

// NewPassword checks a password/confirm pair using the reset form's field names.
func NewPassword(password, confirm string) error {
	errs := Errors{}
	newPassword(errs, "password", password, "confirm_password", confirm)
	return errs.Err()
}

// Otp checks the OTP field.
func Otp(code string) error {
	errs := Errors{}
	required(errs, "otp", code, "OTP")
	return errs.Err()
}

// Sale checks the sale form. Address is optional.
func Sale(name, phone, serials string) error {
	errs := Errors{}
	required(errs, "name", name, "Name")
	if required(errs, "phone", phone, "Phone") && !phonePattern.MatchString(strings.TrimSpace(phone)) {
		errs.Add("phone", "Phone must be 11 digits")
	}
	required(errs, "serial_no", serials, "Serial number")
	return errs.Err()
}

// Serials checks a serial field before verification or stock update.
func Serials(field string) error {
	errs := Errors{}
	required(errs, "serial_no", field, "Serial number")
	return errs.Err()
}

// SalesReport checks the sales report form. storeSelected is false until the
// user picks a store; "All Store" counts as a selection.
func SalesReport(start, end string, storeSelected bool) error {
	errs := Errors{}
	var from, to time.Time
	var err error
	if required(errs, "start_date", start, "Start date") {
		if from, err = time.Parse(DateLayout, start); err != nil {
			errs.Add("start_date", "Start date must be YYYY-MM-DD")
		}
	}
	if required(errs, "end_date", end, "End date") {
		if to, err = time.Parse(DateLayout, end); err != nil {
			errs.Add("end_date", "End date must be YYYY-MM-DD")
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		errs.Add("end_date", "End date must not be before start date")
	}
	if !storeSelected {
		errs.Add("store_id", "Please select a store")
	}
	return errs.Err()
}

// StockReport checks the stock report form.
func StockReport(storeSelected bool) error {
	if !storeSelected {
		return Errors{"store_id": "Please select a store"}
	}
	return nil
}

// Digits reports whether s is a non-empty run of ASCII digits.
func Digits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
