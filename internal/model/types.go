package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ManagementUserType is the stored user type that grants management views.
const ManagementUserType = "2"

// Role is the access level derived from the stored user type.
type Role int

const (
	RoleStandard Role = iota
	RoleManagement
)

func (r Role) String() string {
	if r == RoleManagement {
		return "management"
	}
	return "standard"
}

// RoleFor maps a stored user type to a Role.
func RoleFor(userType string) Role {
	if strings.TrimSpace(userType) == ManagementUserType {
		return RoleManagement
	}
	return RoleStandard
}

// Session is the persisted login state of the signed-in user
type Session struct {
	Token     string
	UserName  string
	UserPhone string
	UserType  string
	ExpiresAt time.Time
}

// Valid reports whether the session carries a token that has not expired at now.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.Token == "" || s.ExpiresAt.IsZero() {
		return false
	}
	return now.Before(s.ExpiresAt)
}

// Role returns the access level of the session owner.
func (s *Session) Role() Role {
	if s == nil {
		return RoleStandard
	}
	return RoleFor(s.UserType)
}

// Page is one server page of a list endpoint.
type Page[T any] struct {
	Items       []T
	CurrentPage int
	LastPage    int
}

// Normalize clamps the cursor so that 1 <= CurrentPage <= LastPage.
func (p *Page[T]) Normalize() {
	if p.CurrentPage < 1 {
		p.CurrentPage = 1
	}
	if p.LastPage < p.CurrentPage {
		p.LastPage = p.CurrentPage
	}
}

// PageMeta is the pagination block of list responses.
type PageMeta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page,omitempty"`
	Total       int `json:"total,omitempty"`
}

// Profile is the login payload.
type Profile struct {
	Token        string       `json:"token"`
	Name         string       `json:"name"`
	Phone        string       `json:"phone"`
	EmployeeType EmployeeType `json:"employee_type"`
}

// EmployeeType accepts the user type as either a JSON number or a JSON string.
type EmployeeType string

func (e *EmployeeType) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*e = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("employee_type: %w", err)
		}
		*e = EmployeeType(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("employee_type: %w", err)
	}
	*e = EmployeeType(n.String())
	return nil
}

// StockItem is one row of the inventory list.
type StockItem struct {
	ID          int64  `json:"id,omitempty"`
	ProductName string `json:"product_name"`
	Stock       int    `json:"stock"`
}

// InvoiceLine is one product line of an invoice.
type InvoiceLine struct {
	ID          int64  `json:"id"`
	ProductName string `json:"product_name"`
	SerialNo    string `json:"serial_no"`
	Quantity    int    `json:"quantity"`
}

// Serials splits the comma-joined serial field into individual codes.
func (l InvoiceLine) Serials() []string {
	return SplitSerials(l.SerialNo)
}

// Invoice is a stock-update invoice.
type Invoice struct {
	ID       int64         `json:"id"`
	OrderNo  string        `json:"order_no"`
	Date     string        `json:"date"`
	Quantity int           `json:"quantity"`
	Details  []InvoiceLine `json:"details"`
}

// SaleRecord is a sales invoice with the buyer's contact details.
type SaleRecord struct {
	ID       int64         `json:"id"`
	OrderNo  string        `json:"order_no"`
	Date     string        `json:"date"`
	Quantity int           `json:"quantity"`
	Name     string        `json:"name,omitempty"`
	Phone    string        `json:"phone,omitempty"`
	Address  string        `json:"address,omitempty"`
	Details  []InvoiceLine `json:"details"`
}

// VerifiedProduct is a product matched by serial number verification.
type VerifiedProduct struct {
	ID          int64  `json:"id"`
	ProductName string `json:"product_name"`
	SerialNo    string `json:"serial_no"`
	Quantity    int    `json:"quantity"`
}

// Store is an entry of the store dropdown.
type Store struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

// AllStores is the store selector value meaning every store.
const AllStores = ""

// SplitSerials splits a comma-joined serial field, trimming whitespace and
// dropping empty entries.
func SplitSerials(field string) []string {
	parts := strings.Split(field, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinSerials joins codes into the comma-separated wire form.
func JoinSerials(codes []string) string {
	return strings.Join(codes, ",")
}
