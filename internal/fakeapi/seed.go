package fakeapi

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/amdadul/brandstore-crm/internal/repo"
	"github.com/amdadul/brandstore-crm/internal/serverauth"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is the initial data of the fake API.
type Seed struct {
	Stores []SeedStore `yaml:"stores"`
	Users  []SeedUser  `yaml:"users"`
	Units  []SeedUnit  `yaml:"units"`
}

type SeedStore struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

// SeedUser carries a plaintext password; it is hashed on load.
type SeedUser struct {
	Name         string `yaml:"name"`
	Email        string `yaml:"email"`
	Phone        string `yaml:"phone"`
	Password     string `yaml:"password"`
	EmployeeType string `yaml:"employee_type"`
	StoreID      *int64 `yaml:"store_id"`
}

type SeedUnit struct {
	StoreID  int64  `yaml:"store_id"`
	Product  string `yaml:"product"`
	SerialNo string `yaml:"serial_no"`
	Status   string `yaml:"status"`
}

// DefaultSeed returns the built-in demo data.
func DefaultSeed() (*Seed, error) {
	return ParseSeed(defaultSeed)
}

// LoadSeed reads a seed file; an empty path yields the built-in data.
func LoadSeed(path string) (*Seed, error) {
	if path == "" {
		return DefaultSeed()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	for _, u := range s.Units {
		switch u.Status {
		case "", repo.UnitShipped, repo.UnitInStock, repo.UnitSold:
		default:
			return nil, fmt.Errorf("unit %s: unknown status %q", u.SerialNo, u.Status)
		}
	}
	return &s, nil
}

// Apply inserts the seed through the repositories.
func (s *Seed) Apply(ctx context.Context, stores repo.StoreRepo, users repo.UserRepo, inventory repo.InventoryRepo) error {
	for _, st := range s.Stores {
		if _, err := stores.Create(ctx, repo.Store{ID: st.ID, Name: st.Name}); err != nil {
			return fmt.Errorf("seed store %q: %w", st.Name, err)
		}
	}
	for _, u := range s.Users {
		hash, err := serverauth.HashPassword(u.Password)
		if err != nil {
			return err
		}
		employeeType := u.EmployeeType
		if employeeType == "" {
			employeeType = "1"
		}
		_, err = users.Create(ctx, repo.User{
			Name:         u.Name,
			Email:        u.Email,
			Phone:        u.Phone,
			EmployeeType: employeeType,
			StoreID:      u.StoreID,
			PasswordHash: hash,
		})
		if err != nil {
			return fmt.Errorf("seed user %q: %w", u.Email, err)
		}
	}
	for _, u := range s.Units {
		err := inventory.AddUnit(ctx, repo.Unit{StoreID: u.StoreID, ProductName: u.Product, SerialNo: u.SerialNo, Status: u.Status})
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	return nil
}
