package fakeapi

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSeed(t *testing.T) {
	seed, err := DefaultSeed()
	require.NoError(t, err)
	assert.Len(t, seed.Stores, 2)
	assert.Len(t, seed.Users, 3)
	assert.NotEmpty(t, seed.Units)
	assert.Equal(t, "2", seed.Users[0].EmployeeType)
	assert.Nil(t, seed.Users[0].StoreID)
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
stores:
  - {id: 7, name: Airport}
units:
  - {store_id: 7, product: Buds, serial_no: X-1}
`), 0o600))

	seed, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, seed.Units, 1)
	assert.Equal(t, int64(7), seed.Units[0].StoreID)
	assert.Equal(t, "", seed.Units[0].Status)

	_, err = LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseSeed_UnknownStatus(t *testing.T) {
	_, err := ParseSeed([]byte(`units: [{store_id: 1, product: P, serial_no: S, status: lost}]`))
	assert.ErrorContains(t, err, "unknown status")
}

func TestNew_RejectsNonSqlite(t *testing.T) {
	_, err := New(context.Background(), Options{DSN: "postgres://u:p@localhost/db", JWTSecret: "s", OTPSalt: "s"})
	assert.ErrorContains(t, err, "only sqlite")

	_, err = New(context.Background(), Options{DSN: "sqlite://x.db"})
	assert.Error(t, err)
}

func TestNew_SeedsOnce(t *testing.T) {
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "api.db")
	opts := Options{DSN: dsn, JWTSecret: "s", OTPSalt: "s", DevMode: true}

	first, err := New(context.Background(), opts)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := New(context.Background(), opts)
	require.NoError(t, err, "reopening a seeded database must not insert duplicates")
	require.NoError(t, second.Close())
}
