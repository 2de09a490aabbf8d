// Package tests runs the client packages end to end against the fake
// brand-store API served by httptest.
package tests

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amdadul/brandstore-crm/internal/api"
	"github.com/amdadul/brandstore-crm/internal/auth"
	"github.com/amdadul/brandstore-crm/internal/fakeapi"
	"github.com/amdadul/brandstore-crm/internal/model"
	"github.com/amdadul/brandstore-crm/internal/session"
)

const (
	AdminEmail    = "admin@brandstore.test"
	AdminPassword = "admin-pass"
	StaffEmail    = "gulshan@brandstore.test"
	StaffPassword = "staff-pass"
	StaffPhone    = "01711111111"
)

// testEnv is a fake API plus a client wired the way cmd/crm wires it.
type testEnv struct {
	Server  *httptest.Server
	Client  *api.Client
	Store   session.Store
	Session *auth.Session

	mu    sync.Mutex
	calls []recordedCall
}

type recordedCall struct {
	Path   string
	Header http.Header
}

// newTestEnv starts a fake API with seed (nil for the built-in data) and a
// sqlite-backed session store in a temp dir.
func newTestEnv(t *testing.T, seed *fakeapi.Seed) *testEnv {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	fake, err := fakeapi.New(ctx, fakeapi.Options{
		DSN:       "sqlite://" + filepath.Join(dir, "api.db"),
		JWTSecret: "e2e-secret",
		OTPSalt:   "e2e-salt",
		DevMode:   true,
		Seed:      seed,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = fake.Close() })

	env := &testEnv{}
	env.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.mu.Lock()
		env.calls = append(env.calls, recordedCall{Path: r.URL.Path, Header: r.Header.Clone()})
		env.mu.Unlock()
		fake.Handler().ServeHTTP(w, r)
	}))
	t.Cleanup(env.Server.Close)

	store, closeStore, err := session.Open(ctx, "sqlite://"+filepath.Join(dir, "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeStore() })

	env.Store = store
	env.Client = api.New(env.Server.URL+"/api", store, api.WithHTTPClient(env.Server.Client()))
	env.Session = auth.NewSession(env.Client, store)
	return env
}

// lastHeader returns the request headers of the most recent API call.
func (e *testEnv) lastHeader() http.Header {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.calls) == 0 {
		return nil
	}
	return e.calls[len(e.calls)-1].Header
}

// paths lists the request paths seen so far.
func (e *testEnv) paths() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.calls))
	for _, c := range e.calls {
		out = append(out, c.Path)
	}
	return out
}

// staticSession serves a fixed token, like a second device that kept it.
type staticSession string

func (s staticSession) Read(context.Context) (*model.Session, error) {
	return &model.Session{Token: string(s), ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (e *testEnv) login(t *testing.T, email, password string) {
	t.Helper()
	st, err := e.Session.Login(context.Background(), email, password)
	require.NoError(t, err)
	require.True(t, st.LoggedIn)
}

// catalogSeed returns one store with n in-stock products, one unit each.
func catalogSeed(n int) *fakeapi.Seed {
	seed := &fakeapi.Seed{
		Stores: []fakeapi.SeedStore{{ID: 1, Name: "Main Store"}},
		Users: []fakeapi.SeedUser{{
			Name: "Head Office", Email: AdminEmail, Phone: "01700000000",
			Password: AdminPassword, EmployeeType: "2",
		}},
	}
	for i := 1; i <= n; i++ {
		seed.Units = append(seed.Units, fakeapi.SeedUnit{
			StoreID:  1,
			Product:  fmt.Sprintf("Product %03d", i),
			SerialNo: fmt.Sprintf("CAT-%03d", i),
			Status:   "in_stock",
		})
	}
	return seed
}
