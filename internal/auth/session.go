package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/amdadul/brandstore-crm/internal/api"
	"github.com/amdadul/brandstore-crm/internal/model"
	"github.com/amdadul/brandstore-crm/internal/session"
	"github.com/amdadul/brandstore-crm/internal/validate"
)

// SessionTTL is how long a login stays valid on this device.
const SessionTTL = 10 * 24 * time.Hour

var (
	ErrNotLoggedIn  = errors.New("not logged in")
	ErrMissingToken = errors.New("login response carried no token")
	ErrRemoteLogout = errors.New("remote logout failed")
)

// AuthAPI is the part of the API client used for login and logout.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) api.Result[model.Profile]
	Logout(ctx context.Context) api.Result[api.Ack]
}

// Status is the login state shown to the user.
type Status struct {
	LoggedIn bool
	Role     model.Role
	UserName string
}

// Session owns the login lifecycle and is the only writer of the session store.
type Session struct {
	api   AuthAPI
	store session.Store
	now   func() time.Time

	mu     sync.Mutex
	status Status
}

// NewSession creates a logged-out session manager; call Restore at start-up.
func NewSession(client AuthAPI, store session.Store) *Session {
	return &Session{api: client, store: store, now: time.Now}
}

// WithClock replaces time.Now.
func (s *Session) WithClock(now func() time.Time) *Session {
	s.now = now
	return s
}

// Status returns the current login state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Login authenticates and persists the session. On failure nothing is stored.
func (s *Session) Login(ctx context.Context, email, password string) (Status, error) {
	email = strings.TrimSpace(email)
	if err := validate.Login(email, password); err != nil {
		return s.Status(), err
	}

	res := s.api.Login(ctx, email, password)
	if err := res.Err(); err != nil {
		return s.Status(), err
	}
	profile := res.Data
	if strings.TrimSpace(profile.Token) == "" {
		return s.Status(), ErrMissingToken
	}

	sess := model.Session{
		Token:     profile.Token,
		UserName:  profile.Name,
		UserPhone: profile.Phone,
		UserType:  string(profile.EmployeeType),
		ExpiresAt: s.expiry(profile.Token),
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return s.Status(), fmt.Errorf("save session: %w", err)
	}

	st := Status{LoggedIn: true, Role: sess.Role(), UserName: sess.UserName}
	s.setStatus(st)
	return st, nil
}

// Logout tells the server best-effort and always clears the local session.
// A remote failure is returned wrapped in ErrRemoteLogout after clearing.
func (s *Session) Logout(ctx context.Context) error {
	var remoteErr error
	current, err := s.store.Read(ctx)
	if err != nil {
		log.Printf("logout: read session: %v", err)
	}
	if current.Valid(s.now()) {
		if err := s.api.Logout(ctx).Err(); err != nil {
			log.Printf("logout: remote call failed: %v", err)
			remoteErr = fmt.Errorf("%w: %v", ErrRemoteLogout, err)
		}
	}

	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.setStatus(Status{})
	return remoteErr
}

// Restore reloads the stored session at start-up. An expired or unreadable
// session is cleared and reported as logged out.
func (s *Session) Restore(ctx context.Context) (Status, error) {
	current, err := s.store.Read(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("read session: %w", err)
	}
	if current == nil || !current.Valid(s.now()) {
		if err := s.store.Clear(ctx); err != nil {
			return Status{}, fmt.Errorf("clear expired session: %w", err)
		}
		s.setStatus(Status{})
		return Status{}, nil
	}

	st := Status{LoggedIn: true, Role: current.Role(), UserName: current.UserName}
	s.setStatus(st)
	return st, nil
}

// Current returns the valid stored session or ErrNotLoggedIn.
func (s *Session) Current(ctx context.Context) (*model.Session, error) {
	current, err := s.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if !current.Valid(s.now()) {
		return nil, ErrNotLoggedIn
	}
	return current, nil
}

// Phone returns the signed-in user's phone number.
func (s *Session) Phone(ctx context.Context) (string, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return "", err
	}
	return current.UserPhone, nil
}

func (s *Session) setStatus(st Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

// expiry is now+SessionTTL, or the token's own exp claim when the token is a
// JWT that expires sooner. Opaque tokens are not inspected further.
func (s *Session) expiry(token string) time.Time {
	exp := s.now().Add(SessionTTL)

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return exp
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(exp) {
		return claims.ExpiresAt.Time
	}
	return exp
}
