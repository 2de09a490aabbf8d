package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/amdadul/brandstore-crm/internal/model"
)

// Persisted keys.
const (
	KeyToken      = "userToken"
	KeyName       = "userName"
	KeyPhone      = "userPhone"
	KeyType       = "userType"
	KeyExpiration = "tokenExpiration"
)

// Keys lists every persisted key in write order.
var Keys = []string{KeyToken, KeyName, KeyPhone, KeyType, KeyExpiration}

var ErrIncompleteSession = errors.New("session must carry both token and expiry")

// Store persists the signed-in user's session across restarts.
// Read returns (nil, nil) when no session is stored.
type Store interface {
	Save(ctx context.Context, s model.Session) error
	Read(ctx context.Context) (*model.Session, error)
	Clear(ctx context.Context) error
}

func encode(s model.Session) (map[string]string, error) {
	if s.Token == "" || s.ExpiresAt.IsZero() {
		return nil, ErrIncompleteSession
	}
	return map[string]string{
		KeyToken:      s.Token,
		KeyName:       s.UserName,
		KeyPhone:      s.UserPhone,
		KeyType:       s.UserType,
		KeyExpiration: s.ExpiresAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

// decode rebuilds a session from stored values; a token without a parseable
// expiry (or the reverse) counts as no session.
func decode(values map[string]string) (*model.Session, error) {
	token := values[KeyToken]
	rawExp := strings.TrimSpace(values[KeyExpiration])
	if token == "" || rawExp == "" {
		return nil, nil
	}
	exp, err := time.Parse(time.RFC3339Nano, rawExp)
	if err != nil {
		log.Printf("session: ignoring stored session, unreadable %s %q", KeyExpiration, rawExp)
		return nil, nil
	}
	return &model.Session{
		Token:     token,
		UserName:  values[KeyName],
		UserPhone: values[KeyPhone],
		UserType:  values[KeyType],
		ExpiresAt: exp,
	}, nil
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(_ context.Context, s model.Session) error {
	values, err := encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.values = values
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Read(_ context.Context) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return decode(m.values)
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	m.values = nil
	m.mu.Unlock()
	return nil
}
