package inaturalist

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"naturatag/internal/services"
)

// TokenLifetime is how long a pasted API token stays usable. The boundary is
// exclusive: a token aged exactly TokenLifetime is already invalid.
const TokenLifetime = 24 * time.Hour

// ErrTokenMissing is returned when no token has been saved yet.
var ErrTokenMissing = errors.New("no API token saved")

// ErrTokenExpired is returned when the saved token aged out of its window.
var ErrTokenExpired = errors.New("API token expired")

type tokenState struct {
	Token    string    `json:"token"`
	IssuedAt time.Time `json:"issued_at"`
}

// TokenManagerOption customises TokenManager construction.
type TokenManagerOption func(*TokenManager)

// WithTokenStore injects a custom persistence layer.
func WithTokenStore(store TokenStore) TokenManagerOption {
	return func(m *TokenManager) {
		m.store = store
	}
}

// WithClock overrides the time source (used in tests).
func WithClock(now func() time.Time) TokenManagerOption {
	return func(m *TokenManager) {
		m.now = now
	}
}

// TokenManager persists the pasted API token and answers freshness queries.
// The check is purely local; no network call is involved.
type TokenManager struct {
	store TokenStore
	now   func() time.Time

	stateMu sync.RWMutex
	state   tokenState
}

// NewTokenManager builds a TokenManager persisting state at statePath.
func NewTokenManager(statePath string, opts ...TokenManagerOption) (*TokenManager, error) {
	mgr := &TokenManager{
		store: NewFileTokenStore(statePath),
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(mgr)
	}

	state, err := mgr.store.Load()
	if err != nil {
		return nil, err
	}
	mgr.state = state
	return mgr, nil
}

// Save stores a freshly pasted token and resets the freshness window.
func (m *TokenManager) Save(token string) error {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return services.Wrap(services.ErrPrecondition, "token", "save", "token is empty", nil)
	}

	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	updated := tokenState{Token: trimmed, IssuedAt: m.now().UTC()}
	if err := m.store.Save(updated); err != nil {
		return err
	}
	m.state = updated
	return nil
}

// Token returns the saved token when it is still fresh.
func (m *TokenManager) Token() (string, error) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	if strings.TrimSpace(m.state.Token) == "" {
		return "", ErrTokenMissing
	}
	if m.age() >= TokenLifetime {
		return "", fmt.Errorf("%w: saved %s ago", ErrTokenExpired, m.age().Round(time.Minute))
	}
	return m.state.Token, nil
}

// Valid reports whether the saved token is usable, with a human-readable
// reason when it is not. Fails closed.
func (m *TokenManager) Valid() (bool, string) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	if strings.TrimSpace(m.state.Token) == "" {
		return false, "no API token saved"
	}
	if age := m.age(); age >= TokenLifetime {
		return false, fmt.Sprintf("token expired (saved %s ago, window is %s)", age.Round(time.Minute), TokenLifetime)
	}
	return true, ""
}

// Age returns how long ago the token was saved. The boolean is false when no
// token exists.
func (m *TokenManager) Age() (time.Duration, bool) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	if strings.TrimSpace(m.state.Token) == "" {
		return 0, false
	}
	return m.age(), true
}

func (m *TokenManager) age() time.Duration {
	return m.now().Sub(m.state.IssuedAt)
}
