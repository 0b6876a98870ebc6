// Package session keeps one builder workspace per authenticated operator.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/f2023065371-lang/fazal-portfolio/internal/apperr"
	"github.com/f2023065371-lang/fazal-portfolio/internal/document"
	"github.com/f2023065371-lang/fazal-portfolio/internal/models"
)

// Workspace is the state unlocked by a successful login: the operator's
// contact block and their draft.
type Workspace struct {
	ID        string
	Contact   models.Contact
	Draft     *document.Draft
	ExpiresAt time.Time
}

// Claims are the JWT claims of a session token.
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
}

// Manager issues session tokens and owns the workspaces behind them.
type Manager struct {
	secret   []byte
	ttl      time.Duration
	newDraft func() *document.Draft
	now      func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a manager. newDraft is called once per opened session.
func NewManager(secret []byte, ttl time.Duration, newDraft func() *document.Draft, opts ...ManagerOption) *Manager {
	m := &Manager{
		secret:     secret,
		ttl:        ttl,
		newDraft:   newDraft,
		now:        time.Now,
		workspaces: make(map[string]*Workspace),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open starts a session for contact and returns its signed token.
func (m *Manager) Open(contact models.Contact) (string, *Workspace, error) {
	now := m.now()
	ws := &Workspace{
		ID:        uuid.NewString(),
		Contact:   contact,
		Draft:     m.newDraft(),
		ExpiresAt: now.Add(m.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ws.ID,
			Subject:   contact.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(ws.ExpiresAt),
		},
		Name: contact.Name,
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("session: sign token: %w", err)
	}

	m.mu.Lock()
	m.workspaces[ws.ID] = ws
	m.mu.Unlock()
	return signed, ws, nil
}

// Lookup returns the workspace behind a token.
func (m *Manager) Lookup(token string) (*Workspace, error) {
	id, err := m.parse(token)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.workspaces[id]
	if !ok {
		return nil, apperr.ErrUnauthenticated
	}
	if !m.now().Before(ws.ExpiresAt) {
		delete(m.workspaces, id)
		return nil, apperr.ErrUnauthenticated
	}
	return ws, nil
}

// Close destroys the session and its draft.
func (m *Manager) Close(token string) error {
	id, err := m.parse(token)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workspaces[id]; !ok {
		return apperr.ErrUnauthenticated
	}
	delete(m.workspaces, id)
	return nil
}

// Sweep drops expired workspaces and returns how many were removed.
func (m *Manager) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, ws := range m.workspaces {
		if !now.Before(ws.ExpiresAt) {
			delete(m.workspaces, id)
			n++
		}
	}
	return n
}

// Len returns the number of live workspaces.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workspaces)
}

func (m *Manager) parse(token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid || claims.ID == "" {
		return "", apperr.ErrUnauthenticated
	}
	return claims.ID, nil
}
