package adminapi

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// DefaultTokenKey is the fixed storage key the bearer token lives under.
const DefaultTokenKey = "rensights_admin_token"

// TokenStore persists the bearer token in durable storage.
// LoadToken returns "" and a nil error when nothing is stored.
type TokenStore interface {
	LoadToken(ctx context.Context, key string) (string, error)
	SaveToken(ctx context.Context, key, token string) error
	DeleteToken(ctx context.Context, key string) error
}

// Session holds the one bearer token shared by every call made through a
// Client. It is built once at the application boundary and injected.
type Session struct {
	mu    sync.RWMutex
	store TokenStore
	key   string
	token string
}

// NewSession reads the stored token once and keeps it in memory.
func NewSession(ctx context.Context, store TokenStore, key string) (*Session, error) {
	if store == nil {
		store = NewMemoryTokenStore()
	}
	if key == "" {
		key = DefaultTokenKey
	}
	token, err := store.LoadToken(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("adminapi: load session token: %w", err)
	}
	return &Session{store: store, key: key, token: token}, nil
}

// Token returns the current bearer token, or "" when signed out.
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token is held.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// SetToken persists the token and then makes it current.
func (s *Session) SetToken(ctx context.Context, token string) error {
	if s == nil {
		return errors.New("adminapi: session is nil")
	}
	if token == "" {
		return errors.New("adminapi: token is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SaveToken(ctx, s.key, token); err != nil {
		return fmt.Errorf("adminapi: persist session token: %w", err)
	}
	s.token = token
	return nil
}

// ClearToken removes the token from memory and durable storage. The
// in-memory copy is dropped even if the store fails.
func (s *Session) ClearToken(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	if err := s.store.DeleteToken(ctx, s.key); err != nil {
		return fmt.Errorf("adminapi: delete session token: %w", err)
	}
	return nil
}

// MemoryTokenStore keeps tokens in process memory.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewMemoryTokenStore builds an empty store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: map[string]string{}}
}

func (m *MemoryTokenStore) LoadToken(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens[key], nil
}

func (m *MemoryTokenStore) SaveToken(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[key] = token
	return nil
}

func (m *MemoryTokenStore) DeleteToken(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, key)
	return nil
}
