package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/reservation-console/internal/core/domain"
	"github.com/99minutos/reservation-console/internal/core/ports"
	"github.com/99minutos/reservation-console/internal/pkg/metrics"
)

// Storage keys the session is persisted under.
const (
	userKey  = "user"
	tokenKey = "token"
)

// undefinedMarker is what a serialised missing value looks like in storage.
const undefinedMarker = "undefined"

// SessionStore holds one visitor's session and mirrors every change into
// durable storage so the session survives a restart.
type SessionStore struct {
	mu      sync.RWMutex
	session domain.Session
	storage ports.LocalStorage
	log     zerolog.Logger
}

// OpenSessionStore restores the persisted session. It never fails: unusable
// persisted state is cleared and the store starts unauthenticated.
func OpenSessionStore(ctx context.Context, storage ports.LocalStorage, log zerolog.Logger) *SessionStore {
	s := &SessionStore{storage: storage, log: log}

	session, err := s.restore(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("discarding persisted session")
		if rmErr := storage.RemoveItem(ctx, userKey, tokenKey); rmErr != nil {
			log.Error().Err(rmErr).Msg("failed to clear persisted session")
		}
		return s
	}
	if session.Authenticated() {
		metrics.SessionEventsTotal.WithLabelValues("restored").Inc()
	}
	s.session = session
	return s
}

func (s *SessionStore) restore(ctx context.Context) (domain.Session, error) {
	rawUser, okUser, err := s.storage.GetItem(ctx, userKey)
	if err != nil {
		return domain.Session{}, fmt.Errorf("read user: %w", err)
	}
	token, okToken, err := s.storage.GetItem(ctx, tokenKey)
	if err != nil {
		return domain.Session{}, fmt.Errorf("read token: %w", err)
	}

	if !okUser && !okToken {
		return domain.Session{}, nil
	}
	if !okUser || !okToken || rawUser == undefinedMarker || token == undefinedMarker || token == "" {
		return domain.Session{}, errors.New("incomplete session")
	}

	var identity *domain.Identity
	if err := json.Unmarshal([]byte(rawUser), &identity); err != nil {
		return domain.Session{}, fmt.Errorf("decode user: %w", err)
	}
	if identity == nil || identity.ID == "" || !identity.Role.Valid() {
		return domain.Session{}, errors.New("stored user has no id or role")
	}
	return domain.Session{Identity: identity, Token: token}, nil
}

// SetCredentials replaces the session and persists both halves.
func (s *SessionStore) SetCredentials(ctx context.Context, identity *domain.Identity, token string) error {
	if identity == nil || token == "" {
		return errors.New("set credentials: identity and token are required")
	}
	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.SetItem(ctx, userKey, string(raw)); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	if err := s.storage.SetItem(ctx, tokenKey, token); err != nil {
		// The new user must not be restored next to the previous token.
		if rmErr := s.storage.RemoveItem(ctx, userKey, tokenKey); rmErr != nil {
			s.log.Error().Err(rmErr).Msg("failed to clear half-written session")
		}
		s.session = domain.Session{}
		return fmt.Errorf("persist token: %w", err)
	}

	clone := *identity
	s.session = domain.Session{Identity: &clone, Token: token}
	return nil
}

// Logout clears the session in memory and in storage.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = domain.Session{}
	if err := s.storage.RemoveItem(ctx, userKey, tokenKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Invalidate drops a session the backend no longer accepts.
func (s *SessionStore) Invalidate(ctx context.Context) {
	if !s.Snapshot().Authenticated() {
		return
	}
	if err := s.Logout(ctx); err != nil {
		s.log.Error().Err(err).Msg("failed to clear rejected session")
	}
	metrics.SessionEventsTotal.WithLabelValues("invalidated").Inc()
	s.log.Info().Msg("session invalidated by backend")
}

// Snapshot returns a copy of the current session.
func (s *SessionStore) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session.Identity == nil {
		return domain.Session{Token: s.session.Token}
	}
	clone := *s.session.Identity
	return domain.Session{Identity: &clone, Token: s.session.Token}
}

func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Token
}

// Identity returns a copy of the current identity, or nil.
func (s *SessionStore) Identity() *domain.Identity {
	return s.Snapshot().Identity
}
