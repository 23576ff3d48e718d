package chat

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Service keeps the live conversation sessions in memory.
type Service struct {
	completer Completer
	opts      Options
	logger    *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService wires the completion collaborator shared by every session.
func NewService(completer Completer, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		completer: completer,
		opts:      opts,
		logger:    logger,
		sessions:  make(map[string]*Session),
	}
}

// CreateSession provisions a session seeded with the greeting.
func (s *Service) CreateSession(_ context.Context) *Session {
	session := NewSession(s.completer, s.opts, s.logger)

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	s.logger.Info("chat session created", zap.String("session_id", session.ID()))
	return session
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// CloseSession disposes a session and forgets it.
func (s *Service) CloseSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	session.Close()
	s.logger.Info("chat session closed", zap.String("session_id", sessionID))
	return nil
}

// Shutdown closes every session, e.g. when the server stops.
func (s *Service) Shutdown() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}
