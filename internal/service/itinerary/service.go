package itinerary

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/zhouzirui/churai/backend/internal/model/trip"
)

// Service keeps one Editor per trip in memory.
type Service struct {
	logger *zap.Logger

	mu      sync.RWMutex
	editors map[string]*Editor
	order   []string
}

// NewService returns an empty trip registry.
func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		logger:  logger,
		editors: make(map[string]*Editor),
	}
}

// Load registers an existing trip (e.g. trip.Seed()) and returns its editor.
func (s *Service) Load(_ context.Context, t trip.Trip) *Editor {
	editor := NewEditor(t)

	s.mu.Lock()
	if _, exists := s.editors[editor.ID()]; !exists {
		s.order = append(s.order, editor.ID())
	}
	s.editors[editor.ID()] = editor
	s.mu.Unlock()

	s.logger.Info("trip loaded", zap.String("trip_id", editor.ID()), zap.Int("days", len(t.Days)))
	return editor
}

// CreateTrip starts an empty itinerary.
func (s *Service) CreateTrip(ctx context.Context, title, destination string) *Editor {
	title = strings.TrimSpace(title)
	destination = strings.TrimSpace(destination)
	if title == "" {
		title = "My Trip"
		if destination != "" {
			title = "My Trip to " + destination
		}
	}
	return s.Load(ctx, trip.Trip{Title: title, Destination: destination})
}

// Get returns the editor for a trip.
func (s *Service) Get(_ context.Context, tripID string) (*Editor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	editor, ok := s.editors[tripID]
	if !ok {
		return nil, ErrTripNotFound
	}
	return editor, nil
}

// List returns copies of all trips in creation order.
func (s *Service) List(_ context.Context) []trip.Trip {
	s.mu.RLock()
	editors := make([]*Editor, 0, len(s.order))
	for _, id := range s.order {
		editors = append(editors, s.editors[id])
	}
	s.mu.RUnlock()

	trips := make([]trip.Trip, 0, len(editors))
	for _, editor := range editors {
		trips = append(trips, editor.View().Trip)
	}
	return trips
}

// Delete forgets a trip.
func (s *Service) Delete(_ context.Context, tripID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.editors[tripID]; !ok {
		return ErrTripNotFound
	}
	delete(s.editors, tripID)
	for i, id := range s.order {
		if id == tripID {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	s.logger.Info("trip deleted", zap.String("trip_id", tripID))
	return nil
}
